package study

import (
	"github.com/xeipuuv/gojsonschema"
)

// Persisted blobs are validated against these schemas before unmarshaling.
// A blob that fails validation is treated as absent: the tracker starts
// that collection empty rather than loading half-broken state.

const subjectsSchemaJSON = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["id", "name", "questions", "category", "difficulty", "hours_studied", "hour_goal"],
		"properties": {
			"id":            {"type": "string", "minLength": 1},
			"name":          {"type": "string", "minLength": 1},
			"questions":     {"type": "integer", "minimum": 1},
			"category":      {"enum": ["general", "specific"]},
			"difficulty":    {"type": "integer", "minimum": 1, "maximum": 5},
			"hours_studied": {"type": "number", "minimum": 0},
			"hour_goal":     {"type": "integer", "minimum": 1}
		}
	}
}`

const exercisesSchemaJSON = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["id", "subject", "correct", "total", "percentage", "date"],
		"properties": {
			"id":         {"type": "integer"},
			"subject":    {"type": "string", "minLength": 1},
			"correct":    {"type": "integer", "minimum": 0},
			"total":      {"type": "integer", "minimum": 1},
			"percentage": {"type": "number", "minimum": 0, "maximum": 100},
			"topics":     {"type": "array", "items": {"type": "string"}},
			"date":       {"type": "string"}
		}
	}
}`

const levelsSchemaJSON = `{
	"type": "object",
	"additionalProperties": {"type": "integer", "minimum": 0, "maximum": 10}
}`

var (
	subjectsSchema  = mustSchema(subjectsSchemaJSON)
	exercisesSchema = mustSchema(exercisesSchemaJSON)
	levelsSchema    = mustSchema(levelsSchemaJSON)
)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic("study: bad embedded schema: " + err.Error())
	}
	return schema
}

func validBlob(schema *gojsonschema.Schema, payload string) bool {
	result, err := schema.Validate(gojsonschema.NewStringLoader(payload))
	if err != nil {
		return false
	}
	return result.Valid()
}
