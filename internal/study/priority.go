package study

import (
	"sort"

	"github.com/concursoprep/tracker/internal/catalog"
)

// DefaultKnowledgeLevel is the self-assessment assumed when a subject has
// no reported level. Scoring and display both resolve through this one
// constant.
const DefaultKnowledgeLevel = 5

// neutralPerformance is the prior when no exercises exist for a subject:
// assume average ability absent evidence.
const neutralPerformance = 50.0

// Scoring weights. The base blends the three gaps, then exam weight,
// difficulty and block multiplier scale it.
const (
	performanceWeight  = 0.3
	knowledgeWeight    = 0.25
	studyWeight        = 0.2
	specificMultiplier = 1.2
)

// KnowledgeLevelOf returns the reported level for a subject name, or
// DefaultKnowledgeLevel if none was reported.
func KnowledgeLevelOf(levels Levels, subjectName string) int {
	if lvl, ok := levels[subjectName]; ok {
		return lvl
	}
	return DefaultKnowledgeLevel
}

// ComputePriority scores one subject against the full exercise log and
// knowledge-level map. Pure: inputs are never mutated.
func ComputePriority(s Subject, exercises []Exercise, levels Levels) PriorityResult {
	var sum float64
	var count int
	for _, e := range exercises {
		if e.Subject != s.Name {
			continue
		}
		sum += e.Percentage
		count++
	}

	avgPerformance := neutralPerformance
	if count > 0 {
		avgPerformance = sum / float64(count)
	}
	performanceGap := 100 - avgPerformance

	knowledgeGap := 10 - KnowledgeLevelOf(levels, s.Name)

	studyGap := float64(s.HourGoal) - s.HoursStudied
	if studyGap < 0 {
		studyGap = 0 // over-study is not a bonus
	}

	typeMultiplier := 1.0
	if s.Category == catalog.CategorySpecific {
		typeMultiplier = specificMultiplier
	}

	basePriority := performanceGap*performanceWeight +
		float64(knowledgeGap)*10*knowledgeWeight +
		studyGap*2*studyWeight

	priority := basePriority *
		(float64(s.Questions) / 10) *
		(float64(s.Difficulty) / 3) *
		typeMultiplier

	return PriorityResult{
		Priority:       priority,
		PerformanceGap: performanceGap,
		KnowledgeGap:   knowledgeGap,
		StudyGap:       studyGap,
		AvgPerformance: avgPerformance,
	}
}

// RankSubjects scores every subject and orders them by descending priority.
// The comparison is on the float value, never a formatted string. Ties keep
// the input (catalog) order.
func RankSubjects(subjects []Subject, exercises []Exercise, levels Levels) []RankedSubject {
	ranked := make([]RankedSubject, len(subjects))
	for i, s := range subjects {
		ranked[i] = RankedSubject{Subject: s, Result: ComputePriority(s, exercises, levels)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Result.Priority > ranked[j].Result.Priority
	})
	return ranked
}
