// Package catalog holds the exam syllabus: the seeded subject list with
// question weights, and the fixed facts about the exam itself.
package catalog

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Exam facts for Câmara dos Deputados — Analista Legislativo. These are
// properties of the exam notice, not derived values.
const (
	TotalQuestions    = 180
	GeneralQuestions  = 90
	SpecificQuestions = 90
	ScoringScheme     = "Certo/Errado (Cebraspe)"
	PassThreshold     = "~60-70% de acerto"
)

// Category classifies a subject within the exam's two question blocks.
type Category string

const (
	CategoryGeneral  Category = "general"
	CategorySpecific Category = "specific"
)

// Valid reports whether the category is one of the two known blocks.
func (c Category) Valid() bool {
	return c == CategoryGeneral || c == CategorySpecific
}

// SeedSubject is one syllabus entry: a subject with its weight in the exam.
type SeedSubject struct {
	Name       string   `yaml:"name"`
	Questions  int      `yaml:"questions"`
	Category   Category `yaml:"category"`
	Difficulty int      `yaml:"difficulty"`
}

// Default returns the built-in syllabus from the exam notice.
func Default() []SeedSubject {
	return []SeedSubject{
		{Name: "Língua Portuguesa", Questions: 20, Category: CategoryGeneral, Difficulty: 3},
		{Name: "Raciocínio Lógico e Analítico", Questions: 15, Category: CategoryGeneral, Difficulty: 4},
		{Name: "Direito Administrativo", Questions: 20, Category: CategoryGeneral, Difficulty: 4},
		{Name: "Administração Pública", Questions: 15, Category: CategoryGeneral, Difficulty: 3},
		{Name: "Noções de Informática", Questions: 10, Category: CategoryGeneral, Difficulty: 2},
		{Name: "Atualidades", Questions: 10, Category: CategoryGeneral, Difficulty: 2},
		{Name: "Regimento Interno da Câmara", Questions: 30, Category: CategorySpecific, Difficulty: 5},
		{Name: "Direito Constitucional", Questions: 25, Category: CategorySpecific, Difficulty: 4},
		{Name: "Processo Legislativo", Questions: 20, Category: CategorySpecific, Difficulty: 4},
		{Name: "Gestão Pública e Orçamento", Questions: 15, Category: CategorySpecific, Difficulty: 4},
	}
}

// LoadFile reads an alternative syllabus from a YAML file, for studying a
// different exam notice with the same tooling.
func LoadFile(path string) ([]SeedSubject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var doc struct {
		Subjects []SeedSubject `yaml:"subjects"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	if err := Validate(doc.Subjects); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return doc.Subjects, nil
}

// Validate checks a syllabus for structural problems.
func Validate(subjects []SeedSubject) error {
	if len(subjects) == 0 {
		return fmt.Errorf("catalog has no subjects")
	}

	seen := make(map[string]bool, len(subjects))
	for _, s := range subjects {
		if s.Name == "" {
			return fmt.Errorf("subject with empty name")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate subject %q", s.Name)
		}
		seen[s.Name] = true
		if s.Questions <= 0 {
			return fmt.Errorf("subject %q: questions must be positive, got %d", s.Name, s.Questions)
		}
		if s.Difficulty < 1 || s.Difficulty > 5 {
			return fmt.Errorf("subject %q: difficulty must be 1-5, got %d", s.Name, s.Difficulty)
		}
		if !s.Category.Valid() {
			return fmt.Errorf("subject %q: unknown category %q", s.Name, s.Category)
		}
	}
	return nil
}

// HourGoal derives the study-hour target for a subject at creation time:
// half an hour per exam question, rounded up. Fixed once set.
func HourGoal(questions int) int {
	return int(math.Ceil(float64(questions) * 0.5))
}
