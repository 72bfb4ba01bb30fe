// Package study is the core of the tracker: the owned collections of
// subjects, exercises and knowledge levels, the priority-scoring engine,
// and the aggregate progress statistics.
package study

import (
	"fmt"
	"time"

	"github.com/concursoprep/tracker/internal/catalog"
)

// Subject is one syllabus topic being tracked. HourGoal is fixed at
// creation (ceil of half the question count) and never recalculated.
type Subject struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Questions    int              `json:"questions"`
	Category     catalog.Category `json:"category"`
	Difficulty   int              `json:"difficulty"`
	HoursStudied float64          `json:"hours_studied"`
	HourGoal     int              `json:"hour_goal"`
}

// Exercise is a single practice-test attempt. Percentage is computed once
// at creation and stored; exercises are append-only and never edited.
type Exercise struct {
	ID         int64     `json:"id"`
	Subject    string    `json:"subject"`
	Correct    int       `json:"correct"`
	Total      int       `json:"total"`
	Percentage float64   `json:"percentage"`
	Topics     []string  `json:"topics,omitempty"`
	Date       time.Time `json:"date"`
}

// Levels maps a subject name to its self-reported mastery (0-10).
// Absent entries fall back to DefaultKnowledgeLevel.
type Levels map[string]int

// PriorityResult is the per-subject scoring snapshot. All fields are
// derived; nothing here is persisted as authoritative.
type PriorityResult struct {
	Priority       float64
	PerformanceGap float64
	KnowledgeGap   int
	StudyGap       float64
	AvgPerformance float64
}

// FormatPriority renders the score for display with two decimals.
func (r PriorityResult) FormatPriority() string {
	return fmt.Sprintf("%.2f", r.Priority)
}

// FormatPerformanceGap renders the performance gap with one decimal.
func (r PriorityResult) FormatPerformanceGap() string {
	return fmt.Sprintf("%.1f", r.PerformanceGap)
}

// FormatStudyGap renders the study-hour gap with one decimal.
func (r PriorityResult) FormatStudyGap() string {
	return fmt.Sprintf("%.1f", r.StudyGap)
}

// FormatAvgPerformance renders the average performance with one decimal.
func (r PriorityResult) FormatAvgPerformance() string {
	return fmt.Sprintf("%.1f", r.AvgPerformance)
}

// RankedSubject pairs a subject with its computed priority.
type RankedSubject struct {
	Subject Subject
	Result  PriorityResult
}

// Stats aggregates overall progress across all subjects and exercises.
type Stats struct {
	TotalQuestions  int
	ExercisesLogged int
	AvgPercentage   float64
	HoursStudied    float64
	HourGoal        int
	ProgressPercent float64
}
