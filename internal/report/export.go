// Package report writes the study state to an xlsx workbook: the ranked
// subject table and the exercise log, one sheet each.
package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/concursoprep/tracker/internal/study"
)

const (
	subjectsSheet  = "Matérias"
	exercisesSheet = "Exercícios"
)

// WriteWorkbook writes the ranked subjects and exercise log to path.
func WriteWorkbook(path string, ranked []study.RankedSubject, exercises []study.Exercise, stats study.Stats) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := writeSubjects(f, ranked, stats); err != nil {
		return err
	}
	if err := writeExercises(f, exercises); err != nil {
		return err
	}

	// Drop the default sheet so the workbook opens on the ranking.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeSubjects(f *excelize.File, ranked []study.RankedSubject, stats study.Stats) error {
	if _, err := f.NewSheet(subjectsSheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", subjectsSheet, err)
	}

	header := []any{
		"#", "Matéria", "Questões", "Tipo", "Dificuldade",
		"Horas", "Meta", "Prioridade", "Gap Performance", "Gap Conhecimento", "Gap Horas", "Performance Média",
	}
	if err := f.SetSheetRow(subjectsSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, rs := range ranked {
		row := []any{
			i + 1,
			rs.Subject.Name,
			rs.Subject.Questions,
			string(rs.Subject.Category),
			rs.Subject.Difficulty,
			rs.Subject.HoursStudied,
			rs.Subject.HourGoal,
			rs.Result.Priority,
			rs.Result.PerformanceGap,
			rs.Result.KnowledgeGap,
			rs.Result.StudyGap,
			rs.Result.AvgPerformance,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(subjectsSheet, cell, &row); err != nil {
			return fmt.Errorf("writing subject row %d: %w", i+1, err)
		}
	}

	summaryRow := len(ranked) + 3
	summary := []any{
		"", "Total",
		stats.TotalQuestions, "", "",
		stats.HoursStudied,
		stats.HourGoal,
		"", "", "", "",
		stats.AvgPercentage,
	}
	cell := fmt.Sprintf("A%d", summaryRow)
	if err := f.SetSheetRow(subjectsSheet, cell, &summary); err != nil {
		return fmt.Errorf("writing summary row: %w", err)
	}

	return nil
}

func writeExercises(f *excelize.File, exercises []study.Exercise) error {
	if _, err := f.NewSheet(exercisesSheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", exercisesSheet, err)
	}

	header := []any{"Data", "Matéria", "Acertos", "Total", "Percentual", "Assuntos Errados"}
	if err := f.SetSheetRow(exercisesSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range exercises {
		row := []any{
			e.Date.Format("2006-01-02 15:04"),
			e.Subject,
			e.Correct,
			e.Total,
			e.Percentage,
			strings.Join(e.Topics, ", "),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(exercisesSheet, cell, &row); err != nil {
			return fmt.Errorf("writing exercise row %d: %w", i+1, err)
		}
	}

	return nil
}
