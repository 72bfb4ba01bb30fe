package study

import "github.com/concursoprep/tracker/internal/catalog"

// ComputeStats derives the overall progress numbers. Pure and total: the
// only edge cases are the two zero-denominator guards.
func ComputeStats(subjects []Subject, exercises []Exercise) Stats {
	stats := Stats{
		TotalQuestions:  catalog.TotalQuestions,
		ExercisesLogged: len(exercises),
	}

	if len(exercises) > 0 {
		var sum float64
		for _, e := range exercises {
			sum += e.Percentage
		}
		stats.AvgPercentage = sum / float64(len(exercises))
	}

	for _, s := range subjects {
		stats.HoursStudied += s.HoursStudied
		stats.HourGoal += s.HourGoal
	}
	if stats.HourGoal > 0 {
		stats.ProgressPercent = 100 * stats.HoursStudied / float64(stats.HourGoal)
	}

	return stats
}
