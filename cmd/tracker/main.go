// Package main provides the CLI entrypoint for the study tracker.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/concursoprep/tracker/internal/ai"
	"github.com/concursoprep/tracker/internal/catalog"
	"github.com/concursoprep/tracker/internal/coach"
	"github.com/concursoprep/tracker/internal/platform/config"
	"github.com/concursoprep/tracker/internal/report"
	"github.com/concursoprep/tracker/internal/storage"
	"github.com/concursoprep/tracker/internal/study"
)

var (
	initCatalogPath string

	exerciseSubject string
	exerciseCorrect int
	exerciseTotal   int
	exerciseTopics  string

	hoursSubject string
	hoursAmount  float64

	levelSubject string
	levelValue   int

	exportOut string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tracker",
		Short:         "Study tracker for the Câmara dos Deputados exam",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newExerciseCmd())
	rootCmd.AddCommand(newHoursCmd())
	rootCmd.AddCommand(newLevelCmd())
	rootCmd.AddCommand(newPrioritiesCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newAnalyzeCmd())

	return rootCmd
}

// app bundles what every command needs after bootstrap.
type app struct {
	cfg     *config.Config
	tracker *study.Tracker
	close   func()
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setupLogging(cfg.Log)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tracker := study.NewTracker(store)
	if err := tracker.Load(ctx); err != nil {
		closeStore()
		return nil, fmt.Errorf("loading state: %w", err)
	}

	return &app{cfg: cfg, tracker: tracker, close: closeStore}, nil
}

func setupLogging(cfg config.LogConfig) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, func(), error) {
	switch cfg.Storage.Backend {
	case "redis":
		store, err := storage.NewRedisStore(ctx, cfg.Cache.URL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case "postgres":
		pool, err := storage.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, nil, err
		}
		store, err := storage.NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		// The memory backend does not survive the process; it exists for
		// trying the tool out and for tests.
		return storage.NewMemoryStore(), func() {}, nil
	}
}

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Seed the tracked subjects from the exam syllabus",
		Args:  cobra.NoArgs,
		RunE:  runInitCmd,
	}
	cmd.Flags().StringVar(&initCatalogPath, "catalog", "", "YAML syllabus file (default: built-in)")
	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	seeds := catalog.Default()
	path := initCatalogPath
	if path == "" {
		path = a.cfg.Catalog.Path
	}
	if path != "" {
		seeds, err = catalog.LoadFile(path)
		if err != nil {
			return err
		}
	}

	if err := a.tracker.InitSubjects(ctx, seeds); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d subjects (%d exam questions)\n", len(seeds), catalog.TotalQuestions)
	return nil
}

func newExerciseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exercise",
		Short: "Manage practice exercises",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record a practice-exercise result",
		Args:  cobra.NoArgs,
		RunE:  runExerciseAddCmd,
	}
	addCmd.Flags().StringVar(&exerciseSubject, "subject", "", "subject name")
	addCmd.Flags().IntVar(&exerciseCorrect, "correct", 0, "questions answered correctly")
	addCmd.Flags().IntVar(&exerciseTotal, "total", 0, "total questions attempted")
	addCmd.Flags().StringVar(&exerciseTopics, "topics", "", "comma-separated topics answered wrong")

	cmd.AddCommand(addCmd)
	return cmd
}

func runExerciseAddCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	exercise, err := a.tracker.AddExercise(ctx, exerciseSubject, exerciseCorrect, exerciseTotal, splitTopics(exerciseTopics))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s: %d/%d (%.1f%%)\n",
		exercise.Subject, exercise.Correct, exercise.Total, exercise.Percentage)
	return nil
}

func newHoursCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hours",
		Short: "Manage study hours",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add studied hours to a subject",
		Args:  cobra.NoArgs,
		RunE:  runHoursAddCmd,
	}
	addCmd.Flags().StringVar(&hoursSubject, "subject", "", "subject name")
	addCmd.Flags().Float64Var(&hoursAmount, "hours", 0, "hours to add")

	cmd.AddCommand(addCmd)
	return cmd
}

func runHoursAddCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.tracker.AddStudyHours(ctx, catalog.Slug(hoursSubject), hoursAmount); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added %.1fh to %s\n", hoursAmount, hoursSubject)
	return nil
}

func newLevelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "level",
		Short: "Manage self-assessed knowledge levels",
	}

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Set the knowledge level (0-10) for a subject",
		Args:  cobra.NoArgs,
		RunE:  runLevelSetCmd,
	}
	setCmd.Flags().StringVar(&levelSubject, "subject", "", "subject name")
	setCmd.Flags().IntVar(&levelValue, "level", study.DefaultKnowledgeLevel, "knowledge level (0-10)")

	cmd.AddCommand(setCmd)
	return cmd
}

func runLevelSetCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.tracker.SetKnowledgeLevel(ctx, levelSubject, levelValue); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s to level %d\n", levelSubject, levelValue)
	return nil
}

func newPrioritiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "priorities",
		Short: "Show subjects ranked by study priority",
		Args:  cobra.NoArgs,
		RunE:  runPrioritiesCmd,
	}
}

func runPrioritiesCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if !a.tracker.Initialized() {
		return fmt.Errorf("no subjects tracked yet; run: tracker init")
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tMATÉRIA\tPRIORIDADE\tPERFORMANCE\tNÍVEL\tHORAS/META")
	levels := a.tracker.KnowledgeLevels()
	for i, rs := range a.tracker.Ranked() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s%%\t%d\t%.1f/%d\n",
			i+1,
			rs.Subject.Name,
			rs.Result.FormatPriority(),
			rs.Result.FormatAvgPerformance(),
			study.KnowledgeLevelOf(levels, rs.Subject.Name),
			rs.Subject.HoursStudied,
			rs.Subject.HourGoal,
		)
	}
	return w.Flush()
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show overall progress",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	stats := a.tracker.Stats()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Exam questions:     %d\n", stats.TotalQuestions)
	fmt.Fprintf(out, "Exercises logged:   %d\n", stats.ExercisesLogged)
	fmt.Fprintf(out, "Average score:      %.1f%%\n", stats.AvgPercentage)
	fmt.Fprintf(out, "Hours studied:      %.1f of %d (%.1f%%)\n", stats.HoursStudied, stats.HourGoal, stats.ProgressPercent)
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the study state to an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportOut, "out", "progresso.xlsx", "output file")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := report.WriteWorkbook(exportOut, a.tracker.Ranked(), a.tracker.Exercises(), a.tracker.Stats()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", exportOut)
	return nil
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Request a coaching analysis from the AI",
		Args:  cobra.NoArgs,
		RunE:  runAnalyzeCmd,
	}
}

func runAnalyzeCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if !a.cfg.HasAIProvider() {
		return fmt.Errorf("TRACKER_AI_ANTHROPIC_API_KEY is required for analysis")
	}

	provider, err := ai.NewAnthropicProvider(a.cfg.AI.Anthropic.APIKey)
	if err != nil {
		return err
	}

	analyzer := coach.New(coach.Config{
		Provider:  provider,
		Model:     a.cfg.AI.Anthropic.Model,
		MaxTokens: a.cfg.AI.Anthropic.MaxTokens,
		Timeout:   a.cfg.Analysis.Timeout,
	})

	text, err := analyzer.Analyze(ctx, a.tracker.Subjects(), a.tracker.Exercises(), a.tracker.KnowledgeLevels())
	if err != nil {
		slog.Error("analysis failed", "error", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

func splitTopics(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	topics := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			topics = append(topics, p)
		}
	}
	return topics
}
