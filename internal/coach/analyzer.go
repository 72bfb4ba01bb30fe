// Package coach turns the tracked study state into a coaching prompt and
// asks the model for a narrative analysis.
package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/concursoprep/tracker/internal/ai"
	"github.com/concursoprep/tracker/internal/catalog"
	"github.com/concursoprep/tracker/internal/study"
)

const (
	// topSubjects and recentExercises bound how much state goes into the
	// prompt: the highest-priority subjects and the tail of the log.
	topSubjects     = 10
	recentExercises = 15

	defaultMaxTokens = 1000
	defaultTimeout   = 60 * time.Second
)

// FallbackMessage is the fixed user-facing text returned when the analysis
// cannot be produced. Raw transport errors never reach the user.
const FallbackMessage = "Erro ao conectar com a IA. Verifique sua conexão e tente novamente."

var (
	// ErrBusy rejects a trigger while another request is in flight.
	ErrBusy = errors.New("analysis request already in flight")

	// ErrTimeout marks an analysis that exceeded the configured deadline.
	ErrTimeout = errors.New("analysis request timed out")
)

// Config holds the Analyzer's dependencies and knobs.
type Config struct {
	Provider  ai.Provider
	Model     string        // empty means the provider default
	MaxTokens int           // default 1000
	Timeout   time.Duration // default 60s
}

// Analyzer requests coaching analyses, one at a time.
type Analyzer struct {
	provider  ai.Provider
	model     string
	maxTokens int
	timeout   time.Duration
	busy      atomic.Bool
}

// New creates an Analyzer.
func New(cfg Config) *Analyzer {
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Analyzer{
		provider:  cfg.Provider,
		model:     cfg.Model,
		maxTokens: maxTokens,
		timeout:   timeout,
	}
}

// Analyze builds the prompt from the current state and asks the model.
// On failure the returned text is always FallbackMessage and the error
// carries the kind (ErrBusy, ErrTimeout, or the wrapped provider error).
// At most one request runs at a time; a concurrent trigger gets ErrBusy
// without a duplicate network call.
func (a *Analyzer) Analyze(ctx context.Context, subjects []study.Subject, exercises []study.Exercise, levels study.Levels) (string, error) {
	if !a.busy.CompareAndSwap(false, true) {
		return FallbackMessage, ErrBusy
	}
	defer a.busy.Store(false)

	prompt, err := buildPrompt(subjects, exercises, levels)
	if err != nil {
		return FallbackMessage, fmt.Errorf("building prompt: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.provider.Complete(ctx, ai.CompletionRequest{
		Messages:  []ai.Message{{Role: "user", Content: prompt}},
		Model:     a.model,
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		slog.Error("analysis request failed", "error", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return FallbackMessage, ErrTimeout
		}
		return FallbackMessage, fmt.Errorf("requesting analysis: %w", err)
	}

	return resp.Content, nil
}

// subjectRecord is the compact per-subject view serialized into the prompt.
type subjectRecord struct {
	Name           string `json:"nome"`
	Questions      int    `json:"questoes"`
	Category       string `json:"tipo"`
	HoursStudied   string `json:"horas_estudadas"`
	HourGoal       int    `json:"meta_horas"`
	KnowledgeLevel any    `json:"nivel_conhecimento"`
	Priority       string `json:"prioridade"`
	AvgPerformance string `json:"performance_media"`
	ExercisesDone  int    `json:"exercicios_feitos"`
}

// exerciseRecord is the compact per-exercise view serialized into the prompt.
type exerciseRecord struct {
	Subject      string   `json:"materia"`
	Correct      int      `json:"acertos"`
	Total        int      `json:"total"`
	Percentage   string   `json:"percentual"`
	MissedTopics []string `json:"assuntos_errados"`
}

func buildPrompt(subjects []study.Subject, exercises []study.Exercise, levels study.Levels) (string, error) {
	ranked := study.RankSubjects(subjects, exercises, levels)
	if len(ranked) > topSubjects {
		ranked = ranked[:topSubjects]
	}

	subjectRecords := make([]subjectRecord, len(ranked))
	for i, rs := range ranked {
		done := 0
		for _, e := range exercises {
			if e.Subject == rs.Subject.Name {
				done++
			}
		}

		var level any = "não informado"
		if lvl, ok := levels[rs.Subject.Name]; ok {
			level = lvl
		}

		subjectRecords[i] = subjectRecord{
			Name:           rs.Subject.Name,
			Questions:      rs.Subject.Questions,
			Category:       categoryLabel(rs.Subject.Category),
			HoursStudied:   fmt.Sprintf("%.1f", rs.Subject.HoursStudied),
			HourGoal:       rs.Subject.HourGoal,
			KnowledgeLevel: level,
			Priority:       rs.Result.FormatPriority(),
			AvgPerformance: rs.Result.FormatAvgPerformance() + "%",
			ExercisesDone:  done,
		}
	}

	// The log is append-only, so the tail is the most recent.
	recent := exercises
	if len(recent) > recentExercises {
		recent = recent[len(recent)-recentExercises:]
	}
	exerciseRecords := make([]exerciseRecord, len(recent))
	for i, e := range recent {
		exerciseRecords[i] = exerciseRecord{
			Subject:      e.Subject,
			Correct:      e.Correct,
			Total:        e.Total,
			Percentage:   fmt.Sprintf("%.1f%%", e.Percentage),
			MissedTopics: e.Topics,
		}
	}

	subjectsJSON, err := json.MarshalIndent(subjectRecords, "", "  ")
	if err != nil {
		return "", err
	}
	exercisesJSON, err := json.MarshalIndent(exerciseRecords, "", "  ")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(promptTemplate,
		catalog.TotalQuestions,
		catalog.GeneralQuestions,
		catalog.SpecificQuestions,
		catalog.ScoringScheme,
		catalog.PassThreshold,
		subjectsJSON,
		exercisesJSON,
	), nil
}

func categoryLabel(c catalog.Category) string {
	if c == catalog.CategorySpecific {
		return "específico"
	}
	return "geral"
}

const promptTemplate = `Você é um especialista em concursos públicos e coaching de estudos. Analise o desempenho do candidato no concurso da Câmara dos Deputados (Analista Legislativo).

DADOS DO CONCURSO:
- Total: %d questões (%d gerais + %d específicas)
- Sistema: %s
- Nota mínima para passar: %s

MATÉRIAS PRIORITÁRIAS (com score de prioridade calculado):
%s

EXERCÍCIOS RECENTES:
%s

CONTEXTO:
O candidato está usando um sistema de priorização que considera: performance em exercícios, nível de conhecimento declarado, peso da matéria no edital, dificuldade e progresso nos estudos.

ANÁLISE SOLICITADA:
1. **Diagnóstico Geral**: Avalie o nível atual de preparação e probabilidade de aprovação
2. **Top 5 Prioridades**: Liste as 5 matérias que ele DEVE focar nos próximos 15 dias
3. **Pontos Fracos Críticos**: Identifique assuntos específicos onde ele está errando muito
4. **Plano de Ação Semanal**: Sugira distribuição de horas de estudo
5. **Dicas Estratégicas**: Conselhos específicos para melhorar rapidamente

Seja DIRETO, PRÁTICO e MOTIVADOR. Use números e seja específico.`
