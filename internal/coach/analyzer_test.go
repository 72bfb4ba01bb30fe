package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/concursoprep/tracker/internal/ai"
	"github.com/concursoprep/tracker/internal/catalog"
	"github.com/concursoprep/tracker/internal/study"
)

func stateFixture() ([]study.Subject, []study.Exercise, study.Levels) {
	subjects := []study.Subject{
		{ID: "direito-constitucional", Name: "Direito Constitucional", Questions: 25, Category: catalog.CategorySpecific, Difficulty: 4, HourGoal: 13},
		{ID: "atualidades", Name: "Atualidades", Questions: 10, Category: catalog.CategoryGeneral, Difficulty: 2, HourGoal: 5, HoursStudied: 5},
	}
	exercises := []study.Exercise{
		{ID: 1, Subject: "Direito Constitucional", Correct: 15, Total: 25, Percentage: 60.0, Topics: []string{"controle difuso"}},
	}
	levels := study.Levels{"Atualidades": 8}
	return subjects, exercises, levels
}

func TestAnalyze_Success(t *testing.T) {
	mock := ai.NewMockProvider("## Diagnóstico Geral\nFoco em Direito Constitucional.")
	analyzer := New(Config{Provider: mock})

	subjects, exercises, levels := stateFixture()
	text, err := analyzer.Analyze(context.Background(), subjects, exercises, levels)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !strings.Contains(text, "Diagnóstico Geral") {
		t.Errorf("Analyze() = %q, want model content", text)
	}

	if mock.LastRequest == nil {
		t.Fatal("provider was not called")
	}
	if len(mock.LastRequest.Messages) != 1 || mock.LastRequest.Messages[0].Role != "user" {
		t.Fatal("request should carry a single user-role message")
	}
	if mock.LastRequest.MaxTokens != 1000 {
		t.Errorf("MaxTokens = %d, want default 1000", mock.LastRequest.MaxTokens)
	}
}

func TestAnalyze_PromptContents(t *testing.T) {
	mock := ai.NewMockProvider("ok")
	analyzer := New(Config{Provider: mock})

	subjects, exercises, levels := stateFixture()
	if _, err := analyzer.Analyze(context.Background(), subjects, exercises, levels); err != nil {
		t.Fatal(err)
	}

	prompt := mock.LastRequest.Messages[0].Content

	for _, want := range []string{
		"180 questões (90 gerais + 90 específicas)",
		"Direito Constitucional",
		"controle difuso",
		`"nivel_conhecimento": "não informado"`, // Direito Constitucional has no reported level
		`"nivel_conhecimento": 8`,               // Atualidades has one
		"Diagnóstico Geral",
		"Top 5 Prioridades",
		"Pontos Fracos Críticos",
		"Plano de Ação Semanal",
		"Dicas Estratégicas",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAnalyze_TruncatesToRecentExercises(t *testing.T) {
	subjects, _, levels := stateFixture()

	var exercises []study.Exercise
	for i := 0; i < 20; i++ {
		exercises = append(exercises, study.Exercise{
			ID:         int64(i + 1),
			Subject:    "Atualidades",
			Correct:    5,
			Total:      10,
			Percentage: 50.0,
			Topics:     []string{fmt.Sprintf("tópico-%02d", i)},
		})
	}

	mock := ai.NewMockProvider("ok")
	analyzer := New(Config{Provider: mock})
	if _, err := analyzer.Analyze(context.Background(), subjects, exercises, levels); err != nil {
		t.Fatal(err)
	}

	prompt := mock.LastRequest.Messages[0].Content
	if strings.Contains(prompt, "tópico-04") {
		t.Error("prompt includes exercises older than the most recent 15")
	}
	if !strings.Contains(prompt, "tópico-05") || !strings.Contains(prompt, "tópico-19") {
		t.Error("prompt missing the most recent 15 exercises")
	}
}

func TestAnalyze_TopTenSubjectsOnly(t *testing.T) {
	// Twelve subjects with strictly decreasing weight; the two lightest
	// must not reach the prompt.
	var subjects []study.Subject
	for i := 0; i < 12; i++ {
		subjects = append(subjects, study.Subject{
			ID:         fmt.Sprintf("materia-%02d", i),
			Name:       fmt.Sprintf("Matéria %02d", i),
			Questions:  30 - i,
			Category:   catalog.CategoryGeneral,
			Difficulty: 3,
			HourGoal:   catalog.HourGoal(30 - i),
		})
	}

	mock := ai.NewMockProvider("ok")
	analyzer := New(Config{Provider: mock})
	if _, err := analyzer.Analyze(context.Background(), subjects, nil, study.Levels{}); err != nil {
		t.Fatal(err)
	}

	prompt := mock.LastRequest.Messages[0].Content
	if strings.Contains(prompt, "Matéria 10") || strings.Contains(prompt, "Matéria 11") {
		t.Error("prompt includes subjects beyond the top 10")
	}
	if !strings.Contains(prompt, "Matéria 00") {
		t.Error("prompt missing highest-priority subject")
	}
}

func TestAnalyze_ProviderFailure(t *testing.T) {
	mock := &ai.MockProvider{Err: errors.New("connection refused")}
	analyzer := New(Config{Provider: mock})

	subjects, exercises, levels := stateFixture()
	text, err := analyzer.Analyze(context.Background(), subjects, exercises, levels)

	if err == nil {
		t.Fatal("Analyze() should report the failure")
	}
	if text != FallbackMessage {
		t.Errorf("text = %q, want the fixed fallback message", text)
	}
	if strings.Contains(text, "connection refused") {
		t.Error("raw transport error must not reach the user-facing text")
	}
}

// blockingProvider parks in Complete until released, to exercise the
// single-flight guard.
type blockingProvider struct {
	started   chan struct{}
	release   chan struct{}
	startOnce sync.Once
}

func (p *blockingProvider) Complete(ctx context.Context, _ ai.CompletionRequest) (ai.CompletionResponse, error) {
	p.startOnce.Do(func() { close(p.started) })
	select {
	case <-p.release:
		return ai.CompletionResponse{Content: "done"}, nil
	case <-ctx.Done():
		return ai.CompletionResponse{}, ctx.Err()
	}
}

func TestAnalyze_BusyGuard(t *testing.T) {
	provider := &blockingProvider{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	analyzer := New(Config{Provider: provider})
	subjects, exercises, levels := stateFixture()

	firstDone := make(chan error, 1)
	go func() {
		_, err := analyzer.Analyze(context.Background(), subjects, exercises, levels)
		firstDone <- err
	}()

	<-provider.started

	text, err := analyzer.Analyze(context.Background(), subjects, exercises, levels)
	if !errors.Is(err, ErrBusy) {
		t.Errorf("second Analyze() error = %v, want ErrBusy", err)
	}
	if text != FallbackMessage {
		t.Errorf("second Analyze() text = %q, want fallback", text)
	}

	close(provider.release)
	if err := <-firstDone; err != nil {
		t.Errorf("first Analyze() error = %v", err)
	}

	// Guard must clear once the first request finishes. The released
	// provider now returns immediately.
	if _, err := analyzer.Analyze(context.Background(), subjects, exercises, levels); err != nil {
		t.Errorf("Analyze() after completion error = %v", err)
	}
}

func TestAnalyze_Timeout(t *testing.T) {
	provider := &blockingProvider{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	analyzer := New(Config{Provider: provider, Timeout: 20 * time.Millisecond})

	subjects, exercises, levels := stateFixture()
	text, err := analyzer.Analyze(context.Background(), subjects, exercises, levels)

	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Analyze() error = %v, want ErrTimeout", err)
	}
	if text != FallbackMessage {
		t.Errorf("text = %q, want fallback", text)
	}
}
