package study

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/concursoprep/tracker/internal/catalog"
	"github.com/concursoprep/tracker/internal/storage"
)

var (
	// ErrInvalidExercise rejects an exercise with no subject, a
	// non-positive total, or a correct count outside [0, total].
	ErrInvalidExercise = errors.New("invalid exercise")

	// ErrUnknownSubject means the named subject is not in the tracked set.
	ErrUnknownSubject = errors.New("unknown subject")

	// ErrInvalidLevel means a knowledge level outside 0-10.
	ErrInvalidLevel = errors.New("knowledge level must be 0-10")

	// ErrInvalidHours means a non-positive study-hour increment.
	ErrInvalidHours = errors.New("hours must be positive")
)

// Tracker owns the in-memory collections for the session and mirrors every
// mutation to the store. The in-memory state is applied before the write,
// so a persistence failure leaves memory correct and the mirror stale; the
// error is returned for the caller to decide on. Writes are per key and not
// atomic across the three keys — a crash between writes can leave the
// mirrors inconsistent, which is accepted for a single-user local tool.
type Tracker struct {
	mu        sync.RWMutex
	store     storage.Store
	subjects  []Subject
	exercises []Exercise
	levels    Levels
	lastID    int64
}

// NewTracker creates a tracker over the given store with empty collections.
func NewTracker(store storage.Store) *Tracker {
	return &Tracker{
		store:  store,
		levels: make(Levels),
	}
}

// Load restores the three collections from the store. A missing key leaves
// that collection empty; a malformed or schema-invalid blob is logged and
// likewise treated as empty rather than poisoning the state.
func (t *Tracker) Load(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := loadBlob(ctx, t.store, storage.SubjectsKey, subjectsSchema, &t.subjects); err != nil {
		return err
	}
	if err := loadBlob(ctx, t.store, storage.ExercisesKey, exercisesSchema, &t.exercises); err != nil {
		return err
	}
	levels := make(Levels)
	if err := loadBlob(ctx, t.store, storage.LevelsKey, levelsSchema, &levels); err != nil {
		return err
	}
	t.levels = levels

	for _, e := range t.exercises {
		if e.ID > t.lastID {
			t.lastID = e.ID
		}
	}
	return nil
}

func loadBlob[T any](ctx context.Context, store storage.Store, key string, schema *gojsonschema.Schema, dst *T) error {
	payload, ok, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("loading %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	if !validBlob(schema, payload) {
		slog.Warn("discarding invalid persisted blob", "key", key)
		return nil
	}
	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		slog.Warn("discarding unreadable persisted blob", "key", key, "error", err)
	}
	return nil
}

// Initialized reports whether subjects have been seeded.
func (t *Tracker) Initialized() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subjects) > 0
}

// InitSubjects seeds the subject collection from the catalog, replacing any
// existing set. Hour goals are derived here, once.
func (t *Tracker) InitSubjects(ctx context.Context, seeds []catalog.SeedSubject) error {
	if err := catalog.Validate(seeds); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	subjects := make([]Subject, len(seeds))
	for i, seed := range seeds {
		subjects[i] = Subject{
			ID:         catalog.Slug(seed.Name),
			Name:       seed.Name,
			Questions:  seed.Questions,
			Category:   seed.Category,
			Difficulty: seed.Difficulty,
			HourGoal:   catalog.HourGoal(seed.Questions),
		}
	}
	t.subjects = subjects

	return t.persist(ctx, storage.SubjectsKey, t.subjects)
}

// AddExercise validates and appends one practice result. The percentage is
// fixed here and never recomputed.
func (t *Tracker) AddExercise(ctx context.Context, subjectName string, correct, total int, topics []string) (Exercise, error) {
	if subjectName == "" || total <= 0 {
		return Exercise{}, ErrInvalidExercise
	}
	if correct < 0 || correct > total {
		return Exercise{}, ErrInvalidExercise
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.findSubjectByName(subjectName) < 0 {
		return Exercise{}, fmt.Errorf("%w: %s", ErrUnknownSubject, subjectName)
	}

	// Millisecond IDs can collide on fast successive inserts.
	id := time.Now().UnixMilli()
	if id <= t.lastID {
		id = t.lastID + 1
	}
	t.lastID = id

	exercise := Exercise{
		ID:         id,
		Subject:    subjectName,
		Correct:    correct,
		Total:      total,
		Percentage: float64(correct) / float64(total) * 100,
		Topics:     topics,
		Date:       time.Now().UTC(),
	}
	t.exercises = append(t.exercises, exercise)

	return exercise, t.persist(ctx, storage.ExercisesKey, t.exercises)
}

// AddStudyHours increments a subject's studied hours. Hours only go up.
func (t *Tracker) AddStudyHours(ctx context.Context, subjectID string, hours float64) error {
	if hours <= 0 {
		return ErrInvalidHours
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.subjects {
		if t.subjects[i].ID == subjectID {
			t.subjects[i].HoursStudied += hours
			return t.persist(ctx, storage.SubjectsKey, t.subjects)
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownSubject, subjectID)
}

// SetKnowledgeLevel overwrites the self-assessment for a subject.
func (t *Tracker) SetKnowledgeLevel(ctx context.Context, subjectName string, level int) error {
	if level < 0 || level > 10 {
		return ErrInvalidLevel
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.findSubjectByName(subjectName) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSubject, subjectName)
	}
	t.levels[subjectName] = level

	return t.persist(ctx, storage.LevelsKey, t.levels)
}

// Subjects returns a copy of the tracked subjects in insertion order.
func (t *Tracker) Subjects() []Subject {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Subject, len(t.subjects))
	copy(out, t.subjects)
	return out
}

// Exercises returns a copy of the exercise log in insertion order.
func (t *Tracker) Exercises() []Exercise {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Exercise, len(t.exercises))
	copy(out, t.exercises)
	return out
}

// KnowledgeLevels returns a copy of the level map.
func (t *Tracker) KnowledgeLevels() Levels {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(Levels, len(t.levels))
	for k, v := range t.levels {
		out[k] = v
	}
	return out
}

// Ranked returns subjects ordered by descending priority.
func (t *Tracker) Ranked() []RankedSubject {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return RankSubjects(t.subjects, t.exercises, t.levels)
}

// Stats returns the aggregate progress numbers.
func (t *Tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return ComputeStats(t.subjects, t.exercises)
}

// persist mirrors one collection to its key. Callers hold t.mu.
func (t *Tracker) persist(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := t.store.Set(ctx, key, string(payload)); err != nil {
		return fmt.Errorf("persisting %s: %w", key, err)
	}
	return nil
}

func (t *Tracker) findSubjectByName(name string) int {
	for i := range t.subjects {
		if t.subjects[i].Name == name {
			return i
		}
	}
	return -1
}
