// Package store owns the tester's session state: identity fields plus one
// CategoryTestState per study category. Every mutation goes through this
// package, and every mutation schedules a debounced write of the whole blob
// to the local key-value store.
package store

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"vtt-go/internal/metrics"
	"vtt-go/internal/models"
	"vtt-go/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrUnknownCategory is returned when the category label is not part of
	// the loaded study.
	ErrUnknownCategory = errors.New("store: unknown category")
	// ErrIndexOutOfRange is returned when an answer targets an index outside
	// the assigned question set. The original tool corrupted its answer
	// array silently here; we fail loudly instead.
	ErrIndexOutOfRange = errors.New("store: answer index out of range")
	// ErrNotAssigned is returned when an operation needs an image set that
	// has not been assigned yet.
	ErrNotAssigned = errors.New("store: category has no assigned image set")
)

// Results is the read snapshot for one category: calculator output combined
// with completion state, timestamps and the tester's comment.
type Results struct {
	metrics.Summary
	TotalQuestions int        `json:"totalQuestions"`
	Completed      bool       `json:"completed"`
	Degraded       bool       `json:"degraded"`
	StartTime      *time.Time `json:"startTime"`
	EndTime        *time.Time `json:"endTime"`
	Comment        string     `json:"comment"`
}

// ExportDocument is the downloadable result bundle. Overall metrics are
// recomputed from the pooled confusion matrix, never averaged from the
// per-category percentages.
type ExportDocument struct {
	Version    int                                  `json:"version"`
	ExportID   string                               `json:"exportId"`
	ExportedAt time.Time                            `json:"exportedAt"`
	TesterInfo models.TesterInfo                    `json:"testerInfo"`
	Results    map[string]*Results                  `json:"results"`
	Overall    metrics.Summary                      `json:"overall"`
	RawData    map[string]*models.CategoryTestState `json:"rawData"`
}

// Store is the session store. It is safe for concurrent use; gin serves
// handlers on separate goroutines even though only one tester clicks at a
// time.
type Store struct {
	mu       sync.Mutex
	kv       *storage.KV
	log      *zap.Logger
	labels   []string
	n        int
	debounce time.Duration

	data  *models.UserData
	timer *time.Timer
}

// Load constructs the store from the durable blob if one exists, else from
// defaults. A corrupt or partially-shaped blob is normalized, not surfaced:
// the tester should never see a storage error on startup.
func Load(kv *storage.KV, study *models.Study, debounce time.Duration, log *zap.Logger) *Store {
	s := &Store{
		kv:       kv,
		log:      log,
		labels:   study.Labels(),
		n:        study.QuestionsPerCategory,
		debounce: debounce,
	}

	raw, err := kv.Get(models.StorageKey)
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		s.data = models.NewUserData(s.labels, s.n)
	case err != nil:
		log.Error("Failed to read persisted session, starting fresh", zap.Error(err))
		s.data = models.NewUserData(s.labels, s.n)
	default:
		var data models.UserData
		if err := json.Unmarshal(raw, &data); err != nil {
			log.Warn("Persisted session is malformed, starting fresh", zap.Error(err))
			s.data = models.NewUserData(s.labels, s.n)
		} else {
			data.Normalize(s.labels, s.n)
			s.data = &data
			log.Info("Resumed persisted session", zap.String("tester", data.Tester))
		}
	}

	return s
}

// QuestionsPerCategory returns the configured question count per category.
func (s *Store) QuestionsPerCategory() int {
	return s.n
}

// TesterInfo returns the identity fields.
func (s *Store) TesterInfo() models.TesterInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Info()
}

// SetTesterInfo replaces the identity fields.
func (s *Store) SetTesterInfo(info models.TesterInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.SetInfo(info)
	s.schedulePersistLocked()
}

// ProfileComplete reports whether the fields the guarded pages require are
// set.
func (s *Store) ProfileComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Supervisor != "" && s.data.Tester != ""
}

// AssignImages assigns the image set for a category. Assignment is
// write-once: a category that already has a non-empty assignment keeps it
// and the call is a no-op, so a page reload cannot reshuffle a test in
// progress. degraded marks a placeholder set from a failed image source.
func (s *Store) AssignImages(category string, items []models.ImageItem, degraded bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.data.TestData[category]
	if !ok {
		return ErrUnknownCategory
	}
	if state.Assigned() {
		return nil
	}

	paths := make([]string, len(items))
	truth := make([]bool, len(items))
	for i, item := range items {
		paths[i] = item.Path
		truth[i] = item.IsReal
	}

	state.ImagePaths = paths
	state.CorrectAnswers = truth
	state.Answers = make([]*bool, len(items))
	state.CurrentQuestion = 0
	state.Comment = ""
	state.Completed = false
	state.Degraded = degraded
	state.EndTime = nil

	s.schedulePersistLocked()
	return nil
}

// RecordAnswer records the tester's judgment for one question. The question
// pointer always moves to index+1, which also supports correcting an earlier
// answer. The first recorded answer starts the category clock.
func (s *Store) RecordAnswer(category string, index int, isReal bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.data.TestData[category]
	if !ok {
		return ErrUnknownCategory
	}
	if !state.Assigned() {
		return ErrNotAssigned
	}
	if index < 0 || index >= len(state.Answers) {
		return ErrIndexOutOfRange
	}

	judgment := isReal
	state.Answers[index] = &judgment
	state.CurrentQuestion = index + 1
	if state.StartTime == nil {
		now := time.Now()
		state.StartTime = &now
	}

	s.schedulePersistLocked()
	return nil
}

// SaveComment stores the free-text comment for a category. Empty text is
// allowed here; the flow layer decides whether a blank comment may submit.
// Once the category is completed the comment is frozen and the call is a
// no-op.
func (s *Store) SaveComment(category, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.data.TestData[category]
	if !ok {
		return ErrUnknownCategory
	}
	if state.Completed {
		return nil
	}
	state.Comment = text
	s.schedulePersistLocked()
	return nil
}

// CompleteTest marks a category finished and stamps its end time. The call
// is idempotent: completing an already-completed category does not move the
// end time.
func (s *Store) CompleteTest(category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.data.TestData[category]
	if !ok {
		return ErrUnknownCategory
	}
	if state.Completed {
		return nil
	}
	state.Completed = true
	now := time.Now()
	state.EndTime = &now
	s.schedulePersistLocked()
	return nil
}

// CategoryState returns a deep-copied snapshot of one category, or nil when
// the label is unknown.
func (s *Store) CategoryState(category string) *models.CategoryTestState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.data.TestData[category]
	if !ok {
		return nil
	}
	return state.Clone()
}

// GetResults returns the aggregated read snapshot for one category, or nil
// when the label is unknown. Callers render defensively around nil.
func (s *Store) GetResults(category string) *Results {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.data.TestData[category]
	if !ok {
		return nil
	}
	return resultsFor(state)
}

func resultsFor(state *models.CategoryTestState) *Results {
	return &Results{
		Summary:        metrics.Calculate(state.Answers, state.CorrectAnswers),
		TotalQuestions: len(state.Answers),
		Completed:      state.Completed,
		Degraded:       state.Degraded,
		StartTime:      state.StartTime,
		EndTime:        state.EndTime,
		Comment:        state.Comment,
	}
}

// AllCompleted reports whether every category has been completed.
func (s *Store) AllCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, label := range s.labels {
		if !s.data.TestData[label].Completed {
			return false
		}
	}
	return true
}

// ExportAll builds the full result bundle: tester info, per-category
// results, pooled overall metrics and the raw state.
func (s *Store) ExportAll() *ExportDocument {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := &ExportDocument{
		Version:    models.SchemaVersion,
		ExportID:   uuid.NewString(),
		ExportedAt: time.Now(),
		TesterInfo: s.data.Info(),
		Results:    make(map[string]*Results, len(s.labels)),
		RawData:    make(map[string]*models.CategoryTestState, len(s.labels)),
	}

	var pooled metrics.ConfusionMatrix
	var totalQuestions int
	for _, label := range s.labels {
		state := s.data.TestData[label]
		result := resultsFor(state)
		doc.Results[label] = result
		doc.RawData[label] = state.Clone()
		pooled = pooled.Add(result.Matrix)
		totalQuestions += len(state.Answers)
	}
	doc.Overall = metrics.FromMatrix(pooled)
	if totalQuestions > 0 {
		doc.Overall.ProgressPercentage = float64(doc.Overall.AnsweredCount) / float64(totalQuestions) * 100
	}

	return doc
}

// ResetAll clears the identity fields and reinitializes every category to
// its empty default, then persists immediately: a reset should never be lost
// to the debounce window.
func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = models.NewUserData(s.labels, s.n)
	s.persistLocked()
}

// Flush writes any pending state synchronously. Call on shutdown and in
// tests that assert durability.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.persistLocked()
}

// Close flushes and releases the store. The underlying KV is owned by the
// caller and stays open.
func (s *Store) Close() {
	s.Flush()
}

// schedulePersistLocked coalesces bursts of mutations into one write after a
// quiet period. A process killed inside the window loses at most that burst;
// this is the accepted trade against write amplification on rapid-fire
// answers.
func (s *Store) schedulePersistLocked() {
	if s.debounce <= 0 {
		s.persistLocked()
		return
	}
	if s.timer != nil {
		s.timer.Reset(s.debounce)
		return
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.timer = nil
		s.persistLocked()
	})
}

func (s *Store) persistLocked() {
	raw, err := json.Marshal(s.data)
	if err != nil {
		s.log.Error("Failed to encode session state", zap.Error(err))
		return
	}
	if err := s.kv.Put(models.StorageKey, raw); err != nil {
		s.log.Error("Failed to persist session state", zap.Error(err))
	}
}
