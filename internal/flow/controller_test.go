package flow

import (
	"path/filepath"
	"testing"

	"vtt-go/internal/models"
	"vtt-go/internal/storage"
	"vtt-go/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func flowTestSetup(t *testing.T) *store.Store {
	t.Helper()
	kv, err := storage.Open(filepath.Join(t.TempDir(), "vtt.db"))
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	study := &models.Study{
		Title:                "VTT",
		QuestionsPerCategory: 3,
		Categories:           []models.Category{{Label: "L1", Name: "L1 Cell Class"}},
	}
	return store.Load(kv, study, 0, zap.NewNop())
}

func assignThree(t *testing.T, s *store.Store) {
	t.Helper()
	items := []models.ImageItem{
		{Path: "/a.jpg", IsReal: true},
		{Path: "/b.jpg", IsReal: false},
		{Path: "/c.jpg", IsReal: true},
	}
	require.NoError(t, s.AssignImages("L1", items, false))
}

func TestController_LoadingBeforeAssignment(t *testing.T) {
	s := flowTestSetup(t)
	controller := New(s, "L1")

	assert.Equal(t, PhaseLoading, controller.Phase())
	_, err := controller.Current()
	assert.ErrorIs(t, err, ErrNoQuestions)
	assert.ErrorIs(t, controller.Answer(true), ErrNoQuestions)
}

func TestController_WalksQuestionsInOrder(t *testing.T) {
	s := flowTestSetup(t)
	assignThree(t, s)
	controller := New(s, "L1")

	require.Equal(t, PhaseAnswering, controller.Phase())

	q, err := controller.Current()
	require.NoError(t, err)
	assert.Equal(t, 0, q.Index)
	assert.Equal(t, 3, q.Total)
	assert.Equal(t, "/a.jpg", q.Image.Path)

	require.NoError(t, controller.Answer(true))
	q, err = controller.Current()
	require.NoError(t, err)
	assert.Equal(t, 1, q.Index)
	assert.Equal(t, "/b.jpg", q.Image.Path)

	require.NoError(t, controller.Answer(false))
	require.NoError(t, controller.Answer(true))

	assert.Equal(t, PhaseReviewing, controller.Phase())
	assert.ErrorIs(t, controller.Answer(true), store.ErrIndexOutOfRange)
}

func TestController_BlankCommentRejected(t *testing.T) {
	s := flowTestSetup(t)
	assignThree(t, s)
	controller := New(s, "L1")
	for i := 0; i < 3; i++ {
		require.NoError(t, controller.Answer(true))
	}

	assert.ErrorIs(t, controller.SubmitComment(""), ErrBlankComment)
	assert.ErrorIs(t, controller.SubmitComment("   \t\n"), ErrBlankComment)
	assert.Equal(t, PhaseReviewing, controller.Phase(), "rejected submit leaves the phase unchanged")
	assert.False(t, s.CategoryState("L1").Completed)
}

func TestController_SubmitCompletesCategory(t *testing.T) {
	s := flowTestSetup(t)
	assignThree(t, s)
	controller := New(s, "L1")
	for i := 0; i < 3; i++ {
		require.NoError(t, controller.Answer(i%2 == 0))
	}

	require.NoError(t, controller.SubmitComment("the fakes are very convincing"))

	assert.Equal(t, PhaseSubmitted, controller.Phase())
	state := s.CategoryState("L1")
	assert.True(t, state.Completed)
	assert.Equal(t, "the fakes are very convincing", state.Comment)
	require.NotNil(t, state.EndTime)
}

func TestController_ResubmitAfterCompletionKeepsComment(t *testing.T) {
	s := flowTestSetup(t)
	assignThree(t, s)
	controller := New(s, "L1")
	for i := 0; i < 3; i++ {
		require.NoError(t, controller.Answer(true))
	}
	require.NoError(t, controller.SubmitComment("first impression"))

	// A stale form post after completion must not touch the stored comment.
	require.NoError(t, controller.SubmitComment("second impression"))
	assert.Equal(t, "first impression", s.CategoryState("L1").Comment)

	// Even a blank repeat is a no-op, not a validation error.
	require.NoError(t, controller.SubmitComment(""))
	assert.Equal(t, PhaseSubmitted, controller.Phase())
}

func TestController_FreshInstanceResumes(t *testing.T) {
	s := flowTestSetup(t)
	assignThree(t, s)

	first := New(s, "L1")
	require.NoError(t, first.Answer(true))

	// A new controller for the same category picks up mid-walk.
	second := New(s, "L1")
	assert.Equal(t, PhaseAnswering, second.Phase())
	q, err := second.Current()
	require.NoError(t, err)
	assert.Equal(t, 1, q.Index)
}
