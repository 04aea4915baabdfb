// Package flow drives a single category's walk through its question list:
// answer each image in order, then collect a comment, then submit. A fresh
// controller is built per category visit; all durable state lives in the
// session store.
package flow

import (
	"errors"
	"strings"

	"vtt-go/internal/models"
	"vtt-go/internal/store"
)

// ErrBlankComment rejects submission of an empty or whitespace-only comment.
var ErrBlankComment = errors.New("flow: comment must not be blank")

// ErrNoQuestions is returned when the category has no assigned image set
// yet; callers show a loading placeholder.
var ErrNoQuestions = errors.New("flow: no image set assigned")

// Phase is the controller's position in the category walk.
type Phase int

const (
	// PhaseLoading: no image set assigned yet.
	PhaseLoading Phase = iota
	// PhaseAnswering: questions remain.
	PhaseAnswering
	// PhaseReviewing: all questions answered, awaiting the comment.
	PhaseReviewing
	// PhaseSubmitted: comment saved and category completed.
	PhaseSubmitted
)

// Question is what the renderer needs for the current stimulus.
type Question struct {
	Image    models.ImageItem
	Index    int
	Total    int
	Progress float64
}

// Controller walks one category. It holds no state of its own beyond its
// bindings; the phase is always derived from the store.
type Controller struct {
	store    *store.Store
	category string
}

// New binds a controller to a (store, category) pair.
func New(s *store.Store, category string) *Controller {
	return &Controller{store: s, category: category}
}

// Phase derives the current phase from the category state.
func (c *Controller) Phase() Phase {
	state := c.store.CategoryState(c.category)
	if state == nil || !state.Assigned() {
		return PhaseLoading
	}
	if state.Completed {
		return PhaseSubmitted
	}
	if state.AnsweredCount() >= len(state.Answers) {
		return PhaseReviewing
	}
	return PhaseAnswering
}

// Current returns the question at the pointer. ErrNoQuestions before
// assignment; once every question is answered the flow is past questions and
// Current has nothing to show.
func (c *Controller) Current() (Question, error) {
	state := c.store.CategoryState(c.category)
	if state == nil || !state.Assigned() {
		return Question{}, ErrNoQuestions
	}

	index := state.CurrentQuestion
	if index >= len(state.ImagePaths) {
		return Question{}, ErrNoQuestions
	}

	return Question{
		Image: models.ImageItem{
			Path:   state.ImagePaths[index],
			IsReal: state.CorrectAnswers[index],
		},
		Index:    index,
		Total:    len(state.ImagePaths),
		Progress: float64(index+1) / float64(len(state.ImagePaths)) * 100,
	}, nil
}

// Answer records the judgment for the question at the pointer and advances.
func (c *Controller) Answer(isReal bool) error {
	state := c.store.CategoryState(c.category)
	if state == nil || !state.Assigned() {
		return ErrNoQuestions
	}
	if state.CurrentQuestion >= len(state.Answers) {
		return store.ErrIndexOutOfRange
	}
	return c.store.RecordAnswer(c.category, state.CurrentQuestion, isReal)
}

// SubmitComment finishes the category: saves the comment and marks the test
// complete. Blank comments are rejected before anything is written. A repeat
// submission after completion changes nothing; the stored comment stands.
func (c *Controller) SubmitComment(text string) error {
	if state := c.store.CategoryState(c.category); state != nil && state.Completed {
		return nil
	}
	if strings.TrimSpace(text) == "" {
		return ErrBlankComment
	}
	if err := c.store.SaveComment(c.category, text); err != nil {
		return err
	}
	return c.store.CompleteTest(c.category)
}
