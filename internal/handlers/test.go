package handlers

import (
	"errors"
	"net/http"

	"vtt-go/internal/flow"
	"vtt-go/internal/images"
	"vtt-go/internal/models"
	"vtt-go/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TestHandler drives a category's question flow over HTTP. Each request
// builds a fresh flow controller; the session store carries all state
// between requests.
type TestHandler struct {
	log    *zap.Logger
	store  *store.Store
	source *images.Source
	study  *models.Study
}

func NewTestHandler(log *zap.Logger, s *store.Store, source *images.Source, study *models.Study) *TestHandler {
	return &TestHandler{log: log, store: s, source: source, study: study}
}

// Show renders the current step of the category: the question at the
// pointer, or the comment form once everything is answered. The first visit
// assigns the image set; assignment is write-once so a reload resumes
// exactly where the tester left off.
func (h *TestHandler) Show(c *gin.Context) {
	label := c.Param("category")
	category, ok := h.study.CategoryByLabel(label)
	if !ok {
		c.String(http.StatusNotFound, "Unknown category")
		return
	}

	state := h.store.CategoryState(label)
	if state != nil && !state.Assigned() {
		items, degraded := h.source.ListForCategory(label)
		if err := h.store.AssignImages(label, items, degraded); err != nil {
			h.log.Error("Failed to assign image set", zap.String("category", label), zap.Error(err))
			c.String(http.StatusInternalServerError, "Could not start the test")
			return
		}
		if degraded {
			h.log.Warn("Category running on placeholder images", zap.String("category", label))
		}
	}

	h.render(c, category, "")
}

// Answer records one judgment and re-renders the next step.
func (h *TestHandler) Answer(c *gin.Context) {
	label := c.Param("category")
	category, ok := h.study.CategoryByLabel(label)
	if !ok {
		c.String(http.StatusNotFound, "Unknown category")
		return
	}

	judgment := c.PostForm("judgment")
	if judgment != "real" && judgment != "fake" {
		c.String(http.StatusBadRequest, "Answer must be real or fake")
		return
	}

	controller := flow.New(h.store, label)
	if err := controller.Answer(judgment == "real"); err != nil {
		switch {
		case errors.Is(err, flow.ErrNoQuestions), errors.Is(err, store.ErrIndexOutOfRange):
			// Double-submit after the last answer; fall through to the
			// comment form.
		default:
			h.log.Error("Failed to record answer", zap.String("category", label), zap.Error(err))
			c.String(http.StatusInternalServerError, "Could not save the answer")
			return
		}
	}

	h.render(c, category, "")
}

// Comment finishes the category. A blank comment re-renders the form with a
// message instead of submitting.
func (h *TestHandler) Comment(c *gin.Context) {
	label := c.Param("category")
	category, ok := h.study.CategoryByLabel(label)
	if !ok {
		c.String(http.StatusNotFound, "Unknown category")
		return
	}

	controller := flow.New(h.store, label)
	if err := controller.SubmitComment(c.PostForm("comment")); err != nil {
		if errors.Is(err, flow.ErrBlankComment) {
			h.render(c, category, "Please share your impression before submitting.")
			return
		}
		h.log.Error("Failed to complete category", zap.String("category", label), zap.Error(err))
		c.String(http.StatusInternalServerError, "Could not complete the test")
		return
	}

	h.log.Info("Category completed", zap.String("category", label))
	c.Redirect(http.StatusFound, "/dashboard")
}

// render picks the page for the controller's current phase.
func (h *TestHandler) render(c *gin.Context, category models.Category, commentError string) {
	controller := flow.New(h.store, category.Label)
	csrfToken, _ := c.Get("csrf_token")

	switch controller.Phase() {
	case flow.PhaseLoading:
		c.HTML(http.StatusOK, "loading.html", gin.H{
			"Title":    h.study.Title,
			"Category": category,
		})
	case flow.PhaseAnswering:
		question, err := controller.Current()
		if err != nil {
			h.log.Error("No current question in answering phase", zap.String("category", category.Label), zap.Error(err))
			c.String(http.StatusInternalServerError, "Could not load the question")
			return
		}
		c.HTML(http.StatusOK, "question.html", gin.H{
			"Title":     h.study.Title,
			"Category":  category,
			"Question":  question,
			"CSRFToken": csrfToken,
		})
	case flow.PhaseReviewing:
		state := h.store.CategoryState(category.Label)
		cspNonce, _ := c.Get("csp_nonce")
		c.HTML(http.StatusOK, "review.html", gin.H{
			"Title":     h.study.Title,
			"Category":  category,
			"Total":     len(state.Answers),
			"Comment":   state.Comment,
			"Error":     commentError,
			"CSRFToken": csrfToken,
			"CspNonce":  cspNonce,
		})
	case flow.PhaseSubmitted:
		c.Redirect(http.StatusFound, "/dashboard")
	}
}
