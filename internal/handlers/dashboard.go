package handlers

import (
	"net/http"

	"vtt-go/internal/models"
	"vtt-go/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DashboardHandler renders the category overview: one card per category with
// progress and a Start/Continue/Completed state.
type DashboardHandler struct {
	log   *zap.Logger
	store *store.Store
	study *models.Study
}

func NewDashboardHandler(log *zap.Logger, s *store.Store, study *models.Study) *DashboardHandler {
	return &DashboardHandler{log: log, store: s, study: study}
}

// categoryCard is the per-category view model.
type categoryCard struct {
	Category models.Category
	Results  *store.Results
}

func (h *DashboardHandler) Show(c *gin.Context) {
	cards := make([]categoryCard, 0, len(h.study.Categories))
	for _, cat := range h.study.Categories {
		cards = append(cards, categoryCard{
			Category: cat,
			// Results may be nil if the study file changed under a stale
			// session; the template treats nil as "not started".
			Results: h.store.GetResults(cat.Label),
		})
	}

	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Title":        h.study.Title,
		"Tester":       h.store.TesterInfo().Tester,
		"Cards":        cards,
		"AllCompleted": h.store.AllCompleted(),
	})
}
