package handlers

import (
	"net/http"
	"strings"

	"vtt-go/internal/models"
	"vtt-go/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProfileHandler serves the landing page where the tester identity is
// collected before any test can start.
type ProfileHandler struct {
	log   *zap.Logger
	store *store.Store
	study *models.Study
}

func NewProfileHandler(log *zap.Logger, s *store.Store, study *models.Study) *ProfileHandler {
	return &ProfileHandler{log: log, store: s, study: study}
}

// Show renders the profile form, prefilled with whatever was persisted.
func (h *ProfileHandler) Show(c *gin.Context) {
	session := sessions.Default(c)
	flash := session.Flashes()
	session.Save()

	csrfToken, _ := c.Get("csrf_token")
	c.HTML(http.StatusOK, "profile.html", gin.H{
		"Title":     h.study.Title,
		"Info":      h.store.TesterInfo(),
		"Flash":     flash,
		"CSRFToken": csrfToken,
	})
}

// Save stores the identity fields and moves on to the dashboard. Supervisor
// and tester are the two fields the guarded pages key on.
func (h *ProfileHandler) Save(c *gin.Context) {
	info := models.TesterInfo{
		Supervisor:  strings.TrimSpace(c.PostForm("supervisor")),
		Tester:      strings.TrimSpace(c.PostForm("tester")),
		Institution: strings.TrimSpace(c.PostForm("institution")),
		Faculty:     strings.TrimSpace(c.PostForm("faculty")),
		Department:  strings.TrimSpace(c.PostForm("department")),
		Speciality:  strings.TrimSpace(c.PostForm("speciality")),
	}

	if info.Supervisor == "" || info.Tester == "" {
		csrfToken, _ := c.Get("csrf_token")
		c.HTML(http.StatusBadRequest, "profile.html", gin.H{
			"Title":     h.study.Title,
			"Info":      info,
			"Error":     "Supervisor and tester name are required.",
			"CSRFToken": csrfToken,
		})
		return
	}

	h.store.SetTesterInfo(info)
	h.log.Info("Tester profile saved", zap.String("tester", info.Tester))
	c.Redirect(http.StatusFound, "/dashboard")
}

// Reset wipes the whole session after confirmation and returns to the
// landing page.
func (h *ProfileHandler) Reset(c *gin.Context) {
	h.store.ResetAll()
	h.log.Info("Session reset")

	session := sessions.Default(c)
	session.AddFlash("Session reset. All answers and tester details were cleared.")
	session.Save()
	c.Redirect(http.StatusFound, "/")
}
