package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"vtt-go/internal/models"
	"vtt-go/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ExportHandler produces the downloadable result bundle and the thank-you
// summary page.
type ExportHandler struct {
	log   *zap.Logger
	store *store.Store
	study *models.Study
	dir   string
}

func NewExportHandler(log *zap.Logger, s *store.Store, study *models.Study, dir string) *ExportHandler {
	return &ExportHandler{log: log, store: s, study: study, dir: dir}
}

// Thankyou renders the end-of-session summary: per-category results and the
// pooled overall metrics.
func (h *ExportHandler) Thankyou(c *gin.Context) {
	doc := h.store.ExportAll()

	session := sessions.Default(c)
	flash := session.Flashes()
	session.Save()

	csrfToken, _ := c.Get("csrf_token")
	cspNonce, _ := c.Get("csp_nonce")
	c.HTML(http.StatusOK, "thankyou.html", gin.H{
		"Title":      h.study.Title,
		"Doc":        doc,
		"Categories": h.study.Categories,
		"Flash":      flash,
		"CSRFToken":  csrfToken,
		"CspNonce":   cspNonce,
	})
}

// Export writes the bundle into the collection directory and streams it to
// the tester as a download named after them.
func (h *ExportHandler) Export(c *gin.Context) {
	doc := h.store.ExportAll()
	// The export is the moment durability matters most.
	h.store.Flush()

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		h.log.Error("Failed to encode export document", zap.Error(err))
		c.String(http.StatusInternalServerError, "Could not build the export")
		return
	}

	filename := exportFilename(doc.TesterInfo.Tester)
	if err := os.MkdirAll(h.dir, 0755); err != nil {
		h.log.Error("Failed to create collection directory", zap.String("dir", h.dir), zap.Error(err))
		c.String(http.StatusInternalServerError, "Could not store the export")
		return
	}
	path := filepath.Join(h.dir, filename)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		h.log.Error("Failed to write export file", zap.String("file", path), zap.Error(err))
		c.String(http.StatusInternalServerError, "Could not store the export")
		return
	}
	h.log.Info("Results exported", zap.String("file", path), zap.String("exportId", doc.ExportID))

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json", raw)
}

// exportFilename collapses whitespace in the tester name to underscores.
func exportFilename(tester string) string {
	name := strings.Join(strings.Fields(tester), "_")
	if name == "" {
		name = "anonymous"
	}
	return name + "_results.json"
}
