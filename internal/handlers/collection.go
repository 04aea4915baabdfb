package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vtt-go/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CollectionHandler exposes the exported result documents accumulated in the
// collection directory.
type CollectionHandler struct {
	log *zap.Logger
	dir string
}

func NewCollectionHandler(log *zap.Logger, dir string) *CollectionHandler {
	return &CollectionHandler{log: log, dir: dir}
}

// List returns every parseable export document as a JSON array. A file that
// fails to parse is skipped and logged; one bad file must not take down the
// whole listing.
func (h *CollectionHandler) List(c *gin.Context) {
	docs, err := h.Load()
	if err != nil {
		h.log.Error("Failed to read collection directory", zap.String("dir", h.dir), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tester results"})
		return
	}
	c.JSON(http.StatusOK, docs)
}

// Load reads and parses all export documents, sorted by tester name so the
// dashboard is stable across requests.
func (h *CollectionHandler) Load() ([]*store.ExportDocument, error) {
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		if os.IsNotExist(err) {
			// No exports yet is a normal state, not an error.
			return []*store.ExportDocument{}, nil
		}
		return nil, err
	}

	docs := make([]*store.ExportDocument, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(h.dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			h.log.Warn("Skipping unreadable export file", zap.String("file", path), zap.Error(err))
			continue
		}
		var doc store.ExportDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			h.log.Warn("Skipping malformed export file", zap.String("file", path), zap.Error(err))
			continue
		}
		docs = append(docs, &doc)
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].TesterInfo.Tester < docs[j].TesterInfo.Tester
	})
	return docs, nil
}
