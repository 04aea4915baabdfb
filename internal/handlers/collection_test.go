package handlers

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"vtt-go/internal/metrics"
	"vtt-go/internal/models"
	"vtt-go/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeExport(t *testing.T, dir, tester string, accuracy float64) {
	t.Helper()
	doc := store.ExportDocument{
		Version:    models.SchemaVersion,
		ExportID:   tester + "-export",
		TesterInfo: models.TesterInfo{Tester: tester},
		Overall:    metrics.Summary{Accuracy: accuracy},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, tester+"_results.json"), raw, 0644))
}

func TestCollectionLoad_SkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "Alice", 80)
	writeExport(t, dir, "Bob", 60)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{nope"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0644))

	h := NewCollectionHandler(zap.NewNop(), dir)
	docs, err := h.Load()
	require.NoError(t, err)

	require.Len(t, docs, 2, "the malformed file is skipped, not fatal")
	assert.Equal(t, "Alice", docs[0].TesterInfo.Tester)
	assert.Equal(t, "Bob", docs[1].TesterInfo.Tester)
}

func TestCollectionLoad_MissingDirIsEmpty(t *testing.T) {
	h := NewCollectionHandler(zap.NewNop(), filepath.Join(t.TempDir(), "never-created"))
	docs, err := h.Load()
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSummarize_AveragesAcrossTesters(t *testing.T) {
	docs := []*store.ExportDocument{
		{Overall: metrics.Summary{Accuracy: 80, Precision: 70, Recall: 60, F1Score: 64.6, Specificity: 90}},
		{Overall: metrics.Summary{Accuracy: 60, Precision: 50, Recall: 40, F1Score: 44.4, Specificity: 70}},
	}

	stats := summarize(docs)

	assert.Equal(t, 2, stats.TotalTesters)
	assert.InDelta(t, 70.0, stats.AvgAccuracy, 1e-9)
	assert.InDelta(t, 60.0, stats.AvgPrecision, 1e-9)
	assert.InDelta(t, 50.0, stats.AvgRecall, 1e-9)
	assert.InDelta(t, 80.0, stats.AvgSpecificity, 1e-9)
}

func TestSummarize_Empty(t *testing.T) {
	stats := summarize(nil)
	assert.Zero(t, stats.TotalTesters)
	assert.Zero(t, stats.AvgAccuracy)
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "Jane_Doe_results.json", exportFilename("Jane Doe"))
	assert.Equal(t, "Jane_Doe_results.json", exportFilename("  Jane \t Doe "))
	assert.Equal(t, "anonymous_results.json", exportFilename("   "))
}
