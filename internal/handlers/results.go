// internal/handlers/results.go
package handlers

import (
	"encoding/json"
	"net/http"

	"vtt-go/internal/models"
	"vtt-go/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ResultsHandler renders the researcher dashboard over every exported result
// document in the collection.
type ResultsHandler struct {
	log        *zap.Logger
	study      *models.Study
	collection *CollectionHandler
}

func NewResultsHandler(log *zap.Logger, study *models.Study, collection *CollectionHandler) *ResultsHandler {
	return &ResultsHandler{log: log, study: study, collection: collection}
}

// summaryStats are per-collection aggregates. Averaging overall percentages
// is correct here because it is across testers, not across categories of one
// tester.
type summaryStats struct {
	TotalTesters   int
	AvgAccuracy    float64
	AvgPrecision   float64
	AvgRecall      float64
	AvgF1          float64
	AvgSpecificity float64
}

func (h *ResultsHandler) Show(c *gin.Context) {
	docs, err := h.collection.Load()
	if err != nil {
		h.log.Error("Failed to load collection for dashboard", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to load results")
		return
	}

	stats := summarize(docs)

	testerChart := generateTesterMetricsChart(docs)
	categoryChart := generateCategoryAveragesChart(docs, h.study.Labels())
	overallPie := generateOverallPie(docs)

	testerJSON, _ := json.Marshal(testerChart.JSON())
	categoryJSON, _ := json.Marshal(categoryChart.JSON())
	pieJSON, _ := json.Marshal(overallPie.JSON())

	cspNonce, _ := c.Get("csp_nonce")
	c.HTML(http.StatusOK, "results.html", gin.H{
		"Title":             h.study.Title,
		"Docs":              docs,
		"Stats":             stats,
		"TesterChartJSON":   string(testerJSON),
		"CategoryChartJSON": string(categoryJSON),
		"OverallPieJSON":    string(pieJSON),
		"CspNonce":          cspNonce,
	})
}

func summarize(docs []*store.ExportDocument) summaryStats {
	stats := summaryStats{TotalTesters: len(docs)}
	if len(docs) == 0 {
		return stats
	}
	for _, doc := range docs {
		stats.AvgAccuracy += doc.Overall.Accuracy
		stats.AvgPrecision += doc.Overall.Precision
		stats.AvgRecall += doc.Overall.Recall
		stats.AvgF1 += doc.Overall.F1Score
		stats.AvgSpecificity += doc.Overall.Specificity
	}
	n := float64(len(docs))
	stats.AvgAccuracy /= n
	stats.AvgPrecision /= n
	stats.AvgRecall /= n
	stats.AvgF1 /= n
	stats.AvgSpecificity /= n
	return stats
}

// generateTesterMetricsChart builds a grouped bar chart of every tester's
// pooled overall metrics.
func generateTesterMetricsChart(docs []*store.ExportDocument) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Overall Metrics per Tester",
			Subtitle: "Pooled across all categories",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
		charts.WithYAxisOpts(opts.YAxis{Max: 100}),
	)

	names := make([]string, 0, len(docs))
	accuracy := make([]opts.BarData, 0, len(docs))
	precision := make([]opts.BarData, 0, len(docs))
	recall := make([]opts.BarData, 0, len(docs))
	f1 := make([]opts.BarData, 0, len(docs))
	specificity := make([]opts.BarData, 0, len(docs))
	for _, doc := range docs {
		names = append(names, doc.TesterInfo.Tester)
		accuracy = append(accuracy, opts.BarData{Value: doc.Overall.Accuracy})
		precision = append(precision, opts.BarData{Value: doc.Overall.Precision})
		recall = append(recall, opts.BarData{Value: doc.Overall.Recall})
		f1 = append(f1, opts.BarData{Value: doc.Overall.F1Score})
		specificity = append(specificity, opts.BarData{Value: doc.Overall.Specificity})
	}

	bar.SetXAxis(names).
		AddSeries("Accuracy (%)", accuracy).
		AddSeries("Precision (%)", precision).
		AddSeries("Recall (%)", recall).
		AddSeries("F1 Score", f1).
		AddSeries("Specificity (%)", specificity)
	return bar
}

// generateCategoryAveragesChart builds per-category accuracy averages across
// testers.
func generateCategoryAveragesChart(docs []*store.ExportDocument, labels []string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Average Metrics per Category",
			Subtitle: "Across all testers",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
		charts.WithYAxisOpts(opts.YAxis{Max: 100}),
	)

	avg := func(pick func(*store.Results) float64) []opts.BarData {
		data := make([]opts.BarData, 0, len(labels))
		for _, label := range labels {
			var sum float64
			var count int
			for _, doc := range docs {
				if result, ok := doc.Results[label]; ok && result != nil {
					sum += pick(result)
					count++
				}
			}
			var value float64
			if count > 0 {
				value = sum / float64(count)
			}
			data = append(data, opts.BarData{Value: value})
		}
		return data
	}

	bar.SetXAxis(labels).
		AddSeries("Accuracy (%)", avg(func(r *store.Results) float64 { return r.Accuracy })).
		AddSeries("Precision (%)", avg(func(r *store.Results) float64 { return r.Precision })).
		AddSeries("Recall (%)", avg(func(r *store.Results) float64 { return r.Recall })).
		AddSeries("F1 Score", avg(func(r *store.Results) float64 { return r.F1Score })).
		AddSeries("Specificity (%)", avg(func(r *store.Results) float64 { return r.Specificity }))
	return bar
}

// generateOverallPie shows pooled correct vs incorrect judgments over the
// whole collection.
func generateOverallPie(docs []*store.ExportDocument) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Correct vs Incorrect Judgments"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	var correct, incorrect int
	for _, doc := range docs {
		correct += doc.Overall.CorrectCount
		incorrect += doc.Overall.AnsweredCount - doc.Overall.CorrectCount
	}

	pie.AddSeries("judgments", []opts.PieData{
		{Name: "Correct", Value: correct},
		{Name: "Incorrect", Value: incorrect},
	})
	return pie
}
