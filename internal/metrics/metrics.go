// Package metrics derives confusion-matrix rates from paired answer and
// ground-truth lists. "Real" is the positive class throughout.
package metrics

// ConfusionMatrix counts judgments over answered questions only.
type ConfusionMatrix struct {
	TruePositives  int `json:"truePositives"`
	TrueNegatives  int `json:"trueNegatives"`
	FalsePositives int `json:"falsePositives"`
	FalseNegatives int `json:"falseNegatives"`
}

// Add returns the element-wise sum of two matrices.
func (m ConfusionMatrix) Add(o ConfusionMatrix) ConfusionMatrix {
	return ConfusionMatrix{
		TruePositives:  m.TruePositives + o.TruePositives,
		TrueNegatives:  m.TrueNegatives + o.TrueNegatives,
		FalsePositives: m.FalsePositives + o.FalsePositives,
		FalseNegatives: m.FalseNegatives + o.FalseNegatives,
	}
}

// Total returns the number of answered questions the matrix covers.
func (m ConfusionMatrix) Total() int {
	return m.TruePositives + m.TrueNegatives + m.FalsePositives + m.FalseNegatives
}

// Summary holds every derived rate for one answer set. All rates are on a
// 0-100 scale, including F1: it is computed from the already-scaled
// precision and recall, and downstream aggregation re-averages these scaled
// values, so the convention must not change.
type Summary struct {
	AnsweredCount      int             `json:"answeredQuestions"`
	CorrectCount       int             `json:"correctAnswers"`
	Accuracy           float64         `json:"accuracy"`
	Precision          float64         `json:"precision"`
	Recall             float64         `json:"recall"`
	Specificity        float64         `json:"specificity"`
	F1Score            float64         `json:"f1Score"`
	ProgressPercentage float64         `json:"progressPercentage"`
	Matrix             ConfusionMatrix `json:"confusionMatrix"`
}

// Calculate computes the confusion matrix and derived rates for
// index-aligned answers and ground truth. A nil answer entry means the
// question is unanswered and is excluded from every count. Mismatched or
// empty inputs yield the all-zero summary.
func Calculate(answers []*bool, truth []bool) Summary {
	if len(answers) != len(truth) || len(truth) == 0 {
		return Summary{}
	}

	var summary Summary
	for i, answer := range answers {
		if answer == nil {
			continue
		}
		summary.AnsweredCount++
		if *answer == truth[i] {
			summary.CorrectCount++
		}
		switch {
		case *answer && truth[i]:
			summary.Matrix.TruePositives++
		case !*answer && !truth[i]:
			summary.Matrix.TrueNegatives++
		case *answer && !truth[i]:
			summary.Matrix.FalsePositives++
		default:
			summary.Matrix.FalseNegatives++
		}
	}

	if summary.AnsweredCount > 0 {
		summary.Accuracy = float64(summary.CorrectCount) / float64(summary.AnsweredCount) * 100
	}
	summary.Precision = rate(summary.Matrix.TruePositives, summary.Matrix.TruePositives+summary.Matrix.FalsePositives)
	summary.Recall = rate(summary.Matrix.TruePositives, summary.Matrix.TruePositives+summary.Matrix.FalseNegatives)
	summary.Specificity = rate(summary.Matrix.TrueNegatives, summary.Matrix.TrueNegatives+summary.Matrix.FalsePositives)
	summary.F1Score = f1(summary.Precision, summary.Recall)
	summary.ProgressPercentage = float64(summary.AnsweredCount) / float64(len(truth)) * 100

	return summary
}

// FromMatrix derives the rates for an already-summed matrix. Used for pooled
// overall metrics, which are recomputed from the summed matrix rather than
// averaged from per-category percentages.
func FromMatrix(m ConfusionMatrix) Summary {
	summary := Summary{
		AnsweredCount: m.Total(),
		CorrectCount:  m.TruePositives + m.TrueNegatives,
		Matrix:        m,
	}
	if summary.AnsweredCount > 0 {
		summary.Accuracy = float64(summary.CorrectCount) / float64(summary.AnsweredCount) * 100
	}
	summary.Precision = rate(m.TruePositives, m.TruePositives+m.FalsePositives)
	summary.Recall = rate(m.TruePositives, m.TruePositives+m.FalseNegatives)
	summary.Specificity = rate(m.TrueNegatives, m.TrueNegatives+m.FalsePositives)
	summary.F1Score = f1(summary.Precision, summary.Recall)
	return summary
}

func rate(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator) * 100
}

func f1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}
