package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func TestCalculate_BalancedExample(t *testing.T) {
	answers := []*bool{boolPtr(true), boolPtr(false), boolPtr(true), boolPtr(false)}
	truth := []bool{true, true, false, false}

	s := Calculate(answers, truth)

	assert.Equal(t, 1, s.Matrix.TruePositives)
	assert.Equal(t, 1, s.Matrix.TrueNegatives)
	assert.Equal(t, 1, s.Matrix.FalsePositives)
	assert.Equal(t, 1, s.Matrix.FalseNegatives)
	assert.Equal(t, 4, s.AnsweredCount)
	assert.Equal(t, 2, s.CorrectCount)
	assert.InDelta(t, 50.0, s.Accuracy, 1e-9)
	assert.InDelta(t, 50.0, s.Precision, 1e-9)
	assert.InDelta(t, 50.0, s.Recall, 1e-9)
	assert.InDelta(t, 50.0, s.Specificity, 1e-9)
	assert.InDelta(t, 50.0, s.F1Score, 1e-9)
	assert.InDelta(t, 100.0, s.ProgressPercentage, 1e-9)
}

func TestCalculate_SkipsUnanswered(t *testing.T) {
	answers := []*bool{boolPtr(true), nil, nil, boolPtr(false)}
	truth := []bool{true, true, false, false}

	s := Calculate(answers, truth)

	assert.Equal(t, 2, s.AnsweredCount)
	assert.Equal(t, 2, s.CorrectCount)
	assert.Equal(t, 1, s.Matrix.TruePositives)
	assert.Equal(t, 1, s.Matrix.TrueNegatives)
	assert.Equal(t, 0, s.Matrix.FalsePositives)
	assert.Equal(t, 0, s.Matrix.FalseNegatives)
	assert.InDelta(t, 100.0, s.Accuracy, 1e-9)
	assert.InDelta(t, 50.0, s.ProgressPercentage, 1e-9)
}

func TestCalculate_AllUnansweredYieldsZeros(t *testing.T) {
	answers := make([]*bool, 20)
	truth := make([]bool, 20)

	s := Calculate(answers, truth)

	assert.Equal(t, 0, s.AnsweredCount)
	assert.Zero(t, s.Accuracy)
	assert.Zero(t, s.Precision)
	assert.Zero(t, s.Recall)
	assert.Zero(t, s.Specificity)
	assert.Zero(t, s.F1Score)
	assert.Zero(t, s.ProgressPercentage)
}

func TestCalculate_EmptyAndMismatchedInputs(t *testing.T) {
	assert.Equal(t, Summary{}, Calculate(nil, nil))
	assert.Equal(t, Summary{}, Calculate(make([]*bool, 3), make([]bool, 5)))
}

func TestCalculate_DegenerateDenominators(t *testing.T) {
	// Every truth is fake and the tester answers fake: no positives at all,
	// so precision/recall/F1 must be 0, not NaN.
	answers := []*bool{boolPtr(false), boolPtr(false)}
	truth := []bool{false, false}

	s := Calculate(answers, truth)

	assert.InDelta(t, 100.0, s.Accuracy, 1e-9)
	assert.Zero(t, s.Precision)
	assert.Zero(t, s.Recall)
	assert.Zero(t, s.F1Score)
	assert.InDelta(t, 100.0, s.Specificity, 1e-9)
}

func TestConfusionMatrix_AddAndTotal(t *testing.T) {
	a := ConfusionMatrix{TruePositives: 1, TrueNegatives: 2, FalsePositives: 3, FalseNegatives: 4}
	b := ConfusionMatrix{TruePositives: 10, TrueNegatives: 20, FalsePositives: 30, FalseNegatives: 40}

	sum := a.Add(b)
	assert.Equal(t, ConfusionMatrix{TruePositives: 11, TrueNegatives: 22, FalsePositives: 33, FalseNegatives: 44}, sum)
	assert.Equal(t, 110, sum.Total())
}

func TestFromMatrix_PooledRates(t *testing.T) {
	m := ConfusionMatrix{TruePositives: 30, TrueNegatives: 20, FalsePositives: 10, FalseNegatives: 40}

	s := FromMatrix(m)

	assert.Equal(t, 100, s.AnsweredCount)
	assert.Equal(t, 50, s.CorrectCount)
	assert.InDelta(t, 50.0, s.Accuracy, 1e-9)
	assert.InDelta(t, 75.0, s.Precision, 1e-9)                  // 30/40
	assert.InDelta(t, 30.0/70.0*100, s.Recall, 1e-9)            // 30/70
	assert.InDelta(t, 20.0/30.0*100, s.Specificity, 1e-9)       // 20/30
	expectedF1 := 2 * 75.0 * (30.0 / 70.0 * 100) / (75.0 + 30.0/70.0*100)
	assert.InDelta(t, expectedF1, s.F1Score, 1e-9)
}

func TestFromMatrix_Empty(t *testing.T) {
	s := FromMatrix(ConfusionMatrix{})
	assert.Zero(t, s.Accuracy)
	assert.Zero(t, s.F1Score)
	assert.Zero(t, s.ProgressPercentage)
}
