package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_BackfillsMissingCategories(t *testing.T) {
	data := &UserData{Supervisor: "Dr. A"}
	data.Normalize([]string{"L1", "L2"}, 5)

	require.Contains(t, data.TestData, "L1")
	require.Contains(t, data.TestData, "L2")
	assert.Len(t, data.TestData["L1"].Answers, 5)
	assert.Equal(t, SchemaVersion, data.Version)
}

func TestNormalize_AssignedLengthWins(t *testing.T) {
	data := NewUserData([]string{"L1"}, 5)
	data.TestData["L1"].ImagePaths = []string{"/a.jpg", "/b.jpg"}
	data.TestData["L1"].CorrectAnswers = []bool{true, false}
	data.TestData["L1"].Answers = nil // drifted

	data.Normalize([]string{"L1"}, 5)

	assert.Len(t, data.TestData["L1"].Answers, 2)
}

func TestNormalize_InconsistentAssignmentResets(t *testing.T) {
	data := NewUserData([]string{"L1"}, 5)
	data.TestData["L1"].ImagePaths = []string{"/a.jpg", "/b.jpg"}
	data.TestData["L1"].CorrectAnswers = []bool{true} // wrong length

	data.Normalize([]string{"L1"}, 5)

	assert.False(t, data.TestData["L1"].Assigned())
	assert.Len(t, data.TestData["L1"].Answers, 5)
}

func TestNormalize_ClampsQuestionPointer(t *testing.T) {
	data := NewUserData([]string{"L1"}, 3)
	data.TestData["L1"].CurrentQuestion = 99
	data.Normalize([]string{"L1"}, 3)
	assert.Equal(t, 3, data.TestData["L1"].CurrentQuestion)

	data.TestData["L1"].CurrentQuestion = -2
	data.Normalize([]string{"L1"}, 3)
	assert.Equal(t, 0, data.TestData["L1"].CurrentQuestion)
}

func TestCategoryTestState_CloneIsDeep(t *testing.T) {
	state := NewCategoryTestState(2)
	state.ImagePaths = []string{"/a.jpg", "/b.jpg"}
	state.CorrectAnswers = []bool{true, false}
	yes := true
	state.Answers[0] = &yes

	clone := state.Clone()
	clone.ImagePaths[0] = "/mutated.jpg"
	*clone.Answers[0] = false

	assert.Equal(t, "/a.jpg", state.ImagePaths[0])
	assert.True(t, *state.Answers[0])
}

func TestUserData_JSONShape(t *testing.T) {
	data := NewUserData([]string{"L1"}, 1)
	data.Supervisor = "Dr. A"
	data.Tester = "B"

	raw, err := json.Marshal(data)
	require.NoError(t, err)

	// The blob keeps the storage format's field names.
	assert.Contains(t, string(raw), `"supervisor":"Dr. A"`)
	assert.Contains(t, string(raw), `"testData"`)
	assert.Contains(t, string(raw), `"correctAnswers"`)
	assert.Contains(t, string(raw), `"currentQuestion"`)
}
