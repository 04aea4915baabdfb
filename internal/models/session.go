package models

import "time"

// SchemaVersion tags the persisted session blob so a future shape change
// cannot be silently misread.
const SchemaVersion = 1

// StorageKey is the key under which the session blob is persisted.
const StorageKey = "userData"

// ImageItem is one candidate stimulus. IsReal is ground truth and immutable
// once assigned to a category.
type ImageItem struct {
	Path   string `json:"path"`
	IsReal bool   `json:"isReal"`
}

// CategoryTestState is the per-category test record. The three slices are
// index-aligned and stay the same length from assignment until reset. An
// answers entry is nil while the question is unanswered.
type CategoryTestState struct {
	ImagePaths      []string   `json:"imagePaths"`
	CorrectAnswers  []bool     `json:"correctAnswers"`
	Answers         []*bool    `json:"answers"`
	CurrentQuestion int        `json:"currentQuestion"`
	Comment         string     `json:"comment"`
	Completed       bool       `json:"completed"`
	Degraded        bool       `json:"degraded"`
	StartTime       *time.Time `json:"startTime"`
	EndTime         *time.Time `json:"endTime"`
}

// NewCategoryTestState returns the empty default state for a category of n
// questions: nothing assigned, all answers nil.
func NewCategoryTestState(n int) *CategoryTestState {
	return &CategoryTestState{
		Answers: make([]*bool, n),
	}
}

// Assigned reports whether an image set has been assigned to this category.
func (s *CategoryTestState) Assigned() bool {
	return len(s.ImagePaths) > 0
}

// AnsweredCount returns the number of non-nil answers.
func (s *CategoryTestState) AnsweredCount() int {
	count := 0
	for _, a := range s.Answers {
		if a != nil {
			count++
		}
	}
	return count
}

// Clone returns a deep copy, used to hand read snapshots out of the store
// without exposing the owned slices.
func (s *CategoryTestState) Clone() *CategoryTestState {
	c := *s
	c.ImagePaths = append([]string(nil), s.ImagePaths...)
	c.CorrectAnswers = append([]bool(nil), s.CorrectAnswers...)
	c.Answers = make([]*bool, len(s.Answers))
	for i, a := range s.Answers {
		if a != nil {
			v := *a
			c.Answers[i] = &v
		}
	}
	if s.StartTime != nil {
		t := *s.StartTime
		c.StartTime = &t
	}
	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}
	return &c
}

// TesterInfo holds the free-text identity fields collected on the landing
// page. None of them carry invariants.
type TesterInfo struct {
	Supervisor  string `json:"supervisor"`
	Tester      string `json:"tester"`
	Institution string `json:"institution"`
	Faculty     string `json:"faculty"`
	Department  string `json:"department"`
	Speciality  string `json:"speciality"`
}

// UserData is the durable session blob. Its JSON shape is the storage format
// under StorageKey.
type UserData struct {
	Version     int                           `json:"version"`
	Supervisor  string                        `json:"supervisor"`
	Tester      string                        `json:"tester"`
	Institution string                        `json:"institution"`
	Faculty     string                        `json:"faculty"`
	Department  string                        `json:"department"`
	Speciality  string                        `json:"speciality"`
	TestData    map[string]*CategoryTestState `json:"testData"`
}

// NewUserData returns the default blob with one empty state per category.
func NewUserData(labels []string, n int) *UserData {
	data := &UserData{
		Version:  SchemaVersion,
		TestData: make(map[string]*CategoryTestState, len(labels)),
	}
	for _, label := range labels {
		data.TestData[label] = NewCategoryTestState(n)
	}
	return data
}

// Normalize backfills anything a loaded blob is missing: absent categories,
// nil maps, answer slices whose length drifted from the assignment. Blobs
// written before versioning (version 0) are upgraded in place. The load path
// calls this so a corrupt or older blob degrades to defaults instead of
// crashing.
func (d *UserData) Normalize(labels []string, n int) {
	if d.TestData == nil {
		d.TestData = make(map[string]*CategoryTestState, len(labels))
	}
	for _, label := range labels {
		state, ok := d.TestData[label]
		if !ok || state == nil {
			d.TestData[label] = NewCategoryTestState(n)
			continue
		}
		want := n
		if state.Assigned() {
			// Once assigned, the assignment length is authoritative.
			want = len(state.ImagePaths)
			if len(state.CorrectAnswers) != want {
				// Truth list out of step with the paths: the record is
				// unusable, start the category over.
				d.TestData[label] = NewCategoryTestState(n)
				continue
			}
		}
		if len(state.Answers) != want {
			answers := make([]*bool, want)
			copy(answers, state.Answers)
			state.Answers = answers
		}
		if state.CurrentQuestion < 0 {
			state.CurrentQuestion = 0
		}
		if state.CurrentQuestion > want {
			state.CurrentQuestion = want
		}
	}
	d.Version = SchemaVersion
}

// Info bundles the identity fields.
func (d *UserData) Info() TesterInfo {
	return TesterInfo{
		Supervisor:  d.Supervisor,
		Tester:      d.Tester,
		Institution: d.Institution,
		Faculty:     d.Faculty,
		Department:  d.Department,
		Speciality:  d.Speciality,
	}
}

// SetInfo replaces the identity fields.
func (d *UserData) SetInfo(info TesterInfo) {
	d.Supervisor = info.Supervisor
	d.Tester = info.Tester
	d.Institution = info.Institution
	d.Faculty = info.Faculty
	d.Department = info.Department
	d.Speciality = info.Speciality
}
