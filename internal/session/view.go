package session

import "github.com/examstack/examportal/internal/grading"

// Palette statuses, derived per question, never stored. Review wins
// over answered in display.
const (
	PaletteNotVisited = "not-visited"
	PaletteVisited    = "visited"
	PaletteAnswered   = "answered"
	PaletteReview     = "review"
)

// QuestionView is the student-safe projection of a snapshot question:
// no correct answer, no marking scheme.
type QuestionView struct {
	ID       int    `json:"id"`
	Text     string `json:"question_text"`
	OptionA  string `json:"option_a"`
	OptionB  string `json:"option_b"`
	OptionC  string `json:"option_c"`
	OptionD  string `json:"option_d"`
	Type     string `json:"question_type"`
	HasImage bool   `json:"has_image"`
	ImageURL string `json:"image_url,omitempty"`
}

// View is one page of an exam-taking session.
type View struct {
	ExamID           int              `json:"exam_id"`
	ExamName         string           `json:"exam_name"`
	CurrentIndex     int              `json:"current_index"`
	TotalQuestions   int              `json:"total_questions"`
	Question         QuestionView     `json:"question"`
	SelectedAnswer   grading.Response `json:"selected_answer"`
	MarkedForReview  bool             `json:"marked_for_review"`
	Palette          []string         `json:"palette"`
	RemainingSeconds int              `json:"remaining_seconds"`
}

// View clamps index to the question range, marks it visited and builds
// the page. Navigation only moves this cursor; answered state is never
// touched by it.
func (m *Manager) View(studentID, examID, index int) (View, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.entries[key(studentID, examID)]
	if !ok {
		return View{}, false
	}

	if index < 0 {
		index = 0
	}
	if index >= len(snap.Questions) {
		index = len(snap.Questions) - 1
	}
	snap.Cursor = index
	snap.Visited[index] = true

	q := snap.Questions[index]
	v := View{
		ExamID:          snap.ExamID,
		ExamName:        snap.Exam.Name,
		CurrentIndex:    index,
		TotalQuestions:  len(snap.Questions),
		SelectedAnswer:  snap.Answers[q.ID],
		MarkedForReview: snap.Review[q.ID],
		Question: QuestionView{
			ID:       q.ID,
			Text:     q.Text,
			OptionA:  q.OptionA,
			OptionB:  q.OptionB,
			OptionC:  q.OptionC,
			OptionD:  q.OptionD,
			Type:     q.Type,
			HasImage: q.HasImage,
			ImageURL: q.ImageURL,
		},
		Palette: make([]string, len(snap.Questions)),
	}
	for i, pq := range snap.Questions {
		_, answered := snap.Answers[pq.ID]
		switch {
		case snap.Review[pq.ID]:
			v.Palette[i] = PaletteReview
		case answered:
			v.Palette[i] = PaletteAnswered
		case snap.Visited[i]:
			v.Palette[i] = PaletteVisited
		default:
			v.Palette[i] = PaletteNotVisited
		}
	}
	return v, true
}
