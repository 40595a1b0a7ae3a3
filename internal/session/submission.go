package session

import (
	"github.com/examstack/examportal/internal/exam"
	"github.com/examstack/examportal/internal/grading"
)

// Submission hands the coordinator its view of the snapshot. Answers
// are copied so scoring is stable even if the student keeps clicking
// while the submit is in flight.
func (m *Manager) Submission(studentID, examID int) (exam.SubmissionSnapshot, bool) {
	snap, ok := m.Get(studentID, examID)
	if !ok {
		return exam.SubmissionSnapshot{}, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := exam.SubmissionSnapshot{
		AttemptID: snap.AttemptID,
		StartTime: snap.StartTime,
		Answers:   make(map[int]grading.Response, len(snap.Answers)),
	}
	for _, q := range snap.Questions {
		out.Questions = append(out.Questions, exam.SubmissionQuestion{Question: q.Question, Key: q.Key})
	}
	for id, resp := range snap.Answers {
		out.Answers[id] = resp
	}
	return out, true
}
