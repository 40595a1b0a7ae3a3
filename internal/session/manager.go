// Package session holds the per-attempt working copy of one exam: its
// questions with pre-parsed answer keys and resolved image URLs, the
// student's transient answer selections and review marks. Snapshots are
// a cache scoped to one attempt, never a system of record; losing one
// only forces a resume through the instructions page.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/examstack/examportal/internal/exam"
	"github.com/examstack/examportal/internal/grading"
	"github.com/examstack/examportal/internal/images"
)

// ErrTooManyQuestions reports an exam over the snapshot cap. The cap is
// configuration, and hitting it is loud: the old behavior of silently
// dropping trailing questions corrupted scores.
var ErrTooManyQuestions = errors.New("exam exceeds session question cap")

// Question is a snapshot question: the immutable record plus its
// display decoration and canonical key.
type Question struct {
	exam.Question
	HasImage bool
	ImageURL string
	Key      grading.Key
}

// Snapshot is one student's working copy of one exam attempt.
type Snapshot struct {
	StudentID int
	ExamID    int
	AttemptID int
	Exam      exam.Exam
	Questions []Question

	Answers map[int]grading.Response // question id -> given answer
	Review  map[int]bool             // question ids marked for review
	Visited map[int]bool             // question indexes reached

	Cursor    int
	StartTime time.Time // echo of the attempt's server start time

	builtAt time.Time
}

type Manager struct {
	mu      sync.Mutex
	entries map[string]*Snapshot

	repo     *exam.Repo
	resolver images.Resolver
	ttl      time.Duration
	maxQs    int
	now      func() time.Time
}

func NewManager(repo *exam.Repo, resolver images.Resolver, ttl time.Duration, maxQuestions int) *Manager {
	return &Manager{
		entries:  map[string]*Snapshot{},
		repo:     repo,
		resolver: resolver,
		ttl:      ttl,
		maxQs:    maxQuestions,
		now:      time.Now,
	}
}

func key(studentID, examID int) string {
	return fmt.Sprintf("%d:%d", studentID, examID)
}

// Build fetches exam metadata and questions, decorates and caches them
// for the attempt. Image resolution failures keep the question,
// imageless; an over-cap question count is an error, not a truncation.
func (m *Manager) Build(ctx context.Context, studentID int, attempt exam.Attempt, ex exam.Exam) (*Snapshot, error) {
	questions, err := m.repo.Questions(ctx, ex.ID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, exam.ErrNoQuestions
	}
	if m.maxQs > 0 && len(questions) > m.maxQs {
		log.Printf("exam %d has %d questions, over the session cap of %d", ex.ID, len(questions), m.maxQs)
		return nil, ErrTooManyQuestions
	}

	snap := &Snapshot{
		StudentID: studentID,
		ExamID:    ex.ID,
		AttemptID: attempt.ID,
		Exam:      ex,
		Answers:   map[int]grading.Response{},
		Review:    map[int]bool{},
		Visited:   map[int]bool{},
		StartTime: attempt.StartTime,
		builtAt:   m.now(),
	}
	for _, q := range questions {
		sq := Question{Question: q, Key: grading.ParseKey(q.CorrectAnswer, q.Type)}
		if q.ImagePath != "" {
			sq.HasImage, sq.ImageURL = m.resolver.Resolve(q.ImagePath)
		}
		snap.Questions = append(snap.Questions, sq)
	}

	m.mu.Lock()
	m.entries[key(studentID, ex.ID)] = snap
	m.mu.Unlock()
	return snap, nil
}

// Get returns the live snapshot for student+exam. Expired snapshots
// are evicted on access.
func (m *Manager) Get(studentID, examID int) (*Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(studentID, examID)
	snap, ok := m.entries[k]
	if !ok {
		return nil, false
	}
	if m.ttl > 0 && m.now().Sub(snap.builtAt) > m.ttl {
		delete(m.entries, k)
		return nil, false
	}
	return snap, true
}

// Evict drops the snapshot (submit, abandon, restart).
func (m *Manager) Evict(studentID, examID int) {
	m.mu.Lock()
	delete(m.entries, key(studentID, examID))
	m.mu.Unlock()
}

// SetAnswer records the student's selection. A blank value clears the
// answer; setting a real answer also clears the review mark, matching
// the palette's answered-beats-review display rule.
func (m *Manager) SetAnswer(studentID, examID, questionID int, resp grading.Response) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.entries[key(studentID, examID)]
	if !ok {
		return false
	}
	q, ok := snap.question(questionID)
	if !ok {
		return false
	}
	if !resp.Attempted(q.Type) {
		delete(snap.Answers, questionID)
		delete(snap.Review, questionID)
		return true
	}
	snap.Answers[questionID] = resp
	delete(snap.Review, questionID)
	return true
}

func (m *Manager) ClearAnswer(studentID, examID, questionID int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.entries[key(studentID, examID)]
	if !ok {
		return false
	}
	delete(snap.Answers, questionID)
	delete(snap.Review, questionID)
	return true
}

func (m *Manager) ToggleReview(studentID, examID, questionID int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.entries[key(studentID, examID)]
	if !ok {
		return false
	}
	if _, ok := snap.question(questionID); !ok {
		return false
	}
	if snap.Review[questionID] {
		delete(snap.Review, questionID)
	} else {
		snap.Review[questionID] = true
	}
	return true
}

func (s *Snapshot) question(id int) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
