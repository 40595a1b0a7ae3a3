package exam

import (
	"context"
	"time"
)

// Ledger owns the attempt state machine per (student, exam):
// NoAttempt -> InProgress -> {Completed, Abandoned}, with a new
// InProgress allowed after Completed while attempts remain. At most one
// in_progress attempt exists per student+exam; StartOrResume resumes it
// rather than creating a duplicate.
type Ledger struct {
	repo *Repo
	now  func() time.Time
}

func NewLedger(repo *Repo) *Ledger {
	return &Ledger{repo: repo, now: time.Now}
}

// Start outcomes.
const (
	StartStarted  = "started"
	StartResumed  = "resumed"
	StartRejected = "rejected"
)

type StartOutcome struct {
	Status  string
	Attempt Attempt
	Reason  string
}

// AttemptStatus is the gating summary shown before an exam.
type AttemptStatus struct {
	CompletedCount   int  `json:"completed_count"`
	MaxAttempts      int  `json:"max_attempts"`
	AttemptsLeft     int  `json:"attempts_left"` // -1 = unlimited
	ActiveInProgress bool `json:"active_in_progress"`
}

// ActiveAttempt returns the most recent in_progress attempt for the
// student+exam, if any. Multiple in_progress rows should not occur;
// defensively, the latest start time wins.
func (l *Ledger) ActiveAttempt(ctx context.Context, studentID, examID int) (Attempt, bool, error) {
	attempts, err := l.repo.AttemptsFor(ctx, studentID, examID)
	if err != nil {
		return Attempt{}, false, err
	}
	return pickActive(attempts)
}

// StartOrResume gates entry to an exam. One locked read-modify-write
// covers the active check, the limit check and the create, so two
// concurrent starts cannot both create an attempt.
func (l *Ledger) StartOrResume(ctx context.Context, studentID int, exam Exam) (StartOutcome, error) {
	var out StartOutcome
	err := l.repo.MutateAttempts(ctx, func(all []Attempt) ([]Attempt, error) {
		var mine []Attempt
		for _, a := range all {
			if a.StudentID == studentID && a.ExamID == exam.ID {
				mine = append(mine, a)
			}
		}

		if active, ok, _ := pickActive(mine); ok {
			out = StartOutcome{Status: StartResumed, Attempt: active}
			return nil, nil // resume keeps id and original start time
		}

		completed := 0
		maxNumber := 0
		for _, a := range mine {
			if a.Status == AttemptCompleted {
				completed++
			}
			if a.AttemptNumber > maxNumber {
				maxNumber = a.AttemptNumber
			}
		}
		if exam.MaxAttempts > 0 && completed >= exam.MaxAttempts {
			out = StartOutcome{Status: StartRejected, Reason: ErrAttemptsExhausted.Error()}
			return nil, ErrAttemptsExhausted
		}

		next := Attempt{
			ID:            l.nextAttemptID(all),
			StudentID:     studentID,
			ExamID:        exam.ID,
			AttemptNumber: maxNumber + 1,
			Status:        AttemptInProgress,
			// Truncated to the precision the attempts table persists, so
			// a fresh start and its later resume carry the same time.
			StartTime: l.now().Truncate(time.Second),
		}
		out = StartOutcome{Status: StartStarted, Attempt: next}
		return append(all, next), nil
	})
	if err != nil && out.Status != StartRejected {
		return StartOutcome{}, err
	}
	return out, nil
}

// Transition moves an in_progress attempt to completed or abandoned and
// stamps its end time. A non-in_progress target reports not-found as a
// no-op instead of an error.
func (l *Ledger) Transition(ctx context.Context, attemptID int, newStatus string) (bool, error) {
	if newStatus != AttemptCompleted && newStatus != AttemptAbandoned {
		return false, ErrNotFound
	}
	found := false
	err := l.repo.MutateAttempts(ctx, func(all []Attempt) ([]Attempt, error) {
		for i := range all {
			if all[i].ID == attemptID && all[i].Status == AttemptInProgress {
				all[i].Status = newStatus
				all[i].EndTime = l.now().Truncate(time.Second)
				found = true
				return all, nil
			}
		}
		return nil, nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// RemainingSeconds computes the attempt's time budget against the
// server-recorded start time, clamped at zero.
func (l *Ledger) RemainingSeconds(attempt Attempt, exam Exam) int {
	if attempt.StartTime.IsZero() {
		return exam.DurationMinutes * 60
	}
	elapsed := l.now().Sub(attempt.StartTime)
	remaining := time.Duration(exam.DurationMinutes)*time.Minute - elapsed
	if remaining < 0 {
		return 0
	}
	return int(remaining / time.Second)
}

// Status summarizes attempt gating for the instructions page.
func (l *Ledger) Status(ctx context.Context, studentID int, exam Exam) (AttemptStatus, error) {
	attempts, err := l.repo.AttemptsFor(ctx, studentID, exam.ID)
	if err != nil {
		return AttemptStatus{}, err
	}
	st := AttemptStatus{MaxAttempts: exam.MaxAttempts, AttemptsLeft: -1}
	for _, a := range attempts {
		if a.Status == AttemptCompleted {
			st.CompletedCount++
		}
		if a.Status == AttemptInProgress {
			st.ActiveInProgress = true
		}
	}
	if exam.MaxAttempts > 0 {
		st.AttemptsLeft = exam.MaxAttempts - st.CompletedCount
		if st.AttemptsLeft < 0 {
			st.AttemptsLeft = 0
		}
	}
	return st, nil
}

func (l *Ledger) nextAttemptID(all []Attempt) int {
	max := 0
	for _, a := range all {
		if a.ID > max {
			max = a.ID
		}
	}
	if max == 0 && len(all) > 0 {
		return int(l.now().Unix())
	}
	return max + 1
}

func pickActive(attempts []Attempt) (Attempt, bool, error) {
	var active Attempt
	found := false
	for _, a := range attempts {
		if a.Status != AttemptInProgress {
			continue
		}
		if !found || a.StartTime.After(active.StartTime) {
			active = a
			found = true
		}
	}
	return active, found, nil
}
