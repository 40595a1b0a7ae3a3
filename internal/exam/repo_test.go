package exam

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCommitSubmissionRejectsNonInProgressAttempt(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend()
	repo := newTestRepo(backend)
	ledger := NewLedger(repo)

	e := Exam{ID: 6, DurationMinutes: 30}
	seedExam(ctx, backend, e)

	start, err := ledger.StartOrResume(ctx, 7, e)
	if err != nil {
		t.Fatal(err)
	}
	res := Result{StudentID: 7, ExamID: e.ID, Grade: "F",
		CompletedAt: time.Date(2025, 3, 10, 10, 0, 0, 0, time.Local)}

	if _, err := repo.CommitSubmission(ctx, start.Attempt.ID, res, nil); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if _, active, _ := ledger.ActiveAttempt(ctx, 7, e.ID); active {
		t.Fatal("commit must complete the attempt")
	}

	// The attempt is no longer in_progress; a second commit must write
	// nothing even though the caller's earlier checks passed.
	if _, err := repo.CommitSubmission(ctx, start.Attempt.ID, res, nil); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("second commit err = %v, want ErrSessionExpired", err)
	}
	results, err := repo.ResultsForStudent(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("result rows = %d, want 1", len(results))
	}
}

func TestCommitSubmissionStampsAttemptEndTime(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend()
	repo := newTestRepo(backend)
	ledger := NewLedger(repo)

	e := Exam{ID: 7, DurationMinutes: 30}
	seedExam(ctx, backend, e)

	start, _ := ledger.StartOrResume(ctx, 7, e)
	completedAt := time.Date(2025, 3, 10, 10, 0, 0, 0, time.Local)
	res := Result{StudentID: 7, ExamID: e.ID, CompletedAt: completedAt}
	if _, err := repo.CommitSubmission(ctx, start.Attempt.ID, res, nil); err != nil {
		t.Fatal(err)
	}

	attempts, err := repo.AttemptsFor(ctx, 7, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(attempts) != 1 {
		t.Fatalf("attempt rows = %d, want 1", len(attempts))
	}
	if attempts[0].Status != AttemptCompleted {
		t.Errorf("status = %q, want completed", attempts[0].Status)
	}
	if !attempts[0].EndTime.Equal(completedAt) {
		t.Errorf("end_time = %v, want %v", attempts[0].EndTime, completedAt)
	}
}
