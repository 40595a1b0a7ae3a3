package exam

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStartOrResumeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend()
	repo := newTestRepo(backend)
	ledger := NewLedger(repo)

	e := Exam{ID: 1, Name: "Algebra I", DurationMinutes: 60, MaxAttempts: 3}
	seedExam(ctx, backend, e)

	first, err := ledger.StartOrResume(ctx, 7, e)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	if first.Status != StartStarted {
		t.Fatalf("first status = %q, want %q", first.Status, StartStarted)
	}
	if first.Attempt.AttemptNumber != 1 {
		t.Errorf("attempt_number = %d, want 1", first.Attempt.AttemptNumber)
	}
	// The returned start time must survive the table round-trip exactly,
	// or a fresh start and its resume would disagree on the deadline.
	stored := attemptFromRow(first.Attempt.row())
	if !stored.StartTime.Equal(first.Attempt.StartTime) {
		t.Errorf("start time loses precision through the table: %v != %v",
			stored.StartTime, first.Attempt.StartTime)
	}

	second, err := ledger.StartOrResume(ctx, 7, e)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if second.Status != StartResumed {
		t.Fatalf("second status = %q, want %q", second.Status, StartResumed)
	}
	if second.Attempt.ID != first.Attempt.ID {
		t.Errorf("resume returned attempt %d, want %d", second.Attempt.ID, first.Attempt.ID)
	}
	if !second.Attempt.StartTime.Equal(first.Attempt.StartTime) {
		t.Error("resume must keep the original start time")
	}
}

func TestStartOrResumeEnforcesAttemptLimit(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend()
	repo := newTestRepo(backend)
	ledger := NewLedger(repo)

	e := Exam{ID: 2, Name: "Geometry", DurationMinutes: 30, MaxAttempts: 2}
	seedExam(ctx, backend, e)

	for i := 0; i < 2; i++ {
		out, err := ledger.StartOrResume(ctx, 7, e)
		if err != nil {
			t.Fatalf("start %d: %v", i+1, err)
		}
		if _, err := ledger.Transition(ctx, out.Attempt.ID, AttemptCompleted); err != nil {
			t.Fatalf("complete %d: %v", i+1, err)
		}
	}

	out, err := ledger.StartOrResume(ctx, 7, e)
	if err != nil {
		t.Fatalf("third start: %v", err)
	}
	if out.Status != StartRejected {
		t.Fatalf("third status = %q, want %q", out.Status, StartRejected)
	}

	st, err := ledger.Status(ctx, 7, e)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.CompletedCount != 2 || st.AttemptsLeft != 0 || st.ActiveInProgress {
		t.Errorf("status = %+v, want 2 completed, 0 left, none active", st)
	}
}

func TestUnlimitedAttemptsWhenMaxIsZero(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend()
	repo := newTestRepo(backend)
	ledger := NewLedger(repo)

	e := Exam{ID: 3, DurationMinutes: 30, MaxAttempts: 0}
	seedExam(ctx, backend, e)

	for i := 1; i <= 4; i++ {
		out, err := ledger.StartOrResume(ctx, 9, e)
		if err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
		if out.Status != StartStarted {
			t.Fatalf("start %d status = %q", i, out.Status)
		}
		if out.Attempt.AttemptNumber != i {
			t.Errorf("start %d attempt_number = %d", i, out.Attempt.AttemptNumber)
		}
		if _, err := ledger.Transition(ctx, out.Attempt.ID, AttemptCompleted); err != nil {
			t.Fatalf("complete %d: %v", i, err)
		}
	}
}

func TestTransitionNonInProgressIsNoOp(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend()
	repo := newTestRepo(backend)
	ledger := NewLedger(repo)

	e := Exam{ID: 4, DurationMinutes: 30}
	seedExam(ctx, backend, e)

	out, err := ledger.StartOrResume(ctx, 5, e)
	if err != nil {
		t.Fatal(err)
	}
	found, err := ledger.Transition(ctx, out.Attempt.ID, AttemptCompleted)
	if err != nil || !found {
		t.Fatalf("first transition: found=%v err=%v", found, err)
	}

	found, err = ledger.Transition(ctx, out.Attempt.ID, AttemptAbandoned)
	if err != nil {
		t.Fatalf("second transition errored: %v", err)
	}
	if found {
		t.Error("transitioning a completed attempt must report not found")
	}
}

func TestRemainingSecondsClampsAtZero(t *testing.T) {
	clock := newClock()
	ledger := &Ledger{now: clock.now}

	e := Exam{DurationMinutes: 60}
	attempt := Attempt{StartTime: clock.t.Add(-61 * time.Minute)}
	if got := ledger.RemainingSeconds(attempt, e); got != 0 {
		t.Errorf("expired attempt remaining = %d, want 0", got)
	}

	attempt.StartTime = clock.t.Add(-30 * time.Minute)
	if got := ledger.RemainingSeconds(attempt, e); got != 30*60 {
		t.Errorf("half-way remaining = %d, want %d", got, 30*60)
	}
}

func TestStartOrResumeSurfacesStoreOutage(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend()
	backend.failSaves["attempts"] = true
	repo := newTestRepo(backend)
	ledger := NewLedger(repo)

	e := Exam{ID: 5, DurationMinutes: 30}
	seedExam(ctx, backend, e)

	_, err := ledger.StartOrResume(ctx, 5, e)
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("err = %v, want ErrDataUnavailable", err)
	}
}
