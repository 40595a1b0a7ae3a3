package exam

import (
	"testing"
	"time"

	"github.com/examstack/examportal/internal/grading"
)

func TestMSQAnswerRoundTrip(t *testing.T) {
	given := grading.Response{Multi: []string{"A", "C"}}
	stored := EncodeAnswer(grading.TypeMSQ, given)
	if stored != `["A","C"]` {
		t.Fatalf("stored form = %q", stored)
	}
	back := DecodeAnswer(grading.TypeMSQ, stored)
	if len(back.Multi) != 2 {
		t.Fatalf("decoded %v", back.Multi)
	}
	set := map[string]bool{}
	for _, s := range back.Multi {
		set[s] = true
	}
	if !set["A"] || !set["C"] {
		t.Errorf("round-trip lost options: %v", back.Multi)
	}
}

func TestEncodeAnswerBlankMSQ(t *testing.T) {
	if got := EncodeAnswer(grading.TypeMSQ, grading.Response{}); got != "" {
		t.Errorf("blank MSQ stored as %q, want empty", got)
	}
}

func TestAttemptRowRoundTrip(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 30, 0, 0, time.Local)
	a := Attempt{ID: 12, StudentID: 7, ExamID: 3, AttemptNumber: 2,
		Status: AttemptInProgress, StartTime: start}
	back := attemptFromRow(a.row())
	if back != a {
		t.Errorf("round trip changed attempt: %+v != %+v", back, a)
	}
	if back.EndTime != (time.Time{}) {
		t.Error("open attempt must round-trip an empty end_time")
	}
}

func TestResultRowKeepsUnknownTimeTaken(t *testing.T) {
	r := Result{ID: 1, StudentID: 7, ExamID: 3, Score: 3, TotalQuestions: 3,
		CorrectAnswers: 1, IncorrectAnswers: 1, UnansweredQuestions: 1,
		MaxScore: 12, Percentage: 25, Grade: "F",
		CompletedAt: time.Date(2025, 3, 10, 10, 0, 0, 0, time.Local)}
	back := resultFromRow(r.row())
	if back.TimeTakenKnown {
		t.Error("missing time_taken must stay unknown, not default to 0")
	}
	if back.Score != 3 || back.Grade != "F" || back.Percentage != 25 {
		t.Errorf("round trip changed result: %+v", back)
	}
}

func TestEffectiveMarks(t *testing.T) {
	e := Exam{PositiveMarks: 2, NegativeMarks: 0.5}
	tests := []struct {
		name    string
		q       Question
		wantPos float64
		wantNeg float64
	}{
		{"exam defaults", Question{}, 2, 0.5},
		{"question overrides", Question{PositiveMarks: fptr(4), NegativeMarks: fptr(1)}, 4, 1},
		{"explicit zero negative overrides default", Question{NegativeMarks: fptr(0)}, 2, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, neg := tc.q.EffectiveMarks(e)
			if pos != tc.wantPos || neg != tc.wantNeg {
				t.Errorf("got %v/%v, want %v/%v", pos, neg, tc.wantPos, tc.wantNeg)
			}
		})
	}
}
