package grading_test

import (
	"testing"

	"github.com/examstack/examportal/internal/grading"
)

func TestCorrectMCQ(t *testing.T) {
	tests := []struct {
		name  string
		given string
		key   string
		want  bool
	}{
		{"exact match", "B", "B", true},
		{"case insensitive", "b", "B", true},
		{"whitespace trimmed", "  b ", "B", true},
		{"wrong option", "A", "B", false},
		{"empty given", "", "B", false},
		{"empty key", "B", "", false},
	}
	eval := grading.NewEvaluator()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			key := grading.ParseKey(tc.key, grading.TypeMCQ)
			got := eval.Correct(grading.TypeMCQ, grading.Response{Single: tc.given}, key, 0)
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCorrectMSQ(t *testing.T) {
	tests := []struct {
		name  string
		multi []string
		csv   string
		key   string
		want  bool
	}{
		{"order insensitive", []string{"c", "a"}, "", "A, C", true},
		{"case insensitive", []string{"a", "c"}, "", "A,C", true},
		{"comma string form", nil, "a, c", "A, C", true},
		{"missing option", []string{"A"}, "", "A, C", false},
		{"extra option", []string{"A", "C", "D"}, "", "A, C", false},
		{"empty given", nil, "", "A, C", false},
		{"empty key", []string{"A"}, "", "", false},
	}
	eval := grading.NewEvaluator()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			key := grading.ParseKey(tc.key, grading.TypeMSQ)
			got := eval.Correct(grading.TypeMSQ, grading.Response{Single: tc.csv, Multi: tc.multi}, key, 0)
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCorrectNumeric(t *testing.T) {
	tests := []struct {
		name      string
		given     string
		key       string
		tolerance float64
		want      bool
	}{
		{"within tolerance", "5.05", "5.0", 0.1, true},
		{"outside tolerance", "5.2", "5.0", 0.1, false},
		{"exact", "5", "5.0", 0.1, true},
		{"boundary", "5.1", "5.0", 0.1, true},
		{"unparseable given", "abc", "5.0", 0.1, false},
		{"unparseable key", "5.0", "abc", 0.1, false},
		{"zero tolerance falls back to default", "5.05", "5.0", 0, true},
	}
	eval := grading.NewEvaluator()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			key := grading.ParseKey(tc.key, grading.TypeNumeric)
			got := eval.Correct(grading.TypeNumeric, grading.Response{Single: tc.given}, key, tc.tolerance)
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCorrectUnknownTypeFailsClosed(t *testing.T) {
	eval := grading.NewEvaluator()
	key := grading.ParseKey("B", "ESSAY")
	if eval.Correct("ESSAY", grading.Response{Single: "B"}, key, 0) {
		t.Error("unknown question type must never be marked correct")
	}
}

func TestScore(t *testing.T) {
	if got := grading.Score(true, 4, 1); got != 4 {
		t.Errorf("correct: got %v, want 4", got)
	}
	if got := grading.Score(false, 4, 1); got != -1 {
		t.Errorf("incorrect with negative marking: got %v, want -1", got)
	}
	if got := grading.Score(false, 4, 0); got != 0 {
		t.Errorf("incorrect without negative marking: got %v, want 0", got)
	}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{95, "A+"}, {90, "A+"}, {85, "A"}, {80, "A"},
		{75, "B"}, {65, "C"}, {59.9, "F"}, {25, "F"}, {-10, "F"},
	}
	for _, tc := range tests {
		if got := grading.Grade(tc.pct); got != tc.want {
			t.Errorf("Grade(%v) = %q, want %q", tc.pct, got, tc.want)
		}
	}
}

func TestAttempted(t *testing.T) {
	tests := []struct {
		name  string
		qtype string
		resp  grading.Response
		want  bool
	}{
		{"mcq answered", grading.TypeMCQ, grading.Response{Single: "A"}, true},
		{"mcq blank", grading.TypeMCQ, grading.Response{Single: "  "}, false},
		{"msq answered", grading.TypeMSQ, grading.Response{Multi: []string{"A"}}, true},
		{"msq empty list", grading.TypeMSQ, grading.Response{Multi: []string{}}, false},
		{"numeric answered", grading.TypeNumeric, grading.Response{Single: "3.2"}, true},
		{"numeric blank", grading.TypeNumeric, grading.Response{Single: ""}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.resp.Attempted(tc.qtype); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}
