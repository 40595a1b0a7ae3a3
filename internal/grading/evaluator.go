// Package grading decides answer correctness and marks for the portal's
// three question types. Everything here is pure: no store access, no
// clock, no side effects.
package grading

import (
	"math"
	"strconv"
	"strings"
)

// Question types.
const (
	TypeMCQ     = "MCQ"
	TypeMSQ     = "MSQ"
	TypeNumeric = "NUMERIC"
)

const DefaultTolerance = 0.1

// Key is a question's correct answer pre-parsed into its canonical
// typed form. Parsing happens once, when a snapshot is built; the
// submission path never re-parses raw strings.
type Key struct {
	Single string   // MCQ: trimmed, upper-cased option letter
	Multi  []string // MSQ: trimmed, upper-cased option letters
	Value  float64  // NUMERIC
	Valid  bool     // false when the raw key was empty or unparseable
}

// ParseKey builds the canonical key for a raw correct_answer cell.
func ParseKey(raw, questionType string) Key {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Key{}
	}
	switch questionType {
	case TypeMSQ:
		opts := splitOptions(raw)
		return Key{Multi: opts, Valid: len(opts) > 0}
	case TypeNumeric:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Key{}
		}
		return Key{Value: v, Valid: true}
	default: // MCQ
		return Key{Single: strings.ToUpper(raw), Valid: true}
	}
}

// Response is a student's answer to one question as held in the
// session snapshot: Single for MCQ and NUMERIC (raw string), Multi for
// MSQ.
type Response struct {
	Single string
	Multi  []string
}

// Attempted reports whether the response counts as an attempt for the
// given question type. Unattempted questions score 0 and are tallied
// as unanswered, never correct or incorrect.
func (r Response) Attempted(questionType string) bool {
	if questionType == TypeMSQ {
		return len(r.Multi) > 0
	}
	return strings.TrimSpace(r.Single) != ""
}

// Strategy decides correctness for one question type.
type Strategy interface {
	Correct(given Response, key Key, tolerance float64) bool
}

// Evaluator routes by question type. Unknown types fail closed.
type Evaluator struct {
	strategies map[string]Strategy
}

func NewEvaluator() *Evaluator {
	return &Evaluator{strategies: map[string]Strategy{
		TypeMCQ:     mcqStrategy{},
		TypeMSQ:     msqStrategy{},
		TypeNumeric: numericStrategy{},
	}}
}

func (e *Evaluator) Correct(questionType string, given Response, key Key, tolerance float64) bool {
	s, ok := e.strategies[questionType]
	if !ok {
		return false
	}
	return s.Correct(given, key, tolerance)
}

// Score applies the marking scheme: positive marks when correct,
// negated negative marks otherwise.
func Score(correct bool, positive, negative float64) float64 {
	if correct {
		return positive
	}
	return -negative
}

// Grade maps a percentage to the fixed letter scale.
func Grade(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A+"
	case percentage >= 80:
		return "A"
	case percentage >= 70:
		return "B"
	case percentage >= 60:
		return "C"
	default:
		return "F"
	}
}

type mcqStrategy struct{}

func (mcqStrategy) Correct(given Response, key Key, _ float64) bool {
	if !key.Valid {
		return false
	}
	g := strings.ToUpper(strings.TrimSpace(given.Single))
	return g != "" && g == key.Single
}

type msqStrategy struct{}

func (msqStrategy) Correct(given Response, key Key, _ float64) bool {
	if !key.Valid {
		return false
	}
	gs := given.Multi
	if len(gs) == 0 && given.Single != "" {
		// Accept a comma-separated string form as well.
		gs = strings.Split(given.Single, ",")
	}
	g := toSet(normalizeOptions(gs))
	k := toSet(key.Multi)
	if len(g) == 0 {
		return false
	}
	return setEqual(g, k)
}

type numericStrategy struct{}

func (numericStrategy) Correct(given Response, key Key, tolerance float64) bool {
	if !key.Valid {
		return false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(given.Single), 64)
	if err != nil {
		return false
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return math.Abs(v-key.Value) <= tolerance
}

func splitOptions(raw string) []string {
	return normalizeOptions(strings.Split(raw, ","))
}

func normalizeOptions(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.ToUpper(strings.TrimSpace(p)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
