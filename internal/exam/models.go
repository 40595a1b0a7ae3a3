package exam

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/examstack/examportal/internal/grading"
)

// TimeLayout is the wall-clock format used in every persisted table.
const TimeLayout = "2006-01-02 15:04:05"

// Attempt lifecycle states.
const (
	AttemptInProgress = "in_progress"
	AttemptCompleted  = "completed"
	AttemptAbandoned  = "abandoned"
)

// Exam statuses as shown in the catalogue.
const (
	ExamUpcoming  = "upcoming"
	ExamOngoing   = "ongoing"
	ExamCompleted = "completed"
)

type Exam struct {
	ID              int
	Name            string
	Date            string // YYYY-MM-DD
	StartTime       string // HH:MM
	DurationMinutes int
	TotalQuestions  int
	Status          string
	Instructions    string
	PositiveMarks   float64 // per-question default
	NegativeMarks   float64 // per-question default
	MaxAttempts     int     // 0 = unlimited
}

type Question struct {
	ID            int
	ExamID        int
	Text          string
	OptionA       string
	OptionB       string
	OptionC       string
	OptionD       string
	CorrectAnswer string // raw; format depends on Type
	Type          string // grading.TypeMCQ | TypeMSQ | TypeNumeric
	ImagePath     string
	PositiveMarks *float64 // nil: use exam default
	NegativeMarks *float64 // nil: use exam default
	Tolerance     float64  // NUMERIC only
}

// EffectiveMarks resolves the question's marking scheme against the
// exam defaults. Defaulting happens here, once, not at every use site.
func (q Question) EffectiveMarks(e Exam) (positive, negative float64) {
	positive = e.PositiveMarks
	if positive == 0 {
		positive = 1
	}
	negative = e.NegativeMarks
	if q.PositiveMarks != nil {
		positive = *q.PositiveMarks
	}
	if q.NegativeMarks != nil {
		negative = *q.NegativeMarks
	}
	return positive, negative
}

type Attempt struct {
	ID            int
	StudentID     int
	ExamID        int
	AttemptNumber int // 1-based, scoped to student+exam
	Status        string
	StartTime     time.Time
	EndTime       time.Time // zero while in progress
}

type Result struct {
	ID                  int
	StudentID           int
	ExamID              int
	Score               float64
	TotalQuestions      int
	CorrectAnswers      int
	IncorrectAnswers    int
	UnansweredQuestions int
	MaxScore            float64
	Percentage          float64
	Grade               string
	TimeTakenMinutes    float64
	TimeTakenKnown      bool // false when the start time was missing
	CompletedAt         time.Time
}

type ResponseRecord struct {
	ID            int
	ResultID      int
	ExamID        int
	QuestionID    int
	GivenAnswer   string // JSON array for MSQ, plain string otherwise
	CorrectAnswer string // serialized the same way
	IsCorrect     bool
	MarksObtained float64
	QuestionType  string
	IsAttempted   bool
}

type User struct {
	ID           int
	Username     string
	PasswordHash string // bcrypt
	FullName     string
	Email        string
	Role         string
}

// Table headers; column order is part of the round-trip contract.
var (
	examHeader = []string{"id", "name", "date", "start_time", "duration",
		"total_questions", "status", "instructions", "positive_marks",
		"negative_marks", "max_attempts"}
	questionHeader = []string{"id", "exam_id", "question_text", "option_a",
		"option_b", "option_c", "option_d", "correct_answer", "question_type",
		"image_path", "positive_marks", "negative_marks", "tolerance"}
	attemptHeader = []string{"id", "student_id", "exam_id", "attempt_number",
		"status", "start_time", "end_time"}
	resultHeader = []string{"id", "student_id", "exam_id", "score",
		"total_questions", "correct_answers", "incorrect_answers",
		"unanswered_questions", "max_score", "percentage", "grade",
		"time_taken_minutes", "completed_at"}
	responseHeader = []string{"id", "result_id", "exam_id", "question_id",
		"given_answer", "correct_answer", "is_correct", "marks_obtained",
		"question_type", "is_attempted"}
	userHeader = []string{"id", "username", "password_hash", "full_name",
		"email", "role"}
)

func examFromRow(row []string) Exam {
	e := Exam{
		ID:              atoi(col(row, 0)),
		Name:            col(row, 1),
		Date:            col(row, 2),
		StartTime:       col(row, 3),
		DurationMinutes: atoi(col(row, 4)),
		TotalQuestions:  atoi(col(row, 5)),
		Status:          col(row, 6),
		Instructions:    col(row, 7),
		PositiveMarks:   atofOr(col(row, 8), 1),
		NegativeMarks:   atofOr(col(row, 9), 0),
		MaxAttempts:     atoi(col(row, 10)),
	}
	return e
}

func questionFromRow(row []string) Question {
	q := Question{
		ID:            atoi(col(row, 0)),
		ExamID:        atoi(col(row, 1)),
		Text:          col(row, 2),
		OptionA:       col(row, 3),
		OptionB:       col(row, 4),
		OptionC:       col(row, 5),
		OptionD:       col(row, 6),
		CorrectAnswer: col(row, 7),
		Type:          normalizeType(col(row, 8)),
		ImagePath:     col(row, 9),
		PositiveMarks: optFloat(col(row, 10)),
		NegativeMarks: optFloat(col(row, 11)),
		Tolerance:     atofOr(col(row, 12), grading.DefaultTolerance),
	}
	return q
}

func attemptFromRow(row []string) Attempt {
	return Attempt{
		ID:            atoi(col(row, 0)),
		StudentID:     atoi(col(row, 1)),
		ExamID:        atoi(col(row, 2)),
		AttemptNumber: atoi(col(row, 3)),
		Status:        col(row, 4),
		StartTime:     parseTime(col(row, 5)),
		EndTime:       parseTime(col(row, 6)),
	}
}

func (a Attempt) row() []string {
	return []string{
		itoa(a.ID), itoa(a.StudentID), itoa(a.ExamID), itoa(a.AttemptNumber),
		a.Status, formatTime(a.StartTime), formatTime(a.EndTime),
	}
}

func resultFromRow(row []string) Result {
	r := Result{
		ID:                  atoi(col(row, 0)),
		StudentID:           atoi(col(row, 1)),
		ExamID:              atoi(col(row, 2)),
		Score:               atofOr(col(row, 3), 0),
		TotalQuestions:      atoi(col(row, 4)),
		CorrectAnswers:      atoi(col(row, 5)),
		IncorrectAnswers:    atoi(col(row, 6)),
		UnansweredQuestions: atoi(col(row, 7)),
		MaxScore:            atofOr(col(row, 8), 0),
		Percentage:          atofOr(col(row, 9), 0),
		Grade:               col(row, 10),
		CompletedAt:         parseTime(col(row, 12)),
	}
	if s := col(row, 11); s != "" {
		r.TimeTakenMinutes = atofOr(s, 0)
		r.TimeTakenKnown = true
	}
	return r
}

func (r Result) row() []string {
	taken := ""
	if r.TimeTakenKnown {
		taken = ftoa(r.TimeTakenMinutes)
	}
	return []string{
		itoa(r.ID), itoa(r.StudentID), itoa(r.ExamID), ftoa(r.Score),
		itoa(r.TotalQuestions), itoa(r.CorrectAnswers), itoa(r.IncorrectAnswers),
		itoa(r.UnansweredQuestions), ftoa(r.MaxScore), ftoa(r.Percentage),
		r.Grade, taken, formatTime(r.CompletedAt),
	}
}

func responseFromRow(row []string) ResponseRecord {
	return ResponseRecord{
		ID:            atoi(col(row, 0)),
		ResultID:      atoi(col(row, 1)),
		ExamID:        atoi(col(row, 2)),
		QuestionID:    atoi(col(row, 3)),
		GivenAnswer:   col(row, 4),
		CorrectAnswer: col(row, 5),
		IsCorrect:     parseBool(col(row, 6)),
		MarksObtained: atofOr(col(row, 7), 0),
		QuestionType:  col(row, 8),
		IsAttempted:   parseBool(col(row, 9)),
	}
}

func (r ResponseRecord) row() []string {
	return []string{
		itoa(r.ID), itoa(r.ResultID), itoa(r.ExamID), itoa(r.QuestionID),
		r.GivenAnswer, r.CorrectAnswer, formatBool(r.IsCorrect),
		ftoa(r.MarksObtained), r.QuestionType, formatBool(r.IsAttempted),
	}
}

func userFromRow(row []string) User {
	return User{
		ID:           atoi(col(row, 0)),
		Username:     col(row, 1),
		PasswordHash: col(row, 2),
		FullName:     col(row, 3),
		Email:        col(row, 4),
		Role:         strings.ToLower(strings.TrimSpace(col(row, 5))),
	}
}

// EncodeAnswer serializes a session answer for the responses table:
// JSON array for MSQ, plain string otherwise.
func EncodeAnswer(questionType string, resp grading.Response) string {
	if questionType == grading.TypeMSQ {
		if len(resp.Multi) == 0 {
			return ""
		}
		b, _ := json.Marshal(resp.Multi)
		return string(b)
	}
	return resp.Single
}

// DecodeAnswer reverses EncodeAnswer for the response review page.
func DecodeAnswer(questionType, stored string) grading.Response {
	if questionType == grading.TypeMSQ && stored != "" {
		var multi []string
		if err := json.Unmarshal([]byte(stored), &multi); err == nil {
			return grading.Response{Multi: multi}
		}
	}
	return grading.Response{Single: stored}
}

// EncodeKey serializes a parsed correct answer the same way.
func EncodeKey(questionType string, key grading.Key) string {
	if !key.Valid {
		return ""
	}
	switch questionType {
	case grading.TypeMSQ:
		b, _ := json.Marshal(key.Multi)
		return string(b)
	case grading.TypeNumeric:
		return ftoa(key.Value)
	default:
		return key.Single
	}
}

func normalizeType(s string) string {
	t := strings.ToUpper(strings.TrimSpace(s))
	switch t {
	case grading.TypeMSQ, grading.TypeNumeric:
		return t
	case "":
		return grading.TypeMCQ
	case grading.TypeMCQ:
		return grading.TypeMCQ
	default:
		return t // unknown types reach the evaluator, which fails closed
	}
}

func col(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSuffix(s, ".0"))
	return n
}

func itoa(n int) string { return strconv.Itoa(n) }

func atofOr(s string, def float64) float64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

func optFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(TimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimeLayout)
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
