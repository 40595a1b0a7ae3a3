package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/examstack/examportal/internal/auth"
	"github.com/examstack/examportal/internal/exam"
	"github.com/examstack/examportal/internal/grading"
	"github.com/examstack/examportal/internal/session"
)

// Deps bundles the exam-taking collaborators for the handlers.
type Deps struct {
	Repo        *exam.Repo
	Ledger      *exam.Ledger
	Sessions    *session.Manager
	Coordinator *exam.Coordinator
}

func examID(r *http.Request) int {
	n, _ := strconv.Atoi(chi.URLParam(r, "examID"))
	return n
}

// GET /exams
func ListExamsHandler(d Deps) http.HandlerFunc {
	type item struct {
		exam.Exam
		Attempts exam.AttemptStatus `json:"attempts"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.StudentIDFromContext(r.Context())
		exams, err := d.Repo.Exams(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]item, 0, len(exams))
		for _, e := range exams {
			st, err := d.Ledger.Status(r.Context(), studentID, e)
			if err != nil {
				writeError(w, err)
				return
			}
			out = append(out, item{Exam: e, Attempts: st})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /exams/{examID} — the instructions view.
func GetExamHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := d.Repo.GetExam(r.Context(), examID(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

// GET /exams/{examID}/attempt-status
func AttemptStatusHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.StudentIDFromContext(r.Context())
		e, err := d.Repo.GetExam(r.Context(), examID(r))
		if err != nil {
			writeError(w, err)
			return
		}
		st, err := d.Ledger.Status(r.Context(), studentID, e)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// POST /exams/{examID}/attempts — start_or_resume.
func StartAttemptHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		studentID := auth.StudentIDFromContext(ctx)
		e, err := d.Repo.GetExam(ctx, examID(r))
		if err != nil {
			writeError(w, err)
			return
		}

		outcome, err := d.Ledger.StartOrResume(ctx, studentID, e)
		if err != nil {
			writeError(w, err)
			return
		}
		if outcome.Status == exam.StartRejected {
			writeError(w, exam.ErrAttemptsExhausted)
			return
		}

		// A fresh start must not inherit a stale snapshot; a resume
		// rebuilds one only if the old snapshot is gone.
		if outcome.Status == exam.StartStarted {
			d.Sessions.Evict(studentID, e.ID)
		}
		if _, ok := d.Sessions.Get(studentID, e.ID); !ok {
			if _, err := d.Sessions.Build(ctx, studentID, outcome.Attempt, e); err != nil {
				writeError(w, err)
				return
			}
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":     outcome.Status,
			"attempt_id": outcome.Attempt.ID,
		})
	}
}

// GET /exams/{examID}/session?q=N — one page of the attempt.
func SessionViewHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		studentID := auth.StudentIDFromContext(ctx)
		e, err := d.Repo.GetExam(ctx, examID(r))
		if err != nil {
			writeError(w, err)
			return
		}
		attempt, ok, err := d.Ledger.ActiveAttempt(ctx, studentID, e.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		if !ok {
			writeError(w, exam.ErrSessionExpired)
			return
		}

		remaining := d.Ledger.RemainingSeconds(attempt, e)
		if remaining <= 0 {
			outcome, err := d.Coordinator.SubmitOnTimeout(ctx, studentID, e, attempt.ID)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"remaining_seconds": 0,
				"timed_out":         true,
				"result_id":         outcome.ResultID,
			})
			return
		}

		if _, ok := d.Sessions.Get(studentID, e.ID); !ok {
			// Snapshot lost (restart, eviction): resume the attempt.
			if _, err := d.Sessions.Build(ctx, studentID, attempt, e); err != nil {
				writeError(w, err)
				return
			}
		}
		q, _ := strconv.Atoi(r.URL.Query().Get("q"))
		view, ok := d.Sessions.View(studentID, e.ID, q)
		if !ok {
			writeError(w, exam.ErrSessionExpired)
			return
		}
		view.RemainingSeconds = remaining
		writeJSON(w, http.StatusOK, view)
	}
}

type answerRequest struct {
	QuestionID int             `json:"question_id"`
	Value      json.RawMessage `json:"value"`
}

// POST /exams/{examID}/answers
func RecordAnswerHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.StudentIDFromContext(r.Context())
		var req answerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuestionID == 0 {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		value, err := decodeValue(req.Value)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if !d.Sessions.SetAnswer(studentID, examID(r), req.QuestionID, value) {
			writeError(w, exam.ErrSessionExpired)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// POST /exams/{examID}/answers/clear
func ClearAnswerHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.StudentIDFromContext(r.Context())
		var req answerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuestionID == 0 {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if !d.Sessions.ClearAnswer(studentID, examID(r), req.QuestionID) {
			writeError(w, exam.ErrSessionExpired)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// POST /exams/{examID}/review
func ToggleReviewHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.StudentIDFromContext(r.Context())
		var req answerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuestionID == 0 {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if !d.Sessions.ToggleReview(studentID, examID(r), req.QuestionID) {
			writeError(w, exam.ErrSessionExpired)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// POST /exams/{examID}/submit
func SubmitHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		studentID := auth.StudentIDFromContext(ctx)
		e, err := d.Repo.GetExam(ctx, examID(r))
		if err != nil {
			writeError(w, err)
			return
		}
		outcome, err := d.Coordinator.Submit(ctx, studentID, e)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":   true,
			"result_id": outcome.ResultID,
		})
	}
}

// decodeValue accepts a bare string ("B", "4.2") or an array of option
// letters (["A","C"]) as an answer value. Anything else is rejected: a
// malformed value must not read as "blank" and silently clear a
// recorded answer.
func decodeValue(raw json.RawMessage) (grading.Response, error) {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return grading.Response{Single: s}, nil
	}
	var arr []string
	if json.Unmarshal(raw, &arr) == nil {
		return grading.Response{Multi: arr}, nil
	}
	return grading.Response{}, errors.New("answer value must be a string or an array of strings")
}
