package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/examstack/examportal/internal/exam"
	"github.com/examstack/examportal/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Next  string `json:"next"`
}

// writeError maps the failure taxonomy to status codes and a next
// action. Internal detail stays out of responses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, exam.ErrExamNotFound), errors.Is(err, exam.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{
			Error: "not found",
			Next:  "check the link or contact the administrator",
		})
	case errors.Is(err, exam.ErrNoQuestions):
		writeJSON(w, http.StatusConflict, errorBody{
			Error: "this exam has no questions",
			Next:  "contact the administrator",
		})
	case errors.Is(err, exam.ErrAttemptsExhausted):
		writeJSON(w, http.StatusForbidden, errorBody{
			Error: "maximum attempts reached",
			Next:  "no further attempts are allowed for this exam",
		})
	case errors.Is(err, exam.ErrSessionExpired):
		writeJSON(w, http.StatusConflict, errorBody{
			Error: "exam session expired",
			Next:  "reopen the exam from its instructions page to resume",
		})
	case errors.Is(err, exam.ErrPartialSubmission):
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error: "your score was recorded but answer details failed to save",
			Next:  "submit again; if this repeats, contact support",
		})
	case errors.Is(err, session.ErrTooManyQuestions):
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error: "exam is too large to load",
			Next:  "contact the administrator",
		})
	case errors.Is(err, exam.ErrDataUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{
			Error: "exam data is temporarily unavailable",
			Next:  "try again in a moment",
		})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error: "internal error",
			Next:  "try again; if this repeats, contact support",
		})
	}
}
