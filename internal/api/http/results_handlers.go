package http

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/examstack/examportal/internal/auth"
	"github.com/examstack/examportal/internal/exam"
)

// GET /results — the caller's history, newest first.
func ResultsHistoryHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.StudentIDFromContext(r.Context())
		results, err := d.Repo.ResultsForStudent(r.Context(), studentID)
		if err != nil {
			writeError(w, err)
			return
		}
		sort.Slice(results, func(i, j int) bool {
			return results[i].CompletedAt.After(results[j].CompletedAt)
		})
		writeJSON(w, http.StatusOK, results)
	}
}

// GET /results/{resultID}
func GetResultHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := ownResult(d, r)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// GET /results/{resultID}/responses — per-question review, answers
// decoded back from their stored form.
func ResultResponsesHandler(d Deps) http.HandlerFunc {
	type item struct {
		QuestionID    int      `json:"question_id"`
		QuestionText  string   `json:"question_text"`
		OptionA       string   `json:"option_a"`
		OptionB       string   `json:"option_b"`
		OptionC       string   `json:"option_c"`
		OptionD       string   `json:"option_d"`
		QuestionType  string   `json:"question_type"`
		GivenSingle   string   `json:"given_answer,omitempty"`
		GivenMulti    []string `json:"given_answers,omitempty"`
		CorrectAnswer string   `json:"correct_answer"`
		IsCorrect     bool     `json:"is_correct"`
		IsAttempted   bool     `json:"is_attempted"`
		MarksObtained float64  `json:"marks_obtained"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := ownResult(d, r)
		if err != nil {
			writeError(w, err)
			return
		}
		responses, err := d.Repo.ResponsesForResult(r.Context(), res.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		questions, err := d.Repo.Questions(r.Context(), res.ExamID)
		if err != nil {
			writeError(w, err)
			return
		}
		byID := make(map[int]exam.Question, len(questions))
		for _, q := range questions {
			byID[q.ID] = q
		}

		out := make([]item, 0, len(responses))
		for _, rr := range responses {
			q := byID[rr.QuestionID]
			given := exam.DecodeAnswer(rr.QuestionType, rr.GivenAnswer)
			out = append(out, item{
				QuestionID:    rr.QuestionID,
				QuestionText:  q.Text,
				OptionA:       q.OptionA,
				OptionB:       q.OptionB,
				OptionC:       q.OptionC,
				OptionD:       q.OptionD,
				QuestionType:  rr.QuestionType,
				GivenSingle:   given.Single,
				GivenMulti:    given.Multi,
				CorrectAnswer: rr.CorrectAnswer,
				IsCorrect:     rr.IsCorrect,
				IsAttempted:   rr.IsAttempted,
				MarksObtained: rr.MarksObtained,
			})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"result":    res,
			"responses": out,
		})
	}
}

func ownResult(d Deps, r *http.Request) (exam.Result, error) {
	id, _ := strconv.Atoi(chi.URLParam(r, "resultID"))
	res, err := d.Repo.GetResult(r.Context(), id)
	if err != nil {
		return exam.Result{}, err
	}
	if res.StudentID != auth.StudentIDFromContext(r.Context()) {
		return exam.Result{}, exam.ErrNotFound
	}
	return res, nil
}
