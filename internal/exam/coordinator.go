package exam

import (
	"context"
	"math"
	"time"

	"github.com/examstack/examportal/internal/grading"
)

// SubmissionQuestion is the minimal view of a snapshot question the
// coordinator needs: the immutable record plus its pre-parsed key.
type SubmissionQuestion struct {
	Question
	Key grading.Key
}

// SubmissionSnapshot is what the session cache hands over at submit
// time.
type SubmissionSnapshot struct {
	AttemptID int
	StartTime time.Time
	Questions []SubmissionQuestion
	Answers   map[int]grading.Response
}

// SnapshotSource is implemented by the session cache.
type SnapshotSource interface {
	Submission(studentID, examID int) (SubmissionSnapshot, bool)
	Evict(studentID, examID int)
}

// Coordinator drives a submission end to end: snapshot + attempt in,
// one result row and N response rows out, attempt completed, snapshot
// gone. Persistence is best-effort atomic (see CommitSubmission); the
// partial state is a named, reported condition.
type Coordinator struct {
	repo      *Repo
	ledger    *Ledger
	snapshots SnapshotSource
	eval      *grading.Evaluator
	now       func() time.Time
}

func NewCoordinator(repo *Repo, ledger *Ledger, snapshots SnapshotSource) *Coordinator {
	return &Coordinator{
		repo:      repo,
		ledger:    ledger,
		snapshots: snapshots,
		eval:      grading.NewEvaluator(),
		now:       time.Now,
	}
}

type SubmitOutcome struct {
	ResultID int
	Result   Result
}

// Submit scores and persists the student's current attempt. Both the
// snapshot and an in_progress attempt must exist; submit never
// fabricates an attempt. On ErrPartialSubmission the attempt stays
// in_progress so a retry reuses it instead of double-counting.
func (c *Coordinator) Submit(ctx context.Context, studentID int, ex Exam) (SubmitOutcome, error) {
	snap, ok := c.snapshots.Submission(studentID, ex.ID)
	if !ok {
		return SubmitOutcome{}, ErrSessionExpired
	}
	attempt, ok, err := c.ledger.ActiveAttempt(ctx, studentID, ex.ID)
	if err != nil {
		return SubmitOutcome{}, err
	}
	if !ok || attempt.ID != snap.AttemptID {
		return SubmitOutcome{}, ErrSessionExpired
	}

	result, responses := c.score(studentID, ex, snap, attempt)

	// The commit re-checks the attempt under the table locks: of two
	// racing submits only the first to commit writes anything. On
	// partial or full failure the attempt stays in_progress and the
	// snapshot stays so the retry sees the same answers.
	saved, err := c.repo.CommitSubmission(ctx, attempt.ID, result, responses)
	if err != nil {
		return SubmitOutcome{}, err
	}
	c.snapshots.Evict(studentID, ex.ID)
	return SubmitOutcome{ResultID: saved.ID, Result: saved}, nil
}

func (c *Coordinator) score(studentID int, ex Exam, snap SubmissionSnapshot, attempt Attempt) (Result, []ResponseRecord) {
	var (
		score     float64
		maxScore  float64
		correct   int
		incorrect int
		unasked   int
	)
	responses := make([]ResponseRecord, 0, len(snap.Questions))

	for _, q := range snap.Questions {
		positive, negative := q.EffectiveMarks(ex)
		maxScore += positive

		given := snap.Answers[q.ID]
		attempted := given.Attempted(q.Type)

		isCorrect := false
		marks := 0.0
		if attempted {
			isCorrect = c.eval.Correct(q.Type, given, q.Key, q.Tolerance)
			marks = grading.Score(isCorrect, positive, negative)
			if isCorrect {
				correct++
			} else {
				incorrect++
			}
		} else {
			unasked++
		}
		score += marks

		responses = append(responses, ResponseRecord{
			ExamID:        ex.ID,
			QuestionID:    q.ID,
			GivenAnswer:   EncodeAnswer(q.Type, given),
			CorrectAnswer: EncodeKey(q.Type, q.Key),
			IsCorrect:     isCorrect,
			MarksObtained: marks,
			QuestionType:  q.Type,
			IsAttempted:   attempted,
		})
	}

	percentage := 0.0
	if maxScore > 0 {
		percentage = math.Round(score/maxScore*100*100) / 100
	}

	// Truncated to the precision the tables persist, so the in-memory
	// result matches its stored round-trip.
	completedAt := c.now().Truncate(time.Second)

	result := Result{
		StudentID:           studentID,
		ExamID:              ex.ID,
		Score:               score,
		TotalQuestions:      len(snap.Questions),
		CorrectAnswers:      correct,
		IncorrectAnswers:    incorrect,
		UnansweredQuestions: unasked,
		MaxScore:            maxScore,
		Percentage:          percentage,
		Grade:               grading.Grade(percentage),
		CompletedAt:         completedAt,
	}
	if !attempt.StartTime.IsZero() {
		minutes := completedAt.Sub(attempt.StartTime).Minutes()
		result.TimeTakenMinutes = math.Round(minutes*100) / 100
		result.TimeTakenKnown = true
	}
	return result, responses
}

// SubmitOnTimeout closes out a timed-out attempt. Answers collected in
// the snapshot are scored; only when the snapshot is already gone does
// this degrade to a lifecycle-only completion.
func (c *Coordinator) SubmitOnTimeout(ctx context.Context, studentID int, ex Exam, attemptID int) (SubmitOutcome, error) {
	if _, ok := c.snapshots.Submission(studentID, ex.ID); ok {
		return c.Submit(ctx, studentID, ex)
	}
	_, err := c.ledger.Transition(ctx, attemptID, AttemptCompleted)
	return SubmitOutcome{}, err
}
