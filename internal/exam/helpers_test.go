package exam

import (
	"context"
	"errors"
	"time"

	"github.com/examstack/examportal/internal/tablestore"
)

// flakyBackend wraps the memory backend and fails saves to selected
// tables on demand.
type flakyBackend struct {
	*tablestore.MemBackend
	failSaves map[string]bool
}

func newFlakyBackend() *flakyBackend {
	return &flakyBackend{MemBackend: tablestore.NewMemBackend(), failSaves: map[string]bool{}}
}

func (f *flakyBackend) Save(ctx context.Context, table string, rows []tablestore.Row) error {
	if f.failSaves[table] {
		return errors.New("simulated store outage")
	}
	return f.MemBackend.Save(ctx, table, rows)
}

func newTestRepo(backend tablestore.Backend) *Repo {
	store := tablestore.New(backend,
		tablestore.NewTTLCache(time.Minute),
		tablestore.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond},
	)
	return NewRepo(store)
}

func seedExam(ctx context.Context, backend tablestore.Backend, e Exam) {
	_ = backend.Save(ctx, tablestore.TableExams, []tablestore.Row{
		examHeader,
		{itoa(e.ID), e.Name, e.Date, e.StartTime, itoa(e.DurationMinutes),
			itoa(e.TotalQuestions), e.Status, e.Instructions,
			ftoa(e.PositiveMarks), ftoa(e.NegativeMarks), itoa(e.MaxAttempts)},
	})
}

func seedQuestions(ctx context.Context, backend tablestore.Backend, qs []Question) {
	rows := []tablestore.Row{questionHeader}
	for _, q := range qs {
		pos, neg := "", ""
		if q.PositiveMarks != nil {
			pos = ftoa(*q.PositiveMarks)
		}
		if q.NegativeMarks != nil {
			neg = ftoa(*q.NegativeMarks)
		}
		rows = append(rows, tablestore.Row{
			itoa(q.ID), itoa(q.ExamID), q.Text, q.OptionA, q.OptionB,
			q.OptionC, q.OptionD, q.CorrectAnswer, q.Type, q.ImagePath,
			pos, neg, ftoa(q.Tolerance),
		})
	}
	_ = backend.Save(ctx, tablestore.TableQuestions, rows)
}

func fptr(v float64) *float64 { return &v }

// fixedClock advances manually.
type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time          { return c.t }
func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fixedClock {
	return &fixedClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)}
}
