// Package tablestore provides the portal's "table" capability: named,
// schema-loose collections of uniform rows fetched and rewritten wholesale.
// A Store composes a backend (CSV-over-blob or SQL) with a TTL read cache,
// a uniform retry policy and a per-table lock registry so that concurrent
// read-modify-write cycles on the same table never interleave.
package tablestore

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
)

// Row is one record of a table. Column order is part of each table's
// contract; row 0 of every table is its header.
type Row = []string

// Well-known table names.
const (
	TableUsers     = "users"
	TableExams     = "exams"
	TableQuestions = "questions"
	TableAttempts  = "attempts"
	TableResults   = "results"
	TableResponses = "responses"
)

// ErrUnavailable reports that a table could not be loaded or saved after
// the retry budget was exhausted.
var ErrUnavailable = errors.New("table store unavailable")

// Backend is a raw table backend with no caching or locking.
type Backend interface {
	Load(ctx context.Context, table string) ([]Row, error)
	Save(ctx context.Context, table string, rows []Row) error
}

// Store is the capability handed to the rest of the portal.
type Store struct {
	backend Backend
	cache   *TTLCache
	retry   Policy
	locks   *LockRegistry
}

func New(backend Backend, cache *TTLCache, retry Policy) *Store {
	return &Store{
		backend: backend,
		cache:   cache,
		retry:   retry,
		locks:   NewLockRegistry(),
	}
}

// Load returns the table through the TTL cache. Cached copies may be
// staler than the locked source; mutators must use LoadFresh.
func (s *Store) Load(ctx context.Context, table string) ([]Row, error) {
	v, err := s.cache.Get(table, func() (interface{}, error) {
		return s.loadRetry(ctx, table)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Row), nil
}

// LoadFresh bypasses the cache (still retried). Callers holding the
// table lock use this for read-modify-write.
func (s *Store) LoadFresh(ctx context.Context, table string) ([]Row, error) {
	rows, err := s.loadRetry(ctx, table)
	if err != nil {
		return nil, err
	}
	s.cache.Put(table, rows)
	return rows, nil
}

// Save rewrites the table wholesale and invalidates its cached copy.
func (s *Store) Save(ctx context.Context, table string, rows []Row) error {
	op := "op_" + uuid.NewString()[:8]
	err := s.retry.Do(ctx, func() error {
		return s.backend.Save(ctx, table, rows)
	})
	if err != nil {
		log.Printf("[%s] save %s failed after retries: %v", op, table, err)
		return errors.Join(ErrUnavailable, err)
	}
	s.cache.Invalidate(table)
	log.Printf("[%s] saved %s (%d rows)", op, table, len(rows))
	return nil
}

// LockTables acquires the named table locks in the registry's fixed
// global order and returns a release func. Holding the locks for the
// whole read-modify-write keeps concurrent submissions from
// interleaving loads and saves of the same table.
func (s *Store) LockTables(tables ...string) func() {
	return s.locks.Acquire(tables...)
}

func (s *Store) loadRetry(ctx context.Context, table string) ([]Row, error) {
	var rows []Row
	err := s.retry.Do(ctx, func() error {
		var err error
		rows, err = s.backend.Load(ctx, table)
		return err
	})
	if err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	return rows, nil
}
