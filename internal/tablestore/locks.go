package tablestore

import (
	"sort"
	"sync"
)

// lockOrder fixes the global acquisition order for multi-table
// operations (results before responses) so two coordinators can never
// deadlock on each other. Unknown tables sort after the known ones,
// alphabetically.
var lockOrder = map[string]int{
	TableUsers:     0,
	TableExams:     1,
	TableQuestions: 2,
	TableAttempts:  3,
	TableResults:   4,
	TableResponses: 5,
}

// LockRegistry hands out one mutex per table name.
type LockRegistry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLockRegistry() *LockRegistry {
	return &LockRegistry{locks: map[string]*sync.Mutex{}}
}

func (r *LockRegistry) get(table string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[table]
	if !ok {
		l = &sync.Mutex{}
		r.locks[table] = l
	}
	return l
}

// Acquire locks the named tables in the fixed global order and returns
// a func that releases them in reverse.
func (r *LockRegistry) Acquire(tables ...string) func() {
	names := append([]string(nil), tables...)
	sort.Slice(names, func(i, j int) bool {
		oi, iok := lockOrder[names[i]]
		oj, jok := lockOrder[names[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok:
			return true
		case jok:
			return false
		default:
			return names[i] < names[j]
		}
	})
	held := make([]*sync.Mutex, 0, len(names))
	for _, n := range names {
		l := r.get(n)
		l.Lock()
		held = append(held, l)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
