// Package inmemdb provides mutex-guarded in-memory implementations of the
// core repositories. They mirror the SQL layer's semantics (including the
// atomic attendance upsert) and back the test suites; no Postgres required.
package inmemdb

import (
	"sync"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/justification"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/user"
)

type DB struct {
	mu sync.RWMutex

	users          map[string]*user.User
	modules        map[string]*school.Module
	sessions       map[string]*school.Session
	attendance     map[string]*attendance.Record          // by ID
	attendanceKeys map[string]string                      // (student|module|date) -> ID
	justifications map[string]*justification.Justification // by ID
}

func NewDB() *DB {
	return &DB{
		users:          make(map[string]*user.User),
		modules:        make(map[string]*school.Module),
		sessions:       make(map[string]*school.Session),
		attendance:     make(map[string]*attendance.Record),
		attendanceKeys: make(map[string]string),
		justifications: make(map[string]*justification.Justification),
	}
}
