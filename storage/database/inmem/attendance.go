package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func attendanceKey(rec attendance.Record) string {
	return rec.StudentID + "|" + rec.ModuleID + "|" + rec.Date.Format(core.DateFormat)
}

// UpsertRecord matches the SQL layer's conditional write: the whole
// lookup-then-write runs under one lock so concurrent markers on the same
// (student, module, date) key can never produce two rows.
func (repo *attendanceRepository) UpsertRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	key := attendanceKey(rec)
	if id, ok := repo.db.attendanceKeys[key]; ok {
		existing := repo.db.attendance[id]
		existing.SessionID = rec.SessionID
		existing.Status = rec.Status
		existing.Method = rec.Method
		existing.Confidence = rec.Confidence
		existing.MarkedAt = rec.MarkedAt
		return *existing, nil
	}

	rec.ID = uuid.New().String()
	repo.db.attendance[rec.ID] = &rec
	repo.db.attendanceKeys[key] = rec.ID
	return rec, nil
}

func (repo *attendanceRepository) GetRecordByID(_ context.Context, id string) (attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if rec, ok := repo.db.attendance[id]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) QueryRecordsByStudent(_ context.Context, studentID string) ([]attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var recs []attendance.Record
	for _, rec := range repo.db.attendance {
		if rec.StudentID == studentID {
			recs = append(recs, *rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date.After(recs[j].Date) })
	return recs, nil
}

func (repo *attendanceRepository) GetRecordStats(_ context.Context, studentID string) (attendance.Stats, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var stats attendance.Stats
	for _, rec := range repo.db.attendance {
		if rec.StudentID != studentID {
			continue
		}
		stats.Total++
		switch rec.Status {
		case attendance.StatusPresent:
			stats.Present++
		case attendance.StatusAbsent:
			stats.Absent++
		}
	}
	return stats, nil
}
