package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core/attendance"
)

type attendanceRow struct {
	ID         string       `db:"id"`
	StudentID  string       `db:"student_id"`
	ModuleID   string       `db:"module_id"`
	SessionID  null.String  `db:"session_id"`
	Date       sql.NullTime `db:"date"`
	Status     string       `db:"status"`
	Method     string       `db:"method"`
	Confidence null.Float64 `db:"confidence"`
	MarkedAt   sql.NullTime `db:"marked_at"`
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo attendanceRepository) unrow(r attendanceRow) attendance.Record {
	rec := attendance.Record{
		ID:        r.ID,
		StudentID: r.StudentID,
		ModuleID:  r.ModuleID,
		SessionID: r.SessionID.String,
		Date:      r.Date.Time,
		Status:    r.Status,
		Method:    r.Method,
		MarkedAt:  r.MarkedAt.Time,
	}
	if r.Confidence.Valid {
		c := r.Confidence.Float64
		rec.Confidence = &c
	}
	return rec
}

// UpsertRecord is the single conditional-write primitive behind the
// one-fact-per-(student, module, date) invariant. The unique constraint plus
// ON CONFLICT upsert serializes concurrent writers on the same key; a racing
// insert never surfaces as a duplicate-key error.
func (repo attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	var r attendanceRow
	err := repo.db.QueryRowxContext(ctx,
		`INSERT INTO attendance (id, student_id, module_id, session_id, date, status, method, confidence, marked_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT ON CONSTRAINT attendance_student_module_date_key
		 DO UPDATE SET
			session_id = EXCLUDED.session_id,
			status     = EXCLUDED.status,
			method     = EXCLUDED.method,
			confidence = EXCLUDED.confidence,
			marked_at  = EXCLUDED.marked_at
		 RETURNING *`,
		uuid.New().String(), rec.StudentID, rec.ModuleID,
		null.NewString(rec.SessionID, rec.SessionID != ""),
		rec.Date, rec.Status, rec.Method,
		null.Float64FromPtr(rec.Confidence), rec.MarkedAt.UTC(),
	).StructScan(&r)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "upserting attendance record")
	}
	return repo.unrow(r), nil
}

func (repo attendanceRepository) GetRecordByID(ctx context.Context, id string) (attendance.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return attendance.Record{}, attendance.ErrNotFound
	}
	var r attendanceRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM attendance WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "finding attendance record")
	}
	return repo.unrow(r), nil
}

func (repo attendanceRepository) QueryRecordsByStudent(ctx context.Context, studentID string) ([]attendance.Record, error) {
	var rows []attendanceRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM attendance WHERE student_id = $1 ORDER BY date DESC, marked_at DESC`,
		studentID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}

	recs := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, repo.unrow(r))
	}
	return recs, nil
}

func (repo attendanceRepository) GetRecordStats(ctx context.Context, studentID string) (attendance.Stats, error) {
	var stats attendance.Stats
	err := repo.db.GetContext(ctx, &stats,
		`SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'present') AS present,
			COUNT(*) FILTER (WHERE status = 'absent') AS absent
		 FROM attendance WHERE student_id = $1`,
		studentID,
	)
	if err != nil {
		return attendance.Stats{}, errors.Wrap(err, "computing attendance stats")
	}
	return stats, nil
}
