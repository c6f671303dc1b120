package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core/justification"
)

type justificationRow struct {
	ID            string      `db:"id"`
	AttendanceID  string      `db:"attendance_id"`
	FilePath      string      `db:"file_path"`
	Status        string      `db:"status"`
	ReviewComment null.String `db:"review_comment"`
	ReviewedAt    null.Time   `db:"reviewed_at"`
	CreatedAt     null.Time   `db:"created_at"`
	UpdatedAt     null.Time   `db:"updated_at"`
}

type justificationRepository struct {
	db *sqlx.DB
}

var _ justification.Repository = (*justificationRepository)(nil) // interface compliance check

func NewJustificationRepository(db *sqlx.DB) *justificationRepository {
	return &justificationRepository{db: db}
}

func (repo justificationRepository) unrow(r justificationRow) justification.Justification {
	return justification.Justification{
		ID:            r.ID,
		AttendanceID:  r.AttendanceID,
		FilePath:      r.FilePath,
		Status:        r.Status,
		ReviewComment: r.ReviewComment.String,
		ReviewedAt:    r.ReviewedAt.Time,
		CreatedAt:     r.CreatedAt.Time,
		UpdatedAt:     r.UpdatedAt.Time,
	}
}

func (repo justificationRepository) CreateJustification(ctx context.Context, j justification.Justification) (justification.Justification, error) {
	j.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO justification (id, attendance_id, file_path, status, review_comment, reviewed_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		j.ID, j.AttendanceID, j.FilePath, j.Status,
		null.NewString(j.ReviewComment, j.ReviewComment != ""),
		null.NewTime(j.ReviewedAt, !j.ReviewedAt.IsZero()),
		j.CreatedAt.UTC(), j.UpdatedAt.UTC(),
	)
	if err != nil {
		return justification.Justification{}, errors.Wrap(err, "inserting justification")
	}
	return j, nil
}

func (repo justificationRepository) GetJustificationByID(ctx context.Context, id string) (justification.Justification, error) {
	if _, err := uuid.Parse(id); err != nil {
		return justification.Justification{}, justification.ErrNotFound
	}
	var r justificationRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM justification WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return justification.Justification{}, justification.ErrNotFound
		}
		return justification.Justification{}, errors.Wrap(err, "finding justification")
	}
	return repo.unrow(r), nil
}

func (repo justificationRepository) GetJustificationByAttendanceID(ctx context.Context, attendanceID string) (justification.Justification, error) {
	var r justificationRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM justification WHERE attendance_id = $1`, attendanceID); err != nil {
		if err == sql.ErrNoRows {
			return justification.Justification{}, justification.ErrNotFound
		}
		return justification.Justification{}, errors.Wrap(err, "finding justification by attendance")
	}
	return repo.unrow(r), nil
}

func (repo justificationRepository) UpdateJustification(ctx context.Context, j justification.Justification) (justification.Justification, error) {
	_, err := repo.db.ExecContext(ctx,
		`UPDATE justification
		 SET file_path = $2, status = $3, review_comment = $4, reviewed_at = $5, updated_at = $6
		 WHERE id = $1`,
		j.ID, j.FilePath, j.Status,
		null.NewString(j.ReviewComment, j.ReviewComment != ""),
		null.NewTime(j.ReviewedAt, !j.ReviewedAt.IsZero()),
		j.UpdatedAt.UTC(),
	)
	if err != nil {
		return justification.Justification{}, errors.Wrap(err, "updating justification")
	}
	return j, nil
}

func (repo justificationRepository) QueryJustificationsByTeacher(ctx context.Context, teacherID, status string) ([]justification.Justification, error) {
	query := `SELECT j.* FROM justification j
		JOIN attendance a ON a.id = j.attendance_id
		JOIN session s ON s.id = a.session_id
		WHERE s.teacher_id = $1`
	args := []interface{}{teacherID}
	if status != "" {
		query += ` AND j.status = $2`
		args = append(args, status)
	}
	// pending first, then most recent
	query += ` ORDER BY CASE j.status WHEN 'pending' THEN 0 WHEN 'accepted' THEN 1 ELSE 2 END, j.updated_at DESC`

	var rows []justificationRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying justifications")
	}

	js := make([]justification.Justification, 0, len(rows))
	for _, r := range rows {
		js = append(js, repo.unrow(r))
	}
	return js, nil
}
