package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core/school"
)

type (
	moduleRow struct {
		ID      string `db:"id"`
		Name    string `db:"name"`
		Code    string `db:"code"`
		ClassID string `db:"class_id"`
	}

	sessionRow struct {
		ID            string      `db:"id"`
		ModuleID      string      `db:"module_id"`
		TeacherID     string      `db:"teacher_id"`
		ClassID       string      `db:"class_id"`
		Room          null.String `db:"room"`
		Weekday       null.String `db:"weekday"`
		StartTime     null.String `db:"start_time"`
		EndTime       null.String `db:"end_time"`
		EffectiveDate null.Time   `db:"effective_date"`
		CreatedAt     null.Time   `db:"created_at"`
	}
)

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (repo schoolRepository) unrowSession(r sessionRow) school.Session {
	return school.Session{
		ID:            r.ID,
		ModuleID:      r.ModuleID,
		TeacherID:     r.TeacherID,
		ClassID:       r.ClassID,
		Room:          r.Room.String,
		Weekday:       r.Weekday.String,
		StartTime:     r.StartTime.String,
		EndTime:       r.EndTime.String,
		EffectiveDate: r.EffectiveDate.Time,
		CreatedAt:     r.CreatedAt.Time,
	}
}

func (repo schoolRepository) CreateModule(ctx context.Context, mod school.Module) (school.Module, error) {
	mod.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO module (id, name, code, class_id) VALUES ($1, $2, $3, $4)`,
		mod.ID, mod.Name, mod.Code, mod.ClassID,
	)
	if err != nil {
		return school.Module{}, errors.Wrap(err, "inserting module")
	}
	return mod, nil
}

func (repo schoolRepository) GetModuleByID(ctx context.Context, id string) (school.Module, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.Module{}, school.ErrModuleNotFound
	}
	var r moduleRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM module WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return school.Module{}, school.ErrModuleNotFound
		}
		return school.Module{}, errors.Wrap(err, "finding module")
	}
	return school.Module(r), nil
}

func (repo schoolRepository) CreateSession(ctx context.Context, s school.Session) (school.Session, error) {
	s.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO session (id, module_id, teacher_id, class_id, room, weekday, start_time, end_time, effective_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.ModuleID, s.TeacherID, s.ClassID, s.Room, s.Weekday, s.StartTime, s.EndTime,
		null.NewTime(s.EffectiveDate, !s.EffectiveDate.IsZero()), s.CreatedAt.UTC(),
	)
	if err != nil {
		return school.Session{}, errors.Wrap(err, "inserting session")
	}
	return s, nil
}

func (repo schoolRepository) GetSessionByID(ctx context.Context, id string) (school.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.Session{}, school.ErrSessionNotFound
	}
	var r sessionRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM session WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return school.Session{}, school.ErrSessionNotFound
		}
		return school.Session{}, errors.Wrap(err, "finding session")
	}
	return repo.unrowSession(r), nil
}

func (repo schoolRepository) QuerySessionsByTeacher(ctx context.Context, teacherID string) ([]school.Session, error) {
	var rows []sessionRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM session WHERE teacher_id = $1 ORDER BY created_at`,
		teacherID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}

	sessions := make([]school.Session, 0, len(rows))
	for _, r := range rows {
		sessions = append(sessions, repo.unrowSession(r))
	}
	return sessions, nil
}
