package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/discipline"
	"github.com/trezcool/mahudhurio/core/user"
)

type disciplineRepository struct {
	db *sqlx.DB
}

var _ discipline.Repository = (*disciplineRepository)(nil) // interface compliance check

func NewDisciplineRepository(db *sqlx.DB) *disciplineRepository {
	return &disciplineRepository{db: db}
}

// QueryCandidates counts, per student, the absences with no justification or
// with a justification that was not accepted, and keeps counts strictly above
// the threshold.
func (repo disciplineRepository) QueryCandidates(ctx context.Context, threshold int) ([]discipline.Candidate, error) {
	var rows []struct {
		StudentID string `db:"student_id"`
		Name      string `db:"name"`
		Email     string `db:"email"`
		Count     int    `db:"count"`
	}
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT u.id AS student_id, COALESCE(u.name, '') AS name, COALESCE(u.email, '') AS email, COUNT(a.id) AS count
		 FROM attendance a
		 JOIN "user" u ON u.id = a.student_id
		 LEFT JOIN justification j ON j.attendance_id = a.id
		 WHERE a.status = 'absent'
		   AND EXISTS (SELECT 1 FROM UNNEST(u.roles) role WHERE role ILIKE $1)
		   AND (j.id IS NULL OR j.status <> 'accepted')
		 GROUP BY u.id, u.name, u.email
		 HAVING COUNT(a.id) > $2
		 ORDER BY count DESC`,
		user.RoleStudent+"%", threshold,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying discipline candidates")
	}

	candidates := make([]discipline.Candidate, 0, len(rows))
	for _, r := range rows {
		candidates = append(candidates, discipline.Candidate(r))
	}
	return candidates, nil
}
