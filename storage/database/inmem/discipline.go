package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/discipline"
	"github.com/trezcool/mahudhurio/core/justification"
	"github.com/trezcool/mahudhurio/core/user"
)

type disciplineRepository struct {
	db *DB
}

var _ discipline.Repository = (*disciplineRepository)(nil) // interface compliance check

func NewDisciplineRepository(db *DB) *disciplineRepository {
	return &disciplineRepository{db: db}
}

// QueryCandidates counts, per student, the absences with no justification or
// with a justification that was not accepted, and keeps counts strictly above
// the threshold.
func (repo *disciplineRepository) QueryCandidates(_ context.Context, threshold int) ([]discipline.Candidate, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	accepted := make(map[string]bool) // attendance ID -> accepted justification
	for _, j := range repo.db.justifications {
		if j.Status == justification.StatusAccepted {
			accepted[j.AttendanceID] = true
		}
	}

	counts := make(map[string]int)
	for _, rec := range repo.db.attendance {
		if rec.Status != attendance.StatusAbsent || accepted[rec.ID] {
			continue
		}
		counts[rec.StudentID]++
	}

	var candidates []discipline.Candidate
	for studentID, count := range counts {
		if count <= threshold {
			continue
		}
		usr, ok := repo.db.users[studentID]
		if !ok || !usr.RoleStartsWith(user.RoleStudent) {
			continue
		}
		candidates = append(candidates, discipline.Candidate{
			StudentID: studentID,
			Name:      usr.Name,
			Email:     usr.Email,
			Count:     count,
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Count != candidates[j].Count {
			return candidates[i].Count > candidates[j].Count
		}
		return candidates[i].StudentID < candidates[j].StudentID
	})
	return candidates, nil
}
