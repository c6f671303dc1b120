package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core/justification"
)

type justificationRepository struct {
	db *DB
}

var _ justification.Repository = (*justificationRepository)(nil) // interface compliance check

func NewJustificationRepository(db *DB) *justificationRepository {
	return &justificationRepository{db: db}
}

func (repo *justificationRepository) CreateJustification(_ context.Context, j justification.Justification) (justification.Justification, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	j.ID = uuid.New().String()
	repo.db.justifications[j.ID] = &j
	return j, nil
}

func (repo *justificationRepository) GetJustificationByID(_ context.Context, id string) (justification.Justification, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if j, ok := repo.db.justifications[id]; ok {
		return *j, nil
	}
	return justification.Justification{}, justification.ErrNotFound
}

func (repo *justificationRepository) GetJustificationByAttendanceID(_ context.Context, attendanceID string) (justification.Justification, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, j := range repo.db.justifications {
		if j.AttendanceID == attendanceID {
			return *j, nil
		}
	}
	return justification.Justification{}, justification.ErrNotFound
}

func (repo *justificationRepository) UpdateJustification(_ context.Context, j justification.Justification) (justification.Justification, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.justifications[j.ID]; !ok {
		return justification.Justification{}, justification.ErrNotFound
	}
	repo.db.justifications[j.ID] = &j
	return j, nil
}

func (repo *justificationRepository) QueryJustificationsByTeacher(_ context.Context, teacherID, status string) ([]justification.Justification, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var js []justification.Justification
	for _, j := range repo.db.justifications {
		if status != "" && j.Status != status {
			continue
		}
		rec, ok := repo.db.attendance[j.AttendanceID]
		if !ok || rec.SessionID == "" {
			continue
		}
		sess, ok := repo.db.sessions[rec.SessionID]
		if !ok || sess.TeacherID != teacherID {
			continue
		}
		js = append(js, *j)
	}
	// pending first, then most recent
	sort.Slice(js, func(i, k int) bool {
		if (js[i].Status == justification.StatusPending) != (js[k].Status == justification.StatusPending) {
			return js[i].Status == justification.StatusPending
		}
		return js[i].CreatedAt.After(js[k].CreatedAt)
	})
	return js, nil
}
