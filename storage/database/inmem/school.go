package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateModule(_ context.Context, mod school.Module) (school.Module, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	mod.ID = uuid.New().String()
	repo.db.modules[mod.ID] = &mod
	return mod, nil
}

func (repo *schoolRepository) GetModuleByID(_ context.Context, id string) (school.Module, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if mod, ok := repo.db.modules[id]; ok {
		return *mod, nil
	}
	return school.Module{}, school.ErrModuleNotFound
}

func (repo *schoolRepository) CreateSession(_ context.Context, s school.Session) (school.Session, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	s.ID = uuid.New().String()
	repo.db.sessions[s.ID] = &s
	return s, nil
}

func (repo *schoolRepository) GetSessionByID(_ context.Context, id string) (school.Session, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if s, ok := repo.db.sessions[id]; ok {
		return *s, nil
	}
	return school.Session{}, school.ErrSessionNotFound
}

func (repo *schoolRepository) QuerySessionsByTeacher(_ context.Context, teacherID string) ([]school.Session, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var sessions []school.Session
	for _, s := range repo.db.sessions {
		if s.TeacherID == teacherID {
			sessions = append(sessions, *s)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.Before(sessions[j].CreatedAt) })
	return sessions, nil
}
