package school

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/auth"
	"github.com/trezcool/mahudhurio/core/user"
)

var (
	// errors
	ErrModuleNotFound  = core.NewNotFoundError("module")
	ErrSessionNotFound = core.NewNotFoundError("session")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateModule(ctx context.Context, mod Module) (Module, error)
		GetModuleByID(ctx context.Context, id string) (Module, error)
		CreateSession(ctx context.Context, s Session) (Session, error)
		GetSessionByID(ctx context.Context, id string) (Session, error)
		QuerySessionsByTeacher(ctx context.Context, teacherID string) ([]Session, error)
	}

	Service struct {
		repo     Repository
		userRepo user.Repository
	}

	NewSession struct {
		ModuleID      string `json:"module_id" validate:"required"`
		TeacherID     string `json:"teacher_id" validate:"required"`
		Room          string `json:"room" validate:"required"`
		Weekday       string `json:"weekday" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
		StartTime     string `json:"start_time" validate:"required"`
		EndTime       string `json:"end_time" validate:"required"`
		EffectiveDate string `json:"effective_date" validate:"omitempty,dateonly"`
	}
)

func (ns *NewSession) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.TranslateValidationErrors(validate.Struct(ns), translator)
}

func NewService(repo Repository, userRepo user.Repository) *Service {
	return &Service{repo: repo, userRepo: userRepo}
}

// CreateSession registers a timetable slot on behalf of the administrative
// collaborator. The session inherits its cohort from the module.
func (svc *Service) CreateSession(ctx context.Context, ns NewSession) (Session, error) {
	mod, err := svc.repo.GetModuleByID(ctx, ns.ModuleID)
	if err != nil {
		return Session{}, err
	}
	teacher, err := svc.userRepo.GetUser(ctx, user.GetFilter{ID: ns.TeacherID})
	if err != nil {
		return Session{}, err
	}
	if !teacher.IsTeacher() {
		return Session{}, core.NewValidationError(nil, core.FieldError{Field: "teacher_id", Error: "not a teacher"})
	}

	s := Session{
		ModuleID:  mod.ID,
		TeacherID: teacher.ID,
		ClassID:   mod.ClassID,
		Room:      ns.Room,
		Weekday:   ns.Weekday,
		StartTime: ns.StartTime,
		EndTime:   ns.EndTime,
		CreatedAt: nowFunc().UTC(),
	}
	if ns.EffectiveDate != "" {
		date, err := core.ParseDate(ns.EffectiveDate)
		if err != nil {
			return Session{}, core.NewValidationError(err, core.FieldError{Field: "effective_date", Error: "invalid date"})
		}
		s.EffectiveDate = date
	}
	return svc.repo.CreateSession(ctx, s)
}

func (svc *Service) GetSession(ctx context.Context, id string) (Session, error) {
	return svc.repo.GetSessionByID(ctx, id)
}

func (svc *Service) GetModule(ctx context.Context, id string) (Module, error) {
	return svc.repo.GetModuleByID(ctx, id)
}

// SessionStudents lists the students of the session's cohort, for the manual
// attendance roster. Teachers only see their own sessions.
func (svc *Service) SessionStudents(ctx context.Context, teacher user.User, sessionID string) ([]user.User, error) {
	s, err := svc.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireSessionOwner(teacher, s); err != nil {
		return nil, err
	}

	students, err := svc.userRepo.QueryUsersByRole(ctx, user.RoleStudent)
	if err != nil {
		return nil, err
	}
	roster := make([]user.User, 0, len(students))
	for _, st := range students {
		if st.ClassID == s.ClassID {
			roster = append(roster, st)
		}
	}
	return roster, nil
}
