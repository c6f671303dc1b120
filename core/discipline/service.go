package discipline

import (
	"context"
	"fmt"
	"net/mail"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/user"
)

// DefaultThreshold is the absence count above which a student becomes a
// discipline candidate.
const DefaultThreshold = 6

type (
	// Candidate is a student past the absence threshold. Derived on each
	// invocation, never persisted.
	Candidate struct {
		StudentID string `json:"student_id"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		Count     int    `json:"count"` // unresolved absences
	}

	// Repository computes the candidate aggregation in one read: per student,
	// the count of absent facts with no justification or with a justification
	// that was not accepted; only counts strictly above threshold, ordered by
	// count descending.
	Repository interface {
		QueryCandidates(ctx context.Context, threshold int) ([]Candidate, error)
	}

	// UserDirectory resolves the summoned student.
	UserDirectory interface {
		GetUser(ctx context.Context, filter user.GetFilter) (user.User, error)
	}

	// SummonInput is the administrative summon action payload.
	SummonInput struct {
		StudentID string `json:"student_id" validate:"required"`
		Count     int    `json:"count" validate:"required,min=7"`
	}

	// Service surfaces repeat offenders and dispatches formal summons.
	Service struct {
		repo    Repository
		users   UserDirectory
		mailSvc core.EmailService
	}
)

func (in *SummonInput) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.TranslateValidationErrors(validate.Struct(in), translator)
}

func NewService(repo Repository, users UserDirectory, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, users: users, mailSvc: mailSvc}
}

// ListCandidates is a pure read over attendance and justification history.
func (svc *Service) ListCandidates(ctx context.Context, threshold int) ([]Candidate, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	candidates, err := svc.repo.QueryCandidates(ctx, threshold)
	if err != nil {
		return nil, err
	}
	if candidates == nil {
		candidates = []Candidate{}
	}
	return candidates, nil
}

// Summon sends a formal summon notice to the student. Deliberately not
// idempotent: this is a manually triggered administrative action and repeated
// calls send repeated notices.
func (svc *Service) Summon(ctx context.Context, in SummonInput) error {
	student, err := svc.users.GetUser(ctx, user.GetFilter{ID: in.StudentID})
	if err != nil {
		return err
	}
	if !student.IsStudent() {
		return user.ErrNotFound
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject: "Disciplinary summon",
		BodyStr: fmt.Sprintf(
			"Hello %s,\n\nYou have accumulated %d unjustified absences and are summoned "+
				"to the disciplinary board. Please report to the administration office.",
			student.Name, in.Count,
		),
	})
	return nil
}
