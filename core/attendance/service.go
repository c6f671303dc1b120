package attendance

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/auth"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/user"
)

var ErrNotFound = core.NewNotFoundError("attendance record")

type (
	Repository interface {
		// UpsertRecord atomically inserts the record or, when a row for
		// (StudentID, ModuleID, Date) already exists, overwrites its session,
		// status, method and marked-at. Concurrent writers on the same key
		// are serialized by the storage engine; at most one row survives.
		UpsertRecord(ctx context.Context, rec Record) (Record, error)
		GetRecordByID(ctx context.Context, id string) (Record, error)
		QueryRecordsByStudent(ctx context.Context, studentID string) ([]Record, error)
		GetRecordStats(ctx context.Context, studentID string) (Stats, error)
	}

	// SchoolDirectory resolves the session and module collaborators.
	SchoolDirectory interface {
		GetSessionByID(ctx context.Context, id string) (school.Session, error)
		GetModuleByID(ctx context.Context, id string) (school.Module, error)
	}

	// UserDirectory resolves students for batch marking and notifications.
	UserDirectory interface {
		GetUser(ctx context.Context, filter user.GetFilter) (user.User, error)
	}

	// Service is the single source of truth for attendance facts.
	Service struct {
		repo    Repository
		school  SchoolDirectory
		users   UserDirectory
		tokens  *TokenService
		face    FaceVerifier
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, schoolDir SchoolDirectory, users UserDirectory, tokens *TokenService, face FaceVerifier, mailSvc core.EmailService) *Service {
	if face == nil {
		face = NewPlaceholderFaceVerifier()
	}
	return &Service{
		repo:    repo,
		school:  schoolDir,
		users:   users,
		tokens:  tokens,
		face:    face,
		mailSvc: mailSvc,
	}
}

// IssueToken issues a display token for a session the teacher owns.
func (svc *Service) IssueToken(ctx context.Context, teacher user.User, req TokenRequest) (token string, expiresIn int, mod school.Module, err error) {
	s, err := svc.school.GetSessionByID(ctx, req.SessionID)
	if err != nil {
		return "", 0, school.Module{}, err
	}
	if err = auth.RequireSessionOwner(teacher, s); err != nil {
		return "", 0, school.Module{}, err
	}
	mod, err = svc.school.GetModuleByID(ctx, s.ModuleID)
	if err != nil {
		return "", 0, school.Module{}, err
	}
	return svc.tokens.Issue(s.ID, req.Date), svc.tokens.ExpiresIn(), mod, nil
}

// MarkQR records presence for the scanning student. Scanning means present;
// re-scanning the same token is an idempotent overwrite of the same fact.
func (svc *Service) MarkQR(ctx context.Context, student user.User, token string) (Record, error) {
	claims, err := svc.tokens.Verify(token)
	if err != nil {
		return Record{}, err
	}

	s, err := svc.school.GetSessionByID(ctx, claims.SessionID)
	if err != nil {
		return Record{}, err
	}
	// safety: the student must belong to the session's cohort
	if s.ClassID != "" && student.ClassID != s.ClassID {
		return Record{}, core.NewPermissionError("student does not belong to this session's class")
	}

	date, err := core.ParseDate(claims.Date)
	if err != nil {
		return Record{}, ErrTokenMalformed
	}

	return svc.repo.UpsertRecord(ctx, Record{
		StudentID: student.ID,
		ModuleID:  s.ModuleID,
		SessionID: s.ID,
		Date:      date,
		Status:    StatusPresent,
		Method:    MethodQR,
		MarkedAt:  nowFunc().UTC(),
	})
}

// MarkManual records one attendance fact by hand. When a session is supplied
// the teacher must own it.
func (svc *Service) MarkManual(ctx context.Context, teacher user.User, in ManualMarkInput) (Record, error) {
	var s school.Session
	if in.SessionID != "" {
		var err error
		if s, err = svc.school.GetSessionByID(ctx, in.SessionID); err != nil {
			return Record{}, err
		}
		if err = auth.RequireSessionOwner(teacher, s); err != nil {
			return Record{}, err
		}
	}

	mod, err := svc.school.GetModuleByID(ctx, in.ModuleID)
	if err != nil {
		return Record{}, err
	}
	student, err := svc.users.GetUser(ctx, user.GetFilter{ID: in.StudentID})
	if err != nil {
		return Record{}, err
	}

	date, _ := core.ParseDate(in.Date) // validated upstream

	rec, err := svc.repo.UpsertRecord(ctx, Record{
		StudentID: student.ID,
		ModuleID:  mod.ID,
		SessionID: in.SessionID,
		Date:      date,
		Status:    in.Status,
		Method:    MethodManual,
		MarkedAt:  nowFunc().UTC(),
	})
	if err != nil {
		return Record{}, err
	}

	if rec.Status == StatusAbsent {
		svc.notifyAbsence(student, mod, s, rec)
	}
	return rec, nil
}

// MarkManualBatch applies one upsert per roster item, in input order. Items
// fail independently: the result carries a per-item error list and a count of
// applied marks. The session must be owned by the calling teacher.
func (svc *Service) MarkManualBatch(ctx context.Context, teacher user.User, in BatchMarkInput) (BatchResult, error) {
	s, err := svc.school.GetSessionByID(ctx, in.SessionID)
	if err != nil {
		return BatchResult{}, err
	}
	if err = auth.RequireSessionOwner(teacher, s); err != nil {
		return BatchResult{}, err
	}
	mod, err := svc.school.GetModuleByID(ctx, s.ModuleID)
	if err != nil {
		return BatchResult{}, err
	}

	date, _ := core.ParseDate(in.Date) // validated upstream
	now := nowFunc().UTC()

	var res BatchResult
	for i, item := range in.Items {
		student, err := svc.users.GetUser(ctx, user.GetFilter{ID: item.StudentID})
		if err != nil {
			res.Errors = append(res.Errors, BatchError{Index: i, StudentID: item.StudentID, Error: err.Error()})
			continue
		}

		rec, err := svc.repo.UpsertRecord(ctx, Record{
			StudentID: student.ID,
			ModuleID:  s.ModuleID,
			SessionID: s.ID,
			Date:      date,
			Status:    item.Status,
			Method:    MethodManual,
			MarkedAt:  now,
		})
		if err != nil {
			res.Errors = append(res.Errors, BatchError{Index: i, StudentID: item.StudentID, Error: err.Error()})
			continue
		}

		res.Marked++
		if rec.Status == StatusAbsent {
			svc.notifyAbsence(student, mod, s, rec)
		}
	}
	return res, nil
}

// MarkFace runs the captured frame through the recognition collaborator and,
// on a match, records presence for the recognized student. The session must
// be owned by the calling teacher.
func (svc *Service) MarkFace(ctx context.Context, teacher user.User, in FaceMarkInput) (FaceResult, *Record, error) {
	s, err := svc.school.GetSessionByID(ctx, in.SessionID)
	if err != nil {
		return FaceResult{}, nil, err
	}
	if err = auth.RequireSessionOwner(teacher, s); err != nil {
		return FaceResult{}, nil, err
	}

	res := svc.face.Verify(in.ImageBase64)
	if !res.Recognized {
		return res, nil, nil
	}

	student, err := svc.users.GetUser(ctx, user.GetFilter{ID: res.StudentID})
	if err != nil {
		return FaceResult{}, nil, err
	}

	date, _ := core.ParseDate(in.Date) // validated upstream

	rec, err := svc.repo.UpsertRecord(ctx, Record{
		StudentID:  student.ID,
		ModuleID:   s.ModuleID,
		SessionID:  s.ID,
		Date:       date,
		Status:     StatusPresent,
		Method:     MethodFace,
		Confidence: res.Confidence,
		MarkedAt:   nowFunc().UTC(),
	})
	if err != nil {
		return FaceResult{}, nil, err
	}
	return res, &rec, nil
}

// ListForStudent returns the student's own attendance facts, latest date first.
func (svc *Service) ListForStudent(ctx context.Context, student user.User) ([]Record, error) {
	return svc.repo.QueryRecordsByStudent(ctx, student.ID)
}

// StatsForStudent returns the student's present/absent totals.
func (svc *Service) StatsForStudent(ctx context.Context, student user.User) (Stats, error) {
	return svc.repo.GetRecordStats(ctx, student.ID)
}

// GetRecord fetches one attendance fact by ID; used by the justification flow.
func (svc *Service) GetRecord(ctx context.Context, id string) (Record, error) {
	return svc.repo.GetRecordByID(ctx, id)
}

// notifyAbsence raises the "marked absent" notice. Delivery is delegated to
// the email collaborator and never blocks nor fails the mark.
func (svc *Service) notifyAbsence(student user.User, mod school.Module, s school.Session, rec Record) {
	body := fmt.Sprintf(
		"Hello %s,\n\nYou were marked absent for %s on %s.",
		student.Name, mod.Name, rec.Date.Format(core.DateFormat),
	)
	if s.ID != "" {
		body += fmt.Sprintf(" (%s, room %s)", s.StartTime, s.Room)
	}
	body += "\n\nIf you believe this is a mistake, you may submit a justification within 48 hours."

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject: fmt.Sprintf("Absence recorded - %s", mod.Name),
		BodyStr: body,
	})
}
