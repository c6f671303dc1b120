package justification

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/auth"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/user"
)

const fileCategory = "justifications"

var (
	// errors
	ErrNotFound = core.NewNotFoundError("justification")

	allowedExts = map[string]bool{".pdf": true, ".jpg": true, ".jpeg": true, ".png": true}

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateJustification(ctx context.Context, j Justification) (Justification, error)
		GetJustificationByID(ctx context.Context, id string) (Justification, error)
		// GetJustificationByAttendanceID returns ErrNotFound when the
		// attendance fact has no justification yet.
		GetJustificationByAttendanceID(ctx context.Context, attendanceID string) (Justification, error)
		UpdateJustification(ctx context.Context, j Justification) (Justification, error)
		// QueryJustificationsByTeacher lists justifications whose underlying
		// attendance is tied to a session owned by the teacher; pending first,
		// then most recent.
		QueryJustificationsByTeacher(ctx context.Context, teacherID, status string) ([]Justification, error)
	}

	// AttendanceDirectory resolves the underlying attendance facts.
	AttendanceDirectory interface {
		GetRecordByID(ctx context.Context, id string) (attendance.Record, error)
	}

	// SchoolDirectory resolves sessions for ownership checks.
	SchoolDirectory interface {
		GetSessionByID(ctx context.Context, id string) (school.Session, error)
	}

	// Upload is a student's evidence file.
	Upload struct {
		Filename string
		Size     int64
		Content  io.Reader
	}

	// ReviewInput is the teacher's decision on a pending justification.
	ReviewInput struct {
		Status  string `json:"status" validate:"required,oneof=accepted refused"`
		Comment string `json:"comment" validate:"omitempty,max=2000"`
	}

	// Service manages the absence-justification lifecycle.
	Service struct {
		repo   Repository
		att    AttendanceDirectory
		school SchoolDirectory
		files  core.FileStore
		window time.Duration // submission window after the absence date
		maxLen int64         // max upload size in bytes
	}
)

func (in *ReviewInput) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.TranslateValidationErrors(validate.Struct(in), translator)
}

func NewService(repo Repository, att AttendanceDirectory, schoolDir SchoolDirectory, files core.FileStore, conf *core.Config) *Service {
	return &Service{
		repo:   repo,
		att:    att,
		school: schoolDir,
		files:  files,
		window: conf.JustificationWindow,
		maxLen: conf.JustificationMaxSize,
	}
}

// Submit files (or re-files, while still pending) a justification against the
// student's own absence fact.
func (svc *Service) Submit(ctx context.Context, student user.User, attendanceID string, up Upload) (Justification, error) {
	rec, err := svc.att.GetRecordByID(ctx, attendanceID)
	if err != nil {
		return Justification{}, err
	}
	// not owned reads the same as not existing
	if rec.StudentID != student.ID {
		return Justification{}, attendance.ErrNotFound
	}
	if rec.Status != attendance.StatusAbsent {
		return Justification{}, core.NewValidationError(nil,
			core.FieldError{Field: "attendance_id", Error: "only absences can be justified"})
	}
	if nowFunc().UTC().After(rec.Date.Add(svc.window)) {
		return Justification{}, core.NewValidationError(nil,
			core.FieldError{Field: "attendance_id", Error: "justification window expired"})
	}
	if err = svc.validateUpload(up); err != nil {
		return Justification{}, err
	}

	existing, err := svc.repo.GetJustificationByAttendanceID(ctx, attendanceID)
	switch {
	case err == nil:
		if existing.Terminal() {
			return Justification{}, core.NewConflictError("justification has already been reviewed")
		}
		// re-submission replaces the prior upload
		path, err := svc.files.Save(fileCategory, up.Filename, up.Content)
		if err != nil {
			return Justification{}, err
		}
		existing.FilePath = path
		existing.UpdatedAt = nowFunc().UTC()
		return svc.repo.UpdateJustification(ctx, existing)

	case err == ErrNotFound:
		path, err := svc.files.Save(fileCategory, up.Filename, up.Content)
		if err != nil {
			return Justification{}, err
		}
		now := nowFunc().UTC()
		return svc.repo.CreateJustification(ctx, Justification{
			AttendanceID: attendanceID,
			FilePath:     path,
			Status:       StatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		})

	default:
		return Justification{}, err
	}
}

// Review decides a pending justification. Only the teacher owning the session
// behind the absence may review, and a decision is final.
func (svc *Service) Review(ctx context.Context, teacher user.User, justificationID string, in ReviewInput) (Justification, error) {
	j, err := svc.repo.GetJustificationByID(ctx, justificationID)
	if err != nil {
		return Justification{}, err
	}

	s, err := svc.backingSession(ctx, j)
	if err != nil {
		return Justification{}, err
	}
	if err = auth.RequireSessionOwner(teacher, s); err != nil {
		return Justification{}, err
	}

	if j.Terminal() {
		return Justification{}, core.NewConflictError("justification has already been reviewed")
	}

	j.Status = in.Status
	j.ReviewComment = in.Comment
	j.ReviewedAt = nowFunc().UTC()
	j.UpdatedAt = j.ReviewedAt
	return svc.repo.UpdateJustification(ctx, j)
}

// Download streams the evidence file to the owning teacher or the owning
// student.
func (svc *Service) Download(ctx context.Context, caller user.User, justificationID string) (io.ReadCloser, string, error) {
	j, err := svc.repo.GetJustificationByID(ctx, justificationID)
	if err != nil {
		return nil, "", err
	}
	rec, err := svc.att.GetRecordByID(ctx, j.AttendanceID)
	if err != nil {
		return nil, "", err
	}

	var s school.Session // zero session is owned by nobody
	if rec.SessionID != "" {
		if s, err = svc.school.GetSessionByID(ctx, rec.SessionID); err != nil {
			return nil, "", err
		}
	}
	if err = auth.RequireSelfOrSessionOwner(caller, rec.StudentID, s); err != nil {
		return nil, "", err
	}

	f, err := svc.files.Open(j.FilePath)
	if err != nil {
		return nil, "", err
	}
	return f, filepath.Base(j.FilePath), nil
}

// ListForTeacher returns the justifications awaiting (or past) the teacher's
// review, optionally filtered by status.
func (svc *Service) ListForTeacher(ctx context.Context, teacher user.User, status string) ([]Justification, error) {
	if err := auth.RequireRole(teacher, user.RoleTeacher); err != nil {
		return nil, err
	}
	return svc.repo.QueryJustificationsByTeacher(ctx, teacher.ID, status)
}

func (svc *Service) backingSession(ctx context.Context, j Justification) (school.Session, error) {
	rec, err := svc.att.GetRecordByID(ctx, j.AttendanceID)
	if err != nil {
		return school.Session{}, err
	}
	if rec.SessionID == "" {
		// nobody owns a session-less fact; only an admin edit can resolve it
		return school.Session{}, core.NewPermissionError("attendance record has no session")
	}
	return svc.school.GetSessionByID(ctx, rec.SessionID)
}

func (svc *Service) validateUpload(up Upload) error {
	ext := strings.ToLower(filepath.Ext(up.Filename))
	if !allowedExts[ext] {
		return core.NewValidationError(nil,
			core.FieldError{Field: "file", Error: "only pdf, jpg, jpeg and png files are allowed"})
	}
	if up.Size > svc.maxLen {
		return core.NewValidationError(nil,
			core.FieldError{Field: "file", Error: "file is too large"})
	}
	return nil
}
