package justification_test

import (
	"context"
	"io/ioutil"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/justification"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/user"
	inmemdb "github.com/trezcool/mahudhurio/storage/database/inmem"
	"github.com/trezcool/mahudhurio/storage/files"
	testutil "github.com/trezcool/mahudhurio/tests"
)

type fixture struct {
	svc     *justification.Service
	repo    justification.Repository
	attRepo attendance.Repository
	teacher user.User
	student user.User
	mod     school.Module
	sess    school.Session
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db := inmemdb.NewDB()
	userRepo := inmemdb.NewUserRepository(db)
	schoolRepo := inmemdb.NewSchoolRepository(db)
	attRepo := inmemdb.NewAttendanceRepository(db)
	justRepo := inmemdb.NewJustificationRepository(db)

	store, err := files.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore() failed: %v", err)
	}

	teacher := testutil.CreateUser(t, userRepo, "Teacher", "teach", "teach@test.cd", "", []string{user.RoleTeacher}, "", true)
	student := testutil.CreateUser(t, userRepo, "Student", "stud", "stud@test.cd", "", []string{user.RoleStudent}, "L1A", true)
	mod := testutil.CreateModule(t, schoolRepo, "Algorithms", "ALG101", "L1A")
	sess := testutil.CreateSession(t, schoolRepo, mod, teacher.ID, "B12")

	return &fixture{
		svc:     justification.NewService(justRepo, attRepo, schoolRepo, store, core.Conf),
		repo:    justRepo,
		attRepo: attRepo,
		teacher: teacher,
		student: student,
		mod:     mod,
		sess:    sess,
	}
}

func upload(name, content string) justification.Upload {
	return justification.Upload{
		Filename: name,
		Size:     int64(len(content)),
		Content:  strings.NewReader(content),
	}
}

// today keeps the fixture inside the submission window.
func today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestServiceSubmit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	absence := testutil.CreateAttendance(t, f.attRepo, f.student.ID, f.mod.ID, f.sess.ID, today(), attendance.StatusAbsent)

	j, err := f.svc.Submit(ctx, f.student, absence.ID, upload("note.pdf", "evidence"))
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if j.Status != justification.StatusPending {
		t.Errorf("Submit() status = %v, want pending", j.Status)
	}
	if j.AttendanceID != absence.ID {
		t.Errorf("Submit() attendanceID = %v, want %v", j.AttendanceID, absence.ID)
	}

	// re-submission while pending replaces the file on the same justification
	again, err := f.svc.Submit(ctx, f.student, absence.ID, upload("better.pdf", "more evidence"))
	if err != nil {
		t.Fatalf("Submit() re-submission failed: %v", err)
	}
	if again.ID != j.ID {
		t.Errorf("re-submission created a new justification: %v != %v", again.ID, j.ID)
	}
	if again.FilePath == j.FilePath {
		t.Error("re-submission should replace the stored file")
	}
}

func TestServiceSubmitRejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	absence := testutil.CreateAttendance(t, f.attRepo, f.student.ID, f.mod.ID, f.sess.ID, today(), attendance.StatusAbsent)
	presence := testutil.CreateAttendance(t, f.attRepo, f.student.ID, f.mod.ID, f.sess.ID, today().AddDate(0, 0, -1), attendance.StatusPresent)
	stale := testutil.CreateAttendance(t, f.attRepo, f.student.ID, f.mod.ID, f.sess.ID, today().AddDate(0, 0, -5), attendance.StatusAbsent)

	tests := []struct {
		name         string
		caller       user.User
		attendanceID string
		up           justification.Upload
		check        func(error) bool
	}{
		{
			name: "unknown attendance", caller: f.student, attendanceID: "nope", up: upload("a.pdf", "x"),
			check: func(err error) bool { _, ok := errors.Cause(err).(*core.NotFoundError); return ok },
		},
		{
			name: "someone else's absence", caller: f.teacher, attendanceID: absence.ID, up: upload("a.pdf", "x"),
			check: func(err error) bool { _, ok := errors.Cause(err).(*core.NotFoundError); return ok },
		},
		{
			name: "presence cannot be justified", caller: f.student, attendanceID: presence.ID, up: upload("a.pdf", "x"),
			check: func(err error) bool { _, ok := errors.Cause(err).(*core.ValidationError); return ok },
		},
		{
			name: "window expired", caller: f.student, attendanceID: stale.ID, up: upload("a.pdf", "x"),
			check: func(err error) bool { _, ok := errors.Cause(err).(*core.ValidationError); return ok },
		},
		{
			name: "bad extension", caller: f.student, attendanceID: absence.ID, up: upload("a.exe", "x"),
			check: func(err error) bool { _, ok := errors.Cause(err).(*core.ValidationError); return ok },
		},
		{
			name: "oversized file", caller: f.student, attendanceID: absence.ID,
			up: justification.Upload{Filename: "big.pdf", Size: core.Conf.JustificationMaxSize + 1, Content: strings.NewReader("x")},
			check: func(err error) bool { _, ok := errors.Cause(err).(*core.ValidationError); return ok },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Submit(ctx, tt.caller, tt.attendanceID, tt.up)
			if err == nil {
				t.Fatal("Submit() should have failed")
			}
			if !tt.check(err) {
				t.Errorf("Submit() error = %v (%T)", err, errors.Cause(err))
			}
		})
	}
}

func TestServiceReview(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	absence := testutil.CreateAttendance(t, f.attRepo, f.student.ID, f.mod.ID, f.sess.ID, today(), attendance.StatusAbsent)
	j, err := f.svc.Submit(ctx, f.student, absence.ID, upload("note.pdf", "evidence"))
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	reviewed, err := f.svc.Review(ctx, f.teacher, j.ID, justification.ReviewInput{
		Status:  justification.StatusAccepted,
		Comment: "ok, medical note checks out",
	})
	if err != nil {
		t.Fatalf("Review() failed: %v", err)
	}
	if reviewed.Status != justification.StatusAccepted {
		t.Errorf("Review() status = %v, want accepted", reviewed.Status)
	}
	if reviewed.ReviewedAt.IsZero() {
		t.Error("Review() should set ReviewedAt")
	}

	// a decision is final
	if _, err = f.svc.Review(ctx, f.teacher, j.ID, justification.ReviewInput{Status: justification.StatusRefused}); err == nil {
		t.Fatal("Review() should refuse to change a decided justification")
	} else if _, ok := errors.Cause(err).(*core.ConflictError); !ok {
		t.Errorf("Review() error = %T, want *core.ConflictError", errors.Cause(err))
	}

	// and so is re-submission
	if _, err = f.svc.Submit(ctx, f.student, absence.ID, upload("late.pdf", "too late")); err == nil {
		t.Fatal("Submit() should refuse a decided justification")
	} else if _, ok := errors.Cause(err).(*core.ConflictError); !ok {
		t.Errorf("Submit() error = %T, want *core.ConflictError", errors.Cause(err))
	}
}

func TestServiceReviewOwnership(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	absence := testutil.CreateAttendance(t, f.attRepo, f.student.ID, f.mod.ID, f.sess.ID, today(), attendance.StatusAbsent)
	j, err := f.svc.Submit(ctx, f.student, absence.ID, upload("note.pdf", "evidence"))
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	other := user.User{ID: "other-teacher", Roles: []string{user.RoleTeacher}}

	_, err = f.svc.Review(ctx, other, j.ID, justification.ReviewInput{Status: justification.StatusAccepted})
	if _, ok := errors.Cause(err).(*core.PermissionError); !ok {
		t.Errorf("Review() error = %T, want *core.PermissionError", errors.Cause(err))
	}
}

func TestServiceDownload(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	absence := testutil.CreateAttendance(t, f.attRepo, f.student.ID, f.mod.ID, f.sess.ID, today(), attendance.StatusAbsent)
	j, err := f.svc.Submit(ctx, f.student, absence.ID, upload("note.pdf", "evidence"))
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	// owning student
	rc, name, err := f.svc.Download(ctx, f.student, j.ID)
	if err != nil {
		t.Fatalf("Download() failed: %v", err)
	}
	content, _ := ioutil.ReadAll(rc)
	rc.Close()
	if string(content) != "evidence" {
		t.Errorf("Download() content = %q, want %q", content, "evidence")
	}
	if !strings.HasSuffix(name, "note.pdf") {
		t.Errorf("Download() name = %q, want suffix note.pdf", name)
	}

	// owning teacher
	if rc, _, err = f.svc.Download(ctx, f.teacher, j.ID); err != nil {
		t.Fatalf("Download() by owning teacher failed: %v", err)
	} else {
		rc.Close()
	}

	// anybody else
	stranger := user.User{ID: "stranger", Roles: []string{user.RoleStudent}}
	if _, _, err = f.svc.Download(ctx, stranger, j.ID); err == nil {
		t.Fatal("Download() should deny strangers")
	} else if _, ok := errors.Cause(err).(*core.PermissionError); !ok {
		t.Errorf("Download() error = %T, want *core.PermissionError", errors.Cause(err))
	}
}

func TestServiceListForTeacher(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	absence := testutil.CreateAttendance(t, f.attRepo, f.student.ID, f.mod.ID, f.sess.ID, today(), attendance.StatusAbsent)
	j, err := f.svc.Submit(ctx, f.student, absence.ID, upload("note.pdf", "evidence"))
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	js, err := f.svc.ListForTeacher(ctx, f.teacher, "")
	if err != nil {
		t.Fatalf("ListForTeacher() failed: %v", err)
	}
	if len(js) != 1 || js[0].ID != j.ID {
		t.Errorf("ListForTeacher() = %+v, want the submitted justification", js)
	}

	// status filter
	js, err = f.svc.ListForTeacher(ctx, f.teacher, justification.StatusAccepted)
	if err != nil {
		t.Fatalf("ListForTeacher() failed: %v", err)
	}
	if len(js) != 0 {
		t.Errorf("ListForTeacher(accepted) = %d, want 0", len(js))
	}

	// another teacher sees nothing
	other := user.User{ID: "other", Roles: []string{user.RoleTeacher}}
	js, err = f.svc.ListForTeacher(ctx, other, "")
	if err != nil {
		t.Fatalf("ListForTeacher() failed: %v", err)
	}
	if len(js) != 0 {
		t.Errorf("ListForTeacher() for another teacher = %d, want 0", len(js))
	}

	// students are denied
	if _, err = f.svc.ListForTeacher(ctx, f.student, ""); err == nil {
		t.Fatal("ListForTeacher() should deny students")
	} else if _, ok := errors.Cause(err).(*core.PermissionError); !ok {
		t.Errorf("ListForTeacher() error = %T, want *core.PermissionError", errors.Cause(err))
	}
}
