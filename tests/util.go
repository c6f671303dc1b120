// Package testutil provides fixture helpers shared by the test suites. All
// fixtures are written through the repository interfaces so they work against
// any backing store.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/justification"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	classID string,
	isActive bool,
) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Username:  core.CleanString(uname, true),
		Email:     core.CleanString(email, true),
		IsActive:  isActive,
		Roles:     roles,
		ClassID:   classID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateModule(t *testing.T, repo school.Repository, name, code, classID string) school.Module {
	t.Helper()

	mod, err := repo.CreateModule(context.Background(), school.Module{
		Name:    name,
		Code:    code,
		ClassID: classID,
	})
	if err != nil {
		t.Fatalf("CreateModule() failed: %v", err)
	}
	return mod
}

func CreateSession(t *testing.T, repo school.Repository, mod school.Module, teacherID, room string) school.Session {
	t.Helper()

	s, err := repo.CreateSession(context.Background(), school.Session{
		ModuleID:  mod.ID,
		TeacherID: teacherID,
		ClassID:   mod.ClassID,
		Room:      room,
		Weekday:   "monday",
		StartTime: "08:00",
		EndTime:   "10:00",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	return s
}

func CreateAttendance(
	t *testing.T,
	repo attendance.Repository,
	studentID, moduleID, sessionID string,
	date time.Time,
	status string,
) attendance.Record {
	t.Helper()

	rec, err := repo.UpsertRecord(context.Background(), attendance.Record{
		StudentID: studentID,
		ModuleID:  moduleID,
		SessionID: sessionID,
		Date:      date,
		Status:    status,
		Method:    attendance.MethodManual,
		MarkedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateAttendance() failed: %v", err)
	}
	return rec
}

func CreateJustification(
	t *testing.T,
	repo justification.Repository,
	attendanceID, filePath, status string,
) justification.Justification {
	t.Helper()

	now := time.Now().UTC()
	j := justification.Justification{
		AttendanceID: attendanceID,
		FilePath:     filePath,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if j.Terminal() {
		j.ReviewedAt = now
	}
	j, err := repo.CreateJustification(context.Background(), j)
	if err != nil {
		t.Fatalf("CreateJustification() failed: %v", err)
	}
	return j
}

// Date builds a UTC day fact for fixtures.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
