package school

import "time"

// Module is a taught course unit. Managed by the administrative CRUD screens;
// referenced but never mutated here.
type Module struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	ClassID string `json:"class_id"` // cohort this module is taught to
}

// Session is one recurring timetable slot of a Module, owned by exactly one
// teacher. Immutable once created except via explicit administrative edit.
type Session struct {
	ID            string    `json:"id"`
	ModuleID      string    `json:"module_id"`
	TeacherID     string    `json:"teacher_id"`
	ClassID       string    `json:"class_id"`
	Room          string    `json:"room"`
	Weekday       string    `json:"weekday"`
	StartTime     string    `json:"start_time"` // HH:MM
	EndTime       string    `json:"end_time"`   // HH:MM
	EffectiveDate time.Time `json:"effective_date,omitempty"` // zero when recurring
	CreatedAt     time.Time `json:"created_at"`               // UTC
}

// OwnedBy reports whether the session belongs to the given teacher.
func (s Session) OwnedBy(teacherID string) bool {
	return s.TeacherID == teacherID
}
