package justification

import "time"

// Statuses; pending is initial, accepted and refused are terminal.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRefused  = "refused"
)

// Justification is a student's dispute over one specific absence fact,
// exactly one per attendance record. While pending, a re-submission replaces
// the uploaded file; once reviewed it can never change again.
type Justification struct {
	ID            string    `json:"id"`
	AttendanceID  string    `json:"attendance_id"`
	FilePath      string    `json:"file_path"`
	Status        string    `json:"status"`
	ReviewComment string    `json:"review_comment,omitempty"`
	ReviewedAt    time.Time `json:"reviewed_at,omitempty"` // zero until reviewed
	CreatedAt     time.Time `json:"created_at"`            // UTC
	UpdatedAt     time.Time `json:"updated_at"`            // UTC
}

// Terminal reports whether the justification has been decided.
func (j Justification) Terminal() bool {
	return j.Status == StatusAccepted || j.Status == StatusRefused
}
