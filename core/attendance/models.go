package attendance

import "time"

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// Capture methods
const (
	MethodQR     = "qr"
	MethodManual = "manual"
	MethodFace   = "face"
)

// Record is the single attendance fact for one student, one module, one
// calendar day. (StudentID, ModuleID, Date) is unique; a later write
// overwrites status, method, session and marked-at. No history is kept.
type Record struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	ModuleID   string    `json:"module_id"`
	SessionID  string    `json:"session_id,omitempty"`
	Date       time.Time `json:"date"` // UTC midnight, day granularity
	Status     string    `json:"status"`
	Method     string    `json:"method"`
	Confidence *float64  `json:"confidence,omitempty"` // face method only
	MarkedAt   time.Time `json:"marked_at"`            // UTC
}

// Stats summarizes a student's attendance history.
type Stats struct {
	Total   int `json:"total"`
	Present int `json:"present"`
	Absent  int `json:"absent"`
}

// BatchError reports one failed item of a batch mark, by input position.
type BatchError struct {
	Index     int    `json:"index"`
	StudentID string `json:"student_id"`
	Error     string `json:"error"`
}

// BatchResult reports a batch mark outcome; items are applied independently
// and errors come back in input order, so one bad item never drops the rest.
type BatchResult struct {
	Marked int          `json:"marked"`
	Errors []BatchError `json:"errors,omitempty"`
}
