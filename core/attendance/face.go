package attendance

// FaceResult is the verdict of a facial-recognition capture.
type FaceResult struct {
	Recognized bool     `json:"recognized"`
	StudentID  string   `json:"student_id,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// FaceVerifier matches a captured frame against enrolled students. The real
// matcher lives in an upstream service; this core only carries the contract.
type FaceVerifier interface {
	Verify(imageBase64 string) FaceResult
}

// placeholderFaceVerifier is the stub used until the recognition service is
// wired in.
type placeholderFaceVerifier struct{}

var _ FaceVerifier = (*placeholderFaceVerifier)(nil)

func NewPlaceholderFaceVerifier() FaceVerifier {
	return &placeholderFaceVerifier{}
}

func (placeholderFaceVerifier) Verify(string) FaceResult {
	return FaceResult{
		Recognized: false,
		Message:    "facial recognition is not available yet",
	}
}
