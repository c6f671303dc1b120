package attendance

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
)

type (
	// TokenRequest asks for a fresh attendance token for one session+date.
	TokenRequest struct {
		SessionID string `json:"session_id" validate:"required"`
		Date      string `json:"date" validate:"required,dateonly"`
	}

	// QRMarkRequest is a student's scan submission.
	QRMarkRequest struct {
		Token string `json:"token" validate:"required"`
	}

	// ManualMarkInput marks one student by hand.
	ManualMarkInput struct {
		StudentID string `json:"student_id" validate:"required"`
		ModuleID  string `json:"module_id" validate:"required"`
		Date      string `json:"date" validate:"required,dateonly"`
		Status    string `json:"status" validate:"required,oneof=present absent"`
		SessionID string `json:"session_id" validate:"omitempty"`
	}

	// BatchItem is one student entry of a batch mark.
	BatchItem struct {
		StudentID string `json:"student_id" validate:"required"`
		Status    string `json:"status" validate:"required,oneof=present absent"`
	}

	// BatchMarkInput marks a whole session roster for one date.
	BatchMarkInput struct {
		SessionID string      `json:"session_id" validate:"required"`
		Date      string      `json:"date" validate:"required,dateonly"`
		Items     []BatchItem `json:"items" validate:"required,min=1,dive"`
	}

	// FaceMarkInput is the facial-recognition capture payload.
	FaceMarkInput struct {
		SessionID   string `json:"session_id" validate:"required"`
		Date        string `json:"date" validate:"required,dateonly"`
		ImageBase64 string `json:"image_base64" validate:"required"`
	}
)

func (r *TokenRequest) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.TranslateValidationErrors(validate.Struct(r), translator)
}

func (r *QRMarkRequest) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.TranslateValidationErrors(validate.Struct(r), translator)
}

func (in *ManualMarkInput) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.TranslateValidationErrors(validate.Struct(in), translator)
}

func (in *BatchMarkInput) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.TranslateValidationErrors(validate.Struct(in), translator)
}

func (in *FaceMarkInput) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.TranslateValidationErrors(validate.Struct(in), translator)
}
