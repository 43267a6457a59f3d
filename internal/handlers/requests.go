package handlers

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// SayRequest is the body of POST /api/tts/say.
type SayRequest struct {
	Text      string `json:"text" validate:"required,max=4096"`
	SiteID    string `json:"siteId" validate:"omitempty,excludesall=/+#"`
	SessionID string `json:"sessionId"`
	Lang      string `json:"lang" validate:"omitempty,max=16"`
	Wait      bool   `json:"wait"`
}

// PlayRequest identifies the target of POST /api/audio/:siteId/play. The WAV
// file itself arrives in the "file" multipart field.
type PlayRequest struct {
	SiteID string `validate:"required,excludesall=/+#"`
	Wait   bool
}
