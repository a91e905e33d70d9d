package job

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Submission defaults and limits.
const (
	DefaultDuration        = 7
	DefaultStyle           = "cinematic"
	DefaultMaxPromptLength = 500
)

// AllowedDurations lists the accepted clip lengths in seconds.
var AllowedDurations = []int{5, 6, 7, 8, 9, 10}

// AllowedStyles lists the accepted style tags.
var AllowedStyles = []string{"cinematic", "realistic", "animated", "artistic", "documentary"}

// ValidationError describes a rejected submission field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// SubmitInput contains the user parameters of a generation request.
type SubmitInput struct {
	Prompt   string `validate:"required,prompt"`
	Duration int    `validate:"oneof=5 6 7 8 9 10"`
	Style    string `validate:"oneof=cinematic realistic animated artistic documentary"`
}

// Validator checks submissions before a job is created.
type Validator struct {
	validate     *validator.Validate
	maxPromptLen int
}

// NewValidator creates a Validator that accepts prompts of up to maxPromptLen characters.
func NewValidator(maxPromptLen int) *Validator {
	if maxPromptLen <= 0 {
		maxPromptLen = DefaultMaxPromptLength
	}
	v := &Validator{
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		maxPromptLen: maxPromptLen,
	}
	// Registration only fails on an empty tag or nil func.
	_ = v.validate.RegisterValidation("prompt", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(fl.Field().String()) <= v.maxPromptLen
	})
	return v
}

// Normalize trims the prompt and validates every field.
// The returned error is a *ValidationError for the first offending field.
func (v *Validator) Normalize(in SubmitInput) (SubmitInput, error) {
	in.Prompt = strings.TrimSpace(in.Prompt)

	err := v.validate.Struct(in)
	if err == nil {
		return in, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return in, fmt.Errorf("validate submission: %w", err)
	}
	return in, v.fieldError(fieldErrs[0])
}

func (v *Validator) fieldError(fe validator.FieldError) *ValidationError {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: field, Message: "must not be empty"}
	case "prompt":
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be at most %d characters", v.maxPromptLen),
		}
	case "oneof":
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", ")),
		}
	default:
		return &ValidationError{Field: field, Message: fmt.Sprintf("failed %q check", fe.Tag())}
	}
}
