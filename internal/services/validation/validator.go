package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/sitechat/internal/models"
)

// ScrapeInput is the validated input of a scrape request
type ScrapeInput struct {
	TenantID string `json:"tenant_id" validate:"required,max=128"`
	URL      string `json:"url" validate:"required,url,max=2048"`
}

// ChatInput is the validated input of a chat request
type ChatInput struct {
	TenantID string `json:"tenant_id" validate:"required,max=128"`
	Message  string `json:"message" validate:"required,max=4000"`
}

// Validator wraps go-playground/validator and reports *models.ValidationError
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator that names fields by their json tag
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: validate}
}

// Struct validates s and returns the first failing field as *models.ValidationError
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &models.ValidationError{Field: "input", Reason: err.Error()}
	}

	fe := fieldErrs[0]
	return &models.ValidationError{Field: fe.Field(), Reason: reason(fe)}
}

// ScrapeInput trims and validates a scrape request
func (v *Validator) ScrapeInput(tenantID, url string) (*ScrapeInput, error) {
	input := &ScrapeInput{
		TenantID: strings.TrimSpace(tenantID),
		URL:      strings.TrimSpace(url),
	}
	if err := v.Struct(input); err != nil {
		return nil, err
	}
	return input, nil
}

// ChatInput validates a chat request. The message is checked trimmed but kept verbatim.
func (v *Validator) ChatInput(tenantID, message string) (*ChatInput, error) {
	input := &ChatInput{
		TenantID: strings.TrimSpace(tenantID),
		Message:  message,
	}
	if strings.TrimSpace(message) == "" {
		return nil, &models.ValidationError{Field: "message", Reason: "is required"}
	}
	if err := v.Struct(input); err != nil {
		return nil, err
	}
	return input, nil
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be an absolute URL"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
