package editor

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	apperrors "github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/errors"
)

const (
	maxTitleLength   = 200
	maxContentLength = 1 << 20
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// Unwrap lets callers match any validation failure with
// errors.Is(err, apperrors.ErrInvalidInput).
func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

// ValidateNewEntry checks the fields of the create form.
func ValidateNewEntry(title, content string) error {
	return collect(validation.Errors{
		"title":   validateTitle(title),
		"content": validateContent(content),
	})
}

// ValidateEdit checks the field of the edit form.
func ValidateEdit(content string) error {
	return collect(validation.Errors{
		"content": validateContent(content),
	})
}

func validateTitle(title string) error {
	return validation.Validate(strings.TrimSpace(title),
		validation.Required.Error("title is required"),
		validation.RuneLength(1, maxTitleLength).Error(fmt.Sprintf("title must be at most %d characters", maxTitleLength)),
		validation.By(func(value any) error {
			s, _ := value.(string)
			if strings.ContainsAny(s, `/\`+"\x00") {
				return errors.New("title must not contain slashes")
			}
			if s == "." || s == ".." {
				return fmt.Errorf("title %q is reserved", s)
			}
			return nil
		}),
	)
}

func validateContent(content string) error {
	return validation.Validate(strings.TrimSpace(content),
		validation.Required.Error("content is required"),
		validation.RuneLength(1, maxContentLength).Error("content is too long"),
	)
}

func collect(errs validation.Errors) error {
	if err := errs.Filter(); err == nil {
		return nil
	}
	fields := make(map[string]string, len(errs))
	for field, err := range errs {
		if err != nil {
			fields[field] = err.Error()
		}
	}
	return &ValidationError{Fields: fields}
}
