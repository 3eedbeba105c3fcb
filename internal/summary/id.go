package summary

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidID is matched by every ValidationError produced for a
	// malformed record identifier.
	ErrInvalidID = errors.New("invalid summary id")

	// ErrInvalidInput is matched by ValidationErrors produced for
	// malformed patches and drafts.
	ErrInvalidInput = errors.New("invalid input")
)

// idPattern is the canonical 36 character hyphenated hex form. Braced, URN
// and unhyphenated spellings are all rejected.
var idPattern = regexp.MustCompile(
	`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`,
)

// validate is shared by all struct checks in this package.
var validate = validator.New()

// ValidationError is returned when input is rejected locally, before any
// network call is made. It is never worth retrying.
type ValidationError struct {
	// Field names the rejected field.
	Field string

	// Value is the rejected value.
	Value string

	// Reason describes the rule that failed.
	Reason string

	kind error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s %q: %s", e.Field,
		e.Value, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidID or ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return e.kind
}

// IsValidID reports whether id has the canonical identifier format.
func IsValidID(id string) bool {
	return idPattern.MatchString(id)
}

// ValidateID returns a ValidationError if id is not in canonical form.
func ValidateID(id string) error {
	if IsValidID(id) {
		return nil
	}

	return &ValidationError{
		Field:  "summary id",
		Value:  id,
		Reason: "must be a canonical hyphenated UUID",
		kind:   ErrInvalidID,
	}
}

// Validate checks the patch field rules.
func (p Patch) Validate() error {
	return structError(validate.Struct(p))
}

// Validate checks the draft field rules.
func (d Draft) Validate() error {
	return structError(validate.Struct(d))
}

// structError converts the first validator failure into a ValidationError.
func structError(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	fe := fieldErrs[0]
	reason := fe.Tag()
	if fe.Param() != "" {
		reason = fe.Tag() + "=" + fe.Param()
	}

	return &ValidationError{
		Field:  strings.ToLower(fe.Field()),
		Value:  fmt.Sprint(fe.Value()),
		Reason: reason,
		kind:   ErrInvalidInput,
	}
}
