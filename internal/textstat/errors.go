package textstat

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidInput is the sentinel behind every InvalidInputError.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError reports an argument the engines refuse to score.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// Validate rejects text that is not valid UTF-8. Empty text is valid.
func Validate(field, text string) error {
	if !utf8.ValidString(text) {
		return &InvalidInputError{Field: field, Reason: "text is not valid UTF-8"}
	}
	return nil
}

// ValidateAll checks every entry and names the failing index.
func ValidateAll(field string, texts []string) error {
	for i, t := range texts {
		if err := Validate(fmt.Sprintf("%s[%d]", field, i), t); err != nil {
			return err
		}
	}
	return nil
}
