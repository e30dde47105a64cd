package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var ErrValidationFailed = errors.New("validation failed")

const (
	MaxMachineIDLength = 64
	MaxFilenameLength  = 255
)

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidatePrintable rejects invalid UTF-8 and control characters.
func ValidatePrintable(s, fieldName string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: %s is not valid UTF-8", ErrValidationFailed, fieldName)
	}
	if strings.IndexFunc(s, unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: %s ('%s') contains control characters", ErrValidationFailed, fieldName, SanitizeText(StripUnprintable(s)))
	}
	return nil
}

// ValidateMachineID checks a device identifier and returns it trimmed. The
// same rule applies to identifiers read from provider files and from URL
// paths, so every stored machine stays addressable.
func ValidateMachineID(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if err := ValidateStringNotEmpty(trimmed, "machine ID"); err != nil {
		return "", err
	}
	if err := ValidateStringMaxLength(trimmed, MaxMachineIDLength, "machine ID"); err != nil {
		return "", err
	}
	if err := ValidatePrintable(trimmed, "machine ID"); err != nil {
		return "", err
	}
	return trimmed, nil
}
