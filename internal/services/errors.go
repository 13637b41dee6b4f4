package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParse marks malformed hardware protocol input.
	ErrParse = errors.New("parse error")
	// ErrDevice marks playback or capture device failures.
	ErrDevice = errors.New("device error")
	// ErrMissingAsset marks absent files or unavailable durations.
	ErrMissingAsset = errors.New("missing asset")
	// ErrExternalService marks transcription, embedding, naming, or synthesis failures.
	ErrExternalService = errors.New("external service failure")
	// ErrDimensionMismatch marks embedding vectors of unequal length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrValidation marks rejected caller input.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a missing catalog row.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalService
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
