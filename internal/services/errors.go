package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransient marks failures worth retrying on a later cycle (network, upstream 5xx).
	ErrTransient = errors.New("transient failure")
	// ErrParse marks upstream content that could not be interpreted.
	ErrParse = errors.New("parse error")
	// ErrNotFound marks lookups with no usable result.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration marks failures caused by missing or invalid configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
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
