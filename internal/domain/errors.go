package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPrompt     = errors.New("prompt must not be empty")
	ErrUnknownProvider = errors.New("unknown provider")
)

// CredentialError reports a required credential that is absent from the
// environment. Backends raise it at first use, never at startup.
type CredentialError struct {
	Var string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("%s is not set", e.Var)
}

// NoImageError means none of the known response shapes yielded an image
// payload. Dump carries a truncated copy of the raw response for diagnosis.
type NoImageError struct {
	Dump string
}

func (e *NoImageError) Error() string {
	return fmt.Sprintf("no image found in provider response: %s", e.Dump)
}
