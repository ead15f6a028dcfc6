package llm

import (
	"errors"
	"fmt"
)

// ErrMissingCredential is returned when a session is built without a usable credential.
var ErrMissingCredential = errors.New("missing model credential")

// TransportError wraps a failed model call. The caller decides whether to retry.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
