package usecase

import (
	"errors"
	"fmt"
)

// ErrUnsupportedEncoding is returned for a Content-Encoding other than absent or "gzip, base64"
var ErrUnsupportedEncoding = errors.New("unsupported content encoding")

// DecodeError is a malformed payload or a payload missing a required field
type DecodeError struct {
	ResourceType string
	Err          error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s payload: %v", e.ResourceType, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeError(resourceType string, format string, args ...interface{}) error {
	return &DecodeError{ResourceType: resourceType, Err: fmt.Errorf(format, args...)}
}
