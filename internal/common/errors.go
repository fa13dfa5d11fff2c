// Package common provides the error kinds shared by the evaluation pipelines.
package common

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match them with errors.Is.
var (
	// ErrIO covers unreadable, missing or malformed files.
	ErrIO = errors.New("io error")
	// ErrSchema covers tables whose shape does not match what is expected.
	ErrSchema = errors.New("schema error")
	// ErrPath covers missing or empty dataset directories.
	ErrPath = errors.New("path error")
	// ErrModelLoad covers unknown architectures and incompatible model files.
	ErrModelLoad = errors.New("model load error")

	ErrInvalidConfig = errors.New("invalid configuration")
)

// KindError attaches one of the error kinds to a message and an optional cause.
type KindError struct {
	Kind error
	Err  error
	Msg  string
}

func (e *KindError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Msg)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *KindError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap returns a KindError of the given kind.
func Wrap(kind error, msg string, err error) error {
	return &KindError{Kind: kind, Msg: msg, Err: err}
}

// Errorf is Wrap without a cause and with a formatted message.
func Errorf(kind error, format string, args ...any) error {
	return &KindError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
