package doc

import (
	"errors"
	"fmt"
)

var (
	ErrMissingAttribute = errors.New("missing attribute")
	ErrMissingElement   = errors.New("missing element")
	ErrInvalidValue     = errors.New("invalid value")
	ErrDuplicateItem    = errors.New("duplicate identifier")
)

// IgnoreError marks a deserialization failure the surrounding load can
// recover from, for example a processor whose class is not registered. The
// load continues and the result is flagged incomplete.
type IgnoreError struct {
	// Path locates the element that could not be read.
	Path string
	Err  error
}

func (e *IgnoreError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *IgnoreError) Unwrap() error {
	return e.Err
}

// Ignore wraps err as an IgnoreError. A nil err stays nil.
func Ignore(path string, err error) error {
	if err == nil {
		return nil
	}
	return &IgnoreError{Path: path, Err: err}
}

// IsIgnorable reports whether err is, or wraps, an IgnoreError.
func IsIgnorable(err error) bool {
	var ie *IgnoreError
	return errors.As(err, &ie)
}
