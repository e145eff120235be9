package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidPath is returned when a filename token would resolve outside the download directory
var ErrInvalidPath = errors.New("invalid file path")

// ErrJobNotFound is returned by the ledger for unknown job ids
var ErrJobNotFound = errors.New("job not found")

// ValidationError indicates client input that must never reach the extractor
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ExtractionError wraps any failure of the external extraction tool
type ExtractionError struct {
	Op      string // probe or materialize
	Message string
	Timeout bool
	Err     error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NotFoundError indicates a file absent from the download directory
type NotFoundError struct {
	Name string
	Dir  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("file %q not found in %s", e.Name, e.Dir)
}

// JobError records the stage at which a download job failed
type JobError struct {
	Stage Stage
	Err   error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("job failed at %s: %v", e.Stage, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsExtraction reports whether err is (or wraps) an ExtractionError
func IsExtraction(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}
