package ocr

import (
	"errors"
	"fmt"
)

// Common recognition errors
var (
	// ErrImageTooLarge is returned when the image exceeds the maximum
	// request size. The Vision API rejects payloads over 20MB.
	ErrImageTooLarge = errors.New("image size exceeds the maximum limit (20MB)")

	// ErrEmptyImage is returned when no image data was provided.
	ErrEmptyImage = errors.New("empty image data")

	// ErrRecognitionFailed is returned when the recognition provider fails
	// to process the image for any reason other than quota exhaustion.
	ErrRecognitionFailed = errors.New("text recognition failed")

	// ErrQuotaExceeded is returned when the monthly request budget is spent
	// or the provider reports rate/quota exhaustion. Callers surface it as a
	// distinct user-visible condition rather than a generic failure.
	ErrQuotaExceeded = errors.New("recognition quota exceeded")

	// ErrMissingCredentials is returned when neither
	// GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is configured.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")
)

// OCRError wraps errors with additional context about the recognition failure.
type OCRError struct {
	// Op is the operation that failed (e.g., "Recognize").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *OCRError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *OCRError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *OCRError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapOCRError wraps an error as an OCRError if it isn't already one.
func WrapOCRError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return err // Already wrapped
	}

	return &OCRError{Op: op, Err: err, Details: details}
}
