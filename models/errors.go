package models

import (
	"errors"
	"fmt"
)

// Error codes used for internal error handling and logging. They are never
// written to API responses.
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeNavigationTimeout  = "NAVIGATION_TIMEOUT"
	ErrCodeNavigation         = "NAVIGATION_FAILED"
	ErrCodeElementWaitTimeout = "ELEMENT_WAIT_TIMEOUT"
	ErrCodeExtraction         = "EXTRACTION_FAILED"
	ErrCodeDownload           = "DOWNLOAD_FAILED"
	ErrCodeBrowserCrash       = "BROWSER_CRASH"
	ErrCodePoolExhausted      = "POOL_EXHAUSTED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// Detail is the client-safe rendering: message and cause, without the code.
func (e *ScrapeError) Detail() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the first ScrapeError in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}
