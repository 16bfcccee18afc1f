package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrScrape matches every extractor failure via errors.Is
	ErrScrape = errors.New("scrape failed")

	// ErrSnapshotNotFound is returned when a tenant has never completed an extraction
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrSnapshotChanged is returned when a refresh finds the stored snapshot
	// was replaced after the refresh started
	ErrSnapshotChanged = errors.New("snapshot changed during refresh")
)

// ValidationError rejects caller input before any I/O happens
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidURLError is raised by the extractor before any network activity
type InvalidURLError struct {
	URL    string
	Reason string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid url %q: %s", e.URL, e.Reason)
}

func (e *InvalidURLError) Is(target error) bool { return target == ErrScrape }

// NavigationTimeoutError means the page did not settle within the bound
type NavigationTimeoutError struct {
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *NavigationTimeoutError) Error() string {
	return fmt.Sprintf("navigation to %s did not settle within %s", e.URL, e.Timeout)
}

func (e *NavigationTimeoutError) Unwrap() error { return e.Err }

func (e *NavigationTimeoutError) Is(target error) bool { return target == ErrScrape }

// RenderError covers engine crashes, navigation errors and DOM read failures
type RenderError struct {
	URL string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.URL, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func (e *RenderError) Is(target error) bool { return target == ErrScrape }

// UpstreamError is a non-2xx or malformed response from the completion provider
type UpstreamError struct {
	Provider   string
	StatusCode int
	Code       string
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s completion failed", e.Provider)
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Code != "" {
		msg += fmt.Sprintf(" [%s]", e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// UpstreamTimeoutError means the provider did not answer within the request timeout
type UpstreamTimeoutError struct {
	Provider string
	Timeout  time.Duration
	Err      error
}

func (e *UpstreamTimeoutError) Error() string {
	return fmt.Sprintf("%s completion timed out after %s", e.Provider, e.Timeout)
}

func (e *UpstreamTimeoutError) Unwrap() error { return e.Err }

// StorageError wraps any persistence failure
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
