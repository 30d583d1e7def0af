package syncer

import (
	"errors"
	"fmt"
)

// ErrPassInFlight is returned by RunPass when another pass is already running.
// The dropped pass touches neither state nor network; the next trigger retries.
var ErrPassInFlight = errors.New("sync pass already in flight")

// SyncError represents a failed sync pass.
//
// Sync errors are all recoverable:
//   - Missing user id: no request was sent
//   - Transport: the collector could not be reached
//   - Server: the collector answered with a non-2xx status
//
// Error() is the text stored in lastSyncError.
type SyncError struct {
	// Code identifies the error category.
	Code SyncErrorCode

	// Message is a human-readable description.
	Message string

	// Status is the HTTP status for server errors.
	Status int

	// RecordID identifies the record whose upsert failed.
	RecordID string

	// Err is the underlying transport error, if any.
	Err error
}

// SyncErrorCode categorizes sync errors.
type SyncErrorCode string

const (
	// ErrCodeMissingUserID indicates the settings carry no user id.
	ErrCodeMissingUserID SyncErrorCode = "MISSING_USER_ID"

	// ErrCodeTransport indicates the request never produced a response.
	ErrCodeTransport SyncErrorCode = "TRANSPORT"

	// ErrCodeServer indicates a non-2xx response.
	ErrCodeServer SyncErrorCode = "SERVER_ERROR"
)

// Error implements the error interface.
func (e *SyncError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying transport error.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// IsMissingUserID returns true if the error is a missing user id error.
// Uses errors.As to handle wrapped errors.
func IsMissingUserID(err error) bool {
	return hasCode(err, ErrCodeMissingUserID)
}

// IsTransportError returns true if the collector could not be reached.
func IsTransportError(err error) bool {
	return hasCode(err, ErrCodeTransport)
}

// IsServerError returns true if the collector answered with a non-2xx status.
func IsServerError(err error) bool {
	return hasCode(err, ErrCodeServer)
}

func hasCode(err error, code SyncErrorCode) bool {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// NewMissingUserIDError creates a SyncError for an unconfigured user id.
func NewMissingUserIDError() *SyncError {
	return &SyncError{
		Code:    ErrCodeMissingUserID,
		Message: "userId is not configured",
	}
}

// NewTransportError creates a SyncError wrapping a transport failure.
func NewTransportError(recordID string, err error) *SyncError {
	return &SyncError{
		Code:     ErrCodeTransport,
		Message:  err.Error(),
		RecordID: recordID,
		Err:      err,
	}
}

// NewServerError creates a SyncError for a non-2xx status.
func NewServerError(recordID string, status int) *SyncError {
	return &SyncError{
		Code:     ErrCodeServer,
		Message:  fmt.Sprintf("collector responded %d", status),
		Status:   status,
		RecordID: recordID,
	}
}
