package models

import "errors"

// Content validation errors. Non-retryable, the caller must supply different input.
var (
	ErrInvalidDocument   = errors.New("invalid document")
	ErrCorruptDocument   = errors.New("corrupt document")
	ErrEncryptedDocument = errors.New("encrypted document")
	ErrInvalidImage      = errors.New("invalid image")
	ErrEmptyDocument     = errors.New("no content extracted from document")
)

// Contract errors. These indicate caller misuse inside the process.
var (
	ErrEmptyInput     = errors.New("empty input")
	ErrLengthMismatch = errors.New("length mismatch")
)

// Operational errors.
var (
	// ErrNotFound means the session is absent or expired; the user must re-upload.
	ErrNotFound = errors.New("session not found")
	// ErrTimeout means the operation exceeded its deadline; safe to retry.
	ErrTimeout = errors.New("operation timed out")
	// ErrServiceUnavailable means a backend call failed; safe to retry later.
	ErrServiceUnavailable = errors.New("service unavailable")
)
