package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrInvalidCredentials indicates a wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnsupportedFileType indicates the file extension has no extractor
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrFileTooLarge indicates the upload exceeded the size limit mid-stream
	ErrFileTooLarge = errors.New("file too large")

	// ErrUploadStalled indicates a chunk read timed out during upload streaming
	ErrUploadStalled = errors.New("upload stalled")

	// ErrVersionConflict indicates a concurrent re-upload of the same
	// filename won the version bump first
	ErrVersionConflict = errors.New("version conflict")

	// ErrCompletionUnsupported indicates the provider cannot generate completions
	ErrCompletionUnsupported = errors.New("completion not supported by provider")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates the AI service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)
