package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrSessionExpired   = fmt.Errorf("session expired, please log in again")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrPasswordMismatch = fmt.Errorf("passwords do not match")
	ErrPasswordTooShort = fmt.Errorf("password must be at least 6 characters")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrUpgradeRequired    = fmt.Errorf("upgrade required")
	ErrTranscriptNotFound = fmt.Errorf("transcript not found")
	ErrNotFound           = fmt.Errorf("resource not found")

	// Upload validation errors
	ErrInvalidFile  = fmt.Errorf("invalid file type, please upload an audio file (.m4a, .mp3, .wav)")
	ErrFileTooLarge = fmt.Errorf("file is too large")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrCancelled       = fmt.Errorf("cancelled by user")
)
