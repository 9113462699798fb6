package errors

import "fmt"

// Config errors

type ErrConfigNotFound struct {
	Path string
}

func (e *ErrConfigNotFound) Error() string {
	return fmt.Sprintf("config file not found: %s", e.Path)
}

type ErrConfigParse struct {
	Err error
}

func (e *ErrConfigParse) Error() string {
	return fmt.Sprintf("failed to parse YAML: %v", e.Err)
}

func (e *ErrConfigParse) Unwrap() error {
	return e.Err
}

type ErrConfigValidation struct {
	Err error
}

func (e *ErrConfigValidation) Error() string {
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ErrConfigValidation) Unwrap() error {
	return e.Err
}

// OAuth flow errors

// ErrMissingParameter indicates a required callback parameter (code or state)
// was absent or empty.
type ErrMissingParameter struct {
	Name string
}

func (e *ErrMissingParameter) Error() string {
	return fmt.Sprintf("missing required parameter: %s", e.Name)
}

// ErrAuthorizationDenied indicates the provider rejected the code exchange.
// Description carries the provider's error_description.
type ErrAuthorizationDenied struct {
	Description string
}

func (e *ErrAuthorizationDenied) Error() string {
	return fmt.Sprintf("GitHub authorization failed: %s", e.Description)
}

// ErrUpstreamUnavailable indicates a transport-level failure talking to
// GitHub (connection refused, timeout, DNS).
type ErrUpstreamUnavailable struct {
	Err error
}

func (e *ErrUpstreamUnavailable) Error() string {
	return fmt.Sprintf("GitHub is unreachable: %v", e.Err)
}

func (e *ErrUpstreamUnavailable) Unwrap() error {
	return e.Err
}

// Repository listing errors

// ErrUnauthorized indicates no token is on file for the identity. This is
// expected and recoverable; the message guides the user to authorize first.
type ErrUnauthorized struct {
	Identity string
}

func (e *ErrUnauthorized) Error() string {
	return fmt.Sprintf("no GitHub authorization on file for %s: run /github_authorize first", e.Identity)
}

// ErrUpstreamStatus indicates a non-2xx response from the GitHub API.
// Body holds the raw response text; error bodies are not guaranteed to be
// structured, so it is never re-parsed.
type ErrUpstreamStatus struct {
	StatusCode int
	Body       string
}

func (e *ErrUpstreamStatus) Error() string {
	return fmt.Sprintf("GitHub API returned status %d: %s", e.StatusCode, e.Body)
}

// Webhook errors

// ErrMalformedPayload indicates the webhook body was not valid JSON.
type ErrMalformedPayload struct {
	Err error
}

func (e *ErrMalformedPayload) Error() string {
	return fmt.Sprintf("failed to parse webhook payload: %v", e.Err)
}

func (e *ErrMalformedPayload) Unwrap() error {
	return e.Err
}

// ErrInvalidSignature indicates the X-Hub-Signature-256 header did not match
// the configured webhook secret.
type ErrInvalidSignature struct{}

func (e *ErrInvalidSignature) Error() string {
	return "webhook signature verification failed"
}

// Database errors

type ErrDatabaseOpen struct {
	Path string
	Err  error
}

func (e *ErrDatabaseOpen) Error() string {
	return fmt.Sprintf("failed to open database %s: %v", e.Path, e.Err)
}

func (e *ErrDatabaseOpen) Unwrap() error {
	return e.Err
}

type ErrDatabaseQuery struct {
	Operation string
	Err       error
}

func (e *ErrDatabaseQuery) Error() string {
	return fmt.Sprintf("database query failed for operation %s: %v", e.Operation, e.Err)
}

func (e *ErrDatabaseQuery) Unwrap() error {
	return e.Err
}

// Server errors

type ErrServerStart struct {
	Addr string
	Err  error
}

func (e *ErrServerStart) Error() string {
	return fmt.Sprintf("failed to start server on %s: %v", e.Addr, e.Err)
}

func (e *ErrServerStart) Unwrap() error {
	return e.Err
}

type ErrServerShutdown struct {
	Err error
}

func (e *ErrServerShutdown) Error() string {
	return fmt.Sprintf("server shutdown failed: %v", e.Err)
}

func (e *ErrServerShutdown) Unwrap() error {
	return e.Err
}

// Filesystem errors

type ErrFileRead struct {
	Path string
	Err  error
}

func (e *ErrFileRead) Error() string {
	return fmt.Sprintf("failed to read file %s: %v", e.Path, e.Err)
}

func (e *ErrFileRead) Unwrap() error {
	return e.Err
}
