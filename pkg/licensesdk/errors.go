package licensesdk

import (
	"encoding/json"
	"fmt"
)

// ============================================================================
// Operations
// ============================================================================

// Operation identifies the authenticated call that produced a RequestError.
type Operation string

const (
	OpCreateLicense        Operation = "create_license"
	OpListLicenses         Operation = "list_licenses"
	OpActivateLicense      Operation = "activate_license"
	OpDeactivateLicense    Operation = "deactivate_license"
	OpResetHardwareBinding Operation = "reset_hardware_binding"
)

// Fallback messages used when the server does not supply one.
const (
	MsgLoginFailed          = "Login failed"
	MsgMissingToken         = "Login response did not contain a token"
	MsgCreateLicenseFailed  = "Failed to create license"
	MsgListLicensesFailed   = "Failed to fetch licenses"
	MsgActivateFailed       = "Failed to activate license"
	MsgDeactivateFailed     = "Failed to deactivate license"
	MsgResetHardwareFailed  = "Failed to reset hardware binding"
	msgUnknownRequestFailed = "Request failed"
)

// FallbackMessage returns the message used for op when the response body
// carries none.
func (op Operation) FallbackMessage() string {
	switch op {
	case OpCreateLicense:
		return MsgCreateLicenseFailed
	case OpListLicenses:
		return MsgListLicensesFailed
	case OpActivateLicense:
		return MsgActivateFailed
	case OpDeactivateLicense:
		return MsgDeactivateFailed
	case OpResetHardwareBinding:
		return MsgResetHardwareFailed
	default:
		return msgUnknownRequestFailed
	}
}

// ============================================================================
// AuthError - login failures
// ============================================================================

// AuthError is returned when the login call is rejected.
type AuthError struct {
	// StatusCode is the HTTP status of the rejected response. It is 2xx when
	// the server accepted the credentials but returned no token.
	StatusCode int

	// Message is the server-supplied message or MsgLoginFailed.
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return e.Message
}

// ============================================================================
// RequestError - authenticated call failures
// ============================================================================

// RequestError is returned when an authenticated license call is rejected.
type RequestError struct {
	// Op is the operation that failed
	Op Operation

	// StatusCode is the HTTP status of the rejected response
	StatusCode int

	// Message is the server-supplied message or the operation's fallback
	Message string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return e.Message
}

// String includes the operation and status, for logs.
func (e *RequestError) String() string {
	return fmt.Sprintf("%s (status %d): %s", e.Op, e.StatusCode, e.Message)
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// errorMessage extracts a human-readable message from an error response body.
// The "message" field wins over "error"; non-string values are ignored.
// Returns fallback if the body is empty, not a JSON object, or has neither field.
func errorMessage(body []byte, fallback string) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return fallback
	}

	for _, key := range []string{"message", "error"} {
		if msg, ok := payload[key].(string); ok && msg != "" {
			return msg
		}
	}

	return fallback
}

func newAuthError(status int, body []byte) *AuthError {
	return &AuthError{
		StatusCode: status,
		Message:    errorMessage(body, MsgLoginFailed),
	}
}

func newRequestError(op Operation, status int, body []byte) *RequestError {
	return &RequestError{
		Op:         op,
		StatusCode: status,
		Message:    errorMessage(body, op.FallbackMessage()),
	}
}
