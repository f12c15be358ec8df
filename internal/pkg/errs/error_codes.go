/*
Package errs provides custom error types and application-level error code constants.

These codes cover the HTTP surface only (health, rooms API, pre-upgrade
rejections); protocol-level validation failures on the WebSocket are silent
drops and never produce an error response.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
