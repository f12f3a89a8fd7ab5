/*
Package errs defines the application error codes of the poker server and the
CustomError type that carries them to HTTP clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrNotFound indicates that the requested resource does not exist.
	ErrNotFound = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Room Errors
const (
	// ErrRoomSelectorTooLong indicates that the room path segment exceeded the allowed length.
	ErrRoomSelectorTooLong = 2101

	// ErrWebSocketUpgrade indicates that the connection could not be upgraded.
	ErrWebSocketUpgrade = 2102
)

// 3xxx: Security Errors
const (
	// ErrUnauthorized indicates a failed shared-secret header check.
	ErrUnauthorized = 3001

	// ErrOriginNotAllowed indicates a WebSocket request from a foreign origin.
	ErrOriginNotAllowed = 3002
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrServiceUnavailable indicates that the server is shutting down.
	ErrServiceUnavailable = 5001
)
