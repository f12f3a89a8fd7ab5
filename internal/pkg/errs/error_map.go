package errs

import "net/http"

// errorMap holds the message and HTTP status template for every code.
var errorMap = map[int]CustomError{
	ErrNotFound:          {Code: ErrNotFound, Message: "Not found.", Status: http.StatusNotFound},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	ErrRoomSelectorTooLong: {Code: ErrRoomSelectorTooLong, Message: "Room number is too large.", Status: http.StatusBadRequest},
	ErrWebSocketUpgrade:    {Code: ErrWebSocketUpgrade, Message: "Unable to open a room connection: %s", Status: http.StatusBadRequest},

	ErrUnauthorized:     {Code: ErrUnauthorized, Message: "Unauthorized.", Status: http.StatusUnauthorized},
	ErrOriginNotAllowed: {Code: ErrOriginNotAllowed, Message: "Origin not allowed.", Status: http.StatusForbidden},

	ErrUnknown:            {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrServiceUnavailable: {Code: ErrServiceUnavailable, Message: "Service is unavailable.", Status: http.StatusServiceUnavailable},
}
