package response

import "net/http"

// Console facing messages per HTTP status
var msg = map[int]string{
	http.StatusBadRequest:            "Invalid input data",
	http.StatusUnauthorized:          "Unauthorized",
	http.StatusNotFound:              "Resource not found",
	http.StatusConflict:              "Resource already exists",
	http.StatusRequestEntityTooLarge: "Upload too large",
	http.StatusUnsupportedMediaType:  "Unsupported media type",
	http.StatusTooManyRequests:       "Rate limit exceeded",
	http.StatusInternalServerError:   "Internal server error",
	http.StatusServiceUnavailable:    "Service unavailable",
}

// Message returns the console message for status, falling back to the
// standard status text.
func Message(status int) string {
	if m, ok := msg[status]; ok {
		return m
	}
	return http.StatusText(status)
}
