package api

import "fmt"

// StatusError is a non-2xx response from the backend. Message comes from the
// structured error payload when the server sent one, otherwise from the raw
// response body.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Code)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Code, e.Message)
}

// Transient reports whether the failure is worth retrying. Client/request
// errors (malformed payload, rejected content) are permanent; server-side
// and throttling failures are not.
func (e *StatusError) Transient() bool {
	switch {
	case e.Code >= 500:
		return true
	case e.Code == 408 || e.Code == 429:
		return true
	default:
		return false
	}
}
