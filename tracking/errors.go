package tracking

import "fmt"

// APIError is returned when the tracking server answers with a non-2xx
// status. Code and Message carry the server's error payload when present.
type APIError struct {
	Endpoint   string
	StatusCode int
	Code       string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tracking %s: %d %s: %s", e.Endpoint, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("tracking %s: %d: %s", e.Endpoint, e.StatusCode, e.Message)
}
