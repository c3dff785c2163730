package apiclient

import (
	"encoding/json"
	"fmt"
	"strings"
)

// HTTPError is returned for any non-2xx backend response
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	if detail := e.Detail(); detail != "" {
		return fmt.Sprintf("%s %s: status=%d: %s", e.Method, e.Path, e.StatusCode, detail)
	}
	return fmt.Sprintf("%s %s: status=%d", e.Method, e.Path, e.StatusCode)
}

// Detail returns the backend's human readable `detail` message, if the body carries one
func (e *HTTPError) Detail() string {
	if e == nil || len(e.Body) == 0 {
		return ""
	}
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(e.Body, &payload); err != nil {
		return ""
	}
	detail, ok := payload.Detail.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(detail)
}

// RefreshError is returned in place of the first 401 when the session could not be renewed.
// The caller should treat it as "must sign in again".
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}
