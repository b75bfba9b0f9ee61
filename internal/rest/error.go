package rest

import (
	"encoding/json"
	"fmt"
	"time"
)

// Error is a non-2xx answer from a node, carrying the node's diagnostics.
type Error struct {
	Timestamp int64  `json:"timestamp"`
	Status    int    `json:"status"`
	Reason    string `json:"error"`
	Trace     string `json:"trace,omitempty"`
	Message   string `json:"message"`
	Path      string `json:"path"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rest request failed with response code: %d", e.Status)
	}
	return fmt.Sprintf("rest request failed with response code: %d | message: %s", e.Status, e.Message)
}

func newError(status int, endpoint string, body []byte) *Error {
	var e Error
	if err := json.Unmarshal(body, &e); err == nil && e.Status != 0 {
		return &e
	}
	return &Error{
		Timestamp: time.Now().UnixMilli(),
		Status:    status,
		Reason:    "Unknown Error",
		Message:   "Unexpected error response from node",
		Path:      endpoint,
	}
}
