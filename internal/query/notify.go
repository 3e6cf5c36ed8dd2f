package query

import (
	"errors"

	"token-audit/internal/upstream"
)

// DefaultErrorTitle is shown when a failure carries no usable message.
const DefaultErrorTitle = "Something went wrong! Please try Again"

// Notification is a transient user-facing message raised by a failed fetch.
type Notification struct {
	Title  string `json:"title"`
	Status string `json:"status"`
}

// NotificationFor classifies err. Failures with a structured response show the
// response description; any other failure shows its message.
func NotificationFor(err error) Notification {
	n := Notification{Title: DefaultErrorTitle, Status: "error"}
	if err == nil {
		return n
	}

	var httpErr *upstream.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Description != "" {
			n.Title = httpErr.Description
		}
		return n
	}

	if msg := err.Error(); msg != "" {
		n.Title = msg
	}
	return n
}
