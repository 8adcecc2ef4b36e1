package kuma

import (
	"errors"
	"fmt"
)

var ErrClosed = errors.New("uptime kuma session closed")

// APIError is a failure reported by the server in an acknowledgement.
type APIError struct {
	Event string
	Msg   string
}

func (e *APIError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s rejected by server", e.Event)
	}
	return fmt.Sprintf("%s rejected by server: %s", e.Event, e.Msg)
}

func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
