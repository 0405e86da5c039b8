package connector

import "fmt"

// Error represents a failure while probing one connector.
type Error struct {
	Connector string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("connector %s: %s: %v", e.Connector, e.Message, e.Cause)
	}
	return fmt.Sprintf("connector %s: %s", e.Connector, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
