package soliscloud

import "fmt"

// TransportError wraps timeout and connection level failures that happened
// before an HTTP response was read.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("soliscloud: transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPError is a non-200 response from the API endpoint.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("soliscloud: HTTP %d: %s", e.Status, e.Body)
}

// DecodeError indicates a response body that was not valid JSON or did not
// have the expected shape.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("soliscloud: invalid response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// APIError is an application level failure reported in the response envelope.
// Code is empty for failures detected client side, such as a missing payload.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("soliscloud: %s", e.Message)
	}

	return fmt.Sprintf("soliscloud: api error %s: %s", e.Code, e.Message)
}
