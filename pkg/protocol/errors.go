package protocol

import "fmt"

// InvalidRequestError is returned by Decode when a request line cannot
// be parsed into a well-formed Request.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return e.Reason
}

// ErrInvalidResponseFormat is returned by DecodeResponse when the
// first line's leading byte does not identify a known response kind.
var ErrInvalidResponseFormat = fmt.Errorf("invalid response format")

// ErrEmptyResponse is returned by DecodeResponse when there is no
// input to decode.
var ErrEmptyResponse = fmt.Errorf("empty response")
