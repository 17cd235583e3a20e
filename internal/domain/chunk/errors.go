package chunk

import "errors"

// Sentinel kinds for chunk errors. Callers classify with errors.Is.
var (
	// ErrMalformedChunk covers unrecognized compression headers and
	// truncated streams. Fatal for the chunk, not for the match.
	ErrMalformedChunk = errors.New("malformed chunk")

	// ErrPayloadTooLarge is returned when the inflated payload exceeds
	// the configured limit.
	ErrPayloadTooLarge = errors.New("inflated payload exceeds limit")
)
