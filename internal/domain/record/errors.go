package record

import "errors"

// Sentinel kinds for record extraction. Callers classify with errors.Is.
var (
	// ErrNoRecognizedRecords means a scan found zero candidate markers.
	// Reported, not fatal; the match simply yields an empty event list.
	ErrNoRecognizedRecords = errors.New("no recognized records")
)
