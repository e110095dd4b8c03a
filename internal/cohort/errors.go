package cohort

import "errors"

var (
	// ErrParse marks a report row whose offset or metric could not be read.
	ErrParse = errors.New("cohort: malformed report row")

	// ErrDataIntegrity marks an averages bucket that ended up empty.
	ErrDataIntegrity = errors.New("cohort: data integrity violation")

	// ErrAlignment marks current and previous series that cannot be joined by offset.
	ErrAlignment = errors.New("cohort: series offsets do not align")
)
