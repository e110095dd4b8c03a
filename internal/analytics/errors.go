package analytics

import "errors"

var (
	// ErrAuthentication marks missing or rejected service account credentials.
	ErrAuthentication = errors.New("analytics: authentication failed")

	// ErrRequest marks a report request the API rejected or answered unreadably.
	ErrRequest = errors.New("analytics: report request failed")
)
