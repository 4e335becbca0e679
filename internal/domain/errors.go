package domain

import (
	"errors"
	"fmt"
)

// MalformedRecordError reports a row that is missing its key or carries
// a value that does not parse as an IPv4 dotted quad.
type MalformedRecordError struct {
	HostID string // may be empty when the key itself is missing
	Field  string
	Value  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.HostID == "" {
		return fmt.Sprintf("malformed record: %s", e.Reason)
	}
	if e.Field == "" {
		return fmt.Sprintf("malformed record %q: %s", e.HostID, e.Reason)
	}
	return fmt.Sprintf("malformed record %q: field %s=%q: %s", e.HostID, e.Field, e.Value, e.Reason)
}

// DuplicateKeyError reports a host_id that appears more than once in a
// topology source.
type DuplicateKeyError struct {
	HostID string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate host %q", e.HostID)
}

// NotFoundError reports a lookup miss.
type NotFoundError struct {
	HostID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("host %q not found", e.HostID)
}

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
