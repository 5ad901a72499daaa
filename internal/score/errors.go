package score

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidTimezone is returned when the requested zone is not a known IANA identifier.
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrInvalidSession is returned when a session cannot be placed on a calendar day.
	ErrInvalidSession = errors.New("invalid session")

	// ErrMissingReferenceDate is returned when a request carries no reference instant.
	ErrMissingReferenceDate = errors.New("reference date must be specified")
)

// InvalidTimezoneError carries the rejected zone name.
type InvalidTimezoneError struct {
	Name string
	err  error
}

func (e *InvalidTimezoneError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("invalid timezone %q: %v", e.Name, e.err)
	}
	return fmt.Sprintf("invalid timezone %q", e.Name)
}

func (e *InvalidTimezoneError) Unwrap() []error {
	if e.err == nil {
		return []error{ErrInvalidTimezone}
	}
	return []error{ErrInvalidTimezone, e.err}
}

// InvalidSessionError identifies the session that made the whole request fail.
type InvalidSessionError struct {
	ID     string
	Reason string
}

func (e *InvalidSessionError) Error() string {
	return fmt.Sprintf("invalid session %q: %s", e.ID, e.Reason)
}

func (e *InvalidSessionError) Unwrap() error {
	return ErrInvalidSession
}

// LoadLocation resolves an IANA zone name. An empty name means UTC. "Local" is rejected
// because its meaning depends on the host running the service.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC, nil
	}
	if strings.EqualFold(name, "local") {
		return nil, &InvalidTimezoneError{Name: name}
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &InvalidTimezoneError{Name: name, err: err}
	}
	return loc, nil
}
