package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services and adapters.
var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidConnectionID   = errors.New("invalid connection id")
	ErrInvalidSetting        = errors.New("invalid setting")
	ErrInvalidMAC            = errors.New("invalid MAC address")
	ErrNoGateway             = errors.New("no default gateway")
	ErrPrivilegedUnavailable = errors.New("privileged service unavailable")
	ErrLookupFailed          = errors.New("lookup failed")
	ErrQueueFull             = errors.New("queue full")
	ErrInvalidAddress        = errors.New("invalid address")
	ErrInvalidPath           = errors.New("application path required")
	ErrInvalidRange          = errors.New("invalid time range")
	ErrNotConfigured         = errors.New("not configured")
)

// OSError wraps a failure reading OS state (connection table, counters,
// neighbor table) with the operation that failed.
type OSError struct {
	Op  string
	Err error
}

func (e *OSError) Error() string {
	return fmt.Sprintf("os %s failed: %v", e.Op, e.Err)
}

func (e *OSError) Unwrap() error {
	return e.Err
}

// PrivilegedError carries the message reported by the privileged service.
type PrivilegedError struct {
	Op      string
	Message string
}

func (e *PrivilegedError) Error() string {
	return fmt.Sprintf("privileged %s: %s", e.Op, e.Message)
}
