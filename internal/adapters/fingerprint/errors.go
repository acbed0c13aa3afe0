package fingerprint

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMAC     = errors.New("invalid MAC address")
	ErrVendorNotFound = errors.New("vendor not found")
	ErrRegistryClosed = errors.New("OUI registry is closed")
	ErrEmptyManuf     = errors.New("manuf file contains no entries")
)

// MACError describes input ParseMAC rejected. It matches ErrInvalidMAC.
type MACError struct {
	Input  string
	Reason string
}

func (e *MACError) Error() string {
	return fmt.Sprintf("mac %q: %s", e.Input, e.Reason)
}

func (e *MACError) Is(target error) bool { return target == ErrInvalidMAC }

// registryError tags a SQLite failure with the step that failed.
type registryError struct {
	step string
	err  error
}

func (e *registryError) Error() string { return "oui registry " + e.step + ": " + e.err.Error() }
func (e *registryError) Unwrap() error { return e.err }

func failed(step string, err error) error {
	return &registryError{step: step, err: err}
}
