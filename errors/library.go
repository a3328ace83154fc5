// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package errors

import (
	"errors"
	"fmt"
)

// UnknownReason is used as the diagnostic when the platform reports a failure
// but does not provide any message for it.
const UnknownReason = "Unknown Error"

// ErrLibraryReleased is matched by [ReleasedError] values, so callers can use
// errors.Is(err, ErrLibraryReleased).
var ErrLibraryReleased = errors.New("library was released")

// LoadError is returned when the platform fails to open a shared library.
type LoadError struct {
	// Path is the path given to the platform loader.
	Path string
	// Reason is the diagnostic reported by the platform at the time of failure.
	Reason string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("error opening shared library '%s'. Reason: %s", e.Path, e.Reason)
}

// ResolveError is returned when a symbol cannot be found in an opened library.
type ResolveError struct {
	// Library is the path of the library the lookup was made against.
	Library string
	// Symbol is the name that was looked up.
	Symbol string
	// Reason is the diagnostic reported by the platform at the time of failure.
	Reason string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("cannot load symbol '%s' from library '%s'. Reason: %s", e.Symbol, e.Library, e.Reason)
}

// ReleasedError is returned (or panicked with, from bound functions) when a
// symbol is used after its library was closed.
type ReleasedError struct {
	Library string
	Symbol  string
}

func (e *ReleasedError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("library '%s' was released", e.Library)
	}
	return fmt.Sprintf("symbol '%s' used after library '%s' was released", e.Symbol, e.Library)
}

func (*ReleasedError) Is(target error) bool {
	return target == ErrLibraryReleased
}

// UnsupportedTargetError is returned by every loading operation when the
// target operating system or architecture has no platform loader.
type UnsupportedTargetError struct {
	OS   string
	Arch string
}

func (e UnsupportedTargetError) Error() string {
	return fmt.Sprintf("the target operating-system %s or architecture %s are not supported", e.OS, e.Arch)
}

// ManuallyDisabledError is returned by every loading operation when the
// `dynlib.disabled` build tag is set.
type ManuallyDisabledError struct{}

func (ManuallyDisabledError) Error() string {
	return "dynamic loading was manually disabled using the `dynlib.disabled` go build tag"
}
