// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package loader holds the platform primitives used to open shared libraries,
// resolve their exported symbols and release them. Exactly one implementation
// is compiled in, selected by build constraints:
//
//   - loader_unix.go: dlopen(3) and friends through purego
//   - loader_windows.go: LoadLibrary and friends through golang.org/x/sys/windows
//   - loader_unsupported.go: every operation reports why the target is unsupported
package loader

import (
	"fmt"
	"strings"

	"github.com/DataDog/go-dynlib/errors"
)

// Handle is the opaque value identifying a library opened by [Open]. It must
// never be interpreted outside of this package.
type Handle uintptr

// Mode is the set of flags given to the platform when opening a library.
type Mode int

// mustNotContainNUL panics when s cannot be passed to the platform as a
// NUL-terminated string. Callers are trusted to provide well-formed paths and
// names, so this is a programming error rather than a returned error.
func mustNotContainNUL(what, s string) {
	if strings.IndexByte(s, 0) >= 0 {
		panic(fmt.Sprintf("dynlib: %s %q contains a NUL byte", what, s))
	}
}

// reason turns the platform diagnostic for err into a non-empty string.
func reason(err error) string {
	if msg, ok := lastErrorString(err); ok {
		return msg
	}
	return errors.UnknownReason
}
