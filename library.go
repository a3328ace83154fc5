// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package dynlib

import (
	"fmt"
	"sync/atomic"

	"github.com/DataDog/go-dynlib/errors"
	"github.com/DataDog/go-dynlib/internal/dump"
	"github.com/DataDog/go-dynlib/internal/loader"
	"github.com/DataDog/go-dynlib/internal/log"
)

// Library is a shared library opened by [Open] or [OpenBytes]. It must be
// disposed of by calling [Library.Close] once no longer in use, which
// invalidates every [Symbol] resolved from it.
type Library struct {
	// Lock-less reference counter. The library itself counts for one
	// reference, dropped by [Library.Close]; every call in flight through a
	// symbol holds another one. The platform close happens only when the
	// counter reaches 0, so a concurrent Close never unmaps code that is
	// still executing.
	refCounter atomic.Int32
	// Set by the first [Library.Close]: no new call may start afterwards.
	closed atomic.Bool

	handle  loader.Handle
	path    string
	cleanup func() error
}

// Open loads the shared library at path. On failure the returned error is an
// *errors.LoadError carrying the platform diagnostic.
//
// A path containing a NUL byte is a programming error and panics.
func Open(path string, options ...Option) (*Library, error) {
	cfg := newConfig(options...)

	handle, err := loader.Open(path, cfg.mode)
	if err != nil {
		return nil, err
	}

	log.Debugf("opened library %s", path)
	return wrapLibrary(handle, path), nil
}

// OpenBytes loads a shared library from its in-memory image, which may be
// gzip-compressed. The image is written to an anonymous memory file on Linux
// and to a temporary file elsewhere, removed once the library is released.
// The name is used for diagnostics and to pick the temporary file name.
func OpenBytes(name string, image []byte, options ...Option) (*Library, error) {
	path, cleanup, err := dump.Dump(name, image)
	if err != nil {
		return nil, fmt.Errorf("error dumping library image %s: %w", name, err)
	}

	lib, err := Open(path, options...)
	if err != nil {
		if cleanupErr := cleanup(); cleanupErr != nil {
			log.Warnf("error cleaning up library image %s: %v", name, cleanupErr)
		}
		return nil, err
	}

	lib.cleanup = cleanup
	return lib, nil
}

// wrapLibrary wraps the provided platform handle into a [Library]. The
// returned [Library] has a reference count of 1.
func wrapLibrary(handle loader.Handle, path string) *Library {
	lib := &Library{handle: handle, path: path}
	lib.refCounter.Store(1) // We count the library itself in the counter
	return lib
}

// Path returns the path the library was opened from.
func (lib *Library) Path() string {
	return lib.path
}

// Symbol resolves the exported symbol name. On failure the returned error is
// an *errors.ResolveError carrying the platform diagnostic, and the library
// remains usable. Resolving from a closed library returns an error matching
// errors.ErrLibraryReleased.
//
// A name containing a NUL byte is a programming error and panics.
func (lib *Library) Symbol(name string) (*Symbol, error) {
	if !lib.retain() {
		return nil, &errors.ReleasedError{Library: lib.path, Symbol: name}
	}
	defer lib.release()

	addr, err := loader.Resolve(lib.handle, name)
	if err != nil {
		if resolveErr, ok := err.(*errors.ResolveError); ok {
			resolveErr.Library = lib.path
		}
		return nil, err
	}

	return newSymbol(lib, name, addr), nil
}

// Close releases the library. Calls to Close after the first one are no-ops.
// The platform unload happens once every call in flight has returned; errors
// reported by the platform are logged and otherwise dropped.
func (lib *Library) Close() {
	if lib.closed.Swap(true) {
		return
	}
	lib.release()
}

// Closed reports whether [Library.Close] was called.
func (lib *Library) Closed() bool {
	return lib.closed.Load()
}

// retain increments the reference counter of this [Library]. Returns true if
// the [Library] is still valid, false if it is no longer usable. Calls to
// [Library.retain] must be balanced with calls to [Library.release].
func (lib *Library) retain() bool {
	if lib.closed.Load() {
		return false
	}
	return lib.addRefCounter(1) > 0
}

// release decrements the reference counter and unloads the library when it
// reaches 0.
func (lib *Library) release() {
	if lib.addRefCounter(-1) != 0 {
		// Either the counter is still positive (this Library is still referenced), or it had previously
		// reached 0 and some other call has done the cleanup already.
		return
	}

	if err := loader.Close(lib.handle); err != nil {
		log.Warnf("error closing library %s: %v", lib.path, err)
	}
	lib.handle = 0 // Makes it easy to spot use-after-free/double-free issues

	if lib.cleanup != nil {
		if err := lib.cleanup(); err != nil {
			log.Warnf("error cleaning up library image %s: %v", lib.path, err)
		}
		lib.cleanup = nil
	}
	log.Debugf("released library %s", lib.path)
}

// addRefCounter adds x to Library.refCounter. The return valid indicates whether the refCounter
// reached 0 as part of this call or not, which can be used to perform "only-once" activities:
//
// * result > 0    => the Library is still usable
// * result == 0   => the Library is no longer usable, ref counter reached 0 as part of this call
// * result == -1  => the Library is no longer usable, ref counter was already 0 previously
func (lib *Library) addRefCounter(x int32) int32 {
	// We use a CAS loop to avoid setting the refCounter to a negative value.
	for {
		current := lib.refCounter.Load()
		if current <= 0 {
			// The object had already been released
			return -1
		}

		next := current + x
		if swapped := lib.refCounter.CompareAndSwap(current, next); swapped {
			if next < 0 {
				return 0
			}
			return next
		}
	}
}
