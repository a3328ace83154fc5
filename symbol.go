// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package dynlib

import "github.com/DataDog/go-dynlib/errors"

// Symbol is an exported symbol resolved by [Library.Symbol]. It carries no
// type information about what it points to, and is only valid as long as the
// [Library] it was resolved from is not closed.
type Symbol struct {
	lib  *Library
	name string
	addr uintptr
}

func newSymbol(lib *Library, name string, addr uintptr) *Symbol {
	return &Symbol{lib: lib, name: name, addr: addr}
}

// Name returns the name the symbol was resolved with.
func (sym *Symbol) Name() string {
	return sym.name
}

// Library returns the library the symbol was resolved from.
func (sym *Symbol) Library() *Library {
	return sym.lib
}

// With calls fn with the symbol reinterpreted as a function of type F, and
// returns what fn returns.
//
// # Safety
//
// This is the one place where the caller asserts what the symbol is. Nothing
// checks that F matches the exported function: not its arity, not its
// argument or result types, not its calling convention. Asserting the wrong
// type is undefined behavior, which may crash the process, corrupt memory or
// silently return garbage.
//
// The function value handed to fn must not escape it: the library is kept
// loaded while fn runs, and may be unloaded as soon as it returns.
//
// With returns an error matching errors.ErrLibraryReleased when the library
// was closed, and a *[PanicError] when F is not a function type or has
// parameter or result types that cannot cross the C boundary.
//
//	sum, err := dynlib.With(sym, func(add func(int32, int32) int32) int32 {
//		return add(2, 4)
//	})
func With[F any, R any](sym *Symbol, fn func(F) R) (R, error) {
	var zero R
	if !sym.lib.retain() {
		return zero, &errors.ReleasedError{Library: sym.lib.path, Symbol: sym.name}
	}
	defer sym.lib.release()

	var f F
	if err := makeFunc(sym, &f); err != nil {
		return zero, err
	}

	return fn(f), nil
}

// Do is [With] for callers that have no result to return, such as when
// calling a function returning void. The same safety rules apply.
func Do[F any](sym *Symbol, fn func(F)) error {
	_, err := With(sym, func(f F) struct{} {
		fn(f)
		return struct{}{}
	})
	return err
}
