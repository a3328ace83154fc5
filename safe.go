// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package dynlib

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"

	"github.com/DataDog/go-dynlib/internal/loader"
)

// PanicError wraps a panic recovered while turning a symbol into a Go
// function, typically because the asserted function type cannot cross the C
// boundary (variadic functions, Go-only types such as maps or channels...).
// Panics raised while the foreign code runs are not recovered.
type PanicError struct {
	// Symbol is the name of the symbol being turned into a function.
	Symbol string
	// Type is the function type asserted by the caller.
	Type reflect.Type
	// Err is the recovered panic value.
	Err error
}

// Unwrap the error and return it.
// Required by errors.Is and errors.As functions.
func (e *PanicError) Unwrap() error {
	return e.Err
}

// Error returns the error string representation.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic while binding symbol '%s' as %v: %v", e.Symbol, e.Type, e.Err)
}

// makeFunc points the function behind fptr at the address of sym, recovering
// any panic into a *PanicError.
func makeFunc(sym *Symbol, fptr any) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			// Note that panic(nil) matches this case and cannot be really tested for.
			return
		}

		switch actual := r.(type) {
		case error:
			err = errors.WithStack(actual)
		case string:
			err = errors.New(actual)
		default:
			err = errors.Errorf("%v", r)
		}

		err = &PanicError{Symbol: sym.name, Type: reflect.TypeOf(fptr).Elem(), Err: err}
	}()

	loader.MakeFunc(fptr, sym.addr)
	return nil
}
