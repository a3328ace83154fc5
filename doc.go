// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package dynlib loads shared libraries at runtime and calls the functions
// they export, without cgo and without linking against them.
//
// A [Library] is opened from a path with [Open], symbols are resolved from it
// with [Library.Symbol], and a [Symbol] is called through [With], asserting
// the Go function type it stands for:
//
//	lib, err := dynlib.Open("libexample.so")
//	if err != nil {
//		return err
//	}
//	defer lib.Close()
//
//	add, err := lib.Symbol("add")
//	if err != nil {
//		return err
//	}
//
//	sum, err := dynlib.With(add, func(add func(int32, int32) int32) int32 {
//		return add(2, 4)
//	})
//
// [Bind] and [Load] resolve a whole struct of declared functions at once, and
// the dynlib-gen command generates such wrappers from a manifest.
//
// # Safety
//
// There is no way to verify what a symbol points to. [With] and the function
// declarations given to [Bind] are trusted blindly: a wrong signature is
// undefined behavior. Closing a [Library] invalidates every symbol and bound
// function obtained from it; using them afterwards fails with an error
// matching [errors.ErrLibraryReleased] instead of calling unmapped code.
//
// Supported targets are linux and darwin on amd64 and arm64 (through dlopen),
// and windows on amd64 and arm64 (through LoadLibrary). Building with the
// `dynlib.disabled` tag turns every operation into an error.
package dynlib
