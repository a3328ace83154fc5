// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Purego only works on linux/macOS with amd64 and arm64 from now
//go:build (linux || darwin) && (amd64 || arm64) && !dynlib.disabled

package loader

import (
	"runtime"

	"github.com/ebitengine/purego"

	"github.com/DataDog/go-dynlib/errors"
	"github.com/DataDog/go-dynlib/internal/log"
)

const (
	ModeLazy   Mode = purego.RTLD_LAZY
	ModeNow    Mode = purego.RTLD_NOW
	ModeGlobal Mode = purego.RTLD_GLOBAL
	ModeLocal  Mode = purego.RTLD_LOCAL
)

// Open maps the shared library at path into the process.
func Open(path string, mode Mode) (Handle, error) {
	mustNotContainNUL("library path", path)

	log.Debugf("Dlopen(%q, 0x%x)", path, int(mode))
	handle, err := dlopen(path, int(mode))
	log.Debugf("Dlopen(%q, 0x%x) = 0x%x, %v", path, int(mode), handle, err)
	if err != nil || handle == 0 {
		return 0, &errors.LoadError{Path: path, Reason: reason(err)}
	}

	return Handle(handle), nil
}

// Resolve looks up the exported symbol name in the library identified by h.
// The returned error is a *errors.ResolveError whose Library field is left
// for the caller to fill.
func Resolve(h Handle, name string) (uintptr, error) {
	mustNotContainNUL("symbol name", name)

	log.Debugf("Dlsym(0x%x, %q)", uintptr(h), name)
	addr, err := dlsym(uintptr(h), name)
	log.Debugf("Dlsym(0x%x, %q) = 0x%x, %v", uintptr(h), name, addr, err)
	if err != nil || addr == 0 {
		return 0, &errors.ResolveError{Symbol: name, Reason: reason(err)}
	}

	return addr, nil
}

// Close releases the library identified by h.
func Close(h Handle) error {
	log.Debugf("Dlclose(0x%x)", uintptr(h))
	err := dlclose(uintptr(h))
	log.Debugf("Dlclose(0x%x) = %v", uintptr(h), err)
	return err
}

// dlerror() state is per thread and purego reads it in a second call after
// the failing one. The goroutine stays on the same thread for both so the
// diagnostic is the one of this failure.

func dlopen(path string, mode int) (uintptr, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	return purego.Dlopen(path, mode)
}

func dlsym(handle uintptr, name string) (uintptr, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	return purego.Dlsym(handle, name)
}

func dlclose(handle uintptr) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	return purego.Dlclose(handle)
}

// MakeFunc sets the function pointed to by fptr so that calling it jumps to
// addr with the C calling convention. It panics if fptr is not a pointer to a
// function or uses types purego cannot marshal. Nothing checks that the
// function type matches what lives at addr.
func MakeFunc(fptr any, addr uintptr) {
	purego.RegisterFunc(fptr, addr)
}

// lastErrorString returns the dlerror() message purego captured into err.
func lastErrorString(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	msg := err.Error()
	return msg, msg != ""
}
