// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

//go:build windows && (amd64 || arm64) && !dynlib.disabled

package loader

import (
	"strings"
	"syscall"
	"unsafe"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/windows"

	"github.com/DataDog/go-dynlib/errors"
	"github.com/DataDog/go-dynlib/internal/log"
)

// The RTLD modes have no LoadLibrary counterpart and are ignored.
const (
	ModeLazy   Mode = 0
	ModeNow    Mode = 0
	ModeGlobal Mode = 0
	ModeLocal  Mode = 0
)

const facilityWin32 = 7

var (
	modkernel32        = windows.NewLazySystemDLL("kernel32.dll")
	procFormatMessageW = modkernel32.NewProc("FormatMessageW")
)

// Open maps the DLL at path into the process. The error code is taken from
// the failing LoadLibrary call itself rather than from a later GetLastError.
func Open(path string, _ Mode) (Handle, error) {
	mustNotContainNUL("library path", path)

	log.Debugf("LoadLibrary(%q)", path)
	handle, err := windows.LoadLibrary(path)
	log.Debugf("LoadLibrary(%q) = 0x%x, %v", path, uintptr(handle), err)
	if err != nil || handle == 0 {
		return 0, &errors.LoadError{Path: path, Reason: reason(err)}
	}

	return Handle(handle), nil
}

// Resolve looks up the exported symbol name in the module identified by h.
// The returned error is a *errors.ResolveError whose Library field is left
// for the caller to fill.
func Resolve(h Handle, name string) (uintptr, error) {
	mustNotContainNUL("symbol name", name)

	log.Debugf("GetProcAddress(0x%x, %q)", uintptr(h), name)
	addr, err := windows.GetProcAddress(windows.Handle(h), name)
	log.Debugf("GetProcAddress(0x%x, %q) = 0x%x, %v", uintptr(h), name, addr, err)
	if err != nil || addr == 0 {
		return 0, &errors.ResolveError{Symbol: name, Reason: reason(err)}
	}

	return addr, nil
}

// Close releases the module identified by h.
func Close(h Handle) error {
	log.Debugf("FreeLibrary(0x%x)", uintptr(h))
	err := windows.FreeLibrary(windows.Handle(h))
	log.Debugf("FreeLibrary(0x%x) = %v", uintptr(h), err)
	return err
}

// MakeFunc sets the function pointed to by fptr so that calling it jumps to
// addr with the platform calling convention. It panics if fptr is not a
// pointer to a function or uses types purego cannot marshal. Nothing checks
// that the function type matches what lives at addr.
func MakeFunc(fptr any, addr uintptr) {
	purego.RegisterFunc(fptr, addr)
}

// lastErrorString formats the Win32 error code carried by err. There is no
// loader-owned error slot on Windows, so the code of the failing call is
// converted to an HRESULT and rendered by FormatMessage.
func lastErrorString(err error) (string, bool) {
	code, ok := err.(syscall.Errno)
	if !ok {
		code, ok = windows.GetLastError().(syscall.Errno)
		if !ok {
			return "", false
		}
	}
	return formatHRESULT(hresultFromWin32(uint32(code)))
}

// hresultFromWin32 mirrors the HRESULT_FROM_WIN32 macro.
func hresultFromWin32(code uint32) int32 {
	if int32(code) <= 0 {
		return int32(code)
	}
	return int32((code & 0x0000FFFF) | (facilityWin32 << 16) | 0x80000000)
}

// formatHRESULT asks the system for the message of hr. The buffer is allocated
// by FormatMessageW and released with LocalFree.
func formatHRESULT(hr int32) (string, bool) {
	var buf *uint16
	n, _, _ := procFormatMessageW.Call(
		windows.FORMAT_MESSAGE_ALLOCATE_BUFFER|windows.FORMAT_MESSAGE_FROM_SYSTEM|windows.FORMAT_MESSAGE_IGNORE_INSERTS,
		0,
		uintptr(uint32(hr)),
		0, // default language
		uintptr(unsafe.Pointer(&buf)),
		0,
		0,
	)
	if n == 0 || buf == nil {
		return "", false
	}
	defer windows.LocalFree(windows.Handle(uintptr(unsafe.Pointer(buf))))

	msg := strings.TrimSpace(windows.UTF16ToString(unsafe.Slice(buf, n)))
	return msg, msg != ""
}
