// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Build when the target OS or architecture are not supported
//go:build !((linux || darwin || windows) && (amd64 || arm64)) || dynlib.disabled

package loader

import "github.com/DataDog/go-dynlib/internal/support"

const (
	ModeLazy   Mode = 0
	ModeNow    Mode = 0
	ModeGlobal Mode = 0
	ModeLocal  Mode = 0
)

func Open(path string, _ Mode) (Handle, error) {
	mustNotContainNUL("library path", path)
	return 0, support.Usable()
}

func Resolve(_ Handle, name string) (uintptr, error) {
	mustNotContainNUL("symbol name", name)
	return 0, support.Usable()
}

func Close(Handle) error {
	return support.Usable()
}

func MakeFunc(any, uintptr) {
	panic(support.Usable())
}

func lastErrorString(error) (string, bool) {
	return "", false
}
