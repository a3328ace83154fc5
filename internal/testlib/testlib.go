// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package testlib builds the shared library the tests load, and knows where
// the system C library lives on each platform.
package testlib

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	_ "embed"
)

//go:embed testdata/libexample.c
var exampleSource []byte

// Exported symbols of the example library.
const (
	SymbolHello      = "hello"
	SymbolHelloCount = "hello_count"
	SymbolAdd        = "add"
	SymbolMul64      = "mul64"
	SymbolScale      = "scale"
	SymbolIsPositive = "is_positive"
)

// FileName returns the platform file name of a library called base.
func FileName(base string) string {
	switch runtime.GOOS {
	case "windows":
		return base + ".dll"
	case "darwin":
		return "lib" + base + ".dylib"
	default:
		return "lib" + base + ".so"
	}
}

// Compiler returns the C compiler to use, honoring $CC, or "" when none is
// installed.
func Compiler() string {
	candidates := []string{"cc", "gcc", "clang"}
	if cc := os.Getenv("CC"); cc != "" {
		candidates = append([]string{cc}, candidates...)
	}
	for _, candidate := range candidates {
		if path, err := exec.LookPath(candidate); err == nil {
			return path
		}
	}
	return ""
}

// Build compiles the example library into a fresh temporary directory and
// returns its path. Each call yields a distinct path, so tests never share a
// loaded image. The test is skipped when no C compiler is available.
func Build(tb testing.TB) string {
	tb.Helper()

	cc := Compiler()
	if cc == "" {
		tb.Skip("no C compiler available to build the example library")
	}

	dir := tb.TempDir()
	src := filepath.Join(dir, "libexample.c")
	if err := os.WriteFile(src, exampleSource, 0o600); err != nil {
		tb.Fatalf("error writing example source: %v", err)
	}

	out := filepath.Join(dir, FileName("example"))
	args := []string{"-shared", "-o", out, src}
	if runtime.GOOS != "windows" {
		args = append([]string{"-fPIC"}, args...)
	}

	cmd := exec.Command(cc, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		tb.Skipf("cannot build the example library with %s: %v\n%s", cc, err, output)
	}

	return out
}

// SystemLibrary returns the name of the C runtime library of the host, which
// exports the "abs" function the tests rely on.
func SystemLibrary() string {
	switch runtime.GOOS {
	case "windows":
		return "msvcrt.dll"
	case "darwin":
		return "/usr/lib/libSystem.B.dylib"
	default:
		return "libc.so.6"
	}
}

// MissingLibrary returns a library name no platform can resolve.
func MissingLibrary() string {
	return FileName("doesnotexist")
}

// Mapped reports whether path is currently mapped in the process address
// space. Only Linux exposes this reliably; ok is false elsewhere.
func Mapped(path string) (mapped bool, ok bool) {
	if runtime.GOOS != "linux" {
		return false, false
	}
	maps, err := os.ReadFile("/proc/self/maps")
	if err != nil {
		return false, false
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	return containsLine(maps, resolved), true
}
