// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

//go:build windows && (amd64 || arm64) && !dynlib.disabled

package loader

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows"
)

func TestHRESULTFromWin32(t *testing.T) {
	require.Equal(t, int32(0), hresultFromWin32(0))
	// ERROR_FILE_NOT_FOUND
	require.Equal(t, int32(-2147024894), hresultFromWin32(2))
	// Values that already are HRESULTs are kept as-is
	require.Equal(t, int32(-2147024894), hresultFromWin32(0x80070002))
}

func TestLastErrorString(t *testing.T) {
	msg, ok := lastErrorString(syscall.Errno(windows.ERROR_MOD_NOT_FOUND))
	require.True(t, ok)
	require.NotEmpty(t, msg)
	require.NotContains(t, msg, "\r\n")
}

func TestReason(t *testing.T) {
	require.NotEmpty(t, reason(syscall.Errno(windows.ERROR_PROC_NOT_FOUND)))
	require.NotEmpty(t, reason(nil))
}
