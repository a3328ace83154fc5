// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Build when the target OS or architecture has no platform loader
//go:build !((linux || darwin || windows) && (amd64 || arm64))

package support

import (
	"runtime"

	"github.com/DataDog/go-dynlib/errors"
)

func init() {
	supportErrors = append(supportErrors, errors.UnsupportedTargetError{OS: runtime.GOOS, Arch: runtime.GOARCH})
}
