// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

//go:build linux

package dump

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// dump uses an anonymous memory file so nothing touches the filesystem.
// It falls back to a temporary file on kernels without memfd_create.
func dump(name string, image []byte) (path string, closer func() error, err error) {
	fd, err := unix.MemfdCreate(name, unix.MFD_CLOEXEC)
	if err != nil {
		if errors.Is(err, unix.ENOSYS) {
			return dumpTempFile(name, image)
		}
		return "", nil, fmt.Errorf("error creating memfd: %w", err)
	}

	file := os.NewFile(uintptr(fd), fmt.Sprintf("/proc/self/fd/%d", fd))
	if file == nil {
		return "", nil, errors.New("error creating file from fd")
	}

	defer func() {
		if err != nil {
			if closeErr := file.Close(); closeErr != nil {
				err = errors.Join(err, fmt.Errorf("error closing file: %w", closeErr))
			}
		}
	}()

	if err := copyImage(file, image); err != nil {
		return "", nil, err
	}

	return file.Name(), file.Close, nil
}
