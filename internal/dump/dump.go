// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package dump materializes an in-memory shared library image as a file the
// platform loader can open.
package dump

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var gzipMagic = []byte{0x1f, 0x8b}

// Dump writes image to a file and returns the path to hand to the loader,
// along with a closer that must be called once the library was released.
// Gzip-compressed images are decompressed on the fly.
func Dump(name string, image []byte) (path string, closer func() error, err error) {
	if len(image) == 0 {
		return "", nil, errors.New("empty library image")
	}
	return dump(name, image)
}

func copyImage(dst io.Writer, image []byte) error {
	if !bytes.HasPrefix(image, gzipMagic) {
		if _, err := dst.Write(image); err != nil {
			return fmt.Errorf("error writing file: %w", err)
		}
		return nil
	}

	gr, err := gzip.NewReader(bytes.NewReader(image))
	if err != nil {
		return fmt.Errorf("error creating gzip reader: %w", err)
	}
	if _, err := io.Copy(dst, gr); err != nil {
		return fmt.Errorf("error copying gzip content: %w", err)
	}
	if err := gr.Close(); err != nil {
		return fmt.Errorf("error closing gzip reader: %w", err)
	}
	return nil
}

// dumpTempFile writes image into a temporary file whose name is derived from
// name, keeping its extension so platforms relying on it stay happy.
func dumpTempFile(name string, image []byte) (path string, closer func() error, err error) {
	ext := filepath.Ext(name)
	pattern := name[:len(name)-len(ext)] + "-*" + ext

	file, err := os.CreateTemp("", filepath.Base(pattern))
	if err != nil {
		return "", nil, fmt.Errorf("error creating temp file: %w", err)
	}
	path = file.Name()

	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("error closing file: %w", closeErr))
		}
		if err != nil {
			if rmErr := os.Remove(path); rmErr != nil {
				err = errors.Join(err, fmt.Errorf("error removing temp file: %w", rmErr))
			}
			path = ""
		}
	}()

	if err := copyImage(file, image); err != nil {
		return path, nil, err
	}

	return path, func() error { return os.Remove(path) }, nil
}
