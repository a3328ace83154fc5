// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

//go:build (linux || darwin || windows) && (amd64 || arm64) && !dynlib.disabled

package dynlib

import (
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DataDog/go-dynlib/errors"
	"github.com/DataDog/go-dynlib/internal/testlib"
)

type example struct {
	*Library

	Hello      func()                 `dlsym:"hello"`
	HelloCount func() int32           `dlsym:"hello_count"`
	Add        func(x, y int32) int32 `dlsym:"add"`
}

type libc struct {
	Lib *Library
	Abs func(int32) int32 `dlsym:"abs"`

	notBound int
}

func TestLoad(t *testing.T) {
	path := testlib.Build(t)

	ex, err := Load[example](path)
	require.NoError(t, err)
	defer ex.Close()

	require.Equal(t, path, ex.Path())
	require.Equal(t, int32(6), ex.Add(2, 4))

	before := ex.HelloCount()
	ex.Hello()
	require.Equal(t, before+1, ex.HelloCount())
}

func TestBind(t *testing.T) {
	t.Run("system library", func(t *testing.T) {
		var c libc
		require.NoError(t, Bind(testlib.SystemLibrary(), &c))
		defer c.Lib.Close()

		require.NotNil(t, c.Lib)
		require.Equal(t, int32(12), c.Abs(-12))
		require.Zero(t, c.notBound)
	})

	t.Run("missing library", func(t *testing.T) {
		var c libc
		err := Bind(testlib.MissingLibrary(), &c)

		var loadErr *errors.LoadError
		require.ErrorAs(t, err, &loadErr)
		require.Nil(t, c.Lib)
		require.Nil(t, c.Abs)
	})

	t.Run("called after close", func(t *testing.T) {
		var c libc
		require.NoError(t, Bind(testlib.SystemLibrary(), &c))
		c.Lib.Close()

		expected := &errors.ReleasedError{Library: testlib.SystemLibrary(), Symbol: "abs"}
		require.PanicsWithError(t, expected.Error(), func() {
			c.Abs(-1)
		})
	})

	t.Run("unsupported signature", func(t *testing.T) {
		var target struct {
			Lib *Library
			Abs func(int32) (int32, int32) `dlsym:"abs"`
		}
		err := Bind(testlib.SystemLibrary(), &target)

		var panicErr *PanicError
		require.ErrorAs(t, err, &panicErr)
		require.Equal(t, "abs", panicErr.Symbol)
		require.Nil(t, target.Lib)
		require.Nil(t, target.Abs)
	})
}

func TestBindMissingSymbol(t *testing.T) {
	path := testlib.Build(t)

	var target struct {
		*Library

		Add     func(x, y int32) int32 `dlsym:"add"`
		Missing func()                 `dlsym:"dynlib_symbol_which_does_not_exist"`
	}

	err := Bind(path, &target)

	var resolveErr *errors.ResolveError
	require.ErrorAs(t, err, &resolveErr)
	require.Equal(t, path, resolveErr.Library)
	require.Equal(t, "dynlib_symbol_which_does_not_exist", resolveErr.Symbol)
	require.NotEmpty(t, resolveErr.Reason)

	// Nothing from the failed attempt is observable
	require.Nil(t, target.Library)
	require.Nil(t, target.Add)
	require.Nil(t, target.Missing)

	// and the library was released before Bind returned.
	if mapped, ok := testlib.Mapped(path); ok {
		require.False(t, mapped, "the library must be unmapped after a failed bind")
	}
	if runtime.GOOS == "windows" {
		// Windows keeps loaded DLL files locked.
		require.NoError(t, os.Remove(path))
	}

	// The same path can be bound again afterwards.
	ex, err := Load[example](path)
	if runtime.GOOS == "windows" {
		require.Error(t, err)
		return
	}
	require.NoError(t, err)
	defer ex.Close()
	require.Equal(t, int32(6), ex.Add(2, 4))
}

func TestBindLibrary(t *testing.T) {
	image, err := os.ReadFile(testlib.Build(t))
	require.NoError(t, err)

	lib, err := OpenBytes(testlib.FileName("example"), image)
	require.NoError(t, err)
	defer lib.Close()

	t.Run("failure keeps the library open", func(t *testing.T) {
		var target struct {
			Lib     *Library
			Missing func() `dlsym:"dynlib_symbol_which_does_not_exist"`
		}
		require.Error(t, BindLibrary(lib, &target))
		require.False(t, lib.Closed())
		require.Nil(t, target.Lib)
	})

	t.Run("success", func(t *testing.T) {
		var ex example
		require.NoError(t, BindLibrary(lib, &ex))
		require.Same(t, lib, ex.Library)
		require.Equal(t, int32(6), ex.Add(2, 4))
	})
}

func TestBindInvalidTarget(t *testing.T) {
	// The layout is checked before opening anything, so a missing library
	// would only be reported for valid targets.
	path := testlib.MissingLibrary()

	for name, target := range map[string]any{
		"nil":                   nil,
		"not a pointer":         libc{},
		"nil pointer":           (*libc)(nil),
		"pointer to non-struct": new(int),
		"no library field": &struct {
			Abs func(int32) int32 `dlsym:"abs"`
		}{},
		"unexported library field": &struct {
			lib *Library
		}{},
		"two library fields": &struct {
			A *Library
			B *Library
		}{},
		"unexported symbol field": &struct {
			Lib *Library
			abs func(int32) int32 `dlsym:"abs"`
		}{},
		"non-function symbol field": &struct {
			Lib *Library
			Abs uintptr `dlsym:"abs"`
		}{},
		"empty tag": &struct {
			Lib *Library
			Abs func(int32) int32 `dlsym:""`
		}{},
	} {
		t.Run(name, func(t *testing.T) {
			err := Bind(path, target)
			require.Error(t, err)

			_, isLoadErr := err.(*errors.LoadError)
			require.False(t, isLoadErr, "the library must not be opened for an invalid target")
		})
	}
}
