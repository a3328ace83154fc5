// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

//go:build (linux || darwin || windows) && (amd64 || arm64) && !dynlib.disabled

package dynlib

import (
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDog/go-dynlib/errors"
	"github.com/DataDog/go-dynlib/internal/testlib"
)

func TestSupportsTarget(t *testing.T) {
	supported, err := SupportsTarget()
	require.True(t, supported)
	require.NoError(t, err)
}

func TestOpen(t *testing.T) {
	t.Run("missing library", func(t *testing.T) {
		lib, err := Open(testlib.MissingLibrary())
		require.Nil(t, lib)

		var loadErr *errors.LoadError
		require.ErrorAs(t, err, &loadErr)
		require.Equal(t, testlib.MissingLibrary(), loadErr.Path)
		require.NotEmpty(t, loadErr.Reason)
		require.Contains(t, err.Error(), loadErr.Reason)
	})

	t.Run("system library", func(t *testing.T) {
		lib, err := Open(testlib.SystemLibrary())
		require.NoError(t, err)
		require.NotNil(t, lib)
		require.Equal(t, testlib.SystemLibrary(), lib.Path())
		require.False(t, lib.Closed())

		lib.Close()
		require.True(t, lib.Closed())
	})

	t.Run("lazy mode", func(t *testing.T) {
		lib, err := Open(testlib.SystemLibrary(), WithMode(ModeLazy|ModeLocal))
		require.NoError(t, err)
		lib.Close()
	})

	t.Run("NUL byte in path", func(t *testing.T) {
		require.Panics(t, func() {
			_, _ = Open("libexample\x00.so")
		})
	})
}

func TestSymbol(t *testing.T) {
	lib, err := Open(testlib.SystemLibrary())
	require.NoError(t, err)
	defer lib.Close()

	t.Run("existing symbol", func(t *testing.T) {
		sym, err := lib.Symbol("abs")
		require.NoError(t, err)
		require.Equal(t, "abs", sym.Name())
		require.Same(t, lib, sym.Library())

		res, err := With(sym, func(abs func(int32) int32) int32 {
			return abs(-7)
		})
		require.NoError(t, err)
		require.Equal(t, int32(7), res)
	})

	t.Run("missing symbol", func(t *testing.T) {
		sym, err := lib.Symbol("dynlib_symbol_which_does_not_exist")
		require.Nil(t, sym)

		var resolveErr *errors.ResolveError
		require.ErrorAs(t, err, &resolveErr)
		require.Equal(t, lib.Path(), resolveErr.Library)
		require.Equal(t, "dynlib_symbol_which_does_not_exist", resolveErr.Symbol)
		require.NotEmpty(t, resolveErr.Reason)
	})

	t.Run("library usable after a failed lookup", func(t *testing.T) {
		_, err := lib.Symbol("dynlib_symbol_which_does_not_exist")
		require.Error(t, err)

		sym, err := lib.Symbol("abs")
		require.NoError(t, err)
		res, err := With(sym, func(abs func(int32) int32) int32 {
			return abs(-1 << 20)
		})
		require.NoError(t, err)
		require.Equal(t, int32(1<<20), res)
	})

	t.Run("NUL byte in name", func(t *testing.T) {
		require.Panics(t, func() {
			_, _ = lib.Symbol("ab\x00s")
		})
	})
}

func TestClose(t *testing.T) {
	lib, err := Open(testlib.SystemLibrary())
	require.NoError(t, err)

	sym, err := lib.Symbol("abs")
	require.NoError(t, err)

	lib.Close()
	require.NotPanics(t, lib.Close, "closing twice must be harmless")

	t.Run("symbol after close", func(t *testing.T) {
		_, err := lib.Symbol("abs")
		require.ErrorIs(t, err, errors.ErrLibraryReleased)

		var releasedErr *errors.ReleasedError
		require.ErrorAs(t, err, &releasedErr)
		require.Equal(t, "abs", releasedErr.Symbol)
	})

	t.Run("with after close", func(t *testing.T) {
		called := false
		_, err := With(sym, func(abs func(int32) int32) int32 {
			called = true
			return abs(-1)
		})
		require.ErrorIs(t, err, errors.ErrLibraryReleased)
		require.False(t, called)
	})

	t.Run("do after close", func(t *testing.T) {
		err := Do(sym, func(func(int32) int32) {
			t.Fatal("must not be called")
		})
		require.ErrorIs(t, err, errors.ErrLibraryReleased)
	})
}

func TestWithInvalidSignature(t *testing.T) {
	lib, err := Open(testlib.SystemLibrary())
	require.NoError(t, err)
	defer lib.Close()

	sym, err := lib.Symbol("abs")
	require.NoError(t, err)

	t.Run("not a function", func(t *testing.T) {
		_, err := With(sym, func(int) int { return 0 })

		var panicErr *PanicError
		require.ErrorAs(t, err, &panicErr)
		require.Equal(t, "abs", panicErr.Symbol)
		require.Contains(t, err.Error(), "abs")
	})

	t.Run("too many results", func(t *testing.T) {
		_, err := With(sym, func(func(int32) (int32, int32)) int { return 0 })

		var panicErr *PanicError
		require.ErrorAs(t, err, &panicErr)
	})

	t.Run("library still usable", func(t *testing.T) {
		res, err := With(sym, func(abs func(int32) int32) int32 { return abs(-3) })
		require.NoError(t, err)
		require.Equal(t, int32(3), res)
	})
}

func TestExampleLibrary(t *testing.T) {
	path := testlib.Build(t)

	lib, err := Open(path)
	require.NoError(t, err)
	defer lib.Close()

	symbol := func(name string) *Symbol {
		sym, err := lib.Symbol(name)
		require.NoError(t, err)
		return sym
	}

	t.Run("add", func(t *testing.T) {
		sum, err := With(symbol(testlib.SymbolAdd), func(add func(x, y int32) int32) int32 {
			return add(2, 4)
		})
		require.NoError(t, err)
		require.Equal(t, int32(6), sum)
	})

	t.Run("hello", func(t *testing.T) {
		count := func() int32 {
			res, err := With(symbol(testlib.SymbolHelloCount), func(count func() int32) int32 {
				return count()
			})
			require.NoError(t, err)
			return res
		}

		before := count()
		require.NoError(t, Do(symbol(testlib.SymbolHello), func(hello func()) {
			hello()
		}))
		require.Equal(t, before+1, count())
	})

	t.Run("mul64", func(t *testing.T) {
		res, err := With(symbol(testlib.SymbolMul64), func(mul func(int64, int64) int64) int64 {
			return mul(1<<20, -(1 << 21))
		})
		require.NoError(t, err)
		require.Equal(t, int64(-(1 << 41)), res)
	})

	t.Run("scale", func(t *testing.T) {
		res, err := With(symbol(testlib.SymbolScale), func(scale func(float64, float64) float64) float64 {
			return scale(1.5, 4)
		})
		require.NoError(t, err)
		require.Equal(t, 6.0, res)
	})

	t.Run("concurrent calls", func(t *testing.T) {
		add := symbol(testlib.SymbolAdd)

		var wg sync.WaitGroup
		for i := int32(0); i < 32; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				sum, err := With(add, func(add func(x, y int32) int32) int32 {
					return add(i, i)
				})
				assert.NoError(t, err)
				assert.Equal(t, 2*i, sum)
			}()
		}
		wg.Wait()
	})
}

func TestCloseUnloads(t *testing.T) {
	path := testlib.Build(t)

	lib, err := Open(path)
	require.NoError(t, err)

	if mapped, ok := testlib.Mapped(path); ok {
		require.True(t, mapped)
	}

	lib.Close()

	if mapped, ok := testlib.Mapped(path); ok {
		require.False(t, mapped, "the library must be unmapped once closed")
	}
}

func TestCloseWaitsForCallsInFlight(t *testing.T) {
	path := testlib.Build(t)

	lib, err := Open(path)
	require.NoError(t, err)

	sym, err := lib.Symbol(testlib.SymbolAdd)
	require.NoError(t, err)

	sum, err := With(sym, func(add func(x, y int32) int32) int32 {
		lib.Close()
		require.True(t, lib.Closed())
		if mapped, ok := testlib.Mapped(path); ok {
			require.True(t, mapped, "the library must stay mapped while a call is in flight")
		}
		return add(20, 22)
	})
	require.NoError(t, err)
	require.Equal(t, int32(42), sum)

	if mapped, ok := testlib.Mapped(path); ok {
		require.False(t, mapped)
	}

	_, err = With(sym, func(add func(x, y int32) int32) int32 { return add(1, 1) })
	require.ErrorIs(t, err, errors.ErrLibraryReleased)
}

func TestOpenBytes(t *testing.T) {
	t.Run("example library", func(t *testing.T) {
		image, err := os.ReadFile(testlib.Build(t))
		require.NoError(t, err)

		lib, err := OpenBytes(testlib.FileName("example"), image)
		require.NoError(t, err)
		path := lib.Path()

		sym, err := lib.Symbol(testlib.SymbolAdd)
		require.NoError(t, err)
		sum, err := With(sym, func(add func(x, y int32) int32) int32 { return add(2, 4) })
		require.NoError(t, err)
		require.Equal(t, int32(6), sum)

		lib.Close()

		// The temporary copy is removed once released. The memfd used on
		// linux is a /proc path which vanishes with the descriptor.
		_, err = os.Stat(path)
		require.True(t, os.IsNotExist(err), "expected %s to be removed, got %v", path, err)
	})

	t.Run("not a library", func(t *testing.T) {
		lib, err := OpenBytes(testlib.FileName("garbage"), []byte("definitely not a shared library"))
		require.Nil(t, lib)

		var loadErr *errors.LoadError
		require.ErrorAs(t, err, &loadErr)
		require.NotEmpty(t, loadErr.Reason)
	})

	t.Run("empty image", func(t *testing.T) {
		lib, err := OpenBytes(testlib.FileName("empty"), nil)
		require.Nil(t, lib)
		require.Error(t, err)
	})
}
