// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package dynlib

import "github.com/DataDog/go-dynlib/internal/loader"

// Mode is the set of flags given to the platform loader when opening a
// library. The values map to the RTLD_* flags of dlopen(3) on linux and darwin.
//
// On Windows, where LoadLibrary takes no equivalent, and on unsupported
// targets every Mode constant is 0: the modes are ignored there and
// WithMode(ModeLazy) cannot be told apart from WithMode(ModeNow).
type Mode = loader.Mode

const (
	// ModeLazy resolves function references when they are first called.
	ModeLazy = loader.ModeLazy
	// ModeNow resolves every reference while opening the library.
	ModeNow = loader.ModeNow
	// ModeGlobal makes the library symbols available to libraries loaded afterwards.
	ModeGlobal = loader.ModeGlobal
	// ModeLocal keeps the library symbols private to the handle.
	ModeLocal = loader.ModeLocal
)

// DefaultMode is used when no [WithMode] option is given.
const DefaultMode = ModeNow | ModeLocal

type config struct {
	mode Mode
}

func newConfig(options ...Option) config {
	config := config{mode: DefaultMode}
	for _, option := range options {
		option(&config)
	}
	return config
}

// Option configures how a library is opened.
type Option func(*config)

// WithMode is an Option that sets the platform load mode
func WithMode(mode Mode) Option {
	return func(c *config) {
		c.mode = mode
	}
}
