// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package example holds the wrapper dynlib-gen generates for the library
// built by testlib.Build.
package example

//go:generate go run ../../../cmd/dynlib-gen generate -o example_gen.go example.toml
