// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	jsoniter "github.com/json-iterator/go"
)

// Manifest declares a wrapper type and the library functions it exposes.
type Manifest struct {
	// Package is the Go package the generated file belongs to.
	Package string `toml:"package" json:"package"`
	// Type is the name of the generated wrapper type. It must be exported.
	Type string `toml:"type" json:"type"`
	// Doc is the documentation of the wrapper type.
	Doc string `toml:"doc" json:"doc"`
	// Imports lists the import paths of packages referenced by parameter or
	// result types. The unsafe package is imported automatically.
	Imports []string `toml:"imports" json:"imports"`
	// Functions are the exported functions of the library.
	Functions []Function `toml:"functions" json:"functions"`
}

// Function declares one exported function of the library.
type Function struct {
	// Name is the exported symbol name.
	Name string `toml:"name" json:"name"`
	// Method is the name of the wrapper method. Defaults to the symbol name
	// converted to CamelCase.
	Method string `toml:"method" json:"method"`
	// Doc is the documentation of the wrapper method.
	Doc string `toml:"doc" json:"doc"`
	// Params are the function parameters, in order.
	Params []Param `toml:"params" json:"params"`
	// Result is the result type. Empty or "void" for none.
	Result string `toml:"result" json:"result"`
}

// Param declares a function parameter. Type is either a Go type or one of
// the C types listed in [CType].
type Param struct {
	Name string `toml:"name" json:"name"`
	Type string `toml:"type" json:"type"`
}

// Format is the encoding of a manifest file.
type Format string

const (
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatOf returns the format of the manifest at path, from its extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported manifest extension %q, expected .toml or .json", ext)
	}
}

var jsonAPI = jsoniter.Config{
	EscapeHTML:             true,
	ValidateJsonRawMessage: true,
	DisallowUnknownFields:  true,
}.Froze()

// ParseManifest decodes a manifest. Unknown keys are rejected so that typos
// do not silently drop declarations.
func ParseManifest(format Format, data []byte) (*Manifest, error) {
	var m Manifest

	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), &m)
		if err != nil {
			return nil, fmt.Errorf("invalid TOML manifest: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, key := range undecoded {
				keys[i] = key.String()
			}
			sort.Strings(keys)
			return nil, fmt.Errorf("invalid TOML manifest: unknown keys %s", strings.Join(keys, ", "))
		}
	case FormatJSON:
		if err := jsonAPI.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("invalid JSON manifest: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", format)
	}

	return &m, nil
}

// ReadManifest reads and decodes the manifest at path.
func ReadManifest(path string) (*Manifest, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}

	return ParseManifest(format, data)
}
