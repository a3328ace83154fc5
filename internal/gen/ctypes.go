// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package gen

import "strings"

// cTypes maps C scalar types to the Go type of the same size and layout on
// every supported target. `long` is missing on purpose: it is 32 bits wide on
// windows and 64 bits wide elsewhere, see platformDependent.
var cTypes = map[string]string{
	"char":               "int8",
	"signed char":        "int8",
	"unsigned char":      "uint8",
	"short":              "int16",
	"unsigned short":     "uint16",
	"int":                "int32",
	"unsigned":           "uint32",
	"unsigned int":       "uint32",
	"long long":          "int64",
	"unsigned long long": "uint64",
	"int8_t":             "int8",
	"uint8_t":            "uint8",
	"int16_t":            "int16",
	"uint16_t":           "uint16",
	"int32_t":            "int32",
	"uint32_t":           "uint32",
	"int64_t":            "int64",
	"uint64_t":           "uint64",
	"size_t":             "uintptr",
	"uintptr_t":          "uintptr",
	"float":              "float32",
	"double":             "float64",
	"bool":               "bool",
	"_Bool":              "bool",
}

// platformDependent lists the C types whose size differs between supported
// targets, with the fixed-size Go types to spell instead.
var platformDependent = map[string]string{
	"long":              "int32 or int64",
	"long int":          "int32 or int64",
	"signed long":       "int32 or int64",
	"signed long int":   "int32 or int64",
	"unsigned long":     "uint32 or uint64",
	"unsigned long int": "uint32 or uint64",
}

// predeclaredTypes are the Go types usable without a package qualifier.
var predeclaredTypes = map[string]struct{}{
	"any": {}, "bool": {}, "byte": {}, "complex64": {}, "complex128": {},
	"error": {}, "float32": {}, "float64": {}, "int": {}, "int8": {},
	"int16": {}, "int32": {}, "int64": {}, "rune": {}, "string": {},
	"uint": {}, "uint8": {}, "uint16": {}, "uint32": {}, "uint64": {},
	"uintptr": {},
}

// CType translates a C type spelling into its Go counterpart. Spellings which
// are not C types are returned unchanged and treated as Go types. `char*`
// maps to string, purego copying it to and from a NUL terminated buffer, and
// `void*` maps to unsafe.Pointer. Other pointers are translated recursively.
// `void` maps to the empty string.
func CType(spelling string) string {
	spelling = normalizeCType(spelling)
	if pointee, ok := strings.CutSuffix(spelling, "*"); ok {
		switch pointee = normalizeCType(pointee); pointee {
		case "char":
			return "string"
		case "void":
			return "unsafe.Pointer"
		default:
			return "*" + elemType(pointee)
		}
	}
	if spelling == "void" {
		return ""
	}
	return elemType(spelling)
}

// elemType translates a type found behind a pointer.
func elemType(spelling string) string {
	if pointee, ok := strings.CutSuffix(spelling, "*"); ok {
		if pointee = normalizeCType(pointee); pointee == "void" {
			return "unsafe.Pointer"
		}
		return "*" + elemType(pointee)
	}
	if goType, ok := cTypes[spelling]; ok {
		return goType
	}
	return spelling
}

func normalizeCType(spelling string) string {
	spelling = strings.Join(strings.Fields(spelling), " ")
	spelling = strings.TrimPrefix(spelling, "const ")
	return strings.TrimSuffix(spelling, " const")
}
