// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package dynlib

import (
	"fmt"
	"reflect"

	"github.com/DataDog/go-dynlib/errors"
	"github.com/DataDog/go-dynlib/internal/log"
)

// SymbolTag is the struct tag naming the symbol a function field is bound to.
const SymbolTag = "dlsym"

var libraryType = reflect.TypeOf((*Library)(nil))

// Bind opens the library at path and fills target with its symbols.
//
// target must be a pointer to a struct having exactly one exported field of
// type *Library (possibly embedded), which receives the library, and any
// number of exported function fields tagged with the symbol they stand for:
//
//	type Example struct {
//		*dynlib.Library
//
//		Hello func()                 `dlsym:"hello"`
//		Add   func(x, y int32) int32 `dlsym:"add"`
//	}
//
// Every tagged symbol must resolve: the first failure aborts the whole
// operation, the library is released and target is left untouched. On
// success the caller owns the library and must call Close on it.
//
// The declared function types are trusted the same way [With] trusts its type
// parameter: a wrong declaration is undefined behavior. Calling a bound
// function after the library was closed panics with an *errors.ReleasedError.
func Bind(path string, target any, options ...Option) error {
	value, fields, err := inspectTarget(target)
	if err != nil {
		return err
	}

	lib, err := Open(path, options...)
	if err != nil {
		return err
	}

	if err := bindFields(lib, value, fields); err != nil {
		lib.Close()
		return err
	}

	return nil
}

// BindLibrary is [Bind] for an already opened library, such as one obtained
// from [OpenBytes]. On failure target is left untouched and lib stays open.
func BindLibrary(lib *Library, target any) error {
	value, fields, err := inspectTarget(target)
	if err != nil {
		return err
	}
	return bindFields(lib, value, fields)
}

// Load allocates a T and binds it to the library at path, see [Bind].
func Load[T any](path string, options ...Option) (*T, error) {
	target := new(T)
	if err := Bind(path, target, options...); err != nil {
		return nil, err
	}
	return target, nil
}

type targetFields struct {
	library int
	symbols []symbolField
}

type symbolField struct {
	index  int
	symbol string
	typ    reflect.Type
}

// inspectTarget validates the layout of target before anything gets opened.
func inspectTarget(target any) (reflect.Value, targetFields, error) {
	fields := targetFields{library: -1}

	value := reflect.ValueOf(target)
	if value.Kind() != reflect.Pointer || value.IsNil() || value.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fields, fmt.Errorf("bind target must be a non-nil pointer to a struct, got %T", target)
	}
	value = value.Elem()
	structType := value.Type()

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		if symbolName, ok := field.Tag.Lookup(SymbolTag); ok {
			switch {
			case symbolName == "":
				return reflect.Value{}, fields, fmt.Errorf("field %s.%s has an empty `%s` tag", structType, field.Name, SymbolTag)
			case !field.IsExported():
				return reflect.Value{}, fields, fmt.Errorf("field %s.%s bound to symbol '%s' must be exported", structType, field.Name, symbolName)
			case field.Type.Kind() != reflect.Func:
				return reflect.Value{}, fields, fmt.Errorf("field %s.%s bound to symbol '%s' must be a function, got %s", structType, field.Name, symbolName, field.Type)
			}
			fields.symbols = append(fields.symbols, symbolField{index: i, symbol: symbolName, typ: field.Type})
			continue
		}

		if field.Type == libraryType {
			if fields.library >= 0 {
				return reflect.Value{}, fields, fmt.Errorf("%s has more than one `*dynlib.Library` field", structType)
			}
			if !field.IsExported() {
				return reflect.Value{}, fields, fmt.Errorf("field %s.%s holding the library must be exported", structType, field.Name)
			}
			fields.library = i
		}
	}

	if fields.library < 0 {
		return reflect.Value{}, fields, fmt.Errorf("could not find a `*dynlib.Library` field in %s to set the library handle, cowardly refusing the handle to be lost", structType)
	}

	return value, fields, nil
}

// bindFields resolves every symbol before assigning anything, so a failure
// leaves no partially bound target behind.
func bindFields(lib *Library, value reflect.Value, fields targetFields) error {
	funcs := make([]reflect.Value, len(fields.symbols))
	for i, field := range fields.symbols {
		fn, err := bindSymbol(lib, field)
		if err != nil {
			return err
		}
		funcs[i] = fn
	}

	for i, field := range fields.symbols {
		value.Field(field.index).Set(funcs[i])
	}
	value.Field(fields.library).Set(reflect.ValueOf(lib))

	log.Debugf("bound %d symbols of %s into %s", len(fields.symbols), lib.path, value.Type())
	return nil
}

// bindSymbol returns a function of the field type calling the symbol, which
// holds a reference on the library for the duration of each call.
func bindSymbol(lib *Library, field symbolField) (reflect.Value, error) {
	sym, err := lib.Symbol(field.symbol)
	if err != nil {
		return reflect.Value{}, err
	}

	raw := reflect.New(field.typ)
	if err := makeFunc(sym, raw.Interface()); err != nil {
		return reflect.Value{}, err
	}
	call := raw.Elem()

	return reflect.MakeFunc(field.typ, func(args []reflect.Value) []reflect.Value {
		if !lib.retain() {
			panic(&errors.ReleasedError{Library: lib.path, Symbol: sym.name})
		}
		defer lib.release()

		return call.Call(args)
	}), nil
}
