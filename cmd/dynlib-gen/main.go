// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// The dynlib-gen command generates Go wrappers for shared libraries from a
// manifest listing their exported functions. It is meant to be invoked from
// go:generate directives:
//
//	//go:generate go run github.com/DataDog/go-dynlib/cmd/dynlib-gen generate -o zlib_gen.go zlib.toml
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/DataDog/go-dynlib/internal/gen"
	"github.com/DataDog/go-dynlib/internal/log"
)

func main() {
	os.Exit(Main())
}

// Main runs dynlib-gen with the process arguments and returns its exit code.
func Main() int {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "dynlib-gen: %v\n", err)
		return 1
	}
	return 0
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "dynlib-gen"
	app.Usage = "generate Go wrappers for shared libraries"
	app.Description = "dynlib-gen reads a TOML or JSON manifest listing the exported functions of a shared library " +
		"and generates a Go type whose methods call them through dynlib.Bind."
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			Usage:   "log debug messages to stderr",
		},
	}
	app.Before = func(ctx *cli.Context) error {
		if ctx.Bool("debug") {
			log.SetLevel(log.LevelDebug)
		}
		return nil
	}
	app.Commands = []*cli.Command{
		{
			Name:      "generate",
			Usage:     "generate the wrapper declared by a manifest",
			ArgsUsage: "manifest.{toml,json}",
			Action:    generate,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "write the generated code to `FILE` instead of stdout",
				},
			},
		},
		{
			Name:      "check",
			Usage:     "validate manifests without generating anything",
			ArgsUsage: "manifest.{toml,json}...",
			Action:    check,
		},
	}
	return app
}

func generate(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one manifest, got %d arguments", ctx.NArg())
	}
	source := ctx.Args().First()

	m, err := gen.ReadManifest(source)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}

	out, err := gen.Generate(source, m)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}

	output := ctx.String("output")
	if output == "" {
		_, err := ctx.App.Writer.Write(out)
		return err
	}

	if err := os.WriteFile(output, out, 0o644); err != nil {
		return fmt.Errorf("error writing %s: %w", output, err)
	}
	log.Debugf("generated %s from %s", output, source)
	return nil
}

func check(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return fmt.Errorf("expected at least one manifest")
	}

	for _, source := range ctx.Args().Slice() {
		m, err := gen.ReadManifest(source)
		if err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
		if err := gen.Check(m); err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
		fmt.Fprintf(ctx.App.Writer, "%s: %s binds %d functions\n", source, m.Type, len(m.Functions))
	}
	return nil
}
