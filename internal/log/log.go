// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

const (
	// EnvLevel names the environment variable holding the minimum log level.
	EnvLevel = "DYNLIB_LOG_LEVEL"
	// EnvFile names the environment variable holding a file path log lines
	// are appended to instead of stderr.
	EnvFile = "DYNLIB_LOG_FILE"
)

// Level is the severity of a log message.
type Level int32

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarning
	LevelError
	LevelOff
)

// LevelNamed returns the log level corresponding to the given name, or LevelOff
// if the name corresponds to no known log level.
func LevelNamed(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarning
	case "error":
		return LevelError
	case "off":
		return LevelOff
	default:
		return LevelOff
	}
}

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelOff:
		return "OFF"
	default:
		return fmt.Sprintf("0x%X", uintptr(l))
	}
}

var (
	once   sync.Once
	level  atomic.Int32
	logger *log.Logger
	mu     sync.Mutex
)

func setup() {
	once.Do(func() {
		level.Store(int32(LevelNamed(os.Getenv(EnvLevel))))
		if forcedLevel != nil {
			level.Store(int32(*forcedLevel))
		}

		var out io.Writer = os.Stderr
		if path := os.Getenv(EnvFile); path != "" {
			file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				fmt.Fprintf(os.Stderr, "dynlib: failed to open log file %q: %v\n", path, err)
			} else {
				out = file
			}
		}
		logger = log.New(out, "", log.LstdFlags|log.Lmicroseconds)
	})
}

// SetLevel overrides the level read from the environment.
func SetLevel(l Level) {
	setup()
	level.Store(int32(l))
}

// SetOutput redirects log lines to w.
func SetOutput(w io.Writer) {
	setup()
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

// Enabled reports whether messages of level l are currently emitted.
func Enabled(l Level) bool {
	setup()
	return l != LevelOff && l >= Level(level.Load())
}

func logMessage(l Level, format string, args ...any) {
	if !Enabled(l) {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	logger.Printf("[%-5s] dynlib: %s", l, fmt.Sprintf(format, args...))
}

func Tracef(format string, args ...any) { logMessage(LevelTrace, format, args...) }

func Debugf(format string, args ...any) { logMessage(LevelDebug, format, args...) }

func Infof(format string, args ...any) { logMessage(LevelInfo, format, args...) }

func Warnf(format string, args ...any) { logMessage(LevelWarning, format, args...) }

func Errorf(format string, args ...any) { logMessage(LevelError, format, args...) }
