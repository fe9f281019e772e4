// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

// Package logging holds the core's default slog logger. Components accept a
// *slog.Logger explicitly rather than reaching for a global, but a default
// instance is provided here for cmd/gwcored and tests that don't care.
package logging

import (
	"log/slog"
	"os"
)

// DefaultLogger is a text-handler slog.Logger writing to stderr at Info
// level, used when callers don't wire their own.
var DefaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
