// Copyright 2023 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package log

import (
	"os"
	"sync/atomic"
)

var root atomic.Value

func init() {
	SetDefault(NewLogger(NewTerminalHandler(os.Stderr, false)))
}

// SetDefault sets the default global logger. It is the logger returned by Root and
// used by the package-level logging functions.
func SetDefault(l Logger) {
	root.Store(l)
}

// Root returns the root logger.
func Root() Logger {
	return root.Load().(Logger)
}

// New returns a new logger with the given context added.
func New(ctx ...interface{}) Logger {
	return Root().New(ctx...)
}

// Trace logs a message at the trace level on the root logger.
func Trace(msg string, ctx ...interface{}) {
	Root().Trace(msg, ctx...)
}

// Debug logs a message at the debug level on the root logger.
func Debug(msg string, ctx ...interface{}) {
	Root().Debug(msg, ctx...)
}

// Info logs a message at the info level on the root logger.
func Info(msg string, ctx ...interface{}) {
	Root().Info(msg, ctx...)
}

// Warn logs a message at the warn level on the root logger.
func Warn(msg string, ctx ...interface{}) {
	Root().Warn(msg, ctx...)
}

// Error logs a message at the error level on the root logger.
func Error(msg string, ctx ...interface{}) {
	Root().Error(msg, ctx...)
}

// Crit logs a message at the critical level on the root logger and exits the process.
func Crit(msg string, ctx ...interface{}) {
	Root().Crit(msg, ctx...)
}
