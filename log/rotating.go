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
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotatingFileConfig describes how a log file is rotated once it grows large.
type RotatingFileConfig struct {
	Filename   string // path to the active log file
	MaxSizeMB  int    // rotate once the file reaches this size
	MaxBackups int    // number of rotated files to keep
	MaxAgeDays int    // days to retain rotated files
	Compress   bool   // gzip rotated files
}

// NewRotatingFileHandler returns a JSON handler that writes to a log file
// managed by lumberjack, rotating it according to cfg.
func NewRotatingFileHandler(cfg RotatingFileConfig, level slog.Leveler) slog.Handler {
	sink := &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	return JSONHandlerWithLevel(sink, level)
}
