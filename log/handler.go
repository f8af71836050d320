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
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-stack/stack"
)

// JSONHandler returns a handler that writes log records as JSON lines, logging
// every level including Trace.
func JSONHandler(wr io.Writer) slog.Handler {
	return JSONHandlerWithLevel(wr, LevelTrace)
}

// JSONHandlerWithLevel is like JSONHandler but filters records below level.
func JSONHandlerWithLevel(wr io.Writer, level slog.Leveler) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{
		ReplaceAttr: jsonReplaceAttr,
		Level:       level,
	})
}

func jsonReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindAny:
		a.Value = slog.StringValue(formatAnyValue(a.Value.Any()))
	}
	return a
}

// LogfmtHandler returns a handler that writes log records in logfmt, one line
// per record, without the terminal handler's level-colored column layout.
func LogfmtHandler(wr io.Writer) slog.Handler {
	return &logfmtHandler{wr: wr, level: LevelTrace}
}

type logfmtHandler struct {
	mu    sync.Mutex
	wr    io.Writer
	level slog.Level
	attrs []slog.Attr
}

func (h *logfmtHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *logfmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &nh
}

func (h *logfmtHandler) WithGroup(string) slog.Handler { return h }

func (h *logfmtHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "t=%s lvl=%s msg=%s", r.Time.Format("2006-01-02T15:04:05-0700"), LevelString(r.Level), quoteIfNeeded(r.Message))
	attrs := append([]slog.Attr{}, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	for _, a := range attrs {
		buf.WriteByte(' ')
		writeTermAttr(buf, a, false)
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.wr.Write(buf.Bytes())
	return err
}

// GlogHandler wraps another handler and adds verbosity/vmodule filtering in the
// style of glog: a global verbosity threshold plus optional per-file overrides.
type GlogHandler struct {
	origin slog.Handler

	level     atomic.Int32
	override  atomic.Bool
	backtrace atomic.Bool

	mu      sync.RWMutex
	patterns []vmodulePattern
	location string
}

type vmodulePattern struct {
	base  *regexp.Regexp
	level slog.Level
}

// NewGlogHandler returns a handler that filters records passed to origin by
// verbosity level, with optional per-source-file overrides set via Vmodule.
func NewGlogHandler(origin slog.Handler) *GlogHandler {
	return &GlogHandler{origin: origin}
}

// Verbosity sets the global verbosity threshold.
func (h *GlogHandler) Verbosity(level slog.Level) {
	h.level.Store(int32(level))
}

// Vmodule sets the glog-style pattern that overrides verbosity for specific
// files, e.g. "gopher.go=3" or "handler*.go=4". Patterns are matched against
// the base name of the calling source file, so a pattern with a directory
// part never matches.
func (h *GlogHandler) Vmodule(ruleset string) error {
	var rules []vmodulePattern
	for _, rule := range splitNonEmpty(ruleset, ',') {
		parts := splitNonEmpty(rule, '=')
		if len(parts) != 2 {
			return fmt.Errorf("invalid vmodule rule %q", rule)
		}
		var n int
		if _, err := fmt.Sscanf(parts[1], "%d", &n); err != nil {
			return fmt.Errorf("invalid verbosity in rule %q: %v", rule, err)
		}
		re, err := globToRegexp(parts[0])
		if err != nil {
			return fmt.Errorf("invalid vmodule pattern %q: %v", parts[0], err)
		}
		rules = append(rules, vmodulePattern{base: re, level: vnumToLevel(n)})
	}
	h.mu.Lock()
	h.patterns = rules
	h.override.Store(len(rules) > 0)
	h.mu.Unlock()
	return nil
}

// BacktraceAt sets a "file:line" location (base file name) that triggers a
// stack trace dump whenever an enabled record of any level is logged from
// that location.
func (h *GlogHandler) BacktraceAt(location string) error {
	h.mu.Lock()
	h.location = location
	h.mu.Unlock()
	h.backtrace.Store(location != "")
	return nil
}

func (h *GlogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true // filtering happens in Handle so file-based overrides can apply
}

func (h *GlogHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.enabled(r) {
		return nil
	}
	if h.backtrace.Load() && h.atBacktraceLocation(r) {
		r.AddAttrs(slog.String("stack", stack.Trace().TrimRuntime().String()))
	}
	return h.origin.Handle(ctx, r)
}

func (h *GlogHandler) atBacktraceLocation(r slog.Record) bool {
	if r.PC == 0 {
		return false
	}
	h.mu.RLock()
	loc := h.location
	h.mu.RUnlock()
	if loc == "" {
		return false
	}
	frames := runtime.CallersFrames([]uintptr{r.PC})
	frame, _ := frames.Next()
	return loc == filepath.Base(frame.File)+":"+strconv.Itoa(frame.Line)
}

func (h *GlogHandler) enabled(r slog.Record) bool {
	threshold := slog.Level(h.level.Load())
	if !h.override.Load() {
		return r.Level >= threshold
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	file := callerFile(r)
	for _, p := range h.patterns {
		if p.base.MatchString(file) {
			return r.Level >= p.level
		}
	}
	return r.Level >= threshold
}

func callerFile(r slog.Record) string {
	if r.PC == 0 {
		return ""
	}
	frames := runtime.CallersFrames([]uintptr{r.PC})
	frame, _ := frames.Next()
	if frame.File == "" {
		return ""
	}
	return filepath.Base(frame.File)
}

func (h *GlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.clone(h.origin.WithAttrs(attrs))
}

func (h *GlogHandler) WithGroup(name string) slog.Handler {
	return h.clone(h.origin.WithGroup(name))
}

func (h *GlogHandler) clone(origin slog.Handler) *GlogHandler {
	nh := &GlogHandler{origin: origin}
	nh.level.Store(h.level.Load())
	nh.override.Store(h.override.Load())
	nh.backtrace.Store(h.backtrace.Load())
	h.mu.RLock()
	nh.patterns = h.patterns
	nh.location = h.location
	h.mu.RUnlock()
	return nh
}

// vnumToLevel converts a glog-style verbosity number (0 = only critical, higher
// numbers = more verbose) into the equivalent slog.Level threshold.
func vnumToLevel(n int) slog.Level {
	return LevelCrit - slog.Level(4*n)
}

// globToRegexp compiles a glob pattern using '*' and '?' wildcards into an
// anchored regular expression.
func globToRegexp(glob string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteByte('^')
	for _, r := range glob {
		switch r {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteByte('.')
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteByte('$')
	return regexp.Compile(sb.String())
}

func splitNonEmpty(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
