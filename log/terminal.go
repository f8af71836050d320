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
	"math"
	"math/big"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/holiman/uint256"
)

const termTimeFormat = "01-02|15:04:05.000"

var levelColor = map[slog.Level]int{
	LevelTrace: 35, // magenta
	LevelDebug: 36, // cyan
	LevelInfo:  32, // green
	LevelWarn:  33, // yellow
	LevelError: 31, // red
	LevelCrit:  35, // magenta
}

// terminalHandler formats log records for a human reading a terminal, with an
// optional ANSI-colored level prefix and a fixed-width timestamp column.
type terminalHandler struct {
	mu       sync.Mutex
	out      io.Writer
	level    slog.Level
	useColor bool
	attrs    []slog.Attr
}

// NewTerminalHandler returns a handler that prints records in a format optimized
// for human readability on a terminal with ANSI color codes.
func NewTerminalHandler(out io.Writer, useColor bool) slog.Handler {
	return NewTerminalHandlerWithLevel(out, LevelInfo, useColor)
}

// NewTerminalHandlerWithLevel is like NewTerminalHandler, but only logs records
// at or above the given verbosity level.
func NewTerminalHandlerWithLevel(out io.Writer, level slog.Level, useColor bool) slog.Handler {
	return &terminalHandler{
		out:      out,
		level:    level,
		useColor: useColor,
	}
}

func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &nh
}

func (h *terminalHandler) WithGroup(string) slog.Handler {
	// Groups are not supported; flatten by ignoring the grouping.
	return h
}

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	msg := trimRightSpace(r.Message)
	lvl := LevelAlignedString(r.Level)
	if h.useColor {
		code := levelColor[r.Level]
		fmt.Fprintf(buf, "\x1b[%dm%s\x1b[0m", code, lvl)
	} else {
		buf.WriteString(lvl)
	}
	buf.WriteString("[")
	writeTimeTermFormat(buf, r.Time)
	buf.WriteString("] ")
	buf.WriteString(msg)

	length := len(msg)
	if r.NumAttrs()+len(h.attrs) > 0 && length < termMsgJust {
		buf.WriteString(spaces(termMsgJust - length))
	}

	attrs := append([]slog.Attr{}, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	for _, a := range attrs {
		buf.WriteByte(' ')
		writeTermAttr(buf, a, h.useColor)
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf.Bytes())
	return err
}

const termMsgJust = 40

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

func trimRightSpace(s string) string {
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		s = s[:len(s)-1]
	}
	return s
}

func writeTermAttr(buf *bytes.Buffer, a slog.Attr, useColor bool) {
	key := a.Key
	val := formatLogfmtValue(a.Value)
	if useColor {
		buf.WriteString(color.New(color.FgHiBlack).Sprint(key))
	} else {
		buf.WriteString(key)
	}
	buf.WriteByte('=')
	buf.WriteString(val)
}

func writeTimeTermFormat(buf *bytes.Buffer, t time.Time) {
	buf.Write(t.AppendFormat(nil, termTimeFormat))
}

// formatLogfmtValue renders a single attribute value the way the terminal and
// logfmt handlers present it: quoted when it contains whitespace or control
// characters, with thousands separators for large numeric types.
func formatLogfmtValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return quoteIfNeeded(v.String())
	case slog.KindInt64:
		return FormatLogfmtInt64(v.Int64())
	case slog.KindUint64:
		return FormatLogfmtUint64(v.Uint64())
	case slog.KindFloat64:
		return fmt.Sprintf("%v", v.Float64())
	case slog.KindBool:
		return fmt.Sprintf("%v", v.Bool())
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format("2006-01-02T15:04:05-0700")
	case slog.KindAny:
		return formatAnyValue(v.Any())
	default:
		return quoteIfNeeded(v.String())
	}
}

func formatAnyValue(val interface{}) string {
	switch x := val.(type) {
	case nil:
		return "<nil>"
	case *big.Int:
		return formatLogfmtBigInt(x)
	case big.Int:
		return formatLogfmtBigInt(&x)
	case *uint256.Int:
		if x == nil {
			return "<nil>"
		}
		return groupThousands(x.Dec())
	case uint256.Int:
		return groupThousands(x.Dec())
	case error:
		return quoteIfNeeded(x.Error())
	case fmt.Stringer:
		return quoteIfNeeded(x.String())
	case []byte:
		return quoteIfNeeded(fmt.Sprintf("%v", x))
	}
	rv := reflect.ValueOf(val)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return quoteIfNeeded(fmt.Sprintf("&%+v", rv.Elem().Interface()))
	}
	return quoteIfNeeded(fmt.Sprintf("%+v", val))
}

func quoteIfNeeded(s string) string {
	needsQuote := false
	for _, r := range s {
		if r <= ' ' || r == '"' || r == '=' || r > math.MaxInt8 {
			needsQuote = true
			break
		}
	}
	if !needsQuote && s != "" {
		return s
	}
	return fmt.Sprintf("%q", s)
}

// sortAttrs sorts attrs by key. No handler in this package calls it; they
// write attributes in the order they were added.
func sortAttrs(attrs []slog.Attr) {
	sort.SliceStable(attrs, func(i, j int) bool { return attrs[i].Key < attrs[j].Key })
}
