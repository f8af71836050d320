// Copyright 2025 the libevm authors.
//
// The libevm additions to go-ethereum are free software: you can redistribute
// them and/or modify them under the terms of the GNU Lesser General Public License
// as published by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// The libevm additions are distributed in the hope that they will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU Lesser
// General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see
// <http://www.gnu.org/licenses/>.

package log

import (
	"fmt"
	"log/slog"
)

// typeValuer renders the name of a Go type as a LogValue, so "%T"-style
// information can be attached to a record without formatting the value eagerly.
type typeValuer struct {
	name string
}

func (t typeValuer) LogValue() slog.Value {
	return slog.StringValue(t.name)
}

// TypeOf returns an slog.LogValuer describing the dynamic type of v, e.g.
// "int", "*mypkg.Foo", or "<nil>" if v is nil.
func TypeOf(v interface{}) slog.LogValuer {
	if v == nil {
		return typeValuer{name: "<nil>"}
	}
	return typeValuer{name: fmt.Sprintf("%T", v)}
}

// lazyValuer defers computing an attribute's value until the record is
// actually going to be emitted, so expensive formatting is skipped for
// disabled levels.
type lazyValuer struct {
	fn func() slog.Value
}

func (l lazyValuer) LogValue() slog.Value {
	return l.fn()
}

// Lazy wraps fn so that it is only called if the log record carrying it
// passes the handler's level check.
func Lazy(fn func() slog.Value) slog.LogValuer {
	return lazyValuer{fn: fn}
}
