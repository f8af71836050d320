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
	"math/big"
	"strconv"
)

// FormatLogfmtInt64 formats n with thousand separators.
func FormatLogfmtInt64(n int64) string {
	if n < 0 {
		return "-" + groupThousands(strconv.FormatUint(uint64(-n), 10))
	}
	return groupThousands(strconv.FormatUint(uint64(n), 10))
}

// FormatLogfmtUint64 formats n with thousand separators.
func FormatLogfmtUint64(n uint64) string {
	return groupThousands(strconv.FormatUint(n, 10))
}

func formatLogfmtBigInt(n *big.Int) string {
	if n == nil {
		return "<nil>"
	}
	s := groupThousands(new(big.Int).Abs(n).String())
	if n.Sign() < 0 {
		return "-" + s
	}
	return s
}

// groupThousands inserts comma separators every three digits, starting from the
// right. Numbers of five digits or fewer are left untouched, matching the
// behavior subscribers expect for typical small counters.
func groupThousands(digits string) string {
	if len(digits) <= 5 {
		return digits
	}
	ngroups := (len(digits) - 1) / 3
	out := make([]byte, len(digits)+ngroups)
	si, oi := len(digits), len(out)
	for grp := 0; grp < ngroups; grp++ {
		oi -= 3
		si -= 3
		copy(out[oi:oi+3], digits[si:si+3])
		oi--
		out[oi] = ','
	}
	copy(out[:oi], digits[:si])
	return string(out)
}
