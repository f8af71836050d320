// Copyright 2014 The go-ethereum Authors
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

package common

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

const (
	HashLength    = 32
	AddressLength = 20
)

// Hash represents the 32-byte Keccak256 hash of arbitrary data.
type Hash [HashLength]byte

// BytesToHash sets the last len(b) bytes of the returned hash. If b is larger
// than the hash length, it is truncated from the left.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash sets the last bytes of the decoded hex string s.
func HexToHash(s string) Hash {
	return BytesToHash(FromHex(s))
}

// SetBytes sets the hash to the value of b, right-aligning it if b is shorter
// than the hash length.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// Bytes returns the raw bytes of h.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns a "0x"-prefixed hex string of h.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

// Address represents the 20-byte Ethereum account address derived from the
// low-order bytes of the Keccak256 hash of a public key.
type Address [AddressLength]byte

// BytesToAddress sets the last len(b) bytes of the returned address. If b is
// larger than the address length, it is truncated from the left.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// HexToAddress sets the last bytes of the decoded hex string s.
func HexToAddress(s string) Address {
	return BytesToAddress(FromHex(s))
}

// IsHexAddress verifies whether s is a valid, 20-byte hex-encoded address,
// with or without the "0x" prefix.
func IsHexAddress(s string) bool {
	if has0xPrefix(s) {
		s = s[2:]
	}
	return len(s) == 2*AddressLength && isHex(s)
}

// SetBytes sets the address to the value of b, right-aligning it if b is
// shorter than the address length.
func (a *Address) SetBytes(b []byte) {
	if len(b) > len(a) {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// Bytes returns the raw bytes of a.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns the EIP-55 mixed-case checksummed hex representation of a.
func (a Address) Hex() string {
	unchecksummed := hex.EncodeToString(a[:])
	return "0x" + toChecksumCase(unchecksummed, checksumHashHex(unchecksummed))
}

func (a Address) String() string { return a.Hex() }

func toChecksumCase(addr string, hashHex string) string {
	out := make([]byte, len(addr))
	for i := 0; i < len(addr); i++ {
		c := addr[i]
		if c >= 'a' && c <= 'f' && hashHex[i] >= '8' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

func checksumHashHex(lowercaseAddrHex string) string {
	d := sha3.NewLegacyKeccak256()
	d.Write([]byte(lowercaseAddrHex))
	return hex.EncodeToString(d.Sum(nil))
}

// UnprefixedHash marshals/unmarshals a Hash without the "0x" prefix.
type UnprefixedHash Hash

func (h UnprefixedHash) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(h[:])), nil
}

func (h *UnprefixedHash) UnmarshalText(input []byte) error {
	dec, err := hex.DecodeString(string(input))
	if err != nil {
		return err
	}
	if len(dec) != HashLength {
		return fmt.Errorf("common: unprefixed hash has invalid length, want %d, have %d", HashLength, len(dec))
	}
	copy(h[:], dec)
	return nil
}
