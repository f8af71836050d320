// Copyright 2017 The go-ethereum Authors
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

// Package rpcerr maps the provider's error taxonomy onto the JSON-RPC error
// codes any wire adapter built atop the provider must reproduce for binary
// compatibility with the surrounding system. It builds no RPC server itself.
package rpcerr

import (
	"errors"

	"github.com/ethaccounts/provider/accounts"
)

// Wire codes, as specified for the surrounding system's JSON-RPC surface.
const (
	CodeUnimplemented           = -32000
	CodeAccountLocked           = -32020
	CodeInvalidPasswordOrNotFound = -32021
	CodeGenericAccountError     = -32023
	CodeEncryptionFailure       = -32055
	CodeTransactionDomain       = -32010
)

// Code maps err to the JSON-RPC code a wire adapter should report. nil maps
// to 0 (no error). Unrecognized errors map to CodeGenericAccountError.
func Code(err error) int {
	if err == nil {
		return 0
	}
	switch {
	case errors.Is(err, accounts.ErrLocked), errors.Is(err, accounts.ErrNotUnlocked):
		return CodeAccountLocked
	case errors.Is(err, accounts.ErrInvalidPassword), errors.Is(err, accounts.ErrNotFound), errors.Is(err, accounts.ErrNoMatch):
		return CodeInvalidPasswordOrNotFound
	case errors.Is(err, accounts.ErrDecrypt):
		return CodeEncryptionFailure
	case errors.Is(err, accounts.ErrInvalidAccount), errors.Is(err, accounts.ErrInvalidVault), errors.Is(err, accounts.ErrNeedPasswordOrUnlock):
		return CodeGenericAccountError
	}

	var storeErr *accounts.StoreError
	if errors.As(err, &storeErr) {
		return Code(storeErr.Kind)
	}
	var hwErr *accounts.HardwareError
	if errors.As(err, &hwErr) {
		if errors.Is(hwErr.Kind, accounts.ErrKeyNotFound) {
			return CodeInvalidPasswordOrNotFound
		}
		return CodeGenericAccountError
	}

	return CodeGenericAccountError
}
