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

package rpcerr

import (
	"errors"
	"testing"

	"github.com/ethaccounts/provider/accounts"
	"github.com/stretchr/testify/require"
)

func TestCodeMapsSentinels(t *testing.T) {
	require.Equal(t, 0, Code(nil))
	require.Equal(t, CodeAccountLocked, Code(accounts.ErrNotUnlocked))
	require.Equal(t, CodeAccountLocked, Code(accounts.ErrLocked))
	require.Equal(t, CodeInvalidPasswordOrNotFound, Code(accounts.ErrInvalidPassword))
	require.Equal(t, CodeInvalidPasswordOrNotFound, Code(accounts.ErrNotFound))
	require.Equal(t, CodeEncryptionFailure, Code(accounts.ErrDecrypt))
	require.Equal(t, CodeGenericAccountError, Code(accounts.ErrInvalidAccount))
}

func TestCodeUnwrapsStoreError(t *testing.T) {
	err := &accounts.StoreError{Kind: accounts.ErrInvalidPassword, Err: errors.New("scrypt mismatch")}
	require.Equal(t, CodeInvalidPasswordOrNotFound, Code(err))
}

func TestCodeHardwareKeyNotFound(t *testing.T) {
	err := &accounts.HardwareError{Kind: accounts.ErrKeyNotFound}
	require.Equal(t, CodeInvalidPasswordOrNotFound, Code(err))

	other := &accounts.HardwareError{Kind: errors.New("device disconnected")}
	require.Equal(t, CodeGenericAccountError, Code(other))
}

func TestCodeUnrecognizedFallsBackToGeneric(t *testing.T) {
	require.Equal(t, CodeGenericAccountError, Code(errors.New("mystery failure")))
}
