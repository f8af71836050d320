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

package keystore

import (
	"testing"

	"github.com/ethaccounts/provider/accounts"
	"github.com/ethaccounts/provider/crypto"
	"github.com/stretchr/testify/require"
)

func TestNewMnemonicIsValid(t *testing.T) {
	m, err := NewMnemonic()
	require.NoError(t, err)
	require.NotEmpty(t, m)

	seed, err := seedFromMnemonic(m, "")
	require.NoError(t, err)
	require.Len(t, seed, 64)
}

func TestParsePathHardened(t *testing.T) {
	got, err := parsePath("m/44'/60'/0'/0/0")
	require.NoError(t, err)
	require.Equal(t, []uint32{0x8000002c, 0x8000003c, 0x80000000, 0, 0}, got)
}

func TestDeriveECDSADeterministic(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	k1, err := deriveECDSA(seed, "m/44'/60'/0'/0/0")
	require.NoError(t, err)
	k2, err := deriveECDSA(seed, "m/44'/60'/0'/0/0")
	require.NoError(t, err)
	require.Equal(t, crypto.FromECDSA(k1), crypto.FromECDSA(k2))

	k3, err := deriveECDSA(seed, "m/44'/60'/0'/0/1")
	require.NoError(t, err)
	require.NotEqual(t, crypto.FromECDSA(k1), crypto.FromECDSA(k3))
}

func TestKeyStoreInsertDerived(t *testing.T) {
	dir, ks := tmpKeyStore(t)
	_ = dir

	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	src, err := ks.InsertAccount(accounts.Root, crypto.FromECDSA(priv), "rootpass")
	require.NoError(t, err)
	srcRef := accounts.Ref{Scope: accounts.Root, Address: src.Address}

	child, err := ks.InsertDerived(accounts.Root, srcRef, "rootpass", "m/44'/60'/0'/0/0")
	require.NoError(t, err)
	require.NotEqual(t, src.Address, child.Address)

	ok, err := ks.TestPassword(accounts.Ref{Scope: accounts.Root, Address: child.Address}, "rootpass")
	require.NoError(t, err)
	require.True(t, ok)
}
