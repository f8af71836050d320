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

package transient

import (
	"testing"

	"github.com/ethaccounts/provider/accounts"
	"github.com/ethaccounts/provider/crypto"
	"github.com/stretchr/testify/require"
)

func newTestAccount(t *testing.T, s *Store, password string) accounts.Ref {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	a, err := s.InsertAccount(accounts.Root, crypto.FromECDSA(priv), password)
	require.NoError(t, err)
	return accounts.Ref{Scope: accounts.Root, Address: a.Address}
}

func TestStoreSignAndPasswordRotation(t *testing.T) {
	s := New()
	ref := newTestAccount(t, s, "tok1")

	_, err := s.Sign(ref, "wrong", make([]byte, 32))
	require.Error(t, err)

	sig, err := s.Sign(ref, "tok1", make([]byte, 32))
	require.NoError(t, err)
	require.Len(t, sig, 65)

	require.NoError(t, s.ChangePassword(ref, "tok1", "tok2"))
	_, err = s.Sign(ref, "tok1", make([]byte, 32))
	require.Error(t, err)
	_, err = s.Sign(ref, "tok2", make([]byte, 32))
	require.NoError(t, err)
}

func TestStoreRemoveAccount(t *testing.T) {
	s := New()
	ref := newTestAccount(t, s, "pw")
	require.NoError(t, s.RemoveAccount(ref, "pw"))
	_, err := s.AccountRef(ref.Address)
	require.ErrorIs(t, err, accounts.ErrNotFound)
}

func TestStoreVaultOperationsUnsupported(t *testing.T) {
	s := New()
	require.Error(t, s.CreateVault("x", "pw"))
	vaults, err := s.ListVaults()
	require.NoError(t, err)
	require.Empty(t, vaults)
}

func TestStoreInsertDerived(t *testing.T) {
	s := New()
	ref := newTestAccount(t, s, "pw")

	child, err := s.InsertDerived(accounts.Root, ref, "pw", "m/44'/60'/0'/0/0")
	require.NoError(t, err)
	require.NotEqual(t, ref.Address, child.Address)

	again, err := s.InsertDerived(accounts.Root, ref, "pw", "m/44'/60'/0'/0/0")
	require.NoError(t, err)
	require.Equal(t, child.Address, again.Address)

	_, err = s.InsertDerived(accounts.Root, ref, "wrong", "m/44'/60'/0'/0/0")
	require.Error(t, err)
}
