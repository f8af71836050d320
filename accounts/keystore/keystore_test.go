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
	"os"
	"testing"

	"github.com/ethaccounts/provider/accounts"
	"github.com/stretchr/testify/require"
)

func tmpKeyStore(t *testing.T) (string, *KeyStore) {
	dir, err := os.MkdirTemp("", "keystore-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir, NewKeyStore(dir, veryLightScryptN, veryLightScryptP)
}

const (
	veryLightScryptN = 2
	veryLightScryptP = 1
)

func TestKeyStoreNewAccountAndSign(t *testing.T) {
	_, ks := tmpKeyStore(t)

	key, err := newKey()
	require.NoError(t, err)
	a, err := ks.InsertAccount(accounts.Root, key.PrivateKey.D.Bytes(), "foobar")
	require.NoError(t, err)
	require.Equal(t, key.Address, a.Address)

	ref := accounts.Ref{Scope: accounts.Root, Address: a.Address}
	sig, err := ks.Sign(ref, "foobar", make([]byte, 32))
	require.NoError(t, err)
	require.Len(t, sig, 65)

	_, err = ks.Sign(ref, "wrong password", make([]byte, 32))
	require.Error(t, err)
}

func TestKeyStoreTestPassword(t *testing.T) {
	_, ks := tmpKeyStore(t)
	key, err := newKey()
	require.NoError(t, err)
	a, err := ks.InsertAccount(accounts.Root, key.PrivateKey.D.Bytes(), "foobar")
	require.NoError(t, err)
	ref := accounts.Ref{Scope: accounts.Root, Address: a.Address}

	ok, err := ks.TestPassword(ref, "foobar")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = ks.TestPassword(ref, "nope")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKeyStoreChangePassword(t *testing.T) {
	_, ks := tmpKeyStore(t)
	key, err := newKey()
	require.NoError(t, err)
	a, err := ks.InsertAccount(accounts.Root, key.PrivateKey.D.Bytes(), "foobar")
	require.NoError(t, err)
	ref := accounts.Ref{Scope: accounts.Root, Address: a.Address}

	require.NoError(t, ks.ChangePassword(ref, "foobar", "newpass"))
	_, err = ks.Sign(ref, "foobar", make([]byte, 32))
	require.Error(t, err)
	_, err = ks.Sign(ref, "newpass", make([]byte, 32))
	require.NoError(t, err)
}

func TestKeyStoreRemoveAccount(t *testing.T) {
	_, ks := tmpKeyStore(t)
	key, err := newKey()
	require.NoError(t, err)
	a, err := ks.InsertAccount(accounts.Root, key.PrivateKey.D.Bytes(), "foobar")
	require.NoError(t, err)
	ref := accounts.Ref{Scope: accounts.Root, Address: a.Address}

	require.True(t, ks.root.hasAddress(a.Address))
	require.NoError(t, ks.RemoveAccount(ref, "foobar"))
	require.False(t, ks.root.hasAddress(a.Address))
}

func TestKeyStoreNameAndMeta(t *testing.T) {
	_, ks := tmpKeyStore(t)
	key, err := newKey()
	require.NoError(t, err)
	a, err := ks.InsertAccount(accounts.Root, key.PrivateKey.D.Bytes(), "foobar")
	require.NoError(t, err)
	ref := accounts.Ref{Scope: accounts.Root, Address: a.Address}

	require.NoError(t, ks.SetName(ref, "alice"))
	require.NoError(t, ks.SetMeta(ref, `{"tag":"cold"}`))

	name, err := ks.Name(ref)
	require.NoError(t, err)
	require.Equal(t, "alice", name)

	meta, err := ks.AccountMeta(ref)
	require.NoError(t, err)
	require.Equal(t, `{"tag":"cold"}`, meta)
}

func TestKeyStoreVaultLifecycle(t *testing.T) {
	_, ks := tmpKeyStore(t)
	require.NoError(t, ks.CreateVault("cold", "vaultpass"))

	key, err := newKey()
	require.NoError(t, err)
	a, err := ks.InsertAccount(accounts.Vault("cold"), key.PrivateKey.D.Bytes(), "foobar")
	require.NoError(t, err)

	ref := accounts.Ref{Scope: accounts.Vault("cold"), Address: a.Address}
	sig, err := ks.Sign(ref, "foobar", make([]byte, 32))
	require.NoError(t, err)
	require.Len(t, sig, 65)

	require.NoError(t, ks.CloseVault("cold"))
	_, _, err = ks.findAccount(ref)
	require.Error(t, err)

	require.NoError(t, ks.OpenVault("cold", "vaultpass"))
	_, _, err = ks.findAccount(ref)
	require.NoError(t, err)

	require.Error(t, ks.OpenVault("cold", "wrongpass"))
}

func TestKeyStoreCopyAccount(t *testing.T) {
	_, ks := tmpKeyStore(t)
	key, err := newKey()
	require.NoError(t, err)
	a, err := ks.InsertAccount(accounts.Root, key.PrivateKey.D.Bytes(), "foobar")
	require.NoError(t, err)
	ref := accounts.Ref{Scope: accounts.Root, Address: a.Address}

	_, dest := tmpKeyStore(t)
	copied, err := ks.CopyAccount(dest, accounts.Root, ref, "foobar", "destpass")
	require.NoError(t, err)
	require.Equal(t, a.Address, copied.Address)

	destRef := accounts.Ref{Scope: accounts.Root, Address: copied.Address}
	_, err = dest.Sign(destRef, "destpass", make([]byte, 32))
	require.NoError(t, err)
}
