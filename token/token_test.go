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

package token

import (
	"os"
	"testing"

	"github.com/ethaccounts/provider/accounts"
	"github.com/ethaccounts/provider/accounts/keystore"
	"github.com/ethaccounts/provider/accounts/transient"
	"github.com/ethaccounts/provider/crypto"
	"github.com/stretchr/testify/require"
)

func newFixture(t *testing.T) (*keystore.KeyStore, *transient.Store, accounts.Ref) {
	dir, err := os.MkdirTemp("", "token-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	ks := keystore.NewKeyStore(dir, 2, 1)
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	a, err := ks.InsertAccount(accounts.Root, crypto.FromECDSA(priv), "realpassword")
	require.NoError(t, err)

	return ks, transient.New(), accounts.Ref{Scope: accounts.Root, Address: a.Address}
}

func TestUseFirstUseThenRotates(t *testing.T) {
	ks, tr, ref := newFixture(t)

	res, tok1, err := Use(ks, tr, ref, "realpassword", OpSign, make([]byte, 32), nil)
	require.NoError(t, err)
	require.Len(t, res.Signature, 65)
	require.Len(t, tok1, 16)

	// Presenting the real password again would still succeed: the on-disk
	// test passes and the first-use branch just re-copies the transient
	// entry. So this checks the more interesting path: using tok1.
	res2, tok2, err := Use(ks, tr, ref, tok1, OpSign, make([]byte, 32), nil)
	require.NoError(t, err)
	require.Len(t, res2.Signature, 65)
	require.NotEqual(t, tok1, tok2)

	// tok1 is now invalid: using it a second time must fail.
	_, _, err = Use(ks, tr, ref, tok1, OpSign, make([]byte, 32), nil)
	require.Error(t, err)
}

func TestUseWrongPasswordFails(t *testing.T) {
	ks, tr, ref := newFixture(t)
	_, _, err := Use(ks, tr, ref, "nope", OpSign, make([]byte, 32), nil)
	require.ErrorIs(t, err, accounts.ErrInvalidPassword)
}

func TestUseDecryptSurfacesErrorOnInvalidCiphertext(t *testing.T) {
	ks, tr, ref := newFixture(t)
	_, _, err := Use(ks, tr, ref, "realpassword", OpDecrypt, []byte("not valid ecies"), nil)
	require.Error(t, err)
}
