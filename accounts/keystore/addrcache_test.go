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

package keystore

import (
	"os"
	"testing"

	"github.com/ethaccounts/provider/accounts"
	"github.com/stretchr/testify/require"
)

func tmpCacheDir(t *testing.T) string {
	dir, err := os.MkdirTemp("", "addrcache-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestCacheAddDeleteOrder(t *testing.T) {
	dir := tmpCacheDir(t)
	cache := newAddrCache(dir)
	cache.watcher.running = true // keep maybeReload from rescanning the empty directory
	defer cache.close()

	accs := make([]accounts.Account, 5)
	for i := range accs {
		k, err := newKey()
		require.NoError(t, err)
		accs[i] = accounts.Account{Address: k.Address, URL: accounts.URL{Scheme: KeyStoreScheme, Path: dir + "/f" + string(rune('a'+i))}}
		cache.add(accs[i])
	}
	got := cache.accounts()
	require.Len(t, got, 5)

	// accounts() returns file-path order, regardless of insertion order.
	for i := 1; i < len(got); i++ {
		require.LessOrEqual(t, got[i-1].URL.Path, got[i].URL.Path)
	}

	cache.delete(accs[2])
	require.False(t, cache.hasAddress(accs[2].Address))
	require.Len(t, cache.accounts(), 4)
}

func TestCacheFindAmbiguous(t *testing.T) {
	dir := tmpCacheDir(t)
	cache := newAddrCache(dir)
	cache.watcher.running = true // keep maybeReload from rescanning the empty directory
	defer cache.close()

	k, err := newKey()
	require.NoError(t, err)
	a1 := accounts.Account{Address: k.Address, URL: accounts.URL{Scheme: KeyStoreScheme, Path: dir + "/a"}}
	a2 := accounts.Account{Address: k.Address, URL: accounts.URL{Scheme: KeyStoreScheme, Path: dir + "/b"}}
	cache.add(a1)
	cache.add(a2)

	_, err = cache.find(accounts.Account{Address: k.Address})
	require.Error(t, err)
	var ambErr *accounts.AmbiguousAddrError
	require.ErrorAs(t, err, &ambErr)
	require.Len(t, ambErr.Matches, 2)
}

func TestCacheFindNoMatch(t *testing.T) {
	dir := tmpCacheDir(t)
	cache := newAddrCache(dir)
	defer cache.close()

	k, err := newKey()
	require.NoError(t, err)
	_, err = cache.find(accounts.Account{Address: k.Address})
	require.ErrorIs(t, err, accounts.ErrNoMatch)
}

func TestCacheReloadFromDisk(t *testing.T) {
	dir := tmpCacheDir(t)
	ks := NewKeyStore(dir, veryLightScryptN, veryLightScryptP)

	key, err := newKey()
	require.NoError(t, err)
	a, err := ks.InsertAccount(accounts.Root, key.PrivateKey.D.Bytes(), "foobar")
	require.NoError(t, err)

	// A brand new cache over the same directory must find the keyfile
	// written by the first one, independent of the in-memory index.
	fresh := newAddrCache(dir)
	defer fresh.close()
	require.True(t, fresh.hasAddress(a.Address))
}
