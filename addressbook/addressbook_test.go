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

package addressbook

import (
	"path/filepath"
	"testing"

	"github.com/ethaccounts/provider/common"
	"github.com/stretchr/testify/require"
)

func TestBookPersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.json")

	b, err := New(path)
	require.NoError(t, err)
	addr := common.HexToAddress("0x2222222222222222222222222222222222222222")
	require.NoError(t, b.SetName(addr, "alice"))
	require.NoError(t, b.SetMeta(addr, `{"tag":"friend"}`))

	reloaded, err := New(path)
	require.NoError(t, err)
	entries := reloaded.Get()
	require.Equal(t, "alice", entries[addr].Name)
	require.Equal(t, `{"tag":"friend"}`, entries[addr].Meta)
}

func TestBookRemove(t *testing.T) {
	dir := t.TempDir()
	b, err := New(filepath.Join(dir, "book.json"))
	require.NoError(t, err)
	addr := common.HexToAddress("0x3333333333333333333333333333333333333333")
	require.NoError(t, b.SetName(addr, "bob"))
	require.NoError(t, b.Remove(addr))
	_, ok := b.Get()[addr]
	require.False(t, ok)
}

func TestMemoryBookNeverTouchesDisk(t *testing.T) {
	b := NewMemory()
	addr := common.HexToAddress("0x4444444444444444444444444444444444444444")
	require.NoError(t, b.SetName(addr, "carol"))
	require.Empty(t, b.path) // no backing file, so persisting writes nothing
}
