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

// Package addressbook implements a JSON-file-backed accounts.AddressBook: a
// persistent name/metadata map over arbitrary addresses, which need not be
// owned accounts.
package addressbook

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/ethaccounts/provider/accounts"
	"github.com/ethaccounts/provider/common"
)

// Book is a JSON-file-backed accounts.AddressBook.
type Book struct {
	mu      sync.RWMutex
	path    string // empty for an in-memory-only book
	entries map[common.Address]accounts.Meta
}

// New loads (or initializes) a book persisted at path.
func New(path string) (*Book, error) {
	b := &Book{path: path, entries: make(map[common.Address]accounts.Meta)}
	if path == "" {
		return b, nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return b, nil
	}
	if err != nil {
		return nil, err
	}
	var stored map[string]accounts.Meta
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}
	for k, v := range stored {
		if common.IsHexAddress(k) {
			b.entries[common.HexToAddress(k)] = v
		}
	}
	return b, nil
}

// NewMemory returns a book that never touches disk, for the transient
// provider mode (spec.md §4.6).
func NewMemory() *Book {
	b, _ := New("")
	return b
}

func (b *Book) Get() map[common.Address]accounts.Meta {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[common.Address]accounts.Meta, len(b.entries))
	for k, v := range b.entries {
		out[k] = v
	}
	return out
}

func (b *Book) SetName(addr common.Address, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := b.entries[addr]
	e.Name = name
	b.entries[addr] = e
	return b.persist()
}

func (b *Book) SetMeta(addr common.Address, meta string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := b.entries[addr]
	e.Meta = meta
	b.entries[addr] = e
	return b.persist()
}

func (b *Book) Remove(addr common.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, addr)
	return b.persist()
}

// persist must be called with b.mu held.
func (b *Book) persist() error {
	if b.path == "" {
		return nil
	}
	stored := make(map[string]accounts.Meta, len(b.entries))
	for k, v := range b.entries {
		stored[k.Hex()] = v
	}
	raw, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(b.path, raw, 0644)
}

var _ accounts.AddressBook = (*Book)(nil)
