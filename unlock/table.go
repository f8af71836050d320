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

// Package unlock implements the process-wide unlock table: a
// concurrency-safe map from account identity to a cached password plus its
// expiry discipline (spec.md §4.2).
package unlock

import (
	"sync"
	"time"

	"github.com/ethaccounts/provider/accounts"
)

// Table is the unlock table. Create one with New; the zero value has no
// record map or clock, and Insert on it panics.
type Table struct {
	mu      sync.RWMutex
	records map[accounts.Ref]accounts.UnlockRecord
	now     func() time.Time // overridable for deterministic tests
}

// New creates an empty unlock table.
func New() *Table {
	return &Table{records: make(map[accounts.Ref]accounts.UnlockRecord), now: time.Now}
}

// Insert records password under mode for ref, unless ref already holds a
// Perm entry — a permanent unlock is never downgraded.
func (t *Table) Insert(ref accounts.Ref, mode accounts.UnlockMode, deadline time.Time, password string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.records[ref]; ok && existing.Mode == accounts.Perm {
		return
	}
	t.records[ref] = accounts.UnlockRecord{Mode: mode, Deadline: deadline, Password: password}
}

// PasswordFor returns the cached password for ref, consuming a Temp entry
// or evicting an expired Timed entry as a side effect. Always takes the
// exclusive lock, since the common path mutates the table (spec.md §4.2).
func (t *Table) PasswordFor(ref accounts.Ref) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[ref]
	if !ok {
		return "", accounts.ErrNotUnlocked
	}
	switch rec.Mode {
	case accounts.Temp:
		delete(t.records, ref)
	case accounts.Timed:
		if t.now().After(rec.Deadline) {
			delete(t.records, ref)
			return "", accounts.ErrNotUnlocked
		}
	}
	return rec.Password, nil
}

// IsUnlocked is a shared-access probe; it does not evict expired entries.
func (t *Table) IsUnlocked(ref accounts.Ref) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[ref]
	if !ok {
		return false
	}
	if rec.Mode == accounts.Timed && t.now().After(rec.Deadline) {
		return false
	}
	return true
}

// Lock removes any entry for ref unconditionally, regardless of mode.
func (t *Table) Lock(ref accounts.Ref) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, ref)
}
