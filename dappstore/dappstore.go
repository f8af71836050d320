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

// Package dappstore implements the JSON-file-backed accounts.DappsSettingsStore
// and the dapp visibility policy resolution logic that sits on top of it
// (spec.md §4.3).
package dappstore

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/ethaccounts/provider/accounts"
	"github.com/ethaccounts/provider/common"
)

type onDiskState struct {
	Policy  accounts.Policy                   `json:"policy"`
	PerDapp map[string]accounts.DappSettings  `json:"per_dapp"`
	Recent  map[string]time.Time              `json:"recent"`
}

// Store is a JSON-file-backed accounts.DappsSettingsStore.
type Store struct {
	mu    sync.RWMutex
	path  string
	state onDiskState
}

// New loads (or initializes) a store persisted at path. An empty path
// produces an in-memory-only store (spec.md §4.6 transient mode).
func New(path string) (*Store, error) {
	s := &Store{path: path, state: onDiskState{
		Policy:  accounts.Policy{AllAccounts: true},
		PerDapp: make(map[string]accounts.DappSettings),
		Recent:  make(map[string]time.Time),
	}}
	if path == "" {
		return s, nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &s.state); err != nil {
		return nil, err
	}
	if s.state.PerDapp == nil {
		s.state.PerDapp = make(map[string]accounts.DappSettings)
	}
	if s.state.Recent == nil {
		s.state.Recent = make(map[string]time.Time)
	}
	return s, nil
}

func NewMemory() *Store {
	s, _ := New("")
	return s
}

func (s *Store) Policy() (accounts.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Policy, nil
}

func (s *Store) SetPolicy(p accounts.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Policy = p
	return s.persist()
}

func (s *Store) Settings() (map[string]accounts.DappSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]accounts.DappSettings, len(s.state.PerDapp))
	for k, v := range s.state.PerDapp {
		out[k] = v
	}
	return out, nil
}

func (s *Store) SetAccounts(dapp string, addrs []common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.PerDapp[dapp] = accounts.DappSettings{Accounts: addrs}
	return s.persist()
}

func (s *Store) RecentDapps() (map[string]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]time.Time, len(s.state.Recent))
	for k, v := range s.state.Recent {
		out[k] = v
	}
	return out, nil
}

func (s *Store) MarkDappUsed(dapp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Recent[dapp] = time.Now()
	return s.persist()
}

// persist must be called with s.mu held.
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}
	raw, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0644)
}

var _ accounts.DappsSettingsStore = (*Store)(nil)
