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

// Package transient implements the in-memory, multi-password secret store
// backing the session token protocol (spec.md §4.4): a copy of an account
// can be installed under one password and later re-keyed to another without
// ever touching disk.
package transient

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"

	"github.com/ethaccounts/provider/accounts"
	"github.com/ethaccounts/provider/accounts/keystore"
	"github.com/ethaccounts/provider/common"
	"github.com/ethaccounts/provider/crypto"
)

// entry is one password-protected copy of a private key living only in
// process memory.
type entry struct {
	account  accounts.Account
	password string
	priv     *ecdsa.PrivateKey
}

// Store is a no-disk accounts.SecretStore: every account lives only in
// process memory, keyed by address, each guarded by its own current
// password. A transient store has no concept of on-disk containers, so
// vault operations are not supported (see below).
type Store struct {
	mu      sync.RWMutex
	byAddr  map[common.Address]*entry
}

// New creates an empty transient store.
func New() *Store {
	return &Store{byAddr: make(map[common.Address]*entry)}
}

func (s *Store) Accounts() []accounts.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]accounts.Account, 0, len(s.byAddr))
	for _, e := range s.byAddr {
		out = append(out, e.account)
	}
	return out
}

func (s *Store) AccountRef(addr common.Address) (accounts.Ref, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.byAddr[addr]; !ok {
		return accounts.Ref{}, accounts.ErrNotFound
	}
	return accounts.Ref{Scope: accounts.Root, Address: addr}, nil
}

func (s *Store) InsertAccount(_ accounts.VaultScope, secret []byte, password string) (accounts.Account, error) {
	priv := crypto.ToECDSA(secret)
	addr := crypto.PubkeyToAddress(priv.PublicKey)
	a := accounts.Account{Address: addr, URL: accounts.URL{Scheme: "transient", Path: addr.Hex()}}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byAddr[addr] = &entry{account: a, password: password, priv: priv}
	return a, nil
}

// InsertDerived derives a child key from src's in-memory private key, treated
// as BIP-32 seed material, and installs it under password — the same
// derivation keystore.KeyStore.InsertDerived performs, minus any disk I/O.
func (s *Store) InsertDerived(_ accounts.VaultScope, src accounts.Ref, password string, path string) (accounts.Account, error) {
	e, err := s.get(src, password)
	if err != nil {
		return accounts.Account{}, err
	}
	child, err := keystore.DeriveECDSA(crypto.FromECDSA(e.priv), path)
	if err != nil {
		return accounts.Account{}, &accounts.StoreError{Kind: accounts.ErrInvalidAccount, Err: err}
	}
	return s.InsertAccount(accounts.Root, crypto.FromECDSA(child), password)
}

func (s *Store) ImportPresale(accounts.VaultScope, []byte, string) (accounts.Account, error) {
	return accounts.Account{}, errors.New("transient: presale import is only supported by the on-disk store")
}

func (s *Store) ImportWallet(scope accounts.VaultScope, json []byte, password string) (accounts.Account, error) {
	return accounts.Account{}, errors.New("transient: wallet import is only supported by the on-disk store")
}

func (s *Store) ImportGeth(accounts.VaultScope, string, common.Address, bool) (accounts.Account, error) {
	return accounts.Account{}, errors.New("transient: geth import is only supported by the on-disk store")
}

func (s *Store) ListGeth(bool) ([]common.Address, error) {
	return nil, nil
}

func (s *Store) RemoveAccount(ref accounts.Ref, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byAddr[ref.Address]
	if !ok {
		return accounts.ErrNotFound
	}
	if e.password != password {
		return accounts.ErrInvalidPassword
	}
	delete(s.byAddr, ref.Address)
	return nil
}

func (s *Store) TestPassword(ref accounts.Ref, password string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byAddr[ref.Address]
	if !ok {
		return false, accounts.ErrNotFound
	}
	return e.password == password, nil
}

// ChangePassword re-keys the transient copy under newPassword. This is the
// operation the session token protocol uses to rotate a token: the account
// never moves, only the password guarding it changes.
func (s *Store) ChangePassword(ref accounts.Ref, oldPassword, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byAddr[ref.Address]
	if !ok {
		return accounts.ErrNotFound
	}
	if e.password != oldPassword {
		return accounts.ErrInvalidPassword
	}
	e.password = newPassword
	return nil
}

func (s *Store) Sign(ref accounts.Ref, password string, hash []byte) (accounts.Signature, error) {
	e, err := s.get(ref, password)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(hash, e.priv)
	if err != nil {
		return nil, &accounts.StoreError{Kind: accounts.ErrInvalidAccount, Err: err}
	}
	return accounts.Signature(sig), nil
}

func (s *Store) Decrypt(ref accounts.Ref, password string, sharedMAC, msg []byte) ([]byte, error) {
	e, err := s.get(ref, password)
	if err != nil {
		return nil, err
	}
	out, err := crypto.DecryptShared(e.priv, msg, nil, sharedMAC)
	if err != nil {
		return nil, &accounts.StoreError{Kind: accounts.ErrDecrypt, Err: err}
	}
	return out, nil
}

func (s *Store) get(ref accounts.Ref, password string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byAddr[ref.Address]
	if !ok {
		return nil, &accounts.StoreError{Kind: accounts.ErrNotFound}
	}
	if e.password != password {
		return nil, &accounts.StoreError{Kind: accounts.ErrInvalidPassword}
	}
	return e, nil
}

func (s *Store) Name(accounts.Ref) (string, error)          { return "", nil }
func (s *Store) SetName(accounts.Ref, string) error          { return nil }
func (s *Store) AccountMeta(accounts.Ref) (string, error)    { return "", nil }
func (s *Store) SetMeta(accounts.Ref, string) error           { return nil }
func (s *Store) UUID(accounts.Ref) (string, error)            { return "", nil }

// CopyAccount copies the transient entry at srcRef into dest re-keyed under
// newPassword. The token protocol's first-use branch calls it when the
// provider's software store is itself a transient store (provider.NewTransient).
func (s *Store) CopyAccount(dest accounts.SecretStore, scope accounts.VaultScope, srcRef accounts.Ref, oldPassword, newPassword string) (accounts.Account, error) {
	e, err := s.get(srcRef, oldPassword)
	if err != nil {
		return accounts.Account{}, err
	}
	return dest.InsertAccount(scope, crypto.FromECDSA(e.priv), newPassword)
}

// Vault operations are not supported: creating, opening or re-keying a vault
// and moving an account between vaults return an error; CloseVault and the
// two listings succeed and report nothing.
func (s *Store) CreateVault(string, string) error               { return fmt.Errorf("transient: vaults are not supported") }
func (s *Store) OpenVault(string, string) error                 { return fmt.Errorf("transient: vaults are not supported") }
func (s *Store) CloseVault(string) error                        { return nil }
func (s *Store) ListVaults() ([]string, error)                  { return nil, nil }
func (s *Store) ListOpenedVaults() ([]string, error)             { return nil, nil }
func (s *Store) ChangeVaultPassword(string, string) error        { return fmt.Errorf("transient: vaults are not supported") }
func (s *Store) ChangeAccountVault(ref accounts.Ref, _ string) (accounts.Ref, error) {
	return accounts.Ref{}, fmt.Errorf("transient: vaults are not supported")
}

var _ accounts.SecretStore = (*Store)(nil)
