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

// Package accounts defines the types and backend contracts shared by the
// account provider: the abstract notion of an Account, its scoping into
// vaults, and the four interfaces (SecretStore, HardwareWalletManager,
// AddressBook, DappsSettingsStore) that concrete backends implement. It owns
// no storage itself — that lives in accounts/keystore, accounts/transient and
// accounts/usbwallet.
package accounts

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethaccounts/provider/common"
)

// Account represents an Ethereum account located at a specific location
// defined by the optional URL field.
type Account struct {
	Address common.Address `json:"address"` // Ethereum account address derived from the key
	URL     URL             `json:"url"`     // Optional resource locator within a backend
}

func (a Account) String() string {
	return a.Address.Hex()
}

// VaultScope identifies the named container an account lives in. The zero
// value is Root.
type VaultScope struct {
	Name string // empty means Root
}

// Root is the implicit, unnamed vault every account starts in.
var Root = VaultScope{}

// Vault returns the scope of the named vault.
func Vault(name string) VaultScope {
	return VaultScope{Name: name}
}

// IsRoot reports whether s identifies the Root scope.
func (s VaultScope) IsRoot() bool { return s.Name == "" }

func (s VaultScope) String() string {
	if s.IsRoot() {
		return "<root>"
	}
	return s.Name
}

// Ref pairs an address with the vault scope it currently lives in. The same
// address never exists in two scopes simultaneously.
type Ref struct {
	Scope   VaultScope
	Address common.Address
}

func (r Ref) String() string {
	return fmt.Sprintf("%s:%s", r.Scope, r.Address.Hex())
}

// UnlockMode tags the lifetime discipline of an unlock record.
type UnlockMode int

const (
	// Temp is consumed after exactly one successful sign/decrypt.
	Temp UnlockMode = iota
	// Perm persists until process exit or an explicit lock.
	Perm
	// Timed is valid while now <= Deadline; evicted lazily thereafter.
	Timed
)

func (m UnlockMode) String() string {
	switch m {
	case Temp:
		return "temp"
	case Perm:
		return "perm"
	case Timed:
		return "timed"
	default:
		return "unknown"
	}
}

// UnlockRecord is the in-memory cache of a password plus the discipline under
// which it expires. Never persisted to disk.
type UnlockRecord struct {
	Mode     UnlockMode
	Deadline time.Time // only meaningful when Mode == Timed
	Password string
}

// Expired reports whether a Timed record has passed its deadline at t.
func (r UnlockRecord) Expired(t time.Time) bool {
	return r.Mode == Timed && t.After(r.Deadline)
}

// Meta is the descriptive metadata attached to an account: a caller-chosen
// name, a free-form meta blob (commonly JSON), and — for software accounts —
// the keyfile UUID.
type Meta struct {
	Name string
	Meta string
	UUID string // empty for hardware accounts
}

// AmbiguousAddrError is returned when more than one account matches a given
// address within a single backend (e.g. duplicate keyfiles on disk).
type AmbiguousAddrError struct {
	Addr    common.Address
	Matches []Account
}

func (e *AmbiguousAddrError) Error() string {
	files := ""
	for i, a := range e.Matches {
		files += a.URL.Path
		if i < len(e.Matches)-1 {
			files += ", "
		}
	}
	return fmt.Sprintf("multiple keys match address (%s)", files)
}

// Sentinel errors shared by every backend and by the facade. Backends wrap
// their own causes in StoreError/HardwareError so callers can still
// errors.Is/errors.As through to these.
var (
	ErrNotFound         = errors.New("account not found")
	ErrNoMatch          = errors.New("no key for given address or file")
	ErrNotUnlocked      = errors.New("account not unlocked")
	ErrLocked           = errors.New("account locked")
	ErrDecrypt          = errors.New("could not decrypt key with given password")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrInvalidAccount   = errors.New("invalid account")
	ErrInvalidVault     = errors.New("invalid vault")
	ErrNeedPasswordOrUnlock = errors.New("password or unlock required")
	ErrNoHardwareManager    = errors.New("no hardware wallet manager configured")
	ErrKeyNotFound          = errors.New("key not found on hardware device")
)

// StoreError wraps a SecretStore-originated failure, preserving the
// underlying cause for errors.Is/errors.As while letting callers match on
// the sentinel kind for RPC-code mapping (see package rpcerr).
type StoreError struct {
	Kind error
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, accounts.ErrInvalidPassword) succeed through a
// StoreError whose Kind matches, without requiring Err itself to match.
func (e *StoreError) Is(target error) bool {
	return e.Kind == target
}

// HardwareError wraps a HardwareWalletManager-originated failure.
type HardwareError struct {
	Kind error
	Err  error
}

func (e *HardwareError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *HardwareError) Unwrap() error { return e.Err }

func (e *HardwareError) Is(target error) bool {
	return e.Kind == target
}

// Signature is a 65-byte recoverable ECDSA signature, R || S || V.
type Signature []byte

// SecretStore is the contract implemented by both the on-disk keystore
// (accounts/keystore) and the in-memory transient keystore
// (accounts/transient). It owns account lifecycle, password verification,
// signing/decryption, and (optionally; the transient store rejects them) vaults.
type SecretStore interface {
	Accounts() []Account
	AccountRef(addr common.Address) (Ref, error)

	InsertAccount(scope VaultScope, secret []byte, password string) (Account, error)
	InsertDerived(scope VaultScope, src Ref, password string, path string) (Account, error)
	ImportPresale(scope VaultScope, json []byte, password string) (Account, error)
	ImportWallet(scope VaultScope, json []byte, password string) (Account, error)
	ImportGeth(scope VaultScope, srcDir string, addr common.Address, testnet bool) (Account, error)
	ListGeth(testnet bool) ([]common.Address, error)

	RemoveAccount(ref Ref, password string) error
	TestPassword(ref Ref, password string) (bool, error)
	ChangePassword(ref Ref, oldPassword, newPassword string) error

	Sign(ref Ref, password string, hash []byte) (Signature, error)
	Decrypt(ref Ref, password string, sharedMAC, msg []byte) ([]byte, error)

	Name(ref Ref) (string, error)
	SetName(ref Ref, name string) error
	AccountMeta(ref Ref) (string, error)
	SetMeta(ref Ref, meta string) error
	UUID(ref Ref) (string, error)

	// CopyAccount copies the account at srcRef (decrypted with oldPassword)
	// into dest re-encrypted with newPassword, leaving the source untouched.
	CopyAccount(dest SecretStore, scope VaultScope, srcRef Ref, oldPassword, newPassword string) (Account, error)

	CreateVault(name, password string) error
	OpenVault(name, password string) error
	CloseVault(name string) error
	ListVaults() ([]string, error)
	ListOpenedVaults() ([]string, error)
	ChangeVaultPassword(name, newPassword string) error
	ChangeAccountVault(ref Ref, newVault string) (Ref, error)
}

// WalletInfo describes a single hardware-backed signing address.
type WalletInfo struct {
	Name         string
	Manufacturer string
	Serial       string
	Address      common.Address
}

// HardwareWalletManager enumerates and signs with external hardware
// devices. Implementations own an independent background goroutine for USB
// hotplug events and are internally synchronised; the facade never holds a
// lock across a call into this interface.
type HardwareWalletManager interface {
	ListWallets() []WalletInfo
	WalletInfo(addr common.Address) (WalletInfo, bool)
	SignTransaction(addr common.Address, payload []byte) (Signature, error)
	SetKeyPath(path string) error
	Close() error
}

// AddressBook is a persistent name/metadata map over arbitrary addresses,
// which need not be owned accounts.
type AddressBook interface {
	Get() map[common.Address]Meta
	SetName(addr common.Address, name string) error
	SetMeta(addr common.Address, meta string) error
	Remove(addr common.Address) error
}

// DappsSettingsStore is the persistent policy + per-dapp visibility map +
// recent-use log consulted by package dappstore.
type DappsSettingsStore interface {
	Policy() (Policy, error)
	SetPolicy(p Policy) error
	Settings() (map[string]DappSettings, error)
	SetAccounts(dapp string, addrs []common.Address) error
	RecentDapps() (map[string]time.Time, error)
	MarkDappUsed(dapp string) error
}

// Policy is the global new-dapps visibility policy: either every owned
// account is visible, or only an explicit whitelist.
type Policy struct {
	AllAccounts bool
	Whitelist   []common.Address // meaningful only when AllAccounts == false
}

// DappSettings is the per-dapp pinned account list.
type DappSettings struct {
	Accounts []common.Address
}
