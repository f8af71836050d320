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

// Package provider implements the Account Provider facade: the single
// entry point composing a software secret store, an optional hardware
// wallet manager, an address book, a dapps settings store, the unlock
// table, and the session token protocol into one coherent API.
package provider

import (
	"time"

	"github.com/ethaccounts/provider/accounts"
	"github.com/ethaccounts/provider/accounts/transient"
	"github.com/ethaccounts/provider/addressbook"
	"github.com/ethaccounts/provider/common"
	"github.com/ethaccounts/provider/crypto"
	"github.com/ethaccounts/provider/dappstore"
	"github.com/ethaccounts/provider/token"
	"github.com/ethaccounts/provider/unlock"
)

// Provider composes every backend behind one facade. All fields besides hw
// are never nil; hw is nil when no hardware wallet manager was configured.
type Provider struct {
	store  accounts.SecretStore
	tokens accounts.SecretStore
	hw     accounts.HardwareWalletManager

	book  accounts.AddressBook
	dapps accounts.DappsSettingsStore

	resolver *dappstore.Resolver
	unlocks  *unlock.Table
}

// New builds a Provider over the given backends. hw may be nil.
func New(store accounts.SecretStore, hw accounts.HardwareWalletManager, book accounts.AddressBook, dapps accounts.DappsSettingsStore) *Provider {
	p := &Provider{
		store:   store,
		tokens:  transient.New(),
		hw:      hw,
		book:    book,
		dapps:   dapps,
		unlocks: unlock.New(),
	}
	p.resolver = &dappstore.Resolver{Store: dapps, AddressBook: book, OwnedAccounts: p.accountAddresses}
	return p
}

// NewTransient builds the no-disk provider of spec.md §4.6: every backend is
// in-memory and no hardware manager is configured. Useful for tests and for
// callers that never want anything written to disk.
func NewTransient() *Provider {
	return New(transient.New(), nil, addressbook.NewMemory(), dappstore.NewMemory())
}

func (p *Provider) accountAddresses() []common.Address {
	accs := p.store.Accounts()
	out := make([]common.Address, len(accs))
	for i, a := range accs {
		out[i] = a.Address
	}
	return out
}

// --- Creation / import -----------------------------------------------------

// NewAccount creates a fresh account, encrypted under password. The new
// account is never auto-unlocked.
func (p *Provider) NewAccount(password string) (accounts.Account, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return accounts.Account{}, err
	}
	return p.store.InsertAccount(accounts.Root, crypto.FromECDSA(priv), password)
}

// NewAccountAndPublic creates a fresh account like NewAccount, additionally
// returning the uncompressed public key.
func (p *Provider) NewAccountAndPublic(password string) (accounts.Account, []byte, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return accounts.Account{}, nil, err
	}
	pub := crypto.FromECDSAPub(&priv.PublicKey)
	acc, err := p.store.InsertAccount(accounts.Root, crypto.FromECDSA(priv), password)
	if err != nil {
		return accounts.Account{}, nil, err
	}
	return acc, pub, nil
}

// InsertAccount imports a raw private key under password.
func (p *Provider) InsertAccount(secret []byte, password string) (accounts.Account, error) {
	return p.store.InsertAccount(accounts.Root, secret, password)
}

// ImportPresale imports a 2014 presale wallet.
func (p *Provider) ImportPresale(json []byte, password string) (accounts.Account, error) {
	return p.store.ImportPresale(accounts.Root, json, password)
}

// ImportWallet imports a V1/V3 Web3 Secret Storage keyfile.
func (p *Provider) ImportWallet(json []byte, password string) (accounts.Account, error) {
	return p.store.ImportWallet(accounts.Root, json, password)
}

// ListGethAccounts enumerates addresses in a local geth installation's
// keystore without importing anything.
func (p *Provider) ListGethAccounts(testnet bool) ([]common.Address, error) {
	return p.store.ListGeth(testnet)
}

// ImportGethAccounts imports each address in desired from a local geth
// installation's keystore, in order. It stops at the first address that
// fails and returns the accounts imported before it together with the error.
func (p *Provider) ImportGethAccounts(desired []common.Address, testnet bool) ([]accounts.Account, error) {
	out := make([]accounts.Account, 0, len(desired))
	for _, addr := range desired {
		acc, err := p.store.ImportGeth(accounts.Root, "", addr, testnet)
		if err != nil {
			return out, err
		}
		out = append(out, acc)
	}
	return out, nil
}

// --- Enumeration -------------------------------------------------------

// Accounts returns every software account.
func (p *Provider) Accounts() []accounts.Account {
	return p.store.Accounts()
}

// HardwareAccounts returns every hardware-backed address, or an empty slice
// if no hardware manager is configured.
func (p *Provider) HardwareAccounts() []accounts.WalletInfo {
	if p.hw == nil {
		return nil
	}
	return p.hw.ListWallets()
}

// HasAccount reports whether addr is known to the software store.
func (p *Provider) HasAccount(addr common.Address) bool {
	_, err := p.store.AccountRef(addr)
	return err == nil
}

// IsHardwareAddress reports whether addr is currently backed by a connected
// hardware wallet.
func (p *Provider) IsHardwareAddress(addr common.Address) bool {
	if p.hw == nil {
		return false
	}
	_, ok := p.hw.WalletInfo(addr)
	return ok
}

// --- Metadata ------------------------------------------------------------

// AccountMeta returns the descriptive metadata for addr. If a hardware
// manager knows the address, its info wins over the software keystore.
func (p *Provider) AccountMeta(addr common.Address) (accounts.Meta, error) {
	if p.hw != nil {
		if info, ok := p.hw.WalletInfo(addr); ok {
			return accounts.Meta{Name: info.Name, Meta: info.Manufacturer}, nil
		}
	}
	ref, err := p.store.AccountRef(addr)
	if err != nil {
		return accounts.Meta{}, err
	}
	name, err := p.store.Name(ref)
	if err != nil {
		return accounts.Meta{}, err
	}
	meta, err := p.store.AccountMeta(ref)
	if err != nil {
		return accounts.Meta{}, err
	}
	uuid, err := p.store.UUID(ref)
	if err != nil {
		return accounts.Meta{}, err
	}
	return accounts.Meta{Name: name, Meta: meta, UUID: uuid}, nil
}

// AccountsInfo returns the descriptive metadata for every software account,
// keyed by address. Addresses whose metadata can't be read are omitted.
func (p *Provider) AccountsInfo() map[common.Address]accounts.Meta {
	out := make(map[common.Address]accounts.Meta)
	for _, a := range p.store.Accounts() {
		ref := accounts.Ref{Scope: accounts.Root, Address: a.Address}
		if ar, err := p.store.AccountRef(a.Address); err == nil {
			ref = ar
		}
		name, err := p.store.Name(ref)
		if err != nil {
			continue
		}
		meta, err := p.store.AccountMeta(ref)
		if err != nil {
			continue
		}
		uuid, err := p.store.UUID(ref)
		if err != nil {
			continue
		}
		out[a.Address] = accounts.Meta{Name: name, Meta: meta, UUID: uuid}
	}
	return out
}

// HardwareAccountsInfo returns the descriptive metadata for every connected
// hardware wallet address, keyed by address. Empty if no hardware manager is
// configured.
func (p *Provider) HardwareAccountsInfo() map[common.Address]accounts.Meta {
	out := make(map[common.Address]accounts.Meta)
	if p.hw == nil {
		return out
	}
	for _, info := range p.hw.ListWallets() {
		out[info.Address] = accounts.Meta{Name: info.Name, Meta: info.Manufacturer}
	}
	return out
}

// --- Mutation --------------------------------------------------------------

func (p *Provider) SetAccountName(addr common.Address, name string) error {
	ref, err := p.store.AccountRef(addr)
	if err != nil {
		return err
	}
	return p.store.SetName(ref, name)
}

func (p *Provider) SetAccountMeta(addr common.Address, meta string) error {
	ref, err := p.store.AccountRef(addr)
	if err != nil {
		return err
	}
	return p.store.SetMeta(ref, meta)
}

func (p *Provider) ChangePassword(addr common.Address, oldPassword, newPassword string) error {
	ref, err := p.store.AccountRef(addr)
	if err != nil {
		return err
	}
	return p.store.ChangePassword(ref, oldPassword, newPassword)
}

// KillAccount removes addr after verifying password, also dropping any live
// unlock record for it.
func (p *Provider) KillAccount(addr common.Address, password string) error {
	ref, err := p.store.AccountRef(addr)
	if err != nil {
		return err
	}
	if err := p.store.RemoveAccount(ref, password); err != nil {
		return err
	}
	p.unlocks.Lock(ref)
	return nil
}

func (p *Provider) TestPassword(addr common.Address, password string) (bool, error) {
	ref, err := p.store.AccountRef(addr)
	if err != nil {
		return false, err
	}
	return p.store.TestPassword(ref, password)
}

// --- Address book ------------------------------------------------------

// AddressesInfo returns the full name/meta map over every address the book
// tracks.
func (p *Provider) AddressesInfo() map[common.Address]accounts.Meta {
	return p.book.Get()
}

func (p *Provider) SetAddressName(addr common.Address, name string) error {
	return p.book.SetName(addr, name)
}

func (p *Provider) SetAddressMeta(addr common.Address, meta string) error {
	return p.book.SetMeta(addr, meta)
}

func (p *Provider) RemoveAddress(addr common.Address) error {
	return p.book.Remove(addr)
}

// --- Dapp surface --------------------------------------------------------

// SetNewDappsWhitelist sets the global policy: a nil whitelist means every
// owned account is visible to new dapps; a non-nil (possibly empty) slice
// restricts visibility to exactly those addresses.
func (p *Provider) SetNewDappsWhitelist(whitelist []common.Address) error {
	if whitelist == nil {
		return p.dapps.SetPolicy(accounts.Policy{AllAccounts: true})
	}
	return p.dapps.SetPolicy(accounts.Policy{AllAccounts: false, Whitelist: whitelist})
}

// NewDappsWhitelist returns the current global whitelist, or nil if the
// policy is AllAccounts.
func (p *Provider) NewDappsWhitelist() ([]common.Address, error) {
	policy, err := p.dapps.Policy()
	if err != nil {
		return nil, err
	}
	if policy.AllAccounts {
		return nil, nil
	}
	return policy.Whitelist, nil
}

func (p *Provider) DappsAddresses(dapp string) ([]common.Address, error) {
	return p.resolver.Addresses(dapp)
}

func (p *Provider) DefaultAddress(dapp string) (common.Address, error) {
	return p.resolver.DefaultAddress(dapp)
}

func (p *Provider) SetDappsAddresses(dapp string, addrs []common.Address) error {
	return p.resolver.SetAddresses(dapp, addrs)
}

func (p *Provider) RecentDapps() (map[string]time.Time, error) {
	return p.dapps.RecentDapps()
}

func (p *Provider) NoteDappUsed(dapp string) error {
	return p.dapps.MarkDappUsed(dapp)
}

// --- Unlock ----------------------------------------------------------------

// verifyPassword confirms password against ref by performing a signature of
// the zero message, per spec.md §4.2 step 2.
func (p *Provider) verifyPassword(ref accounts.Ref, password string) error {
	_, err := p.store.Sign(ref, password, make([]byte, 32))
	return err
}

func (p *Provider) unlockWith(addr common.Address, password string, mode accounts.UnlockMode, deadline time.Time) error {
	ref, err := p.store.AccountRef(addr)
	if err != nil {
		return err
	}
	if err := p.verifyPassword(ref, password); err != nil {
		return err
	}
	p.unlocks.Insert(ref, mode, deadline, password)
	return nil
}

func (p *Provider) UnlockAccountPermanently(addr common.Address, password string) error {
	return p.unlockWith(addr, password, accounts.Perm, time.Time{})
}

func (p *Provider) UnlockAccountTemporarily(addr common.Address, password string) error {
	return p.unlockWith(addr, password, accounts.Temp, time.Time{})
}

func (p *Provider) UnlockAccountTimed(addr common.Address, password string, durationMS int64) error {
	deadline := time.Now().Add(time.Duration(durationMS) * time.Millisecond)
	return p.unlockWith(addr, password, accounts.Timed, deadline)
}

func (p *Provider) IsUnlocked(addr common.Address) bool {
	ref, err := p.store.AccountRef(addr)
	if err != nil {
		return false
	}
	return p.unlocks.IsUnlocked(ref)
}

// --- Signing & decrypt -------------------------------------------------

// Sign signs hash. If password is non-empty it is used directly; otherwise
// the Unlock Table is consulted (and its consumption rules apply).
func (p *Provider) Sign(addr common.Address, password string, hash []byte) (accounts.Signature, error) {
	ref, err := p.store.AccountRef(addr)
	if err != nil {
		return nil, err
	}
	if password == "" {
		password, err = p.unlocks.PasswordFor(ref)
		if err != nil {
			return nil, err
		}
	}
	return p.store.Sign(ref, password, hash)
}

// Decrypt decrypts msg for addr, following the same password/unlock
// semantics as Sign.
func (p *Provider) Decrypt(addr common.Address, password string, sharedMAC, msg []byte) ([]byte, error) {
	ref, err := p.store.AccountRef(addr)
	if err != nil {
		return nil, err
	}
	if password == "" {
		password, err = p.unlocks.PasswordFor(ref)
		if err != nil {
			return nil, err
		}
	}
	return p.store.Decrypt(ref, password, sharedMAC, msg)
}

// SignWithToken implements sign_with_token (spec.md §4.4).
func (p *Provider) SignWithToken(addr common.Address, presented string, hash []byte) (accounts.Signature, string, error) {
	ref, err := p.store.AccountRef(addr)
	if err != nil {
		return nil, "", err
	}
	res, newToken, err := token.Use(p.store, p.tokens, ref, presented, token.OpSign, hash, nil)
	return res.Signature, newToken, err
}

// DecryptWithToken implements decrypt_with_token (spec.md §4.4). Per Open
// Question #1, the subsequent-use branch returns the newly minted token,
// matching SignWithToken's choice (see DESIGN.md).
func (p *Provider) DecryptWithToken(addr common.Address, presented string, sharedMAC, msg []byte) ([]byte, string, error) {
	ref, err := p.store.AccountRef(addr)
	if err != nil {
		return nil, "", err
	}
	res, newToken, err := token.Use(p.store, p.tokens, ref, presented, token.OpDecrypt, msg, sharedMAC)
	return res.Plaintext, newToken, err
}

// SignWithHardware delegates to the hardware wallet manager, mapping
// ErrKeyNotFound distinctly from other device errors per spec.md §4.5.
func (p *Provider) SignWithHardware(addr common.Address, payload []byte) (accounts.Signature, error) {
	if p.hw == nil {
		return nil, accounts.ErrNoHardwareManager
	}
	if _, ok := p.hw.WalletInfo(addr); !ok {
		return nil, &accounts.HardwareError{Kind: accounts.ErrKeyNotFound}
	}
	return p.hw.SignTransaction(addr, payload)
}

// --- Vaults ----------------------------------------------------------------

func (p *Provider) CreateVault(name, password string) error {
	return p.store.CreateVault(name, password)
}

func (p *Provider) OpenVault(name, password string) error {
	return p.store.OpenVault(name, password)
}

func (p *Provider) CloseVault(name string) error {
	return p.store.CloseVault(name)
}

func (p *Provider) ListVaults() ([]string, error) {
	return p.store.ListVaults()
}

func (p *Provider) ListOpenedVaults() ([]string, error) {
	return p.store.ListOpenedVaults()
}

func (p *Provider) ChangeVaultPassword(name, newPassword string) error {
	return p.store.ChangeVaultPassword(name, newPassword)
}

// ChangeVault moves addr into newVault, an empty string meaning Root.
func (p *Provider) ChangeVault(addr common.Address, newVault string) error {
	ref, err := p.store.AccountRef(addr)
	if err != nil {
		return err
	}
	_, err = p.store.ChangeAccountVault(ref, newVault)
	return err
}
