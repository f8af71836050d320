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

// Package keystore implements the on-disk encrypted key store: the
// accounts.SecretStore backend that owns a directory of Web3 Secret Storage
// ("V3") keyfiles, plus any number of named vault subdirectories.
package keystore

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethaccounts/provider/accounts"
	"github.com/ethaccounts/provider/common"
	"github.com/ethaccounts/provider/crypto"
)

// KeyStoreScheme is the URL scheme accounts originating from this backend
// carry in their Account.URL.
const KeyStoreScheme = "keystore"

// KeyStore manages a directory of V3 keyfiles in memory and on disk,
// including any number of named vault subdirectories. It implements
// accounts.SecretStore.
type KeyStore struct {
	storage keyStore
	rootDir string
	scryptN int
	scryptP int

	mu     sync.RWMutex
	root   *addrCache
	vaults map[string]*vaultHandle
}

type vaultHandle struct {
	name  string
	dir   string
	cache *addrCache
}

// NewKeyStore creates a keystore for the given directory.
func NewKeyStore(keydir string, scryptN, scryptP int) *KeyStore {
	absDir, _ := filepath.Abs(keydir)
	ks := &KeyStore{
		storage: keyStorePassphrase{keysDirPath: absDir, scryptN: scryptN, scryptP: scryptP},
		rootDir: absDir,
		scryptN: scryptN,
		scryptP: scryptP,
		root:    newAddrCache(absDir),
		vaults:  make(map[string]*vaultHandle),
	}
	return ks
}

// NewPlaintextKeyStore is kept only to mirror the teacher's historical
// plaintext constructor; it stores keys scrypt-encrypted with the lightest
// practical work factor rather than truly unencrypted, since plaintext
// on-disk private keys are not a mode this module exposes.
func NewPlaintextKeyStore(keydir string) *KeyStore {
	return NewKeyStore(keydir, LightScryptN, LightScryptP)
}

func (ks *KeyStore) vaultDir(name string) string {
	return filepath.Join(ks.rootDir, "vaults", name)
}

func (ks *KeyStore) cacheFor(scope accounts.VaultScope) (*addrCache, error) {
	if scope.IsRoot() {
		return ks.root, nil
	}
	ks.mu.RLock()
	v, ok := ks.vaults[scope.Name]
	ks.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: vault %q not open", accounts.ErrInvalidVault, scope.Name)
	}
	return v.cache, nil
}

// Accounts returns every account from the root directory and every
// currently opened vault, in per-scope enumeration order.
func (ks *KeyStore) Accounts() []accounts.Account {
	all := ks.root.accounts()
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	for _, v := range ks.vaults {
		all = append(all, v.cache.accounts()...)
	}
	return all
}

// AccountRef resolves addr to the (scope, address) pair identifying it,
// searching the root directory first and then every opened vault.
func (ks *KeyStore) AccountRef(addr common.Address) (accounts.Ref, error) {
	if a, err := ks.root.find(accounts.Account{Address: addr}); err == nil {
		return accounts.Ref{Scope: accounts.Root, Address: a.Address}, nil
	}
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	for name, v := range ks.vaults {
		if a, err := v.cache.find(accounts.Account{Address: addr}); err == nil {
			return accounts.Ref{Scope: accounts.Vault(name), Address: a.Address}, nil
		}
	}
	return accounts.Ref{}, accounts.ErrNotFound
}

func (ks *KeyStore) findAccount(ref accounts.Ref) (accounts.Account, *addrCache, error) {
	cache, err := ks.cacheFor(ref.Scope)
	if err != nil {
		return accounts.Account{}, nil, err
	}
	a, err := cache.find(accounts.Account{Address: ref.Address})
	if err != nil {
		return accounts.Account{}, nil, &accounts.StoreError{Kind: accounts.ErrNotFound, Err: err}
	}
	return a, cache, nil
}

func (ks *KeyStore) getDecryptedKey(ref accounts.Ref, password string) (accounts.Account, *Key, error) {
	a, _, err := ks.findAccount(ref)
	if err != nil {
		return accounts.Account{}, nil, err
	}
	key, err := ks.storage.GetKey(a.Address, a.URL.Path, password)
	if err != nil {
		return a, nil, &accounts.StoreError{Kind: accounts.ErrInvalidPassword, Err: err}
	}
	return a, key, nil
}

// InsertAccount encrypts secret (a raw ECDSA private key) under password and
// stores it as a new keyfile in scope.
func (ks *KeyStore) InsertAccount(scope accounts.VaultScope, secret []byte, password string) (accounts.Account, error) {
	privKey := crypto.ToECDSA(secret)
	if privKey == nil {
		return accounts.Account{}, &accounts.StoreError{Kind: accounts.ErrInvalidAccount, Err: errors.New("invalid private key material")}
	}
	return ks.importECDSA(scope, privKey, password)
}

func (ks *KeyStore) importECDSA(scope accounts.VaultScope, priv *ecdsa.PrivateKey, password string) (accounts.Account, error) {
	cache, err := ks.cacheFor(scope)
	if err != nil {
		return accounts.Account{}, err
	}
	key := newKeyFromECDSA(priv)
	if cache.hasAddress(key.Address) {
		return accounts.Account{}, &accounts.StoreError{Kind: accounts.ErrInvalidAccount, Err: fmt.Errorf("account already exists in this vault: %x", key.Address)}
	}
	dir := ks.rootDir
	if !scope.IsRoot() {
		dir = ks.vaultDir(scope.Name)
	}
	a := accounts.Account{Address: key.Address, URL: accounts.URL{Scheme: KeyStoreScheme, Path: filepath.Join(dir, keyFileName(key.Address))}}
	if err := ks.store(scope).StoreKey(a.URL.Path, key, password); err != nil {
		zeroKey(key.PrivateKey)
		return accounts.Account{}, &accounts.StoreError{Kind: accounts.ErrInvalidAccount, Err: err}
	}
	cache.add(a)
	zeroKey(key.PrivateKey)
	return a, nil
}

func (ks *KeyStore) store(scope accounts.VaultScope) keyStore {
	if scope.IsRoot() {
		return ks.storage
	}
	return keyStorePassphrase{keysDirPath: ks.vaultDir(scope.Name), scryptN: ks.scryptN, scryptP: ks.scryptP}
}

// InsertDerived derives a child key from src's decrypted private key treated
// as BIP-32 seed material, along the given path, and imports it into scope
// under the same password as src. src must already exist and password must
// unlock it.
func (ks *KeyStore) InsertDerived(scope accounts.VaultScope, src accounts.Ref, password string, path string) (accounts.Account, error) {
	_, key, err := ks.getDecryptedKey(src, password)
	if err != nil {
		return accounts.Account{}, err
	}
	seed := crypto.FromECDSA(key.PrivateKey)
	zeroKey(key.PrivateKey)

	child, err := deriveECDSA(seed, path)
	if err != nil {
		return accounts.Account{}, &accounts.StoreError{Kind: accounts.ErrInvalidAccount, Err: err}
	}
	return ks.importECDSA(scope, child, password)
}

func (ks *KeyStore) ImportPresale(scope accounts.VaultScope, keyJSON []byte, password string) (accounts.Account, error) {
	priv, err := decryptPresaleKey(keyJSON, password)
	if err != nil {
		return accounts.Account{}, &accounts.StoreError{Kind: accounts.ErrDecrypt, Err: err}
	}
	return ks.importECDSA(scope, priv, password)
}

func (ks *KeyStore) ImportWallet(scope accounts.VaultScope, json []byte, password string) (accounts.Account, error) {
	key, err := DecryptKey(json, password)
	if err != nil {
		return accounts.Account{}, &accounts.StoreError{Kind: accounts.ErrDecrypt, Err: err}
	}
	return ks.importECDSA(scope, key.PrivateKey, password)
}

func (ks *KeyStore) RemoveAccount(ref accounts.Ref, password string) error {
	a, cache, err := ks.findAccount(ref)
	if err != nil {
		return err
	}
	if _, err := ks.storage.GetKey(a.Address, a.URL.Path, password); err != nil {
		return &accounts.StoreError{Kind: accounts.ErrInvalidPassword, Err: err}
	}
	if err := os.Remove(a.URL.Path); err != nil {
		return &accounts.StoreError{Kind: accounts.ErrNotFound, Err: err}
	}
	cache.delete(a)
	return nil
}

func (ks *KeyStore) TestPassword(ref accounts.Ref, password string) (bool, error) {
	_, _, err := ks.getDecryptedKey(ref, password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (ks *KeyStore) ChangePassword(ref accounts.Ref, oldPassword, newPassword string) error {
	a, key, err := ks.getDecryptedKey(ref, oldPassword)
	if err != nil {
		return err
	}
	defer zeroKey(key.PrivateKey)
	if err := ks.storage.StoreKey(a.URL.Path, key, newPassword); err != nil {
		return &accounts.StoreError{Kind: accounts.ErrInvalidAccount, Err: err}
	}
	return nil
}

func (ks *KeyStore) Sign(ref accounts.Ref, password string, hash []byte) (accounts.Signature, error) {
	_, key, err := ks.getDecryptedKey(ref, password)
	if err != nil {
		return nil, err
	}
	defer zeroKey(key.PrivateKey)
	sig, err := crypto.Sign(hash, key.PrivateKey)
	if err != nil {
		return nil, &accounts.StoreError{Kind: accounts.ErrInvalidAccount, Err: err}
	}
	return accounts.Signature(sig), nil
}

func (ks *KeyStore) Decrypt(ref accounts.Ref, password string, sharedMAC, msg []byte) ([]byte, error) {
	_, key, err := ks.getDecryptedKey(ref, password)
	if err != nil {
		return nil, err
	}
	defer zeroKey(key.PrivateKey)
	out, err := crypto.DecryptShared(key.PrivateKey, msg, nil, sharedMAC)
	if err != nil {
		return nil, &accounts.StoreError{Kind: accounts.ErrDecrypt, Err: err}
	}
	return out, nil
}

// metaPath returns the sidecar file holding name/meta, kept separate from
// the V3 keyfile itself since that format has no room for caller metadata.
func metaPath(keyfile string) string { return keyfile + ".meta.json" }

type metaSidecar struct {
	Name string `json:"name"`
	Meta string `json:"meta"`
}

func readMeta(keyfile string) metaSidecar {
	b, err := os.ReadFile(metaPath(keyfile))
	if err != nil {
		return metaSidecar{}
	}
	var m metaSidecar
	json.Unmarshal(b, &m)
	return m
}

func writeMeta(keyfile string, m metaSidecar) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return writeKeyFile(metaPath(keyfile), b)
}

func (ks *KeyStore) Name(ref accounts.Ref) (string, error) {
	a, _, err := ks.findAccount(ref)
	if err != nil {
		return "", err
	}
	return readMeta(a.URL.Path).Name, nil
}

func (ks *KeyStore) SetName(ref accounts.Ref, name string) error {
	a, _, err := ks.findAccount(ref)
	if err != nil {
		return err
	}
	m := readMeta(a.URL.Path)
	m.Name = name
	return writeMeta(a.URL.Path, m)
}

func (ks *KeyStore) AccountMeta(ref accounts.Ref) (string, error) {
	a, _, err := ks.findAccount(ref)
	if err != nil {
		return "", err
	}
	return readMeta(a.URL.Path).Meta, nil
}

func (ks *KeyStore) SetMeta(ref accounts.Ref, meta string) error {
	a, _, err := ks.findAccount(ref)
	if err != nil {
		return err
	}
	m := readMeta(a.URL.Path)
	m.Meta = meta
	return writeMeta(a.URL.Path, m)
}

func (ks *KeyStore) UUID(ref accounts.Ref) (string, error) {
	a, _, err := ks.findAccount(ref)
	if err != nil {
		return "", err
	}
	raw, err := readKeyFile(a.URL.Path)
	if err != nil {
		return "", &accounts.StoreError{Kind: accounts.ErrNotFound, Err: err}
	}
	var k struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &k); err != nil {
		return "", &accounts.StoreError{Kind: accounts.ErrNotFound, Err: err}
	}
	return k.ID, nil
}

// CopyAccount decrypts the account at srcRef with oldPassword and inserts it
// into dest re-encrypted with newPassword. The source is left untouched.
func (ks *KeyStore) CopyAccount(dest accounts.SecretStore, scope accounts.VaultScope, srcRef accounts.Ref, oldPassword, newPassword string) (accounts.Account, error) {
	_, key, err := ks.getDecryptedKey(srcRef, oldPassword)
	if err != nil {
		return accounts.Account{}, err
	}
	defer zeroKey(key.PrivateKey)
	return dest.InsertAccount(scope, crypto.FromECDSA(key.PrivateKey), newPassword)
}

func (ks *KeyStore) CreateVault(name, password string) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if _, ok := ks.vaults[name]; ok {
		return fmt.Errorf("%w: vault %q already open", accounts.ErrInvalidVault, name)
	}
	dir := ks.vaultDir(name)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	if err := writeVaultMeta(dir, password, ks.scryptN, ks.scryptP); err != nil {
		return err
	}
	ks.vaults[name] = &vaultHandle{name: name, dir: dir, cache: newAddrCache(dir)}
	return nil
}

func (ks *KeyStore) OpenVault(name, password string) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	dir := ks.vaultDir(name)
	if err := checkVaultMeta(dir, password); err != nil {
		return err
	}
	if _, ok := ks.vaults[name]; ok {
		return nil
	}
	ks.vaults[name] = &vaultHandle{name: name, dir: dir, cache: newAddrCache(dir)}
	return nil
}

func (ks *KeyStore) CloseVault(name string) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	v, ok := ks.vaults[name]
	if !ok {
		return nil
	}
	v.cache.close()
	delete(ks.vaults, name)
	return nil
}

func (ks *KeyStore) ListVaults() ([]string, error) {
	dir := filepath.Join(ks.rootDir, "vaults")
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (ks *KeyStore) ListOpenedVaults() ([]string, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	names := make([]string, 0, len(ks.vaults))
	for n := range ks.vaults {
		names = append(names, n)
	}
	return names, nil
}

func (ks *KeyStore) ChangeVaultPassword(name, newPassword string) error {
	ks.mu.RLock()
	_, opened := ks.vaults[name]
	ks.mu.RUnlock()
	if !opened {
		return fmt.Errorf("%w: vault %q not open", accounts.ErrInvalidVault, name)
	}
	return writeVaultMeta(ks.vaultDir(name), newPassword, ks.scryptN, ks.scryptP)
}

// ChangeAccountVault moves an account's keyfile between the root directory
// and a named vault's directory. newVault == "" means Root. Every keyfile is
// V3-encrypted under the account's own password regardless of which
// directory holds it, so moving an account between vaults is a plain
// filesystem move: no password, decryption or re-encryption is involved.
func (ks *KeyStore) ChangeAccountVault(ref accounts.Ref, newVault string) (accounts.Ref, error) {
	dest := accounts.Root
	if newVault != "" {
		dest = accounts.Vault(newVault)
	}
	if ref.Scope == dest {
		return ref, nil
	}
	a, srcCache, err := ks.findAccount(ref)
	if err != nil {
		return accounts.Ref{}, err
	}
	destCache, err := ks.cacheFor(dest)
	if err != nil {
		return accounts.Ref{}, err
	}
	if destCache.hasAddress(a.Address) {
		return accounts.Ref{}, &accounts.StoreError{Kind: accounts.ErrInvalidAccount, Err: fmt.Errorf("account already exists in vault %q", newVault)}
	}
	destDir := ks.rootDir
	if !dest.IsRoot() {
		destDir = ks.vaultDir(dest.Name)
	}
	newPath := filepath.Join(destDir, keyFileName(a.Address))
	if err := os.Rename(a.URL.Path, newPath); err != nil {
		return accounts.Ref{}, &accounts.StoreError{Kind: accounts.ErrNotFound, Err: err}
	}
	moved := accounts.Account{Address: a.Address, URL: accounts.URL{Scheme: KeyStoreScheme, Path: newPath}}
	srcCache.delete(a)
	destCache.add(moved)
	return accounts.Ref{Scope: dest, Address: a.Address}, nil
}

func zeroKey(k *ecdsa.PrivateKey) {
	if k == nil {
		return
	}
	b := k.D.Bits()
	for i := range b {
		b[i] = 0
	}
}
