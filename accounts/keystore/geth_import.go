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
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"

	"github.com/ethaccounts/provider/accounts"
	"github.com/ethaccounts/provider/common"
)

// gethDataDir returns the default geth data directory for the current OS,
// mirroring geth's own node.DefaultDataDir layout closely enough to locate
// a keystore directory without requiring the caller to know it.
func gethDataDir(testnet bool) (string, error) {
	home := homeDir()
	if home == "" {
		return "", fmt.Errorf("cannot determine home directory")
	}
	var base string
	switch runtime.GOOS {
	case "darwin":
		base = filepath.Join(home, "Library", "Ethereum")
	case "windows":
		base = filepath.Join(home, "AppData", "Roaming", "Ethereum")
	default:
		base = filepath.Join(home, ".ethereum")
	}
	if testnet {
		base = filepath.Join(base, "goerli")
	}
	return filepath.Join(base, "keystore"), nil
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if u, err := user.Current(); err == nil {
		return u.HomeDir
	}
	return ""
}

// ListGeth enumerates the addresses present in a local geth installation's
// keystore directory without importing anything, so a caller can present a
// selection list before calling ImportGeth.
func (ks *KeyStore) ListGeth(testnet bool) ([]common.Address, error) {
	dir, err := gethDataDir(testnet)
	if err != nil {
		return nil, err
	}
	cache := newAddrCache(dir)
	defer cache.close()
	accs := cache.accounts()
	out := make([]common.Address, len(accs))
	for i, a := range accs {
		out[i] = a.Address
	}
	return out, nil
}

// ImportGeth copies the keyfile for addr out of a local geth installation's
// keystore directory into scope, re-encrypted payload untouched (the
// caller's password for the source keyfile is not required, since the
// ciphertext itself is copied verbatim rather than decrypted and
// re-encrypted).
func (ks *KeyStore) ImportGeth(scope accounts.VaultScope, srcDir string, addr common.Address, testnet bool) (accounts.Account, error) {
	dir := srcDir
	if dir == "" {
		var err error
		dir, err = gethDataDir(testnet)
		if err != nil {
			return accounts.Account{}, err
		}
	}
	cache := newAddrCache(dir)
	defer cache.close()
	src, err := cache.find(accounts.Account{Address: addr})
	if err != nil {
		return accounts.Account{}, &accounts.StoreError{Kind: accounts.ErrNotFound, Err: err}
	}
	raw, err := os.ReadFile(src.URL.Path)
	if err != nil {
		return accounts.Account{}, err
	}
	var probe struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return accounts.Account{}, fmt.Errorf("not a valid keyfile: %w", err)
	}
	destCache, err := ks.cacheFor(scope)
	if err != nil {
		return accounts.Account{}, err
	}
	destDir := ks.rootDir
	if !scope.IsRoot() {
		destDir = ks.vaultDir(scope.Name)
	}
	dest := accounts.Account{Address: addr, URL: accounts.URL{Scheme: KeyStoreScheme, Path: filepath.Join(destDir, keyFileName(addr))}}
	if err := writeKeyFile(dest.URL.Path, raw); err != nil {
		return accounts.Account{}, err
	}
	destCache.add(dest)
	return dest, nil
}
