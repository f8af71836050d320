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
	"path/filepath"

	"github.com/ethaccounts/provider/accounts"
)

// vaultMetaFile holds the vault's own password, verified the same way a
// keyfile is: by attempting decryption. Its payload is a throwaway random
// key generated when the file is written and never used for anything else;
// only the KDF+cipher envelope matters.
const vaultMetaFile = "vault.json"

func writeVaultMeta(dir, password string, scryptN, scryptP int) error {
	sentinel, err := newKey()
	if err != nil {
		return err
	}
	keyjson, err := EncryptKey(sentinel, password, scryptN, scryptP)
	if err != nil {
		return err
	}
	return writeKeyFile(filepath.Join(dir, vaultMetaFile), keyjson)
}

func checkVaultMeta(dir, password string) error {
	raw, err := os.ReadFile(filepath.Join(dir, vaultMetaFile))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: vault directory %q has no vault.json", accounts.ErrInvalidVault, dir)
	}
	if err != nil {
		return err
	}
	var probe json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return fmt.Errorf("%w: corrupt vault.json", accounts.ErrInvalidVault)
	}
	if _, err := DecryptKey(raw, password); err != nil {
		return &accounts.StoreError{Kind: accounts.ErrInvalidPassword, Err: err}
	}
	return nil
}
