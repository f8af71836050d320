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

package keystore

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethaccounts/provider/accounts"
	"github.com/ethaccounts/provider/common"
	"github.com/ethaccounts/provider/crypto"
	"github.com/google/uuid"
)

const (
	version3 = 3
	version1 = 1
)

// Key is the decrypted form of a single keyfile: the address it speaks for,
// its private key material, and the UUID that names its file on disk.
type Key struct {
	ID uuid.UUID
	// Address is derived from PrivateKey but stored redundantly to avoid
	// recomputing it on every access.
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey
}

type keyStore interface {
	// GetKey reads and decrypts the key characterized by addr and filename.
	GetKey(addr common.Address, filename, auth string) (*Key, error)
	// StoreKey writes and encrypts the key.
	StoreKey(filename string, k *Key, auth string) error
	// JoinPath joins filename with the key directory.
	JoinPath(filename string) string
}

// encryptedKeyJSONV3 / encryptedKeyJSONV1 are the on-disk
// encodings. V3 is the Web3 Secret Storage Definition used by every modern
// Ethereum keystore; V1 is the earlier go-ethereum-only format, kept for
// reading (never written) to allow migrating very old keyfiles.
type encryptedKeyJSONV3 struct {
	Address string     `json:"address"`
	Crypto  cryptoJSON `json:"crypto"`
	ID      string     `json:"id"`
	Version int        `json:"version"`
}

type encryptedKeyJSONV1 struct {
	Address string     `json:"address"`
	Crypto  cryptoJSON `json:"crypto"`
	ID      string     `json:"id"`
	Version string     `json:"version"`
}

type cryptoJSON struct {
	Cipher       string                 `json:"cipher"`
	CipherText   string                 `json:"ciphertext"`
	CipherParams cipherparamsJSON       `json:"cipherparams"`
	KDF          string                 `json:"kdf"`
	KDFParams    map[string]interface{} `json:"kdfparams"`
	MAC          string                 `json:"mac"`
}

type cipherparamsJSON struct {
	IV string `json:"iv"`
}

func newKeyFromECDSA(privateKeyECDSA *ecdsa.PrivateKey) *Key {
	id, err := uuid.NewRandom()
	if err != nil {
		panic(fmt.Sprintf("could not create random uuid: %v", err))
	}
	return &Key{
		ID:         id,
		Address:    crypto.PubkeyToAddress(privateKeyECDSA.PublicKey),
		PrivateKey: privateKeyECDSA,
	}
}

// newKey generates a brand new random private key wrapped in a Key.
func newKey() (*Key, error) {
	privateKeyECDSA, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return newKeyFromECDSA(privateKeyECDSA), nil
}

// NewKeyForDirectICAP generates a key whose address begins with a zero
// byte, suitable for the direct form of an ICAP account number. Kept from
// the original implementation's vanity-address convenience; cryptographic
// strength is unaffected since the search only biases the high address
// byte, not the private scalar.
func NewKeyForDirectICAP() (*Key, error) {
	for {
		key, err := newKey()
		if err != nil {
			return nil, err
		}
		if key.Address[0] == 0 {
			return key, nil
		}
	}
}

func keyFileName(keyAddr common.Address) string {
	ts := time.Now().UTC()
	return fmt.Sprintf("UTC--%s--%s", toISO8601(ts), keyAddr.Hex()[2:])
}

func toISO8601(t time.Time) string {
	var tz string
	name, offset := t.Zone()
	if name == "UTC" {
		tz = "Z"
	} else {
		tz = fmt.Sprintf("%03d00", offset/3600)
	}
	return fmt.Sprintf("%04d-%02d-%02dT%02d-%02d-%02d.%09d%s",
		t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), tz)
}

func readKeyFile(file string) ([]byte, error) {
	return os.ReadFile(file)
}

func writeKeyFile(file string, content []byte) error {
	const dirPerm = 0700
	if err := os.MkdirAll(filepath.Dir(file), dirPerm); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(file), "."+filepath.Base(file)+".tmp")
	if err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	f.Close()
	return os.Rename(f.Name(), file)
}
