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
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil/hdkeychain"
	"github.com/tyler-smith/go-bip39"
)

// NewMnemonic generates a fresh BIP-39 mnemonic, used by callers that want
// to create an account family from a recoverable phrase rather than a bare
// raw key.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// seedFromMnemonic turns a mnemonic (plus optional passphrase) into the
// 64-byte seed hdkeychain.NewMaster expects.
func seedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("keystore: invalid mnemonic")
	}
	return bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
}

// parsePath parses a BIP-32 path such as "m/44'/60'/0'/0/0" into child
// indices, hardened segments marked with the standard offset.
func parsePath(path string) ([]uint32, error) {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "m/")
	path = strings.TrimPrefix(path, "M/")
	if path == "" {
		return nil, fmt.Errorf("keystore: empty derivation path")
	}
	segments := strings.Split(path, "/")
	out := make([]uint32, len(segments))
	for i, s := range segments {
		hardened := strings.HasSuffix(s, "'") || strings.HasSuffix(s, "H")
		s = strings.TrimSuffix(strings.TrimSuffix(s, "'"), "H")
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("keystore: invalid path segment %q: %w", segments[i], err)
		}
		if hardened {
			n |= hdkeychain.HardenedKeyStart
		}
		out[i] = uint32(n)
	}
	return out, nil
}

// DeriveECDSA derives the ECDSA private key reachable from seed along a
// BIP-32 path such as "m/44'/60'/0'/0/0", treating seed as raw key material
// rather than requiring a full BIP-39 mnemonic. Shared with accounts/transient
// so both backends derive child keys identically.
func DeriveECDSA(seed []byte, path string) (*ecdsa.PrivateKey, error) {
	return deriveECDSA(seed, path)
}

func deriveECDSA(seed []byte, path string) (*ecdsa.PrivateKey, error) {
	indices, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	for _, idx := range indices {
		key, err = key.Derive(idx)
		if err != nil {
			return nil, err
		}
	}
	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return priv.ToECDSA(), nil
}

// chaincfg.MainNetParams supplies hdkeychain with the network version bytes
// it needs for its internal base58 encoding; this module never serializes
// extended keys to strings, so only the HD key derivation math is used —
// mainnet parameters are as good as any other network's for that purpose.
