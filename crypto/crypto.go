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

// Package crypto collects the hashing, signing and address-derivation
// primitives used across the account store: Keccak/SHA/RIPEMD digests,
// secp256k1 key handling and recoverable signatures, and the ECIES scheme
// used to seal messages to an account's public key.
package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // RIPEMD160 is required for address-style digests, not used for anything security-critical here.
	"golang.org/x/crypto/sha3"

	"github.com/ethaccounts/provider/common"
	"github.com/ethaccounts/provider/crypto/secp256k1"
)

var (
	secp256k1N     = secp256k1.N
	secp256k1halfN = new(big.Int).Rsh(secp256k1N, 1)
)

// S256 returns an instance of the secp256k1 curve.
func S256() elliptic.Curve {
	return secp256k1.S256()
}

// Keccak256 computes the Keccak256 hash of the concatenation of the inputs.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash computes the Keccak256 hash and wraps it in a common.Hash.
func Keccak256Hash(data ...[]byte) (h common.Hash) {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	d.Sum(h[:0])
	return h
}

// Keccak512 computes the Keccak512 hash of the concatenation of the inputs.
func Keccak512(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak512()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Sha256 computes the SHA256 hash of data.
func Sha256(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}

// Ripemd160 computes the RIPEMD160 hash of data.
func Ripemd160(data []byte) []byte {
	d := ripemd160.New()
	d.Write(data)
	return d.Sum(nil)
}

// ToECDSA creates a private key from a 32-byte raw scalar, without bounds
// checking. Use HexToECDSA or toECDSA(d, true) when the input isn't already
// known to be a valid scalar.
func ToECDSA(d []byte) *ecdsa.PrivateKey {
	priv := new(ecdsa.PrivateKey)
	priv.PublicKey.Curve = S256()
	priv.D = new(big.Int).SetBytes(d)
	priv.PublicKey.X, priv.PublicKey.Y = priv.PublicKey.Curve.ScalarBaseMult(d)
	return priv
}

// toECDSA validates d as a private scalar in [1, N) before constructing the
// key, rejecting malformed or out-of-range input.
func toECDSA(d []byte, strict bool) (*ecdsa.PrivateKey, error) {
	priv := new(ecdsa.PrivateKey)
	priv.PublicKey.Curve = S256()
	if strict && 8*len(d) != priv.Params().BitSize {
		return nil, fmt.Errorf("invalid length, need %d bits", priv.Params().BitSize)
	}
	priv.D = new(big.Int).SetBytes(d)
	if priv.D.Cmp(secp256k1N) >= 0 || priv.D.Sign() <= 0 {
		return nil, errors.New("invalid private key, >=N or zero")
	}
	priv.PublicKey.X, priv.PublicKey.Y = priv.PublicKey.Curve.ScalarBaseMult(d)
	if priv.PublicKey.X == nil {
		return nil, errors.New("invalid private key")
	}
	return priv, nil
}

// HexToECDSA parses a hex-encoded 32-byte private key.
func HexToECDSA(hexkey string) (*ecdsa.PrivateKey, error) {
	b, err := hex.DecodeString(hexkey)
	if err != nil {
		return nil, errors.New("invalid hex string")
	}
	return toECDSA(b, true)
}

// FromECDSA exports a private key into a binary dump, left-padded to 32 bytes.
func FromECDSA(priv *ecdsa.PrivateKey) []byte {
	if priv == nil {
		return nil
	}
	return paddedBigBytes(priv.D, priv.Params().BitSize/8)
}

// ToECDSAPub decodes an uncompressed secp256k1 public key.
func ToECDSAPub(pub []byte) *ecdsa.PublicKey {
	if len(pub) == 0 {
		return nil
	}
	x, y := elliptic.Unmarshal(S256(), pub)
	if x == nil {
		return nil
	}
	return &ecdsa.PublicKey{Curve: S256(), X: x, Y: y}
}

// FromECDSAPub encodes a public key as an uncompressed point.
func FromECDSAPub(pub *ecdsa.PublicKey) []byte {
	if pub == nil || pub.X == nil || pub.Y == nil {
		return nil
	}
	return elliptic.Marshal(S256(), pub.X, pub.Y)
}

// LoadECDSA loads a 64-character hex-encoded private key from file.
func LoadECDSA(file string) (*ecdsa.PrivateKey, error) {
	fd, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	buf := make([]byte, 64)
	if _, err := io.ReadFull(fd, buf); err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(string(buf))
	if err != nil {
		return nil, err
	}
	return toECDSA(key, true)
}

// SaveECDSA writes a private key as hex to file, readable only by the owner.
func SaveECDSA(file string, key *ecdsa.PrivateKey) error {
	k := hex.EncodeToString(FromECDSA(key))
	return os.WriteFile(file, []byte(k), 0600)
}

// GenerateKey generates a new secp256k1 private key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(S256(), rand.Reader)
}

// Sign calculates a recoverable ECDSA signature over a 32-byte hash. The
// resulting 65-byte signature is laid out R || S || V, with V in {0, 1}.
func Sign(hash []byte, prv *ecdsa.PrivateKey) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("hash is required to be exactly 32 bytes (%d)", len(hash))
	}
	if prv == nil {
		return nil, errors.New("private key is nil")
	}
	seckey := paddedBigBytes(prv.D, 32)
	return secp256k1.Sign(hash, seckey)
}

// SignEthereum is Sign with the recovery byte shifted into Ethereum's
// legacy 27/28 convention.
func SignEthereum(hash []byte, prv *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := Sign(hash, prv)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

// Ecrecover returns the uncompressed public key that created the given
// signature over hash.
func Ecrecover(hash, sig []byte) ([]byte, error) {
	return secp256k1.RecoverPubkey(hash, sig)
}

// SigToPub returns the *ecdsa.PublicKey that created the given signature.
func SigToPub(hash, sig []byte) (*ecdsa.PublicKey, error) {
	s, err := Ecrecover(hash, sig)
	if err != nil {
		return nil, err
	}
	return ToECDSAPub(s), nil
}

// PubkeyToAddress derives the 20-byte address from a public key: the
// low-order 20 bytes of the Keccak256 hash of the uncompressed point,
// excluding its leading format byte.
func PubkeyToAddress(p ecdsa.PublicKey) common.Address {
	pubBytes := FromECDSAPub(&p)
	return common.BytesToAddress(Keccak256(pubBytes[1:])[12:])
}

// CreateAddress derives the address of a contract created by b at nonce.
func CreateAddress(b common.Address, nonce uint64) common.Address {
	data := rlpList(rlpBytes(b.Bytes()), rlpUint(nonce))
	return common.BytesToAddress(Keccak256(data)[12:])
}

// ValidateSignatureValues verifies whether the signature values are valid
// with the given chain rules. The v value must already be in Ethereum's
// 27/28 form.
func ValidateSignatureValues(v byte, r, s *big.Int, homestead bool) bool {
	if r.Sign() <= 0 || s.Sign() <= 0 {
		return false
	}
	if r.Cmp(secp256k1N) >= 0 || s.Cmp(secp256k1N) >= 0 {
		return false
	}
	if v != 27 && v != 28 {
		return false
	}
	if homestead && s.Cmp(secp256k1halfN) > 0 {
		return false
	}
	return true
}

// ChecksumAddress returns the EIP-55 mixed-case checksummed hex form of addr.
func ChecksumAddress(addr common.Address) string {
	return addr.Hex()
}

// ChecksumAddressHex parses s (with or without "0x") and re-renders it with
// EIP-55 checksum casing.
func ChecksumAddressHex(s string) string {
	return common.HexToAddress(s).Hex()
}

func paddedBigBytes(bigint *big.Int, n int) []byte {
	return common.LeftPadBytes(bigint.Bytes(), n)
}
