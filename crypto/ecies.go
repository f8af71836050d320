// Copyright 2013 Kyle Isom <kyle@tyrfingr.is>
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

package crypto

// Elliptic Curve Integrated Encryption Scheme, sealing a message to the
// recipient's public key. Used both as the classic "box" primitive (Encrypt
// and Decrypt, with no additional authenticated data) and, with s1/s2 set, to
// implement the signer's authenticated decrypt operation that binds a caller
// supplied shared MAC tag to the ciphertext.

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"hash"
	"io"
)

var (
	ErrImportPubkey    = errors.New("ecies: failed to import public key")
	ErrSharedKeyTooBig = errors.New("ecies: shared key params are too big")
	ErrInvalidMessage  = errors.New("ecies: invalid message")
	ErrInvalidMAC      = errors.New("ecies: invalid message authentication code")
)

const (
	eciesKeyLen = 32 // AES-256 key
	eciesMacLen = 32 // HMAC-SHA256 key and tag
	eciesIVLen  = 16
)

// Encrypt seals m to pub with no additional authenticated data.
func Encrypt(pub *ecdsa.PublicKey, m []byte) ([]byte, error) {
	return EncryptShared(pub, m, nil, nil)
}

// Decrypt opens a message sealed with Encrypt.
func Decrypt(prv *ecdsa.PrivateKey, ct []byte) ([]byte, error) {
	return DecryptShared(prv, ct, nil, nil)
}

// EncryptShared seals m to pub. s1 is mixed into the key derivation (e.g. to
// domain-separate multiple uses of the same key pair); s2 is authenticated
// but not encrypted, and must be supplied again to DecryptShared.
func EncryptShared(pub *ecdsa.PublicKey, m, s1, s2 []byte) ([]byte, error) {
	if pub == nil || pub.X == nil {
		return nil, ErrImportPubkey
	}
	ephemeral, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	z, err := eciesSharedSecret(ephemeral, pub)
	if err != nil {
		return nil, err
	}
	encKey, macKey := eciesDeriveKeys(z, s1)

	iv := make([]byte, eciesIVLen)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}
	ciphertext, err := eciesCTR(encKey, iv, m)
	if err != nil {
		return nil, err
	}

	rpub := FromECDSAPub(&ephemeral.PublicKey)
	tag := eciesTag(macKey, iv, ciphertext, s2)

	out := make([]byte, 0, len(rpub)+len(iv)+len(ciphertext)+len(tag))
	out = append(out, rpub...)
	out = append(out, iv...)
	out = append(out, ciphertext...)
	out = append(out, tag...)
	return out, nil
}

// DecryptShared opens a message sealed with EncryptShared using the same s1
// and s2. s2 mismatch is treated the same as a corrupted ciphertext.
func DecryptShared(prv *ecdsa.PrivateKey, ct, s1, s2 []byte) ([]byte, error) {
	if prv == nil {
		return nil, ErrInvalidMessage
	}
	pubLen := len(FromECDSAPub(&prv.PublicKey))
	if len(ct) < pubLen+eciesIVLen+eciesMacLen {
		return nil, ErrInvalidMessage
	}
	rpubBytes := ct[:pubLen]
	iv := ct[pubLen : pubLen+eciesIVLen]
	tag := ct[len(ct)-eciesMacLen:]
	ciphertext := ct[pubLen+eciesIVLen : len(ct)-eciesMacLen]

	rpub := ToECDSAPub(rpubBytes)
	if rpub == nil {
		return nil, ErrImportPubkey
	}
	z, err := eciesSharedSecret(prv, rpub)
	if err != nil {
		return nil, err
	}
	encKey, macKey := eciesDeriveKeys(z, s1)

	want := eciesTag(macKey, iv, ciphertext, s2)
	if !hmac.Equal(tag, want) {
		return nil, ErrInvalidMAC
	}
	return eciesCTR(encKey, iv, ciphertext)
}

func eciesSharedSecret(prv *ecdsa.PrivateKey, pub *ecdsa.PublicKey) ([]byte, error) {
	if prv.PublicKey.Curve != pub.Curve {
		return nil, ErrImportPubkey
	}
	x, y := pub.Curve.ScalarMult(pub.X, pub.Y, prv.D.Bytes())
	if x == nil || y == nil {
		return nil, ErrSharedKeyTooBig
	}
	byteLen := (pub.Curve.Params().BitSize + 7) / 8
	return paddedBigBytes(x, byteLen), nil
}

func eciesDeriveKeys(z, s1 []byte) (encKey, macKey []byte) {
	k := eciesConcatKDF(sha256.New, z, s1, eciesKeyLen+eciesMacLen)
	return k[:eciesKeyLen], k[eciesKeyLen:]
}

// eciesConcatKDF implements the NIST SP 800-56 concatenation key derivation
// function used by ECIES to stretch the ECDH shared secret into encryption
// and MAC keys.
func eciesConcatKDF(newHash func() hash.Hash, z, s1 []byte, kdLen int) []byte {
	h := newHash()
	hashLen := h.Size()
	reps := (kdLen + hashLen - 1) / hashLen

	counter := make([]byte, 4)
	k := make([]byte, 0, reps*hashLen)
	for i := 1; i <= reps; i++ {
		binary.BigEndian.PutUint32(counter, uint32(i))
		h.Reset()
		h.Write(counter)
		h.Write(z)
		h.Write(s1)
		k = h.Sum(k)
	}
	return k[:kdLen]
}

func eciesTag(macKey, iv, ciphertext, s2 []byte) []byte {
	m := hmac.New(sha256.New, macKey)
	m.Write(iv)
	m.Write(ciphertext)
	m.Write(s2)
	return m.Sum(nil)
}

func eciesCTR(key, iv, in []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(in))
	cipher.NewCTR(block, iv).XORKeyStream(out, in)
	return out, nil
}
