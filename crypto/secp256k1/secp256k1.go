// Copyright 2015 Jeffrey Wilcke, Felix Lange, Gustav Simonsson. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package secp256k1 exposes the secp256k1 bindings that the rest of
// the crypto package used to obtain from libsecp256k1 via cgo. This
// implementation is pure Go, built on top of btcec, so the module builds
// without a C toolchain.
package secp256k1

import (
	"crypto/elliptic"
	"errors"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	ecdsa_btcec "github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// N is the order of the secp256k1 base point.
var N = btcec.S256().N

// S256 returns the secp256k1 curve as a standard library elliptic.Curve.
func S256() elliptic.Curve {
	return btcec.S256()
}

// ErrInvalidRecoveryID is returned by RecoverPubkey when the signature's
// trailing recovery byte is out of range.
var ErrInvalidRecoveryID = errors.New("invalid signature recovery id")

// ErrInvalidMsgLen is returned when the message passed to Sign isn't a
// 32-byte hash.
var ErrInvalidMsgLen = errors.New("invalid message length, need 32 bytes")

// ErrInvalidKey is returned when a private key fails to parse.
var ErrInvalidKey = errors.New("invalid private key")

// GeneratePubKey computes the uncompressed public key for a 32-byte secret
// scalar, rejecting zero and out-of-range scalars.
func GeneratePubKey(seckey []byte) ([]byte, error) {
	if len(seckey) != 32 {
		return nil, ErrInvalidKey
	}
	k := new(big.Int).SetBytes(seckey)
	if k.Sign() == 0 || k.Cmp(N) >= 0 {
		return nil, ErrInvalidKey
	}
	_, pub := btcec.PrivKeyFromBytes(seckey)
	return pub.SerializeUncompressed(), nil
}

// Sign produces a 65-byte recoverable signature (R || S || recid) for a
// 32-byte message hash, with recid in [0, 3].
func Sign(msg []byte, seckey []byte) ([]byte, error) {
	if len(msg) != 32 {
		return nil, ErrInvalidMsgLen
	}
	if len(seckey) != 32 {
		return nil, ErrInvalidKey
	}
	priv, _ := btcec.PrivKeyFromBytes(seckey)
	compact := ecdsa_btcec.SignCompact(priv, msg, false)
	sig := make([]byte, 65)
	copy(sig[:64], compact[1:])
	recid := compact[0] - 27
	if recid >= 4 {
		recid -= 4
	}
	sig[64] = recid
	return sig, nil
}

// RecoverPubkey recovers the uncompressed public key that produced sig over
// msg.
func RecoverPubkey(msg []byte, sig []byte) ([]byte, error) {
	if len(sig) != 65 {
		return nil, ErrInvalidRecoveryID
	}
	recid := sig[64]
	if recid > 3 {
		return nil, ErrInvalidRecoveryID
	}
	compact := make([]byte, 65)
	compact[0] = 27 + recid
	copy(compact[1:], sig[:64])
	pub, _, err := ecdsa_btcec.RecoverCompact(compact, msg)
	if err != nil {
		return nil, err
	}
	return pub.SerializeUncompressed(), nil
}
