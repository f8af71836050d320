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

// Package token implements the rolling, single-use session token protocol
// of spec.md §4.4: sign_with_token and decrypt_with_token share the same
// state machine, built here as one generic Use that both the signing and
// decryption operations of package provider drive.
package token

import (
	"crypto/rand"

	"github.com/ethaccounts/provider/accounts"
)

const (
	tokenLength = 16
	// printable is the alphabet new tokens are drawn from: the 62
	// alphanumeric ASCII characters, wide enough that 16 characters give
	// well over 90 bits of entropy.
	printable = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// New draws a fresh 16-character printable token from a cryptographically
// strong source.
func New() (string, error) {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, tokenLength)
	for i, b := range buf {
		out[i] = printable[int(b)%len(printable)]
	}
	return string(out), nil
}

// Op is the single operation Use drives against each keystore: signing or
// decryption. Exactly one of Sign/Decrypt is used by a given call to Use.
type Op int

const (
	OpSign Op = iota
	OpDecrypt
)

// Result carries whichever payload the driven operation produced.
type Result struct {
	Signature accounts.Signature
	Plaintext []byte
}

// Use implements the state machine shared by sign_with_token and
// decrypt_with_token:
//
//	test_password(ondisk, token)
//	  true (first use)          -> copy ondisk->transient under a new token,
//	                                perform the op against ondisk with token
//	  false (subsequent use)    -> rotate the transient password to a new
//	                                token, perform the op against transient
//
// Both branches return the freshly minted token the caller must present
// next. If neither branch's password test succeeds, InvalidPassword is
// returned.
func Use(onDisk, transient accounts.SecretStore, ref accounts.Ref, presented string, op Op, payload, sharedMAC []byte) (Result, string, error) {
	newToken, err := New()
	if err != nil {
		return Result{}, "", err
	}

	// The transient copy always lives in the transient store's Root scope,
	// keyed only by address, regardless of which vault the real account
	// lives in on disk.
	transientRef := accounts.Ref{Scope: accounts.Root, Address: ref.Address}

	if ok, _ := onDisk.TestPassword(ref, presented); ok {
		if _, err := onDisk.CopyAccount(transient, accounts.Root, ref, presented, newToken); err != nil {
			return Result{}, "", err
		}
		res, err := perform(onDisk, ref, presented, op, payload, sharedMAC)
		return res, newToken, err
	}

	if err := transient.ChangePassword(transientRef, presented, newToken); err != nil {
		return Result{}, "", accounts.ErrInvalidPassword
	}
	res, err := perform(transient, transientRef, newToken, op, payload, sharedMAC)
	return res, newToken, err
}

func perform(store accounts.SecretStore, ref accounts.Ref, password string, op Op, payload, sharedMAC []byte) (Result, error) {
	switch op {
	case OpSign:
		sig, err := store.Sign(ref, password, payload)
		return Result{Signature: sig}, err
	case OpDecrypt:
		pt, err := store.Decrypt(ref, password, sharedMAC, payload)
		return Result{Plaintext: pt}, err
	default:
		panic("token: unknown op")
	}
}
