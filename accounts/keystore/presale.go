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
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"

	"github.com/ethaccounts/provider/crypto"
	"golang.org/x/crypto/pbkdf2"
)

// presaleKeyJSON mirrors the format produced by the original 2014 Ethereum
// presale wallet, distinct from (and predating) Web3 Secret Storage.
type presaleKeyJSON struct {
	EncSeed string
	Address string
	Version string `json:"version,omitempty"`
}

const presaleKDFIterations = 2000

// decryptPresaleKey decrypts a presale wallet JSON blob and recovers the
// ECDSA private key it guards.
func decryptPresaleKey(fileContent []byte, password string) (*ecdsa.PrivateKey, error) {
	var encSeedStruct presaleKeyJSON
	if err := json.Unmarshal(fileContent, &encSeedStruct); err != nil {
		return nil, err
	}
	encSeed, err := base64.StdEncoding.DecodeString(encSeedStruct.EncSeed)
	if err != nil {
		return nil, errors.New("invalid base64 encseed")
	}
	if len(encSeed) < 16 {
		return nil, errors.New("presale key encseed too short")
	}
	iv := encSeed[:16]
	cipherText := encSeed[16:]

	derivedKey := pbkdf2.Key([]byte(password), []byte(password), presaleKDFIterations, 16, sha256.New)
	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return nil, err
	}
	if len(cipherText)%aes.BlockSize != 0 {
		return nil, errors.New("presale key encseed is not a multiple of the block size")
	}
	plainText := make([]byte, len(cipherText))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plainText, cipherText)
	seedBytes, err := decodePresalePadding(plainText)
	if err != nil {
		return nil, err
	}
	ethPriv := crypto.Keccak256(seedBytes)
	priv := crypto.ToECDSA(ethPriv)
	if priv == nil {
		return nil, errors.New("invalid presale-derived private key")
	}
	derivedAddr := crypto.PubkeyToAddress(priv.PublicKey).Hex()[2:]
	if derivedAddr != encSeedStruct.Address {
		return nil, errors.New("decrypted address mismatch, possibly wrong password")
	}
	return priv, nil
}

// decodePresalePadding strips the CBC padding manually: the original tool
// used non-standard padding that removePKCS7Padding's strict validation
// would reject, so presale blobs get their own tolerant stripper.
func decodePresalePadding(plainText []byte) ([]byte, error) {
	if len(plainText) == 0 {
		return nil, errors.New("empty presale seed")
	}
	padding := int(plainText[len(plainText)-1])
	if padding > 0 && padding <= aes.BlockSize && padding <= len(plainText) {
		return plainText[:len(plainText)-padding], nil
	}
	return plainText, nil
}
