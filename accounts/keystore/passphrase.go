// Copyright 2016 The go-ethereum Authors
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

// This file implements Web3 Secret Storage (the "V3" keyfile format) plus
// read-only support for the older V1 format, so a keystore directory can be
// populated from, or migrated out of, any historical geth install.

package keystore

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/ethaccounts/provider/accounts"
	"github.com/ethaccounts/provider/common"
	"github.com/ethaccounts/provider/crypto"
	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

const (
	keyHeaderKDF = "scrypt"

	// StandardScryptN and StandardScryptP are the scrypt parameters used by
	// interactive account creation.
	StandardScryptN = 1 << 18
	StandardScryptP = 1

	// LightScryptN and LightScryptP are reduced parameters for resource
	// constrained environments (mobile, CI).
	LightScryptN = 1 << 12
	LightScryptP = 6

	scryptR     = 8
	scryptDKLen = 32
)

type keyStorePassphrase struct {
	keysDirPath string
	scryptN     int
	scryptP     int
	// skipKeyFileVerification disables the self-check read-back after
	// writing a new keyfile. Nothing in this module sets it.
	skipKeyFileVerification bool
}

func (ks keyStorePassphrase) GetKey(addr common.Address, filename, auth string) (*Key, error) {
	keyjson, err := readKeyFile(filename)
	if err != nil {
		return nil, err
	}
	key, err := DecryptKey(keyjson, auth)
	if err != nil {
		return nil, err
	}
	if key.Address != addr {
		return nil, fmt.Errorf("key content mismatch: have address %x, want %x", key.Address, addr)
	}
	return key, nil
}

func (ks keyStorePassphrase) StoreKey(filename string, key *Key, auth string) error {
	keyjson, err := EncryptKey(key, auth, ks.scryptN, ks.scryptP)
	if err != nil {
		return err
	}
	if err := writeKeyFile(filename, keyjson); err != nil {
		return err
	}
	if ks.skipKeyFileVerification {
		return nil
	}
	_, err = ks.GetKey(key.Address, filename, auth)
	return err
}

func (ks keyStorePassphrase) JoinPath(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(ks.keysDirPath, filename)
}

// EncryptKey encrypts key using the V3 keyfile format with the given scrypt
// work factors and returns the JSON-encoded keyfile contents.
func EncryptKey(key *Key, auth string, scryptN, scryptP int) ([]byte, error) {
	keyBytes := crypto.FromECDSA(key.PrivateKey)

	salt := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("reading random salt: %w", err)
	}
	derivedKey, err := scrypt.Key([]byte(auth), salt, scryptN, scryptR, scryptP, scryptDKLen)
	if err != nil {
		return nil, err
	}
	encKey := derivedKey[:16]

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("reading random iv: %w", err)
	}
	cipherText, err := aesCTRXOR(encKey, keyBytes, iv)
	if err != nil {
		return nil, err
	}
	mac := crypto.Keccak256(derivedKey[16:32], cipherText)

	scryptParamsJSON := map[string]interface{}{
		"n":     scryptN,
		"r":     scryptR,
		"p":     scryptP,
		"dklen": scryptDKLen,
		"salt":  hex.EncodeToString(salt),
	}
	cipherParamsJSON := cipherparamsJSON{IV: hex.EncodeToString(iv)}

	cryptoStruct := cryptoJSON{
		Cipher:       "aes-128-ctr",
		CipherText:   hex.EncodeToString(cipherText),
		CipherParams: cipherParamsJSON,
		KDF:          keyHeaderKDF,
		KDFParams:    scryptParamsJSON,
		MAC:          hex.EncodeToString(mac),
	}
	encryptedKeyJSONV3 := encryptedKeyJSONV3{
		Address: hex.EncodeToString(key.Address[:]),
		Crypto:  cryptoStruct,
		ID:      key.ID.String(),
		Version: version3,
	}
	return json.Marshal(encryptedKeyJSONV3)
}

// DecryptKey decrypts a V3 or V1 keyfile and returns the decoded private key.
func DecryptKey(keyjson []byte, auth string) (*Key, error) {
	k := new(struct {
		Version int `json:"version"`
	})
	if err := json.Unmarshal(keyjson, k); err != nil {
		return nil, err
	}
	switch k.Version {
	case version3:
		var kv3 encryptedKeyJSONV3
		if err := json.Unmarshal(keyjson, &kv3); err != nil {
			return nil, err
		}
		return decryptKeyV3(&kv3, auth)
	case version1:
		var kv1 encryptedKeyJSONV1
		if err := json.Unmarshal(keyjson, &kv1); err != nil {
			return nil, err
		}
		return decryptKeyV1(&kv1, auth)
	default:
		return nil, fmt.Errorf("unsupported keyfile version %d", k.Version)
	}
}

func decryptKeyV3(keyProtected *encryptedKeyJSONV3, auth string) (*Key, error) {
	if keyProtected.Crypto.Cipher != "aes-128-ctr" {
		return nil, fmt.Errorf("cipher not supported: %v", keyProtected.Crypto.Cipher)
	}
	keyUUID, err := uuid.Parse(keyProtected.ID)
	if err != nil {
		return nil, err
	}
	mac, err := hex.DecodeString(keyProtected.Crypto.MAC)
	if err != nil {
		return nil, err
	}
	cipherText, err := hex.DecodeString(keyProtected.Crypto.CipherText)
	if err != nil {
		return nil, err
	}
	iv, err := hex.DecodeString(keyProtected.Crypto.CipherParams.IV)
	if err != nil {
		return nil, err
	}
	derivedKey, err := getKDFKey(keyProtected.Crypto, auth)
	if err != nil {
		return nil, err
	}
	calculatedMAC := crypto.Keccak256(derivedKey[16:32], cipherText)
	if !bytes.Equal(calculatedMAC, mac) {
		return nil, accounts.ErrDecrypt
	}
	plainText, err := aesCTRXOR(derivedKey[:16], cipherText, iv)
	if err != nil {
		return nil, err
	}
	privKey := crypto.ToECDSA(plainText)
	if privKey == nil {
		return nil, errors.New("decrypted key material is not a valid private key")
	}
	return &Key{
		ID:         keyUUID,
		Address:    crypto.PubkeyToAddress(privKey.PublicKey),
		PrivateKey: privKey,
	}, nil
}

func decryptKeyV1(keyProtected *encryptedKeyJSONV1, auth string) (*Key, error) {
	keyUUID, err := uuid.Parse(keyProtected.ID)
	if err != nil {
		return nil, err
	}
	mac, err := hex.DecodeString(keyProtected.Crypto.MAC)
	if err != nil {
		return nil, err
	}
	cipherText, err := hex.DecodeString(keyProtected.Crypto.CipherText)
	if err != nil {
		return nil, err
	}
	iv, err := hex.DecodeString(keyProtected.Crypto.CipherParams.IV)
	if err != nil {
		return nil, err
	}
	derivedKey, err := getKDFKey(keyProtected.Crypto, auth)
	if err != nil {
		return nil, err
	}
	calculatedMAC := crypto.Sha256(append(derivedKey[16:32], cipherText...))
	if !bytes.Equal(calculatedMAC, mac) {
		return nil, accounts.ErrDecrypt
	}
	plainText, err := aesCBCDecrypt(crypto.Sha256(derivedKey[:16])[:16], cipherText, iv)
	if err != nil {
		return nil, err
	}
	privKey := crypto.ToECDSA(plainText)
	if privKey == nil {
		return nil, errors.New("decrypted key material is not a valid private key")
	}
	return &Key{
		ID:         keyUUID,
		Address:    crypto.PubkeyToAddress(privKey.PublicKey),
		PrivateKey: privKey,
	}, nil
}

func getKDFKey(cryptoJSON cryptoJSON, auth string) ([]byte, error) {
	authArray := []byte(auth)
	salt, err := hex.DecodeString(asString(cryptoJSON.KDFParams["salt"]))
	if err != nil {
		return nil, err
	}
	dkLen := asInt(cryptoJSON.KDFParams["dklen"])

	switch cryptoJSON.KDF {
	case "scrypt":
		n := asInt(cryptoJSON.KDFParams["n"])
		r := asInt(cryptoJSON.KDFParams["r"])
		p := asInt(cryptoJSON.KDFParams["p"])
		return scrypt.Key(authArray, salt, n, r, p, dkLen)
	case "pbkdf2":
		c := asInt(cryptoJSON.KDFParams["c"])
		prf := asString(cryptoJSON.KDFParams["prf"])
		if prf != "hmac-sha256" {
			return nil, fmt.Errorf("unsupported PBKDF2 PRF: %s", prf)
		}
		return pbkdf2.Key(authArray, salt, c, dkLen, sha256.New), nil
	}
	return nil, fmt.Errorf("unsupported KDF: %s", cryptoJSON.KDF)
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func aesCTRXOR(key, inText, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	stream := cipher.NewCTR(block, iv)
	outText := make([]byte, len(inText))
	stream.XORKeyStream(outText, inText)
	return outText, nil
}

func aesCBCDecrypt(key, cipherText, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(cipherText)%aes.BlockSize != 0 {
		return nil, errors.New("ciphertext is not a multiple of the block size")
	}
	decrypter := cipher.NewCBCDecrypter(block, iv)
	paddedPlainText := make([]byte, len(cipherText))
	decrypter.CryptBlocks(paddedPlainText, cipherText)
	return removePKCS7Padding(paddedPlainText)
}

func removePKCS7Padding(in []byte) ([]byte, error) {
	if len(in) == 0 {
		return nil, errors.New("empty input")
	}
	padding := int(in[len(in)-1])
	if padding == 0 || padding > len(in) {
		return nil, errors.New("invalid padding")
	}
	return in[:len(in)-padding], nil
}

var _ keyStore = keyStorePassphrase{}
