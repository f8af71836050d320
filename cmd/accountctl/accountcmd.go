// Copyright 2016 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethaccounts/provider/common"
	"github.com/ethaccounts/provider/crypto"
	"github.com/urfave/cli/v2"
)

// decodeHexKey parses a hex-encoded secp256k1 private key, validating both
// the hex encoding and that the scalar is a valid curve private key.
func decodeHexKey(hexkey string) ([]byte, error) {
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(hexkey, "0x"))
	if err != nil {
		if _, decErr := hex.DecodeString(strings.TrimPrefix(hexkey, "0x")); decErr != nil {
			return nil, decErr
		}
		return nil, err
	}
	return crypto.FromECDSA(priv), nil
}

// readPassword resolves a password for a mutating command: the --password
// file wins if given, otherwise the operator is prompted. If banner is
// non-empty it is printed first and the password is read twice and compared,
// for passwords that will be used to encrypt something new.
func (a *app) readPassword(ctx *cli.Context, banner string) (string, error) {
	if path := ctx.String(passwordFileFlag.Name); path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		lines := strings.Split(strings.ReplaceAll(string(buf), "\r\n", "\n"), "\n")
		if len(lines) == 0 || lines[0] == "" {
			return "", errors.New("password file is empty")
		}
		return lines[0], nil
	}

	if banner == "" {
		return a.prompter.PromptPassword("Password: ")
	}

	fmt.Println(banner)
	first, err := a.prompter.PromptPassword("Password: ")
	if err != nil {
		return "", err
	}
	second, err := a.prompter.PromptPassword("Repeat password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}

const newAccountBanner = "Your new account is locked with a password. Please give a password. Do not forget this password."

func parseAddressArg(ctx *cli.Context, n int) (common.Address, error) {
	if ctx.Args().Len() <= n {
		return common.Address{}, fmt.Errorf("missing address argument")
	}
	raw := ctx.Args().Get(n)
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid address %q", raw)
	}
	return common.HexToAddress(raw), nil
}

func (a *app) accountCommand() *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "manage software-backed accounts",
		Subcommands: []*cli.Command{
			{
				Name:   "new",
				Usage:  "create a new account",
				Action: a.accountNew,
			},
			{
				Name:   "list",
				Usage:  "list all accounts, software and hardware",
				Action: a.accountList,
			},
			{
				Name:      "update",
				Usage:     "change an account's password",
				ArgsUsage: "<address>",
				Action:    a.accountUpdate,
			},
			{
				Name:      "import",
				Usage:     "import a raw private key file",
				ArgsUsage: "<keyfile>",
				Flags:     []cli.Flag{passwordFileFlag},
				Action:    a.accountImport,
			},
			{
				Name:      "unlock",
				Usage:     "unlock an account for signing",
				ArgsUsage: "<address>",
				Flags: []cli.Flag{
					passwordFileFlag,
					&cli.BoolFlag{Name: "permanent", Usage: "unlock until the process exits, never re-locking"},
					&cli.Int64Flag{Name: "duration-ms", Usage: "unlock for this many milliseconds, then re-lock", Value: 300_000},
				},
				Action: a.accountUnlock,
			},
		},
	}
}

func (a *app) accountNew(ctx *cli.Context) error {
	password, err := a.readPassword(ctx, newAccountBanner)
	if err != nil {
		return err
	}
	acc, err := a.provider.NewAccount(password)
	if err != nil {
		return err
	}
	fmt.Println("\nYour new key was generated")
	fmt.Printf("\nPublic address of the key:   %s\n", acc.Address.Hex())
	fmt.Printf("Path of the secret key file: %s\n", acc.URL.String())
	fmt.Println("\n- You can share your public address with anyone. Others need it to interact with you.")
	fmt.Println("- You must NEVER share the secret key with anyone! The key controls access to your funds!")
	fmt.Println("- You must BACKUP your key file! Without the key, it's impossible to access account funds!")
	fmt.Println("- You must REMEMBER your password! Without the password, it's impossible to decrypt the key!")
	return nil
}

func (a *app) accountList(ctx *cli.Context) error {
	for i, acc := range a.provider.Accounts() {
		fmt.Printf("Account #%d: {%x} %s\n", i, acc.Address, acc.URL.String())
	}
	for i, wallet := range a.provider.HardwareAccounts() {
		fmt.Printf("Hardware #%d: {%x} %s (%s)\n", i, wallet.Address, wallet.Name, wallet.Manufacturer)
	}
	return nil
}

func (a *app) accountUpdate(ctx *cli.Context) error {
	addr, err := parseAddressArg(ctx, 0)
	if err != nil {
		return err
	}
	fmt.Printf("Unlocking account %x\n", addr)
	oldPassword, err := a.readPassword(ctx, "")
	if err != nil {
		return err
	}
	newPassword, err := a.readPassword(ctx, "Please give a new password. Do not forget this password.")
	if err != nil {
		return err
	}
	return a.provider.ChangePassword(addr, oldPassword, newPassword)
}

func (a *app) accountImport(ctx *cli.Context) error {
	if ctx.Args().Len() < 1 {
		return errors.New("missing keyfile argument")
	}
	keyBytes, err := os.ReadFile(ctx.Args().Get(0))
	if err != nil {
		return fmt.Errorf("failed to load the private key: %w", err)
	}
	secret, err := decodeHexKey(strings.TrimSpace(string(keyBytes)))
	if err != nil {
		return fmt.Errorf("failed to load the private key: %w", err)
	}
	password, err := a.readPassword(ctx, "")
	if err != nil {
		return err
	}
	acc, err := a.provider.InsertAccount(secret, password)
	if err != nil {
		return err
	}
	fmt.Printf("Address: {%x}\n", acc.Address)
	return nil
}

func (a *app) accountUnlock(ctx *cli.Context) error {
	addr, err := parseAddressArg(ctx, 0)
	if err != nil {
		return err
	}
	password, err := a.readPassword(ctx, "")
	if err != nil {
		return err
	}
	switch {
	case ctx.Bool("permanent"):
		err = a.provider.UnlockAccountPermanently(addr, password)
	case ctx.IsSet("duration-ms"):
		err = a.provider.UnlockAccountTimed(addr, password, ctx.Int64("duration-ms"))
	default:
		err = a.provider.UnlockAccountTemporarily(addr, password)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Unlocked account %x\n", addr)
	return nil
}
