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
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
)

func (a *app) vaultCommand() *cli.Command {
	return &cli.Command{
		Name:  "vault",
		Usage: "manage named vaults, separate password domains within the same keystore",
		Subcommands: []*cli.Command{
			{
				Name:      "create",
				ArgsUsage: "<name>",
				Action:    a.vaultCreate,
			},
			{
				Name:      "open",
				ArgsUsage: "<name>",
				Action:    a.vaultOpen,
			},
			{
				Name:      "close",
				ArgsUsage: "<name>",
				Action:    a.vaultClose,
			},
			{
				Name:   "list",
				Action: a.vaultList,
			},
		},
	}
}

func vaultName(ctx *cli.Context) (string, error) {
	if ctx.Args().Len() < 1 {
		return "", errors.New("missing vault name argument")
	}
	return ctx.Args().Get(0), nil
}

func (a *app) vaultCreate(ctx *cli.Context) error {
	name, err := vaultName(ctx)
	if err != nil {
		return err
	}
	password, err := a.readPassword(ctx, fmt.Sprintf("Vault %q is locked with a password. Please give a password. Do not forget this password.", name))
	if err != nil {
		return err
	}
	return a.provider.CreateVault(name, password)
}

func (a *app) vaultOpen(ctx *cli.Context) error {
	name, err := vaultName(ctx)
	if err != nil {
		return err
	}
	password, err := a.readPassword(ctx, "")
	if err != nil {
		return err
	}
	return a.provider.OpenVault(name, password)
}

func (a *app) vaultClose(ctx *cli.Context) error {
	name, err := vaultName(ctx)
	if err != nil {
		return err
	}
	return a.provider.CloseVault(name)
}

func (a *app) vaultList(ctx *cli.Context) error {
	all, err := a.provider.ListVaults()
	if err != nil {
		return err
	}
	opened, err := a.provider.ListOpenedVaults()
	if err != nil {
		return err
	}
	isOpen := make(map[string]bool, len(opened))
	for _, name := range opened {
		isOpen[name] = true
	}
	for _, name := range all {
		state := "closed"
		if isOpen[name] {
			state = "open"
		}
		fmt.Printf("%s\t%s\n", name, state)
	}
	return nil
}
