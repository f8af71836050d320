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

	"github.com/ethaccounts/provider/common"
	"github.com/urfave/cli/v2"
)

func (a *app) dappsCommand() *cli.Command {
	return &cli.Command{
		Name:  "dapps",
		Usage: "manage which accounts are visible to connecting dapps",
		Subcommands: []*cli.Command{
			{
				Name:   "whitelist",
				Usage:  "print the current new-dapp visibility policy",
				Action: a.dappsWhitelist,
			},
			{
				Name:      "set-whitelist",
				Usage:     "restrict new dapps to exactly the given addresses (no addresses means all accounts)",
				ArgsUsage: "[<address> ...]",
				Action:    a.dappsSetWhitelist,
			},
			{
				Name:      "addresses",
				Usage:     "print the addresses visible to a dapp origin",
				ArgsUsage: "<dapp>",
				Action:    a.dappsAddresses,
			},
			{
				Name:      "set-addresses",
				Usage:     "set the addresses visible to a dapp origin",
				ArgsUsage: "<dapp> <address> [<address> ...]",
				Action:    a.dappsSetAddresses,
			},
			{
				Name:   "recent",
				Usage:  "print dapps seen recently and when",
				Action: a.dappsRecent,
			},
		},
	}
}

func (a *app) dappsWhitelist(ctx *cli.Context) error {
	whitelist, err := a.provider.NewDappsWhitelist()
	if err != nil {
		return err
	}
	if whitelist == nil {
		fmt.Println("all accounts visible to new dapps")
		return nil
	}
	for _, addr := range whitelist {
		fmt.Printf("%x\n", addr)
	}
	return nil
}

func (a *app) dappsSetWhitelist(ctx *cli.Context) error {
	if ctx.Args().Len() == 0 {
		return a.provider.SetNewDappsWhitelist(nil)
	}
	addrs, err := parseAddressList(ctx, 0)
	if err != nil {
		return err
	}
	return a.provider.SetNewDappsWhitelist(addrs)
}

func (a *app) dappsAddresses(ctx *cli.Context) error {
	if ctx.Args().Len() < 1 {
		return errors.New("missing dapp argument")
	}
	addrs, err := a.provider.DappsAddresses(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	for _, addr := range addrs {
		fmt.Printf("%x\n", addr)
	}
	return nil
}

func (a *app) dappsSetAddresses(ctx *cli.Context) error {
	if ctx.Args().Len() < 1 {
		return errors.New("missing dapp argument")
	}
	dapp := ctx.Args().Get(0)
	addrs, err := parseAddressList(ctx, 1)
	if err != nil {
		return err
	}
	return a.provider.SetDappsAddresses(dapp, addrs)
}

func (a *app) dappsRecent(ctx *cli.Context) error {
	recent, err := a.provider.RecentDapps()
	if err != nil {
		return err
	}
	for dapp, seen := range recent {
		fmt.Printf("%s\t%s\n", dapp, seen.Format("2006-01-02T15:04:05Z07:00"))
	}
	return nil
}

func parseAddressList(ctx *cli.Context, from int) ([]common.Address, error) {
	args := ctx.Args().Slice()
	if from >= len(args) {
		return nil, nil
	}
	out := make([]common.Address, 0, len(args)-from)
	for _, raw := range args[from:] {
		if !common.IsHexAddress(raw) {
			return nil, fmt.Errorf("invalid address %q", raw)
		}
		out = append(out, common.HexToAddress(raw))
	}
	return out, nil
}
