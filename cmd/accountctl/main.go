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

// Command accountctl is a thin operator CLI over package provider: it never
// speaks a wire protocol, it only drives the facade from a terminal.
package main

import (
	"fmt"
	"os"

	"github.com/ethaccounts/provider/accounts"
	"github.com/ethaccounts/provider/accounts/keystore"
	"github.com/ethaccounts/provider/accounts/usbwallet"
	"github.com/ethaccounts/provider/addressbook"
	"github.com/ethaccounts/provider/config"
	"github.com/ethaccounts/provider/console/prompt"
	"github.com/ethaccounts/provider/dappstore"
	"github.com/ethaccounts/provider/log"
	"github.com/ethaccounts/provider/provider"
	"github.com/urfave/cli/v2"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "path to accountctl.toml",
		Value: "accountctl.toml",
	}
	lightKDFFlag = &cli.BoolFlag{
		Name:  "lightkdf",
		Usage: "reduce key-derivation RAM and CPU usage at the expense of security",
	}
	noHardwareFlag = &cli.BoolFlag{
		Name:  "no-hardware",
		Usage: "disable the USB hardware wallet hub",
	}
	passwordFileFlag = &cli.StringFlag{
		Name:  "password",
		Usage: "path to a file containing the account password",
	}
)

// app bundles the live backends a command needs, built once in Before and
// torn down once in After.
type app struct {
	cfg      config.Config
	provider *provider.Provider
	hub      *usbwallet.Hub
	prompter prompt.UserPrompter
}

var cliApp = newCLIApp()

func newCLIApp() *cli.App {
	a := &app{prompter: prompt.NewTerminalPrompter()}

	return &cli.App{
		Name:   "accountctl",
		Usage:  "manage Ethereum accounts, vaults and dapp visibility",
		Flags:  []cli.Flag{configFlag, lightKDFFlag, noHardwareFlag},
		Before: a.setup,
		After:  a.teardown,
		Commands: []*cli.Command{
			a.accountCommand(),
			a.vaultCommand(),
			a.dappsCommand(),
			{
				Name:   "config",
				Usage:  "print the resolved configuration",
				Action: a.showConfig,
			},
		},
	}
}

func main() {
	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) setup(ctx *cli.Context) error {
	cfg := config.Default()
	if path := ctx.String(configFlag.Name); path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := config.Load(path)
			if err != nil {
				return err
			}
			cfg = loaded
		}
	}
	if ctx.Bool(lightKDFFlag.Name) {
		cfg.Keystore.Light = true
	}
	a.cfg = cfg

	n, p := cfg.Keystore.ScryptParams()
	store := keystore.NewKeyStore(cfg.Keystore.Dir, n, p)

	var hw accounts.HardwareWalletManager
	if !ctx.Bool(noHardwareFlag.Name) {
		hub, err := usbwallet.NewLedgerHub()
		if err != nil {
			log.Warn("hardware wallet hub unavailable", "err", err)
		} else {
			a.hub = hub
			hw = hub
		}
	}

	book, err := addressbook.New(cfg.Keystore.Dir + "/addressbook.json")
	if err != nil {
		return err
	}
	dapps, err := dappstore.New(cfg.Keystore.Dir + "/dapps.json")
	if err != nil {
		return err
	}
	if cfg.Dapps.AllAccounts {
		_ = dapps.SetPolicy(accounts.Policy{AllAccounts: true})
	}

	a.provider = provider.New(store, hw, book, dapps)
	return nil
}

func (a *app) teardown(ctx *cli.Context) error {
	if a.hub != nil {
		return a.hub.Close()
	}
	return nil
}

func (a *app) showConfig(ctx *cli.Context) error {
	n, p := a.cfg.Keystore.ScryptParams()
	fmt.Printf("keystore.dir = %s\n", a.cfg.Keystore.Dir)
	fmt.Printf("keystore.light = %v (N=%d, P=%d)\n", a.cfg.Keystore.Light, n, p)
	fmt.Printf("dapps.all_accounts = %v\n", a.cfg.Dapps.AllAccounts)
	fmt.Printf("unlock.default_timeout = %s\n", a.cfg.Unlock.DefaultTimeout())
	return nil
}
