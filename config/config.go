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

// Package config loads the TOML configuration file accountctl and any
// embedder of package provider reads its on-disk knobs from.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethaccounts/provider/accounts/keystore"
)

// Config is the on-disk shape of accountctl.toml.
type Config struct {
	Keystore Keystore `toml:"keystore"`
	Dapps    Dapps    `toml:"dapps"`
	Unlock   Unlock   `toml:"unlock"`
}

// Keystore controls where accounts live and how expensive their KDF is.
type Keystore struct {
	// Dir is the root keystore directory; vault subdirectories live under
	// Dir/vaults/<name>.
	Dir string `toml:"dir"`
	// Light selects LightScryptN/LightScryptP instead of the standard,
	// much slower parameters — useful for tests and low-power devices.
	Light bool `toml:"light"`
}

// ScryptParams returns the (N, P) scrypt cost parameters Light selects.
func (k Keystore) ScryptParams() (n, p int) {
	if k.Light {
		return keystore.LightScryptN, keystore.LightScryptP
	}
	return keystore.StandardScryptN, keystore.StandardScryptP
}

// Dapps configures the default new-dapps visibility policy.
type Dapps struct {
	// AllAccounts, when true, makes accountctl reset the stored new-dapps
	// policy to every owned account at startup. When false, the stored
	// policy is left as it is. Whitelist (as hex strings) is loaded, but
	// nothing in this module applies it.
	AllAccounts bool     `toml:"all_accounts"`
	Whitelist   []string `toml:"whitelist"`
}

// Unlock configures default unlock behavior.
type Unlock struct {
	// DefaultTimeoutMS is a default unlock duration. accountctl prints it
	// with the rest of the configuration; its "account unlock --duration-ms"
	// flag has its own default and does not read this value.
	DefaultTimeoutMS int64 `toml:"default_timeout_ms"`
}

// DefaultTimeout returns Unlock.DefaultTimeoutMS as a time.Duration.
func (u Unlock) DefaultTimeout() time.Duration {
	return time.Duration(u.DefaultTimeoutMS) * time.Millisecond
}

// Default returns a Config with reasonable out-of-the-box values.
func Default() Config {
	return Config{
		Keystore: Keystore{Dir: "keystore"},
		Dapps:    Dapps{AllAccounts: true},
		Unlock:   Unlock{DefaultTimeoutMS: 300_000},
	}
}

// Load reads and parses a TOML config file at path, filling in Default()
// for anything unset.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
