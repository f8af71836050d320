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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethaccounts/provider/accounts/keystore"
	"github.com/stretchr/testify/require"
)

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accountctl.toml")
	body := `
[keystore]
dir = "/var/lib/accountctl/keys"
light = true

[dapps]
all_accounts = false
whitelist = ["0x0000000000000000000000000000000000000001"]

[unlock]
default_timeout_ms = 5000
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/accountctl/keys", cfg.Keystore.Dir)
	require.True(t, cfg.Keystore.Light)
	n, p := cfg.Keystore.ScryptParams()
	require.Equal(t, keystore.LightScryptN, n)
	require.Equal(t, keystore.LightScryptP, p)

	require.False(t, cfg.Dapps.AllAccounts)
	require.Equal(t, []string{"0x0000000000000000000000000000000000000001"}, cfg.Dapps.Whitelist)
	require.Equal(t, int64(5000), cfg.Unlock.DefaultTimeoutMS)
}

func TestDefaultConfigUsesStandardScrypt(t *testing.T) {
	cfg := Default()
	n, p := cfg.Keystore.ScryptParams()
	require.Equal(t, keystore.StandardScryptN, n)
	require.Equal(t, keystore.StandardScryptP, p)
}
