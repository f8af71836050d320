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

package provider

import (
	"testing"
	"time"

	"github.com/ethaccounts/provider/accounts"
	"github.com/ethaccounts/provider/common"
	"github.com/stretchr/testify/require"
)

// S1: temporary unlock is single-use.
func TestScenarioS1TemporaryUnlockIsSingleUse(t *testing.T) {
	p := NewTransient()
	acc, err := p.NewAccount("pw")
	require.NoError(t, err)

	require.Error(t, p.UnlockAccountTemporarily(acc.Address, "bad"))
	require.NoError(t, p.UnlockAccountTemporarily(acc.Address, "pw"))

	_, err = p.Sign(acc.Address, "", make([]byte, 32))
	require.NoError(t, err)

	_, err = p.Sign(acc.Address, "", make([]byte, 32))
	require.ErrorIs(t, err, accounts.ErrNotUnlocked)
}

// S2: a permanent unlock absorbs subsequent temporary unlocks.
func TestScenarioS2PermanentUnlockNeverDowngrades(t *testing.T) {
	p := NewTransient()
	acc, err := p.NewAccount("pw")
	require.NoError(t, err)

	require.NoError(t, p.UnlockAccountPermanently(acc.Address, "pw"))
	_, err = p.Sign(acc.Address, "", make([]byte, 32))
	require.NoError(t, err)
	_, err = p.Sign(acc.Address, "", make([]byte, 32))
	require.NoError(t, err)

	require.NoError(t, p.UnlockAccountTemporarily(acc.Address, "pw"))
	_, err = p.Sign(acc.Address, "", make([]byte, 32))
	require.NoError(t, err)
	_, err = p.Sign(acc.Address, "", make([]byte, 32))
	require.NoError(t, err)
}

// S3: a timed unlock expires once its deadline has passed.
func TestScenarioS3TimedUnlockExpires(t *testing.T) {
	p := NewTransient()
	acc, err := p.NewAccount("pw")
	require.NoError(t, err)

	require.NoError(t, p.UnlockAccountTimed(acc.Address, "pw", 60_000))
	_, err = p.Sign(acc.Address, "", make([]byte, 32))
	require.NoError(t, err)

	ref, err := p.store.AccountRef(acc.Address)
	require.NoError(t, err)
	p.unlocks.Insert(ref, accounts.Timed, time.Now(), "pw")

	_, err = p.Sign(acc.Address, "", make([]byte, 32))
	require.ErrorIs(t, err, accounts.ErrNotUnlocked)
}

// S4: session token rotation.
func TestScenarioS4TokenRotation(t *testing.T) {
	p := NewTransient()
	acc, err := p.NewAccount("pw")
	require.NoError(t, err)

	_, t1, err := p.SignWithToken(acc.Address, "pw", make([]byte, 32))
	require.NoError(t, err)
	require.Len(t, t1, 16)

	_, t2, err := p.SignWithToken(acc.Address, t1, make([]byte, 32))
	require.NoError(t, err)
	require.NotEqual(t, t1, t2)

	_, _, err = p.SignWithToken(acc.Address, t1, make([]byte, 32))
	require.Error(t, err)
}

// S5: whitelist-filtered dapp addresses with an address-book exception.
func TestScenarioS5SetDappsAddressesFiltersUnknown(t *testing.T) {
	p := NewTransient()
	require.NoError(t, p.SetNewDappsWhitelist(nil))

	addr1 := common.HexToAddress("0x0000000000000000000000000000000000000001")
	addr2 := common.HexToAddress("0x0000000000000000000000000000000000000002")
	addr3 := common.HexToAddress("0x0000000000000000000000000000000000000003")

	require.NoError(t, p.SetAddressName(addr1, "alice"))
	require.NoError(t, p.SetAddressName(addr2, "bob"))

	require.NoError(t, p.SetDappsAddresses("app1", []common.Address{addr1, addr2, addr3}))
	addrs, err := p.DappsAddresses("app1")
	require.NoError(t, err)
	require.Equal(t, []common.Address{addr1, addr2}, addrs)
}

// S6: whitelist policy transitions.
func TestScenarioS6WhitelistPolicyTransitions(t *testing.T) {
	p := NewTransient()
	acc, err := p.NewAccount("pw")
	require.NoError(t, err)

	addr1 := common.HexToAddress("0x0000000000000000000000000000000000000001")
	addr2 := common.HexToAddress("0x0000000000000000000000000000000000000002")
	require.NoError(t, p.SetAddressName(addr1, "alice"))

	require.NoError(t, p.SetNewDappsWhitelist([]common.Address{}))
	addrs, err := p.DappsAddresses("app1")
	require.NoError(t, err)
	require.Empty(t, addrs)

	require.NoError(t, p.SetNewDappsWhitelist(nil))
	addrs, err = p.DappsAddresses("app1")
	require.NoError(t, err)
	require.Equal(t, []common.Address{acc.Address}, addrs)

	require.NoError(t, p.SetNewDappsWhitelist([]common.Address{addr2}))
	addrs, err = p.DappsAddresses("app1")
	require.NoError(t, err)
	require.Empty(t, addrs)

	require.NoError(t, p.SetNewDappsWhitelist([]common.Address{addr1}))
	addrs, err = p.DappsAddresses("app1")
	require.NoError(t, err)
	require.Equal(t, []common.Address{addr1}, addrs)
}

func TestInvariantWrongUnlockLeavesLocked(t *testing.T) {
	p := NewTransient()
	acc, err := p.NewAccount("pw")
	require.NoError(t, err)

	require.Error(t, p.UnlockAccountTemporarily(acc.Address, "wrong"))
	require.False(t, p.IsUnlocked(acc.Address))
}

func TestDefaultAddressFailsWhenVisibilityEmpty(t *testing.T) {
	p := NewTransient()
	require.NoError(t, p.SetNewDappsWhitelist([]common.Address{}))
	_, err := p.DefaultAddress("app1")
	require.ErrorIs(t, err, accounts.ErrInvalidAccount)
}

func TestAccountMetaUsesSoftwareWithoutHardware(t *testing.T) {
	p := NewTransient()
	acc, err := p.NewAccount("pw")
	require.NoError(t, err)
	require.NoError(t, p.SetAccountName(acc.Address, "software-name"))

	meta, err := p.AccountMeta(acc.Address)
	require.NoError(t, err)
	require.Equal(t, "software-name", meta.Name)
}

func TestSignWithHardwareNoManagerConfigured(t *testing.T) {
	p := NewTransient()
	_, err := p.SignWithHardware(common.Address{}, []byte("tx"))
	require.ErrorIs(t, err, accounts.ErrNoHardwareManager)
}

func TestKillAccountClearsUnlock(t *testing.T) {
	p := NewTransient()
	acc, err := p.NewAccount("pw")
	require.NoError(t, err)
	require.NoError(t, p.UnlockAccountPermanently(acc.Address, "pw"))
	require.True(t, p.IsUnlocked(acc.Address))
	ref, err := p.store.AccountRef(acc.Address)
	require.NoError(t, err)

	require.NoError(t, p.KillAccount(acc.Address, "pw"))
	require.False(t, p.HasAccount(acc.Address))
	require.False(t, p.unlocks.IsUnlocked(ref))
}
