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

package dappstore

import (
	"github.com/ethaccounts/provider/accounts"
	"github.com/ethaccounts/provider/common"
)

// Resolver answers dapps_addresses/default_address queries against a store,
// an address book, and a live enumeration of owned account addresses.
type Resolver struct {
	Store       accounts.DappsSettingsStore
	AddressBook accounts.AddressBook
	// OwnedAccounts returns every address the provider currently owns,
	// in the backend's enumeration order.
	OwnedAccounts func() []common.Address
}

// Addresses implements spec.md §4.3's dapps_addresses: per-dapp pinned
// sets are returned verbatim, even if some addresses have since been
// deleted; absent that, the global policy is dispatched.
func (r *Resolver) Addresses(dapp string) ([]common.Address, error) {
	settings, err := r.Store.Settings()
	if err != nil {
		return nil, err
	}
	if s, ok := settings[dapp]; ok {
		return s.Accounts, nil
	}
	policy, err := r.Store.Policy()
	if err != nil {
		return nil, err
	}
	if policy.AllAccounts {
		return r.OwnedAccounts(), nil
	}
	return r.filter(policy.Whitelist)
}

// SetAddresses applies the §4.3 filter — reject any address that is
// neither an owned account nor present in the address book — before
// storing the caller's requested set for dapp.
func (r *Resolver) SetAddresses(dapp string, addrs []common.Address) error {
	filtered, err := r.filter(addrs)
	if err != nil {
		return err
	}
	return r.Store.SetAccounts(dapp, filtered)
}

func (r *Resolver) filter(addrs []common.Address) ([]common.Address, error) {
	owned := make(map[common.Address]bool)
	for _, a := range r.OwnedAccounts() {
		owned[a] = true
	}
	book := r.AddressBook.Get()

	out := make([]common.Address, 0, len(addrs))
	for _, a := range addrs {
		if owned[a] {
			out = append(out, a)
			continue
		}
		if _, ok := book[a]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// DefaultAddress returns the first element of Addresses(dapp), failing
// with accounts.ErrInvalidAccount if the dapp has no visible addresses.
func (r *Resolver) DefaultAddress(dapp string) (common.Address, error) {
	addrs, err := r.Addresses(dapp)
	if err != nil {
		return common.Address{}, err
	}
	if len(addrs) == 0 {
		return common.Address{}, accounts.ErrInvalidAccount
	}
	return addrs[0], nil
}
