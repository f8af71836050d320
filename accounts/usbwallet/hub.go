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

// Package usbwallet implements the accounts.HardwareWalletManager backend
// for USB HID hardware wallets (currently Ledger devices).
package usbwallet

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ethaccounts/provider/accounts"
	"github.com/ethaccounts/provider/common"
	"github.com/ethaccounts/provider/event"
	"github.com/ethaccounts/provider/log"
	"github.com/karalabe/usb"
)

// usbEnumerate is usb.Enumerate, indirected so tests can substitute a fake
// device list without touching real hardware.
var usbEnumerate = usb.Enumerate

// Ledger vendor/product identification. These match the values Ledger Live
// itself uses to tell its devices apart from other HID peripherals.
const ledgerVendorID = 0x2c97

var ledgerProductIDs = []uint16{
	0x0000, 0x0001, 0x0004, // Nano S, various firmware generations
	0x0005, 0x0006, 0x0007, // Nano X, Nano S Plus, Stax
}

const (
	deviceUsagePage = 0xffa0
	deviceInterface = 0
)

// WalletEvent is fired on the Hub's feed whenever a wallet is plugged in or
// unplugged.
type WalletEvent struct {
	Address common.Address
	Arrived bool
}

type ledgerHandle struct {
	info accounts.WalletInfo
	dev  *ledgerDevice
}

// Hub enumerates and tracks Ledger hardware wallets connected over USB HID.
// It refreshes its device list on a timer rather than relying on OS-level
// hotplug notification, which keeps it portable across platforms.
type Hub struct {
	refreshInterval time.Duration

	mu      sync.RWMutex
	wallets map[common.Address]*ledgerHandle
	keyPath string

	feed event.Feed

	cancel context.CancelFunc
	done   chan struct{}
}

// NewLedgerHub creates a Hub that watches for Ledger devices and starts its
// background refresh loop immediately.
func NewLedgerHub() (*Hub, error) {
	h := &Hub{
		refreshInterval: 500 * time.Millisecond,
		wallets:         make(map[common.Address]*ledgerHandle),
		keyPath:         "m/44'/60'/0'/0/0",
		done:            make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel

	if err := h.refresh(); err != nil {
		log.Warn("Failed initial ledger enumeration", "err", err)
	}
	go h.loop(ctx)
	return h, nil
}

func (h *Hub) loop(ctx context.Context) {
	defer close(h.done)
	ticker := time.NewTicker(h.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.refresh(); err != nil {
				log.Trace("Ledger refresh failed", "err", err)
			}
		}
	}
}

func (h *Hub) refresh() error {
	infos, err := usbEnumerate(ledgerVendorID, 0)
	if err != nil {
		return err
	}

	seen := make(map[common.Address]bool)
	for _, info := range infos {
		if !matchesLedger(info) {
			continue
		}
		dev := newLedgerDevice(info)
		addr, err := dev.address(h.keyPath)
		if err != nil {
			log.Trace("Skipping ledger device", "path", info.Path, "err", err)
			continue
		}
		seen[addr] = true

		h.mu.Lock()
		if _, ok := h.wallets[addr]; !ok {
			h.wallets[addr] = &ledgerHandle{
				info: accounts.WalletInfo{
					Name:         "Ledger",
					Manufacturer: info.Manufacturer,
					Serial:       info.Serial,
					Address:      addr,
				},
				dev: dev,
			}
			h.mu.Unlock()
			h.feed.Send(WalletEvent{Address: addr, Arrived: true})
		} else {
			h.mu.Unlock()
		}
	}

	h.mu.Lock()
	for addr := range h.wallets {
		if !seen[addr] {
			delete(h.wallets, addr)
			h.mu.Unlock()
			h.feed.Send(WalletEvent{Address: addr, Arrived: false})
			h.mu.Lock()
		}
	}
	h.mu.Unlock()
	return nil
}

func matchesLedger(info usb.DeviceInfo) bool {
	if info.VendorID != ledgerVendorID {
		return false
	}
	for _, pid := range ledgerProductIDs {
		if info.ProductID == pid {
			return true
		}
	}
	return false
}

// Subscribe registers ch to receive wallet arrival/departure events.
func (h *Hub) Subscribe(ch chan<- WalletEvent) event.Subscription {
	return h.feed.Subscribe(ch)
}

// ListWallets implements accounts.HardwareWalletManager.
func (h *Hub) ListWallets() []accounts.WalletInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]accounts.WalletInfo, 0, len(h.wallets))
	for _, w := range h.wallets {
		out = append(out, w.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address.Hex() < out[j].Address.Hex() })
	return out
}

// WalletInfo implements accounts.HardwareWalletManager.
func (h *Hub) WalletInfo(addr common.Address) (accounts.WalletInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	w, ok := h.wallets[addr]
	if !ok {
		return accounts.WalletInfo{}, false
	}
	return w.info, true
}

// SignTransaction implements accounts.HardwareWalletManager, delegating the
// APDU exchange to the underlying ledgerDevice.
func (h *Hub) SignTransaction(addr common.Address, payload []byte) (accounts.Signature, error) {
	h.mu.RLock()
	w, ok := h.wallets[addr]
	keyPath := h.keyPath
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("usbwallet: no ledger attached for %s", addr.Hex())
	}
	return w.dev.sign(keyPath, payload)
}

// SetKeyPath implements accounts.HardwareWalletManager. It changes the BIP-32
// derivation path used for every subsequent enumeration and signing request;
// existing wallets are re-derived on the next refresh.
func (h *Hub) SetKeyPath(path string) error {
	if _, err := parseDerivationPath(path); err != nil {
		return err
	}
	h.mu.Lock()
	h.keyPath = path
	h.wallets = make(map[common.Address]*ledgerHandle)
	h.mu.Unlock()
	return h.refresh()
}

// Close implements accounts.HardwareWalletManager, stopping the background
// refresh loop and waiting for it to exit.
func (h *Hub) Close() error {
	h.cancel()
	<-h.done
	return nil
}

var _ accounts.HardwareWalletManager = (*Hub)(nil)
