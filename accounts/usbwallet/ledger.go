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

package usbwallet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/ethaccounts/provider/accounts"
	"github.com/ethaccounts/provider/common"
	"github.com/karalabe/usb"
)

// Ledger APDU constants, as documented by the Ledger Ethereum app.
const (
	ledgerCLA              = 0xe0
	ledgerInsGetAddress     = 0x02
	ledgerInsSignPersonal   = 0x08
	ledgerP1FirstChunk      = 0x00
	ledgerP2NoConfirm       = 0x00
	ledgerHIDReportSize     = 64
	ledgerChannel           = 0x0101
	ledgerTagAPDU           = 0x05
)

// ledgerDevice wraps a single USB HID handle and speaks the chunked Ledger
// wire protocol over it: every APDU is split into 64-byte HID reports
// carrying a channel id, a tag, and a sequence number, per Ledgerʼs HID
// framing spec.
type ledgerDevice struct {
	info usb.DeviceInfo

	mu   sync.Mutex
	conn usb.Device
}

func newLedgerDevice(info usb.DeviceInfo) *ledgerDevice {
	return &ledgerDevice{info: info}
}

func (d *ledgerDevice) open() error {
	if d.conn != nil {
		return nil
	}
	conn, err := d.info.Open()
	if err != nil {
		return err
	}
	d.conn = conn
	return nil
}

// exchange sends apdu to the device and returns its response payload, with
// the trailing two-byte status word stripped (and turned into an error if
// it isn't 0x9000).
func (d *ledgerDevice) exchange(apdu []byte) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.open(); err != nil {
		return nil, err
	}
	if err := d.writeAPDU(apdu); err != nil {
		return nil, err
	}
	resp, err := d.readAPDU()
	if err != nil {
		return nil, err
	}
	if len(resp) < 2 {
		return nil, errors.New("usbwallet: truncated ledger response")
	}
	sw := binary.BigEndian.Uint16(resp[len(resp)-2:])
	if sw != 0x9000 {
		return nil, fmt.Errorf("usbwallet: ledger returned status 0x%04x", sw)
	}
	return resp[:len(resp)-2], nil
}

func (d *ledgerDevice) writeAPDU(apdu []byte) error {
	header := make([]byte, 5)
	binary.BigEndian.PutUint16(header, ledgerChannel)
	header[2] = ledgerTagAPDU

	payload := make([]byte, 2+len(apdu))
	binary.BigEndian.PutUint16(payload, uint16(len(apdu)))
	copy(payload[2:], apdu)

	seq := uint16(0)
	for offset := 0; offset < len(payload); {
		report := make([]byte, ledgerHIDReportSize)
		copy(report, header)
		binary.BigEndian.PutUint16(report[3:], seq)
		n := copy(report[5:], payload[offset:])
		if _, err := d.conn.Write(report); err != nil {
			return err
		}
		offset += n
		seq++
	}
	return nil
}

func (d *ledgerDevice) readAPDU() ([]byte, error) {
	var (
		buf      []byte
		expected = -1
		seq      = uint16(0)
	)
	for expected < 0 || len(buf) < expected {
		report := make([]byte, ledgerHIDReportSize)
		if _, err := d.conn.Read(report); err != nil {
			return nil, err
		}
		if len(report) < 5 {
			return nil, errors.New("usbwallet: short ledger HID report")
		}
		gotSeq := binary.BigEndian.Uint16(report[3:5])
		if gotSeq != seq {
			return nil, fmt.Errorf("usbwallet: out-of-order ledger report %d, want %d", gotSeq, seq)
		}
		body := report[5:]
		if seq == 0 {
			if len(body) < 2 {
				return nil, errors.New("usbwallet: short ledger frame header")
			}
			expected = int(binary.BigEndian.Uint16(body[:2]))
			body = body[2:]
		}
		buf = append(buf, body...)
		seq++
	}
	return buf[:expected], nil
}

// parseDerivationPath parses a BIP-32 path such as "m/44'/60'/0'/0/0" into
// its component indices, marking hardened segments with the standard
// 0x80000000 offset.
func parseDerivationPath(path string) ([]uint32, error) {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "m/")
	path = strings.TrimPrefix(path, "M/")
	if path == "" {
		return nil, errors.New("usbwallet: empty derivation path")
	}
	parts := strings.Split(path, "/")
	out := make([]uint32, len(parts))
	for i, p := range parts {
		hardened := strings.HasSuffix(p, "'") || strings.HasSuffix(p, "H")
		p = strings.TrimSuffix(strings.TrimSuffix(p, "'"), "H")
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("usbwallet: invalid path segment %q: %w", parts[i], err)
		}
		if hardened {
			n |= 0x80000000
		}
		out[i] = uint32(n)
	}
	return out, nil
}

func encodePathAPDU(path []uint32) []byte {
	buf := make([]byte, 1+4*len(path))
	buf[0] = byte(len(path))
	for i, p := range path {
		binary.BigEndian.PutUint32(buf[1+4*i:], p)
	}
	return buf
}

// address derives the address for path, asking the device without
// requiring on-screen confirmation.
func (d *ledgerDevice) address(path string) (common.Address, error) {
	indices, err := parseDerivationPath(path)
	if err != nil {
		return common.Address{}, err
	}
	apdu := append([]byte{ledgerCLA, ledgerInsGetAddress, ledgerP1FirstChunk, ledgerP2NoConfirm}, encodePathAPDU(indices)...)
	apdu = append([]byte{ledgerCLA, ledgerInsGetAddress, ledgerP1FirstChunk, ledgerP2NoConfirm, byte(len(apdu) - 4)}, apdu[4:]...)

	resp, err := d.exchange(apdu)
	if err != nil {
		return common.Address{}, err
	}
	// Response layout: 1-byte pubkey length, pubkey, 1-byte address-string
	// length, ASCII-hex address, (optional chain code).
	if len(resp) < 1 {
		return common.Address{}, errors.New("usbwallet: empty get-address response")
	}
	pubLen := int(resp[0])
	offset := 1 + pubLen
	if offset >= len(resp) {
		return common.Address{}, errors.New("usbwallet: truncated get-address response")
	}
	addrLen := int(resp[offset])
	offset++
	if offset+addrLen > len(resp) {
		return common.Address{}, errors.New("usbwallet: truncated get-address response")
	}
	hexAddr := string(resp[offset : offset+addrLen])
	if !common.IsHexAddress(hexAddr) {
		return common.Address{}, fmt.Errorf("usbwallet: malformed address %q from device", hexAddr)
	}
	return common.HexToAddress(hexAddr), nil
}

// sign requests a personal_sign-style signature over payload from the
// device at the given derivation path. Multi-chunk transaction streaming
// (for full RLP transaction signing) is not implemented; payload must fit
// in a single APDU, matching the provider facade's sign/sign_with_token
// surface rather than a full transaction signer.
func (d *ledgerDevice) sign(path string, payload []byte) (accounts.Signature, error) {
	indices, err := parseDerivationPath(path)
	if err != nil {
		return nil, err
	}
	body := append(encodePathAPDU(indices), payload...)
	if len(body) > 255 {
		return nil, errors.New("usbwallet: payload too large for single-chunk ledger signing")
	}
	apdu := append([]byte{ledgerCLA, ledgerInsSignPersonal, ledgerP1FirstChunk, ledgerP2NoConfirm, byte(len(body))}, body...)

	resp, err := d.exchange(apdu)
	if err != nil {
		return nil, err
	}
	if len(resp) != 65 {
		return nil, fmt.Errorf("usbwallet: unexpected signature length %d", len(resp))
	}
	// Ledger returns v in [0,3] or [27,30]; normalize to go-ethereum's
	// recovery-id-as-last-byte convention used by crypto.Sign.
	sig := make([]byte, 65)
	copy(sig, resp[1:65])
	sig[64] = resp[0] % 27
	return sig, nil
}
