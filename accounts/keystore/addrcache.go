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

package keystore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethaccounts/provider/accounts"
	"github.com/ethaccounts/provider/common"
)

// addrCache is a live, fsnotify-backed index over the keyfiles in one vault
// directory (Root or a named vault). It lets Accounts()/Find() answer
// without stat-ing the directory on every call.
type addrCache struct {
	keydir   string
	watcher  *watcher
	mu       sync.Mutex
	all      accountsByFile
	byAddr   map[common.Address][]accounts.Account
	throttle *time.Timer
	notify   chan struct{}
	fileC    fileCache
}

func newAddrCache(keydir string) *addrCache {
	ac := &addrCache{
		keydir: keydir,
		byAddr: make(map[common.Address][]accounts.Account),
		notify: make(chan struct{}, 1),
		fileC:  fileCache{all: make(map[string]struct{})},
	}
	ac.watcher = newWatcher(ac)
	return ac
}

func (ac *addrCache) accounts() []accounts.Account {
	ac.maybeReload()
	ac.mu.Lock()
	defer ac.mu.Unlock()
	cpy := make([]accounts.Account, len(ac.all))
	copy(cpy, ac.all)
	return cpy
}

func (ac *addrCache) hasAddress(addr common.Address) bool {
	ac.maybeReload()
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return len(ac.byAddr[addr]) > 0
}

func (ac *addrCache) add(newAccount accounts.Account) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	i := sort.Search(len(ac.all), func(i int) bool { return ac.all[i].URL.Path >= newAccount.URL.Path })
	if i < len(ac.all) && ac.all[i] == newAccount {
		return
	}
	ac.all = append(ac.all, accounts.Account{})
	copy(ac.all[i+1:], ac.all[i:])
	ac.all[i] = newAccount
	ac.byAddr[newAccount.Address] = append(ac.byAddr[newAccount.Address], newAccount)
}

// delete removes an account from the cache, ignoring any entry whose URL
// does not exist.
func (ac *addrCache) delete(removed accounts.Account) {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.all = removeAccount(ac.all, removed)
	if ba := removeAccount(ac.byAddr[removed.Address], removed); len(ba) == 0 {
		delete(ac.byAddr, removed.Address)
	} else {
		ac.byAddr[removed.Address] = ba
	}
}

func removeAccount(slice []accounts.Account, elem accounts.Account) []accounts.Account {
	for i := range slice {
		if slice[i] == elem {
			return append(slice[:i], slice[i+1:]...)
		}
	}
	return slice
}

// find resolves a partially-specified account (addr and/or URL) against the
// cache, returning ErrNoMatch or an AmbiguousAddrError.
func (ac *addrCache) find(a accounts.Account) (accounts.Account, error) {
	ac.maybeReload()
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if a.URL.Path != "" {
		if !filepath.IsAbs(a.URL.Path) {
			return accounts.Account{}, fmt.Errorf("invalid account URL %q", a.URL)
		}
		for i := range ac.all {
			if ac.all[i].URL == a.URL {
				return ac.all[i], nil
			}
		}
		if (a.Address == common.Address{}) {
			return accounts.Account{}, accounts.ErrNoMatch
		}
	}
	matches := ac.byAddr[a.Address]
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return accounts.Account{}, accounts.ErrNoMatch
	default:
		err := &accounts.AmbiguousAddrError{Addr: a.Address, Matches: make([]accounts.Account, len(matches))}
		copy(err.Matches, matches)
		sort.Sort(accountsByFile(err.Matches))
		return accounts.Account{}, err
	}
}

func (ac *addrCache) maybeReload() {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	if ac.watcher.running {
		return
	}
	ac.reload()
	ac.watcher.start()
}

func (ac *addrCache) close() {
	ac.mu.Lock()
	ac.watcher.close()
	if ac.throttle != nil {
		ac.throttle.Stop()
	}
	ac.mu.Unlock()
}

func (ac *addrCache) reload() {
	accs, err := ac.scan()
	if err != nil && accs == nil {
		return
	}
	ac.all = accs
	sort.Sort(ac.all)
	for k := range ac.byAddr {
		delete(ac.byAddr, k)
	}
	for _, a := range ac.all {
		ac.byAddr[a.Address] = append(ac.byAddr[a.Address], a)
	}
}

func (ac *addrCache) scan() ([]accounts.Account, error) {
	files, err := os.ReadDir(ac.keydir)
	if err != nil {
		return nil, err
	}
	var (
		buf    = new(bufio.Reader)
		result []accounts.Account
	)
	for _, fi := range files {
		path := filepath.Join(ac.keydir, fi.Name())
		if skipKeyFile(fi) {
			continue
		}
		fd, err := os.Open(path)
		if err != nil {
			continue
		}
		var keyJSON struct {
			Address string `json:"address"`
		}
		buf.Reset(fd)
		err = json.NewDecoder(buf).Decode(&keyJSON)
		fd.Close()
		if err != nil || !common.IsHexAddress(keyJSON.Address) {
			continue
		}
		result = append(result, accounts.Account{
			Address: common.HexToAddress(keyJSON.Address),
			URL:     accounts.URL{Scheme: KeyStoreScheme, Path: path},
		})
	}
	return result, err
}

func skipKeyFile(fi os.DirEntry) bool {
	if fi.IsDir() {
		return true
	}
	if strings.HasSuffix(fi.Name(), "~") || strings.HasPrefix(fi.Name(), ".") {
		return true
	}
	return false
}

type accountsByFile []accounts.Account

func (s accountsByFile) Len() int           { return len(s) }
func (s accountsByFile) Less(i, j int) bool { return s[i].URL.Path < s[j].URL.Path }
func (s accountsByFile) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// fileCache is kept minimal: only the watcher needs a previously-observed
// snapshot of directory entries to diff against.
type fileCache struct {
	all   map[string]struct{}
	mtime time.Time
}
