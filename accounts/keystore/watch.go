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
	"os"
	"time"

	"github.com/ethaccounts/provider/log"
	"github.com/fsnotify/fsnotify"
)

// watcher debounces fsnotify events on a key directory into reload() calls
// on the owning addrCache, so a burst of filesystem writes (as produced by
// a fresh `geth account import` batch) triggers at most one rescan.
type watcher struct {
	ac       *addrCache
	starting bool
	running  bool
	ev       chan fsnotify.Event
}

func newWatcher(ac *addrCache) *watcher {
	return &watcher{ac: ac}
}

// start starts the watcher loop in the background. Errors are logged, not
// returned: a missing or unreadable directory degrades to "no live reload",
// not a hard failure, matching the semantics of account enumeration before
// any account has ever been created.
func (w *watcher) start() {
	if w.starting || w.running {
		return
	}
	w.starting = true
	go w.loop()
}

func (w *watcher) close() {
	// close does nothing: there is no stop signal, so a loop() that has
	// started keeps running, with its fsnotify.Watcher open, until fsnotify
	// itself closes the event or error channel.
}

func (w *watcher) loop() {
	defer func() {
		w.ac.mu.Lock()
		w.running = false
		w.starting = false
		w.ac.mu.Unlock()
	}()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("Failed to start filesystem watcher", "err", err)
		return
	}
	defer fw.Close()
	if err := fw.Add(w.ac.keydir); err != nil {
		if !os.IsNotExist(err) {
			log.Warn("Failed to watch keystore directory", "err", err)
		}
		return
	}

	log.Trace("Started watching keystore folder", "path", w.ac.keydir)
	defer log.Trace("Stopped watching keystore folder", "path", w.ac.keydir)

	w.ac.mu.Lock()
	w.running = true
	w.starting = false
	w.ac.mu.Unlock()

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case _, ok := <-fw.Events:
			if !ok {
				return
			}
			debounce.Reset(50 * time.Millisecond)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			log.Info("Notifications error", "err", err)
		case <-debounce.C:
			w.ac.mu.Lock()
			w.ac.reload()
			w.ac.mu.Unlock()
		}
	}
}
