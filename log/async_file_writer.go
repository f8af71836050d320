// Copyright 2023 The go-ethereum Authors
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

package log

import (
	"bytes"
	"os"
	"sync"
)

// fileWriter appends to a log file, remembering how many lines it already
// contains so a handler can decide when to roll over to a new file.
type fileWriter struct {
	f     *os.File
	count int
}

// prepFile opens path for appending, creating it if necessary, and counts the
// newlines already present so a caller resuming a previous run knows where it
// left off.
func prepFile(path string) (*fileWriter, error) {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &fileWriter{f: f, count: bytes.Count(existing, []byte{'\n'})}, nil
}

func (w *fileWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	w.count += bytes.Count(p[:n], []byte{'\n'})
	return n, err
}

func (w *fileWriter) Close() error {
	return w.f.Close()
}

// AsyncFileWriter buffers writes in a channel and flushes them to path on a
// background goroutine, so that logging never blocks the caller on disk I/O.
type AsyncFileWriter struct {
	path  string
	queue chan []byte
	done  chan struct{}
	wg    sync.WaitGroup
}

// NewAsyncFileWriter returns a writer that appends to path. queueSize bounds
// how many pending writes may be buffered before Write starts blocking.
func NewAsyncFileWriter(path string, queueSize int) *AsyncFileWriter {
	return &AsyncFileWriter{
		path:  path,
		queue: make(chan []byte, queueSize),
		done:  make(chan struct{}),
	}
}

// Start launches the background flush goroutine.
func (w *AsyncFileWriter) Start() {
	w.wg.Add(1)
	go w.loop()
}

func (w *AsyncFileWriter) loop() {
	defer w.wg.Done()
	fw, err := prepFile(w.path)
	if err != nil {
		// Drain the queue so Write never blocks forever even if the file
		// could not be opened, until Stop is called.
		for {
			select {
			case <-w.queue:
			case <-w.done:
				return
			}
		}
	}
	defer fw.Close()
	for {
		select {
		case p, ok := <-w.queue:
			if !ok {
				return
			}
			fw.Write(p)
		case <-w.done:
			for {
				select {
				case p := <-w.queue:
					fw.Write(p)
				default:
					return
				}
			}
		}
	}
}

// Write enqueues p for writing. The slice is copied, so the caller's buffer
// may be reused immediately.
func (w *AsyncFileWriter) Write(p []byte) (int, error) {
	cp := make([]byte, len(p))
	copy(cp, p)
	w.queue <- cp
	return len(p), nil
}

// Stop flushes any queued writes and waits for the background goroutine to exit.
func (w *AsyncFileWriter) Stop() {
	close(w.done)
	w.wg.Wait()
}
