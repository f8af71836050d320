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

package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"testing"
	"text/template"
	"time"
)

func tmpdir(t *testing.T) string {
	return t.TempDir()
}

type testCLI struct {
	*testing.T
	Datadir    string
	Executable string
	Func       template.FuncMap

	cmd    *exec.Cmd
	stdout *bufio.Reader
	stdin  io.WriteCloser
	stderr *testlogger
}

func init() {
	// Run the real app if we're the re-exec'd child process for runCLI.
	if os.Getenv("ACCOUNTCTL_TEST_CHILD") != "" {
		if err := cliApp.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}
}

// runCLI spawns accountctl (by re-exec'ing the test binary) with the given
// arguments, pointed at a fresh keystore directory unless --config is given.
func runCLI(t *testing.T, args ...string) *testCLI {
	tt := &testCLI{T: t, Executable: os.Args[0]}
	tt.Datadir = tmpdir(t)

	configPath := writeConfig(t, tt.Datadir)
	args = append([]string{"--config", configPath, "--no-hardware"}, args...)

	tt.stderr = &testlogger{t: t}
	tt.cmd = exec.Command(os.Args[0], args...)
	tt.cmd.Env = append(os.Environ(), "ACCOUNTCTL_TEST_CHILD=1")
	tt.cmd.Stderr = tt.stderr

	stdout, err := tt.cmd.StdoutPipe()
	if err != nil {
		t.Fatal(err)
	}
	tt.stdout = bufio.NewReader(stdout)
	if tt.stdin, err = tt.cmd.StdinPipe(); err != nil {
		t.Fatal(err)
	}
	if err := tt.cmd.Start(); err != nil {
		t.Fatal(err)
	}
	return tt
}

func writeConfig(t *testing.T, datadir string) string {
	path := datadir + "/accountctl.toml"
	body := fmt.Sprintf("[keystore]\ndir = %q\nlight = true\n", datadir+"/keystore")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// InputLine writes the given text to the child's stdin. Usable from an
// Expect template, e.g. tt.Expect(`Password: {{.InputLine "secret"}}`).
func (tt *testCLI) InputLine(s string) string {
	io.WriteString(tt.stdin, s+"\n")
	return ""
}

// Expect runs its argument as a template, then expects the child process to
// produce that output on stdout within a few seconds.
func (tt *testCLI) Expect(tplsource string) {
	tpl := template.Must(template.New("").Funcs(tt.Func).Parse(tplsource))
	wantbuf := new(bytes.Buffer)
	if err := tpl.Execute(wantbuf, tt); err != nil {
		panic(err)
	}
	want := bytes.TrimPrefix(wantbuf.Bytes(), []byte("\n"))
	if err := tt.matchExactOutput(want); err != nil {
		tt.Fatal(err)
	}
}

func (tt *testCLI) matchExactOutput(want []byte) error {
	buf := make([]byte, len(want))
	n := 0
	tt.withKillTimeout(func() { n, _ = io.ReadFull(tt.stdout, buf) })
	buf = buf[:n]
	if n < len(want) || !bytes.Equal(buf, want) {
		buf = append(buf, make([]byte, tt.stdout.Buffered())...)
		tt.stdout.Read(buf[n:])
		for i := 0; i < n && i < len(want); i++ {
			if want[i] != buf[i] {
				return fmt.Errorf("output mismatch at byte %d:\n---- got ----\n%s\n---- want ----\n%s", i, buf, want)
			}
		}
		return fmt.Errorf("not enough output, got:\n%s\nwant:\n%s", buf, want)
	}
	return nil
}

func (tt *testCLI) ExpectExit() {
	var output []byte
	tt.withKillTimeout(func() {
		output, _ = io.ReadAll(tt.stdout)
	})
	tt.cmd.Wait()
	if len(output) > 0 {
		tt.Errorf("unmatched stdout text:\n%s", output)
	}
}

func (tt *testCLI) StderrText() string {
	tt.stderr.mu.Lock()
	defer tt.stderr.mu.Unlock()
	return tt.stderr.buf.String()
}

func (tt *testCLI) withKillTimeout(fn func()) {
	timeout := time.AfterFunc(5*time.Second, func() {
		tt.Log("killing the child process (timeout)")
		tt.cmd.Process.Kill()
	})
	defer timeout.Stop()
	fn()
}

type testlogger struct {
	t   *testing.T
	mu  sync.Mutex
	buf bytes.Buffer
}

func (tl *testlogger) Write(b []byte) (n int, err error) {
	tl.mu.Lock()
	tl.buf.Write(b)
	tl.mu.Unlock()
	return len(b), nil
}
