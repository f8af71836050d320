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

// Package prompt implements reading passwords and plain input from a
// terminal, falling back to echoed plain-text reads when stdin is not a
// terminal (piped input, CI, the "Unsupported terminal" path).
package prompt

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// UserPrompter is the interface accountctl uses to interact with an operator.
type UserPrompter interface {
	PromptInput(prompt string) (string, error)
	PromptPassword(prompt string) (string, error)
	PromptConfirm(prompt string) (bool, error)
}

// terminalPrompter reads from os.Stdin, using a real terminal's raw mode for
// passwords when available.
type terminalPrompter struct {
	r *bufio.Reader
}

// NewTerminalPrompter returns a UserPrompter bound to the process's stdin.
func NewTerminalPrompter() UserPrompter {
	return &terminalPrompter{r: bufio.NewReader(os.Stdin)}
}

func (p *terminalPrompter) PromptInput(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := p.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PromptPassword reads a password without echoing it when stdin is a real
// terminal. Otherwise it warns and falls back to an echoed plain read, the
// same degraded path geth takes under "--stdio" or test harnesses.
func (p *terminalPrompter) PromptPassword(prompt string) (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Print(prompt)
		buf, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(buf), nil
	}
	fmt.Println("!! Unsupported terminal, password will be echoed.")
	line, err := p.PromptInput(prompt)
	fmt.Println()
	return line, err
}

func (p *terminalPrompter) PromptConfirm(prompt string) (bool, error) {
	answer, err := p.PromptInput(prompt + " [y/N] ")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
