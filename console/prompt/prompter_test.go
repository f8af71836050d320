package prompt

import (
	"os"
	"strings"
	"testing"
)

func withStdin(t *testing.T, input string) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.WriteString(input); err != nil {
		t.Fatal(err)
	}
	w.Close()

	original := os.Stdin
	os.Stdin = r
	t.Cleanup(func() { os.Stdin = original })
}

func TestPromptInput(t *testing.T) {
	withStdin(t, "test input\n")
	p := NewTerminalPrompter()

	got, err := p.PromptInput("Enter something: ")
	if err != nil {
		t.Fatal(err)
	}
	if want := "test input"; got != want {
		t.Errorf("PromptInput() = %q, want %q", got, want)
	}
}

func TestPromptPasswordFallsBackWhenNotATerminal(t *testing.T) {
	withStdin(t, "secret\n")
	p := NewTerminalPrompter()

	got, err := p.PromptPassword("Enter password: ")
	if err != nil {
		t.Fatal(err)
	}
	if want := "secret"; got != want {
		t.Errorf("PromptPassword() = %q, want %q", got, want)
	}
}

func TestPromptConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"yes\n", true},
		{"Y\n", true},
		{"n\n", false},
		{"\n", false},
	}
	for _, test := range tests {
		t.Run(strings.TrimSpace(test.input), func(t *testing.T) {
			withStdin(t, test.input)
			p := NewTerminalPrompter()

			got, err := p.PromptConfirm("Do you confirm?")
			if err != nil {
				t.Fatal(err)
			}
			if got != test.want {
				t.Errorf("PromptConfirm() = %v, want %v", got, test.want)
			}
		})
	}
}
