// Package console is the terminal side of a planning run: prompts, narration and rendering.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"
)

// ErrInputClosed is returned when the user ends input with Ctrl+C or Ctrl+D.
var ErrInputClosed = errors.New("input closed")

// Prompter reads one line of user input.
type Prompter interface {
	Prompt(prompt string) (string, error)
}

// LinePrompter reads from the terminal with line editing and in-session history.
type LinePrompter struct {
	line *liner.State
}

// NewLinePrompter takes over the terminal until Close is called.
func NewLinePrompter() *LinePrompter {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	return &LinePrompter{line: line}
}

func (p *LinePrompter) Prompt(prompt string) (string, error) {
	input, err := p.line.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return "", ErrInputClosed
		}
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		p.line.AppendHistory(input)
	}
	return input, nil
}

// Close restores the terminal.
func (p *LinePrompter) Close() error {
	return p.line.Close()
}

// NewPrompter returns a LinePrompter when in is an interactive terminal liner can
// drive, and a ReaderPrompter otherwise. The returned func releases the terminal.
func NewPrompter(in *os.File, out io.Writer) (Prompter, func() error) {
	if liner.TerminalSupported() && term.IsTerminal(int(in.Fd())) {
		lp := NewLinePrompter()
		return lp, lp.Close
	}
	return NewReaderPrompter(in, out), func() error { return nil }
}

// IsTerminal reports whether f is a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ReaderPrompter reads lines from r and echoes prompts to w. Used when stdin is not a terminal.
type ReaderPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewReaderPrompter(r io.Reader, w io.Writer) *ReaderPrompter {
	return &ReaderPrompter{in: bufio.NewReader(r), out: w}
}

func (p *ReaderPrompter) Prompt(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrInputClosed
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
