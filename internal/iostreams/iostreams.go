package iostreams

import (
	"bytes"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

var osStreams *IOStreams

type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// Empty type to represent the _type_ IOStreams . Genesis is to support a key in a Context
type Key struct{}

// StreamsKey is a global instance of the Key type
var StreamsKey = Key{}

// Get a singleton instance of the OS IOStreams
func GetOSIOStreams() *IOStreams {
	if osStreams == nil {
		osStreams = &IOStreams{
			In:     os.Stdin,
			Out:    os.Stdout,
			ErrOut: os.Stderr,
		}
	}
	return osStreams
}

func NewTestIOStreams() (IOStreams, *bytes.Buffer, *bytes.Buffer, *bytes.Buffer) {
	in := &bytes.Buffer{}
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return IOStreams{
		In:     in,
		Out:    out,
		ErrOut: errOut,
	}, in, out, errOut
}

// fdWriter matches *os.File and other writers backed by a file descriptor.
type fdWriter interface {
	Fd() uintptr
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w any) bool {
	f, ok := w.(fdWriter)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// IsInteractive reports whether both input and output of s are terminals.
func (s *IOStreams) IsInteractive() bool {
	return IsTerminal(s.In) && IsTerminal(s.Out)
}

// TerminalWidth returns the width of the terminal behind w, or fallback when
// w is not a terminal.
func TerminalWidth(w any, fallback int) int {
	f, ok := w.(fdWriter)
	if !ok {
		return fallback
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}
