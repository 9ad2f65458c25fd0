package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetOutput redirects console helpers; tests use it to capture output.
func SetOutput(out, errOut io.Writer) {
	stdout, stderr = out, errOut
}

// SetColorForcing overrides terminal detection.
func SetColorForcing(force, disable bool) {
	switch {
	case disable:
		lipgloss.SetColorProfile(termenv.Ascii)
	case force:
		lipgloss.SetColorProfile(termenv.ANSI256)
	}
}

func OK(msg string) { fmt.Fprintln(stdout, current.Success.Render(current.SymOK+" "+msg)) }
func Fail(msg string) {
	fmt.Fprintln(stderr, current.Error.Render(current.SymFail+" "+msg))
}

// Hint prints a muted line on stderr.
func Hint(msg string) { fmt.Fprintln(stderr, current.Muted.Render(msg)) }

// Println writes a plain line to stdout.
func Println(a ...any) { fmt.Fprintln(stdout, a...) }

// TermWidth is the stdout width, 80 when it is not a terminal.
func TermWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// Truncate shortens s to w cells, keeping ANSI sequences intact.
func Truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	return ansi.Truncate(s, w, "…")
}
