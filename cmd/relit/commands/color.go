package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\x1b[0m"
	ansiYellow = "\x1b[33m"
	ansiGreen  = "\x1b[32m"
)

// palette colors diagnostics when they go to a terminal.
type palette struct {
	enabled bool
}

func newPalette(w io.Writer) palette {
	// NO_COLOR convention: https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return palette{}
	}
	f, ok := w.(*os.File)
	if !ok {
		return palette{}
	}
	return palette{enabled: isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())}
}

func (p palette) paint(color, s string) string {
	if !p.enabled {
		return s
	}
	return color + s + ansiReset
}

func (p palette) warn(s string) string {
	return p.paint(ansiYellow, s)
}

// count renders "n noun(s)", highlighted when n is positive.
func (p palette) count(n int, noun string) string {
	s := fmt.Sprintf("%d %s(s)", n, noun)
	if n > 0 {
		return p.paint(ansiGreen, s)
	}
	return s
}
