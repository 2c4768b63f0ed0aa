// Package diag renders Karm errors for humans: the error line followed by
// an excerpt of the offending source line with a caret under the column.
package diag

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"karmlang/karm/internal/config"
	"karmlang/karm/karmerr"
)

const (
	red   = "\x1b[31m"
	bold  = "\x1b[1m"
	reset = "\x1b[0m"
)

// UseColor decides whether output written to f should be colored. NO_COLOR
// disables color even when mode is always.
func UseColor(mode string, f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Renderer writes diagnostics for one source file.
type Renderer struct {
	w     io.Writer
	color bool
}

func NewRenderer(w io.Writer, color bool) *Renderer {
	return &Renderer{w: w, color: color}
}

// Render writes err. file names the source in the header and src is its
// text, used for the excerpt. A MultiError is rendered one error at a time.
func (r *Renderer) Render(file, src string, err error) {
	var multi *karmerr.MultiError
	if errors.As(err, &multi) {
		for _, e := range multi.Errors {
			r.Render(file, src, e)
		}
		return
	}

	var ke karmerr.KarmError
	if !errors.As(err, &ke) {
		r.header(file, err.Error())
		return
	}

	line, col := ke.Position()
	if line > 0 {
		r.header(fmt.Sprintf("%s:%d:%d", file, line, col), ke.Error())
	} else {
		r.header(file, ke.Error())
	}
	r.excerpt(src, line, col)
}

func (r *Renderer) header(where, msg string) {
	if r.color {
		fmt.Fprintf(r.w, "%s%s:%s %s%serror:%s %s\n", bold, where, reset, bold, red, reset, msg)
		return
	}
	fmt.Fprintf(r.w, "%s: error: %s\n", where, msg)
}

func (r *Renderer) excerpt(src string, line, col int) {
	lines := strings.Split(src, "\n")
	if line < 1 || line > len(lines) {
		return
	}
	text := strings.TrimRight(lines[line-1], "\r")

	fmt.Fprintf(r.w, "%3d | %s\n", line, text)

	caret := "^"
	if r.color {
		caret = red + caret + reset
	}
	fmt.Fprintf(r.w, "    | %s%s\n", padding(text, col-1), caret)
}

// padding returns whitespace as wide as the first n bytes of text. Tabs
// are kept so the caret lines up in the terminal.
func padding(text string, n int) string {
	if n < 0 {
		n = 0
	}
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i < len(text) && text[i] == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}
