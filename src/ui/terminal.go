package ui

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/jinjor/signal-control/src/controller"
)

// ErrQuit is returned by Terminal.Run when the operator asks to quit.
var ErrQuit = errors.New("quit requested")

// ErrNotTerminal is returned by Terminal.Run when stdin is not a terminal.
var ErrNotTerminal = errors.New("stdin is not a terminal")

const (
	coarseStep = MaxValue / 64
	fineStep   = MaxValue / 1024
)

const helpLine = "p/c/o: mode  +/-: coarse  arrows: fine  x: dismiss error  q: quit"

// Terminal drives a Panel from the keyboard and draws it on one status line.
type Terminal struct {
	panel *Panel
	in    *os.File
	out   io.Writer
	mu    sync.Mutex // guards last and writes to the screen
	last  string
}

// NewTerminal ...
func NewTerminal(panel *Panel, in *os.File, out io.Writer) *Terminal {
	return &Terminal{panel: panel, in: in, out: out}
}

// handleKeys applies one read worth of raw keyboard input. It reports whether
// the operator asked to quit.
func handleKeys(p *Panel, in []byte) bool {
	for i := 0; i < len(in); i++ {
		switch in[i] {
		case 'q', 'Q', 0x03, 0x04:
			return true
		case 'p', 'P', '1':
			p.Select(controller.Paused)
		case 'c', 'C', '2':
			p.Select(controller.Constant)
		case 'o', 'O', '3':
			p.Select(controller.Oscillating)
		case '+', '=':
			p.Nudge(coarseStep)
		case '-', '_':
			p.Nudge(-coarseStep)
		case 'x', 'X':
			p.ClearError()
		case 0x1b:
			if i+2 < len(in) && in[i+1] == '[' {
				switch in[i+2] {
				case 'A', 'C':
					p.Nudge(fineStep)
				case 'B', 'D':
					p.Nudge(-fineStep)
				}
				i += 2
			}
		}
	}
	return false
}

func renderLine(v View) string {
	var b strings.Builder
	for i, s := range Selections {
		if i > 0 {
			b.WriteString(" ")
		}
		name := strings.ToUpper(s.String()[:1]) + s.String()[1:]
		if s == v.Selection {
			fmt.Fprintf(&b, "[%s]", name)
		} else {
			fmt.Fprintf(&b, " %s ", name)
		}
	}
	if v.Label != "" {
		b.WriteString(" | ")
		b.WriteString(v.Label)
	}
	if v.Err != nil {
		fmt.Fprintf(&b, " | Error: %v (x to dismiss)", v.Err)
	}
	return b.String()
}

func (t *Terminal) render() {
	line := renderLine(t.panel.View())
	t.mu.Lock()
	defer t.mu.Unlock()
	if line == t.last {
		return
	}
	t.last = line
	// raw mode: no implicit carriage return
	fmt.Fprintf(t.out, "\r\x1b[K%s", line)
}

// leave moves below the status line and stops redrawing it.
func (t *Terminal) leave() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = ""
	fmt.Fprint(t.out, "\r\n")
}

// ----- Log output ----- //

type logWriter struct {
	t *Terminal
	w io.Writer
}

// LogWriter returns a writer for log output sharing the screen with t. Each
// write clears the status line, prints the text with raw-mode line endings
// and redraws the status line below it.
func (t *Terminal) LogWriter(w io.Writer) io.Writer {
	return &logWriter{t: t, w: w}
}

func (l *logWriter) Write(p []byte) (int, error) {
	l.t.mu.Lock()
	defer l.t.mu.Unlock()
	text := bytes.ReplaceAll(bytes.TrimSuffix(p, []byte("\n")), []byte("\n"), []byte("\r\n"))
	buf := make([]byte, 0, len(text)+8)
	buf = append(buf, "\r\x1b[K"...)
	buf = append(buf, text...)
	buf = append(buf, "\r\n"...)
	if _, err := l.w.Write(buf); err != nil {
		return 0, err
	}
	if l.t.last != "" {
		fmt.Fprint(l.t.out, l.t.last)
	}
	return len(p), nil
}
