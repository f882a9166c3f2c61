// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"
)

const (
	defaultCols = 80
	defaultRows = 24
	// Host is the host name shown in the prompt.
	Host = "android"
)

// TermSize returns the terminal size from COLUMNS and LINES in env,
// 80x24 for anything missing or not a positive number.
func TermSize(env []string) (cols, rows int) {
	get := func(k string, def int) int {
		n, err := strconv.Atoi(Getenv(env, k))
		if err != nil || n <= 0 {
			return def
		}
		return n
	}
	return get("COLUMNS", defaultCols), get("LINES", defaultRows)
}

// State is where a Terminal is in handling child output.
type State int

const (
	// Accumulating is waiting for output.
	Accumulating State = iota
	// LineReady has a complete line buffered.
	LineReady
	// PromptPending has written a line and owes the user a prompt.
	PromptPending
)

func (s State) String() string {
	switch s {
	case Accumulating:
		return "Accumulating"
	case LineReady:
		return "LineReady"
	case PromptPending:
		return "PromptPending"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type event int

const (
	evPartial event = iota // output without a trailing newline
	evLine                 // output ending in a newline
	evBlank                // the buffered line was dropped
	evEmitted              // the buffered line was written
	evPrompt               // the prompt was written
)

var transitions = map[State]map[event]State{
	Accumulating:  {evPartial: Accumulating, evLine: LineReady},
	LineReady:     {evBlank: Accumulating, evEmitted: PromptPending},
	PromptPending: {evPrompt: Accumulating},
}

// Input is what a Terminal made of a chunk of client input.
type Input struct {
	// Echo goes back to the client.
	Echo []byte
	// Forward goes to the child's stdin.
	Forward []byte
	// EOF is set for ^D on an empty line. The child's stdin should
	// be closed after Forward is written.
	EOF bool
}

// Terminal is a line discipline for a shell that has no tty. It echoes
// and edits input until a line is complete, and puts a prompt after
// output, since the shell was told not to print one.
type Terminal struct {
	mu    sync.Mutex
	cols  int
	rows  int
	user  string
	root  string
	cwd   string
	state State
	buf   []byte
	line  []byte
	sawCR bool
}

// NewTerminal returns a Terminal sized from env. root is the directory
// shown as ~ in the prompt; the terminal starts there.
func NewTerminal(env []string, user, root string) *Terminal {
	if user == "" {
		user = "android"
	}
	cols, rows := TermSize(env)
	return &Terminal{cols: cols, rows: rows, user: user, root: root, cwd: root}
}

// Size returns the terminal size.
func (t *Terminal) Size() (cols, rows int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cols, t.rows
}

// Resize sets the terminal size. Sizes that are not positive are
// ignored.
func (t *Terminal) Resize(cols, rows int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cols > 0 && rows > 0 {
		t.cols, t.rows = cols, rows
	}
}

// State returns the output state.
func (t *Terminal) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Terminal) step(e event) {
	next, ok := transitions[t.state][e]
	if !ok {
		verbose("terminal: no transition from %v on event %d, resetting", t.state, e)
		next = Accumulating
	}
	t.state = next
}

// Prompt returns the prompt, e.g. user@android:~$ in color.
func (t *Terminal) Prompt() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.prompt()
}

func (t *Terminal) prompt() string {
	return Green + t.user + Reset + "@" + Cyan + Host + Reset + ":" + Blue + displayDir(t.cwd, t.root) + Reset + "$ "
}

func displayDir(cwd, root string) string {
	switch {
	case cwd == root:
		return "~"
	case root != "/" && strings.HasPrefix(cwd, root+"/"):
		return "~" + cwd[len(root):]
	}
	return cwd
}

// Banner is written when an interactive session starts.
func (t *Terminal) Banner() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	var b bytes.Buffer
	b.WriteString(Colorize(Cyan, "Android SSH Shell") + "\r\n")
	b.WriteString("Current directory: " + t.cwd + "\r\n")
	b.WriteString(t.prompt())
	return b.Bytes()
}

// Input runs client input through the line discipline.
func (t *Terminal) Input(p []byte) Input {
	t.mu.Lock()
	defer t.mu.Unlock()
	var in Input
	for _, c := range p {
		if c == '\n' && t.sawCR {
			t.sawCR = false
			continue
		}
		t.sawCR = c == '\r'
		switch c {
		case '\r', '\n':
			in.Echo = append(in.Echo, "\r\n"...)
			in.Forward = append(in.Forward, t.line...)
			in.Forward = append(in.Forward, '\n')
			t.line = t.line[:0]
		case '\b', 0x7f:
			if len(t.line) == 0 {
				continue
			}
			_, n := utf8.DecodeLastRune(t.line)
			t.line = t.line[:len(t.line)-n]
			in.Echo = append(in.Echo, "\b \b"...)
		case 0x03:
			t.line = t.line[:0]
			in.Echo = append(in.Echo, "^C\r\n"...)
			in.Echo = append(in.Echo, t.prompt()...)
		case 0x04:
			if len(t.line) == 0 {
				in.EOF = true
				return in
			}
			// As on a tty, ^D on a non-empty line sends it without a newline.
			in.Forward = append(in.Forward, t.line...)
			t.line = t.line[:0]
		default:
			t.line = append(t.line, c)
			in.Echo = append(in.Echo, c)
		}
	}
	return in
}

// Output turns child output into what the client should see.
func (t *Terminal) Output(p []byte) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	defer func() { t.buf = t.buf[:0] }()

	if !bytes.HasSuffix(t.buf, []byte{'\n'}) {
		t.step(evPartial)
		return crlf(nil, t.buf)
	}

	t.step(evLine)
	var out []byte
	if s := strings.TrimSpace(string(t.buf)); s == "" || s == "$" {
		t.step(evBlank)
		return out
	}
	out = crlf(out, t.buf)
	t.step(evEmitted)
	out = append(out, t.prompt()...)
	t.step(evPrompt)
	return out
}

// crlf appends src to dst with each bare LF turned into CRLF.
func crlf(dst, src []byte) []byte {
	for i, c := range src {
		if c == '\n' && (i == 0 || src[i-1] != '\r') {
			dst = append(dst, '\r')
		}
		dst = append(dst, c)
	}
	return dst
}

// FormatPermissions returns Unix style permissions for the owner bits
// given, e.g. drwxr--r--. Group and other are always r--.
func FormatPermissions(dir, r, w, x bool) string {
	b := []byte("----r--r--")
	for i, set := range []bool{dir, r, w, x} {
		if set {
			b[i] = "drwx"[i]
		}
	}
	return string(b)
}

// FormatFileSize returns n as B, KB, MB or GB, with one decimal for
// the larger units.
func FormatFileSize(n int64) string {
	const k = 1024
	switch {
	case n < k:
		return fmt.Sprintf("%d B", n)
	case n < k*k:
		return fmt.Sprintf("%.1f KB", float64(n)/k)
	case n < k*k*k:
		return fmt.Sprintf("%.1f MB", float64(n)/(k*k))
	}
	return fmt.Sprintf("%.1f GB", float64(n)/(k*k*k))
}
