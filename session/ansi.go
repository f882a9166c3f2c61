// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import "fmt"

// ANSI escape sequences.
const (
	Reset       = "\x1b[0m"
	ClearScreen = "\x1b[2J\x1b[H"
	ClearLine   = "\x1b[2K"
	CursorUp    = "\x1b[A"
	CursorDown  = "\x1b[B"
	CursorRight = "\x1b[C"
	CursorLeft  = "\x1b[D"

	Black   = "\x1b[30m"
	Red     = "\x1b[31m"
	Green   = "\x1b[32m"
	Yellow  = "\x1b[33m"
	Blue    = "\x1b[34m"
	Magenta = "\x1b[35m"
	Cyan    = "\x1b[36m"
	White   = "\x1b[37m"

	BrightBlack   = "\x1b[90m"
	BrightRed     = "\x1b[91m"
	BrightGreen   = "\x1b[92m"
	BrightYellow  = "\x1b[93m"
	BrightBlue    = "\x1b[94m"
	BrightMagenta = "\x1b[95m"
	BrightCyan    = "\x1b[96m"
	BrightWhite   = "\x1b[97m"

	Bold      = "\x1b[1m"
	Dim       = "\x1b[2m"
	Underline = "\x1b[4m"
	Blink     = "\x1b[5m"
	Reverse   = "\x1b[7m"

	SaveCursor    = "\x1b[s"
	RestoreCursor = "\x1b[u"
	HideCursor    = "\x1b[?25l"
	ShowCursor    = "\x1b[?25h"

	AltScreenOn  = "\x1b[?1049h"
	AltScreenOff = "\x1b[?1049l"
)

// MoveCursor moves the cursor to row and col, counting from 1.
func MoveCursor(row, col int) string {
	return fmt.Sprintf("\x1b[%d;%dH", row, col)
}

// CursorBy moves the cursor n cells in direction dir, which is one of
// CursorUp, CursorDown, CursorRight or CursorLeft.
func CursorBy(dir string, n int) string {
	return fmt.Sprintf("\x1b[%d%s", n, dir[len(dir)-1:])
}

// Colorize wraps s in color and Reset.
func Colorize(color, s string) string {
	return color + s + Reset
}
