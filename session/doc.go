// Copyright 2018-2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package session runs the process behind an SSH channel, i.e. the
// command or shell a client asked for, and moves bytes between it and
// the channel.
//
// New(mode, dir, command, env) creates a Session. Sessions are very
// similar to exec.Cmd, providing Stdin, Stdout and Stderr, which are
// usually the SSH channel. In Batch mode the command is run with
// `sh -c` and its stdout and stderr are kept apart. In Interactive mode
// a shell is started and, since there is usually no pty to give it on
// a phone, a Terminal does the line discipline: it echoes what the
// user types, handles backspace and ^C, and adds a prompt after output.
// UsePTY asks for a real pty instead, falling back to the Terminal if
// none can be opened.
//
// The shell is whatever shell.Locator finds. If nothing works the
// client is told so and the session exits 127 (batch) or 1
// (interactive). The exit code is delivered exactly once, to the
// OnExit function and to Wait.
package session
