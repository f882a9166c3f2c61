// Copyright 2018-2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build unix

package session

import (
	"errors"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// exitCode turns the result of Wait into a shell style exit code:
// the status if the child exited, 128+signal if it was killed.
func exitCode(err error, st *os.ProcessState) int {
	// Someone else, e.g. an init reaping orphans, got the status first.
	if errors.Is(err, unix.ECHILD) {
		return 0
	}
	if st == nil {
		if err == nil {
			return 0
		}
		return ExitFailure
	}
	if ws, ok := st.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	if c := st.ExitCode(); c >= 0 {
		return c
	}
	return ExitFailure
}

// killGroup kills p and the rest of its process group. Children of
// the shell have to go too, or they would hold its pipes open.
func killGroup(p *os.Process) {
	if err := unix.Kill(-p.Pid, unix.SIGKILL); err != nil {
		verbose("kill group %d: %v", p.Pid, err)
		if err := p.Kill(); err != nil {
			verbose("kill %d: %v", p.Pid, err)
		}
	}
}
