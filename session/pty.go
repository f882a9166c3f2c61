// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import (
	"os"
	"os/exec"

	"github.com/creack/pty"
)

func setPTYSize(f *os.File, cols, rows int) error {
	return pty.Setsize(f, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
}

// startPTY starts c on a new pty. The shell then does its own echo
// and prompt, so the Terminal only tracks the size.
func (s *Session) startPTY(c *exec.Cmd) error {
	// pty makes the child a session leader, which is also a process
	// group leader; asking for Setpgid on top of that fails.
	c.SysProcAttr = sysProcAttr()
	c.SysProcAttr.Setpgid = false
	f, err := pty.StartWithSize(c, &pty.Winsize{Cols: uint16(s.cols), Rows: uint16(s.rows)})
	if err != nil {
		return err
	}
	s.cmd = c
	s.ptmx = f
	s.in = &lockedWriter{w: f}

	go s.inputPump(ttyBufSize)
	s.pumps.Add(1)
	go s.pump("pty", s.out, f, ttyBufSize, nil)
	return nil
}
