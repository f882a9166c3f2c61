// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package shell finds a working shell.
//
// On a phone, /bin/sh often does not exist, and a shell that does exist
// may not run (missing linker, SELinux denial). Find walks a fixed list
// of candidates, does a cheap existence and permission check, then
// runs a canary command and takes the first shell that exits 0.
package shell

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// Candidates is the default search order, most likely first on
// Android, then generic Unix, then whatever sh is in $PATH.
var Candidates = []string{
	"/system/bin/sh",
	"/system/xbin/sh",
	"/vendor/bin/sh",
	"/bin/sh",
	"sh",
}

// DefaultTimeout bounds each canary run.
const DefaultTimeout = 5 * time.Second

var v = func(string, ...interface{}) {}

// SetVerbose sets the debug print function.
func SetVerbose(f func(string, ...interface{})) {
	v = f
}

// Locator finds a working shell among Candidates.
type Locator struct {
	Candidates []string
	Timeout    time.Duration
	// Canary is passed to each candidate as arguments.
	Canary []string
}

// New returns a Locator with the default candidates and canary.
func New() *Locator {
	return &Locator{
		Candidates: Candidates,
		Timeout:    DefaultTimeout,
		Canary:     []string{"-c", "echo test"},
	}
}

// executable checks that path names an executable regular file.
// Names without a slash are looked up in $PATH.
func executable(path string) error {
	if filepath.Base(path) == path {
		_, err := exec.LookPath(path)
		return err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !fi.Mode().IsRegular() {
		return errors.New("not a regular file")
	}
	return unix.Access(path, unix.X_OK)
}

// canary runs the canary command under l.Timeout. The process is
// killed if the timeout expires.
func (l *Locator) canary(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, l.Timeout)
	defer cancel()
	c := exec.CommandContext(ctx, path, l.Canary...)
	c.WaitDelay = time.Second
	out, err := c.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return ctx.Err()
	}
	if err != nil {
		v("shell: %s: %v (output %q)", path, err, out)
	}
	return err
}

// Find returns the first candidate that passes both checks. It returns
// false, not an error, when nothing works; the caller decides what to
// tell the user.
func (l *Locator) Find(ctx context.Context) (string, bool) {
	for _, p := range l.Candidates {
		if err := executable(p); err != nil {
			v("shell: %s: %v", p, err)
			continue
		}
		if err := l.canary(ctx, p); err != nil {
			v("shell: %s failed the canary: %v", p, err)
			continue
		}
		v("shell: using %s", p)
		return p, true
	}
	v("shell: none of %q works", l.Candidates)
	return "", false
}
