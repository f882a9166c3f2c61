// Copyright 2018-2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import (
	"os"
	"path/filepath"
	"strings"
)

var v = func(string, ...interface{}) {}

// SetVerbose sets the debug print function.
func SetVerbose(f func(string, ...interface{})) {
	v = f
}

func verbose(f string, a ...interface{}) {
	v("session:"+f, a...)
}

// PathDirs are put in front of the inherited PATH, after the session's
// own bin directory.
var PathDirs = []string{
	"/system/bin",
	"/system/xbin",
	"/vendor/bin",
	"/data/local/tmp",
	"/sbin",
	"/data/data/com.termux/files/usr/bin",
	"/data/data/com.sshdaemon/files/usr/bin",
}

// env is an environment that remembers the order variables were first
// set in.
type env struct {
	order []string
	vals  map[string]string
}

func (e *env) set(k, val string) {
	if _, ok := e.vals[k]; !ok {
		e.order = append(e.order, k)
	}
	e.vals[k] = val
}

func (e *env) setDefault(k, val string) {
	if e.vals[k] == "" {
		e.set(k, val)
	}
}

func (e *env) merge(kvs []string) {
	for _, kv := range kvs {
		k, val, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			verbose("env: ignoring %q", kv)
			continue
		}
		e.set(k, val)
	}
}

func (e *env) list() []string {
	l := make([]string, 0, len(e.order))
	for _, k := range e.order {
		l = append(l, k+"="+e.vals[k])
	}
	return l
}

// Getenv looks key up in an environment list. Later entries win.
func Getenv(env []string, key string) string {
	var val string
	for _, kv := range env {
		if k, vv, ok := strings.Cut(kv, "="); ok && k == key {
			val = vv
		}
	}
	return val
}

// SearchPath returns the PATH for a session in dir: dir/bin, then
// PathDirs, then the entries of inherited that are not already there.
func SearchPath(dir, inherited string) string {
	seen := map[string]bool{}
	var p []string
	add := func(d string) {
		if d == "" || seen[d] {
			return
		}
		seen[d] = true
		p = append(p, d)
	}
	add(filepath.Join(dir, "bin"))
	for _, d := range PathDirs {
		add(d)
	}
	for _, d := range filepath.SplitList(inherited) {
		add(d)
	}
	return strings.Join(p, string(filepath.ListSeparator))
}

// Environ builds the environment for a child: the daemon's own
// environment, overridden by what the client sent, overridden by the
// session's variables. dir/bin is created if it does not exist.
func Environ(client []string, dir, shell string) []string {
	e := &env{vals: map[string]string{}}
	e.merge(os.Environ())
	e.merge(client)

	bin := filepath.Join(dir, "bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		verbose("env: %v", err)
	}

	e.set("HOME", dir)
	e.set("PWD", dir)
	e.set("SHELL", shell)
	e.setDefault("TERM", "xterm-256color")
	e.setDefault("USER", "android")
	e.setDefault("LANG", "en_US.UTF-8")
	e.set("PATH", SearchPath(dir, e.vals["PATH"]))
	e.set("ANDROID_ROOT", "/system")
	e.set("ANDROID_DATA", "/data")
	e.set("EXTERNAL_STORAGE", "/sdcard")
	e.set("ANDROID_SSH", "1")
	return e.list()
}
