// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEnviron(t *testing.T) {
	v = t.Logf
	t.Setenv("PATH", "/usr/bin:/system/bin::/bin")
	t.Setenv("USER", "")
	t.Setenv("LANG", "")
	t.Setenv("HOME", "/home/daemon")
	d := t.TempDir()
	env := Environ([]string{"TERM=vt100", "FOO=bar", "junk", "HOME=/client"}, d, "/bin/sh")

	for k, want := range map[string]string{
		"TERM":             "vt100",
		"FOO":              "bar",
		"HOME":             d,
		"PWD":              d,
		"SHELL":            "/bin/sh",
		"USER":             "android",
		"LANG":             "en_US.UTF-8",
		"ANDROID_ROOT":     "/system",
		"ANDROID_DATA":     "/data",
		"EXTERNAL_STORAGE": "/sdcard",
		"ANDROID_SSH":      "1",
	} {
		if got := Getenv(env, k); got != want {
			t.Errorf("%s: %q, want %q", k, got, want)
		}
	}
	seen := map[string]bool{}
	for _, kv := range env {
		k, _, _ := strings.Cut(kv, "=")
		if seen[k] {
			t.Errorf("%s appears twice in %q", k, env)
		}
		seen[k] = true
	}
	if fi, err := os.Stat(filepath.Join(d, "bin")); err != nil || !fi.IsDir() {
		t.Errorf("Environ did not create %s/bin: %v", d, err)
	}
}

func TestSearchPath(t *testing.T) {
	p := filepath.SplitList(SearchPath("/data/app", "/usr/bin:/system/bin::/usr/bin"))
	want := append([]string{"/data/app/bin"}, PathDirs...)
	want = append(want, "/usr/bin")
	if strings.Join(p, ":") != strings.Join(want, ":") {
		t.Errorf("SearchPath: %q, want %q", p, want)
	}
}

func TestGetenv(t *testing.T) {
	env := []string{"A=1", "B=", "A=2", "C"}
	var tests = []struct {
		k, want string
	}{
		{"A", "2"},
		{"B", ""},
		{"C", ""},
		{"D", ""},
	}
	for _, tt := range tests {
		if got := Getenv(env, tt.k); got != tt.want {
			t.Errorf("Getenv(%q): %q, want %q", tt.k, got, tt.want)
		}
	}
}
