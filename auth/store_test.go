// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/u-root/sshdaemon/keys"
	"golang.org/x/crypto/ssh"
)

const (
	rsaKey     = "ssh-rsa AAAAB3NzaC1yc2EAAAADAQABAAABAQCrkf5RHFcmmnPFxfOVsVOCdDVfs04dZg+/n808/NEdyOPuyAde4UIvZbzKEjW9brtEvOHCFfxZuXa0TbTIUau9p+4gWTGXIONcarwJ7LtNUlWfJiWYmIWVgyNnpzVftcW3mi8gRGxPbCJM2yVeB7gv452wvWPDe9TFdpgbwhLBqVIRG6EBHC0VBXX8qKNCbFoclYbiXa5DfwMkxYwN2yyKaSu75e0H4FP4BehaqQ6SfBIThqQRVdcx9J9Du3GzTi4ArN0timPAQ+X17pWxgEQ3qNbj49Lnteu+NSmb0PawcrP+Ykd7oy82kXm/hRM6cLjS1GOTsXpGDFf0NevAW8b3 D050150@WDFL34195932A"
	ed25519Key = "ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIGJ0j5BztROLdZYHf8cpJsJr9jd8gCRUfm6oe9k3Bhh0 @quantenzitrone:matrix.org"
	ecdsaKey   = "ecdsa-sha2-nistp256 AAAAE2VjZHNhLXNoYTItbmlzdHAyNTYAAAAIbmlzdHAyNTYAAABBBEmKSENjQEezOmxkZMy7opKgwFB9nkt5YRrYMjNuG5N87uRgg6CLrbo5wAdT/y6v0mKV0U2w0WZ2YB/++Tpockg="
)

// dsaKey returns an authorized_keys line for a key type we do not
// support.
func dsaKey() string {
	var b []byte
	for _, f := range []string{"ssh-dss", "p", "q", "g", "y"} {
		b = binary.BigEndian.AppendUint32(b, uint32(len(f)))
		b = append(b, f...)
	}
	return "ssh-dss " + base64.StdEncoding.EncodeToString(b) + " old@box"
}

func writeKeys(t *testing.T, lines ...string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "authorized_keys")
	if err := os.WriteFile(p, []byte(strings.Join(lines, "\n")), 0600); err != nil {
		t.Fatal(err)
	}
	return p
}

func mustParse(t *testing.T, line string) keys.Key {
	t.Helper()
	k, _, err := ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine(%q): %v != nil", line, err)
	}
	return k
}

func TestParseLine(t *testing.T) {
	k, c, err := ParseLine(ed25519Key)
	if err != nil {
		t.Fatalf("ParseLine(ed25519): %v != nil", err)
	}
	if k.Type() != keys.TypeEd25519 || c != "@quantenzitrone:matrix.org" {
		t.Errorf("ParseLine(ed25519): got (%q, %q), want (%q, %q)", k.Type(), c, keys.TypeEd25519, "@quantenzitrone:matrix.org")
	}

	var tests = []struct {
		line        string
		unsupported bool
	}{
		{line: "ssh-rsa"},
		{line: "ssh-rsa !!!notbase64!!!"},
		{line: "ssh-rsa " + strings.Fields(ed25519Key)[1]},
		{line: dsaKey(), unsupported: true},
	}
	for _, tt := range tests {
		_, _, err := ParseLine(tt.line)
		if err == nil {
			t.Errorf("ParseLine(%q): nil != an error", tt.line)
			continue
		}
		if errors.Is(err, keys.ErrUnsupportedFormat) != tt.unsupported {
			t.Errorf("ParseLine(%q): %v, unsupported is %v, want %v", tt.line, err, !tt.unsupported, tt.unsupported)
		}
	}
}

func TestLoad(t *testing.T) {
	v = t.Logf
	var tests = []struct {
		name  string
		lines []string
		ok    bool
		n     int
	}{
		{name: "three keys", lines: []string{rsaKey, ed25519Key, ecdsaKey}, ok: true, n: 3},
		{name: "comments and blanks", lines: []string{"# keys", "", "   ", rsaKey, "\t# more", ed25519Key}, ok: true, n: 2},
		{name: "duplicates collapse", lines: []string{rsaKey, rsaKey, ed25519Key, strings.Replace(rsaKey, "D050150@WDFL34195932A", "other comment", 1)}, ok: true, n: 2},
		{name: "bad lines skipped", lines: []string{"garbage", rsaKey, "ssh-ed25519 AAAA", dsaKey(), ecdsaKey}, ok: true, n: 2},
		{name: "long line skipped", lines: []string{rsaKey, "ssh-rsa " + strings.Repeat("A", 70000), ed25519Key, ecdsaKey}, ok: true, n: 3},
		{name: "only dsa", lines: []string{dsaKey()}, ok: false, n: 0},
		{name: "only garbage", lines: []string{"this is not a key", "ssh-rsa %%%"}, ok: false, n: 0},
		{name: "empty", lines: nil, ok: false, n: 0},
		{name: "whitespace", lines: []string{"   ", "\t", ""}, ok: false, n: 0},
	}
	for _, tt := range tests {
		s := NewStore()
		p := writeKeys(t, tt.lines...)
		if ok := s.Load(p); ok != tt.ok {
			t.Errorf("%s: Load(%q): got %v, want %v", tt.name, p, ok, tt.ok)
		}
		if s.Len() != tt.n {
			t.Errorf("%s: Len(): got %d, want %d", tt.name, s.Len(), tt.n)
		}
		if len(s.Keys()) != tt.n {
			t.Errorf("%s: len(Keys()): got %d, want %d", tt.name, len(s.Keys()), tt.n)
		}
	}
}

func TestLoadBadPaths(t *testing.T) {
	v = t.Logf
	d := t.TempDir()
	for _, p := range []string{"", filepath.Join(d, "does", "not", "exist"), d} {
		s := NewStore()
		if s.Load(p) {
			t.Errorf("Load(%q): true, want false", p)
		}
		if s.Len() != 0 {
			t.Errorf("Load(%q): Len() is %d, want 0", p, s.Len())
		}
	}
}

func TestReloadClears(t *testing.T) {
	v = t.Logf
	s := NewStore()
	if !s.Load(writeKeys(t, rsaKey, ed25519Key)) {
		t.Fatalf("Load: false, want true")
	}
	rsa := mustParse(t, rsaKey)
	if !s.Authenticate(rsa) {
		t.Fatalf("Authenticate(rsa) after load: false, want true")
	}
	if s.Load(filepath.Join(t.TempDir(), "gone")) {
		t.Fatalf("Load(missing): true, want false")
	}
	if s.Authenticate(rsa) {
		t.Errorf("Authenticate(rsa) after failed reload: true, want false")
	}
	if !s.Load(writeKeys(t, ecdsaKey)) {
		t.Fatalf("Load(ecdsa): false, want true")
	}
	if s.Authenticate(rsa) || !s.Authenticate(mustParse(t, ecdsaKey)) {
		t.Errorf("reload did not replace the set")
	}
}

func TestAuthenticate(t *testing.T) {
	v = t.Logf
	s := NewStore()
	if !s.Load(writeKeys(t, rsaKey, ed25519Key, ecdsaKey)) {
		t.Fatalf("Load: false, want true")
	}
	for _, l := range []string{rsaKey, ed25519Key, ecdsaKey} {
		k := mustParse(t, l)
		if !s.Authenticate(k) {
			t.Errorf("Authenticate(%s): false, want true", k.Type())
		}
		pk, err := keys.ToSSH(k)
		if err != nil {
			t.Fatal(err)
		}
		if !s.AuthenticateSSH(pk) {
			t.Errorf("AuthenticateSSH(%s): false, want true", k.Type())
		}
	}

	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	stranger, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatal(err)
	}
	if s.AuthenticateSSH(stranger) {
		t.Errorf("AuthenticateSSH(unrelated key): true, want false")
	}
	if s.Authenticate(nil) {
		t.Errorf("Authenticate(nil): true, want false")
	}
	if s.AuthenticateSSH(nil) {
		t.Errorf("AuthenticateSSH(nil): true, want false")
	}
}

func TestConcurrentReload(t *testing.T) {
	v = t.Logf
	s := NewStore()
	p := writeKeys(t, rsaKey, ed25519Key)
	k := mustParse(t, ed25519Key)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Load(p)
		}()
		go func() {
			defer wg.Done()
			s.Authenticate(k)
		}()
	}
	wg.Wait()
	if !s.Authenticate(k) {
		t.Errorf("Authenticate after concurrent loads: false, want true")
	}
}
