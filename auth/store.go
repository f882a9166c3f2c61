// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package auth

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/u-root/sshdaemon/keys"
	"golang.org/x/crypto/ssh"
)

var v = func(string, ...interface{}) {}

// SetVerbose sets the debug print function.
func SetVerbose(f func(string, ...interface{})) {
	v = f
}

func verbose(f string, a ...interface{}) {
	v("auth:"+f, a...)
}

// Store is a set of authorized public keys. It is safe for concurrent
// use; Load replaces the whole set.
type Store struct {
	mu   sync.RWMutex
	keys map[string]keys.Key
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{keys: map[string]keys.Key{}}
}

// ParseLine parses one authorized_keys line into a key and its comment.
func ParseLine(line string) (keys.Key, string, error) {
	f := strings.Fields(line)
	if len(f) < 2 {
		return nil, "", fmt.Errorf("want at least 2 fields, got %d: %w", len(f), keys.ErrMalformedKey)
	}
	b, err := base64.StdEncoding.DecodeString(f[1])
	if err != nil {
		return nil, "", fmt.Errorf("%s key: %v: %w", f[0], err, keys.ErrMalformedKey)
	}
	k, err := keys.Decode(f[0], b)
	if err != nil {
		return nil, "", err
	}
	return k, strings.Join(f[2:], " "), nil
}

// MaxLineLen bounds an authorized_keys line. Longer lines are skipped.
const MaxLineLen = 64 << 10

// parse reads authorized_keys lines from r. It returns the keys it
// could decode, indexed by wire encoding, and every per-line error.
func parse(r io.Reader) (map[string]keys.Key, error) {
	var (
		result error
		lineno int
	)
	m := map[string]keys.Key{}
	br := bufio.NewReader(r)
	for {
		line, rerr := br.ReadString('\n')
		if len(line) > 0 {
			lineno++
			if err := parseInto(m, line); err != nil {
				result = multierror.Append(result, fmt.Errorf("line %d: %w", lineno, err))
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			result = multierror.Append(result, rerr)
			break
		}
	}
	return m, result
}

func parseInto(m map[string]keys.Key, line string) error {
	if len(line) > MaxLineLen {
		return fmt.Errorf("%d bytes, longer than %d", len(line), MaxLineLen)
	}
	l := strings.TrimSpace(line)
	if len(l) == 0 || strings.HasPrefix(l, "#") {
		return nil
	}
	k, c, err := ParseLine(l)
	if err != nil {
		return err
	}
	verbose("%s key %q", k.Type(), c)
	m[string(k.Marshal())] = k
	return nil
}

// Load replaces the set with the keys in the file at path. The set is
// emptied first, so a failed load leaves nothing trusted. Lines that
// do not parse are logged and skipped. Load returns true if at least
// one key was loaded.
func (s *Store) Load(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = map[string]keys.Key{}

	if path == "" {
		verbose("no authorized keys file")
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		verbose("%v", err)
		return false
	}
	defer f.Close()
	if fi, err := f.Stat(); err != nil || fi.IsDir() {
		verbose("%q is not a file", path)
		return false
	}

	m, err := parse(f)
	if err != nil {
		verbose("%s: %v", path, err)
	}
	s.keys = m
	verbose("%s: %d keys", path, len(m))
	return len(m) > 0
}

// Authenticate reports whether k is in the set.
func (s *Store) Authenticate(k keys.Key) bool {
	if k == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[string(k.Marshal())]
	return ok
}

// AuthenticateSSH is Authenticate for a key presented by a client.
func (s *Store) AuthenticateSSH(pk ssh.PublicKey) bool {
	if pk == nil {
		return false
	}
	k, err := keys.FromSSH(pk)
	if err != nil {
		verbose("presented key: %v", err)
		return false
	}
	return s.Authenticate(k)
}

// Len returns the number of keys in the set.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Keys returns the keys in the set, in no particular order.
func (s *Store) Keys() []keys.Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ks := make([]keys.Key, 0, len(s.keys))
	for _, k := range s.keys {
		ks = append(ks, k)
	}
	return ks
}
