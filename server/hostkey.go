// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package server

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	gossh "golang.org/x/crypto/ssh"
)

// hostKey loads the host key from path. If there is no such file, a
// new Ed25519 key is made and saved there. Failing to save it is not
// fatal: the key is used anyway, and clients will see a new host key
// next time.
func hostKey(path string) (gossh.Signer, error) {
	b, err := os.ReadFile(path)
	if err == nil {
		s, err := gossh.ParsePrivateKey(b)
		if err != nil {
			return nil, fmt.Errorf("host key %q: %w", path, err)
		}
		v("host key: loaded %s key from %q", s.PublicKey().Type(), path)
		return s, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("host key: %w", err)
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("host key: generate: %w", err)
	}
	s, err := gossh.NewSignerFromKey(priv)
	if err != nil {
		return nil, fmt.Errorf("host key: %w", err)
	}
	blk, err := gossh.MarshalPrivateKey(priv, "sshdaemon host key")
	if err != nil {
		return nil, fmt.Errorf("host key: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		log.Printf("host key: not saved: %v", err)
		return s, nil
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(blk), 0o600); err != nil {
		log.Printf("host key: not saved: %v", err)
		return s, nil
	}
	log.Printf("host key: generated a new %s key in %q", s.PublicKey().Type(), path)
	return s, nil
}
