// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package server

import (
	"sync"

	"github.com/gliderlabs/ssh"
	gossh "golang.org/x/crypto/ssh"
)

// MaxAuthTries is how many authentication attempts a connection gets.
const MaxAuthTries = 6

var (
	cryptoOnce sync.Once
	algorithms gossh.Config
)

// InitCrypto sets up the algorithms the server offers. It does the work
// once per process; later calls do nothing.
func InitCrypto() {
	cryptoOnce.Do(func() {
		algorithms = gossh.Config{
			KeyExchanges: []string{
				"curve25519-sha256",
				"curve25519-sha256@libssh.org",
				"ecdh-sha2-nistp256",
				"ecdh-sha2-nistp384",
				"ecdh-sha2-nistp521",
				"diffie-hellman-group14-sha256",
			},
			Ciphers: []string{
				"aes128-gcm@openssh.com",
				"aes256-gcm@openssh.com",
				"chacha20-poly1305@openssh.com",
				"aes128-ctr",
				"aes192-ctr",
				"aes256-ctr",
			},
			MACs: []string{
				"hmac-sha2-256-etm@openssh.com",
				"hmac-sha2-512-etm@openssh.com",
				"hmac-sha2-256",
				"hmac-sha2-512",
				"hmac-sha1",
			},
		}
		v("crypto: kex %q, ciphers %q, macs %q", algorithms.KeyExchanges, algorithms.Ciphers, algorithms.MACs)
	})
}

// serverConfig is the ServerConfigCallback. gliderlabs/ssh adds the
// host keys and handlers to what it returns.
func serverConfig(ssh.Context) *gossh.ServerConfig {
	InitCrypto()
	c := &gossh.ServerConfig{MaxAuthTries: MaxAuthTries}
	c.KeyExchanges = append([]string(nil), algorithms.KeyExchanges...)
	c.Ciphers = append([]string(nil), algorithms.Ciphers...)
	c.MACs = append([]string(nil), algorithms.MACs...)
	return c
}
