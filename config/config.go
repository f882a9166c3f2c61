// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the daemon settings. Defaults come from struct
// tags, then SSHDAEMON_* environment variables; the command line
// overrides both.
package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix, e.g. SSHDAEMON_PORT.
const Prefix = "SSHDAEMON"

// Config is the daemon configuration.
type Config struct {
	Port    string `envconfig:"PORT" default:"8022"`
	Network string `envconfig:"NETWORK" default:"tcp"`

	// Root is the directory sessions start in and SFTP serves.
	Root string `envconfig:"ROOT" default:"/sdcard"`
	// HostKey and AuthorizedKeys default to files in Root/.ssh.
	HostKey        string `envconfig:"HOST_KEY"`
	AuthorizedKeys string `envconfig:"AUTHORIZED_KEYS"`

	User         string `envconfig:"USER" default:"user"`
	Password     string `envconfig:"PASSWORD"`
	PasswordAuth bool   `envconfig:"PASSWORD_AUTH" default:"true"`
	PasswordLen  int    `envconfig:"PASSWORD_LENGTH" default:"8"`

	ReadOnly   bool `envconfig:"READ_ONLY" default:"false"`
	PTY        bool `envconfig:"PTY" default:"false"`
	SFTP       bool `envconfig:"SFTP" default:"true"`
	Forwarding bool `envconfig:"FORWARDING" default:"false"`

	Mdns        bool   `envconfig:"MDNS" default:"false"`
	DsInstance  string `envconfig:"DS_INSTANCE"`
	DsDomain    string `envconfig:"DS_DOMAIN" default:"local"`
	DsService   string `envconfig:"DS_SERVICE" default:"_ssh._tcp"`
	DsInterface string `envconfig:"DS_INTERFACE"`
	DsTxt       string `envconfig:"DS_TXT"`
}

// Load returns the defaults overridden by the environment.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &c, nil
}

// HostKeyPath is where the host key is kept.
func (c *Config) HostKeyPath() string {
	if c.HostKey != "" {
		return c.HostKey
	}
	return filepath.Join(c.Root, ".ssh", "ssh_host_ed25519_key")
}

// AuthorizedKeysPath is the authorized_keys file public keys are
// checked against.
func (c *Config) AuthorizedKeysPath() string {
	if c.AuthorizedKeys != "" {
		return c.AuthorizedKeys
	}
	return filepath.Join(c.Root, ".ssh", "authorized_keys")
}

// Validate checks for settings that cannot work together.
func (c *Config) Validate() error {
	if c.Root == "" {
		return errors.New("config: empty root directory")
	}
	if c.Port == "" {
		return errors.New("config: empty port")
	}
	switch c.Network {
	case "tcp", "tcp4", "tcp6", "unix", "vsock":
	default:
		return fmt.Errorf("config: network %q: want tcp, tcp4, tcp6, unix or vsock", c.Network)
	}
	if c.PasswordAuth && c.User == "" {
		return errors.New("config: password auth needs a user")
	}
	if c.PasswordLen < 0 {
		return fmt.Errorf("config: password length %d < 0", c.PasswordLen)
	}
	return nil
}

// Usage prints the environment variables Config reads.
func Usage() error {
	var c Config
	return envconfig.Usage(Prefix, &c)
}
