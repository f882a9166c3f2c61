// Copyright 2018-2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// sshdaemon is an SSH and SFTP server for phones and other small
// systems where the usual shell and tools may be missing.
//
// Settings come from SSHDAEMON_* environment variables (see -envhelp),
// overridden by flags. Send SIGHUP to re-read the authorized keys, and
// SIGINT or SIGTERM to stop.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/u-root/sshdaemon/config"
)

var (
	debug   = flag.Bool("d", false, "enable debug prints")
	klog    = flag.Bool("klog", false, "Log sshdaemon messages in kernel log, not stdout")
	envhelp = flag.Bool("envhelp", false, "print the environment variables sshdaemon reads and exit")

	// Some networks are not well behaved, and for them we implement registration.
	registerAddr = flag.String("register", "", "address and port to register with after listen on the server port")
	registerTO   = flag.Duration("registerTO", 5*time.Second, "time.Duration for Dial address for registering")

	// v allows debug printing.
	// Do not call it directly, call verbose instead.
	v = func(string, ...interface{}) {}
)

func verbose(f string, a ...interface{}) {
	v("SSHDAEMON:"+f, a...)
}

// bind makes flags for the fields of c, with c's values as defaults.
func bind(fs *flag.FlagSet, c *config.Config) {
	fs.StringVar(&c.Port, "sp", c.Port, "port to listen on")
	fs.StringVar(&c.Network, "net", c.Network, "network to use: tcp, tcp4, tcp6, unix or vsock")
	fs.StringVar(&c.Root, "root", c.Root, "directory for sessions and SFTP")
	fs.StringVar(&c.HostKey, "hk", c.HostKey, "file for host key (default root/.ssh/ssh_host_ed25519_key)")
	fs.StringVar(&c.AuthorizedKeys, "pk", c.AuthorizedKeys, "authorized keys file (default root/.ssh/authorized_keys)")
	fs.StringVar(&c.User, "user", c.User, "user name for password logins")
	fs.StringVar(&c.Password, "password", c.Password, "password for password logins (default random)")
	fs.BoolVar(&c.PasswordAuth, "passwordauth", c.PasswordAuth, "allow password logins")
	fs.IntVar(&c.PasswordLen, "passwordlen", c.PasswordLen, "length of a random password")
	fs.BoolVar(&c.ReadOnly, "readonly", c.ReadOnly, "read-only SFTP")
	fs.BoolVar(&c.PTY, "pty", c.PTY, "give shells a real pty if one can be had")
	fs.BoolVar(&c.SFTP, "sftp", c.SFTP, "serve SFTP")
	fs.BoolVar(&c.Forwarding, "forward", c.Forwarding, "allow TCP port forwarding")
	fs.BoolVar(&c.Mdns, "dnssd", c.Mdns, "advertise service using DNSSD")
	fs.StringVar(&c.DsInstance, "dsInstance", c.DsInstance, "DNSSD instance name")
	fs.StringVar(&c.DsDomain, "dsDomain", c.DsDomain, "DNSSD domain")
	fs.StringVar(&c.DsService, "dsService", c.DsService, "DNSSD Service Type")
	fs.StringVar(&c.DsInterface, "dsInterface", c.DsInterface, "DNSSD Interface")
	fs.StringVar(&c.DsTxt, "dsTxt", c.DsTxt, "DNSSD key-value pair string parameterizing advertisement")
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	bind(flag.CommandLine, cfg)
	flag.Parse()
	if *envhelp {
		if err := config.Usage(); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}
	commonsetup()
	verbose("Args %v pid %d config %+v", os.Args, os.Getpid(), *cfg)
	log.Printf("SSHDAEMON:PID(%d):serving %q on %s %s", os.Getpid(), cfg.Root, cfg.Network, cfg.Port)
	if err := serve(cfg); err != nil {
		log.Fatal(err)
	}
}
