// Copyright 2018-2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gliderlabs/ssh"
	"github.com/hashicorp/go-multierror"
	"github.com/mdlayher/vsock"
	"github.com/u-root/sshdaemon/auth"
	"github.com/u-root/sshdaemon/config"
	"github.com/u-root/sshdaemon/ds"
	"github.com/u-root/sshdaemon/server"
	"github.com/u-root/sshdaemon/session"
	"github.com/u-root/sshdaemon/shell"
	"github.com/u-root/u-root/pkg/ulog"
)

const (
	any = math.MaxUint32

	shutdownTimeout = 10 * time.Second
)

func commonsetup() {
	if !*debug {
		return
	}
	v = log.Printf
	if *klog {
		ulog.KernelLog.Reinit()
		v = ulog.KernelLog.Printf
	}
	server.SetVerbose(v)
	session.SetVerbose(v)
	shell.SetVerbose(v)
	auth.SetVerbose(v)
	ds.Verbose(v)
}

func listen(network, port string) (net.Listener, error) {
	switch network {
	case "vsock":
		// vsock is not in the standard Go net package.
		p, err := strconv.ParseUint(port, 0, 16)
		if err != nil {
			return nil, err
		}
		return vsock.ListenContextID(any, uint32(p), nil)
	case "unix":
		// The port is a path, or @name for the abstract namespace.
		return net.Listen(network, port)
	}
	return net.Listen(network, net.JoinHostPort("", port))
}

// register dials addr and sends "ok", for hosts that want to know when
// a guest is listening.
func register(network, addr string, timeout time.Duration) error {
	if len(addr) == 0 {
		return nil
	}
	c, err := net.DialTimeout(network, addr, timeout)
	if err != nil {
		return err
	}
	defer c.Close()
	if _, err := c.Write([]byte("ok")); err != nil {
		return fmt.Errorf("writing ok to register address: %w", err)
	}
	return nil
}

// advertisedPort is the port to put in DNS-SD: the one the listener got,
// which differs from the configured one when that was 0.
func advertisedPort(ln net.Listener, port string) (int, error) {
	if a, ok := ln.Addr().(*net.TCPAddr); ok {
		return a.Port, nil
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return 0, fmt.Errorf("could not parse port %q: %w", port, err)
	}
	return p, nil
}

// shutdown stops the server and the advertisement, and removes a unix
// socket file.
func shutdown(s *server.Server, adv *ds.Advertiser, cfg *config.Config) error {
	var errs error
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("shutdown: %w", err))
	}
	if adv != nil {
		adv.Stop()
	}
	if cfg.Network == "unix" && !strings.HasPrefix(cfg.Port, "@") {
		if err := os.Remove(cfg.Port); err != nil && !os.IsNotExist(err) {
			errs = multierror.Append(errs, err)
		}
	}
	return errs
}

func serve(cfg *config.Config) error {
	server.InitCrypto()
	s, err := server.New(cfg)
	if err != nil {
		return err
	}
	for d, fp := range s.HostFingerprints() {
		log.Printf("host key %s fingerprint %s", d, fp)
	}

	ln, err := listen(cfg.Network, cfg.Port)
	if err != nil {
		return err
	}
	log.Printf("Listening on %v", ln.Addr())

	// register can return an error, but it should not block serving.
	if err := register(cfg.Network, *registerAddr, *registerTO); err != nil {
		verbose("register(%v, %v, %v): %v", cfg.Network, *registerAddr, *registerTO, err)
	}

	var adv *ds.Advertiser
	if cfg.Mdns {
		p, err := advertisedPort(ln, cfg.Port)
		if err != nil {
			return err
		}
		adv = ds.New(cfg.DsInstance, cfg.DsDomain, cfg.DsService, cfg.DsInterface, p, ds.ParseKv(cfg.DsTxt))
		if err := adv.Start(context.Background()); err != nil {
			// Advertising is a convenience; serve anyway.
			log.Printf("could not advertise with dns-sd: %v", err)
			adv = nil
		} else {
			s.SetTenants(adv)
		}
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for sig := range sigs {
			if sig == syscall.SIGHUP {
				log.Printf("Received %v, reloading %q", sig, cfg.AuthorizedKeysPath())
				s.Reload()
				continue
			}
			log.Printf("Received %v, shutting down", sig)
			if err := shutdown(s, adv, cfg); err != nil {
				log.Print(err)
			}
			return
		}
	}()

	if err := s.Serve(ln); err != ssh.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	verbose("Daemon returns")
	return nil
}
