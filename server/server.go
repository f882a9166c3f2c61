// Copyright 2018-2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package server

import (
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/gliderlabs/ssh"
	"github.com/google/uuid"
	"github.com/u-root/sshdaemon/auth"
	"github.com/u-root/sshdaemon/config"
	"github.com/u-root/sshdaemon/keys"
	"github.com/u-root/sshdaemon/session"
	gossh "golang.org/x/crypto/ssh"
)

var v = func(string, ...interface{}) {}

// SetVerbose sets the debug print function.
func SetVerbose(f func(string, ...interface{})) {
	v = f
}

func verbose(f string, a ...interface{}) {
	v("SSHD:"+f, a...)
}

// Tenants is told about sessions starting (+1) and ending (-1).
type Tenants interface {
	Tenant(delta int)
}

// Server is an ssh.Server that runs sessions from package session.
type Server struct {
	*ssh.Server

	cfg      *config.Config
	store    *auth.Store
	password *auth.Password
	hostKey  gossh.Signer
	shells   session.Finder
	tenants  Tenants
	debug    io.Writer
}

// New sets up a server from cfg. The host key is loaded, or made, and
// the authorized keys are read. If password authentication is on and
// there is no password, a random one is made; see Password.
func New(cfg *config.Config) (*Server, error) {
	InitCrypto()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	v("configure SSH server")

	s := &Server{cfg: cfg, store: auth.NewStore()}
	hk, err := hostKey(cfg.HostKeyPath())
	if err != nil {
		return nil, err
	}
	s.hostKey = hk

	if !s.Reload() {
		log.Printf("no usable keys in %q; public key logins will fail", cfg.AuthorizedKeysPath())
	}

	srv := &ssh.Server{
		// Overridden by Serve's listener.
		Addr:                 ":" + cfg.Port,
		Handler:              s.handler,
		PublicKeyHandler:     s.publicKey,
		ServerConfigCallback: serverConfig,
	}
	if cfg.PasswordAuth {
		pw := cfg.Password
		if pw == "" {
			if pw, err = auth.RandomPassword(cfg.PasswordLen); err != nil {
				return nil, fmt.Errorf("password: %w", err)
			}
			log.Printf("password for %q is %q", cfg.User, pw)
		}
		s.password = &auth.Password{User: cfg.User, Password: pw}
		srv.PasswordHandler = s.passwordHandler
	}
	if cfg.SFTP {
		srv.SubsystemHandlers = map[string]ssh.SubsystemHandler{"sftp": s.sftpHandler}
	}
	if cfg.Forwarding {
		forwarding(srv)
	}
	srv.AddHostKey(hk)
	s.Server = srv
	return s, nil
}

// forwarding turns on TCP port forwarding in both directions.
func forwarding(srv *ssh.Server) {
	fwd := &ssh.ForwardedTCPHandler{}
	srv.LocalPortForwardingCallback = func(ctx ssh.Context, host string, port uint32) bool {
		log.Printf("%s: forward to %s:%d", ctx.RemoteAddr(), host, port)
		return true
	}
	srv.ReversePortForwardingCallback = func(ctx ssh.Context, host string, port uint32) bool {
		log.Printf("%s: reverse forward from %s:%d", ctx.RemoteAddr(), host, port)
		return true
	}
	srv.RequestHandlers = map[string]ssh.RequestHandler{
		"tcpip-forward":        fwd.HandleSSHRequest,
		"cancel-tcpip-forward": fwd.HandleSSHRequest,
	}
	srv.ChannelHandlers = map[string]ssh.ChannelHandler{
		"session":      ssh.DefaultSessionHandler,
		"direct-tcpip": ssh.DirectTCPIPHandler,
	}
}

// SetTenants sets who is told about sessions, e.g. a ds.Advertiser.
func (s *Server) SetTenants(t Tenants) {
	s.tenants = t
}

// SetShellFinder replaces the shell.Locator sessions use.
func (s *Server) SetShellFinder(f session.Finder) {
	s.shells = f
}

// SetDebug sends SFTP protocol traces to w.
func (s *Server) SetDebug(w io.Writer) {
	s.debug = w
}

// Password returns the password logins are checked against, or "" if
// password authentication is off.
func (s *Server) Password() string {
	if s.password == nil {
		return ""
	}
	return s.password.Password
}

// Reload re-reads the authorized keys file. It returns false if the
// file gave no usable keys.
func (s *Server) Reload() bool {
	ok := s.store.Load(s.cfg.AuthorizedKeysPath())
	verbose("reload %q: %d keys", s.cfg.AuthorizedKeysPath(), s.store.Len())
	return ok
}

// HostFingerprints returns the MD5 and SHA256 fingerprints of the host
// key.
func (s *Server) HostFingerprints() map[keys.Digest]string {
	return keys.Fingerprints(s.hostKey.PublicKey().Marshal())
}

// HostKey returns the public host key.
func (s *Server) HostKey() gossh.PublicKey {
	return s.hostKey.PublicKey()
}

func (s *Server) publicKey(ctx ssh.Context, key ssh.PublicKey) bool {
	if s.store.AuthenticateSSH(key) {
		verbose("%s@%s: accepted %s key %s", ctx.User(), ctx.RemoteAddr(), key.Type(), gossh.FingerprintSHA256(key))
		return true
	}
	log.Printf("%s@%s: rejected %s key %s", ctx.User(), ctx.RemoteAddr(), key.Type(), gossh.FingerprintSHA256(key))
	return false
}

func (s *Server) passwordHandler(ctx ssh.Context, password string) bool {
	if s.password.Authenticate(ctx.User(), password) {
		return true
	}
	log.Printf("%s@%s: wrong user or password", ctx.User(), ctx.RemoteAddr())
	return false
}

func (s *Server) tenant(delta int) {
	if s.tenants != nil {
		s.tenants.Tenant(delta)
	}
}

// handler runs exec requests as batch sessions and shell requests as
// interactive ones.
func (s *Server) handler(ss ssh.Session) {
	raw := ss.RawCommand()
	if s.cfg.SFTP && raw != "" && isSFTP(raw) {
		s.sftpHandler(ss)
		return
	}
	s.tenant(1)
	defer s.tenant(-1)

	id := uuid.New().String()
	mode := session.Batch
	if raw == "" {
		mode = session.Interactive
	}
	log.Printf("%s: %v session for %s@%s", id, mode, ss.User(), ss.RemoteAddr())
	verbose("%s: command %q", id, raw)

	env := append(ss.Environ(), "USER="+ss.User(), "LOGNAME="+ss.User())
	ptyReq, winCh, isPty := ss.Pty()
	if isPty {
		env = append(env,
			"TERM="+ptyReq.Term,
			"COLUMNS="+strconv.Itoa(ptyReq.Window.Width),
			"LINES="+strconv.Itoa(ptyReq.Window.Height))
	}
	if mode == session.Interactive && s.cfg.ReadOnly {
		log.Printf("%s: shell started in read-only mode (advisory only)", id)
	}

	sess := session.New(mode, s.cfg.Root, raw, env)
	sess.Stdin, sess.Stdout, sess.Stderr = ss, ss, ss.Stderr()
	sess.UsePTY(s.cfg.PTY && isPty)
	if s.shells != nil {
		sess.SetShellFinder(s.shells)
	}
	sess.OnExit(func(code int) {
		if err := ss.Exit(code); err != nil {
			verbose("%s: exit %d: %v", id, code, err)
		}
	})
	if err := sess.Start(); err != nil {
		log.Printf("%s: %v", id, err)
		return
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ss.Context().Done():
			verbose("%s: channel closed", id)
			sess.Destroy()
		case <-done:
		}
	}()
	if isPty {
		go func() {
			for {
				select {
				case win, ok := <-winCh:
					if !ok {
						return
					}
					sess.Resize(win.Width, win.Height)
				case <-done:
					return
				}
			}
		}()
	}

	code := sess.Wait()
	log.Printf("%s: exit %d, %s of output", id, code, humanize.IBytes(uint64(sess.BytesOut())))
}
