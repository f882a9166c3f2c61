// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package server

import (
	"errors"
	"io"
	"log"
	"path"

	"github.com/anmitsu/go-shlex"
	"github.com/gliderlabs/ssh"
	"github.com/pkg/sftp"
)

// isSFTP reports whether an exec request is for an SFTP server, as
// sent by clients that do not use the subsystem request.
func isSFTP(command string) bool {
	args, err := shlex.Split(command, true)
	if err != nil || len(args) == 0 {
		return false
	}
	switch path.Base(args[0]) {
	case "sftp-server", "internal-sftp":
		return true
	}
	return false
}

// sftpHandler serves SFTP on a session, rooted at the storage
// directory.
func (s *Server) sftpHandler(ss ssh.Session) {
	s.tenant(1)
	defer s.tenant(-1)
	opts := []sftp.ServerOption{sftp.WithServerWorkingDirectory(s.cfg.Root)}
	if s.cfg.ReadOnly {
		opts = append(opts, sftp.ReadOnly())
	}
	if s.debug != nil {
		opts = append(opts, sftp.WithDebug(s.debug))
	}
	srv, err := sftp.NewServer(ss, opts...)
	if err != nil {
		log.Printf("sftp: %v", err)
		ss.Exit(1) //nolint
		return
	}
	verbose("sftp: %s@%s in %q, read-only %v", ss.User(), ss.RemoteAddr(), s.cfg.Root, s.cfg.ReadOnly)
	err = srv.Serve()
	srv.Close()
	if err != nil && !errors.Is(err, io.EOF) {
		log.Printf("sftp: %s: %v", ss.RemoteAddr(), err)
		ss.Exit(1) //nolint
		return
	}
	ss.Exit(0) //nolint
}
