// Copyright 2018-2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package server is for building the SSH daemon.
//
// A Server is an ssh.Server (gliderlabs/ssh) with handlers that run
// each exec request as a batch session.Session and each shell request
// as an interactive one, and that serve SFTP, as a subsystem or as an
// exec of sftp-server, from the storage root.
//
// Clients log in with a key listed in the authorized keys file, which
// Reload re-reads, or, if enabled, with the configured user name and
// password. The host key is read from its file, or made and saved
// there on first start.
//
// The basic flow of setting up a server is similar to most such servers:
// a call to New, preceded or followed by a call to net.Listen to get a
// socket, and a call to Serve with the listener. For a usage example,
// see TestExec.
package server
