// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package auth decides who may log in.
//
// A Store holds the public keys from an authorized_keys file. Load
// rebuilds it from scratch; a file that cannot be read, or that has no
// usable keys, leaves the Store empty. Lines that do not parse are
// skipped, so one bad key does not lock everyone out. Authenticate is a
// map lookup on the key's wire encoding.
//
// Password authenticates a single user/password pair, and
// RandomPassword makes a password for a daemon started without one.
package auth
