// Copyright 2022-2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ds (decentralized services) advertises the daemon with
// DNS-SD, so clients on the local network can find it as _ssh._tcp.
//
// Beyond the address, the TXT record carries meta-data about the
// system and its current load, including how many sessions it is
// serving, which clients can use to pick a device.
package ds
