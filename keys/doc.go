// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package keys decodes and encodes SSH public keys in the wire format
// described by RFC 4253 and RFC 8709, and computes their fingerprints.
//
// A wire blob is a sequence of fields, each a big-endian uint32 length
// followed by that many bytes. The first field names the algorithm. The
// supported algorithms are ssh-rsa, ssh-ed25519, and the three NIST
// ECDSA curves. Blobs are read with a Cursor, which checks every length
// against the bytes remaining.
//
// Keys compare by value: two keys are the same key iff their wire
// encodings are byte-equal. Fingerprints are computed over the wire
// encoding, so they match what ssh-keygen -l -E md5 and OpenSSH's
// SHA256 fingerprints report (modulo base64 padding, which is kept).
package keys
