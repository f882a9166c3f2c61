// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package keys

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// Digest selects a fingerprint algorithm.
type Digest int

const (
	MD5 Digest = iota
	SHA256
)

func (d Digest) String() string {
	switch d {
	case MD5:
		return "MD5"
	case SHA256:
		return "SHA256"
	}
	return fmt.Sprintf("Digest(%d)", int(d))
}

// FingerprintMD5 returns the MD5 of blob as colon separated lower case
// hex, e.g. 27:64:65:...:b4.
func FingerprintMD5(blob []byte) string {
	sum := md5.Sum(blob)
	h := hex.EncodeToString(sum[:])
	var b strings.Builder
	b.Grow(len(h) + len(sum) - 1)
	for i := 0; i < len(h); i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(h[i : i+2])
	}
	return b.String()
}

// FingerprintSHA256 returns the SHA-256 of blob in padded standard
// base64.
func FingerprintSHA256(blob []byte) string {
	sum := sha256.Sum256(blob)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Fingerprint returns the fingerprint of blob for digest d.
func Fingerprint(d Digest, blob []byte) (string, error) {
	switch d {
	case MD5:
		return FingerprintMD5(blob), nil
	case SHA256:
		return FingerprintSHA256(blob), nil
	}
	return "", fmt.Errorf("fingerprint: unknown digest %v", d)
}

// Fingerprints returns every fingerprint of blob, keyed by digest.
func Fingerprints(blob []byte) map[Digest]string {
	return map[Digest]string{
		MD5:    FingerprintMD5(blob),
		SHA256: FingerprintSHA256(blob),
	}
}
