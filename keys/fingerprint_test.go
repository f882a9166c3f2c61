// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package keys

import (
	"testing"

	"golang.org/x/crypto/ssh"
)

const p521Blob = "AAAAE2VjZHNhLXNoYTItbmlzdHA1MjEAAAAIbmlzdHA1MjEAAACFBAF9K9h1wxiYAH+FzBIAx9u3hJKaXbatDze1jSIT7YX748lPUko/04aABbMUd7SFWjmSUqYXz0ZaFuAbspTnl3fcaQAxaO2pm+8xGg41AxPAkcAa4hp2Mk6IqH2ctKfVPtZQHtB68Sy0+NsOYJmfSVWpKgMooVNYmOGVio6N7nfvfDS1IA=="

func TestFingerprints(t *testing.T) {
	var tests = []struct {
		name   string
		blob   string
		md5    string
		sha256 string
	}{
		{
			name:   "p521",
			blob:   p521Blob,
			md5:    "27:64:65:20:26:7f:29:3d:07:66:c3:4c:65:eb:6f:b4",
			sha256: "GzveilxzWuMhxIZRtkoVUelLOtm86qjJHKOb1Sr10+Q=",
		},
		{
			// ssh-keygen -lf prints SHA256:+DiY3wvvV6TuJJhbpZisF/zLDA0zPMSvHdkr4UvCOqU
			name:   "ed25519",
			blob:   "AAAAC3NzaC1lZDI1NTE5AAAAIOMqqnkVzrm0SdG6UOoqKLsabgH5C9okWi0dh2l9GKJl",
			sha256: "+DiY3wvvV6TuJJhbpZisF/zLDA0zPMSvHdkr4UvCOqU=",
		},
	}

	for _, tt := range tests {
		b := blob(t, tt.blob)
		if tt.md5 != "" {
			if got := FingerprintMD5(b); got != tt.md5 {
				t.Errorf("FingerprintMD5(%s): got %q, want %q", tt.name, got, tt.md5)
			}
		}
		if got := FingerprintSHA256(b); got != tt.sha256 {
			t.Errorf("FingerprintSHA256(%s): got %q, want %q", tt.name, got, tt.sha256)
		}
		// Same input, same output.
		if FingerprintSHA256(b) != FingerprintSHA256(b) || FingerprintMD5(b) != FingerprintMD5(b) {
			t.Errorf("%s: fingerprints are not deterministic", tt.name)
		}
	}
}

func TestFingerprintMD5Format(t *testing.T) {
	f := FingerprintMD5(nil)
	// md5("") = d41d8cd98f00b204e9800998ecf8427e
	if want := "d4:1d:8c:d9:8f:00:b2:04:e9:80:09:98:ec:f8:42:7e"; f != want {
		t.Errorf("FingerprintMD5(nil): got %q, want %q", f, want)
	}
}

func TestFingerprintMD5MatchesLegacy(t *testing.T) {
	for _, b64 := range []string{p521Blob, "AAAAC3NzaC1lZDI1NTE5AAAAIOMqqnkVzrm0SdG6UOoqKLsabgH5C9okWi0dh2l9GKJl"} {
		b := blob(t, b64)
		pk, err := ssh.ParsePublicKey(b)
		if err != nil {
			t.Fatalf("ssh.ParsePublicKey(%q): %v != nil", b64, err)
		}
		if got, want := FingerprintMD5(b), ssh.FingerprintLegacyMD5(pk); got != want {
			t.Errorf("FingerprintMD5(%s): got %q, want %q", pk.Type(), got, want)
		}
	}
}

func TestFingerprintByDigest(t *testing.T) {
	b := blob(t, p521Blob)
	all := Fingerprints(b)
	for _, d := range []Digest{MD5, SHA256} {
		f, err := Fingerprint(d, b)
		if err != nil {
			t.Fatalf("Fingerprint(%v): %v != nil", d, err)
		}
		if all[d] != f {
			t.Errorf("Fingerprints()[%v]: got %q, want %q", d, all[d], f)
		}
	}
	if _, err := Fingerprint(Digest(7), b); err == nil {
		t.Errorf("Fingerprint(Digest(7)): nil != an error")
	}
	if MD5.String() != "MD5" || SHA256.String() != "SHA256" {
		t.Errorf("Digest names: got %q and %q", MD5, SHA256)
	}
}
