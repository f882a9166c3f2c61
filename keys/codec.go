// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package keys

import (
	"bytes"
	"crypto/ecdh"
	"crypto/ed25519"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/ssh"
)

// Algorithm names, as they appear in authorized_keys and in blobs.
const (
	TypeRSA       = "ssh-rsa"
	TypeEd25519   = "ssh-ed25519"
	TypeECDSA256  = "ecdsa-sha2-nistp256"
	TypeECDSA384  = "ecdsa-sha2-nistp384"
	TypeECDSA521  = "ecdsa-sha2-nistp521"
	ecdsaTypePrfx = "ecdsa-sha2-"
)

// Key is a decoded public key.
type Key interface {
	// Type returns the algorithm name.
	Type() string
	// Marshal returns the wire encoding.
	Marshal() []byte
}

// RSAKey is an ssh-rsa public key.
type RSAKey struct {
	E *big.Int
	N *big.Int
}

func (k *RSAKey) Type() string { return TypeRSA }

func (k *RSAKey) Marshal() []byte {
	b := appendBytes(nil, []byte(TypeRSA))
	b = appendMPInt(b, k.E)
	return appendMPInt(b, k.N)
}

// Ed25519Key is the 32 byte point of an ssh-ed25519 key.
type Ed25519Key []byte

func (k Ed25519Key) Type() string { return TypeEd25519 }

func (k Ed25519Key) Marshal() []byte {
	return appendBytes(appendBytes(nil, []byte(TypeEd25519)), k)
}

// ECKey is an ECDSA key on one of the NIST curves. Curve is the SSH
// curve name, e.g. nistp256, and Point the uncompressed point.
type ECKey struct {
	Curve string
	Point []byte
}

func (k *ECKey) Type() string { return ecdsaTypePrfx + k.Curve }

func (k *ECKey) Marshal() []byte {
	b := appendBytes(nil, []byte(k.Type()))
	b = appendBytes(b, []byte(k.Curve))
	return appendBytes(b, k.Point)
}

var curves = []struct {
	name     string
	pointLen int
	curve    ecdh.Curve
}{
	{name: "nistp256", pointLen: 65, curve: ecdh.P256()},
	{name: "nistp384", pointLen: 97, curve: ecdh.P384()},
	{name: "nistp521", pointLen: 133, curve: ecdh.P521()},
}

// curveFor derives the curve from the size of an uncompressed point:
// 0x04 followed by two coordinates of the field size.
func curveFor(point []byte) (string, ecdh.Curve, error) {
	for _, c := range curves {
		if len(point) == c.pointLen {
			return c.name, c.curve, nil
		}
	}
	return "", nil, &UnsupportedCurveError{PointLen: len(point)}
}

// Decode decodes a wire blob. If typeTag is not empty, the algorithm
// named inside the blob must equal it.
func Decode(typeTag string, blob []byte) (Key, error) {
	c := NewCursor(blob)
	tag, err := c.ReadString()
	if err != nil {
		return nil, err
	}
	if typeTag != "" && tag != typeTag {
		return nil, fmt.Errorf("blob is %q, line says %q: %w", tag, typeTag, ErrMalformedKey)
	}

	var k Key
	switch tag {
	case TypeRSA:
		e, err := c.ReadMPInt()
		if err != nil {
			return nil, fmt.Errorf("rsa exponent: %w", err)
		}
		n, err := c.ReadMPInt()
		if err != nil {
			return nil, fmt.Errorf("rsa modulus: %w", err)
		}
		if e.Sign() == 0 || n.Sign() == 0 {
			return nil, fmt.Errorf("rsa key with zero component: %w", ErrMalformedKey)
		}
		k = &RSAKey{E: e, N: n}

	case TypeEd25519:
		p, err := c.ReadBytes()
		if err != nil {
			return nil, fmt.Errorf("ed25519 point: %w", err)
		}
		if len(p) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("ed25519 point is %d bytes: %w", len(p), ErrMalformedKey)
		}
		k = Ed25519Key(bytes.Clone(p))

	case TypeECDSA256, TypeECDSA384, TypeECDSA521:
		name, err := c.ReadString()
		if err != nil {
			return nil, fmt.Errorf("ecdsa curve name: %w", err)
		}
		p, err := c.ReadBytes()
		if err != nil {
			return nil, fmt.Errorf("ecdsa point: %w", err)
		}
		curve, ec, err := curveFor(p)
		if err != nil {
			return nil, err
		}
		if ecdsaTypePrfx+curve != tag || name != curve {
			return nil, fmt.Errorf("%q key carries a %s point (named %q): %w", tag, curve, name, ErrMalformedKey)
		}
		if _, err := ec.NewPublicKey(p); err != nil {
			return nil, fmt.Errorf("ecdsa point: %v: %w", err, ErrMalformedKey)
		}
		k = &ECKey{Curve: curve, Point: bytes.Clone(p)}

	default:
		return nil, &UnknownPublicKeyFormatError{Format: tag}
	}

	if c.Remaining() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after %s key: %w", c.Remaining(), tag, ErrMalformedKey)
	}
	return k, nil
}

// Encode returns the wire encoding of k.
func Encode(k Key) []byte {
	return k.Marshal()
}

// Equal reports whether a and b are the same key material.
func Equal(a, b Key) bool {
	if a == nil || b == nil {
		return false
	}
	return bytes.Equal(a.Marshal(), b.Marshal())
}

// FromSSH converts a key presented by an ssh client.
func FromSSH(pk ssh.PublicKey) (Key, error) {
	if pk == nil {
		return nil, errors.New("nil public key")
	}
	return Decode(pk.Type(), pk.Marshal())
}

// ToSSH converts k to the x/crypto/ssh representation.
func ToSSH(k Key) (ssh.PublicKey, error) {
	return ssh.ParsePublicKey(k.Marshal())
}
