// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package keys

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// MaxFieldLen is the longest field a Cursor will return. A 16384-bit
// RSA modulus is 2049 bytes, so anything near this is garbage.
const MaxFieldLen = 16 << 10

// Cursor reads length-prefixed fields from a wire blob.
type Cursor struct {
	b   []byte
	off int
}

// NewCursor returns a Cursor positioned at the start of b.
func NewCursor(b []byte) *Cursor {
	return &Cursor{b: b}
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.b) - c.off
}

// ReadBytes reads one uint32 length and that many bytes.
// The returned slice aliases the blob.
func (c *Cursor) ReadBytes() ([]byte, error) {
	if c.Remaining() < 4 {
		return nil, fmt.Errorf("length at offset %d: %w", c.off, ErrMalformedKey)
	}
	n := binary.BigEndian.Uint32(c.b[c.off:])
	if n > MaxFieldLen {
		return nil, fmt.Errorf("field at offset %d is %d bytes, limit is %d: %w", c.off, n, MaxFieldLen, ErrMalformedKey)
	}
	if int(n) > c.Remaining()-4 {
		return nil, fmt.Errorf("field at offset %d wants %d bytes, %d left: %w", c.off, n, c.Remaining()-4, ErrMalformedKey)
	}
	c.off += 4
	f := c.b[c.off : c.off+int(n)]
	c.off += int(n)
	return f, nil
}

// ReadString reads a field as a string.
func (c *Cursor) ReadString() (string, error) {
	b, err := c.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadMPInt reads an RFC 4251 mpint. Negative values are rejected,
// since no public key component is negative.
func (c *Cursor) ReadMPInt() (*big.Int, error) {
	b, err := c.ReadBytes()
	if err != nil {
		return nil, err
	}
	if len(b) > 0 && b[0]&0x80 != 0 {
		return nil, fmt.Errorf("negative mpint: %w", ErrMalformedKey)
	}
	return new(big.Int).SetBytes(b), nil
}

// appendBytes appends b as a length-prefixed field.
func appendBytes(buf, b []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

// appendMPInt appends a non-negative i as an mpint. Zero is the empty
// string, and a 0x00 is prepended when the top bit of the first byte is
// set.
func appendMPInt(buf []byte, i *big.Int) []byte {
	b := i.Bytes()
	if len(b) > 0 && b[0]&0x80 != 0 {
		b = append([]byte{0}, b...)
	}
	return appendBytes(buf, b)
}
