// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package keys

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedKey is returned for truncated or inconsistent blobs.
	ErrMalformedKey = errors.New("malformed key")
	// ErrUnsupportedFormat matches every error for a key type or curve
	// this package does not handle.
	ErrUnsupportedFormat = errors.New("unsupported public key format")
)

// UnknownPublicKeyFormatError is returned for an algorithm name that is
// not one of the supported key types.
type UnknownPublicKeyFormatError struct {
	Format string
}

func (e *UnknownPublicKeyFormatError) Error() string {
	return fmt.Sprintf("unknown public key format %q", e.Format)
}

// Is makes errors.Is(err, ErrUnsupportedFormat) true.
func (e *UnknownPublicKeyFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// UnsupportedCurveError is returned for an EC point whose size does not
// belong to P-256, P-384 or P-521.
type UnsupportedCurveError struct {
	PointLen int
}

func (e *UnsupportedCurveError) Error() string {
	return fmt.Sprintf("unsupported EC curve: %d byte point", e.PointLen)
}

// Is makes errors.Is(err, ErrUnsupportedFormat) true.
func (e *UnsupportedCurveError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}
