// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

// PasswordChars are the characters RandomPassword draws from.
const PasswordChars = "0123456789qwertzuiopasdfghjklyxcvbnm"

// Password authenticates a single user with a fixed password.
type Password struct {
	User     string
	Password string
}

// Authenticate reports whether user and password both match.
func (p *Password) Authenticate(user, password string) bool {
	u := subtle.ConstantTimeCompare([]byte(user), []byte(p.User))
	w := subtle.ConstantTimeCompare([]byte(password), []byte(p.Password))
	return u&w == 1
}

// RandomPassword returns n characters from PasswordChars chosen with
// crypto/rand.
func RandomPassword(n int) (string, error) {
	if n < 0 {
		return "", fmt.Errorf("RandomPassword(%d): negative length", n)
	}
	max := big.NewInt(int64(len(PasswordChars)))
	b := make([]byte, n)
	for i := range b {
		j, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("RandomPassword: %w", err)
		}
		b[i] = PasswordChars[j.Int64()]
	}
	return string(b), nil
}
