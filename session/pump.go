// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import (
	"errors"
	"io"
	"os"
	"sync"
)

var pools = map[int]*sync.Pool{
	batchBufSize: newPool(batchBufSize),
	ttyBufSize:   newPool(ttyBufSize),
}

func newPool(size int) *sync.Pool {
	return &sync.Pool{
		New: func() interface{} {
			b := make([]byte, size)
			return &b
		},
	}
}

func getBuffer(size int) *[]byte {
	return pools[size].Get().(*[]byte)
}

func putBuffer(size int, b *[]byte) {
	pools[size].Put(b)
}

// lockedWriter serializes writes from more than one goroutine, e.g.
// terminal echo and child output both going to the client.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// closed reports errors that just mean the other end went away.
func closed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}

// pump copies child output from r to w, through filter if it is not
// nil, until r ends or w fails.
func (s *Session) pump(name string, w io.Writer, r io.Reader, size int, filter func([]byte) []byte) {
	defer s.pumps.Done()
	bp := getBuffer(size)
	defer putBuffer(size, bp)
	buf := *bp
	for {
		n, err := r.Read(buf)
		if n > 0 {
			s.moved.Add(int64(n))
			p := buf[:n]
			if filter != nil {
				p = filter(p)
			}
			if len(p) > 0 {
				if _, werr := w.Write(p); werr != nil {
					verbose("%s: write: %v", name, werr)
					return
				}
			}
		}
		if err != nil {
			if !closed(err) {
				verbose("%s: read: %v", name, err)
			}
			return
		}
	}
}

// inputPump copies client input to the child. With an emulated
// terminal the input goes through its line discipline first. Client
// EOF, or ^D on an empty line, closes the child's stdin.
func (s *Session) inputPump(size int) {
	defer s.closeStdin()
	bp := getBuffer(size)
	defer putBuffer(size, bp)
	buf := *bp
	term := s.term
	if s.ptmx != nil {
		term = nil
	}
	for {
		n, err := s.Stdin.Read(buf)
		if n > 0 {
			fwd := buf[:n]
			if term != nil {
				in := term.Input(buf[:n])
				if len(in.Echo) > 0 {
					if _, werr := s.out.Write(in.Echo); werr != nil {
						verbose("input: echo: %v", werr)
					}
				}
				fwd = in.Forward
				if in.EOF {
					if len(fwd) > 0 {
						s.in.Write(fwd)
					}
					verbose("input: ^D")
					return
				}
			}
			if len(fwd) > 0 {
				if _, werr := s.in.Write(fwd); werr != nil {
					verbose("input: %v", werr)
					return
				}
			}
		}
		if err != nil {
			if !closed(err) {
				verbose("input: read: %v", err)
			}
			return
		}
	}
}
