// Copyright 2018-2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/u-root/sshdaemon/shell"
)

// Mode selects how a Session drives its child.
type Mode int

const (
	// Batch runs one command with `sh -c`, stdout and stderr kept apart.
	Batch Mode = iota
	// Interactive runs a shell behind a Terminal, stderr merged into stdout.
	Interactive
)

func (m Mode) String() string {
	if m == Interactive {
		return "interactive"
	}
	return "batch"
}

// Exit codes for sessions that never ran their command.
const (
	ExitFailure  = 1
	ExitNotFound = 127
)

const (
	batchBufSize = 8192
	ttyBufSize   = 1024

	batchJoin = 2 * time.Second
	ttyJoin   = 1 * time.Second

	// initDelay is how long an interactive shell gets to start before
	// we turn off its echo and prompt.
	initDelay    = 200 * time.Millisecond
	initCommands = "stty -echo 2>/dev/null || true\nexport PS1=''\n"
)

// ErrNoShell is returned by Start when no candidate shell works.
var ErrNoShell = errors.New("no working shell found")

// Finder finds a shell to run commands with.
type Finder interface {
	Find(ctx context.Context) (string, bool)
}

// Session is one command or shell started on behalf of an SSH channel.
// It is used much like exec.Cmd: set Stdin, Stdout and Stderr, then
// Start and Wait, or Run.
type Session struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	mode    Mode
	dir     string
	command string
	env     []string
	shells  Finder
	usePTY  bool

	mu        sync.Mutex
	cmd       *exec.Cmd
	term      *Terminal
	ptmx      *os.File
	cols      int
	rows      int
	out       io.Writer // Stdout, serialized between echo and output
	in        io.Writer // child's stdin, serialized
	stdin     io.Closer
	pipes     []io.Closer
	initTimer *time.Timer
	destroyed bool
	started   bool

	stdinOnce sync.Once
	pumps     sync.WaitGroup
	moved     atomic.Int64

	exitOnce sync.Once
	onExit   func(int)
	code     int
	exited   chan struct{}
}

// New returns a Session that will run command (Batch) or a shell
// (Interactive) in dir. env is the environment the client sent; see
// Environ for what is added to it.
func New(mode Mode, dir, command string, env []string) *Session {
	if dir == "" {
		dir = "/"
	}
	cols, rows := TermSize(env)
	return &Session{
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		mode:    mode,
		dir:     dir,
		command: command,
		env:     env,
		shells:  shell.New(),
		cols:    cols,
		rows:    rows,
		exited:  make(chan struct{}),
	}
}

// SetShellFinder replaces the default shell.Locator.
func (s *Session) SetShellFinder(f Finder) {
	s.shells = f
}

// UsePTY makes an interactive session try a real pty first. If no pty
// can be opened the session falls back to the emulated terminal.
func (s *Session) UsePTY(b bool) {
	s.usePTY = b
}

// OnExit sets a function to be called, once, with the exit code.
// It must be set before Start.
func (s *Session) OnExit(f func(code int)) {
	s.onExit = f
}

// BytesOut returns how many bytes the child has written so far.
func (s *Session) BytesOut() int64 {
	return s.moved.Load()
}

// Terminal returns the emulated terminal of an interactive session, or
// nil.
func (s *Session) Terminal() *Terminal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.term
}

func (s *Session) exit(code int) {
	s.exitOnce.Do(func() {
		s.code = code
		verbose("exit %d", code)
		if s.onExit != nil {
			s.onExit(code)
		}
		close(s.exited)
	})
}

// fail tells both the operator and the client why the session ended.
func (s *Session) fail(code int, lines ...string) {
	for _, l := range lines {
		log.Printf("session: %s", l)
		fmt.Fprintf(s.Stderr, "%s\r\n", l)
	}
	s.exit(code)
}

func (s *Session) noShell() error {
	if s.mode == Batch {
		s.fail(ExitNotFound, "ERROR: No working shell found on this device.")
		return ErrNoShell
	}
	s.fail(ExitFailure,
		Colorize(Red, "ERROR: No working shell found on this device."),
		"This may be due to:",
		"1. Restricted environment",
		"2. Missing shell binaries",
		"3. Permission restrictions",
		"",
		"Please check device configuration or contact the administrator.")
	return ErrNoShell
}

func (s *Session) buildCmd(path string, env []string) *exec.Cmd {
	var c *exec.Cmd
	if s.mode == Batch {
		c = exec.Command(path, "-c", s.command)
	} else {
		c = exec.Command(path)
	}
	c.Dir, c.Env = s.dir, env
	return c
}

// Start finds a shell and starts the child and its pumps. On failure
// the client has been told why, the exit code has been delivered, and
// the error is returned.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("session already started")
	}
	s.started = true
	if s.destroyed {
		s.exit(ExitFailure)
		return errors.New("session destroyed before start")
	}

	path, ok := s.shells.Find(context.Background())
	if !ok {
		return s.noShell()
	}
	verbose("%v session: shell %q, dir %q, command %q", s.mode, path, s.dir, s.command)
	env := Environ(s.env, s.dir, path)
	s.out = &lockedWriter{w: s.Stdout}

	if s.mode == Interactive {
		s.term = NewTerminal(env, Getenv(env, "USER"), s.dir)
		s.term.Resize(s.cols, s.rows)
		if s.usePTY {
			err := s.startPTY(s.buildCmd(path, env))
			if err == nil {
				go s.supervise()
				return nil
			}
			verbose("no pty (%v), emulating a terminal", err)
		}
	}

	if err := s.startPipes(s.buildCmd(path, env)); err != nil {
		s.fail(ExitFailure, fmt.Sprintf("Command execution error: %v", err))
		return err
	}
	go s.supervise()
	return nil
}

// startPipes starts c on pipes. The child's ends are closed in the
// parent once it is running, so the pumps see EOF when the child (and
// anything it left holding them) is gone.
func (s *Session) startPipes(c *exec.Cmd) error {
	var parent []*os.File
	closeAll := func(fs []*os.File) {
		for _, f := range fs {
			f.Close()
		}
	}
	pipe := func() (*os.File, *os.File, error) {
		r, w, err := os.Pipe()
		if err == nil {
			parent = append(parent, r, w)
		}
		return r, w, err
	}

	inR, inW, err := pipe()
	if err != nil {
		return err
	}
	outR, outW, err := pipe()
	if err != nil {
		closeAll(parent)
		return err
	}
	var errR, errW *os.File
	if s.mode == Batch {
		if errR, errW, err = pipe(); err != nil {
			closeAll(parent)
			return err
		}
	}

	c.Stdin, c.Stdout, c.Stderr = inR, outW, outW
	if errW != nil {
		c.Stderr = errW
	}
	c.SysProcAttr = sysProcAttr()
	if err := c.Start(); err != nil {
		closeAll(parent)
		return err
	}
	closeAll([]*os.File{inR, outW})
	if errW != nil {
		errW.Close()
	}

	s.cmd = c
	s.in = &lockedWriter{w: inW}
	s.stdin = inW
	s.pipes = []io.Closer{outR, inW}
	if errR != nil {
		s.pipes = append(s.pipes, errR)
	}

	if s.mode == Batch {
		go s.inputPump(batchBufSize)
		s.pumps.Add(2)
		go s.pump("stdout", s.out, outR, batchBufSize, nil)
		go s.pump("stderr", s.Stderr, errR, batchBufSize, nil)
		return nil
	}

	if _, err := s.out.Write(s.term.Banner()); err != nil {
		verbose("banner: %v", err)
	}
	go s.inputPump(ttyBufSize)
	s.pumps.Add(1)
	go s.pump("output", s.out, outR, ttyBufSize, s.term.Output)
	s.initTimer = time.AfterFunc(initDelay, func() {
		if _, err := s.in.Write([]byte(initCommands)); err != nil {
			verbose("shell init: %v", err)
		}
	})
	return nil
}

// supervise waits for the child, gives the output pumps a bounded time
// to drain, and reports the exit code.
func (s *Session) supervise() {
	err := s.cmd.Wait()
	code := exitCode(err, s.cmd.ProcessState)
	verbose("child %v exited: %v, code %d", s.cmd.Args, err, code)

	d := batchJoin
	if s.mode == Interactive {
		d = ttyJoin
	}
	if !s.joinPumps(d) {
		verbose("pumps idle for %v after exit, abandoning them", d)
	}

	s.mu.Lock()
	if s.initTimer != nil {
		s.initTimer.Stop()
	}
	for _, p := range s.pipes {
		p.Close()
	}
	if s.ptmx != nil {
		s.ptmx.Close()
	}
	s.mu.Unlock()
	s.exit(code)
}

// joinPumps waits for the output pumps. It gives up once they have
// moved no bytes for d.
func (s *Session) joinPumps(d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.pumps.Wait()
		close(done)
	}()
	t := time.NewTimer(d)
	defer t.Stop()
	last := s.moved.Load()
	for {
		select {
		case <-done:
			return true
		case <-t.C:
			n := s.moved.Load()
			if n == last {
				return false
			}
			last = n
			t.Reset(d)
		}
	}
}

// Wait waits for the exit code. It must follow Start.
func (s *Session) Wait() int {
	<-s.exited
	return s.code
}

// Run starts the session and waits for it.
func (s *Session) Run() int {
	if err := s.Start(); err != nil {
		verbose("start: %v", err)
	}
	return s.Wait()
}

// Destroy kills the child and everything in its process group and
// closes its stdin. The pumps unwind as their streams close. It is
// safe to call more than once.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.destroyed = true
	if s.initTimer != nil {
		s.initTimer.Stop()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		verbose("destroy: killing %d", s.cmd.Process.Pid)
		killGroup(s.cmd.Process)
	}
	s.closeStdin()
}

func (s *Session) closeStdin() {
	s.stdinOnce.Do(func() {
		if s.stdin != nil {
			s.stdin.Close()
		}
	})
}

// Resize records a new terminal size, and passes it to the pty if
// there is one.
func (s *Session) Resize(cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cols <= 0 || rows <= 0 {
		return
	}
	s.cols, s.rows = cols, rows
	if s.term != nil {
		s.term.Resize(cols, rows)
	}
	if s.ptmx != nil {
		if err := setPTYSize(s.ptmx, cols, rows); err != nil {
			verbose("resize: %v", err)
		}
	}
}
