//go:build linux

// Package coreposix implements a corerun.Reactor backed by a Linux
// eventfd self-pipe, in the style of the teacher pack's own
// wakeup_linux.go: a single fd doubles as both the wake source and the
// thing poll(2) blocks on, so an external goroutine can interrupt a
// blocked SchedulerRun/RegionDrain call by writing to it.
package coreposix

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/joeycumines/go-corerun/corerun"
)

// Reactor is a corerun.Reactor backed by a self-pipe eventfd. Wait
// blocks (bounded by budget's deadline, if any) until either the fd is
// written to or the deadline passes; GhostWait polls it once, never
// blocking, for use under deterministic-mode validation.
type Reactor struct {
	fd int
}

// New creates a Reactor with a fresh non-blocking eventfd. Callers must
// call Close when done.
func New() (*Reactor, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &Reactor{fd: fd}, nil
}

// Close releases the underlying eventfd.
func (r *Reactor) Close() error {
	if r.fd < 0 {
		return nil
	}
	err := unix.Close(r.fd)
	r.fd = -1
	return err
}

// Wake writes to the eventfd, unblocking a pending Wait.
func (r *Reactor) Wake() error {
	var buf [8]byte
	buf[7] = 1
	_, err := unix.Write(r.fd, buf[:])
	return err
}

func (r *Reactor) drain() {
	var buf [8]byte
	for {
		if _, err := unix.Read(r.fd, buf[:]); err != nil {
			return
		}
	}
}

// Wait blocks until woken or until budget's deadline passes, whichever
// is first. A zero deadline blocks indefinitely.
func (r *Reactor) Wait(budget corerun.Budget) error {
	timeoutMS := -1
	if budget.Deadline != 0 {
		d := time.Until(time.Unix(0, budget.Deadline))
		if d < 0 {
			d = 0
		}
		timeoutMS = int(d.Milliseconds())
	}
	pfd := []unix.PollFd{{Fd: int32(r.fd), Events: unix.POLLIN}}
	_, err := unix.Poll(pfd, timeoutMS)
	if err != nil {
		return err
	}
	if pfd[0].Revents&unix.POLLIN != 0 {
		r.drain()
	}
	return nil
}

// GhostWait polls the eventfd once without blocking, draining it if
// readable. It is the non-blocking counterpart HooksValidate requires
// of any Reactor installed under deterministic mode, so that
// replay/test harnesses never depend on real wall-clock timing.
func (r *Reactor) GhostWait() error {
	pfd := []unix.PollFd{{Fd: int32(r.fd), Events: unix.POLLIN}}
	_, err := unix.Poll(pfd, 0)
	if err != nil {
		return err
	}
	if pfd[0].Revents&unix.POLLIN != 0 {
		r.drain()
	}
	return nil
}
