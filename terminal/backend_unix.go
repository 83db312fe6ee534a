//go:build unix

package terminal

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

const (
	// pollTimeoutMs bounds how long Read takes to notice its stop channel
	pollTimeoutMs = 100
	readBufSize   = 64

	fallbackCols = 80
	fallbackRows = 24
)

// ttyBackend drives the process's own stdin/stdout
type ttyBackend struct {
	out   *os.File
	inFd  int
	outFd int
	saved *term.State

	// resize watcher; nil when not running
	stopResize chan struct{}
	resizeDone chan struct{}
}

func newBackend() Backend {
	return &ttyBackend{
		out:   os.Stdout,
		inFd:  int(os.Stdin.Fd()),
		outFd: int(os.Stdout.Fd()),
	}
}

func (b *ttyBackend) Init() error {
	for _, f := range []struct {
		name string
		fd   int
	}{{"stdin", b.inFd}, {"stdout", b.outFd}} {
		if !term.IsTerminal(f.fd) {
			return fmt.Errorf("%w: %s", ErrNotTerminal, f.name)
		}
	}

	saved, err := term.MakeRaw(b.inFd)
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	b.saved = saved
	return nil
}

func (b *ttyBackend) Fini() {
	if b.stopResize != nil {
		close(b.stopResize)
		<-b.resizeDone
		b.stopResize = nil
	}
	if b.saved != nil {
		term.Restore(b.inFd, b.saved)
		b.saved = nil
	}
}

func (b *ttyBackend) Size() (int, int) {
	return windowSize(b.outFd)
}

func (b *ttyBackend) Write(p []byte) error {
	_, err := b.out.Write(p)
	return err
}

func (b *ttyBackend) Read(stopCh <-chan struct{}) ([]byte, error) {
	buf := make([]byte, readBufSize)
	for {
		select {
		case <-stopCh:
			return nil, nil
		default:
		}

		ready, err := b.waitInput()
		if err != nil {
			return nil, err
		}
		if !ready {
			continue
		}

		n, err := unix.Read(b.inFd, buf)
		switch {
		case errors.Is(err, unix.EINTR), errors.Is(err, unix.EAGAIN):
			continue
		case err != nil:
			return nil, err
		case n == 0:
			return nil, nil
		}
		return buf[:n:n], nil
	}
}

// waitInput reports whether stdin became readable within pollTimeoutMs
func (b *ttyBackend) waitInput() (bool, error) {
	fds := []unix.PollFd{{Fd: int32(b.inFd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, pollTimeoutMs)
	if errors.Is(err, unix.EINTR) {
		return false, nil
	}
	return n > 0, err
}

// SetResizeHandler calls handler with the new size on every SIGWINCH until Fini
func (b *ttyBackend) SetResizeHandler(handler func(width, height int)) {
	b.stopResize = make(chan struct{})
	b.resizeDone = make(chan struct{})
	go b.watchResize(handler, b.stopResize, b.resizeDone)
}

func (b *ttyBackend) watchResize(handler func(width, height int), stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	defer signal.Stop(winch)

	for {
		select {
		case <-stop:
			return
		case <-winch:
			handler(b.Size())
		}
	}
}

// windowSize asks the tty for its size; a failed or empty answer gives 80x24
func windowSize(fd int) (int, int) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 || ws.Row == 0 {
		return fallbackCols, fallbackRows
	}
	return int(ws.Col), int(ws.Row)
}
