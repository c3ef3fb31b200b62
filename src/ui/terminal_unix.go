//go:build unix

package ui

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

const refreshInterval = 100 * time.Millisecond

// Run puts the terminal in raw mode and handles keys until ctx is cancelled
// or the operator quits. The terminal state is restored on return.
func (t *Terminal) Run(ctx context.Context) error {
	fd := int(t.in.Fd())
	if !term.IsTerminal(fd) {
		return ErrNotTerminal
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to set raw mode: %w", err)
	}
	defer func() {
		if err := term.Restore(fd, oldState); err != nil {
			log.Printf("error while restoring terminal: %v\n", err)
		}
	}()
	if err := unix.SetNonblock(fd, true); err != nil {
		return fmt.Errorf("failed to set nonblocking stdin: %w", err)
	}
	defer unix.SetNonblock(fd, false)

	fmt.Fprintf(t.out, "%s\r\n", helpLine)
	t.render()
	defer t.leave()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	buf := make([]byte, 64)
	for {
		select {
		case <-ctx.Done():
			log.Println("Terminal interrupted")
			return nil
		case <-ticker.C:
			t.render()
		default:
		}
		n, err := unix.Read(fd, buf)
		if n > 0 {
			if handleKeys(t.panel, buf[:n]) {
				return ErrQuit
			}
			t.render()
			continue
		}
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return err
		}
		// EOF on stdin
		return ErrQuit
	}
}
