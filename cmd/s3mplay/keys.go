package main

import (
	"context"
	"os"

	"golang.org/x/term"

	"github.com/olivierh59500/s3m-player/pkg/st3"
)

const (
	keyCtrlC  = 0x03
	keyEscape = 0x1B
)

// startKeyboard puts the terminal in raw mode and streams key presses.
// The returned function restores the terminal.
func startKeyboard() (<-chan byte, func()) {
	keys := make(chan byte, 16)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return keys, func() {}
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		logger.Printf("failed to set raw mode: %v", err)
		return keys, func() {}
	}

	// The reader cannot be interrupted; it ends with the process.
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				close(keys)
				return
			}
			if n > 0 {
				keys <- buf[0]
			}
		}
	}()

	return keys, func() { _ = term.Restore(fd, oldState) }
}

// handleKeys applies key presses to the session until quit or ctx ends.
func handleKeys(ctx context.Context, keys <-chan byte, sess *st3.Session, quit func()) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case k, ok := <-keys:
			if !ok {
				return nil
			}
			if applyKey(k, sess) {
				quit()
				return nil
			}
		}
	}
}

// applyKey runs the action bound to k and reports whether k quits.
func applyKey(k byte, sess *st3.Session) bool {
	switch k {
	case keyEscape, keyCtrlC, 'q', 'Q':
		return true
	case ' ':
		sess.TogglePause()
	case '+', '=':
		sess.Seek(1)
	case '-', '_':
		sess.Seek(-1)
	}
	return false
}
