package bootstrap

import (
	"bufio"
	"context"
	"io"
)

// Acknowledger blocks until the operator confirms the browser shows the
// sitemap.
type Acknowledger interface {
	Wait(ctx context.Context) error
}

// AcknowledgerFunc adapts a function to Acknowledger.
type AcknowledgerFunc func(ctx context.Context) error

// Wait calls f.
func (f AcknowledgerFunc) Wait(ctx context.Context) error {
	return f(ctx)
}

// Acknowledged returns an Acknowledger that never blocks.
func Acknowledged() Acknowledger {
	return AcknowledgerFunc(func(context.Context) error { return nil })
}

// ConsoleAcknowledger waits for a line (Enter) on its reader. There is no
// timeout; only ctx cancellation ends the wait early.
type ConsoleAcknowledger struct {
	in io.Reader
}

// NewConsoleAcknowledger reads confirmations from in, usually os.Stdin.
func NewConsoleAcknowledger(in io.Reader) *ConsoleAcknowledger {
	return &ConsoleAcknowledger{in: in}
}

// Wait blocks until a line is read. EOF counts as confirmation, so a closed
// stdin does not hang the run.
func (a *ConsoleAcknowledger) Wait(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(a.in).ReadString('\n')
		if err == io.EOF {
			err = nil
		}
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
