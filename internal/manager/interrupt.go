package manager

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
)

// Interrupter suspends a run until an operator resumes it. Interrupt blocks
// until resumption or ctx cancellation.
type Interrupter interface {
	Interrupt(ctx context.Context, diagnostic string) error
}

// ChannelInterrupter is resumed programmatically, e.g. from an HTTP handler.
type ChannelInterrupter struct {
	mu      sync.Mutex
	pending string
	waiting bool
	resume  chan struct{}
}

// NewChannelInterrupter creates a ChannelInterrupter.
func NewChannelInterrupter() *ChannelInterrupter {
	return &ChannelInterrupter{resume: make(chan struct{}, 1)}
}

// Interrupt implements Interrupter.
func (c *ChannelInterrupter) Interrupt(ctx context.Context, diagnostic string) error {
	c.mu.Lock()
	c.pending = diagnostic
	c.waiting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.pending = ""
		c.waiting = false
		c.mu.Unlock()
	}()

	select {
	case <-c.resume:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Resume releases a waiting Interrupt. It reports false when nothing is waiting.
func (c *ChannelInterrupter) Resume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.waiting {
		return false
	}
	select {
	case c.resume <- struct{}{}:
	default:
	}
	return true
}

// Pending returns the diagnostic of the suspended run, if any.
func (c *ChannelInterrupter) Pending() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending, c.waiting
}

// TerminalInterrupter prints the diagnostic and waits for Enter.
type TerminalInterrupter struct {
	out io.Writer

	mu      sync.Mutex
	waiting chan error
	err     error
}

// NewTerminalInterrupter starts reading operator input from in.
func NewTerminalInterrupter(in io.Reader, out io.Writer) *TerminalInterrupter {
	t := &TerminalInterrupter{out: out}
	go t.read(in)
	return t
}

// Interrupt implements Interrupter. Once input is closed every call fails.
func (t *TerminalInterrupter) Interrupt(ctx context.Context, diagnostic string) error {
	t.mu.Lock()
	if t.err != nil {
		err := t.err
		t.mu.Unlock()
		return err
	}
	ch := make(chan error, 1)
	t.waiting = ch
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.waiting = nil
		t.mu.Unlock()
	}()

	fmt.Fprintf(t.out, "\n!! %s\n", diagnostic)
	fmt.Fprintln(t.out, "Fix the problem, then press Enter to retry (Ctrl+C to abort).")

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Waiting reports whether an Interrupt is waiting for the operator.
func (t *TerminalInterrupter) Waiting() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.waiting != nil
}

// read hands each line to the waiting Interrupt. Lines typed while nothing
// is waiting are dropped.
func (t *TerminalInterrupter) read(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		t.deliver(nil)
	}
	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	err = fmt.Errorf("read operator input: %w", err)

	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
	t.deliver(err)
}

func (t *TerminalInterrupter) deliver(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.waiting == nil {
		return
	}
	select {
	case t.waiting <- err:
	default:
	}
}
