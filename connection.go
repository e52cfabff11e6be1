package mcpclient

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/mcp-client-go/internal/subprocess"
)

// ProcessExit is the terminal outcome of a subprocess-backed channel.
// Connections over network channels report nil instead.
type ProcessExit struct {
	// Code is the exit code, or -1 when the process was terminated by a
	// signal or the outcome is unknown.
	Code int

	// Signal names the terminating signal when the process was signaled.
	Signal string
}

// Signaled reports whether the process was terminated by a signal.
func (e *ProcessExit) Signaled() bool {
	return e.Signal != ""
}

func (e *ProcessExit) String() string {
	if e.Signaled() {
		return fmt.Sprintf("terminated by signal %s", e.Signal)
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

// Connection is the unique owner of a session's teardown. It is created
// alongside its paired Client at build time and must not be copied.
//
// Closing is safe while handle calls are in flight; those calls fail
// with a ConnectionError rather than hanging. If a Connection is
// discarded without Close or Wait, a runtime cleanup still signals the
// channel subprocess to terminate, but relying on it leaves the timing
// to the garbage collector; call Close.
type Connection struct {
	sess    *session
	cleanup runtime.Cleanup

	mu     sync.Mutex
	closed bool
	exit   *ProcessExit
}

func newConnection(sess *session) *Connection {
	c := &Connection{sess: sess}

	// Safety net for discarded connections. The cleanup must not capture
	// c, so it holds the process (or engine session) directly.
	if sess.proc != nil {
		c.cleanup = runtime.AddCleanup(c, func(p *subprocess.Process) { p.Kill() }, sess.proc)
	} else {
		c.cleanup = runtime.AddCleanup(c, func(ms *mcp.ClientSession) { _ = ms.Close() }, sess.mcp)
	}

	return c
}

// Close shuts the session down gracefully and, for subprocess-backed
// channels, waits for the child and returns its exit outcome. Network
// channels return a nil outcome.
//
// Close is idempotent: a second call, or a call after the channel
// already terminated on its own, returns the previously observed outcome
// without error.
func (c *Connection) Close(ctx context.Context) (*ProcessExit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return c.exit, nil
	}

	c.closed = true
	c.cleanup.Stop()
	c.sess.log.Debug("Closing connection")

	closeErr := c.sess.close()

	if c.sess.proc == nil {
		return nil, closeErr
	}

	if closeErr != nil {
		// The channel may already be dead; the process outcome below is
		// the authoritative answer.
		c.sess.log.Debug("Session close reported error", "error", closeErr)
	}

	status, err := c.sess.proc.Shutdown(ctx)
	if status == nil {
		return nil, err
	}

	c.exit = exitFromStatus(status)

	return c.exit, nil
}

// Wait blocks until the channel terminates on its own, without
// initiating shutdown, and returns the same outcome Close would. Use it
// to observe unexpected termination distinctly from caller-initiated
// close.
func (c *Connection) Wait(ctx context.Context) (*ProcessExit, error) {
	c.mu.Lock()

	if c.closed {
		defer c.mu.Unlock()

		return c.exit, nil
	}
	c.mu.Unlock()

	if c.sess.proc == nil {
		err := c.sess.mcp.Wait()

		c.mu.Lock()
		defer c.mu.Unlock()

		if !c.closed {
			c.closed = true
			c.cleanup.Stop()
			c.sess.closed.Store(true)
		}

		return nil, err
	}

	status, err := c.sess.proc.Wait(ctx)
	if status == nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		c.cleanup.Stop()

		// The process is gone; release the engine's side of the channel.
		_ = c.sess.close()

		c.exit = exitFromStatus(status)
	}

	return c.exit, nil
}

// TryExitStatus returns the exit outcome if it is already available, nil
// otherwise. It never blocks and never initiates shutdown.
func (c *Connection) TryExitStatus() *ProcessExit {
	c.mu.Lock()

	if c.closed {
		defer c.mu.Unlock()

		return c.exit
	}
	c.mu.Unlock()

	if c.sess.proc == nil {
		return nil
	}

	return exitFromStatus(c.sess.proc.TryExit())
}

func exitFromStatus(status *subprocess.ExitStatus) *ProcessExit {
	if status == nil {
		return nil
	}

	return &ProcessExit{Code: status.Code, Signal: status.Signal}
}
