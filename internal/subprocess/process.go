package subprocess

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/mcp-client-go/internal/config"
	"github.com/wagiedev/mcp-client-go/internal/errors"
)

const (
	// maxStderrBufferSize caps the captured stderr output. The pump keeps
	// draining past the cap so the child never blocks on a full pipe, but
	// the buffer stops growing.
	maxStderrBufferSize = 1024 * 1024 // 1MB

	// killGrace is how long Shutdown waits for the child to exit on its
	// own after the channel closes before escalating to Kill.
	killGrace = 5 * time.Second
)

// ExitStatus is the terminal outcome of the channel subprocess.
type ExitStatus struct {
	// Code is the numeric exit code, or -1 if the process was terminated
	// by a signal or the outcome is unknown.
	Code int

	// Signal is the name of the terminating signal, when the process was
	// signaled. Empty on normal exit and on platforms without signal
	// reporting.
	Signal string
}

// Signaled reports whether the process was terminated by a signal.
func (e *ExitStatus) Signaled() bool {
	return e.Signal != ""
}

// Process is a spawned channel subprocess with its stdin/stdout pipes
// wired for protocol traffic and stderr captured for crash reporting.
//
// The process is reaped by a background goroutine once stdout reaches EOF
// and the stderr pump has drained, so Wait and TryExit never race the
// transport's final reads.
type Process struct {
	log    *slog.Logger
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *notifyReadCloser

	stderrMu  sync.Mutex
	stderrBuf strings.Builder

	mu     sync.Mutex
	killed bool

	eg     errgroup.Group
	waitCh chan struct{}

	exit    *ExitStatus
	waitErr error
}

// Spawn starts the configured command with stdin, stdout and stderr
// redirected into pipes owned by the returned Process. A failure leaves
// no process behind.
func Spawn(log *slog.Logger, opts *config.Options) (*Process, error) {
	//nolint:gosec // G204: the command is caller-provided by design
	cmd := exec.Command(opts.Command, opts.Args...)
	cmd.Dir = opts.Cwd
	cmd.Env = opts.BuildEnv()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &errors.ConnectionError{
			Transport: errors.TransportStdio,
			Endpoint:  opts.Command,
			Err:       err,
		}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &errors.ConnectionError{
			Transport: errors.TransportStdio,
			Endpoint:  opts.Command,
			Err:       err,
		}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &errors.ConnectionError{
			Transport: errors.TransportStdio,
			Endpoint:  opts.Command,
			Err:       err,
		}
	}

	if err := cmd.Start(); err != nil {
		log.Error("Failed to start server process", "command", opts.Command, "error", err)

		return nil, &errors.ConnectionError{
			Transport: errors.TransportStdio,
			Endpoint:  opts.Command,
			Err:       err,
		}
	}

	p := &Process{
		log:    log.With("component", "subprocess", "pid", cmd.Process.Pid),
		cmd:    cmd,
		stdin:  stdin,
		stdout: newNotifyReadCloser(stdout),
		waitCh: make(chan struct{}),
	}

	p.log.Debug("Server process started", "command", opts.Command, "args", opts.Args)

	p.eg.Go(func() error {
		p.pumpStderr(stderr)

		return nil
	})

	go p.reap()

	return p, nil
}

// Transport returns the protocol-engine transport speaking over the
// child's stdin/stdout pipes.
func (p *Process) Transport() mcp.Transport {
	return &mcp.IOTransport{
		Reader: p.stdout,
		Writer: p.stdin,
	}
}

// Pid returns the child's process ID.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Kill terminates the child immediately. Best-effort and idempotent; it
// does not wait for the process to be reaped.
func (p *Process) Kill() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.killed {
		return
	}

	p.killed = true

	if p.cmd.Process != nil {
		p.log.Debug("Killing server process")

		if err := p.cmd.Process.Kill(); err != nil {
			p.log.Debug("Kill failed", "error", err)
		}
	}

	// Release the parent's pipe ends so the reaper is never stuck
	// waiting on a transport that will no longer read.
	_ = p.stdin.Close()
	_ = p.stdout.Close()
}

// Wait blocks until the child has been reaped and returns its exit
// status. The status is memoized; concurrent and repeated calls observe
// the same outcome.
func (p *Process) Wait(ctx context.Context) (*ExitStatus, error) {
	select {
	case <-p.waitCh:
		return p.exit, p.waitErr
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryExit returns the exit status if the child has already been reaped,
// nil otherwise. It never blocks.
func (p *Process) TryExit() *ExitStatus {
	select {
	case <-p.waitCh:
		return p.exit
	default:
		return nil
	}
}

// Shutdown waits for the child to exit after the channel has closed,
// escalating to Kill after a grace period. Used by Connection.Close once
// the session has released the child's stdin.
func (p *Process) Shutdown(ctx context.Context) (*ExitStatus, error) {
	grace := time.NewTimer(killGrace)
	defer grace.Stop()

	select {
	case <-p.waitCh:
		return p.exit, p.waitErr
	case <-ctx.Done():
		p.Kill()

		return nil, ctx.Err()
	case <-grace.C:
		p.log.Debug("Server process did not exit within grace period, killing")
		p.Kill()
	}

	return p.Wait(ctx)
}

// Stderr returns the stderr output captured so far.
func (p *Process) Stderr() string {
	p.stderrMu.Lock()
	defer p.stderrMu.Unlock()

	return p.stderrBuf.String()
}

// pumpStderr drains the child's stderr into the capped buffer. It relies
// on process exit to close the pipe and end the scan.
func (p *Process) pumpStderr(stderr io.ReadCloser) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()

		p.stderrMu.Lock()

		if p.stderrBuf.Len() < maxStderrBufferSize {
			if p.stderrBuf.Len() > 0 {
				p.stderrBuf.WriteString("\n")
			}

			p.stderrBuf.WriteString(line)
		}

		p.stderrMu.Unlock()
	}

	if err := scanner.Err(); err != nil {
		p.log.Debug("Stderr scanner error", "error", err)
	}
}

// reap waits for the transport to finish reading stdout and the stderr
// pump to drain, then collects the child's exit status. Calling cmd.Wait
// earlier would close the parent's pipe ends and could truncate the final
// protocol messages.
func (p *Process) reap() {
	<-p.stdout.done
	_ = p.eg.Wait()

	err := p.cmd.Wait()

	switch {
	case err == nil:
		p.exit = &ExitStatus{Code: 0}
		p.log.Debug("Server process exited cleanly")
	default:
		if exitErr, ok := stderrors.AsType[*exec.ExitError](err); ok {
			p.exit = &ExitStatus{
				Code:   exitErr.ExitCode(),
				Signal: signalName(exitErr.ProcessState),
			}
			p.log.Debug("Server process exited", "code", p.exit.Code, "signal", p.exit.Signal)
		} else {
			p.exit = &ExitStatus{Code: -1}
			p.waitErr = err
			p.log.Debug("Server process wait failed", "error", err)
		}
	}

	close(p.waitCh)
}

// notifyReadCloser closes done on the first read error or on Close, so
// the reaper knows the transport is finished with the pipe.
type notifyReadCloser struct {
	rc   io.ReadCloser
	once sync.Once
	done chan struct{}
}

func newNotifyReadCloser(rc io.ReadCloser) *notifyReadCloser {
	return &notifyReadCloser{
		rc:   rc,
		done: make(chan struct{}),
	}
}

func (r *notifyReadCloser) Read(b []byte) (int, error) {
	n, err := r.rc.Read(b)
	if err != nil {
		r.once.Do(func() { close(r.done) })
	}

	return n, err
}

func (r *notifyReadCloser) Close() error {
	err := r.rc.Close()
	r.once.Do(func() { close(r.done) })

	return err
}
