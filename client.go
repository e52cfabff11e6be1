package mcpclient

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/mcp-client-go/internal/errors"
	"github.com/wagiedev/mcp-client-go/internal/subprocess"
)

// Protocol operation names used for error context.
const (
	opInitialize = "initialize"
	opToolsList  = "tools/list"
	opToolsCall  = "tools/call"
)

// maxArgsPreview caps the compact argument rendering attached to errors.
const maxArgsPreview = 256

// exitProbeWait bounds how long an in-flight call waits for the reaper
// after a protocol failure, so a crashed subprocess is reported as a
// connection error with its exit context rather than a bare engine error.
const exitProbeWait = 250 * time.Millisecond

// Client is a cheap-to-copy handle for issuing requests against a shared
// session. Any number of handles may operate on the same session
// concurrently; the protocol engine correlates in-flight requests.
//
// Each handle carries its own timeout. WithTimeout returns a new handle
// over the same session, leaving the original untouched.
type Client struct {
	sess    *session
	timeout time.Duration
}

func newClient(sess *session, timeout time.Duration) *Client {
	return &Client{sess: sess, timeout: timeout}
}

// WithTimeout returns a new handle sharing the same session with a
// different per-call timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	return &Client{sess: c.sess, timeout: d}
}

// Timeout returns the handle's per-call timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// ServerInfo returns the server's initialize result from the handshake.
func (c *Client) ServerInfo() *mcp.InitializeResult {
	return c.sess.mcp.InitializeResult()
}

// ListTools fetches all tools the server exposes, following pagination
// until the catalog is exhausted.
//
// Returns a TimeoutError if the whole listing exceeds the handle's
// timeout, a ConnectionError if the channel has closed, or a
// ServiceError wrapping any other engine failure.
func (c *Client) ListTools(ctx context.Context) ([]*mcp.Tool, error) {
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		tools  []*mcp.Tool
		cursor string
	)

	for {
		res, err := c.sess.mcp.ListTools(cctx, &mcp.ListToolsParams{Cursor: cursor})
		if err != nil {
			return nil, c.wrapCallError(opToolsList, "", "", err)
		}

		tools = append(tools, res.Tools...)

		if res.NextCursor == "" {
			return tools, nil
		}

		cursor = res.NextCursor
	}
}

// CallTool invokes a named tool with the given arguments and returns the
// raw result. The result's IsError flag is passed through untouched;
// callers needing typed decoding should use CallToolTyped.
//
// Arguments may be any JSON-marshalable value. Payloads that do not
// marshal to a JSON object are deliberately sent as "no arguments"
// rather than rejected; the protocol only defines object-shaped tool
// arguments and this preserves the permissive behavior callers rely on.
func (c *Client) CallTool(ctx context.Context, name string, args any) (*mcp.CallToolResult, error) {
	raw, err := encodeArguments(args)
	if err != nil {
		return nil, &errors.ServiceError{
			Operation: opToolsCall,
			Tool:      name,
			Err:       fmt.Errorf("encode arguments: %w", err),
		}
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &mcp.CallToolParams{Name: name}
	if raw != nil {
		params.Arguments = raw
	}

	res, err := c.sess.mcp.CallTool(cctx, params)
	if err != nil {
		return nil, c.wrapCallError(opToolsCall, name, compactArgs(raw), err)
	}

	return res, nil
}

// wrapCallError classifies an engine failure with the calling operation's
// context. Timeouts from the handle's deadline map to TimeoutError, a
// dead channel maps to ConnectionError, everything else is wrapped as a
// ServiceError. Caller cancellation is returned as-is.
func (c *Client) wrapCallError(op, tool, args string, err error) error {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return &errors.TimeoutError{Operation: op, Tool: tool, Duration: c.timeout}
	case stderrors.Is(err, context.Canceled):
		return err
	}

	if c.sess.proc != nil {
		if exit := c.probeExit(err); exit != nil {
			return &errors.ConnectionError{
				Transport: c.sess.transport,
				Endpoint:  c.sess.endpoint,
				Err: &errors.ProcessError{
					ExitCode: exit.Code,
					Stderr:   c.sess.proc.Stderr(),
					Err:      err,
				},
			}
		}
	}

	if c.sess.closed.Load() {
		return &errors.ConnectionError{
			Transport: c.sess.transport,
			Endpoint:  c.sess.endpoint,
			Err:       errors.ErrClosed,
		}
	}

	if isDisconnect(err) {
		// The remote side went away on its own; no Close ran on this end.
		return &errors.ConnectionError{
			Transport: c.sess.transport,
			Endpoint:  c.sess.endpoint,
			Err:       err,
		}
	}

	return &errors.ServiceError{Operation: op, Tool: tool, Args: args, Err: err}
}

// isDisconnect reports whether an engine failure means the channel is
// gone rather than the call being rejected. An in-flight call broken by
// a transport failure carries the raw read error; calls issued after the
// engine noticed the death wrap mcp.ErrConnectionClosed.
func isDisconnect(err error) bool {
	return stderrors.Is(err, mcp.ErrConnectionClosed) ||
		stderrors.Is(err, io.EOF) ||
		stderrors.Is(err, io.ErrUnexpectedEOF) ||
		stderrors.Is(err, io.ErrClosedPipe) ||
		stderrors.Is(err, net.ErrClosed) ||
		stderrors.Is(err, os.ErrClosed)
}

// probeExit gives the reaper a short window to observe the subprocess's
// death, so a crash that just broke an in-flight call is classified with
// its exit status instead of racing the reaper to a verdict. The window
// is only paid when the failure looks like a severed channel; a call the
// server rejected over a live channel returns immediately.
func (c *Client) probeExit(callErr error) *subprocess.ExitStatus {
	if exit := c.sess.proc.TryExit(); exit != nil {
		return exit
	}

	if !isDisconnect(callErr) {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), exitProbeWait)
	defer cancel()

	exit, _ := c.sess.proc.Wait(ctx)

	return exit
}

// encodeArguments marshals tool arguments, downcasting anything that is
// not a JSON object to nil ("no arguments"). See CallTool.
func encodeArguments(args any) (json.RawMessage, error) {
	if args == nil {
		return nil, nil
	}

	data, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, nil
	}

	return json.RawMessage(data), nil
}

// compactArgs renders arguments for error context, truncated to keep
// messages readable.
func compactArgs(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}

	s := string(raw)
	if len(s) > maxArgsPreview {
		s = s[:maxArgsPreview] + "..."
	}

	return s
}
