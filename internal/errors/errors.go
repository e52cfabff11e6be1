package errors

import (
	"errors"
	"fmt"
	"time"
)

// ClientError is the base interface for all classified client errors.
type ClientError interface {
	error
	IsClientError() bool
}

// Compile-time verification that all error types implement ClientError.
var (
	_ ClientError = (*InvalidConfigError)(nil)
	_ ClientError = (*ConnectionError)(nil)
	_ ClientError = (*TimeoutError)(nil)
	_ ClientError = (*ParseError)(nil)
	_ ClientError = (*ServiceError)(nil)
	_ ClientError = (*ProcessError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrClosed indicates the underlying session has been torn down.
	// Calls issued through a handle after the connection is closed fail
	// with a ConnectionError wrapping this sentinel.
	ErrClosed = errors.New("connection closed")

	// ErrNoTextContent indicates a tool result carried no text content
	// to decode a typed response from.
	ErrNoTextContent = errors.New("no text content in tool result")
)

// Transport identifies which channel variant an error originated from.
type Transport string

const (
	// TransportStdio is the subprocess stdin/stdout channel.
	TransportStdio Transport = "stdio"
	// TransportSSE is the server-sent-events HTTP channel.
	TransportSSE Transport = "sse"
	// TransportStreamable is the streamable HTTP channel.
	TransportStreamable Transport = "streamable"
)

// InvalidConfigError indicates bad builder input, caught before any
// process or socket is created.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

// IsClientError implements ClientError.
func (e *InvalidConfigError) IsClientError() bool { return true }

// ConnectionError indicates channel establishment failed or the channel
// failed mid-flight. Endpoint is the attempted command or URL.
type ConnectionError struct {
	Transport Transport
	Endpoint  string
	Err       error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error (%s %q): %v", e.Transport, e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsClientError implements ClientError.
func (e *ConnectionError) IsClientError() bool { return true }

// TimeoutError indicates an operation exceeded the handle's configured
// timeout. Tool is empty for operations other than tool calls.
type TimeoutError struct {
	Operation string
	Tool      string
	Duration  time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("operation %q (tool %q) timed out after %s", e.Operation, e.Tool, e.Duration)
	}

	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Duration)
}

// IsClientError implements ClientError.
func (e *TimeoutError) IsClientError() bool { return true }

// ParseError indicates a typed tool result could not be decoded into the
// target type. The raw payload is not retained; use CallTool directly
// when the raw result is needed.
type ParseError struct {
	Tool   string
	Target string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse result from tool %q into %s: %v", e.Tool, e.Target, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsClientError implements ClientError.
func (e *ParseError) IsClientError() bool { return true }

// ServiceError wraps an error surfaced by the protocol engine with the
// calling operation's context. Args is a compact rendering of the tool
// arguments, truncated for log hygiene.
type ServiceError struct {
	Operation string
	Tool      string
	Args      string
	Err       error
}

func (e *ServiceError) Error() string {
	switch {
	case e.Tool != "" && e.Args != "":
		return fmt.Sprintf("operation %q (tool %q, args %s) failed: %v", e.Operation, e.Tool, e.Args, e.Err)
	case e.Tool != "":
		return fmt.Sprintf("operation %q (tool %q) failed: %v", e.Operation, e.Tool, e.Err)
	default:
		return fmt.Sprintf("operation %q failed: %v", e.Operation, e.Err)
	}
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsClientError implements ClientError.
func (e *ServiceError) IsClientError() bool { return true }

// ProcessError indicates the channel subprocess terminated. Stderr holds
// the captured stderr output, capped at the subprocess buffer limit.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("server process exited (code %d): %s", e.ExitCode, e.Stderr)
	}

	return fmt.Sprintf("server process exited (code %d): %v", e.ExitCode, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsClientError implements ClientError.
func (e *ProcessError) IsClientError() bool { return true }
