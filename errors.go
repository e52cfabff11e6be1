package mcpclient

import "github.com/wagiedev/mcp-client-go/internal/errors"

// Re-export error types from internal package

// ClientError is the base interface for all classified client errors.
type ClientError = errors.ClientError

// InvalidConfigError indicates bad builder input, caught before any
// process or socket is created.
type InvalidConfigError = errors.InvalidConfigError

// ConnectionError indicates channel establishment failed or the channel
// failed mid-flight.
type ConnectionError = errors.ConnectionError

// TimeoutError indicates an operation exceeded the handle's timeout.
type TimeoutError = errors.TimeoutError

// ParseError indicates a typed tool result could not be decoded.
type ParseError = errors.ParseError

// ServiceError wraps a protocol-engine error with operation context.
type ServiceError = errors.ServiceError

// ProcessError indicates the channel subprocess terminated.
type ProcessError = errors.ProcessError

// Transport identifies which channel variant an error originated from.
type Transport = errors.Transport

// Transport values carried by ConnectionError.
const (
	TransportStdio      = errors.TransportStdio
	TransportSSE        = errors.TransportSSE
	TransportStreamable = errors.TransportStreamable
)

// Re-export sentinel errors from internal package.
var (
	// ErrClosed indicates the underlying session has been torn down.
	ErrClosed = errors.ErrClosed

	// ErrNoTextContent indicates a tool result carried no text content.
	ErrNoTextContent = errors.ErrNoTextContent
)
