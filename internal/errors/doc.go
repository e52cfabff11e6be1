// Package errors defines the error taxonomy for the MCP client runtime.
//
// This package provides structured error types for the failure classes a
// connection can hit: invalid configuration, channel establishment and
// mid-flight channel failure, per-call timeouts, typed-decode failures,
// protocol-engine errors, and subprocess termination. All error types
// support error unwrapping and can be checked using errors.Is, errors.As,
// and errors.AsType.
package errors
