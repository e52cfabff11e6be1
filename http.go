package mcpclient

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/mcp-client-go/internal/config"
	"github.com/wagiedev/mcp-client-go/internal/errors"
)

// ConnectSSE connects to a server-sent-events endpoint, performs the
// protocol handshake, and returns a Client handle paired with the
// Connection that owns teardown.
//
//	client, conn, err := mcpclient.ConnectSSE(ctx, "http://localhost:8080/mcp")
func ConnectSSE(ctx context.Context, url string, opts ...Option) (*Client, *Connection, error) {
	return connectHTTP(ctx, url, errors.TransportSSE, opts)
}

// ConnectStreamable connects to a streamable HTTP endpoint, performs the
// protocol handshake, and returns a Client handle paired with the
// Connection that owns teardown.
//
//	client, conn, err := mcpclient.ConnectStreamable(ctx, "http://localhost:8000/mcp")
func ConnectStreamable(ctx context.Context, url string, opts ...Option) (*Client, *Connection, error) {
	return connectHTTP(ctx, url, errors.TransportStreamable, opts)
}

func connectHTTP(ctx context.Context, url string, kind errors.Transport, opts []Option) (*Client, *Connection, error) {
	cfg := applyOptions(opts)
	cfg.URL = url

	if err := cfg.ValidateHTTP(); err != nil {
		return nil, nil, err
	}

	cfg.ApplyDefaults()

	log := newLogger(cfg).With("conn_id", ulid.Make().String())

	var transport mcp.Transport

	switch kind {
	case errors.TransportSSE:
		transport = &mcp.SSEClientTransport{
			Endpoint:   cfg.URL,
			HTTPClient: httpClient(cfg),
		}
	default:
		transport = &mcp.StreamableClientTransport{
			Endpoint:   cfg.URL,
			HTTPClient: httpClient(cfg),
		}
	}

	ms, err := handshake(ctx, cfg, transport)
	if err != nil {
		return nil, nil, &errors.ConnectionError{
			Transport: kind,
			Endpoint:  cfg.URL,
			Err:       err,
		}
	}

	log.Debug("Handshake complete", "url", cfg.URL)

	sess := &session{
		log:       log,
		mcp:       ms,
		transport: kind,
		endpoint:  cfg.URL,
	}

	return newClient(sess, cfg.Timeout), newConnection(sess), nil
}

// httpClient returns the configured HTTP client, wrapping its transport
// so the configured headers ride on every request.
func httpClient(cfg *config.Options) *http.Client {
	base := cfg.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}

	if len(cfg.Headers) == 0 {
		return base
	}

	wrapped := *base
	wrapped.Transport = &headerRoundTripper{
		base:    base.Transport,
		headers: cfg.Headers,
	}

	return &wrapped
}

// headerRoundTripper adds fixed headers to every outgoing request.
type headerRoundTripper struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	clone := req.Clone(req.Context())
	for k, v := range t.headers {
		clone.Header.Set(k, v)
	}

	return base.RoundTrip(clone)
}
