package mcpclient

import (
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/wagiedev/mcp-client-go/internal/config"
)

// Option configures a connection before it is built, using the
// functional options pattern. Options are order-insensitive.
type Option func(*config.Options)

// applyOptions applies functional options to a fresh Options struct.
func applyOptions(opts []Option) *config.Options {
	cfg := &config.Options{}
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// WithArgs sets the command line arguments for the server subprocess.
func WithArgs(args ...string) Option {
	return func(o *config.Options) {
		o.Args = append(o.Args, args...)
	}
}

// WithEnv provides additional environment variables for the server
// subprocess. They are added to the inherited environment unless
// WithCleanEnv is also set. Repeated use merges, later values winning.
func WithEnv(env map[string]string) Option {
	return func(o *config.Options) {
		if o.Env == nil {
			o.Env = make(map[string]string, len(env))
		}

		maps.Copy(o.Env, env)
	}
}

// WithCleanEnv starts the server subprocess with only the variables set
// via WithEnv instead of inheriting the parent environment.
func WithCleanEnv() Option {
	return func(o *config.Options) {
		o.CleanEnv = true
	}
}

// WithCwd sets the working directory for the server subprocess. The
// directory must exist at build time.
func WithCwd(dir string) Option {
	return func(o *config.Options) {
		o.Cwd = dir
	}
}

// WithTimeout sets the per-call timeout carried by the returned Client
// handle, and bounds the handshake. Default is 30 seconds.
func WithTimeout(d time.Duration) Option {
	return func(o *config.Options) {
		o.Timeout = d
	}
}

// WithClientName sets the implementation name declared to the server
// during the handshake.
func WithClientName(name string) Option {
	return func(o *config.Options) {
		o.ClientName = name
	}
}

// WithHeaders adds HTTP headers to every request for the network
// variants. Ignored by ConnectStdio.
func WithHeaders(headers map[string]string) Option {
	return func(o *config.Options) {
		if o.Headers == nil {
			o.Headers = make(map[string]string, len(headers))
		}

		maps.Copy(o.Headers, headers)
	}
}

// WithHTTPClient overrides the HTTP client used by the network variants.
// Ignored by ConnectStdio.
func WithHTTPClient(client *http.Client) Option {
	return func(o *config.Options) {
		o.HTTPClient = client
	}
}

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *config.Options) {
		o.Logger = logger
	}
}
