package config

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/wagiedev/mcp-client-go/internal/errors"
)

// DefaultTimeout bounds the protocol handshake and every call issued
// through a handle that has not overridden it.
const DefaultTimeout = 30 * time.Second

// DefaultClientName identifies this client to servers when no explicit
// name is configured.
const DefaultClientName = "mcp-client-go"

// Options configures a channel before it is built. The same struct backs
// both variants; ValidateStdio and ValidateHTTP check the fields relevant
// to each.
type Options struct {
	// Command is the executable to spawn for the stdio variant.
	Command string

	// Args are the command line arguments for the subprocess.
	Args []string

	// Env provides additional environment variables for the subprocess.
	// They are added to the inherited environment unless CleanEnv is set.
	Env map[string]string

	// CleanEnv starts the subprocess with only the variables in Env
	// instead of inheriting the parent environment.
	CleanEnv bool

	// Cwd sets the working directory for the subprocess.
	// If empty, the subprocess inherits the current directory.
	Cwd string

	// URL is the endpoint for the network variants.
	URL string

	// Headers are added to every HTTP request for the network variants.
	Headers map[string]string

	// HTTPClient overrides the HTTP client used by the network variants.
	HTTPClient *http.Client

	// Timeout bounds the handshake and each call issued through the
	// returned handle. Zero means DefaultTimeout.
	Timeout time.Duration

	// ClientName is the implementation name declared during the handshake.
	// Empty means DefaultClientName.
	ClientName string

	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger
}

// ApplyDefaults fills zero-valued fields that have defaults.
func (o *Options) ApplyDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}

	if o.ClientName == "" {
		o.ClientName = DefaultClientName
	}
}

// ValidateStdio checks the stdio variant's configuration. It normalizes
// Command by trimming surrounding whitespace. No process is spawned; a
// failure here guarantees no resource was touched.
func (o *Options) ValidateStdio() error {
	o.Command = strings.TrimSpace(o.Command)

	if o.Command == "" {
		return &errors.InvalidConfigError{
			Field:  "command",
			Reason: "must not be empty",
		}
	}

	if strings.ContainsRune(o.Command, 0) {
		return &errors.InvalidConfigError{
			Field:  "command",
			Reason: "must not contain NUL bytes",
		}
	}

	if o.Cwd != "" {
		info, err := os.Stat(o.Cwd)
		if err != nil {
			return &errors.InvalidConfigError{
				Field:  "cwd",
				Reason: fmt.Sprintf("%q does not exist", o.Cwd),
			}
		}

		if !info.IsDir() {
			return &errors.InvalidConfigError{
				Field:  "cwd",
				Reason: fmt.Sprintf("%q is not a directory", o.Cwd),
			}
		}
	}

	return nil
}

// ValidateHTTP checks the network variant's configuration.
func (o *Options) ValidateHTTP() error {
	if strings.TrimSpace(o.URL) == "" {
		return &errors.InvalidConfigError{
			Field:  "url",
			Reason: "must not be empty",
		}
	}

	u, err := url.Parse(o.URL)
	if err != nil {
		return &errors.InvalidConfigError{
			Field:  "url",
			Reason: fmt.Sprintf("not a valid URL: %v", err),
		}
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return &errors.InvalidConfigError{
			Field:  "url",
			Reason: fmt.Sprintf("unsupported scheme %q", u.Scheme),
		}
	}

	return nil
}

// BuildEnv produces the subprocess environment: the inherited environment
// with Env entries added or overriding, or only Env when CleanEnv is set.
// Entries are sorted for deterministic spawns.
func (o *Options) BuildEnv() []string {
	merged := make(map[string]string, len(o.Env)+64)

	if !o.CleanEnv {
		for _, kv := range os.Environ() {
			if k, v, ok := strings.Cut(kv, "="); ok {
				merged[k] = v
			}
		}
	}

	for k, v := range o.Env {
		merged[k] = v
	}

	env := make([]string, 0, len(merged))
	for k, v := range merged {
		env = append(env, k+"="+v)
	}

	sort.Strings(env)

	return env
}
