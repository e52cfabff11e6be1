package mcpclient

import (
	"context"
	"io"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/mcp-client-go/internal/config"
	"github.com/wagiedev/mcp-client-go/internal/errors"
	"github.com/wagiedev/mcp-client-go/internal/subprocess"
)

// Version is the implementation version declared during the handshake.
const Version = "0.1.0"

// ConnectStdio spawns command as a server subprocess, performs the
// protocol handshake over its stdin/stdout, and returns a Client handle
// paired with the Connection that owns teardown.
//
// Configuration is validated before any process is spawned; an
// InvalidConfigError guarantees no resource was touched. If the
// handshake fails after the process was spawned, the process is killed
// before the error is returned; no error path leaves an orphaned child
// behind.
//
//	client, conn, err := mcpclient.ConnectStdio(ctx, "uvx",
//	    mcpclient.WithArgs("mcp-server-git"),
//	    mcpclient.WithTimeout(60*time.Second),
//	)
//	if err != nil {
//	    return err
//	}
//	defer conn.Close(ctx)
func ConnectStdio(ctx context.Context, command string, opts ...Option) (*Client, *Connection, error) {
	cfg := applyOptions(opts)
	cfg.Command = command

	if err := cfg.ValidateStdio(); err != nil {
		return nil, nil, err
	}

	cfg.ApplyDefaults()

	log := newLogger(cfg).With("conn_id", ulid.Make().String())

	proc, err := subprocess.Spawn(log, cfg)
	if err != nil {
		return nil, nil, err
	}

	ms, err := handshake(ctx, cfg, proc.Transport())
	if err != nil {
		// The child was already spawned; kill it before reporting so a
		// failed build never leaves a running process behind. Best
		// effort, not waited for.
		proc.Kill()

		return nil, nil, &errors.ConnectionError{
			Transport: errors.TransportStdio,
			Endpoint:  cfg.Command,
			Err:       err,
		}
	}

	log.Debug("Handshake complete", "command", cfg.Command)

	sess := &session{
		log:       log,
		mcp:       ms,
		proc:      proc,
		transport: errors.TransportStdio,
		endpoint:  cfg.Command,
	}

	return newClient(sess, cfg.Timeout), newConnection(sess), nil
}

// handshake runs the protocol initialize exchange over the transport,
// bounded by the configured timeout so a broken channel cannot hang the
// build.
func handshake(ctx context.Context, cfg *config.Options, transport mcp.Transport) (*mcp.ClientSession, error) {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    cfg.ClientName,
		Version: Version,
	}, nil)

	hctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	return client.Connect(hctx, transport, nil)
}

func newLogger(cfg *config.Options) *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger.With("component", "mcpclient")
	}

	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
