package mcpclient

import (
	"log/slog"
	"sync/atomic"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/mcp-client-go/internal/errors"
	"github.com/wagiedev/mcp-client-go/internal/subprocess"
)

// session is the shared core behind Client handles and their Connection:
// one established protocol handshake over one channel. It is created once
// per successful build and shared by reference; only the Connection may
// tear it down.
type session struct {
	// log carries a conn_id attribute correlating lines across handles
	// sharing this session.
	log *slog.Logger

	mcp *mcp.ClientSession

	// proc is the channel subprocess; nil for network channels.
	proc *subprocess.Process

	transport errors.Transport
	endpoint  string

	closed atomic.Bool
}

// close shuts the protocol session down. Idempotent; the first caller
// wins and later callers see nil.
func (s *session) close() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.log.Debug("Closing session")

	return s.mcp.Close()
}
