// Package mcpclient is a client runtime for MCP servers reached over a
// spawned subprocess or a streaming HTTP endpoint.
//
// The package wraps the official MCP Go SDK's protocol engine with a
// connection lifecycle: each build entry point validates its
// configuration, establishes the channel, performs the handshake, and
// returns a cheap-to-copy Client handle paired with the Connection that
// owns teardown.
//
// # Basic Usage
//
// Spawn a server subprocess and call a tool:
//
//	ctx := context.Background()
//
//	client, conn, err := mcpclient.ConnectStdio(ctx, "uvx",
//	    mcpclient.WithArgs("mcp-server-git"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close(ctx)
//
//	tools, err := client.ListTools(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Or connect to a remote endpoint:
//
//	client, conn, err := mcpclient.ConnectStreamable(ctx, "http://localhost:8000/mcp",
//	    mcpclient.WithHeaders(map[string]string{"Authorization": "Bearer ..."}),
//	)
//
// # Handles and Connections
//
// The Client is a shared view of the session: copy it freely across
// goroutines, and give individual handles their own timeout with
// WithTimeout. The Connection is the sole owner of teardown; Close shuts
// the channel down and, for subprocess channels, reports how the child
// exited. Wait observes the channel terminating on its own, which is how
// a crash is told apart from a caller-initiated close.
//
// # Errors
//
// All failures are reported as typed errors: InvalidConfigError before
// any resource is touched, ConnectionError for channel establishment and
// mid-flight channel failure, TimeoutError when a call exceeds its
// handle's bound, ParseError for typed-decode failures, and ServiceError
// for engine failures wrapped with the calling operation's context.
package mcpclient
