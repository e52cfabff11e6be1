//go:build unix

package mcpclient

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/mcp-client-go/internal/errors"
)

// TestHelperProcess is not a real test. When re-executed with
// GO_WANT_HELPER_PROCESS set it acts as the server subprocess for the
// stdio tests, speaking the protocol over its stdin/stdout.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		t.Skip("helper process")
	}

	// Record the pid so tests can verify the process is gone after a
	// failed build.
	if pidfile := os.Getenv("HELPER_PIDFILE"); pidfile != "" {
		_ = os.WriteFile(pidfile, []byte(strconv.Itoa(os.Getpid())), 0o600)
	}

	switch os.Getenv("HELPER_MODE") {
	case "exit-early":
		fmt.Fprintln(os.Stderr, "refusing to start")
		os.Exit(2)
	case "silent":
		// Swallow the handshake without ever answering.
		_, _ = io.Copy(io.Discard, os.Stdin)
		os.Exit(0)
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "helper-server",
		Version: "1.0.0",
	}, nil)

	server.AddTool(&mcp.Tool{
		Name:        "ping",
		Description: "Respond with pong",
		InputSchema: objectSchema(),
	}, func(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return textResult("pong"), nil
	})

	server.AddTool(&mcp.Tool{
		Name:        "die",
		Description: "Exit without responding",
		InputSchema: objectSchema(),
	}, func(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fmt.Fprintln(os.Stderr, "dying")
		os.Exit(7)

		return nil, nil
	})

	server.AddTool(&mcp.Tool{
		Name:        "selfkill",
		Description: "Terminate with SIGKILL without responding",
		InputSchema: objectSchema(),
	}, func(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		_ = syscall.Kill(os.Getpid(), syscall.SIGKILL)

		select {}
	})

	err := server.Run(context.Background(), &mcp.IOTransport{
		Reader: os.Stdin,
		Writer: os.Stdout,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}

	os.Exit(0)
}

// connectHelper re-executes the test binary as the server subprocess in
// the given mode.
func connectHelper(t *testing.T, mode string, opts ...Option) (*Client, *Connection, error) {
	t.Helper()

	opts = append(opts,
		WithArgs("-test.run=^TestHelperProcess$", "--"),
		WithEnv(map[string]string{
			"GO_WANT_HELPER_PROCESS": "1",
			"HELPER_MODE":            mode,
		}),
	)

	client, conn, err := ConnectStdio(context.Background(), os.Args[0], opts...)
	if err == nil {
		t.Cleanup(func() {
			_, _ = conn.Close(context.Background())
		})
	}

	return client, conn, err
}

func TestConnectStdio_PingRoundTrip(t *testing.T) {
	client, conn, err := connectHelper(t, "serve")
	require.NoError(t, err)

	tools, err := client.ListTools(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	require.Contains(t, names, "ping")

	res, err := client.CallTool(context.Background(), "ping", nil)
	require.NoError(t, err)

	text, err := ResultText(res)
	require.NoError(t, err)
	require.Equal(t, "pong", text)

	exit, err := conn.Close(context.Background())
	require.NoError(t, err)
	require.NotNil(t, exit)
	require.Equal(t, 0, exit.Code)
	require.False(t, exit.Signaled())
}

func TestConnectStdio_CloseIdempotent(t *testing.T) {
	_, conn, err := connectHelper(t, "serve")
	require.NoError(t, err)

	first, err := conn.Close(context.Background())
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := conn.Close(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestConnectStdio_ServerInfo(t *testing.T) {
	client, _, err := connectHelper(t, "serve")
	require.NoError(t, err)

	info := client.ServerInfo()
	require.NotNil(t, info)
	require.Equal(t, "helper-server", info.ServerInfo.Name)
}

func TestConnectStdio_CommandNotFound(t *testing.T) {
	_, _, err := ConnectStdio(context.Background(), "definitely-not-a-real-command-xyz")

	var connErr *errors.ConnectionError

	require.ErrorAs(t, err, &connErr)
	require.Equal(t, errors.TransportStdio, connErr.Transport)
}

func TestConnectStdio_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		command string
		opts    []Option
		field   string
	}{
		{name: "empty command", command: "", field: "command"},
		{name: "whitespace command", command: "   ", field: "command"},
		{name: "nul in command", command: "sh\x00rm", field: "command"},
		{
			name:    "missing cwd",
			command: "sh",
			opts:    []Option{WithCwd("/definitely/not/a/dir")},
			field:   "cwd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ConnectStdio(context.Background(), tt.command, tt.opts...)

			var cfgErr *errors.InvalidConfigError

			require.ErrorAs(t, err, &cfgErr)
			require.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

// helperPid reads the pid the helper recorded at startup.
func helperPid(t *testing.T, pidfile string) int {
	t.Helper()

	var pid int

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(pidfile)
		if err != nil {
			return false
		}

		pid, err = strconv.Atoi(strings.TrimSpace(string(data)))

		return err == nil && pid > 0
	}, 5*time.Second, 10*time.Millisecond)

	return pid
}

// requireProcessGone asserts the pid has been killed and reaped, not
// merely signaled. Signal 0 reports ESRCH only once no process or
// zombie remains.
func requireProcessGone(t *testing.T, pid int) {
	t.Helper()

	require.Eventually(t, func() bool {
		return stderrors.Is(syscall.Kill(pid, 0), syscall.ESRCH)
	}, 5*time.Second, 20*time.Millisecond)
}

func TestConnectStdio_ExitBeforeHandshake(t *testing.T) {
	pidfile := filepath.Join(t.TempDir(), "helper.pid")

	_, _, err := connectHelper(t, "exit-early",
		WithTimeout(5*time.Second),
		WithEnv(map[string]string{"HELPER_PIDFILE": pidfile}),
	)

	var connErr *errors.ConnectionError

	require.ErrorAs(t, err, &connErr)
	require.Equal(t, errors.TransportStdio, connErr.Transport)

	// The failed build leaves no process behind.
	requireProcessGone(t, helperPid(t, pidfile))
}

func TestConnectStdio_HandshakeTimeout(t *testing.T) {
	pidfile := filepath.Join(t.TempDir(), "helper.pid")

	start := time.Now()
	_, _, err := connectHelper(t, "silent",
		WithTimeout(500*time.Millisecond),
		WithEnv(map[string]string{"HELPER_PIDFILE": pidfile}),
	)
	elapsed := time.Since(start)

	var connErr *errors.ConnectionError

	require.ErrorAs(t, err, &connErr)
	require.Less(t, elapsed, 5*time.Second)

	// The child was alive when the handshake gave up; the failed build
	// must have killed and reaped it.
	requireProcessGone(t, helperPid(t, pidfile))
}

func TestConnectStdio_RejectedCallFailsFast(t *testing.T) {
	client, _, err := connectHelper(t, "serve")
	require.NoError(t, err)

	start := time.Now()
	_, err = client.CallTool(context.Background(), "no-such-tool", nil)
	elapsed := time.Since(start)

	// A call the live server rejected is a service error and does not
	// pay the crash-probe window.
	var svcErr *errors.ServiceError

	require.ErrorAs(t, err, &svcErr)
	require.Less(t, elapsed, exitProbeWait)
}

func TestConnectStdio_CrashInFlight(t *testing.T) {
	client, conn, err := connectHelper(t, "serve")
	require.NoError(t, err)

	_, err = client.CallTool(context.Background(), "die", nil)

	var connErr *errors.ConnectionError

	require.ErrorAs(t, err, &connErr)

	var procErr *errors.ProcessError

	require.ErrorAs(t, err, &procErr)
	require.Equal(t, 7, procErr.ExitCode)
	require.Contains(t, procErr.Stderr, "dying")

	exit, err := conn.Wait(context.Background())
	require.NoError(t, err)
	require.NotNil(t, exit)
	require.Equal(t, 7, exit.Code)
	require.False(t, exit.Signaled())

	// The outcome is memoized once observed.
	again, err := conn.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, exit, again)
}

func TestConnectStdio_SignalInFlight(t *testing.T) {
	client, conn, err := connectHelper(t, "serve")
	require.NoError(t, err)

	_, err = client.CallTool(context.Background(), "selfkill", nil)
	require.Error(t, err)

	exit, err := conn.Wait(context.Background())
	require.NoError(t, err)
	require.NotNil(t, exit)
	require.True(t, exit.Signaled())
	require.Equal(t, "killed", exit.Signal)
	require.Equal(t, -1, exit.Code)
}

func TestConnectStdio_TryExitStatusWhileRunning(t *testing.T) {
	client, conn, err := connectHelper(t, "serve")
	require.NoError(t, err)

	require.Nil(t, conn.TryExitStatus())

	_, err = client.CallTool(context.Background(), "ping", nil)
	require.NoError(t, err)
	require.Nil(t, conn.TryExitStatus())
}
