package errors

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInvalidConfigError(t *testing.T) {
	err := &InvalidConfigError{Field: "command", Reason: "must not be empty"}

	require.Equal(t, "invalid config: command: must not be empty", err.Error())
	require.True(t, err.IsClientError())
}

func TestConnectionError(t *testing.T) {
	root := errors.New("no such file or directory")
	err := &ConnectionError{
		Transport: TransportStdio,
		Endpoint:  "nonexistent-server",
		Err:       root,
	}

	require.Equal(
		t,
		`connection error (stdio "nonexistent-server"): no such file or directory`,
		err.Error(),
	)
	require.ErrorIs(t, err, root)
	require.True(t, err.IsClientError())
}

func TestTimeoutError_WithTool(t *testing.T) {
	err := &TimeoutError{
		Operation: "tools/call",
		Tool:      "start_crawl",
		Duration:  5 * time.Second,
	}

	require.Equal(t, `operation "tools/call" (tool "start_crawl") timed out after 5s`, err.Error())
	require.True(t, err.IsClientError())
}

func TestTimeoutError_WithoutTool(t *testing.T) {
	err := &TimeoutError{Operation: "tools/list", Duration: 30 * time.Second}

	require.Equal(t, `operation "tools/list" timed out after 30s`, err.Error())
}

func TestParseError(t *testing.T) {
	root := errors.New("unexpected end of JSON input")
	err := &ParseError{
		Tool:   "start_crawl",
		Target: "mcpclient.StartCrawlResult",
		Err:    root,
	}

	require.Equal(
		t,
		`failed to parse result from tool "start_crawl" into mcpclient.StartCrawlResult: unexpected end of JSON input`,
		err.Error(),
	)
	require.ErrorIs(t, err, root)
	require.True(t, err.IsClientError())
}

func TestServiceError_Variants(t *testing.T) {
	root := errors.New("boom")

	tests := []struct {
		name string
		err  *ServiceError
		want string
	}{
		{
			name: "tool and args",
			err: &ServiceError{
				Operation: "tools/call",
				Tool:      "echo",
				Args:      `{"msg":"hi"}`,
				Err:       root,
			},
			want: `operation "tools/call" (tool "echo", args {"msg":"hi"}) failed: boom`,
		},
		{
			name: "tool only",
			err:  &ServiceError{Operation: "tools/call", Tool: "echo", Err: root},
			want: `operation "tools/call" (tool "echo") failed: boom`,
		},
		{
			name: "operation only",
			err:  &ServiceError{Operation: "tools/list", Err: root},
			want: `operation "tools/list" failed: boom`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.err.Error())
			require.ErrorIs(t, tt.err, root)
			require.True(t, tt.err.IsClientError())
		})
	}
}

func TestProcessError_WithStderr(t *testing.T) {
	err := &ProcessError{ExitCode: 3, Stderr: "fatal: bad config"}

	require.Equal(t, "server process exited (code 3): fatal: bad config", err.Error())
	require.True(t, err.IsClientError())
}

func TestProcessError_WithUnderlyingError(t *testing.T) {
	root := errors.New("signal: killed")
	err := &ProcessError{ExitCode: -1, Err: root}

	require.Equal(t, "server process exited (code -1): signal: killed", err.Error())
	require.ErrorIs(t, err, root)
}
