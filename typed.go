package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/mcp-client-go/internal/errors"
)

// Validator is implemented by typed tool results that carry invariants
// the decoder cannot check, such as cross-field consistency. CallToolTyped
// runs Validate after decoding and reports failures as ParseErrors.
type Validator interface {
	Validate() error
}

// CallToolTyped invokes a tool and decodes its text content into T.
//
// The first text content item of the result is unmarshaled into T; a
// decode failure is reported as a ParseError naming the target type. The
// raw payload is discarded on failure, so callers that need it should use
// CallTool directly. If T (or *T) implements Validator, Validate runs
// after decoding.
//
// A result with IsError set is reported as a ServiceError carrying the
// tool's error text.
func CallToolTyped[T any](ctx context.Context, c *Client, name string, args any) (T, error) {
	var out T

	res, err := c.CallTool(ctx, name, args)
	if err != nil {
		return out, err
	}

	text, err := ResultText(res)
	if err != nil {
		return out, &errors.ParseError{
			Tool:   name,
			Target: fmt.Sprintf("%T", out),
			Err:    err,
		}
	}

	if res.IsError {
		return out, &errors.ServiceError{
			Operation: opToolsCall,
			Tool:      name,
			Err:       fmt.Errorf("tool reported error: %s", text),
		}
	}

	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return out, &errors.ParseError{
			Tool:   name,
			Target: fmt.Sprintf("%T", out),
			Err:    err,
		}
	}

	v, ok := any(&out).(Validator)
	if !ok {
		v, ok = any(out).(Validator)
	}

	if ok {
		if err := v.Validate(); err != nil {
			return out, &errors.ParseError{
				Tool:   name,
				Target: fmt.Sprintf("%T", out),
				Err:    err,
			}
		}
	}

	return out, nil
}

// ResultText returns the first text content item of a tool result.
// Returns ErrNoTextContent if the result carries none.
func ResultText(res *mcp.CallToolResult) (string, error) {
	for _, item := range res.Content {
		if tc, ok := item.(*mcp.TextContent); ok {
			return tc.Text, nil
		}
	}

	return "", errors.ErrNoTextContent
}

// NonEmpty reports a validation error when a required string field is
// empty or whitespace. Intended for Validate implementations on typed
// tool results.
func NonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s must not be empty", field)
	}

	return nil
}

// EqualCounts reports a validation error when a declared count does not
// match the actual length of the data it describes.
func EqualCounts(field string, declared, actual int) error {
	if declared != actual {
		return fmt.Errorf("%s value (%d) does not match actual length (%d)", field, declared, actual)
	}

	return nil
}
