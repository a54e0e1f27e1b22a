package mcpmgr

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrServerNotFound indicates no live connection is registered under the
	// requested name.
	ErrServerNotFound = errors.New("server not found")

	// ErrMissingName indicates a ServerConfig without a name.
	ErrMissingName = errors.New("server name is required")

	// ErrReservedName indicates a server name containing ToolNameSeparator,
	// which would make its prefixed tool names ambiguous.
	ErrReservedName = errors.New("server name must not contain " + ToolNameSeparator)

	// ErrMissingCommand indicates a stdio ServerConfig without a command.
	ErrMissingCommand = errors.New("command is required for stdio transport")

	// ErrUnsupportedTransport indicates an unknown transport identifier.
	ErrUnsupportedTransport = errors.New("unsupported transport")

	// ErrTimeout indicates a remote operation exceeded its deadline.
	ErrTimeout = errors.New("timed out")
)

// ServerError ties a failure to the server and operation that produced it.
type ServerError struct {
	Server string
	Op     string
	Err    error
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("mcpmgr: %s %q: %v", e.Op, e.Server, e.Err)
}

func (e *ServerError) Unwrap() error { return e.Err }

// classifyTimeout marks deadline expiries with ErrTimeout so callers can tell
// a slow backend from a protocol failure.
func classifyTimeout(ctx context.Context, err error, timeout time.Duration) error {
	if err == nil || errors.Is(err, ErrTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		if timeout > 0 {
			return fmt.Errorf("%w after %s: %w", ErrTimeout, timeout, err)
		}
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
