package mcp

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrConnection marks handshake and transport failures to a tool server
	ErrConnection = errors.New("mcp connection error")
	// ErrToolInvocation marks a failed tools/call
	ErrToolInvocation = errors.New("mcp tool invocation error")
	// ErrServerNotFound marks an unknown server identifier
	ErrServerNotFound = errors.New("mcp server not found")
	// ErrNoStreamResult is returned when an event stream carries no result message
	ErrNoStreamResult = errors.New("no valid response data in stream")
)

// IsConnectionError reports whether err is a tool server connection failure
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsToolInvocationError reports whether err is a failed tool call
func IsToolInvocationError(err error) bool {
	return errors.Is(err, ErrToolInvocation)
}

// IsServerNotFound reports whether err names an unknown server
func IsServerNotFound(err error) bool {
	return errors.Is(err, ErrServerNotFound)
}

func connectionError(err error, serverID string) error {
	return errors.Mark(errors.Wrapf(err, "failed to connect to MCP server %s", serverID), ErrConnection)
}

func toolInvocationError(err error, serverID, tool string) error {
	return errors.Mark(errors.Wrapf(err, "failed to call tool %s on MCP server %s", tool, serverID), ErrToolInvocation)
}
