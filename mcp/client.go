package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/inference-gateway/instruct-agent/logger"
)

// DefaultProtocolVersion is declared during the handshake unless configured otherwise
const DefaultProtocolVersion = "2024-11-05"

// DefaultClientTimeout bounds each request when no HTTP client is supplied
const DefaultClientTimeout = 60 * time.Second

// Session is one live connection to a remote tool server
//
//go:generate mockgen -source=client.go -destination=../mocks/mcp_session.go -package=mocks
type Session interface {
	// Initialize performs the handshake and refreshes the tool list
	Initialize(ctx context.Context) error

	// ListTools requests the tool catalog and replaces the cached list
	ListTools(ctx context.Context) ([]Tool, error)

	// CallTool invokes a named tool with structured arguments
	CallTool(ctx context.Context, name string, arguments map[string]interface{}) (*CallToolResult, error)

	// IsInitialized returns whether the handshake completed
	IsInitialized() bool

	// GetTools returns the last discovered tool list
	GetTools() []Tool

	// Disconnect forgets the session state locally
	Disconnect()

	// Config returns the server descriptor this session belongs to
	Config() ServerConfig
}

// ClientOptions tune how a Client talks to its server
type ClientOptions struct {
	ProtocolVersion string
	ClientInfo      ClientInfo
	HTTPClient      Doer
}

// Ensure Client implements Session interface at compile time
var _ Session = (*Client)(nil)

// Client manages one session with one remote tool server
type Client struct {
	config    ServerConfig
	opts      ClientOptions
	transport *transport
	logger    logger.Logger

	mu          sync.RWMutex
	sessionID   string
	initialized bool
	tools       []Tool
}

// NewClient creates a client for the given server. No network traffic
// happens until Initialize.
func NewClient(cfg ServerConfig, opts ClientOptions, log logger.Logger) *Client {
	if opts.ProtocolVersion == "" {
		opts.ProtocolVersion = DefaultProtocolVersion
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: DefaultClientTimeout}
	}

	return &Client{
		config: cfg,
		opts:   opts,
		transport: &transport{
			endpoint:   cfg.Endpoint,
			auth:       cfg.Auth,
			httpClient: opts.HTTPClient,
		},
		logger: log,
	}
}

func (c *Client) Config() ServerConfig {
	return c.config
}

func (c *Client) currentSessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

func (c *Client) Initialize(ctx context.Context) error {
	reply, err := c.transport.call(ctx, MethodInitialize, InitializeParams{
		ProtocolVersion: c.opts.ProtocolVersion,
		Capabilities: map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		ClientInfo: c.opts.ClientInfo,
	}, "")
	if err != nil {
		return connectionError(err, c.config.ID)
	}

	var result InitializeResult
	if err := decodeResult(reply.Result, &result); err != nil {
		return connectionError(errors.Wrap(err, "malformed initialize result"), c.config.ID)
	}

	c.mu.Lock()
	if reply.SessionID != "" {
		c.sessionID = reply.SessionID
	}
	c.mu.Unlock()

	if err := c.transport.notify(ctx, MethodNotificationInitialized, map[string]interface{}{}, c.currentSessionID()); err != nil {
		c.logger.Debug("MCP: initialized notification failed", "server", c.config.ID, "error", err.Error())
	}

	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()

	c.logger.Debug("MCP: session initialized", "server", c.config.ID, "protocolVersion", result.ProtocolVersion)

	if _, err := c.ListTools(ctx); err != nil {
		return connectionError(err, c.config.ID)
	}

	return nil
}

func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	reply, err := c.transport.call(ctx, MethodToolsList, map[string]interface{}{}, c.currentSessionID())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list tools on MCP server %s", c.config.ID)
	}

	var result ListToolsResult
	if !isNullResult(reply.Result) {
		if err := json.Unmarshal(reply.Result, &result); err != nil {
			return nil, errors.Wrapf(err, "malformed tools/list result from MCP server %s", c.config.ID)
		}
	}

	tools := result.Tools
	if tools == nil {
		tools = []Tool{}
	}

	c.mu.Lock()
	c.tools = tools
	c.mu.Unlock()

	c.logger.Debug("MCP: discovered tools", "server", c.config.ID, "count", len(tools))
	return tools, nil
}

func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]interface{}) (*CallToolResult, error) {
	if arguments == nil {
		arguments = map[string]interface{}{}
	}

	reply, err := c.transport.call(ctx, MethodToolsCall, CallToolParams{
		Name:      name,
		Arguments: arguments,
	}, c.currentSessionID())
	if err != nil {
		return nil, toolInvocationError(err, c.config.ID, name)
	}

	var result CallToolResult
	if err := decodeResult(reply.Result, &result); err != nil {
		return nil, toolInvocationError(errors.Wrap(err, "malformed tools/call result"), c.config.ID, name)
	}

	return &result, nil
}

func (c *Client) IsInitialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}

func (c *Client) GetTools() []Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tools
}

func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initialized = false
	c.tools = nil
	c.sessionID = ""
}

func isNullResult(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeResult(raw json.RawMessage, v interface{}) error {
	if isNullResult(raw) {
		return errors.New("missing result")
	}
	return json.Unmarshal(raw, v)
}
