package mcp

import (
	"encoding/json"
	"fmt"
)

// JSONRPCVersion is the only protocol version spoken on the wire
const JSONRPCVersion = "2.0"

// Methods used against remote tool servers
const (
	MethodInitialize              = "initialize"
	MethodNotificationInitialized = "notifications/initialized"
	MethodToolsList               = "tools/list"
	MethodToolsCall               = "tools/call"
)

// SessionHeader carries the negotiated session token in both directions
const SessionHeader = "mcp-session-id"

// DefaultAPIKeyHeader is used when an api-key auth descriptor omits its header name
const DefaultAPIKeyHeader = "X-API-Key"

// AuthType is the authentication variant of a tool server
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBearer AuthType = "bearer"
	AuthTypeAPIKey AuthType = "api-key"
)

// Auth describes how requests to a tool server are authenticated
type Auth struct {
	Type       AuthType `yaml:"type" json:"type" validate:"omitempty,oneof=none bearer api-key"`
	Token      string   `yaml:"token" json:"-"`
	HeaderName string   `yaml:"headerName" json:"-"`
}

// ServerConfig is the static descriptor of a remote tool server
type ServerConfig struct {
	ID          string `yaml:"id" json:"id" validate:"required,excludes=__"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Endpoint    string `yaml:"endpoint" json:"endpoint" validate:"required,url"`
	Icon        string `yaml:"icon" json:"icon,omitempty"`
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	Auth        Auth   `yaml:"auth" json:"-"`
}

// Request is a JSON-RPC request. A nil ID marks a notification.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      *int64      `json:"id,omitempty"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

// Response is a JSON-RPC response envelope
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// HasResult reports whether the envelope carries a result member, null included
func (r *Response) HasResult() bool {
	return len(r.Result) > 0
}

// RPCError is the error member of a JSON-RPC response
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("MCP error: %s (code: %d)", e.Message, e.Code)
}

// ClientInfo identifies this client during the handshake
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeParams are sent with the initialize request
type InitializeParams struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ClientInfo      ClientInfo             `json:"clientInfo"`
}

// InitializeResult is what a server answers to initialize
type InitializeResult struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities,omitempty"`
	ServerInfo      *ClientInfo            `json:"serverInfo,omitempty"`
}

// Tool is one capability advertised by a tool server
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// ListToolsResult is the result of tools/list
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// CallToolParams are the params of tools/call
type CallToolParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// ContentType tags a content entry of a tool result
type ContentType string

const (
	ContentTypeText     ContentType = "text"
	ContentTypeImage    ContentType = "image"
	ContentTypeAudio    ContentType = "audio"
	ContentTypeResource ContentType = "resource"
)

// TextContent is a text-typed content entry
type TextContent struct {
	Text string `json:"text"`
}

// ResourceContents is the embedded resource of a resource-typed entry
type ResourceContents struct {
	URI      string  `json:"uri,omitempty"`
	MimeType string  `json:"mimeType,omitempty"`
	Text     *string `json:"text,omitempty"`
	Blob     *string `json:"blob,omitempty"`
}

// Content is a tagged variant: exactly one of Text or Resource is set for the
// text and resource types; other types keep their raw payload.
type Content struct {
	Type     ContentType
	Text     *TextContent
	Resource *ResourceContents
	Raw      json.RawMessage
}

func (c *Content) UnmarshalJSON(data []byte) error {
	var head struct {
		Type     ContentType       `json:"type"`
		Text     *string           `json:"text"`
		Resource *ResourceContents `json:"resource"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	switch head.Type {
	case "":
		return fmt.Errorf("content entry without type")
	case ContentTypeText:
		if head.Text == nil {
			return fmt.Errorf("text content without text")
		}
		c.Text = &TextContent{Text: *head.Text}
	case ContentTypeResource:
		if head.Resource == nil {
			return fmt.Errorf("resource content without resource")
		}
		c.Resource = head.Resource
	}

	c.Type = head.Type
	c.Raw = append(json.RawMessage(nil), data...)
	return nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	switch {
	case c.Type == ContentTypeText && c.Text != nil:
		return json.Marshal(struct {
			Type ContentType `json:"type"`
			Text string      `json:"text"`
		}{c.Type, c.Text.Text})
	case c.Type == ContentTypeResource && c.Resource != nil:
		return json.Marshal(struct {
			Type     ContentType       `json:"type"`
			Resource *ResourceContents `json:"resource"`
		}{c.Type, c.Resource})
	case len(c.Raw) > 0:
		return c.Raw, nil
	}
	return json.Marshal(struct {
		Type ContentType `json:"type"`
	}{c.Type})
}

// NewTextContent builds a text content entry
func NewTextContent(text string) Content {
	return Content{Type: ContentTypeText, Text: &TextContent{Text: text}}
}

// CallToolResult is the result of tools/call
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}
