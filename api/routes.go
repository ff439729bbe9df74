package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	agent "github.com/inference-gateway/instruct-agent/agent"
	l "github.com/inference-gateway/instruct-agent/logger"
	mcp "github.com/inference-gateway/instruct-agent/mcp"
	profiles "github.com/inference-gateway/instruct-agent/profiles"
	providers "github.com/inference-gateway/instruct-agent/providers"
)

type Router interface {
	NotFoundHandler(c *gin.Context)
	HealthcheckHandler(c *gin.Context)
	InstructAgentHandler(c *gin.Context)
	ListMCPServersHandler(c *gin.Context)
	ConnectMCPServerHandler(c *gin.Context)
	CallMCPToolHandler(c *gin.Context)
	ListToolsHandler(c *gin.Context)
	SystemPromptHandler(c *gin.Context)
}

type RouterImpl struct {
	logger   l.Logger
	registry mcp.Registry
	profiles profiles.Service
	agent    agent.Agent
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
	IsError   bool   `json:"isError,omitempty"`
}

type ResponseJSON struct {
	Message string `json:"message"`
}

// InstructAgentRequest is the body of POST /instruct-agent
type InstructAgentRequest struct {
	Messages          []providers.Message      `json:"messages"`
	SystemPrompt      string                   `json:"systemPrompt"`
	Prompt            string                   `json:"prompt"`
	Tool              string                   `json:"tool"`
	Model             string                   `json:"model"`
	ImageAttachments  []*agent.ImageAttachment `json:"imageAttachments"`
	EnabledMCPServers []string                 `json:"enabledMCPServers"`
}

// Validate checks the fields required before any model call
func (r *InstructAgentRequest) Validate() error {
	hasPrompt := strings.TrimSpace(r.Prompt) != ""
	hasImages := len(r.ImageAttachments) > 0
	if (!hasPrompt && !hasImages) || r.Tool == "" || r.Model == "" {
		return &agent.ConfigurationError{Message: "Missing required parameters"}
	}
	return nil
}

// MCPServerResponse is the public part of a server descriptor
type MCPServerResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Endpoint    string `json:"endpoint"`
	Icon        string `json:"icon,omitempty"`
	Enabled     bool   `json:"enabled"`
}

type MCPServersResponse struct {
	Servers []MCPServerResponse `json:"servers"`
}

type MCPConnectRequest struct {
	ServerID string `json:"serverId"`
}

type MCPConnectResponse struct {
	ServerID   string     `json:"serverId"`
	ServerName string     `json:"serverName"`
	Connected  bool       `json:"connected"`
	Tools      []mcp.Tool `json:"tools"`
}

type MCPCallRequest struct {
	ServerID  string                 `json:"serverId"`
	ToolName  string                 `json:"toolName"`
	Arguments map[string]interface{} `json:"arguments"`
}

type MCPCallResponse struct {
	ServerID string              `json:"serverId"`
	ToolName string              `json:"toolName"`
	Result   *mcp.CallToolResult `json:"result"`
	Text     string              `json:"text"`
	IsError  bool                `json:"isError"`
}

type ToolsResponse struct {
	Tools []profiles.Profile `json:"tools"`
}

type SystemPromptResponse struct {
	Prompt string `json:"prompt"`
}

func NewRouter(logger l.Logger, registry mcp.Registry, profiles profiles.Service, agent agent.Agent) Router {
	return &RouterImpl{
		logger:   logger,
		registry: registry,
		profiles: profiles,
		agent:    agent,
	}
}

func (router *RouterImpl) NotFoundHandler(c *gin.Context) {
	router.logger.Error("requested route is not found", nil, "path", c.Request.URL.Path)
	c.JSON(http.StatusNotFound, ErrorResponse{Error: "Requested route is not found"})
}

func (router *RouterImpl) HealthcheckHandler(c *gin.Context) {
	router.logger.Debug("Healthcheck")
	c.JSON(http.StatusOK, ResponseJSON{Message: "OK"})
}

func (router *RouterImpl) InstructAgentHandler(c *gin.Context) {
	var req InstructAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		router.logger.Debug("Failed to decode instruct agent request", "error", err.Error())
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing required parameters"})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if _, err := router.profiles.Get(c.Request.Context(), req.Tool); err != nil {
		router.logger.Debug("Tool profile could not be resolved", "tool", req.Tool, "error", err.Error())
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Selected tool not found"})
		return
	}

	result, err := router.agent.Run(c.Request.Context(), agent.Request{
		Messages:         req.Messages,
		SystemPrompt:     req.SystemPrompt,
		Prompt:           req.Prompt,
		Model:            req.Model,
		ImageAttachments: req.ImageAttachments,
		EnabledServers:   req.EnabledMCPServers,
	})
	if err != nil {
		router.logger.Error("Request handling error", err, "model", req.Model)
		if agent.IsConfigurationError(err) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:     err.Error(),
			Timestamp: timestamp(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (router *RouterImpl) ListMCPServersHandler(c *gin.Context) {
	servers := router.registry.Servers()
	response := MCPServersResponse{Servers: make([]MCPServerResponse, 0, len(servers))}
	for _, s := range servers {
		response.Servers = append(response.Servers, MCPServerResponse{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Endpoint:    s.Endpoint,
			Icon:        s.Icon,
			Enabled:     s.Enabled,
		})
	}
	c.JSON(http.StatusOK, response)
}

func (router *RouterImpl) ConnectMCPServerHandler(c *gin.Context) {
	var req MCPConnectRequest
	_ = c.ShouldBindJSON(&req)
	if req.ServerID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing serverId parameter"})
		return
	}

	cfg, ok := router.registry.Lookup(req.ServerID)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Server not found: " + req.ServerID})
		return
	}

	session, err := router.registry.GetOrCreate(c.Request.Context(), req.ServerID)
	if err != nil {
		router.logger.Error("Failed to initialize MCP client", err, "server", req.ServerID)
		router.writeMCPError(c, err)
		return
	}

	tools := session.GetTools()
	if tools == nil {
		tools = []mcp.Tool{}
	}

	c.JSON(http.StatusOK, MCPConnectResponse{
		ServerID:   req.ServerID,
		ServerName: cfg.Name,
		Connected:  true,
		Tools:      tools,
	})
}

func (router *RouterImpl) CallMCPToolHandler(c *gin.Context) {
	var req MCPCallRequest
	_ = c.ShouldBindJSON(&req)
	if req.ServerID == "" || req.ToolName == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing serverId or toolName parameter"})
		return
	}

	session, err := router.registry.GetOrCreate(c.Request.Context(), req.ServerID)
	if err != nil {
		router.logger.Error("MCP tool call error", err, "server", req.ServerID)
		router.writeMCPError(c, err)
		return
	}

	result, err := session.CallTool(c.Request.Context(), req.ToolName, req.Arguments)
	if err != nil {
		router.logger.Error("MCP tool call error", err, "server", req.ServerID, "tool", req.ToolName)
		router.writeMCPError(c, err)
		return
	}

	c.JSON(http.StatusOK, MCPCallResponse{
		ServerID: req.ServerID,
		ToolName: req.ToolName,
		Result:   result,
		Text:     mcp.ResultToText(result),
		IsError:  result.IsError,
	})
}

func (router *RouterImpl) ListToolsHandler(c *gin.Context) {
	list, err := router.profiles.List(c.Request.Context(), c.Query("refresh") == "1")
	if err != nil {
		router.logger.Error("Failed to load tools list", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load tools list"})
		return
	}

	c.JSON(http.StatusOK, ToolsResponse{Tools: list})
}

func (router *RouterImpl) SystemPromptHandler(c *gin.Context) {
	ctx := c.Request.Context()
	profile, err := router.profiles.Get(ctx, c.Param("tool"))
	if errors.Is(err, profiles.ErrProfileNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Tool not found"})
		return
	}
	if err != nil {
		router.logger.Error("Failed to load system prompt", err, "tool", c.Param("tool"))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load system prompt"})
		return
	}

	prompt, err := router.profiles.SystemPrompt(ctx, *profile, c.Query("refresh") == "1")
	if err != nil {
		router.logger.Error("Failed to load system prompt", err, "tool", profile.ID)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load system prompt"})
		return
	}

	c.JSON(http.StatusOK, SystemPromptResponse{Prompt: prompt})
}

// writeMCPError maps tool server failures onto HTTP statuses
func (router *RouterImpl) writeMCPError(c *gin.Context, err error) {
	switch {
	case mcp.IsServerNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case mcp.IsConnectionError(err), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), IsError: true})
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
