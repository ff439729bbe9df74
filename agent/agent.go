package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/iter"

	"github.com/inference-gateway/instruct-agent/logger"
	"github.com/inference-gateway/instruct-agent/mcp"
	"github.com/inference-gateway/instruct-agent/otel"
	"github.com/inference-gateway/instruct-agent/providers"
)

// MaxToolIterations limits the number of model requests per user request
const MaxToolIterations = 10

// NoOutputMessage is sent back to the model when a tool returns no text
const NoOutputMessage = "Tool executed successfully with no output."

// State is a phase of the orchestration loop
type State string

const (
	StateCollecting  State = "collecting"
	StateRequesting  State = "requesting"
	StateDispatching State = "dispatching"
	StateDone        State = "done"
)

// Request is one user turn handed to the agent
type Request struct {
	Messages         []providers.Message
	SystemPrompt     string
	Prompt           string
	Model            string
	ImageAttachments []*ImageAttachment
	EnabledServers   []string
}

// Validate rejects a request that cannot produce a user message or names
// no model
func (r Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" && len(r.ImageAttachments) == 0 {
		return &ConfigurationError{Message: "Missing required parameters: prompt or image attachments"}
	}
	if r.Model == "" {
		return &ConfigurationError{Message: "Missing required parameters: model"}
	}
	return nil
}

// Result is the outcome of a run. Truncated is set when the iteration bound
// was reached while the model still requested tools.
type Result struct {
	Content        string          `json:"content"`
	Usage          json.RawMessage `json:"usage,omitempty"`
	Warning        string          `json:"warning,omitempty"`
	ToolIterations int             `json:"toolIterations"`
	ToolCalls      []ToolCallTrace `json:"toolCalls"`
	Truncated      bool            `json:"-"`
}

// Agent runs the tool orchestration loop for one request
//
//go:generate mockgen -source=agent.go -destination=../mocks/agent.go -package=mocks
type Agent interface {
	Run(ctx context.Context, request Request) (*Result, error)
}

// Ensure agentImpl implements Agent interface at compile time
var _ Agent = (*agentImpl)(nil)

type agentImpl struct {
	logger    logger.Logger
	registry  mcp.Registry
	client    providers.Client
	telemetry otel.OpenTelemetry
}

// NewAgent creates a new Agent instance. telemetry may be nil.
func NewAgent(logger logger.Logger, registry mcp.Registry, client providers.Client, telemetry otel.OpenTelemetry) Agent {
	return &agentImpl{
		logger:    logger,
		registry:  registry,
		client:    client,
		telemetry: telemetry,
	}
}

// toolSet is what the collecting phase produced for one request
type toolSet struct {
	sessions  map[string]mcp.Session
	functions []providers.ChatCompletionTool
}

type resolution struct {
	serverID string
	session  mcp.Session
	err      error
}

func (a *agentImpl) Run(ctx context.Context, request Request) (*Result, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	messages := BuildMessages(request.SystemPrompt, request.Messages, BuildUserContent(request.Prompt, request.ImageAttachments))

	a.logger.Debug("Agent: entering state", "state", StateCollecting, "servers", len(request.EnabledServers))
	tools := a.collectTools(ctx, request.EnabledServers)

	trace := make([]ToolCallTrace, 0)

	for iteration := 1; iteration <= MaxToolIterations; iteration++ {
		a.logger.Debug("Agent: entering state", "state", StateRequesting, "iteration", iteration, "messages", len(messages))

		chatRequest := providers.CreateChatCompletionRequest{
			Model:    request.Model,
			Messages: messages,
		}
		if len(tools.functions) > 0 {
			chatRequest.Tools = tools.functions
			chatRequest.ToolChoice = providers.ToolChoiceAuto
		}

		response, err := a.client.ChatCompletions(ctx, chatRequest)
		if err != nil {
			a.logger.Error("Agent: model backend request failed", err, "iteration", iteration)
			return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
		}
		a.recordUsage(ctx, request.Model, &response)

		var reply providers.Message
		if len(response.Choices) > 0 {
			reply = response.Choices[0].Message
		}
		content := textOf(reply.Content)

		if len(reply.ToolCalls) == 0 {
			a.logger.Debug("Agent: entering state", "state", StateDone, "iterations", iteration, "toolCalls", len(trace))
			a.recordIterations(ctx, request.Model, iteration, false)
			return &Result{
				Content:        content,
				Usage:          response.Usage,
				ToolIterations: iteration,
				ToolCalls:      trace,
			}, nil
		}

		assistant := providers.Message{
			Role:      providers.MessageRoleAssistant,
			ToolCalls: reply.ToolCalls,
		}
		if content != "" {
			assistant.Content = providers.NewTextContent(content)
		}
		messages = append(messages, assistant)

		a.logger.Debug("Agent: entering state", "state", StateDispatching, "iteration", iteration, "toolCalls", len(reply.ToolCalls))
		for _, call := range reply.ToolCalls {
			message, entry := a.dispatch(ctx, call, tools.sessions)
			messages = append(messages, message)
			trace = append(trace, entry)
		}
	}

	a.logger.Warn("Agent: reached maximum tool iterations", fmt.Errorf("max iterations reached: %d", MaxToolIterations), "model", request.Model)
	a.recordIterations(ctx, request.Model, MaxToolIterations, true)

	return &Result{
		Warning:        fmt.Sprintf("Max tool iterations (%d) reached", MaxToolIterations),
		ToolIterations: MaxToolIterations,
		ToolCalls:      trace,
		Truncated:      true,
	}, nil
}

// collectTools resolves every enabled server and declares its tools. A
// server that cannot be resolved is logged and left out.
func (a *agentImpl) collectTools(ctx context.Context, serverIDs []string) toolSet {
	set := toolSet{sessions: make(map[string]mcp.Session)}

	unique := make([]string, 0, len(serverIDs))
	seen := make(map[string]struct{}, len(serverIDs))
	for _, id := range serverIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	resolved := iter.Map(unique, func(id *string) resolution {
		session, err := a.registry.GetOrCreate(ctx, *id)
		return resolution{serverID: *id, session: session, err: err}
	})

	for _, r := range resolved {
		if r.err != nil {
			a.logger.Error("Agent: failed to init MCP server", r.err, "server", r.serverID)
			continue
		}

		set.sessions[r.serverID] = r.session
		for _, tool := range r.session.GetTools() {
			set.functions = append(set.functions, mcp.ToolToFunction(r.serverID, tool))
		}
	}

	a.logger.Debug("Agent: collected tools", "servers", len(set.sessions), "functions", len(set.functions))
	return set
}

// dispatch executes one requested call and returns the tool message to
// append together with its trace entry. Failures become message content.
func (a *agentImpl) dispatch(ctx context.Context, call providers.ChatCompletionMessageToolCall, sessions map[string]mcp.Session) (providers.Message, ToolCallTrace) {
	functionName := call.Function.Name
	reply := func(content string) providers.Message {
		return providers.Message{
			Role:       providers.MessageRoleTool,
			Content:    providers.NewTextContent(content),
			ToolCallID: call.ID,
		}
	}

	serverID, toolName, ok := mcp.DecodeFunctionName(functionName)
	if !ok {
		a.logger.Debug("Agent: invalid function name", "name", functionName)
		a.recordToolCall(ctx, "", "", TraceStatusError)
		return reply(fmt.Sprintf("Error: Invalid function name format: %s", functionName)), ToolCallTrace{
			ID:     call.ID,
			Name:   functionName,
			Status: TraceStatusError,
			Error:  "Invalid function name format",
		}
	}

	session, ok := sessions[serverID]
	if !ok {
		msg := fmt.Sprintf("MCP server not found: %s", serverID)
		a.recordToolCall(ctx, serverID, toolName, TraceStatusError)
		return reply("Error: " + msg), ToolCallTrace{
			ID:     call.ID,
			Name:   functionName,
			Status: TraceStatusError,
			Error:  msg,
		}
	}

	args := parseArguments(call.Function.Arguments)

	a.logger.Debug("Agent: executing tool call", "id", call.ID, "server", serverID, "tool", toolName)
	result, err := session.CallTool(ctx, toolName, args)
	if err != nil {
		a.logger.Error("Agent: tool call failed", err, "server", serverID, "tool", toolName)
		a.recordToolCall(ctx, serverID, toolName, TraceStatusError)
		return reply("Error calling tool: " + err.Error()), ToolCallTrace{
			ID:       call.ID,
			Name:     functionName,
			ServerID: serverID,
			ToolName: toolName,
			Status:   TraceStatusError,
			Error:    err.Error(),
		}
	}

	text := mcp.ResultToText(result)
	content := text
	if content == "" {
		content = NoOutputMessage
	}

	a.recordToolCall(ctx, serverID, toolName, TraceStatusCompleted)
	return reply(content), ToolCallTrace{
		ID:       call.ID,
		Name:     functionName,
		ServerID: serverID,
		ToolName: toolName,
		Status:   TraceStatusCompleted,
		Preview:  preview(text),
	}
}

// parseArguments decodes the JSON arguments of a call. Anything that is not
// a JSON object yields empty arguments.
func parseArguments(raw string) map[string]interface{} {
	args := map[string]interface{}{}
	if strings.TrimSpace(raw) == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]interface{}{}
	}
	return args
}

func textOf(content providers.MessageContent) string {
	if text, ok := content.AsText(); ok {
		return text
	}
	parts, ok := content.AsParts()
	if !ok {
		return ""
	}

	var b strings.Builder
	for _, part := range parts {
		if part.Type == providers.ContentPartTypeText {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func (a *agentImpl) recordUsage(ctx context.Context, model string, response *providers.CreateChatCompletionResponse) {
	if a.telemetry == nil {
		return
	}
	if usage, ok := response.ParseUsage(); ok {
		a.telemetry.RecordTokenUsage(ctx, model, usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
	}
}

func (a *agentImpl) recordToolCall(ctx context.Context, serverID, toolName string, status TraceStatus) {
	if a.telemetry == nil {
		return
	}
	a.telemetry.RecordToolCall(ctx, serverID, toolName, string(status))
}

func (a *agentImpl) recordIterations(ctx context.Context, model string, iterations int, truncated bool) {
	if a.telemetry == nil {
		return
	}
	a.telemetry.RecordToolIterations(ctx, model, int64(iterations), truncated)
}
