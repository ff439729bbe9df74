package agent_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/inference-gateway/instruct-agent/agent"
	"github.com/inference-gateway/instruct-agent/logger"
	"github.com/inference-gateway/instruct-agent/mcp"
	"github.com/inference-gateway/instruct-agent/mocks"
	"github.com/inference-gateway/instruct-agent/providers"
)

// contentAsJSON lets cmp compare message content by its wire form
var contentAsJSON = cmp.Transformer("content", func(c providers.MessageContent) string {
	b, _ := json.Marshal(c)
	return string(b)
})

func textResponse(content string, usage string) providers.CreateChatCompletionResponse {
	resp := providers.CreateChatCompletionResponse{
		Choices: []providers.ChatCompletionChoice{{
			Message: providers.Message{
				Role:    providers.MessageRoleAssistant,
				Content: providers.NewTextContent(content),
			},
		}},
	}
	if usage != "" {
		resp.Usage = json.RawMessage(usage)
	}
	return resp
}

func toolCallResponse(calls ...providers.ChatCompletionMessageToolCall) providers.CreateChatCompletionResponse {
	return providers.CreateChatCompletionResponse{
		Choices: []providers.ChatCompletionChoice{{
			Message: providers.Message{
				Role:      providers.MessageRoleAssistant,
				ToolCalls: calls,
			},
		}},
	}
}

func toolCall(id, name, args string) providers.ChatCompletionMessageToolCall {
	return providers.ChatCompletionMessageToolCall{
		ID:   id,
		Type: providers.ChatCompletionToolTypeFunction,
		Function: providers.ChatCompletionMessageToolCallFunction{
			Name:      name,
			Arguments: args,
		},
	}
}

func toolMessage(id, content string) providers.Message {
	return providers.Message{
		Role:       providers.MessageRoleTool,
		Content:    providers.NewTextContent(content),
		ToolCallID: id,
	}
}

func strPtr(s string) *string { return &s }

type fixture struct {
	registry  *mocks.MockRegistry
	client    *mocks.MockClient
	telemetry *mocks.MockOpenTelemetry
	agent     agent.Agent
}

func newFixture(t *testing.T, withTelemetry bool) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		registry: mocks.NewMockRegistry(ctrl),
		client:   mocks.NewMockClient(ctrl),
	}

	if withTelemetry {
		f.telemetry = mocks.NewMockOpenTelemetry(ctrl)
		f.agent = agent.NewAgent(logger.NewNoOpLogger(), f.registry, f.client, f.telemetry)
	} else {
		f.agent = agent.NewAgent(logger.NewNoOpLogger(), f.registry, f.client, nil)
	}
	return f
}

func TestAgent_Run_NoToolsOmitsToolParameters(t *testing.T) {
	f := newFixture(t, false)

	f.client.EXPECT().
		ChatCompletions(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req providers.CreateChatCompletionRequest) (providers.CreateChatCompletionResponse, error) {
			assert.Equal(t, "openai/gpt-4.1", req.Model)
			assert.Nil(t, req.Tools)
			assert.Empty(t, req.ToolChoice)

			payload, err := json.Marshal(req)
			require.NoError(t, err)
			assert.NotContains(t, string(payload), "tools")
			assert.NotContains(t, string(payload), "tool_choice")

			expected := []providers.Message{
				{Role: providers.MessageRoleSystem, Content: providers.NewTextContent("be brief")},
				{Role: providers.MessageRoleUser, Content: providers.NewTextContent("earlier")},
				{Role: providers.MessageRoleAssistant, Content: providers.NewTextContent("reply")},
				{Role: providers.MessageRoleUser, Content: providers.NewTextContent("hello")},
			}
			if diff := cmp.Diff(expected, req.Messages, contentAsJSON); diff != "" {
				t.Errorf("messages mismatch (-want +got):\n%s", diff)
			}
			return textResponse("Hi!", `{"prompt_tokens":5,"completion_tokens":2,"total_tokens":7}`), nil
		})

	result, err := f.agent.Run(context.Background(), agent.Request{
		Messages: []providers.Message{
			{Role: providers.MessageRoleSystem, Content: providers.NewTextContent("ignored")},
			{Role: providers.MessageRoleUser, Content: providers.NewTextContent("earlier")},
			{Role: providers.MessageRoleAssistant, Content: providers.NewTextContent("reply")},
		},
		SystemPrompt: "be brief",
		Prompt:       "hello",
		Model:        "openai/gpt-4.1",
	})

	require.NoError(t, err)
	assert.Equal(t, "Hi!", result.Content)
	assert.Equal(t, 1, result.ToolIterations)
	assert.NotNil(t, result.ToolCalls)
	assert.Empty(t, result.ToolCalls)
	assert.Empty(t, result.Warning)
	assert.False(t, result.Truncated)
	assert.JSONEq(t, `{"prompt_tokens":5,"completion_tokens":2,"total_tokens":7}`, string(result.Usage))

	body, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":"Hi!","usage":{"prompt_tokens":5,"completion_tokens":2,"total_tokens":7},"toolIterations":1,"toolCalls":[]}`, string(body))
}

func TestAgent_Run_FailedServerExcluded(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, false)

	good := mocks.NewMockSession(ctrl)
	good.EXPECT().GetTools().Return([]mcp.Tool{
		{Name: "ask_question", Description: "Ask", InputSchema: json.RawMessage(`{"type":"object"}`)},
	})

	f.registry.EXPECT().GetOrCreate(gomock.Any(), "broken").Return(nil, errors.New("connection refused"))
	f.registry.EXPECT().GetOrCreate(gomock.Any(), "deepwiki").Return(good, nil).Times(1)

	f.client.EXPECT().
		ChatCompletions(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req providers.CreateChatCompletionRequest) (providers.CreateChatCompletionResponse, error) {
			require.Len(t, req.Tools, 1)
			assert.Equal(t, "deepwiki__ask_question", req.Tools[0].Function.Name)
			assert.Equal(t, providers.ToolChoiceAuto, req.ToolChoice)
			return textResponse("done", ""), nil
		})

	result, err := f.agent.Run(context.Background(), agent.Request{
		Prompt:         "question",
		Model:          "m",
		EnabledServers: []string{"broken", "deepwiki", "deepwiki"},
	})

	require.NoError(t, err)
	assert.Equal(t, "done", result.Content)
	assert.Nil(t, result.Usage)
}

func TestAgent_Run_AllServersFailProceedsWithoutTools(t *testing.T) {
	f := newFixture(t, false)

	f.registry.EXPECT().GetOrCreate(gomock.Any(), gomock.Any()).Return(nil, errors.New("down")).Times(2)
	f.client.EXPECT().
		ChatCompletions(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req providers.CreateChatCompletionRequest) (providers.CreateChatCompletionResponse, error) {
			assert.Nil(t, req.Tools)
			return textResponse("answer", ""), nil
		})

	result, err := f.agent.Run(context.Background(), agent.Request{
		Prompt:         "question",
		Model:          "m",
		EnabledServers: []string{"a", "b"},
	})

	require.NoError(t, err)
	assert.Equal(t, "answer", result.Content)
}

func TestAgent_Run_DispatchesToolCalls(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, false)

	session := mocks.NewMockSession(ctrl)
	session.EXPECT().GetTools().Return([]mcp.Tool{{Name: "search"}, {Name: "empty"}, {Name: "fail"}})
	f.registry.EXPECT().GetOrCreate(gomock.Any(), "docs").Return(session, nil)

	longText := strings.Repeat("x", 300)

	gomock.InOrder(
		session.EXPECT().CallTool(gomock.Any(), "fail", map[string]interface{}{}).Return(nil, errors.New("timeout")),
		session.EXPECT().CallTool(gomock.Any(), "search", map[string]interface{}{"q": "go"}).
			Return(&mcp.CallToolResult{Content: []mcp.Content{mcp.NewTextContent(longText)}}, nil),
		session.EXPECT().CallTool(gomock.Any(), "empty", map[string]interface{}{}).
			Return(&mcp.CallToolResult{}, nil),
	)

	calls := []providers.ChatCompletionMessageToolCall{
		toolCall("call_1", "nofunction", "{}"),
		toolCall("call_2", "other__search", "{}"),
		toolCall("call_3", "docs__fail", ""),
		toolCall("call_4", "docs__search", `{"q":"go"}`),
		toolCall("call_5", "docs__empty", "{not json"),
	}

	var secondRequest providers.CreateChatCompletionRequest
	gomock.InOrder(
		f.client.EXPECT().ChatCompletions(gomock.Any(), gomock.Any()).Return(toolCallResponse(calls...), nil),
		f.client.EXPECT().ChatCompletions(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, req providers.CreateChatCompletionRequest) (providers.CreateChatCompletionResponse, error) {
				secondRequest = req
				return textResponse("final", ""), nil
			}),
	)

	result, err := f.agent.Run(context.Background(), agent.Request{
		Prompt:         "find",
		Model:          "m",
		EnabledServers: []string{"docs"},
	})
	require.NoError(t, err)

	assert.Equal(t, "final", result.Content)
	assert.Equal(t, 2, result.ToolIterations)

	expectedTail := []providers.Message{
		{Role: providers.MessageRoleAssistant, ToolCalls: calls},
		toolMessage("call_1", "Error: Invalid function name format: nofunction"),
		toolMessage("call_2", "Error: MCP server not found: other"),
		toolMessage("call_3", "Error calling tool: timeout"),
		toolMessage("call_4", longText),
		toolMessage("call_5", agent.NoOutputMessage),
	}
	require.Len(t, secondRequest.Messages, 2+len(expectedTail))
	if diff := cmp.Diff(expectedTail, secondRequest.Messages[2:], contentAsJSON); diff != "" {
		t.Errorf("conversation mismatch (-want +got):\n%s", diff)
	}

	preview := longText[:agent.PreviewLength]
	expectedTrace := []agent.ToolCallTrace{
		{ID: "call_1", Name: "nofunction", Status: agent.TraceStatusError, Error: "Invalid function name format"},
		{ID: "call_2", Name: "other__search", Status: agent.TraceStatusError, Error: "MCP server not found: other"},
		{ID: "call_3", Name: "docs__fail", ServerID: "docs", ToolName: "fail", Status: agent.TraceStatusError, Error: "timeout"},
		{ID: "call_4", Name: "docs__search", ServerID: "docs", ToolName: "search", Status: agent.TraceStatusCompleted, Preview: &preview},
		{ID: "call_5", Name: "docs__empty", ServerID: "docs", ToolName: "empty", Status: agent.TraceStatusCompleted, Preview: strPtr("")},
	}
	if diff := cmp.Diff(expectedTrace, result.ToolCalls); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestAgent_Run_ToolCallWithoutContentSendsNull(t *testing.T) {
	f := newFixture(t, false)

	var second providers.CreateChatCompletionRequest
	gomock.InOrder(
		f.client.EXPECT().ChatCompletions(gomock.Any(), gomock.Any()).Return(toolCallResponse(toolCall("c1", "x__y", "{}")), nil),
		f.client.EXPECT().ChatCompletions(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, req providers.CreateChatCompletionRequest) (providers.CreateChatCompletionResponse, error) {
				second = req
				return textResponse("ok", ""), nil
			}),
	)

	_, err := f.agent.Run(context.Background(), agent.Request{Prompt: "p", Model: "m"})
	require.NoError(t, err)

	payload, err := json.Marshal(second.Messages[2])
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"assistant","content":null,"tool_calls":[{"id":"c1","type":"function","function":{"name":"x__y","arguments":"{}"}}]}`, string(payload))
}

func TestAgent_Run_IterationLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, true)

	session := mocks.NewMockSession(ctrl)
	session.EXPECT().GetTools().Return([]mcp.Tool{{Name: "loop"}})
	session.EXPECT().CallTool(gomock.Any(), "loop", gomock.Any()).
		Return(&mcp.CallToolResult{Content: []mcp.Content{mcp.NewTextContent("again")}}, nil).
		Times(agent.MaxToolIterations)
	f.registry.EXPECT().GetOrCreate(gomock.Any(), "srv").Return(session, nil)

	round := 0
	f.client.EXPECT().ChatCompletions(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req providers.CreateChatCompletionRequest) (providers.CreateChatCompletionResponse, error) {
			round++
			resp := toolCallResponse(toolCall(fmt.Sprintf("call_%d", round), "srv__loop", "{}"))
			resp.Usage = json.RawMessage(`{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}`)
			return resp, nil
		}).
		Times(agent.MaxToolIterations)

	f.telemetry.EXPECT().RecordTokenUsage(gomock.Any(), "m", int64(1), int64(1), int64(2)).Times(agent.MaxToolIterations)
	f.telemetry.EXPECT().RecordToolCall(gomock.Any(), "srv", "loop", "completed").Times(agent.MaxToolIterations)
	f.telemetry.EXPECT().RecordToolIterations(gomock.Any(), "m", int64(agent.MaxToolIterations), true)

	result, err := f.agent.Run(context.Background(), agent.Request{
		Prompt:         "p",
		Model:          "m",
		EnabledServers: []string{"srv"},
	})

	require.NoError(t, err)
	assert.Equal(t, agent.MaxToolIterations, round)
	assert.True(t, result.Truncated)
	assert.Equal(t, "Max tool iterations (10) reached", result.Warning)
	assert.Equal(t, 10, result.ToolIterations)
	assert.Len(t, result.ToolCalls, 10)

	body, err := json.Marshal(result)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "", decoded["content"])
	assert.Equal(t, "Max tool iterations (10) reached", decoded["warning"])
}

func TestAgent_Run_StopsAsSoonAsNoToolCalls(t *testing.T) {
	f := newFixture(t, true)

	gomock.InOrder(
		f.client.EXPECT().ChatCompletions(gomock.Any(), gomock.Any()).Return(toolCallResponse(toolCall("a", "bad", "")), nil),
		f.client.EXPECT().ChatCompletions(gomock.Any(), gomock.Any()).Return(toolCallResponse(toolCall("b", "bad", "")), nil),
		f.client.EXPECT().ChatCompletions(gomock.Any(), gomock.Any()).Return(textResponse("three", ""), nil),
	)
	f.telemetry.EXPECT().RecordToolCall(gomock.Any(), "", "", "error").Times(2)
	f.telemetry.EXPECT().RecordToolIterations(gomock.Any(), "m", int64(3), false)

	result, err := f.agent.Run(context.Background(), agent.Request{Prompt: "p", Model: "m"})

	require.NoError(t, err)
	assert.Equal(t, "three", result.Content)
	assert.Equal(t, 3, result.ToolIterations)
	assert.Len(t, result.ToolCalls, 2)
}

func TestAgent_Run_UpstreamFailure(t *testing.T) {
	f := newFixture(t, false)

	f.client.EXPECT().ChatCompletions(gomock.Any(), gomock.Any()).
		Return(providers.CreateChatCompletionResponse{}, fmt.Errorf("%w: unexpected status code 500", providers.ErrUpstream))

	result, err := f.agent.Run(context.Background(), agent.Request{Prompt: "p", Model: "m"})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, agent.ErrUpstream)
	assert.ErrorIs(t, err, providers.ErrUpstream)
	assert.False(t, agent.IsConfigurationError(err))
}

func TestAgent_Run_Validation(t *testing.T) {
	tests := []struct {
		name    string
		request agent.Request
	}{
		{name: "NoPromptNoImages", request: agent.Request{Prompt: "   ", Model: "m"}},
		{name: "NoModel", request: agent.Request{Prompt: "p"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)

			_, err := f.agent.Run(context.Background(), tt.request)

			require.Error(t, err)
			assert.True(t, agent.IsConfigurationError(err))
		})
	}
}

func TestAgent_Run_ImageOnlyRequest(t *testing.T) {
	f := newFixture(t, false)

	f.client.EXPECT().
		ChatCompletions(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req providers.CreateChatCompletionRequest) (providers.CreateChatCompletionResponse, error) {
			last, err := json.Marshal(req.Messages[len(req.Messages)-1])
			require.NoError(t, err)
			assert.JSONEq(t, `{"role":"user","content":[{"type":"image_url","image_url":{"url":"data:image/png;base64,AAA","detail":"high"}}]}`, string(last))
			return textResponse("a cat", ""), nil
		})

	result, err := f.agent.Run(context.Background(), agent.Request{
		Model:            "m",
		ImageAttachments: []*agent.ImageAttachment{{DataURL: "data:image/png;base64,AAA"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "a cat", result.Content)
}
