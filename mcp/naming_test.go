package mcp_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inference-gateway/instruct-agent/mcp"
	"github.com/inference-gateway/instruct-agent/providers"
)

func TestFunctionNameRoundTrip(t *testing.T) {
	tests := []struct {
		serverID string
		toolName string
	}{
		{serverID: "deepwiki", toolName: "ask_question"},
		{serverID: "web-fetch", toolName: "fetch"},
		{serverID: "microsoft-learn", toolName: "docs__search"},
		{serverID: "a", toolName: "__leading"},
		{serverID: "srv", toolName: ""},
	}

	for _, tt := range tests {
		t.Run(tt.serverID+"/"+tt.toolName, func(t *testing.T) {
			serverID, toolName, ok := mcp.DecodeFunctionName(mcp.EncodeFunctionName(tt.serverID, tt.toolName))
			assert.True(t, ok)
			assert.Equal(t, tt.serverID, serverID)
			assert.Equal(t, tt.toolName, toolName)
		})
	}
}

func TestDecodeFunctionName_NoSeparator(t *testing.T) {
	for _, name := range []string{"", "search", "web-fetch_fetch", "a_b"} {
		serverID, toolName, ok := mcp.DecodeFunctionName(name)
		assert.False(t, ok, name)
		assert.Empty(t, serverID)
		assert.Empty(t, toolName)
	}
}

func TestToolToFunction(t *testing.T) {
	tests := []struct {
		name         string
		tool         mcp.Tool
		expectSchema string
	}{
		{
			name:         "WithSchema",
			tool:         mcp.Tool{Name: "search", Description: "Search", InputSchema: json.RawMessage(`{"type":"object","properties":{"q":{"type":"string"}}}`)},
			expectSchema: `{"type":"object","properties":{"q":{"type":"string"}}}`,
		},
		{
			name:         "MissingSchema",
			tool:         mcp.Tool{Name: "ping"},
			expectSchema: `{}`,
		},
		{
			name:         "NullSchema",
			tool:         mcp.Tool{Name: "ping", InputSchema: json.RawMessage(`null`)},
			expectSchema: `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := mcp.ToolToFunction("deepwiki", tt.tool)

			assert.Equal(t, providers.ChatCompletionToolTypeFunction, fn.Type)
			assert.Equal(t, "deepwiki__"+tt.tool.Name, fn.Function.Name)
			assert.Equal(t, tt.tool.Description, fn.Function.Description)
			assert.JSONEq(t, tt.expectSchema, string(fn.Function.Parameters))
		})
	}
}

func TestResultToText(t *testing.T) {
	text := func(s string) *string { return &s }

	tests := []struct {
		name   string
		result *mcp.CallToolResult
		expect string
	}{
		{name: "Nil", result: nil, expect: ""},
		{name: "Empty", result: &mcp.CallToolResult{}, expect: ""},
		{
			name: "TextOnly",
			result: &mcp.CallToolResult{Content: []mcp.Content{
				mcp.NewTextContent("one"),
				mcp.NewTextContent("two"),
			}},
			expect: "one\n\ntwo",
		},
		{
			name: "ResourceWithoutTextSkipped",
			result: &mcp.CallToolResult{Content: []mcp.Content{
				{Type: mcp.ContentTypeResource, Resource: &mcp.ResourceContents{URI: "file://bin", Blob: text("AAAA")}},
				{Type: mcp.ContentTypeResource, Resource: &mcp.ResourceContents{URI: "file://doc", Text: text("doc")}},
				{Type: mcp.ContentTypeImage, Raw: json.RawMessage(`{"type":"image","data":"x"}`)},
			}},
			expect: "doc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, mcp.ResultToText(tt.result))
		})
	}
}

func TestContent_RejectsMalformedShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{name: "Text", payload: `{"type":"text","text":"hi"}`},
		{name: "EmptyText", payload: `{"type":"text","text":""}`},
		{name: "Resource", payload: `{"type":"resource","resource":{"uri":"a","text":"b"}}`},
		{name: "Image", payload: `{"type":"image","data":"abc","mimeType":"image/png"}`},
		{name: "MissingType", payload: `{"text":"hi"}`, wantErr: true},
		{name: "TextWithoutText", payload: `{"type":"text"}`, wantErr: true},
		{name: "ResourceWithoutResource", payload: `{"type":"resource"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c mcp.Content
			err := json.Unmarshal([]byte(tt.payload), &c)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)

			out, err := json.Marshal(c)
			assert.NoError(t, err)
			assert.JSONEq(t, tt.payload, string(out))
		})
	}
}
