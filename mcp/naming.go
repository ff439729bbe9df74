package mcp

import (
	"encoding/json"
	"strings"

	"github.com/inference-gateway/instruct-agent/providers"
)

// FunctionNameSeparator joins a server id and a tool name into one function name
const FunctionNameSeparator = "__"

var emptySchema = json.RawMessage(`{}`)

// EncodeFunctionName builds the flat function name for a server tool
func EncodeFunctionName(serverID, toolName string) string {
	return serverID + FunctionNameSeparator + toolName
}

// DecodeFunctionName splits a function name at the first separator. ok is
// false when the name carries no separator and so belongs to no server.
func DecodeFunctionName(functionName string) (serverID, toolName string, ok bool) {
	serverID, toolName, ok = strings.Cut(functionName, FunctionNameSeparator)
	if !ok {
		return "", "", false
	}
	return serverID, toolName, true
}

// ToolToFunction declares a server tool in the model backend's
// function-calling format.
func ToolToFunction(serverID string, tool Tool) providers.ChatCompletionTool {
	params := tool.InputSchema
	if isNullResult(params) {
		params = emptySchema
	}

	return providers.ChatCompletionTool{
		Type: providers.ChatCompletionToolTypeFunction,
		Function: providers.FunctionObject{
			Name:        EncodeFunctionName(serverID, tool.Name),
			Description: tool.Description,
			Parameters:  params,
		},
	}
}

// ResultToText flattens a tool result into plain text: every text entry and
// every resource entry with inline text, joined by a blank line.
func ResultToText(result *CallToolResult) string {
	if result == nil {
		return ""
	}

	var parts []string
	for _, content := range result.Content {
		switch content.Type {
		case ContentTypeText:
			if content.Text != nil && content.Text.Text != "" {
				parts = append(parts, content.Text.Text)
			}
		case ContentTypeResource:
			if content.Resource != nil && content.Resource.Text != nil && *content.Resource.Text != "" {
				parts = append(parts, *content.Resource.Text)
			}
		}
	}

	return strings.Join(parts, "\n\n")
}
