package providers

import (
	"encoding/json"
	"fmt"
)

// MessageRole is the role of a chat message author
type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleTool      MessageRole = "tool"
)

// ContentPartType tags a part of multi-part message content
type ContentPartType string

const (
	ContentPartTypeText     ContentPartType = "text"
	ContentPartTypeImageURL ContentPartType = "image_url"
)

// ImageURL references an image by URL, data URLs included
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// ContentPart is one typed part of a multi-part message
type ContentPart struct {
	Type     ContentPartType `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *ImageURL       `json:"image_url,omitempty"`
}

// NewTextPart builds a text part
func NewTextPart(text string) ContentPart {
	return ContentPart{Type: ContentPartTypeText, Text: text}
}

// NewImagePart builds an image part with high detail
func NewImagePart(url string) ContentPart {
	return ContentPart{Type: ContentPartTypeImageURL, ImageURL: &ImageURL{URL: url, Detail: "high"}}
}

// MessageContent is either plain text, an ordered list of parts, or null
type MessageContent struct {
	text  *string
	parts []ContentPart
}

// NewTextContent wraps plain text content
func NewTextContent(text string) MessageContent {
	return MessageContent{text: &text}
}

// NewPartsContent wraps multi-part content
func NewPartsContent(parts []ContentPart) MessageContent {
	if parts == nil {
		parts = []ContentPart{}
	}
	return MessageContent{parts: parts}
}

// IsNull reports whether the content is JSON null
func (c MessageContent) IsNull() bool {
	return c.text == nil && c.parts == nil
}

// AsText returns the plain text content
func (c MessageContent) AsText() (string, bool) {
	if c.text == nil {
		return "", false
	}
	return *c.text, true
}

// AsParts returns the multi-part content
func (c MessageContent) AsParts() ([]ContentPart, bool) {
	if c.parts == nil {
		return nil, false
	}
	return c.parts, true
}

func (c MessageContent) MarshalJSON() ([]byte, error) {
	switch {
	case c.parts != nil:
		return json.Marshal(c.parts)
	case c.text != nil:
		return json.Marshal(*c.text)
	default:
		return []byte("null"), nil
	}
}

func (c *MessageContent) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.(type) {
	case nil:
		*c = MessageContent{}
		return nil
	case string:
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*c = NewTextContent(text)
		return nil
	case []interface{}:
		var parts []ContentPart
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*c = NewPartsContent(parts)
		return nil
	default:
		return fmt.Errorf("message content must be a string, an array of parts or null")
	}
}

// ChatCompletionToolType is the type of a tool declaration
type ChatCompletionToolType string

const ChatCompletionToolTypeFunction ChatCompletionToolType = "function"

// FunctionObject declares a callable function
type FunctionObject struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ChatCompletionTool is one entry of the tools array
type ChatCompletionTool struct {
	Type     ChatCompletionToolType `json:"type"`
	Function FunctionObject         `json:"function"`
}

// ChatCompletionMessageToolCallFunction names the function the model wants
// called and its JSON encoded arguments
type ChatCompletionMessageToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatCompletionMessageToolCall is one tool call requested by the model
type ChatCompletionMessageToolCall struct {
	ID       string                                `json:"id"`
	Type     ChatCompletionToolType                `json:"type"`
	Function ChatCompletionMessageToolCallFunction `json:"function"`
}

// Message is one role-tagged entry of a conversation
type Message struct {
	Role       MessageRole                     `json:"role"`
	Content    MessageContent                  `json:"content"`
	ToolCalls  []ChatCompletionMessageToolCall `json:"tool_calls,omitempty"`
	ToolCallID string                          `json:"tool_call_id,omitempty"`
}

// ToolChoiceAuto lets the model decide whether to call tools
const ToolChoiceAuto = "auto"

// CreateChatCompletionRequest is sent to the model backend
type CreateChatCompletionRequest struct {
	Model      string               `json:"model"`
	Messages   []Message            `json:"messages"`
	Tools      []ChatCompletionTool `json:"tools,omitempty"`
	ToolChoice string               `json:"tool_choice,omitempty"`
}

// ChatCompletionChoice is one completion candidate
type ChatCompletionChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// CreateChatCompletionResponse is returned by the model backend. Usage is
// kept verbatim so it can be handed back to callers untouched.
type CreateChatCompletionResponse struct {
	ID      string                 `json:"id,omitempty"`
	Object  string                 `json:"object,omitempty"`
	Created int64                  `json:"created,omitempty"`
	Model   string                 `json:"model,omitempty"`
	Choices []ChatCompletionChoice `json:"choices"`
	Usage   json.RawMessage        `json:"usage,omitempty"`
}

// CompletionUsage holds the token counts of a response
type CompletionUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// ParseUsage decodes the token counts of a response. ok is false when the
// backend reported no usage.
func (r *CreateChatCompletionResponse) ParseUsage() (CompletionUsage, bool) {
	var usage CompletionUsage
	if len(r.Usage) == 0 {
		return usage, false
	}
	if err := json.Unmarshal(r.Usage, &usage); err != nil {
		return usage, false
	}
	return usage, true
}
