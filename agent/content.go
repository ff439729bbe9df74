package agent

import (
	"strings"

	"github.com/inference-gateway/instruct-agent/providers"
)

// DefaultImageMimeType is assumed for base64 attachments without a MIME type
const DefaultImageMimeType = "image/jpeg"

// ImageAttachment is an image sent along with the prompt, either as a
// ready data URL or as a base64 payload.
type ImageAttachment struct {
	DataURL  string `json:"dataUrl,omitempty"`
	Base64   string `json:"base64,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// URL resolves a usable image reference. ok is false when the attachment
// carries neither a data URL nor a base64 payload.
func (a *ImageAttachment) URL() (string, bool) {
	if a == nil {
		return "", false
	}
	if strings.HasPrefix(a.DataURL, "data:") {
		return a.DataURL, true
	}
	if strings.TrimSpace(a.Base64) == "" {
		return "", false
	}

	mime := a.MimeType
	if mime == "" {
		mime = DefaultImageMimeType
	}
	return "data:" + mime + ";base64," + a.Base64, true
}

// BuildUserContent combines the prompt and attachments into the content of
// the new user message. Text alone stays plain text; anything else becomes
// an ordered part list. Empty content is replaced by a single space since
// backends reject empty user messages.
func BuildUserContent(prompt string, attachments []*ImageAttachment) providers.MessageContent {
	var parts []providers.ContentPart
	if strings.TrimSpace(prompt) != "" {
		parts = append(parts, providers.NewTextPart(prompt))
	}

	for _, attachment := range attachments {
		if url, ok := attachment.URL(); ok {
			parts = append(parts, providers.NewImagePart(url))
		}
	}

	switch {
	case len(parts) == 0:
		return providers.NewTextContent(" ")
	case len(parts) == 1 && parts[0].Type == providers.ContentPartTypeText:
		return providers.NewTextContent(parts[0].Text)
	default:
		return providers.NewPartsContent(parts)
	}
}

// BuildMessages assembles the initial conversation: the system prompt, the
// prior conversation without its system entries, then the new user message.
func BuildMessages(systemPrompt string, history []providers.Message, userContent providers.MessageContent) []providers.Message {
	messages := make([]providers.Message, 0, len(history)+2)
	messages = append(messages, providers.Message{
		Role:    providers.MessageRoleSystem,
		Content: providers.NewTextContent(systemPrompt),
	})

	for _, m := range history {
		if m.Role == "" || m.Role == providers.MessageRoleSystem {
			continue
		}
		messages = append(messages, providers.Message{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	return append(messages, providers.Message{
		Role:    providers.MessageRoleUser,
		Content: userContent,
	})
}
