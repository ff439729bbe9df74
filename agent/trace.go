package agent

// PreviewLength bounds the result preview kept in a trace entry, in runes
const PreviewLength = 200

// TraceStatus is the outcome of one tool invocation
type TraceStatus string

const (
	TraceStatusCompleted TraceStatus = "completed"
	TraceStatusError     TraceStatus = "error"
)

// ToolCallTrace records one attempted tool invocation of a request
type ToolCallTrace struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	ServerID string      `json:"serverId,omitempty"`
	ToolName string      `json:"toolName,omitempty"`
	Status   TraceStatus `json:"status"`
	Preview  *string     `json:"preview,omitempty"`
	Error    string      `json:"error,omitempty"`
}

func preview(text string) *string {
	runes := []rune(text)
	if len(runes) > PreviewLength {
		text = string(runes[:PreviewLength])
	}
	return &text
}
