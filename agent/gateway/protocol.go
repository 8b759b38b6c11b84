package gateway

import (
	contractx "github.com/marisburan/voyago/agent/contract"
)

const (
	inboundTask   = "task"
	inboundCancel = "cancel"

	chunkNarrative  = "narrative"
	chunkToolResult = "tool_result"
	chunkError      = "error"
	chunkDone       = "done"
)

// inbound is one client message: a new task, or a cancel of the current one.
type inbound struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// outbound is one streamed chunk. Every chunk names the task it belongs to,
// and a task always ends with a single "done" chunk unless it was cancelled.
type outbound struct {
	Type      string                `json:"type"`
	SessionID string                `json:"session_id"`
	TaskID    string                `json:"task_id,omitempty"`
	Text      string                `json:"text,omitempty"`
	Result    *contractx.ToolResult `json:"result,omitempty"`
	Err       *contractx.Error      `json:"error,omitempty"`
}
