package contract

import "context"

// Oracle is the external decision step that chooses which tools to invoke
// next for a task. Narrative text is pushed through emit as it becomes
// available; the returned slice is the ordered tool calls for this round
// (empty means the task is answered). The oracle is opaque to the core:
// only this contract is part of the system.
type Oracle interface {
	Decide(ctx context.Context, req DecisionRequest, emit func(chunk string)) ([]ToolRequest, error)
}

// Dispatcher routes one tool invocation to its handler and returns a
// structured result. It never retries and never panics a session: every
// failure comes back as a ToolResult carrying a tagged error.
type Dispatcher interface {
	Dispatch(ctx context.Context, req ToolRequest) ToolResult
}
