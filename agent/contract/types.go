package contract

// ToolRequest is one ordered tool invocation issued by the decision oracle:
// a tool name plus loosely-typed arguments. Argument validation belongs to
// the dispatcher, not the oracle.
type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult is the all-or-nothing outcome of one tool invocation. Either
// Data is populated (OK true) or Err is (OK false); a result is never
// partially applied from the caller's perspective.
type ToolResult struct {
	Tool string         `json:"tool"`
	OK   bool           `json:"ok"`
	Data map[string]any `json:"data,omitempty"`
	Err  *Error         `json:"error,omitempty"`
}

// Succeed builds a successful ToolResult.
func Succeed(tool string, data map[string]any) ToolResult {
	return ToolResult{Tool: tool, OK: true, Data: data}
}

// Fail builds a failed ToolResult from a tagged error.
func Fail(tool string, err *Error) ToolResult {
	return ToolResult{Tool: tool, OK: false, Err: err}
}

// Turn is one prior exchange in a session's conversation, kept so the oracle
// sees context across tasks on the same connection.
type Turn struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

// DecisionRequest is what the gateway hands the decision oracle for one
// round of a task: the task text, prior turns on the session, and the tool
// results accumulated so far within this task.
type DecisionRequest struct {
	SessionID   string       `json:"session_id"`
	Task        string       `json:"task"`
	History     []Turn       `json:"history,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}
