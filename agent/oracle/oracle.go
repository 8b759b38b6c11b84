// Package oracle adapts a tool-calling chat model to the decision-oracle
// contract: task text in, streamed narrative chunks and ordered tool-call
// requests out. The reasoning itself is opaque to the rest of the system.
package oracle

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	contractx "github.com/marisburan/voyago/agent/contract"
	openrouterx "github.com/marisburan/voyago/pkg/openrouter"
)

//go:embed template/system.txt
var systemPromptRaw string

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
)

// LLM is the production Oracle: an eino chat model bound to the
// dispatcher's tool catalog.
type LLM struct {
	model einomodel.ToolCallingChatModel
	log   zerolog.Logger
}

var _ contractx.Oracle = (*LLM)(nil)

// NewLLM builds the model via the OpenRouter builder and binds the tool
// catalog to it.
func NewLLM(ctx context.Context, builder openrouterx.LLMBuilder, tools []*schema.ToolInfo) (*LLM, error) {
	base, err := builder.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: build chat model: %v", ErrModelInvoke, err)
	}
	bound, err := base.WithTools(tools)
	if err != nil {
		return nil, fmt.Errorf("%w: bind tool catalog: %v", ErrModelInvoke, err)
	}
	return NewLLMFromModel(bound), nil
}

// NewLLMFromModel wraps an already-bound model. Tests use this with fakes.
func NewLLMFromModel(m einomodel.ToolCallingChatModel) *LLM {
	return &LLM{
		model: m,
		log:   log.With().Str("component", "oracle").Logger(),
	}
}

type decisionPayload struct {
	Task        string                 `json:"task"`
	History     []contractx.Turn       `json:"history,omitempty"`
	ToolResults []contractx.ToolResult `json:"tool_results,omitempty"`
}

// Decide streams one model round. Narrative content is pushed through emit
// as it arrives; the concatenated message's tool calls become the ordered
// tool requests for this round.
func (o *LLM) Decide(ctx context.Context, req contractx.DecisionRequest, emit func(chunk string)) ([]contractx.ToolRequest, error) {
	payload, err := json.Marshal(decisionPayload{
		Task:        req.Task,
		History:     req.History,
		ToolResults: req.ToolResults,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal decision payload: %v", ErrModelInvoke, err)
	}

	messages := []*schema.Message{
		schema.SystemMessage(strings.TrimSpace(systemPromptRaw)),
		schema.UserMessage(string(payload)),
	}

	reader, err := o.model.Stream(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: stream decision: %v", ErrModelInvoke, err)
	}
	defer reader.Close()

	var chunks []*schema.Message
	for {
		msg, recvErr := reader.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return nil, fmt.Errorf("%w: receive decision chunk: %v", ErrModelInvoke, recvErr)
		}
		if msg == nil {
			continue
		}
		if msg.Content != "" && emit != nil {
			emit(msg.Content)
		}
		chunks = append(chunks, msg)
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: empty decision stream", ErrSchemaViolation)
	}

	full, err := schema.ConcatMessages(chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: concat decision stream: %v", ErrModelInvoke, err)
	}

	calls, err := toToolRequests(full.ToolCalls)
	if err != nil {
		return nil, err
	}

	o.log.Debug().
		Str("session_id", req.SessionID).
		Int("tool_calls", len(calls)).
		Msg("decision complete")
	return calls, nil
}

func toToolRequests(calls []schema.ToolCall) ([]contractx.ToolRequest, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	reqs := make([]contractx.ToolRequest, 0, len(calls))
	for _, call := range calls {
		tool := strings.TrimSpace(call.Function.Name)
		if tool == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", ErrSchemaViolation)
		}

		args := map[string]any{}
		rawArgs := strings.TrimSpace(call.Function.Arguments)
		if rawArgs != "" {
			if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", ErrSchemaViolation, tool, err)
			}
		}

		reqs = append(reqs, contractx.ToolRequest{Tool: tool, Args: args})
	}
	return reqs, nil
}
