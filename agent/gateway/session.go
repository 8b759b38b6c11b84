package gateway

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	contractx "github.com/marisburan/voyago/agent/contract"
)

// session is one client connection and its in-flight task state. At most
// one task runs at a time; a new task cancels the previous one before it
// starts, and the cancelled task's remaining chunks are dropped unseen.
type session struct {
	id   string
	gw   *Gateway
	conn *websocket.Conn
	ctx  context.Context
	log  zerolog.Logger

	// writeMu serializes websocket writes across the read loop and task
	// goroutines.
	writeMu sync.Mutex

	// taskMu guards the current task's cancel func and the conversation
	// history.
	taskMu  sync.Mutex
	cancel  context.CancelFunc
	history []contractx.Turn
}

// run is the read loop. It returns when the client disconnects or the
// session context ends; either way the current task is cancelled.
func (s *session) run(ctx context.Context) {
	defer s.cancelTask()

	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Warn().Err(err).Msg("unreadable client message")
			s.send(ctx, outbound{
				Type:      chunkError,
				SessionID: s.id,
				Err:       contractx.NewError(contractx.KindValidation, "message is not valid JSON"),
			})
			continue
		}

		switch msg.Type {
		case inboundTask:
			if strings.TrimSpace(msg.Text) == "" {
				s.send(ctx, outbound{
					Type:      chunkError,
					SessionID: s.id,
					Err:       contractx.NewError(contractx.KindValidation, "task text is empty"),
				})
				continue
			}
			s.startTask(msg.Text)
		case inboundCancel:
			s.cancelTask()
		default:
			s.send(ctx, outbound{
				Type:      chunkError,
				SessionID: s.id,
				Err: contractx.NewErrorWithDetails(contractx.KindValidation,
					map[string]any{"type": msg.Type},
					"unknown message type"),
			})
		}
	}
}

// startTask cancels any running task and launches a fresh one. The old
// task's dispatched external calls still run to completion inside the
// checkout client; only their streaming is suppressed.
func (s *session) startTask(text string) {
	taskCtx, cancel := context.WithCancel(s.ctx)
	taskID := uuid.NewString()

	s.taskMu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	history := make([]contractx.Turn, len(s.history))
	copy(history, s.history)
	s.taskMu.Unlock()

	s.log.Info().Str("task_id", taskID).Msg("task started")
	go s.runTask(taskCtx, taskID, text, history)
}

func (s *session) cancelTask() {
	s.taskMu.Lock()
	defer s.taskMu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// runTask drives one task: oracle rounds interleaved with tool execution,
// bounded by MaxToolRounds. Tool calls within a round may overlap, but
// their results are streamed strictly in issue order.
func (s *session) runTask(ctx context.Context, taskID, text string, history []contractx.Turn) {
	var (
		results   []contractx.ToolResult
		narrative strings.Builder
	)

	emit := func(chunk string) {
		narrative.WriteString(chunk)
		s.send(ctx, outbound{
			Type:      chunkNarrative,
			SessionID: s.id,
			TaskID:    taskID,
			Text:      chunk,
		})
	}

	for round := 0; round < s.gw.cfg.MaxToolRounds; round++ {
		if ctx.Err() != nil {
			return
		}

		calls, err := s.gw.oracle.Decide(ctx, contractx.DecisionRequest{
			SessionID:   s.id,
			Task:        text,
			History:     history,
			ToolResults: results,
		}, emit)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Error().Err(err).Str("task_id", taskID).Msg("oracle decision failed")
			s.send(ctx, outbound{
				Type:      chunkError,
				SessionID: s.id,
				TaskID:    taskID,
				Err:       contractx.AsError(err),
			})
			s.send(ctx, outbound{Type: chunkDone, SessionID: s.id, TaskID: taskID})
			return
		}
		if len(calls) == 0 {
			break
		}

		roundResults, ok := s.executeRound(ctx, taskID, calls)
		if !ok {
			return
		}
		results = append(results, roundResults...)
	}

	if ctx.Err() != nil {
		return
	}
	// Record the exchange before the done marker goes out, so a follow-up
	// task sent right after "done" always sees this one in its history.
	s.appendHistory(ctx, text, narrative.String())
	s.send(ctx, outbound{Type: chunkDone, SessionID: s.id, TaskID: taskID})
	s.log.Info().Str("task_id", taskID).Int("tool_results", len(results)).Msg("task complete")
}

// executeRound dispatches one round of tool calls with overlap and streams
// the results in the order the calls were issued. It returns ok=false when
// the task was cancelled mid-round; already-collected results are discarded
// and never streamed.
func (s *session) executeRound(ctx context.Context, taskID string, calls []contractx.ToolRequest) ([]contractx.ToolResult, bool) {
	pending := make([]chan contractx.ToolResult, len(calls))
	for i, call := range calls {
		ch := make(chan contractx.ToolResult, 1)
		pending[i] = ch
		go func(call contractx.ToolRequest, ch chan<- contractx.ToolResult) {
			ch <- s.gw.dispatcher.Dispatch(ctx, call)
		}(call, ch)
	}

	results := make([]contractx.ToolResult, 0, len(calls))
	for i := range calls {
		res := <-pending[i]
		if ctx.Err() != nil {
			return nil, false
		}
		s.send(ctx, outbound{
			Type:      chunkToolResult,
			SessionID: s.id,
			TaskID:    taskID,
			Result:    &res,
		})
		results = append(results, res)
	}
	return results, true
}

// appendHistory records a completed exchange so later tasks on this session
// see the conversation so far. Cancelled tasks leave no trace.
func (s *session) appendHistory(ctx context.Context, task, answer string) {
	if ctx.Err() != nil {
		return
	}

	s.taskMu.Lock()
	defer s.taskMu.Unlock()

	s.history = append(s.history, contractx.Turn{Role: "user", Content: task})
	if answer != "" {
		s.history = append(s.history, contractx.Turn{Role: "assistant", Content: answer})
	}
	if limit := s.gw.cfg.MaxHistoryTurns; len(s.history) > limit {
		s.history = s.history[len(s.history)-limit:]
	}
}

// send writes one chunk unless the task it belongs to was cancelled. The
// write itself runs under the session context so a cancelled task can never
// sneak a late chunk onto the wire.
func (s *session) send(taskCtx context.Context, msg outbound) {
	if taskCtx.Err() != nil {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal outbound chunk")
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if taskCtx.Err() != nil {
		return
	}

	wctx, cancel := context.WithTimeout(s.ctx, s.gw.cfg.WriteTimeout)
	defer cancel()
	if err := s.conn.Write(wctx, websocket.MessageText, data); err != nil {
		s.log.Debug().Err(err).Msg("websocket write failed")
	}
}
