// Package gateway is the streaming session layer: it accepts websocket
// connections, runs one independent execution context per session, hands
// inbound tasks to the decision oracle, executes the requested tool calls
// through the dispatcher, and streams chunks back in issue order.
package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	contractx "github.com/marisburan/voyago/agent/contract"
)

// Config bounds a session's behavior. MaxToolRounds caps the oracle⇄tool
// loop per task so a misbehaving model cannot spin a session forever.
type Config struct {
	Addr            string        `envconfig:"ADDR" split_words:"true" default:":8080"`
	MaxToolRounds   int           `envconfig:"MAX_TOOL_ROUNDS" split_words:"true" default:"8"`
	MaxHistoryTurns int           `envconfig:"MAX_HISTORY_TURNS" split_words:"true" default:"20"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" split_words:"true" default:"10s"`
}

// Gateway owns the session registry. Sessions share only the dispatcher
// (and, through it, the saga store and the checkout connection pool); a
// failure inside one session never touches another.
type Gateway struct {
	oracle     contractx.Oracle
	dispatcher contractx.Dispatcher
	cfg        Config
	log        zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

// New builds a Gateway around a decision oracle and a tool dispatcher.
func New(oracle contractx.Oracle, dispatcher contractx.Dispatcher, cfg Config) *Gateway {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = 8
	}
	if cfg.MaxHistoryTurns <= 0 {
		cfg.MaxHistoryTurns = 20
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &Gateway{
		oracle:     oracle,
		dispatcher: dispatcher,
		cfg:        cfg,
		log:        log.With().Str("component", "gateway").Logger(),
		sessions:   make(map[string]*session),
	}
}

// Router returns the HTTP surface: the websocket endpoint plus a health
// probe.
func (g *Gateway) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ws", g.handleWS)
	return r
}

// SessionCount returns the number of live sessions.
func (g *Gateway) SessionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.sessions)
}

// handleWS upgrades the connection and runs the session's read loop until
// the client disconnects. Disconnection cancels the session context, which
// stops streaming; in-flight saga state is untouched because the checkout
// client never propagates task cancellation.
func (g *Gateway) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled upstream
	})
	if err != nil {
		g.log.Error().Err(err).Msg("websocket accept failed")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sessionID := uuid.NewString()
	s := &session{
		id:   sessionID,
		gw:   g,
		conn: ws,
		ctx:  ctx,
		log:  g.log.With().Str("session_id", sessionID).Logger(),
	}

	g.add(s)
	defer g.remove(s)
	defer func() { _ = ws.Close(websocket.StatusNormalClosure, "") }()

	s.log.Info().Str("remote", r.RemoteAddr).Msg("session connected")
	s.run(ctx)
	s.log.Info().Msg("session disconnected")
}

func (g *Gateway) add(s *session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[s.id] = s
}

func (g *Gateway) remove(s *session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sessions, s.id)
}
