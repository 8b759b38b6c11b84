// Package mcp exposes the travel tool catalog over the Model Context
// Protocol, backed by the same dispatcher instance the session gateway
// uses. MCP clients and websocket sessions therefore share one saga store.
package mcp

import (
	"context"
	"errors"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	contractx "github.com/marisburan/voyago/agent/contract"
)

// ServerConfig carries the MCP listen address and identity.
type ServerConfig struct {
	Addr    string `envconfig:"ADDR" split_words:"true" default:":3001"`
	Name    string `envconfig:"NAME" split_words:"true" default:"voyago-travel"`
	Version string `envconfig:"VERSION" split_words:"true" default:"0.1.0"`
}

// Server publishes the dispatcher's tools over streamable HTTP.
type Server struct {
	cfg        ServerConfig
	dispatcher contractx.Dispatcher
	mcpServer  *mcpserver.MCPServer
	httpServer *mcpserver.StreamableHTTPServer
	log        zerolog.Logger
}

// NewServer builds the MCP server and registers the tool catalog.
func NewServer(cfg ServerConfig, dispatcher contractx.Dispatcher) *Server {
	s := &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		log:        log.With().Str("component", "mcp").Logger(),
	}
	s.mcpServer = mcpserver.NewMCPServer(cfg.Name, cfg.Version,
		mcpserver.WithToolCapabilities(false),
	)
	s.registerTools()
	s.httpServer = mcpserver.NewStreamableHTTPServer(s.mcpServer)
	return s
}

// MCPServer exposes the underlying server, mainly for tests.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Start begins serving in the background.
func (s *Server) Start() error {
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("mcp server listening")
		if err := s.httpServer.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("mcp server stopped")
		}
	}()
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
