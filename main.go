package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	bookingx "github.com/marisburan/voyago/agent/booking"
	gatewayx "github.com/marisburan/voyago/agent/gateway"
	oraclex "github.com/marisburan/voyago/agent/oracle"
	toolx "github.com/marisburan/voyago/agent/tool"
	checkoutx "github.com/marisburan/voyago/pkg/checkout"
	configx "github.com/marisburan/voyago/pkg/config"
	_ "github.com/marisburan/voyago/pkg/logger/autoload"
	mcpx "github.com/marisburan/voyago/pkg/mcp"
	openrouterx "github.com/marisburan/voyago/pkg/openrouter"
)

const shutdownGrace = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checkoutCfg := configx.MustNew[checkoutx.Config]("CHECKOUT")
	checkoutClient, err := checkoutx.NewClient(*checkoutCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize checkout client")
	}

	engine := bookingx.NewEngine(checkoutClient, bookingx.NewStore())
	dispatcher := toolx.NewDispatcher(engine)

	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	decider, err := oraclex.NewLLM(ctx, openRouterCfg, dispatcher.ToolInfos())
	if err != nil {
		log.Fatal().Err(err).Msg("initialize decision oracle")
	}

	gatewayCfg := configx.MustNew[gatewayx.Config]("GATEWAY")
	gw := gatewayx.New(decider, dispatcher, *gatewayCfg)
	httpServer := &http.Server{
		Addr:              gatewayCfg.Addr,
		Handler:           gw.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	mcpCfg := configx.MustNew[mcpx.ServerConfig]("MCP")
	mcpServer := mcpx.NewServer(*mcpCfg, dispatcher)
	if err := mcpServer.Start(); err != nil {
		log.Fatal().Err(err).Msg("start mcp server")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", gatewayCfg.Addr).Msg("session gateway listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := httpServer.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("gateway shutdown")
		}
		return mcpServer.Stop(sctx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("bye")
}
