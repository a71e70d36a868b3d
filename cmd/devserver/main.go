// Package main provides the all-in-one development server: the same
// simulation core as cmd/gameserver, wired against the in-memory World
// Store and the deterministic in-memory Oracle so the whole system can be
// exercised locally with no database and no LLM credentials.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/cory-johannsen/textworld/internal/adminhttp"
	"github.com/cory-johannsen/textworld/internal/bootstrap"
	"github.com/cory-johannsen/textworld/internal/config"
	"github.com/cory-johannsen/textworld/internal/game/ai"
	"github.com/cory-johannsen/textworld/internal/game/combat"
	"github.com/cory-johannsen/textworld/internal/game/command"
	"github.com/cory-johannsen/textworld/internal/game/event"
	"github.com/cory-johannsen/textworld/internal/game/listening"
	"github.com/cory-johannsen/textworld/internal/game/session"
	"github.com/cory-johannsen/textworld/internal/game/state"
	"github.com/cory-johannsen/textworld/internal/game/world"
	"github.com/cory-johannsen/textworld/internal/gameloop"
	"github.com/cory-johannsen/textworld/internal/llm/memoracle"
	"github.com/cory-johannsen/textworld/internal/observability"
	"github.com/cory-johannsen/textworld/internal/server"
	"github.com/cory-johannsen/textworld/internal/worldstore/memstore"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	roomsDir := flag.String("rooms", "content/rooms", "path to room YAML files directory")
	aiDir := flag.String("ai-dir", "content/ai", "path to AI agent template YAML directory")
	addr := flag.String("addr", ":8080", "bind address for the websocket transport")
	adminAddr := flag.String("admin-addr", ":8090", "bind address for the admin HTTP surface")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if host, portStr, err := net.SplitHostPort(*addr); err == nil {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.Transport.Host, cfg.Transport.Port = host, port
		}
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting dev server", zap.String("addr", *addr))

	metrics := observability.NewMetrics(prometheus.NewRegistry())

	store := memstore.New()

	rooms, err := world.LoadRoomsFromDir(*roomsDir)
	if err != nil {
		logger.Fatal("loading rooms", zap.Error(err))
	}
	roomMgr, err := world.NewManager(rooms)
	if err != nil {
		logger.Fatal("creating world manager", zap.Error(err))
	}
	logger.Info("world loaded", zap.Int("rooms", roomMgr.RoomCount()))

	charReg := state.NewCharacterRegistry()
	listeningReg := listening.New()
	sessionMgr := session.NewManager()
	queue := command.NewQueue()

	transport := server.New(cfg.Transport, store.Accounts(), store.Characters(), charReg, roomMgr, queue, nil, nil, sessionMgr, logger).
		WithMetrics(metrics)

	combatEngine := combat.New(charReg, store.Items(), nil, transport, cfg.Combat.FleeSuccessProbability, logger)
	transport.SetCombatEngine(combatEngine)

	agentMgr := ai.New(charReg, roomMgr, store.Items(), store.AIAgents(), store.TokenUsage(), queue, nil, memoracle.New(), cfg.AI, logger)

	propagator := event.New(roomMgr, charReg, listeningReg, store.Events(), store.PlayerLogs(), transport, agentMgr, logger,
		event.WithAdminSink(transport),
	)
	transport.SetPropagator(propagator)
	combatEngine.SetSink(propagator)
	agentMgr.SetSink(propagator)

	spawned, err := bootstrap.SpawnAgentsFromTemplates(ctx, *aiDir, roomMgr, charReg, store.Characters(), store.AIAgents(), agentMgr, logger)
	if err != nil {
		logger.Fatal("spawning ai agents from templates", zap.Error(err))
	}
	logger.Info("ai agents ready", zap.Int("spawned", spawned))

	dispatcher := command.New(charReg, store.Items(), roomMgr, listeningReg, combatEngine, propagator, logger)

	loop := gameloop.New(cfg.GameLoop.TickInterval(), store.GameStateStore(), metrics, logger)

	loop.Add("command-drain", gameloop.SubsystemFunc(func(ctx context.Context, tc gameloop.TickContext) error {
		if !tc.Paused {
			bootstrap.DrainCommandsOnce(ctx, queue, dispatcher, cfg.GameLoop.CommandDrainCap, metrics, logger)
		}
		return nil
	}))
	loop.Add("combat-tick", gameloop.SubsystemFunc(func(ctx context.Context, tc gameloop.TickContext) error {
		if !tc.Paused {
			combatEngine.Tick(ctx)
		}
		return nil
	}))
	loop.Add("event-flush", gameloop.SubsystemFunc(func(ctx context.Context, tc gameloop.TickContext) error {
		propagator.FlushQueue(ctx)
		return nil
	}))

	lifecycle := server.NewLifecycle(logger)

	lifecycle.Add("game-loop", &server.FuncService{
		StartFn: func() error { return loop.Run(ctx) },
		StopFn:  loop.Stop,
	})

	aiStopped := make(chan struct{})
	lifecycle.Add("ai-manager", &server.FuncService{
		StartFn: func() error { agentMgr.Start(ctx); <-aiStopped; return nil },
		StopFn:  func() { agentMgr.Stop(); close(aiStopped) },
	})

	httpServer := &http.Server{Addr: *addr, Handler: transport}
	lifecycle.Add("transport", &server.FuncService{
		StartFn: func() error {
			logger.Info("websocket transport listening", zap.String("addr", *addr))
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("websocket transport: %w", err)
			}
			return nil
		},
		StopFn: func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
		},
	})

	adminSrv := adminhttp.New(loop, queue, agentMgr, logger)
	adminHTTPServer := &http.Server{Addr: *adminAddr, Handler: adminSrv.Router}
	lifecycle.Add("admin-http", &server.FuncService{
		StartFn: func() error {
			logger.Info("admin http listening", zap.String("addr", *adminAddr))
			if err := adminHTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("admin http: %w", err)
			}
			return nil
		},
		StopFn: func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = adminHTTPServer.Shutdown(shutdownCtx)
		},
	})

	logger.Info("dev server initialized", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
