// Package main provides the game server binary: the websocket-facing
// process that runs the fixed-rate Game Loop, the Command Queue/Dispatcher,
// the Combat System, the Event Propagator, and the AI Agent Manager against
// a PostgreSQL-backed World Store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
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
	"github.com/cory-johannsen/textworld/internal/llm"
	"github.com/cory-johannsen/textworld/internal/llm/anthropic"
	"github.com/cory-johannsen/textworld/internal/llm/memoracle"
	"github.com/cory-johannsen/textworld/internal/observability"
	"github.com/cory-johannsen/textworld/internal/server"
	"github.com/cory-johannsen/textworld/internal/worldstore"
	"github.com/cory-johannsen/textworld/internal/worldstore/memstore"
	"github.com/cory-johannsen/textworld/internal/worldstore/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	roomsDir := flag.String("rooms", "content/rooms", "path to room YAML files directory")
	aiDir := flag.String("ai-dir", "content/ai", "path to AI agent template YAML directory")
	memStore := flag.Bool("memstore", false, "use the in-memory World Store instead of PostgreSQL")
	adminAddr := flag.String("admin-addr", ":8090", "bind address for the admin HTTP surface")
	metricsAddr := flag.String("metrics-addr", ":9090", "bind address for the Prometheus metrics endpoint")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting game server",
		zap.String("transport_addr", cfg.Transport.Addr()),
		zap.Int("tick_rate_hz", cfg.GameLoop.TickRateHz),
	)

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	// World Store: PostgreSQL by default, in-memory when -memstore is set
	// (mirrors the devserver's quick-start store, useful for local smoke
	// testing the full binary without a database).
	var store worldstore.Store
	var pgPool *postgres.Pool
	if *memStore {
		store = memstore.New()
		logger.Info("using in-memory World Store")
	} else {
		dbStart := time.Now()
		pgPool, err = postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		store = postgres.NewStore(pgPool.DB())
	}

	worldStart := time.Now()
	rooms, err := world.LoadRoomsFromDir(*roomsDir)
	if err != nil {
		logger.Fatal("loading rooms", zap.Error(err))
	}
	roomMgr, err := world.NewManager(rooms)
	if err != nil {
		logger.Fatal("creating world manager", zap.Error(err))
	}
	logger.Info("world loaded",
		zap.Int("rooms", roomMgr.RoomCount()),
		zap.Duration("elapsed", time.Since(worldStart)),
	)

	charReg := state.NewCharacterRegistry()
	if err := bootstrap.LoadPersistedCharacters(ctx, store.Characters(), charReg); err != nil {
		logger.Fatal("loading persisted characters", zap.Error(err))
	}

	listeningReg := listening.New()
	sessionMgr := session.NewManager()
	queue := command.NewQueue()

	// Server, the Combat Engine, the AI Agent Manager, and the Event
	// Propagator form a dependency cycle: Server is the Propagator's
	// PlayerSink/AdminSink and the Engine's DeathNotifier, while the
	// Propagator is both the Engine's and the Manager's EventSink. Broken
	// by constructing each with a nil sink where needed and wiring the
	// missing piece in afterward via the Set*/With* setters.
	transport := server.New(cfg.Transport, store.Accounts(), store.Characters(), charReg, roomMgr, queue, nil, nil, sessionMgr, logger).
		WithMetrics(metrics)

	combatEngine := combat.New(charReg, store.Items(), nil, transport, cfg.Combat.FleeSuccessProbability, logger).
		WithMetrics(metrics)
	transport.SetCombatEngine(combatEngine)

	var oracle llm.Oracle
	switch cfg.Oracle.Provider {
	case "anthropic":
		oracle = anthropic.New(cfg.Oracle, logger)
	default:
		logger.Warn("oracle provider not recognized, falling back to the deterministic in-memory oracle",
			zap.String("provider", cfg.Oracle.Provider))
		oracle = memoracle.New()
	}

	agentMgr := ai.New(charReg, roomMgr, store.Items(), store.AIAgents(), store.TokenUsage(), queue, nil, oracle, cfg.AI, logger).
		WithMetrics(metrics)

	propagator := event.New(roomMgr, charReg, listeningReg, store.Events(), store.PlayerLogs(), transport, agentMgr, logger,
		event.WithAdminSink(transport),
		event.WithMetrics(metrics),
	)
	transport.SetPropagator(propagator)
	combatEngine.SetSink(propagator)
	agentMgr.SetSink(propagator)

	if err := agentMgr.LoadAgents(ctx); err != nil {
		logger.Fatal("loading persisted ai agents", zap.Error(err))
	}
	spawned, err := bootstrap.SpawnAgentsFromTemplates(ctx, *aiDir, roomMgr, charReg, store.Characters(), store.AIAgents(), agentMgr, logger)
	if err != nil {
		logger.Fatal("spawning ai agents from templates", zap.Error(err))
	}
	logger.Info("ai agents ready", zap.Int("spawned", spawned))

	dispatcher := command.New(charReg, store.Items(), roomMgr, listeningReg, combatEngine, propagator, logger)

	loop := gameloop.New(cfg.GameLoop.TickInterval(), store.GameStateStore(), metrics, logger)
	if err := loop.Restore(ctx); err != nil {
		logger.Fatal("restoring game loop state", zap.Error(err))
	}

	loop.Add("command-drain", gameloop.SubsystemFunc(func(ctx context.Context, tc gameloop.TickContext) error {
		if tc.Paused {
			return nil
		}
		bootstrap.DrainCommandsOnce(ctx, queue, dispatcher, cfg.GameLoop.CommandDrainCap, metrics, logger)
		return nil
	}))
	loop.Add("combat-tick", gameloop.SubsystemFunc(func(ctx context.Context, tc gameloop.TickContext) error {
		if tc.Paused {
			return nil
		}
		combatEngine.Tick(ctx)
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
		StartFn: func() error {
			agentMgr.Start(ctx)
			<-aiStopped
			return nil
		},
		StopFn: func() {
			agentMgr.Stop()
			close(aiStopped)
		},
	})

	httpServer := &http.Server{Addr: cfg.Transport.Addr(), Handler: transport}
	lifecycle.Add("transport", &server.FuncService{
		StartFn: func() error {
			logger.Info("websocket transport listening", zap.String("addr", cfg.Transport.Addr()))
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("websocket transport: %w", err)
			}
			return nil
		},
		StopFn: func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
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
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = adminHTTPServer.Shutdown(shutdownCtx)
		},
	})

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsHTTPServer := &http.Server{Addr: *metricsAddr, Handler: metricsMux}
	lifecycle.Add("metrics-http", &server.FuncService{
		StartFn: func() error {
			logger.Info("metrics http listening", zap.String("addr", *metricsAddr))
			if err := metricsHTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("metrics http: %w", err)
			}
			return nil
		},
		StopFn: func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsHTTPServer.Shutdown(shutdownCtx)
		},
	})

	if pgPool != nil {
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func() error {
				for {
					time.Sleep(30 * time.Second)
					if err := pgPool.Health(ctx, 5*time.Second); err != nil {
						logger.Warn("database health check failed", zap.Error(err))
					}
				}
			},
			StopFn: pgPool.Close,
		})
	}

	logger.Info("game server initialized", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
