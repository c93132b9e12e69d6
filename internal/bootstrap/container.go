package bootstrap

import (
	"context"
	"fmt"
	"time"

	"money-coach-be/internal/config"
	"money-coach-be/internal/controller"
	"money-coach-be/internal/pkg/logger"
	"money-coach-be/internal/repository/memory"
	"money-coach-be/internal/repository/unitofwork"
	"money-coach-be/internal/service"
	"money-coach-be/internal/websocket"
	"money-coach-be/pkg/coach/backfill"
	"money-coach-be/pkg/coach/briefing"
	"money-coach-be/pkg/coach/cards"
	"money-coach-be/pkg/coach/closer"
	"money-coach-be/pkg/coach/notes"
	"money-coach-be/pkg/coach/simulator"
	"money-coach-be/pkg/coach/suggestion"
	"money-coach-be/pkg/coach/turn"
	"money-coach-be/pkg/coach/understanding"
	"money-coach-be/pkg/database"
	"money-coach-be/pkg/events"
	"money-coach-be/pkg/llm/factory"
	"money-coach-be/pkg/lock"
	"money-coach-be/pkg/taskqueue"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	briefingCacheTTL = 24 * time.Hour
	redisLockTTL     = 2 * time.Minute
	hubLogFile       = "logs/hub.log"
)

type Container struct {
	// Controllers
	CoachController     controller.ICoachController
	SimulatorController controller.ISimulatorController
	AdminController     controller.IAdminController

	// Services shared with the command line tools
	CoachService     service.ICoachService
	SimulatorService service.ISimulatorService
	BackfillService  service.IBackfillService

	// Background services, started by main
	ConsumerService service.IConsumerService
	SweeperService  service.ISweeperService

	WebSocketHub *websocket.Hub
	Logger       logger.ILogger
	Config       *config.Config

	closers []func() error
}

// NewContainer wires every component. The context bounds the hub and any
// other long-lived goroutine the container starts.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger, Config: cfg}

	// 1. Storage
	uowFactory, err := c.newRepositoryFactory(cfg)
	if err != nil {
		return nil, err
	}

	// 2. Infrastructure
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb = redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			sysLogger.Warn(logger.ModuleServer, "Redis unreachable", map[string]interface{}{"error": err.Error()})
		}
		c.closers = append(c.closers, rdb.Close)
	}

	var locker lock.Locker
	switch cfg.Worker.LockDriver {
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("lock driver redis requires REDIS_URL")
		}
		locker = lock.NewRedisLocker(rdb, redisLockTTL)
	default:
		locker = lock.NewLocalLocker()
	}

	var queue taskqueue.Queue
	var sinks []events.Sink
	switch cfg.Worker.TaskQueueDriver {
	case "nats":
		nq, err := taskqueue.NewNatsQueue(cfg.App.NatsURL, sysLogger, cfg.Worker.TaskMaxRetries)
		if err != nil {
			return nil, fmt.Errorf("connect task queue: %w", err)
		}
		queue = nq
		sinks = append(sinks, nq.Publisher())
	default:
		queue = taskqueue.NewWatermillQueue(sysLogger, cfg.Worker.TaskMaxRetries)
	}
	c.closers = append(c.closers, queue.Close)

	hub := websocket.NewHub(rdb, logger.NewIsolatedLogger(hubLogFile))
	go hub.Run(ctx)
	sinks = append(sinks, hub)
	c.WebSocketHub = hub

	publisher := events.NewPublisher(sysLogger, sinks...)

	// 3. Language model
	provider, err := factory.NewLLMProvider(ctx, factory.ProviderConfig{
		Provider:          cfg.Ai.LLMProvider,
		Model:             cfg.Ai.LLMModel,
		OllamaBaseURL:     cfg.Ai.OllamaBaseURL,
		HuggingFaceAPIKey: cfg.Keys.HuggingFace,
		GeminiAPIKey:      cfg.Keys.GoogleGemini,
	})
	if err != nil {
		return nil, fmt.Errorf("init llm provider: %w", err)
	}
	sysLogger.Info(logger.ModuleServer, "LLM provider ready", map[string]interface{}{
		"provider":   cfg.Ai.LLMProvider,
		"model":      cfg.Ai.LLMModel,
		"fast_model": cfg.Ai.LLMFastModel,
	})

	// 4. Coaching components
	briefings := briefing.NewService(uowFactory, provider, briefing.NewCache(briefingCacheTTL), sysLogger)
	turns := turn.NewProcessor(uowFactory, provider, briefings, locker, sysLogger)
	evolver := understanding.NewEvolver(provider)
	seeder := understanding.NewSeeder(provider)
	suggestions := suggestion.NewGenerator(provider)

	pipeline := closer.NewPipeline(closer.Deps{
		Factory:     uowFactory,
		Notes:       notes.NewWriter(provider),
		Evolver:     evolver,
		Suggestions: suggestions,
		Queue:       queue,
		Locker:      locker,
		Publisher:   publisher,
		Logger:      sysLogger,
	})

	engine := simulator.NewEngine(simulator.Deps{
		Factory:      uowFactory,
		Turns:        turns,
		Closer:       pipeline,
		Cards:        cards.NewEngine(uowFactory, provider, cfg.Ai.LLMFastModel, sysLogger),
		Agent:        simulator.NewUserAgent(provider, cfg.Ai.LLMFastModel),
		Publisher:    publisher,
		Logger:       sysLogger,
		DefaultTurns: cfg.Simulator.DefaultTurns,
	})

	replayer := backfill.NewReplayer(backfill.Deps{
		Factory:     uowFactory,
		Seeder:      seeder,
		Evolver:     evolver,
		Suggestions: suggestions,
		Locker:      locker,
		Publisher:   publisher,
		Logger:      sysLogger,
	})
	splitter := backfill.NewSplitter(uowFactory, locker, sysLogger)

	// 5. Services
	c.CoachService = service.NewCoachService(uowFactory, turns, pipeline, seeder, locker, hub, sysLogger)
	c.SimulatorService = service.NewSimulatorService(engine, hub, sysLogger)
	c.BackfillService = service.NewBackfillService(replayer, splitter, hub, sysLogger)
	c.ConsumerService = service.NewConsumerService(queue, pipeline, sysLogger)
	c.SweeperService = service.NewSweeperService(uowFactory, pipeline, sysLogger)

	// 6. Controllers
	c.CoachController = controller.NewCoachController(c.CoachService, cfg.App.JwtSecret)
	c.SimulatorController = controller.NewSimulatorController(c.SimulatorService, cfg.App.JwtSecret)
	c.AdminController = controller.NewAdminController(c.BackfillService, c.SweeperService, sysLogger, cfg.App.JwtSecret)

	return c, nil
}

func (c *Container) newRepositoryFactory(cfg *config.Config) (unitofwork.RepositoryFactory, error) {
	if cfg.Database.Driver == "memory" {
		c.Logger.Warn(logger.ModuleServer, "Using in-memory store, data is lost on restart", nil)
		return memory.NewRepositoryFactory(memory.NewStore()), nil
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, !cfg.IsProduction())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	c.closers = append(c.closers, func() error { return closeDB(db) })
	return unitofwork.NewRepositoryFactory(db), nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.Logger.Error(logger.ModuleServer, "Shutdown step failed", map[string]interface{}{"error": err.Error()})
		}
	}
	c.Logger.Sync()
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
