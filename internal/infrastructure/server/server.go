package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	handlers "github.com/GriffinCanCode/AgentOS/sandbox3p/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/api/ws"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/bootstrap"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/frame"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/protocol"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/sandbox"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/infrastructure/cache"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/infrastructure/devframes"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/infrastructure/fetch"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/infrastructure/tracing"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	http    *http.Server
	config  *config.Config
	logger  *logging.Logger
	tracer  *tracing.Tracer
	metrics *monitoring.Metrics
	redis   *cache.Redis
}

// NewServer creates a new server instance. ctx bounds the initial cache
// connection only.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
		Fields: map[string]string{
			"service":       "sandbox3p",
			"frame_version": cfg.Frames.Version,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return newServer(ctx, cfg, logger)
}

func newServer(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Server, error) {
	logger.Info("Initializing 3p frame host",
		zap.String("port", cfg.Server.Port),
		zap.String("version", cfg.Frames.Version),
		zap.Bool("local_dev", cfg.Frames.LocalDev),
		zap.Bool("test", cfg.Frames.Test),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(reg)
	tracer := tracing.New("sandbox3p", logger.Component("tracing"), tracing.WithObserver(metrics))

	s := &Server{
		config:  cfg,
		logger:  logger,
		tracer:  tracer,
		metrics: metrics,
	}

	store, checks, err := s.newStore(ctx)
	if err != nil {
		tracer.Close()
		return nil, err
	}

	resolver := bootstrap.NewResolver(bootstrap.Config{
		Mode: bootstrap.Mode{
			LocalDev: cfg.Frames.LocalDev,
			Test:     cfg.Frames.Test,
			Minified: cfg.Frames.Minified,
			Version:  cfg.Frames.Version,
		},
		Hosts: bootstrap.Hosts{
			ThirdPartyURL:       cfg.Frames.ThirdPartyURL,
			ThirdPartyFrameHost: cfg.Frames.ThirdPartyFrameHost,
			DevFrameBase:        cfg.Frames.DevFrameBase,
		},
	},
		bootstrap.WithStore(store),
		bootstrap.WithLogger(logger.Component("bootstrap")),
		bootstrap.WithObserver(metrics),
	)
	codec := protocol.NewCodec(
		protocol.WithLogger(logger.Component("protocol")),
		protocol.WithObserver(metrics),
	)
	sandboxes := sandbox.NewManager(resolver,
		sandbox.WithCodec(codec),
		sandbox.WithLogger(logger.Component("sandbox")),
		sandbox.WithObserver(metrics),
	)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.Logger(logger.Component("http")))

	cors := middleware.DefaultCORSConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		cors.AllowOrigins = cfg.Server.CORSOrigins
	}
	router.Use(middleware.CORS(cors))

	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	var documents handlers.DocumentSource
	if cfg.Fetch.Enabled {
		fc := fetch.DefaultConfig()
		fc.Timeout = cfg.Fetch.Timeout
		fc.MaxRetries = cfg.Fetch.MaxRetries
		fc.RequestsPerSecond = cfg.Fetch.RequestsPerSecond
		fc.AllowedHosts = cfg.Fetch.AllowedHosts
		fetcher := fetch.New(fc, fetch.WithLogger(logger.Component("fetch")))
		checks["fetch"] = func() string { return fetcher.Breaker().State().String() }
		documents = fetcher
	}

	windows := frame.NewRegistry()
	h := handlers.NewHandlers(handlers.Deps{
		Windows:   windows,
		Sandboxes: sandboxes,
		Resolver:  resolver,
		Codec:     codec,
		Documents: documents,
		Metrics:   metrics,
		Tracer:    tracer,
		Logger:    logger.Component("api"),
		Checks:    checks,
	})
	h.Register(router)

	channels := ws.NewHandler(windows, sandboxes, codec,
		ws.WithLogger(logger.Component("ws")),
		ws.WithAllowedOrigins(cfg.Server.CORSOrigins),
	)
	router.GET("/windows/:id/channel", channels.HandleConnection)
	if dir := cfg.Frames.DevFrameDir; dir != "" {
		frames, err := devframes.New(dir, devframes.WithLogger(logger.Component("devframes")))
		if err != nil {
			s.closeStore()
			tracer.Close()
			return nil, err
		}
		serve := gin.WrapH(http.StripPrefix("/dist.3p", frames.Handler()))
		router.GET("/dist.3p/*path", serve)
		router.HEAD("/dist.3p/*path", serve)
		router.GET("/dev/frames", func(c *gin.Context) {
			entries, err := frames.Index(c.Request.Context())
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"root": frames.Root(), "frames": entries})
		})
		logger.Info("Serving local frame build", zap.String("dir", frames.Root()))
	}

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	router.GET("/metrics/json", func(c *gin.Context) {
		c.JSON(http.StatusOK, metrics.Snapshot())
	})

	s.router = router
	s.http = &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("Server initialized successfully")
	return s, nil
}

// newStore picks the bootstrap URL cache. A Redis cache sits behind a
// circuit breaker so an outage fails requests fast instead of stalling them.
func (s *Server) newStore(ctx context.Context) (cache.Store, map[string]func() string, error) {
	if s.config.Cache.RedisURL == "" {
		s.logger.Info("Using in-process bootstrap URL cache")
		return cache.NewMemory(), map[string]func() string{
			"cache": func() string { return "memory" },
		}, nil
	}

	client, err := cache.NewRedis(ctx, s.config.Cache.RedisURL, s.config.Cache.TTL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	s.redis = client
	s.logger.Info("Connected to redis bootstrap URL cache",
		zap.Duration("ttl", s.config.Cache.TTL))

	log := s.logger.Component("cache")
	breaker := resilience.New("redis", resilience.Settings{
		Timeout: 15 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("Cache circuit breaker changed state",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})
	return cache.NewGuarded(client, breaker), map[string]func() string{
		"cache": func() string { return "redis:" + breaker.State().String() },
	}, nil
}

func (s *Server) closeStore() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until it stops. A graceful Shutdown
// is not reported as an error.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases the cache and tracer
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		} else {
			s.logger.Info("Closed redis connection")
		}
	}
	s.tracer.Close()

	_ = s.logger.Sync()
	return errors.Join(errs...)
}
