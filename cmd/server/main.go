package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	businessdatehandler "arrears/internal/businessdate/handler"
	businessdateservice "arrears/internal/businessdate/service"
	businessdatestore "arrears/internal/businessdate/store"
	delinquencyhandler "arrears/internal/delinquency/handler"
	delinquencymetrics "arrears/internal/delinquency/metrics"
	"arrears/internal/delinquency/outbox"
	delinquencyservice "arrears/internal/delinquency/service"
	delinquencystore "arrears/internal/delinquency/store"
	"arrears/internal/jwttoken"
	loanhandler "arrears/internal/loan/handler"
	loanservice "arrears/internal/loan/service"
	loanstore "arrears/internal/loan/store"
	"arrears/internal/platform/config"
	"arrears/internal/platform/httpserver"
	"arrears/internal/platform/kafka"
	"arrears/internal/platform/logger"
	"arrears/internal/platform/metrics"
	"arrears/internal/platform/middleware"
	"arrears/internal/platform/postgres"
	"arrears/internal/platform/redis"
	"arrears/internal/ratelimit"
	"arrears/migrations"
	"arrears/pkg/calendar"
	"arrears/pkg/platform/circuit"
	"arrears/pkg/platform/httputil"
)

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// main wires dependencies and runs the HTTP server and the outbox relay until
// SIGINT or SIGTERM. Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	infra, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.New(reg)
	delinquencyMetrics := delinquencymetrics.New(reg)

	businessDate, err := newBusinessDateService(cfg, infra, log)
	if err != nil {
		return err
	}

	var (
		loans     loanservice.Store
		timelines delinquencyservice.TimelineStore
		opts      = []delinquencyservice.Option{
			delinquencyservice.WithLogger(log),
			delinquencyservice.WithMetrics(delinquencyMetrics),
		}
		worker *outbox.Worker
	)
	if infra.db != nil {
		loans = loanstore.NewPostgres(infra.db)
		timelines = delinquencystore.NewPostgres(infra.db)
		opts = append(opts,
			delinquencyservice.WithTx(newTimelinePostgresTx(infra.db)),
			delinquencyservice.WithEventPublisher(outbox.NewWriter(infra.db)),
		)
		if infra.producer != nil {
			worker = outbox.NewWorker(outbox.NewPostgresStore(infra.db), infra.producer, cfg.Kafka.Topic,
				outbox.WithBatchSize(cfg.Outbox.BatchSize),
				outbox.WithPollInterval(cfg.Outbox.PollInterval),
				outbox.WithBreaker(circuit.New("outbox",
					circuit.WithFailureThreshold(cfg.Outbox.FailureThreshold),
					circuit.WithCooldown(cfg.Outbox.Cooldown),
				)),
				outbox.WithLogger(log),
				outbox.WithMetrics(delinquencyMetrics),
			)
		}
	} else {
		loans = loanstore.NewInMemory()
		timelines = delinquencystore.NewInMemory()
		var producer outbox.Producer
		if infra.producer != nil {
			producer = infra.producer
		}
		opts = append(opts, delinquencyservice.WithEventPublisher(
			outbox.NewDirectPublisher(producer, cfg.Kafka.Topic, log),
		))
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	loanSvc := loanservice.New(loans, loanservice.WithLogger(log))
	delinquencySvc := delinquencyservice.New(timelines, loans, businessDate, opts...)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	router := newRouter(routerDeps{
		cfg:          cfg,
		log:          log,
		registry:     reg,
		httpMetrics:  httpMetrics,
		jwt:          jwttoken.NewJWTServiceAdapter(jwtService),
		delinquency:  delinquencyhandler.New(delinquencySvc, log),
		loans:        loanhandler.New(loanSvc, log),
		businessDate: businessdatehandler.New(businessDate, log),
		rateLimit:    newRateLimiter(cfg, infra, log),
		health:       infra.health,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting arrears", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if worker != nil {
		g.Go(func() error {
			log.Info("outbox relay started", "topic", cfg.Kafka.Topic)
			if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("outbox relay: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}

type infrastructure struct {
	db       *sql.DB
	redis    *redis.Client
	producer *kafka.Producer
}

func connect(ctx context.Context, cfg config.Server, log *slog.Logger) (*infrastructure, error) {
	infra := &infrastructure{}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if db != nil {
		if err := migrations.Apply(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		infra.db = db
		log.Info("connected to postgres")
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		infra.close()
		return nil, err
	}
	if rc != nil {
		infra.redis = rc
		log.Info("connected to redis")
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		infra.close()
		return nil, err
	}
	if producer != nil {
		infra.producer = producer
		if err := producer.EnsureTopic(ctx, cfg.Kafka.Topic, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			infra.close()
			return nil, err
		}
		log.Info("kafka producer ready", "topic", cfg.Kafka.Topic)
	}
	return infra, nil
}

func (i *infrastructure) close() {
	if i.producer != nil {
		i.producer.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

// health pings every configured dependency.
func (i *infrastructure) health(ctx context.Context) map[string]string {
	status := map[string]string{"status": "ok"}
	check := func(name string, fn func(context.Context) error) {
		if err := fn(ctx); err != nil {
			status[name] = err.Error()
			status["status"] = "degraded"
			return
		}
		status[name] = "ok"
	}
	if i.db != nil {
		check("postgres", i.db.PingContext)
	}
	if i.redis != nil {
		check("redis", i.redis.Health)
	}
	if i.producer != nil {
		check("kafka", i.producer.Health)
	}
	return status
}

func newBusinessDateService(cfg config.Server, infra *infrastructure, log *slog.Logger) (*businessdateservice.Service, error) {
	var store businessdateservice.Store = businessdatestore.NewInMemory()
	if infra.redis != nil {
		store = businessdatestore.NewRedis(infra.redis.Client)
	}

	opts := []businessdateservice.Option{businessdateservice.WithLogger(log)}
	if cfg.DefaultBusinessDate != "" {
		d, err := calendar.Parse(cfg.DefaultBusinessDate)
		if err != nil {
			return nil, fmt.Errorf("parse DEFAULT_BUSINESS_DATE: %w", err)
		}
		opts = append(opts, businessdateservice.WithDefaultDate(d))
	}
	return businessdateservice.New(store, opts...), nil
}

// newRateLimiter returns nil when rate limiting is disabled.
func newRateLimiter(cfg config.Server, infra *infrastructure, log *slog.Logger) func(http.Handler) http.Handler {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	var store ratelimit.Store = ratelimit.NewInMemory()
	if infra.redis != nil {
		store = ratelimit.NewRedis(infra.redis.Client)
	}
	return ratelimit.NewMiddleware(store, cfg.RateLimit.Requests, cfg.RateLimit.Window, log).Handler
}

type routerDeps struct {
	cfg          config.Server
	log          *slog.Logger
	registry     *prometheus.Registry
	httpMetrics  *metrics.Metrics
	jwt          middleware.JWTValidator
	delinquency  *delinquencyhandler.Handler
	loans        *loanhandler.Handler
	businessDate *businessdatehandler.Handler
	rateLimit    func(http.Handler) http.Handler
	health       func(context.Context) map[string]string
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(d.log))
	r.Use(middleware.Logger(d.log))
	r.Use(middleware.LatencyMiddleware(d.httpMetrics))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := d.health(r.Context())
		code := http.StatusOK
		if status["status"] != "ok" {
			code = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, code, status)
	})
	r.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.jwt, d.log))
		if d.rateLimit != nil {
			r.Use(d.rateLimit)
		}
		d.delinquency.Register(r)
		d.businessDate.Register(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(d.cfg.AdminTokenHash, d.log))
		d.loans.Register(r)
		d.businessDate.RegisterAdmin(r)
	})
	return r
}
