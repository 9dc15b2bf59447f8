package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/unipost/unipost/modules/billing"
	"github.com/unipost/unipost/pkg/account"
	"github.com/unipost/unipost/pkg/config"
	"github.com/unipost/unipost/pkg/destination"
	"github.com/unipost/unipost/pkg/httpserver"
	"github.com/unipost/unipost/pkg/identity"
	"github.com/unipost/unipost/pkg/logger"
	"github.com/unipost/unipost/pkg/notification"
	"github.com/unipost/unipost/pkg/pg"
	"github.com/unipost/unipost/pkg/post"
	"github.com/unipost/unipost/pkg/ratelimit"
	"github.com/unipost/unipost/pkg/redis"
	"github.com/unipost/unipost/pkg/subscription"
)

type appConfig struct {
	Env string `env:"APP_ENV" envDefault:"development"`

	PricesPath string `env:"BILLING_PRICES_PATH" envDefault:"configs/prices.yaml"`

	CheckoutRateLimit  int           `env:"CHECKOUT_RATE_LIMIT" envDefault:"10"`
	CheckoutRateWindow time.Duration `env:"CHECKOUT_RATE_WINDOW" envDefault:"1m"`

	EnforcementSweepInterval time.Duration `env:"ENFORCEMENT_SWEEP_INTERVAL" envDefault:"1h"`
}

func main() {
	var appCfg appConfig
	config.MustLoad(&appCfg)

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.New(logCfg, os.Stderr)

	ctx := context.Background()

	var pgCfg pg.Config
	config.MustLoad(&pgCfg)
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	var redisCfg redis.Config
	config.MustLoad(&redisCfg)
	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	catalog, err := subscription.LoadPriceCatalog(appCfg.PricesPath)
	if err != nil {
		log.Error("price catalog failed to load", "path", appCfg.PricesPath, "error", err)
		os.Exit(1)
	}

	var paddleCfg subscription.PaddleConfig
	config.MustLoad(&paddleCfg)
	provider, err := subscription.NewPaddleProvider(paddleCfg)
	if err != nil {
		log.Error("paddle provider failed to initialize", "error", err)
		os.Exit(1)
	}

	users := identity.NewPgStore(pool)
	subStore := subscription.NewPgStore(pool)
	destStore := destination.NewPgStore(pool)
	postStore := post.NewPgStore(pool)

	enforcer := destination.NewEnforcer(destStore, destination.NewPgTokenRevoker(pool), log)

	notifier := notification.NewBillingNotifier(newMailer(appCfg.Env, log), users, log)

	subs := subscription.NewService(subStore, provider, catalog,
		subscription.WithLogger(log),
		subscription.WithEnforcer(enforcer),
		subscription.WithNotifier(notifier),
		subscription.WithPostCounter(postStore.CountSince),
	)

	acct := account.NewService(subs, identityDeleter{users}, log)

	limiter, err := ratelimit.NewFixedWindow(
		ratelimit.NewRedisStore(redisClient, "billing"),
		appCfg.CheckoutRateLimit, appCfg.CheckoutRateWindow,
	)
	if err != nil {
		log.Error("rate limiter failed to initialize", "error", err)
		os.Exit(1)
	}

	billingModule := billing.New(subs, acct, users,
		billing.WithLogger(log),
		billing.WithRateLimiter(limiter),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", httpserver.HealthCheckHandler(log))
	r.Get("/readyz", httpserver.HealthCheckHandler(log,
		pg.Healthcheck(pool), redis.Healthcheck(redisClient)))
	r.Mount("/billing", billingModule.Router())

	go runEnforcementSweep(ctx, log, enforcer, subs, appCfg.EnforcementSweepInterval)

	var httpCfg httpserver.Config
	config.MustLoad(&httpCfg)
	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	if err := srv.Run(ctx, r); err != nil {
		log.Error("http server exited", "error", err)
		os.Exit(1)
	}
}

// runEnforcementSweep periodically re-checks every user with linked
// destinations, catching revocations a webhook-triggered run missed.
// The sweep measures against EnforcementEntitlement, not the effective
// snapshot, so a past_due dip never costs a user their destinations.
func runEnforcementSweep(ctx context.Context, log *slog.Logger, enforcer *destination.Enforcer, subs subscription.Service, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := enforcer.Sweep(ctx, subs.EnforcementEntitlement); err != nil {
				log.ErrorContext(ctx, "enforcement sweep failed", "error", err)
			}
		}
	}
}

// identityDeleter adapts the identity store to the deletion orchestrator.
type identityDeleter struct {
	users identity.Store
}

func (d identityDeleter) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return d.users.Delete(ctx, userID)
}

// newMailer picks the transactional email transport: Postmark in
// production, log output everywhere else.
func newMailer(env string, log *slog.Logger) notification.Mailer {
	if env != "production" {
		return notification.NewDevMailer(log)
	}

	var cfg notification.Config
	config.MustLoad(&cfg)
	mailer, err := notification.NewPostmarkMailer(cfg)
	if err != nil {
		log.Error("postmark mailer failed to initialize", "error", err)
		os.Exit(1)
	}
	return mailer
}
