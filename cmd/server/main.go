package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"github.com/inkstrip/inkstrip/api"
	"github.com/inkstrip/inkstrip/pkg/config"
	"github.com/inkstrip/inkstrip/pkg/httpserver"
	"github.com/inkstrip/inkstrip/pkg/logger"
	"github.com/inkstrip/inkstrip/pkg/pg"
	pkgredis "github.com/inkstrip/inkstrip/pkg/redis"
	"github.com/inkstrip/inkstrip/svc/billing"
	"github.com/inkstrip/inkstrip/svc/demo"
	"github.com/inkstrip/inkstrip/svc/usage"
)

type serverConfig struct {
	Addr    string        `env:"SERVER_ADDR" envDefault:":8080"`
	Logger  logger.Config
	PG      pg.Config
	Redis   pkgredis.Config
	Demo    demo.Config
	Billing billing.Config
}

func main() {
	var cfg serverConfig
	config.MustLoad(&cfg)

	log := logger.NewFromConfig(cfg.Logger, "inkstrip")

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg serverConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
		return err
	}

	redisClient, err := pkgredis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	usageStore := usage.NewPostgresStore(pool)
	ledger := usage.NewLedger(usageStore, log)

	billingStore := billing.NewPostgresStore(pool)
	consents := billing.NewConsentRecorder(billingStore, log)

	var provider billing.Provider = unavailableProvider{}
	if cfg.Billing.Enabled && cfg.Billing.SecretKey != "" {
		provider = billing.NewRESTProvider(cfg.Billing)
	}

	handler := api.NewHandler(api.Deps{
		Demo:      demo.NewLimiter(redisClient, cfg.Demo, log),
		Usage:     ledger,
		Checkout:  billing.NewCheckout(cfg.Billing, provider, billingStore, consents, log),
		Portal:    billing.NewPortal(cfg.Billing, provider, billingStore, log),
		Webhooks:  billing.NewProcessor(cfg.Billing, billingStore, log),
		Generator: stubGenerator{},
		Health: []api.HealthCheck{
			{Name: "postgres", Check: pg.Healthcheck(pool)},
			{Name: "redis", Check: pkgredis.Healthcheck(redisClient)},
		},
	}, log)

	server := httpserver.New(
		httpserver.WithAddr(cfg.Addr),
		httpserver.WithLogger(log),
	)

	return server.Run(ctx, handler.Routes())
}

// unavailableProvider stands in when billing is disabled or unconfigured, so
// the rest of the service still runs. The checkout and webhook flows refuse
// before reaching the provider; the portal is the only path that can hit it.
type unavailableProvider struct{}

func (unavailableProvider) CreateCustomer(context.Context, string, string) (string, error) {
	return "", billing.ErrBillingDisabled
}

func (unavailableProvider) CreateCheckoutSession(context.Context, billing.CheckoutSessionParams) (string, error) {
	return "", billing.ErrBillingDisabled
}

func (unavailableProvider) CreatePortalSession(context.Context, string, string) (string, error) {
	return "", billing.ErrBillingDisabled
}

// stubGenerator echoes the request shape back until a real generation backend
// is plugged in. The metering and billing paths around it are fully live.
type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, input api.GenerationInput) (json.RawMessage, error) {
	if input.SourceURL == "" && input.Content == "" {
		return nil, errors.New("generator: no source material")
	}
	comic := map[string]any{
		"kind":   string(input.Kind),
		"panels": []any{},
	}
	return json.Marshal(comic)
}
