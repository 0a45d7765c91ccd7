package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/riskibarqy/predictions-chips/internal/config"
	"github.com/riskibarqy/predictions-chips/internal/domain/chip"
	"github.com/riskibarqy/predictions-chips/internal/domain/prediction"
	"github.com/riskibarqy/predictions-chips/internal/infrastructure/predictionsapi"
	"github.com/riskibarqy/predictions-chips/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/predictions-chips/internal/infrastructure/repository/redisstore"
	"github.com/riskibarqy/predictions-chips/internal/interfaces/httpapi"
	"github.com/riskibarqy/predictions-chips/internal/platform/cache"
	"github.com/riskibarqy/predictions-chips/internal/platform/logging"
	"github.com/riskibarqy/predictions-chips/internal/platform/resilience"
	"github.com/riskibarqy/predictions-chips/internal/usecase"
)

type backend interface {
	chip.StatusSource
	prediction.Repository
}

// NewHTTPServer assembles the chip services and returns the server plus a
// cleanup func for the resources it opened.
func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*http.Server, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	catalog := chip.DefaultCatalog()
	policy, err := chipPolicy(cfg, catalog)
	if err != nil {
		return nil, nil, err
	}

	predictions, err := newBackend(cfg, catalog, logger)
	if err != nil {
		return nil, nil, err
	}

	dismissals, closeDismissals, err := newDismissalStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	statusSvc := usecase.NewChipStatusService(
		catalog,
		predictions,
		cache.NewStore[usecase.ChipStatusSnapshot](cfg.ChipStatusCacheTTL),
		logger.Named("chip_status"),
	)
	gameweekSvc := usecase.NewGameweekChipService(predictions, statusSvc, policy, logger.Named("gameweek_chips"))
	syncSvc := usecase.NewChipSyncService(predictions, statusSvc, dismissals, policy, cfg.ChipDismissalTTL, logger.Named("chip_sync"))
	syncSvc.SetDefaultWorkers(cfg.ReconcileMaxWorkers)

	handler := httpapi.NewHandler(statusSvc, gameweekSvc, syncSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		_ = closeDismissals()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	logger.Info("chip services ready",
		"backend", backendName(cfg),
		"strict_mode", policy.Strict,
		"redis_dismissals", cfg.RedisEnabled,
	)

	return server, closeDismissals, nil
}

func newBackend(cfg config.Config, catalog chip.Catalog, logger *logging.Logger) (backend, error) {
	if !cfg.PredictionsAPIEnabled {
		return memory.NewPredictionsBackend(catalog, memory.SeedGameweek, memory.SeedPredictions()), nil
	}

	client, err := predictionsapi.NewClient(predictionsapi.ClientConfig{
		BaseURL: cfg.PredictionsAPIBaseURL,
		Token:   cfg.PredictionsAPIToken,
		Timeout: cfg.PredictionsAPITimeout,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.PredictionsAPICircuitEnabled,
			FailureThreshold: cfg.PredictionsAPICircuitFailureCount,
			OpenTimeout:      cfg.PredictionsAPICircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.PredictionsAPICircuitHalfOpenMaxReq,
		},
	}, logger.Named("predictions_api"))
	if err != nil {
		return nil, fmt.Errorf("build predictions api client: %w", err)
	}
	return client, nil
}

func newDismissalStore(ctx context.Context, cfg config.Config, logger *logging.Logger) (chip.DismissalStore, func() error, error) {
	if !cfg.RedisEnabled {
		return memory.NewDismissalStore(), func() error { return nil }, nil
	}

	store, err := redisstore.NewDismissalStore(ctx, redisstore.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger.Named("dismissals"))
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis dismissal store: %w", err)
	}
	return store, store.Close, nil
}

// chipPolicy resolves the compatibility rules. The premium switch wins over
// the individual settings.
func chipPolicy(cfg config.Config, catalog chip.Catalog) (chip.Policy, error) {
	if cfg.ChipPremiumRestrictions {
		return chip.PremiumPolicy(), nil
	}
	if !cfg.ChipStrictMode {
		return chip.PermissivePolicy(), nil
	}

	policy := chip.Policy{
		Strict:   true,
		MaxChips: cfg.ChipMaxPerPrediction,
	}
	for _, raw := range cfg.ChipIncompatiblePairs {
		left, ok := catalog.NormalizeID(raw[0])
		if !ok {
			return chip.Policy{}, fmt.Errorf("CHIP_INCOMPATIBLE_PAIRS: unknown chip %q", raw[0])
		}
		right, ok := catalog.NormalizeID(raw[1])
		if !ok {
			return chip.Policy{}, fmt.Errorf("CHIP_INCOMPATIBLE_PAIRS: unknown chip %q", raw[1])
		}
		policy.IncompatiblePairs = append(policy.IncompatiblePairs, chip.Pair{left, right})
	}
	for _, raw := range cfg.ChipIncompatibleScopes {
		scope, ok := chip.ParseScope(raw)
		if !ok {
			return chip.Policy{}, fmt.Errorf("CHIP_INCOMPATIBLE_SCOPES: unknown scope %q", raw)
		}
		policy.IncompatibleScopes = append(policy.IncompatibleScopes, scope)
	}
	return policy, nil
}

func backendName(cfg config.Config) string {
	if cfg.PredictionsAPIEnabled {
		return "predictions_api"
	}
	return "memory"
}
