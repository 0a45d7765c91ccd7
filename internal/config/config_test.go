package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_DefaultsByEnv(t *testing.T) {
	t.Run("prod disables swagger by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvProd)
		t.Setenv("UPTRACE_ENABLED", "false")
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=false in prod by default")
		}
	})

	t.Run("dev enables swagger by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvDev)
		t.Setenv("UPTRACE_ENABLED", "false")
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=true in dev by default")
		}
	})
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("APP_SERVICE_NAME", "predictions-chips-api-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "predictions-chips-api-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOriginsDefaultAndParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default wildcard", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
			t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("comma separated parsing", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, http://localhost:5173 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
		}
		if cfg.CORSAllowedOrigins[0] != "https://a.example.com" {
			t.Fatalf("unexpected first CORS origin: %s", cfg.CORSAllowedOrigins[0])
		}
		if cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
			t.Fatalf("unexpected second CORS origin: %s", cfg.CORSAllowedOrigins[1])
		}
	})
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "foo=bar, uptrace-dsn='https://token@api.uptrace.dev/1'")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev/1" {
		t.Fatalf("unexpected uptrace dsn: %q", cfg.UptraceDSN)
	}
}

func TestLoad_PredictionsAPIConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.PredictionsAPIEnabled {
			t.Fatalf("expected PredictionsAPIEnabled=false by default")
		}
		if cfg.PredictionsAPITimeout != 5*time.Second {
			t.Fatalf("unexpected default timeout: %s", cfg.PredictionsAPITimeout)
		}
		if !cfg.PredictionsAPICircuitEnabled || cfg.PredictionsAPICircuitFailureCount != 5 {
			t.Fatalf("unexpected circuit defaults: enabled=%v failures=%d", cfg.PredictionsAPICircuitEnabled, cfg.PredictionsAPICircuitFailureCount)
		}
		if cfg.PredictionsAPICircuitOpenTimeout != 15*time.Second || cfg.PredictionsAPICircuitHalfOpenMaxReq != 2 {
			t.Fatalf("unexpected circuit defaults: open=%s half_open=%d", cfg.PredictionsAPICircuitOpenTimeout, cfg.PredictionsAPICircuitHalfOpenMaxReq)
		}
	})

	t.Run("enabled with values", func(t *testing.T) {
		t.Setenv("PREDICTIONS_API_ENABLED", "true")
		t.Setenv("PREDICTIONS_API_BASE_URL", " https://predictions.internal ")
		t.Setenv("PREDICTIONS_API_TOKEN", "svc-token")
		t.Setenv("PREDICTIONS_API_TIMEOUT", "2s")
		t.Setenv("PREDICTIONS_API_CIRCUIT_FAILURE_COUNT", "3")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.PredictionsAPIEnabled {
			t.Fatalf("expected PredictionsAPIEnabled=true")
		}
		if cfg.PredictionsAPIBaseURL != "https://predictions.internal" {
			t.Fatalf("unexpected base url: %q", cfg.PredictionsAPIBaseURL)
		}
		if cfg.PredictionsAPIToken != "svc-token" {
			t.Fatalf("unexpected token: %q", cfg.PredictionsAPIToken)
		}
		if cfg.PredictionsAPITimeout != 2*time.Second {
			t.Fatalf("unexpected timeout: %s", cfg.PredictionsAPITimeout)
		}
		if cfg.PredictionsAPICircuitFailureCount != 3 {
			t.Fatalf("unexpected failure count: %d", cfg.PredictionsAPICircuitFailureCount)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		cases := map[string]string{
			"PREDICTIONS_API_ENABLED":               "maybe",
			"PREDICTIONS_API_TIMEOUT":               "0s",
			"PREDICTIONS_API_CIRCUIT_FAILURE_COUNT": "0",
			"PREDICTIONS_API_CIRCUIT_OPEN_TIMEOUT":  "soon",
		}
		for key, value := range cases {
			t.Run(key, func(t *testing.T) {
				t.Setenv(key, value)
				if _, err := Load(); err == nil {
					t.Fatalf("expected error for %s=%q", key, value)
				}
			})
		}
	})
}

func TestLoad_ChipRulesParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.ChipStrictMode || cfg.ChipPremiumRestrictions {
			t.Fatalf("expected permissive chip rules by default")
		}
		if cfg.ChipMaxPerPrediction != 0 || len(cfg.ChipIncompatiblePairs) != 0 || len(cfg.ChipIncompatibleScopes) != 0 {
			t.Fatalf("unexpected default restrictions: %+v", cfg)
		}
		if cfg.ChipStatusCacheTTL != 30*time.Second {
			t.Fatalf("unexpected cache ttl: %s", cfg.ChipStatusCacheTTL)
		}
		if cfg.ChipDismissalTTL != 12*time.Hour {
			t.Fatalf("unexpected dismissal ttl: %s", cfg.ChipDismissalTTL)
		}
		if cfg.ReconcileMaxWorkers != 4 {
			t.Fatalf("unexpected reconcile workers: %d", cfg.ReconcileMaxWorkers)
		}
	})

	t.Run("strict with pairs and scopes", func(t *testing.T) {
		t.Setenv("CHIP_STRICT_MODE", "true")
		t.Setenv("CHIP_MAX_PER_PREDICTION", "2")
		t.Setenv("CHIP_INCOMPATIBLE_PAIRS", "wildcard:doubleDown, defensePlusPlus : allOutAttack")
		t.Setenv("CHIP_INCOMPATIBLE_SCOPES", "gameweek")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.ChipStrictMode || cfg.ChipMaxPerPrediction != 2 {
			t.Fatalf("unexpected strict settings: strict=%v max=%d", cfg.ChipStrictMode, cfg.ChipMaxPerPrediction)
		}
		if len(cfg.ChipIncompatiblePairs) != 2 {
			t.Fatalf("unexpected pairs: %+v", cfg.ChipIncompatiblePairs)
		}
		if cfg.ChipIncompatiblePairs[1] != [2]string{"defensePlusPlus", "allOutAttack"} {
			t.Fatalf("unexpected second pair: %+v", cfg.ChipIncompatiblePairs[1])
		}
		if len(cfg.ChipIncompatibleScopes) != 1 || cfg.ChipIncompatibleScopes[0] != "gameweek" {
			t.Fatalf("unexpected scopes: %+v", cfg.ChipIncompatibleScopes)
		}
	})

	t.Run("invalid pairs", func(t *testing.T) {
		for _, raw := range []string{"wildcard", "wildcard:", "wildcard:wildcard"} {
			t.Run(raw, func(t *testing.T) {
				t.Setenv("CHIP_INCOMPATIBLE_PAIRS", raw)
				if _, err := Load(); err == nil {
					t.Fatalf("expected error for CHIP_INCOMPATIBLE_PAIRS=%q", raw)
				}
			})
		}
	})

	t.Run("negative max", func(t *testing.T) {
		t.Setenv("CHIP_MAX_PER_PREDICTION", "-1")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for negative CHIP_MAX_PER_PREDICTION")
		}
	})
}

func TestLoad_RedisConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.RedisEnabled || cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 0 {
			t.Fatalf("unexpected redis defaults: enabled=%v addr=%q db=%d", cfg.RedisEnabled, cfg.RedisAddr, cfg.RedisDB)
		}
	})

	t.Run("invalid db", func(t *testing.T) {
		t.Setenv("REDIS_DB", "-2")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for negative REDIS_DB")
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	if err := loadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}

	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("CHIPS_DOTENV_PROBE=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CHIPS_DOTENV_PROBE", "from-env")
	if err := loadDotEnv(path); err != nil {
		t.Fatalf("load env file: %v", err)
	}
	if got := os.Getenv("CHIPS_DOTENV_PROBE"); got != "from-env" {
		t.Fatalf("expected existing env to win, got %q", got)
	}
}
