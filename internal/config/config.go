package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/riskibarqy/predictions-chips/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	LogLevel           logging.Level
	CORSAllowedOrigins []string
	SwaggerEnabled     bool
	InternalJobToken   string

	PredictionsAPIEnabled               bool
	PredictionsAPIBaseURL               string
	PredictionsAPIToken                 string
	PredictionsAPITimeout               time.Duration
	PredictionsAPICircuitEnabled        bool
	PredictionsAPICircuitFailureCount   int
	PredictionsAPICircuitOpenTimeout    time.Duration
	PredictionsAPICircuitHalfOpenMaxReq int

	ChipStatusCacheTTL      time.Duration
	ChipStrictMode          bool
	ChipMaxPerPrediction    int
	ChipIncompatiblePairs   [][2]string
	ChipIncompatibleScopes  []string
	ChipPremiumRestrictions bool
	ChipDismissalTTL        time.Duration

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ReconcileMaxWorkers int

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string
	PyroscopeUploadRate    time.Duration
}

// Load reads the environment, after applying a .env file when one exists.
func Load() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	swaggerDefault := "true"
	if appEnv == EnvProd {
		swaggerDefault = "false"
	}

	swaggerEnabled, err := strconv.ParseBool(getEnv("SWAGGER_ENABLED", swaggerDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "predictions-chips-api"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:        readTimeout,
		WriteTimeout:       writeTimeout,
		LogLevel:           logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		SwaggerEnabled:     swaggerEnabled,
		InternalJobToken:   strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	if err := loadPredictionsAPI(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadChipRules(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadRedis(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadTelemetry(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadPredictionsAPI(cfg *Config) error {
	enabled, err := strconv.ParseBool(getEnv("PREDICTIONS_API_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse PREDICTIONS_API_ENABLED: %w", err)
	}
	timeout, err := time.ParseDuration(getEnv("PREDICTIONS_API_TIMEOUT", "5s"))
	if err != nil {
		return fmt.Errorf("parse PREDICTIONS_API_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return fmt.Errorf("PREDICTIONS_API_TIMEOUT must be > 0")
	}
	circuitEnabled, err := strconv.ParseBool(getEnv("PREDICTIONS_API_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return fmt.Errorf("parse PREDICTIONS_API_CIRCUIT_ENABLED: %w", err)
	}
	failureCount, err := getEnvAsInt("PREDICTIONS_API_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return fmt.Errorf("parse PREDICTIONS_API_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if failureCount < 1 {
		return fmt.Errorf("PREDICTIONS_API_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	openTimeout, err := time.ParseDuration(getEnv("PREDICTIONS_API_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return fmt.Errorf("parse PREDICTIONS_API_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if openTimeout <= 0 {
		return fmt.Errorf("PREDICTIONS_API_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	halfOpenMaxReq, err := getEnvAsInt("PREDICTIONS_API_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return fmt.Errorf("parse PREDICTIONS_API_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if halfOpenMaxReq < 1 {
		return fmt.Errorf("PREDICTIONS_API_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	baseURL := strings.TrimSpace(getEnv("PREDICTIONS_API_BASE_URL", "http://localhost:8081"))
	if enabled && baseURL == "" {
		return fmt.Errorf("PREDICTIONS_API_BASE_URL is required when PREDICTIONS_API_ENABLED=true")
	}

	cfg.PredictionsAPIEnabled = enabled
	cfg.PredictionsAPIBaseURL = baseURL
	cfg.PredictionsAPIToken = strings.TrimSpace(getEnv("PREDICTIONS_API_TOKEN", ""))
	cfg.PredictionsAPITimeout = timeout
	cfg.PredictionsAPICircuitEnabled = circuitEnabled
	cfg.PredictionsAPICircuitFailureCount = failureCount
	cfg.PredictionsAPICircuitOpenTimeout = openTimeout
	cfg.PredictionsAPICircuitHalfOpenMaxReq = halfOpenMaxReq
	return nil
}

func loadChipRules(cfg *Config) error {
	cacheTTL, err := time.ParseDuration(getEnv("CHIP_STATUS_CACHE_TTL", "30s"))
	if err != nil {
		return fmt.Errorf("parse CHIP_STATUS_CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return fmt.Errorf("CHIP_STATUS_CACHE_TTL must be > 0")
	}
	strict, err := strconv.ParseBool(getEnv("CHIP_STRICT_MODE", "false"))
	if err != nil {
		return fmt.Errorf("parse CHIP_STRICT_MODE: %w", err)
	}
	maxPerPrediction, err := getEnvAsInt("CHIP_MAX_PER_PREDICTION", 0)
	if err != nil {
		return fmt.Errorf("parse CHIP_MAX_PER_PREDICTION: %w", err)
	}
	if maxPerPrediction < 0 {
		return fmt.Errorf("CHIP_MAX_PER_PREDICTION must be >= 0")
	}
	pairs, err := parseChipPairs(getEnv("CHIP_INCOMPATIBLE_PAIRS", ""))
	if err != nil {
		return fmt.Errorf("parse CHIP_INCOMPATIBLE_PAIRS: %w", err)
	}
	premium, err := strconv.ParseBool(getEnv("CHIP_PREMIUM_RESTRICTIONS", "false"))
	if err != nil {
		return fmt.Errorf("parse CHIP_PREMIUM_RESTRICTIONS: %w", err)
	}
	dismissalTTL, err := time.ParseDuration(getEnv("CHIP_DISMISSAL_TTL", "12h"))
	if err != nil {
		return fmt.Errorf("parse CHIP_DISMISSAL_TTL: %w", err)
	}
	if dismissalTTL <= 0 {
		return fmt.Errorf("CHIP_DISMISSAL_TTL must be > 0")
	}
	workers, err := getEnvAsInt("RECONCILE_MAX_WORKERS", 4)
	if err != nil {
		return fmt.Errorf("parse RECONCILE_MAX_WORKERS: %w", err)
	}
	if workers < 1 {
		return fmt.Errorf("RECONCILE_MAX_WORKERS must be >= 1")
	}

	cfg.ChipStatusCacheTTL = cacheTTL
	cfg.ChipStrictMode = strict
	cfg.ChipMaxPerPrediction = maxPerPrediction
	cfg.ChipIncompatiblePairs = pairs
	cfg.ChipIncompatibleScopes = splitCSV(getEnv("CHIP_INCOMPATIBLE_SCOPES", ""))
	cfg.ChipPremiumRestrictions = premium
	cfg.ChipDismissalTTL = dismissalTTL
	cfg.ReconcileMaxWorkers = workers
	return nil
}

func loadRedis(cfg *Config) error {
	enabled, err := strconv.ParseBool(getEnv("REDIS_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse REDIS_ENABLED: %w", err)
	}
	db, err := getEnvAsInt("REDIS_DB", 0)
	if err != nil {
		return fmt.Errorf("parse REDIS_DB: %w", err)
	}
	if db < 0 {
		return fmt.Errorf("REDIS_DB must be >= 0")
	}
	addr := strings.TrimSpace(getEnv("REDIS_ADDR", "localhost:6379"))
	if enabled && addr == "" {
		return fmt.Errorf("REDIS_ADDR is required when REDIS_ENABLED=true")
	}

	cfg.RedisEnabled = enabled
	cfg.RedisAddr = addr
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = db
	return nil
}

func loadTelemetry(cfg *Config) error {
	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}
	pyroscopeAppName := strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if pyroscopeEnabled && pyroscopeAppName == "" {
		return fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}

	cfg.UptraceEnabled = uptraceEnabled
	cfg.UptraceDSN = uptraceDSN
	cfg.PyroscopeEnabled = pyroscopeEnabled
	cfg.PyroscopeServerAddress = pyroscopeServerAddress
	cfg.PyroscopeAppName = pyroscopeAppName
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeUploadRate = pyroscopeUploadRate
	return nil
}

// loadDotEnv applies a dotenv file without overriding variables already set.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

// parseChipPairs reads "a:b,c:d" into chip id pairs.
func parseChipPairs(raw string) ([][2]string, error) {
	items := splitCSV(raw)
	out := make([][2]string, 0, len(items))
	for _, item := range items {
		segments := strings.SplitN(item, ":", 2)
		if len(segments) != 2 {
			return nil, crerr.Newf("invalid pair %q, expected chip_a:chip_b", item)
		}
		left := strings.TrimSpace(segments[0])
		right := strings.TrimSpace(segments[1])
		if left == "" || right == "" {
			return nil, crerr.Newf("empty chip id in pair %q", item)
		}
		if left == right {
			return nil, crerr.Newf("pair %q names the same chip twice", item)
		}
		out = append(out, [2]string{left, right})
	}
	return out, nil
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
