package predictionsapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/predictions-chips/internal/domain/chip"
	"github.com/riskibarqy/predictions-chips/internal/domain/prediction"
	"github.com/riskibarqy/predictions-chips/internal/platform/logging"
	"github.com/riskibarqy/predictions-chips/internal/platform/resilience"
	"github.com/riskibarqy/predictions-chips/internal/usecase"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTimeout  = 5 * time.Second
	maxResponseSize = 2 << 20
	userIDHeader    = "X-User-ID"
)

var errPredictionsTransient = crerr.New("predictions backend transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the predictions backend. It serves both the chip status feed
// and the prediction list/update operations.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
}

func NewClient(cfg ClientConfig, logger *logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.Default()
	}

	baseURL, err := validateHTTPBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid PREDICTIONS_API_BASE_URL")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      strings.TrimSpace(cfg.Token),
		logger:     logger.Named("predictionsapi"),
		breaker:    resilience.NewCircuitBreakerFromConfig(cfg.CircuitBreaker),
	}
	c.breaker.OnStateChange(func(from, to resilience.CircuitState) {
		snap := c.breaker.Snapshot()
		c.logger.Warn("predictions backend circuit state changed",
			"from", from,
			"to", to,
			"consecutive_failures", snap.ConsecutiveFailures,
		)
	})
	return c, nil
}

func (c *Client) FetchStatus(ctx context.Context, userID string) (chip.Feed, error) {
	var payload chipStatusResponse
	if err := c.doJSON(ctx, http.MethodGet, "/chips/status", userID, nil, &payload); err != nil {
		return chip.Feed{}, err
	}
	if payload.CurrentGameweek < 1 {
		return chip.Feed{}, crerr.Newf("chip status payload has invalid currentGameweek=%d", payload.CurrentGameweek)
	}

	out := chip.Feed{
		CurrentGameweek: payload.CurrentGameweek,
		Chips:           make([]chip.StatusRecord, 0, len(payload.Chips)),
	}
	for _, item := range payload.Chips {
		out.Chips = append(out.Chips, item.toDomain())
	}
	return out, nil
}

func (c *Client) ListByUser(ctx context.Context, userID string) ([]prediction.Prediction, error) {
	var payload predictionListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/predictions", userID, nil, &payload); err != nil {
		return nil, err
	}

	out := make([]prediction.Prediction, 0, len(payload.Predictions))
	for _, item := range payload.Predictions {
		out = append(out, item.toDomain())
	}
	return out, nil
}

func (c *Client) Update(ctx context.Context, userID, predictionID string, input prediction.UpdateInput) error {
	predictionID = strings.TrimSpace(predictionID)
	if predictionID == "" {
		return fmt.Errorf("%w: prediction id is required", usecase.ErrInvalidInput)
	}

	body := updatePredictionRequest{
		HomeScore:   input.HomeScore,
		AwayScore:   input.AwayScore,
		HomeScorers: nonNilStrings(input.HomeScorers),
		AwayScorers: nonNilStrings(input.AwayScorers),
		Chips:       nonNilStrings(input.Chips),
	}
	return c.doJSON(ctx, http.MethodPut, "/predictions/"+url.PathEscape(predictionID), userID, body, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path, userID string, payload, target any) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", usecase.ErrInvalidInput)
	}

	var raw []byte
	err := c.breaker.Execute(func() error {
		out, reqErr := c.executeRequest(ctx, method, path, userID, payload)
		raw = out
		return reqErr
	}, isCircuitFailure)
	if err != nil {
		if crerr.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "predictions backend circuit breaker rejected request", "state", c.breaker.State(), "base_url", c.baseURL)
			return fmt.Errorf("%w: predictions backend is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
		return err
	}

	if target == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return crerr.Wrapf(err, "decode predictions backend payload path=%s", path)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, method, path, userID string, payload any) ([]byte, error) {
	fullURL := c.baseURL + path

	var (
		body     io.Reader
		bodyText string
	)
	if payload != nil {
		encoded, err := sonic.Marshal(payload)
		if err != nil {
			return nil, crerr.Wrap(err, "marshal predictions backend request")
		}
		body = bytes.NewReader(encoded)
		bodyText = truncateForLog(string(encoded), maxPreviewBody)
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("predictions_api.method", method),
			attribute.String("predictions_api.url", fullURL),
			attribute.String("predictions_api.request_curl_preview", buildCurlPreview(method, fullURL, bodyText)),
		)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, crerr.Wrap(err, "create predictions backend request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(userIDHeader, userID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		callErr := fmt.Errorf("%w: %s %s: %s", errPredictionsTransient, method, path, redactToken(err.Error(), c.token))
		c.logger.WarnContext(ctx, "predictions backend request failed", "method", method, "path", path, "error", callErr)
		return nil, fmt.Errorf("%w: %w", usecase.ErrDependencyUnavailable, callErr)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w: read response body: %v", usecase.ErrDependencyUnavailable, errPredictionsTransient, err)
	}

	if resp.StatusCode/100 == 2 {
		return raw, nil
	}

	if span.IsRecording() {
		span.SetAttributes(attribute.Int("predictions_api.status_code", resp.StatusCode))
	}
	c.logger.WarnContext(ctx, "predictions backend non-2xx",
		"method", method,
		"path", path,
		"status_code", resp.StatusCode,
		"body", abbreviateBody(raw),
	)
	return nil, statusError(method, path, resp.StatusCode, raw)
}

func statusError(method, path string, status int, raw []byte) error {
	detail := fmt.Sprintf("%s %s status=%d body=%s", method, path, status, abbreviateBody(raw))
	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", usecase.ErrNotFound, detail)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", usecase.ErrUnauthorized, detail)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", usecase.ErrInvalidInput, detail)
	case isRetryableStatus(status):
		return fmt.Errorf("%w: %w: %s", usecase.ErrDependencyUnavailable, errPredictionsTransient, detail)
	default:
		return fmt.Errorf("%w: %s", usecase.ErrDependencyUnavailable, detail)
	}
}

func isCircuitFailure(err error) bool {
	return crerr.Is(err, errPredictionsTransient)
}

func isRetryableStatus(status int) bool {
	return status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

func nonNilStrings(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
