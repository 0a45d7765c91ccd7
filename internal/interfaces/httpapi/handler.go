package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/predictions-chips/internal/platform/logging"
	"github.com/riskibarqy/predictions-chips/internal/usecase"
)

type Handler struct {
	statusService   *usecase.ChipStatusService
	gameweekService *usecase.GameweekChipService
	syncService     *usecase.ChipSyncService
	logger          *logging.Logger
	validator       *validator.Validate
}

func NewHandler(
	statusService *usecase.ChipStatusService,
	gameweekService *usecase.GameweekChipService,
	syncService *usecase.ChipSyncService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		statusService:   statusService,
		gameweekService: gameweekService,
		syncService:     syncService,
		logger:          logger.Named("httpapi"),
		validator:       validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

const maxRequestBodySize = 1 << 20

var strictJSON = sonic.Config{DisallowUnknownFields: true}.Froze()

// decodeJSONBody decodes into target. An empty body is accepted when allowEmpty is set.
func decodeJSONBody(r *http.Request, target any, allowEmpty bool) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		return fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		if allowEmpty {
			return nil
		}
		return fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
	}
	if err := strictJSON.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func requestUserID(ctx context.Context) (string, error) {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return "", fmt.Errorf("%w: missing user", usecase.ErrUnauthorized)
	}
	return userID, nil
}
