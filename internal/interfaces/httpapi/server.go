package httpapi

import (
	"net/http"
	"runtime/debug"

	"github.com/riskibarqy/predictions-chips/internal/platform/logging"
)

// NewRouter mounts every chip route. Middleware runs outermost first:
// tracing, access log, CORS, panic recovery.
func NewRouter(
	handler *Handler,
	logger *logging.Logger,
	swaggerEnabled bool,
	corsAllowedOrigins []string,
	internalJobToken string,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("httpapi")

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, swaggerEnabled)
	registerPublicChipRoutes(mux, handler)
	registerUserChipRoutes(mux, handler)
	registerInternalJobRoutes(mux, handler, internalJobToken)

	var root http.Handler = mux
	root = recoverPanic(logger, root)
	root = CORS(corsAllowedOrigins, root)
	root = RequestLogging(logger, root)
	return RequestTracing(root)
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.ErrorContext(r.Context(), "panic recovered",
				"panic", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			writeInternalError(r.Context(), w)
		}()
		next.ServeHTTP(w, r)
	})
}
