package middleware

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/hlog"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/AlenaMolokova/circlepay/internal/utils"
)

// RateLimit limits requests per client IP. rate uses the limiter format,
// e.g. "120-M" for 120 requests a minute.
func RateLimit(rate string) (func(http.Handler) http.Handler, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}
	mw := stdlib.NewMiddleware(
		limiter.New(memory.NewStore(), parsed),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			hlog.FromRequest(r).Warn().Str("remote", r.RemoteAddr).Msg("Rate limit reached")
			utils.WriteJSONError(w, http.StatusTooManyRequests, "Too many requests")
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			hlog.FromRequest(r).Error().Err(err).Msg("Rate limiter failed")
			utils.WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
		}),
	)
	return mw.Handler, nil
}
