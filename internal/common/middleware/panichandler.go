package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"github.com/veristream/veristream-internal/internal/common/httpx"
	"github.com/veristream/veristream-internal/internal/common/logtrace"
)

var panicsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "vs_http_panics_total",
	Help: "Requests aborted by a recovered panic",
})

// PanicHandler converts a handler panic into a 500 with the request id so
// the caller can quote it. http.ErrAbortHandler passes through untouched.
func PanicHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				panicsTotal.Inc()
				reqID := logtrace.RequestIdFromContext(r.Context())
				log.Ctx(r.Context()).Error().
					Str("request_id", reqID).
					Bytes("stack", debug.Stack()).
					Msgf("Panic occurred: %v", err)
				msg := "Unable to process request. Please try again later."
				if reqID != "" {
					msg += " Request ID: " + reqID
				}
				httpx.ErrApplicationError(msg).Send(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
