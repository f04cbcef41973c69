package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/schoolpay/payments/pkg/logger"
)

const traceHeader = "X-Trace-ID"

// RequestID propagates the caller's trace id, minting one when absent, and
// binds it to the request-scoped logger so every log line carries it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		w.Header().Set(traceHeader, traceID)

		ctx := logger.With(r.Context(), "trace_id", traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
