package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stockledger/internal/actor"
	"stockledger/internal/infrastructure/logger"
)

const TraceHeader = "X-Trace-ID"

type contextKey int

const traceIDKey contextKey = iota

// Trace gives every request a trace id and a logger carrying it.
func Trace(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := uuid.New().String()
			w.Header().Set(TraceHeader, traceID)

			ctx := context.WithValue(r.Context(), traceIDKey, traceID)
			ctx = logger.WithContext(ctx, base.With(zap.String("traceId", traceID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Actor copies the caller identity header into the request context.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(actor.HeaderName); id != "" {
			r = r.WithContext(actor.WithID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

// Logger returns the request logger, or a no-op logger outside Trace.
func Logger(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, zap.NewNop())
}
