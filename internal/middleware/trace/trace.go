package trace

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"fines/internal/log"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

type ctxKey struct{}

// Middleware tags each request with an id, taken from the inbound header
// when present, and attaches it to the context logger. It must run inside
// log.Middleware.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)

		ctx := context.WithValue(r.Context(), ctxKey{}, id)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldCorrelationID, id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestID returns the id set by Middleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
