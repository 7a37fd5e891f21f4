package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/salaryreview/internal/core"
	"github.com/go-chi/chi/v5/middleware"
)

// withTrigger records who triggered a batch so the batch log can name them.
// RemoteAddr has already been rewritten by TrustedRealIP.
func withTrigger(ctx context.Context, r *http.Request) context.Context {
	return core.WithTrigger(ctx, core.Trigger{
		Via:       "http",
		Addr:      clientHost(r.RemoteAddr),
		UserAgent: r.Header.Get("User-Agent"),
		RequestID: middleware.GetReqID(ctx),
	})
}
