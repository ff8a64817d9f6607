package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/postimport/internal/core"
)

// WithRequestMetadata adds IP and User-Agent to context for import logs.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, r.RemoteAddr) // already rewritten by TrustedRealIP
	ctx = core.ContextWithUserAgent(ctx, r.Header.Get("User-Agent"))
	return ctx
}
