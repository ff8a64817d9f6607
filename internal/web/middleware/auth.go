package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/postimport/internal/config"
	"github.com/JonMunkholm/postimport/internal/core"
	"github.com/google/uuid"
)

// ActorHeader names the acting user when API key auth is disabled.
const ActorHeader = "X-Actor-ID"

type apiKey struct {
	key   []byte
	actor uuid.UUID
}

// APIKeyAuth returns middleware that maps the X-API-Key header to an actor
// and stores it in the request context.
//
// With RequireAPIKey false, requests pass through and the actor is taken
// from X-Actor-ID if present. Handlers reject requests with no actor.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	actors, err := cfg.ActorKeys()
	if err != nil {
		slog.Error("auth: invalid API_KEYS, rejecting all keys", "error", err)
		actors = nil
	}
	keys := make([]apiKey, 0, len(actors))
	for k, id := range actors {
		keys = append(keys, apiKey{key: []byte(k), actor: id})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				if id, err := uuid.Parse(r.Header.Get(ActorHeader)); err == nil && id != uuid.Nil {
					r = r.WithContext(core.ContextWithActor(r.Context(), id))
				}
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-API-Key")
			if key == "" {
				slog.Warn("auth: missing API key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusUnauthorized, "missing API key")
				return
			}

			actor, ok := matchKey(key, keys)
			if !ok {
				slog.Warn("auth: invalid API key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			next.ServeHTTP(w, r.WithContext(core.ContextWithActor(r.Context(), actor)))
		})
	}
}

// matchKey compares key against every configured key in constant time,
// so timing does not reveal which key (if any) matched.
func matchKey(key string, keys []apiKey) (uuid.UUID, bool) {
	var actor uuid.UUID
	found := 0
	for _, k := range keys {
		if subtle.ConstantTimeCompare([]byte(key), k.key) == 1 {
			actor = k.actor
			found = 1
		}
	}
	return actor, found == 1
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `","code":"AUTH001"}`))
}
