package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/demovote/internal/booth"
)

type ctxKey int

const ctxKeySession ctxKey = iota

// sessionMiddleware resolves {sessionID} to a live booth session.
func sessionMiddleware(booths *booth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := booths.Get(chi.URLParam(r, "sessionID"))
			if err != nil {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func boothSession(r *http.Request) *booth.Session {
	return r.Context().Value(ctxKeySession).(*booth.Session)
}
