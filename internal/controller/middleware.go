package controller

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/auxroom/server/pkg/ctxlogger"
)

type contextKey int

const claimsCtxKey contextKey = iota

func (c controller) requestIDMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = ctxlogger.AppendCtx(ctx, slog.String("request_id", c.generateRequestID()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (c controller) requestLoggingMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"url", r.URL.String(),
			"remote_addr", r.RemoteAddr,
		)
		next.ServeHTTP(w, r)
	})
}

func (c controller) authMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			c.respondError(w, http.StatusUnauthorized, "missing auth token")
			return
		}

		claims, err := c.roomService.ParseToken(token)
		if err != nil {
			c.respondError(w, http.StatusUnauthorized, "invalid auth token")
			return
		}

		if claims.RoomID != c.getRoomID(r) {
			c.respondError(w, http.StatusForbidden, "token issued for another room")
			return
		}

		ctx := context.WithValue(r.Context(), claimsCtxKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
