/*
Package handler provides the HTTP handlers and routing setup for the poker server.

This file defines the main Router, applying middleware like the proxy secret check,
logging and CORS before delegating requests to the health check or the root handler,
which serves both room WebSocket connections and the embedded browser client.
*/
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"poker/internal/pkg/limiter"
	"poker/internal/pkg/logx"
	"poker/internal/pkg/resp"
)

const (
	// Browser clients reconnect every two seconds while the server is away;
	// several tabs may share one address.
	JoinRate  = 2
	JoinBurst = 20
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// Background work owned by the router stops when ctx is cancelled.
func Router(ctx context.Context, deps *AppDeps) http.Handler {
	joinLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(JoinRate), JoinBurst)

	r := chi.NewRouter()

	// Origins are checked by HandleRoot so rejections use the error envelope.
	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     func(*http.Request) bool { return true },
		Error:           upgradeError,
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger(deps.Config.EnableHeadersLogging))
	r.Use(middleware.Recoverer)
	r.Use(RequireProxySecret(deps.Config.ProxyHeaderKey, deps.Config.ProxyHeaderValue))
	r.Use(c.Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"status": "ok",
			"rooms":  deps.Manager.RoomCount(),
		}
		resp.RespondSuccess(w, r, data)
	})

	root := HandleRoot(deps, wsUpgrader, joinLimiter)
	r.Handle("/", root)
	r.Handle("/*", root)

	return r
}
