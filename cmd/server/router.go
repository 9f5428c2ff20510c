package main

import (
	"net/http"

	"github.com/ashureev/cleia/internal/api"
	"github.com/ashureev/cleia/internal/config"
	"github.com/ashureev/cleia/internal/elicitation"
	"github.com/ashureev/cleia/internal/middleware"
	"github.com/ashureev/cleia/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func newRouter(cfg *config.Config, db api.Pinger, svc *elicitation.Service) http.Handler {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	api.NewHealthHandler(db).RegisterHealth(r)
	api.NewHandler(svc).RegisterRoutes(r)

	// WebSocket chat endpoint.
	r.Get("/ws/chat", api.NewChatSocketHandler(svc, cfg.CORSAllowedOrigins).ServeHTTP)

	// Embedded frontend pages.
	r.Handle("/static/*", web.StaticHandler())
	r.Handle("/chat-ui", web.PageHandler("chat.html"))
	r.Handle("/newform", web.PageHandler("newform.html"))

	return r
}
