// Package handler wires HTTP routes to the service layer.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	authHandler "github.com/gurukul-ai/backend/internal/handler/auth"
	chatHandler "github.com/gurukul-ai/backend/internal/handler/chat"
	roadmapHandler "github.com/gurukul-ai/backend/internal/handler/roadmap"
	taskHandler "github.com/gurukul-ai/backend/internal/handler/task"
	tutorHandler "github.com/gurukul-ai/backend/internal/handler/tutor"
	"github.com/gurukul-ai/backend/internal/handler/ws"
	middlewarePkg "github.com/gurukul-ai/backend/internal/middleware"
	"github.com/gurukul-ai/backend/internal/service/ai"
	authService "github.com/gurukul-ai/backend/internal/service/auth"
	chatService "github.com/gurukul-ai/backend/internal/service/chat"
	roadmapService "github.com/gurukul-ai/backend/internal/service/roadmap"
	taskService "github.com/gurukul-ai/backend/internal/service/task"
	tutorService "github.com/gurukul-ai/backend/internal/service/tutor"
	"github.com/gurukul-ai/backend/internal/store"
	"github.com/gurukul-ai/backend/pkg/utils"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Repo           store.Repository
	AuthSvc        *authService.Service
	TutorSvc       *tutorService.Service
	TaskSvc        *taskService.Service
	RoadmapSvc     *roadmapService.Service
	ChatSvc        *chatService.Service
	Orchestrator   *ai.Orchestrator
	AllowedOrigins []string
	Log            *zap.Logger
}

// NewRouter builds the full API surface.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(d.AllowedOrigins))

	hub := ws.NewHub()
	wsHandler := ws.New(hub, d.ChatSvc, d.Orchestrator, d.AuthSvc, d.Log)

	authH := authHandler.New(d.AuthSvc, d.Repo)
	tutorH := tutorHandler.New(d.TutorSvc)
	taskH := taskHandler.New(d.TaskSvc)
	roadmapH := roadmapHandler.New(d.RoadmapSvc, d.TutorSvc)
	chatH := chatHandler.New(d.ChatSvc, d.Orchestrator, wsHandler)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			if err := d.Repo.Ping(r.Context()); err != nil {
				utils.RespondError(w, http.StatusServiceUnavailable, "database unreachable")
				return
			}
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		authH.RegisterRoutes(api)

		// Websocket auth happens at upgrade via the token query param.
		wsHandler.RegisterRoutes(api)

		api.Group(func(protected chi.Router) {
			protected.Use(middlewarePkg.RequireAuth(d.AuthSvc))

			authH.RegisterProtectedRoutes(protected)
			tutorH.RegisterRoutes(protected)
			taskH.RegisterRoutes(protected)
			roadmapH.RegisterRoutes(protected)
			chatH.RegisterRoutes(protected)
		})
	})

	return r
}
