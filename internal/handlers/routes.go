package handlers

import (
	"net/http"

	authmw "github.com/devex-hq/devex-api/internal/middleware"
	"github.com/devex-hq/devex-api/internal/services"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
)

// Handlers is the set of route handlers served under /api/v1.
type Handlers struct {
	Auth   *AuthHandler
	User   *UserHandler
	Log    *LogHandler
	Collab *CollabHandler
	SSE    *SSEHandler
	Sync   *SyncHandler
}

type RouterConfig struct {
	Production  bool
	CORSOrigins []string
}

// NewRouter builds the drift app with the middleware chain and the full
// route table.
func NewRouter(cfg RouterConfig, jwtService *services.JWTService, h Handlers) http.Handler {
	app := drift.New()

	if cfg.Production {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/signup", h.Auth.Signup)
	auth.Post("/login", h.Auth.Login)
	auth.Get("/:provider/consent", h.Auth.GetConsentURL)
	auth.Get("/:provider/callback", h.Auth.Callback)
	auth.Post("/exchange", h.Auth.ExchangeCode)
	auth.Post("/refresh", h.Auth.RefreshToken)
	auth.Post("/logout", h.Auth.Logout)

	// drift cannot hold /users/me next to a /users/:username wildcard, so
	// public profiles live under their own prefix.
	api.Get("/profiles/:username", h.User.GetProfile)
	api.Get("/profiles/:username/logs", h.User.GetLogs)
	api.Get("/profiles/:username/collabs", h.User.GetCollabs)
	api.Get("/logs", h.Log.Feed)
	api.Get("/collabs", h.Collab.ListOpen)
	api.Get("/collabs/:id", h.Collab.Get)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Post("/auth/logout-all", h.Auth.LogoutAll)

	protected.Get("/users/me", h.User.GetMe)

	protected.Post("/logs", h.Log.Create)
	protected.Delete("/logs/:id", h.Log.Delete)
	protected.Patch("/logs/:id/like", h.Log.ToggleLike)

	protected.Post("/collabs", h.Collab.Create)
	protected.Patch("/collabs/:id/status", h.Collab.UpdateStatus)
	protected.Post("/collabs/:id/join", h.Collab.RequestJoin)
	protected.Patch("/collabs/:id/join", h.Collab.RequestJoin)
	protected.Patch("/collabs/:id/manage", h.Collab.ManageRequest)
	protected.Patch("/collabs/:id/remove", h.Collab.RemoveCollaborator)
	protected.Delete("/collabs/:id", h.Collab.Delete)
	protected.Get("/collabs/:id/messages", h.Collab.Messages)
	protected.Get("/collabs/:id/events", h.SSE.Connect)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	api.Get("/ws", h.Sync.Connect)

	return app
}
