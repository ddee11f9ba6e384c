package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/demovote/internal/handler/health"
	"github.com/playperu/demovote/internal/web"
)

func addRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	pages := web.Templates()

	r.Get("/openapi.json", handleOpenAPI())
	if d.DocsEnabled {
		r.Mount("/docs", v5emb.New("Demo Vote API", "/openapi.json", "/docs"))
	}
	r.Mount("/healthz", health.NewHandler(logger, d.Checks).Routes())
	r.Handle("/static/*", handleStatic(logger, d.StaticDir))
	r.Get("/audio/{cue}.wav", handleCue(logger, d.Cues))

	// Editor.
	r.Get("/", handleEditorPage(logger, pages, d))
	r.Post("/editor", handleEditorSubmit(logger, pages, d))

	// Booth page; each render starts a fresh interaction session.
	r.Get("/booth", handleBoothPage(logger, pages, d))
	r.Get("/ws/booth/{sessionID}", handleBoothWS(logger, d.Booths, d.Broker))

	r.Route("/api", func(r chi.Router) {
		r.Get("/scenario", handleGetScenario(logger, d))
		r.Put("/scenario", handlePutScenario(logger, d))
		r.Post("/scenario/preview", handlePreviewScenario(logger, d))
		r.Post("/images", handleNormalizeImage(logger, d))
		r.Get("/booth", handleBoothView(logger, d))

		r.Route("/booth/sessions", func(r chi.Router) {
			r.Post("/", handleCreateSession(logger, d))

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Use(sessionMiddleware(d.Booths))
				r.Get("/", handleSessionState())
				r.Delete("/", handleDeleteSession(d.Booths))
				r.Post("/press", handlePress())
				r.Post("/flip", handleFlip())
				r.Post("/close", handleClose())
				r.Get("/events", handleEvents(d.Broker))
			})
		})
	})
}
