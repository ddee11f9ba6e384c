package server

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/playperu/demovote/internal/booth"
	"github.com/playperu/demovote/internal/scenario"
)

type boothPage struct {
	View      scenario.View
	SessionID string
	Preview   bool
}

type BoothViewResponse struct {
	View    scenario.View `json:"view"`
	Preview bool          `json:"preview"`
}

type SessionResponse struct {
	ID       string         `json:"id"`
	Rows     int            `json:"rows"`
	Snapshot booth.Snapshot `json:"snapshot"`
}

type PressRequest struct {
	Row int `json:"row"`
}

type CloseRequest struct {
	Reason string `json:"reason"`
}

type ChangeResponse struct {
	Changed  bool           `json:"changed"`
	Snapshot booth.Snapshot `json:"snapshot"`
}

// boothURL is the address shared in the share message.
func boothURL(r *http.Request, publicURL string) string {
	if publicURL != "" {
		return strings.TrimRight(publicURL, "/") + "/booth"
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + r.Host + "/booth"
}

// previewRequested marks the response uncacheable for preview loads. The
// page content is the same either way.
func previewRequested(w http.ResponseWriter, r *http.Request) bool {
	if r.URL.Query().Get("preview") != "1" {
		return false
	}
	w.Header().Set("Cache-Control", "no-store")
	return true
}

func handleBoothPage(logger *slog.Logger, pages *template.Template, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, _ := LoadRecord(r.Context(), d.Store, logger)
		view := scenario.Project(rec, boothURL(r, d.PublicURL))
		sess := d.Booths.Create(view.Controls())

		render(w, logger, pages, "booth.html", http.StatusOK, boothPage{
			View:      view,
			SessionID: sess.ID(),
			Preview:   previewRequested(w, r),
		})
	}
}

func handleBoothView(logger *slog.Logger, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, _ := LoadRecord(r.Context(), d.Store, logger)
		writeJSON(w, http.StatusOK, BoothViewResponse{
			View:    scenario.Project(rec, boothURL(r, d.PublicURL)),
			Preview: previewRequested(w, r),
		})
	}
}

func handleCreateSession(logger *slog.Logger, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, _ := LoadRecord(r.Context(), d.Store, logger)
		controls := scenario.Project(rec, boothURL(r, d.PublicURL)).Controls()
		sess := d.Booths.Create(controls)
		writeJSON(w, http.StatusCreated, SessionResponse{
			ID:       sess.ID(),
			Rows:     len(controls),
			Snapshot: sess.Snapshot(),
		})
	}
}

func handleSessionState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, boothSession(r).Snapshot())
	}
}

func handleDeleteSession(booths *booth.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := booths.Delete(boothSession(r).ID()); err != nil {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handlePress() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PressRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		out, err := boothSession(r).Press(req.Row)
		if errors.Is(err, booth.ErrUnknownRow) {
			writeError(w, http.StatusBadRequest, "unknown row")
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleFlip() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, changed := boothSession(r).Flip()
		writeJSON(w, http.StatusOK, ChangeResponse{Changed: changed, Snapshot: snap})
	}
}

func handleClose() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CloseRequest
		if err := readOptionalJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		reason, ok := booth.ParseCloseReason(req.Reason)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown close reason")
			return
		}
		snap, changed := boothSession(r).Close(reason)
		writeJSON(w, http.StatusOK, ChangeResponse{Changed: changed, Snapshot: snap})
	}
}
