package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/demovote/internal/audio"
)

// handleCue serves a synthesized feedback cue as WAV. When the cue cannot be
// rendered the response is an empty 204 and the page simply stays silent.
func handleCue(logger *slog.Logger, cues *audio.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cue := audio.Cue(chi.URLParam(r, "cue"))
		wav := cues.WAV(cue)
		if wav == nil {
			err := cues.Err(cue)
			if errors.Is(err, audio.ErrUnknownCue) {
				writeError(w, http.StatusNotFound, "unknown cue")
				return
			}
			logger.Debug("audio cue unavailable", "cue", cue, "error", err)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		writeTagged(w, r, "audio/wav", wav)
	}
}
