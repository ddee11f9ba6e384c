package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/playperu/demovote/internal/imaging"
	"github.com/playperu/demovote/internal/scenario"
)

// ScenarioResponse is the stored record as the viewer would see it.
type ScenarioResponse struct {
	Record    scenario.Record `json:"record"`
	IsDefault bool            `json:"isDefault"`
}

type PreviewResponse struct {
	PreviewURL string `json:"previewUrl"`
}

func previewURL(now time.Time) string {
	return fmt.Sprintf("/booth?preview=1&t=%d", now.UnixMilli())
}

func handleGetScenario(logger *slog.Logger, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, isDefault := LoadRecord(r.Context(), d.Store, logger)
		body, err := json.Marshal(ScenarioResponse{Record: rec, IsDefault: isDefault})
		if err != nil {
			logger.Error("encoding scenario", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeTagged(w, r, "application/json; charset=utf-8", body)
	}
}

func handlePutScenario(logger *slog.Logger, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, ok := saveFromJSON(w, r, logger, d)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func handlePreviewScenario(logger *slog.Logger, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := saveFromJSON(w, r, logger, d); !ok {
			return
		}
		writeJSON(w, http.StatusOK, PreviewResponse{PreviewURL: previewURL(d.Now())})
	}
}

// saveFromJSON decodes an Input body, bounds its embedded images and saves
// it. On failure the error response has been written and ok is false.
func saveFromJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, d Deps) (scenario.Record, bool) {
	var in scenario.Input
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return scenario.Record{}, false
	}
	for _, field := range []*string{&in.CandidatePhoto, &in.CandidateSymbol} {
		uri := strings.TrimSpace(*field)
		if uri == "" {
			continue
		}
		bounded, err := imaging.NormalizeDataURI(uri, d.Images)
		if err != nil {
			writeSaveError(w, logger, err)
			return scenario.Record{}, false
		}
		*field = bounded
	}

	rec, err := SaveInput(r.Context(), d.Store, in, d.Now())
	if err != nil {
		writeSaveError(w, logger, err)
		return scenario.Record{}, false
	}
	logger.Info("scenario saved", "constituency", rec.ConstituencyName, "total", rec.TotalCandidates, "position", rec.CandidatePosition)
	return rec, true
}

func writeSaveError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if ve, ok := scenario.IsValidation(err); ok {
		writeError(w, http.StatusBadRequest, ve.Message)
		return
	}
	var de *imaging.DecodeError
	if errors.As(err, &de) {
		writeError(w, http.StatusUnprocessableEntity, imaging.DecodeMessage)
		return
	}
	logger.Error("saving scenario", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
