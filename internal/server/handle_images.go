package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/playperu/demovote/internal/imaging"
)

// ImageResponse is a normalized upload ready to embed in a scenario.
type ImageResponse struct {
	DataURI string `json:"dataUri"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Bytes   int    `json:"bytes"`
}

func handleNormalizeImage(logger *slog.Logger, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, d.MaxUploadBytes)
		f, _, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
				return
			}
			writeError(w, http.StatusBadRequest, "multipart field \"file\" required")
			return
		}
		defer f.Close()

		img, err := normalizeUpload(logger, "file", f, d.Images)
		if err != nil {
			var de *imaging.DecodeError
			if errors.As(err, &de) {
				writeError(w, http.StatusUnprocessableEntity, imaging.DecodeMessage)
				return
			}
			logger.Error("normalizing image", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, ImageResponse{
			DataURI: img.DataURI,
			Width:   img.Width,
			Height:  img.Height,
			Bytes:   img.EncodedBytes,
		})
	}
}
