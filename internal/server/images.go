package server

import (
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/playperu/demovote/internal/imaging"
)

// normalizeUpload runs one upload through the image normalizer and logs
// the size reduction.
func normalizeUpload(logger *slog.Logger, field string, r io.Reader, opts imaging.Options) (imaging.Image, error) {
	img, err := imaging.Normalize(r, opts)
	if err != nil {
		logger.Info("image rejected", "field", field, "error", err)
		return imaging.Image{}, err
	}
	logger.Info("image normalized",
		"field", field,
		"format", img.SourceFormat,
		"source", formatSize(img.SourceWidth, img.SourceHeight),
		"output", formatSize(img.Width, img.Height),
		"encoded", humanize.Bytes(uint64(img.EncodedBytes)),
	)
	return img, nil
}

func formatSize(w, h int) string {
	return humanize.Comma(int64(w)) + "x" + humanize.Comma(int64(h))
}
