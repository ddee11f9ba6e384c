// Package imaging bounds uploaded images to a maximum edge length and
// re-encodes them as JPEG data URIs small enough to embed in the record.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"math"
	"strings"

	// Registered decoders.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxEdge   = 400
	DefaultQuality   = 0.7
	DefaultMaxPixels = 40_000_000

	jpegPrefix = "data:image/jpeg;base64,"
)

// DecodeMessage is shown to the operator when an upload cannot be read.
const DecodeMessage = "इमेज लोड करण्यात त्रुटी आली. कृपया पुन्हा प्रयत्न करा."

var (
	ErrBadOptions = errors.New("invalid normalize options")
	// ErrTooManyPixels is wrapped in a *DecodeError when the declared image
	// size exceeds Options.MaxPixels.
	ErrTooManyPixels = errors.New("image has too many pixels")
)

// DecodeError means the input was not a readable image. Callers must leave
// any stored image untouched.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decoding image: %v", e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

type Options struct {
	MaxEdge int
	Quality float64
	// MaxPixels bounds width*height of a source before it is decoded.
	// Zero means DefaultMaxPixels.
	MaxPixels int64
}

func (o Options) validate() error {
	if o.MaxPixels < 0 {
		return fmt.Errorf("%w: max pixels %d", ErrBadOptions, o.MaxPixels)
	}
	if o.MaxEdge < 1 {
		return fmt.Errorf("%w: max edge %d", ErrBadOptions, o.MaxEdge)
	}
	if !(o.Quality > 0 && o.Quality <= 1) {
		return fmt.Errorf("%w: quality %v", ErrBadOptions, o.Quality)
	}
	return nil
}

func (o Options) maxPixels() int64 {
	if o.MaxPixels == 0 {
		return DefaultMaxPixels
	}
	return o.MaxPixels
}

// inspect reads the header of data and rejects sources larger than the
// pixel bound, so a small compressed file cannot force a huge decode.
func (o Options) inspect(data []byte) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", &DecodeError{Err: err}
	}
	if cfg.Width < 1 || cfg.Height < 1 || int64(cfg.Width)*int64(cfg.Height) > o.maxPixels() {
		return image.Config{}, "", &DecodeError{Err: fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)}
	}
	return cfg, format, nil
}

// Image is a normalized, embeddable image.
type Image struct {
	DataURI      string `json:"dataUri"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	SourceWidth  int    `json:"sourceWidth"`
	SourceHeight int    `json:"sourceHeight"`
	SourceFormat string `json:"sourceFormat"`
	EncodedBytes int    `json:"bytes"`
}

// Fit returns the output size for a w×h source bounded by maxEdge. The longer
// edge becomes maxEdge when it exceeds it and the other edge is scaled and
// rounded; smaller images keep their size. Square sources take the height
// branch, which gives the same answer.
func Fit(w, h, maxEdge int) (int, int) {
	if w > h {
		if w > maxEdge {
			h = roundDiv(h*maxEdge, w)
			w = maxEdge
		}
	} else if h > maxEdge {
		w = roundDiv(w*maxEdge, h)
		h = maxEdge
	}
	return max(w, 1), max(h, 1)
}

func roundDiv(num, den int) int {
	return int(math.Round(float64(num) / float64(den)))
}

// Normalize decodes r, scales it with Fit and re-encodes it as JPEG at the
// given quality. A decode failure or an oversized source is returned as
// *DecodeError.
func Normalize(r io.Reader, opts Options) (Image, error) {
	if err := opts.validate(); err != nil {
		return Image{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Image{}, fmt.Errorf("reading image: %w", err)
	}
	return normalize(data, opts)
}

func normalize(data []byte, opts Options) (Image, error) {
	if _, _, err := opts.inspect(data); err != nil {
		return Image{}, err
	}
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, &DecodeError{Err: err}
	}
	b := src.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), opts.MaxEdge)

	// JPEG has no alpha; paint a white backdrop so transparent symbols stay legible.
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality(opts.Quality)}); err != nil {
		return Image{}, fmt.Errorf("encoding jpeg: %w", err)
	}

	return Image{
		DataURI:      jpegPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:        w,
		Height:       h,
		SourceWidth:  b.Dx(),
		SourceHeight: b.Dy(),
		SourceFormat: format,
		EncodedBytes: buf.Len(),
	}, nil
}

func jpegQuality(q float64) int {
	return min(max(int(math.Round(q*100)), 1), 100)
}

// ParseDataURI checks that s is a base64 image data URI and returns its
// media type and payload.
func ParseDataURI(s string) (mediaType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, errors.New("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("data URI has no payload")
	}
	mediaType, enc, _ := strings.Cut(meta, ";")
	if !strings.HasPrefix(mediaType, "image/") {
		return "", nil, fmt.Errorf("media type %q is not an image", mediaType)
	}
	if enc != "base64" {
		return "", nil, errors.New("data URI is not base64")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decoding base64 payload: %w", err)
	}
	return mediaType, data, nil
}

// NormalizeDataURI bounds an embedded image the way Normalize bounds an
// upload. A JPEG already within MaxEdge is returned unchanged, so saving a
// record again does not re-compress its images. Any unreadable input is a
// *DecodeError.
func NormalizeDataURI(uri string, opts Options) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}
	mediaType, data, err := ParseDataURI(uri)
	if err != nil {
		return "", &DecodeError{Err: err}
	}
	cfg, format, err := opts.inspect(data)
	if err != nil {
		return "", err
	}
	if mediaType == "image/jpeg" && format == "jpeg" && cfg.Width <= opts.MaxEdge && cfg.Height <= opts.MaxEdge {
		return uri, nil
	}
	img, err := normalize(data, opts)
	if err != nil {
		return "", err
	}
	return img.DataURI, nil
}

// DecodeConfig reads just the dimensions of an embedded data URI.
func DecodeConfig(dataURI string) (image.Config, error) {
	_, data, err := ParseDataURI(dataURI)
	if err != nil {
		return image.Config{}, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, &DecodeError{Err: err}
	}
	return cfg, nil
}
