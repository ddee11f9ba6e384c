package imaging_test

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/demovote/internal/imaging"
)

func pngOf(t *testing.T, w, h int) *bytes.Reader {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return bytes.NewReader(buf.Bytes())
}

// pngHeader is a PNG that declares a w×h grayscale image and stops after
// the IHDR chunk. Only a full decode would notice the missing pixel data.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 0, 17)
	ihdr = append(ihdr, "IHDR"...)
	ihdr = binary.BigEndian.AppendUint32(ihdr, w)
	ihdr = binary.BigEndian.AppendUint32(ihdr, h)
	ihdr = append(ihdr, 8, 0, 0, 0, 0)

	out := []byte("\x89PNG\r\n\x1a\n")
	out = binary.BigEndian.AppendUint32(out, 13)
	out = append(out, ihdr...)
	return binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(ihdr))
}

func dataURIOf(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

var opts = imaging.Options{MaxEdge: 400, Quality: 0.7}

func TestFit(t *testing.T) {
	tests := []struct {
		name         string
		w, h, bound  int
		wantW, wantH int
	}{
		{"landscape over", 1600, 900, 400, 400, 225},
		{"portrait over", 900, 1600, 400, 225, 400},
		{"square over", 1000, 1000, 400, 400, 400},
		{"rounding", 1000, 333, 400, 400, 133},
		{"rounding up", 1000, 335, 400, 400, 134},
		{"exactly bound", 400, 300, 400, 400, 300},
		{"under bound", 120, 80, 400, 120, 80},
		{"thin sliver", 4000, 1, 400, 400, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := imaging.Fit(tt.w, tt.h, tt.bound)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestFitPreservesAspect(t *testing.T) {
	for w := 401; w < 2000; w += 97 {
		for h := 50; h < 2000; h += 131 {
			gw, gh := imaging.Fit(w, h, 400)
			assert.Equal(t, 400, max(gw, gh), "%dx%d", w, h)
			// Within integer rounding of the source ratio.
			if w >= h {
				assert.InDelta(t, float64(h)*400/float64(w), float64(gh), 0.5+1e-9)
			} else {
				assert.InDelta(t, float64(w)*400/float64(h), float64(gw), 0.5+1e-9)
			}
		}
	}
}

func TestNormalizeShrinks(t *testing.T) {
	img, err := imaging.Normalize(pngOf(t, 800, 500), opts)
	require.NoError(t, err)

	assert.Equal(t, 400, img.Width)
	assert.Equal(t, 250, img.Height)
	assert.Equal(t, 800, img.SourceWidth)
	assert.Equal(t, "png", img.SourceFormat)
	assert.True(t, strings.HasPrefix(img.DataURI, "data:image/jpeg;base64,"))

	cfg, err := imaging.DecodeConfig(img.DataURI)
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.Width)
	assert.Equal(t, 250, cfg.Height)
}

func TestNormalizeKeepsSmall(t *testing.T) {
	img, err := imaging.Normalize(pngOf(t, 64, 48), opts)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Width)
	assert.Equal(t, 48, img.Height)
}

func TestNormalizeDecodeError(t *testing.T) {
	_, err := imaging.Normalize(strings.NewReader("definitely not an image"), opts)
	var de *imaging.DecodeError
	require.True(t, errors.As(err, &de), "got %v", err)
}

func TestNormalizeRejectsTooManyPixels(t *testing.T) {
	tests := []struct {
		name string
		src  io.Reader
		opts imaging.Options
	}{
		{"declared 16000x16000", bytes.NewReader(pngHeader(16000, 16000)), opts},
		{"over a custom bound", pngOf(t, 100, 100), imaging.Options{MaxEdge: 400, Quality: 0.7, MaxPixels: 5000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := imaging.Normalize(tt.src, tt.opts)
			var de *imaging.DecodeError
			require.ErrorAs(t, err, &de)
			assert.ErrorIs(t, err, imaging.ErrTooManyPixels)
		})
	}
}

func TestNormalizeDataURI(t *testing.T) {
	var wide bytes.Buffer
	_, err := io.Copy(&wide, pngOf(t, 3000, 20))
	require.NoError(t, err)

	t.Run("oversized png is bounded", func(t *testing.T) {
		uri, err := imaging.NormalizeDataURI(dataURIOf("image/png", wide.Bytes()), opts)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))
		cfg, err := imaging.DecodeConfig(uri)
		require.NoError(t, err)
		assert.Equal(t, 400, cfg.Width)
		assert.Equal(t, 3, cfg.Height)
	})

	t.Run("bounded jpeg is kept", func(t *testing.T) {
		small, err := imaging.Normalize(pngOf(t, 64, 48), opts)
		require.NoError(t, err)
		uri, err := imaging.NormalizeDataURI(small.DataURI, opts)
		require.NoError(t, err)
		assert.Equal(t, small.DataURI, uri)
	})

	t.Run("small png is re-encoded", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := io.Copy(&buf, pngOf(t, 32, 32))
		require.NoError(t, err)
		uri, err := imaging.NormalizeDataURI(dataURIOf("image/png", buf.Bytes()), opts)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))
	})

	for name, uri := range map[string]string{
		"not a data URI":  "http://example.com/a.png",
		"not an image":    dataURIOf("image/png", []byte("nope")),
		"too many pixels": dataURIOf("image/png", pngHeader(16000, 16000)),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := imaging.NormalizeDataURI(uri, opts)
			var de *imaging.DecodeError
			assert.ErrorAs(t, err, &de)
		})
	}
}

func TestNormalizeBadOptions(t *testing.T) {
	for _, o := range []imaging.Options{
		{MaxEdge: 0, Quality: 0.7},
		{MaxEdge: 400, Quality: 0},
		{MaxEdge: 400, Quality: 1.2},
		{MaxEdge: 400, Quality: 0.7, MaxPixels: -1},
	} {
		_, err := imaging.Normalize(pngOf(t, 10, 10), o)
		assert.ErrorIs(t, err, imaging.ErrBadOptions)
	}
}

func TestQualityAffectsSize(t *testing.T) {
	lo, err := imaging.Normalize(pngOf(t, 300, 300), imaging.Options{MaxEdge: 400, Quality: 0.1})
	require.NoError(t, err)
	hi, err := imaging.Normalize(pngOf(t, 300, 300), imaging.Options{MaxEdge: 400, Quality: 1})
	require.NoError(t, err)
	assert.Less(t, lo.EncodedBytes, hi.EncodedBytes)
}

func TestParseDataURI(t *testing.T) {
	mt, data, err := imaging.ParseDataURI("data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mt)
	assert.Equal(t, "hello", string(data))

	for _, bad := range []string{
		"http://x/y.png",
		"data:text/plain;base64,aGVsbG8=",
		"data:image/png,hello",
		"data:image/png;base64",
		"data:image/png;base64,***",
	} {
		_, _, err := imaging.ParseDataURI(bad)
		assert.Error(t, err, bad)
	}
}
