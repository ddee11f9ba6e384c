package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/playperu/demovote/internal/audio"
	"github.com/playperu/demovote/internal/booth"
	"github.com/playperu/demovote/internal/database"
	"github.com/playperu/demovote/internal/imaging"
	"github.com/playperu/demovote/internal/migrations"
	"github.com/playperu/demovote/internal/scenario"
)

var testNow = time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *SlotStore {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSlotStore(db, scenario.SlotKey)
}

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	broker := NewBroker()
	booths := booth.NewManager(booth.Options{}, 0, broker.Publish)
	t.Cleanup(booths.Close)
	return Deps{
		Store:  newTestStore(t),
		Booths: booths,
		Broker: broker,
		Cues:   audio.NewEngine(8000),
		Images: imaging.Options{MaxEdge: 400, Quality: 0.7},
		Now:    func() time.Time { return testNow },
	}
}

func newTestHandler(t *testing.T, d Deps) http.Handler {
	t.Helper()
	return New(":0", slog.New(slog.DiscardHandler), d).Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func dataURI(t *testing.T, w, h int) string {
	t.Helper()
	img, err := imaging.Normalize(bytes.NewReader(pngBytes(t, w, h)), imaging.Options{MaxEdge: 400, Quality: 0.7})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return img.DataURI
}

// pngDataURI embeds a raw PNG, as a client that skipped /api/images would.
func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, w, h))
}

// imageSize reads the dimensions of a stored data URI.
func imageSize(t *testing.T, uri string) (int, int) {
	t.Helper()
	cfg, err := imaging.DecodeConfig(uri)
	if err != nil {
		t.Fatalf("decode stored image: %v", err)
	}
	return cfg.Width, cfg.Height
}

func validInput(t *testing.T) scenario.Input {
	t.Helper()
	return scenario.Input{
		ConstituencyName:  "पुणे महानगरपालिका प्रभाग १२",
		VotingDate:        "2026-02-05",
		StartTime:         "07:30",
		EndTime:           "17:30",
		CandidateName:     "सुनील पाटील",
		TotalCandidates:   19,
		CandidatePosition: 6,
		SymbolName:        "कपबशी",
		CandidatePhoto:    dataURI(t, 60, 80),
		CandidateSymbol:   dataURI(t, 50, 50),
		ContactNumber:     "+919000000000",
	}
}

type formFileSpec struct {
	field, name string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFileSpec) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write(f.data)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}
