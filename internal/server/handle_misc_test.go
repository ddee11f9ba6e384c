package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/playperu/demovote/internal/audio"
	"github.com/playperu/demovote/internal/handler/health"
)

func TestAudioCue(t *testing.T) {
	h := newTestHandler(t, newTestDeps(t))

	rec := do(t, h, http.MethodGet, "/audio/success.wav", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "audio/wav" {
		t.Errorf("content-type = %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "RIFF") {
		t.Error("body is not a RIFF file")
	}

	req := httptest.NewRequest(http.MethodGet, "/audio/success.wav", nil)
	req.Header.Set("If-None-Match", rec.Header().Get("ETag"))
	cached := httptest.NewRecorder()
	h.ServeHTTP(cached, req)
	if cached.Code != http.StatusNotModified {
		t.Errorf("conditional get = %d", cached.Code)
	}

	if rec := do(t, h, http.MethodGet, "/audio/fanfare.wav", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown cue = %d", rec.Code)
	}
}

func TestAudioCueUnavailableIsSilent(t *testing.T) {
	d := newTestDeps(t)
	d.Cues = audio.NewEngine(10)
	h := newTestHandler(t, d)

	rec := do(t, h, http.MethodGet, "/audio/error.wav", nil)
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Errorf("status = %d, %d bytes; want an empty 204", rec.Code, rec.Body.Len())
	}
}

type failingCheck struct{}

func (failingCheck) Check(context.Context) error { return errors.New("down") }

func TestHealthz(t *testing.T) {
	d := newTestDeps(t)
	h := newTestHandler(t, d)

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"sqlite":{"status":"ok"`) {
		t.Errorf("body = %s", rec.Body)
	}

	d.Checks = map[string]health.Checker{"sqlite": failingCheck{}}
	h = newTestHandler(t, d)
	if rec := do(t, h, http.MethodGet, "/healthz", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("failing check status = %d", rec.Code)
	}
}

func TestHandleOpenAPI(t *testing.T) {
	h := handleOpenAPI()
	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	rec := httptest.NewRecorder()

	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "application/json") {
		t.Fatalf("content-type = %q, want application/json", got)
	}

	body := rec.Body.String()
	for _, path := range []string{
		`"/healthz"`,
		`"/api/scenario"`,
		`"/api/images"`,
		`"/api/booth/sessions/{sessionID}/press"`,
		`"/ws/booth/{sessionID}"`,
	} {
		if !strings.Contains(body, path) {
			t.Errorf("body missing %s path", path)
		}
	}
}

func TestDocsToggle(t *testing.T) {
	d := newTestDeps(t)
	d.DocsEnabled = true
	if rec := do(t, newTestHandler(t, d), http.MethodGet, "/docs/", nil); rec.Code != http.StatusOK {
		t.Errorf("docs enabled: status = %d", rec.Code)
	}

	d.DocsEnabled = false
	if rec := do(t, newTestHandler(t, d), http.MethodGet, "/docs/", nil); rec.Code != http.StatusNotFound {
		t.Errorf("docs disabled: status = %d", rec.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	h := newTestHandler(t, newTestDeps(t))
	for _, name := range []string{"booth.js", "editor.js", "style.css"} {
		if rec := do(t, h, http.MethodGet, "/static/"+name, nil); rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", name, rec.Code)
		}
	}
	if rec := do(t, h, http.MethodGet, "/static/missing.js", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing asset status = %d", rec.Code)
	}
}
