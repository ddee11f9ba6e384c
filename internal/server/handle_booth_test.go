package server

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/playperu/demovote/internal/audio"
	"github.com/playperu/demovote/internal/booth"
	"github.com/playperu/demovote/internal/scenario"
)

func TestBoothViewMalformedStoreFallsBack(t *testing.T) {
	d := newTestDeps(t)
	if err := d.Store.Save(context.Background(), []byte("{not json")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h := newTestHandler(t, d)

	rec := do(t, h, http.MethodGet, "/api/booth", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[BoothViewResponse](t, rec)
	want := scenario.Project(scenario.Default(), "http://example.com/booth")
	if diff := cmp.Diff(want, resp.View); diff != "" {
		t.Errorf("view (-want +got):\n%s", diff)
	}
	if resp.Preview {
		t.Error("plain load reported as preview")
	}
	if len(resp.View.Rows) != 19 || !resp.View.Rows[5].Target {
		t.Errorf("rows = %d, target row 6 = %v", len(resp.View.Rows), resp.View.Rows[5].Target)
	}

	page := do(t, h, http.MethodGet, "/booth", nil)
	if page.Code != http.StatusOK {
		t.Fatalf("page status = %d", page.Code)
	}
	if strings.Count(page.Body.String(), "<tr data-row=") != 19 {
		t.Error("booth page should render 19 rows")
	}
	if d.Booths.Len() != 1 {
		t.Errorf("page render should start one session, have %d", d.Booths.Len())
	}
}

func TestBoothViewUsesPublicURL(t *testing.T) {
	d := newTestDeps(t)
	d.PublicURL = "https://demo.example.org/"
	h := newTestHandler(t, d)

	resp := decode[BoothViewResponse](t, do(t, h, http.MethodGet, "/api/booth", nil))
	if !strings.Contains(resp.View.Share.Message, "https://demo.example.org/booth") {
		t.Errorf("share message = %q", resp.View.Share.Message)
	}
	if !strings.HasPrefix(resp.View.Share.URL, scenario.ShareBaseURL) {
		t.Errorf("share url = %q", resp.View.Share.URL)
	}
}

func TestBoothSessionFlow(t *testing.T) {
	d := newTestDeps(t)
	h := newTestHandler(t, d)

	rec := do(t, h, http.MethodPost, "/api/booth/sessions", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d", rec.Code)
	}
	sess := decode[SessionResponse](t, rec)
	if sess.Rows != 19 || sess.ID == "" {
		t.Fatalf("session = %+v", sess)
	}
	base := "/api/booth/sessions/" + sess.ID

	rec = do(t, h, http.MethodPost, base+"/press", PressRequest{Row: 3})
	miss := decode[booth.Outcome](t, rec)
	if miss.Target || miss.Cue != audio.CueError {
		t.Errorf("row 3 outcome = %+v", miss)
	}
	if diff := cmp.Diff([]int{3}, miss.Snapshot.Pulsing); diff != "" {
		t.Errorf("pulsing (-want +got):\n%s", diff)
	}

	rec = do(t, h, http.MethodPost, base+"/press", PressRequest{Row: 6})
	hit := decode[booth.Outcome](t, rec)
	if !hit.Target || hit.Cue != audio.CueSuccess || hit.Snapshot.State != booth.Revealed || !hit.Snapshot.Overlay.Open {
		t.Errorf("row 6 outcome = %+v", hit)
	}

	flip := decode[ChangeResponse](t, do(t, h, http.MethodPost, base+"/flip", nil))
	if !flip.Changed || !flip.Snapshot.Overlay.Flipped {
		t.Errorf("flip = %+v", flip)
	}

	rec = do(t, h, http.MethodPost, base+"/close", CloseRequest{Reason: "swipe"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown reason status = %d", rec.Code)
	}
	closed := decode[ChangeResponse](t, do(t, h, http.MethodPost, base+"/close", CloseRequest{Reason: "escape"}))
	if !closed.Changed || closed.Snapshot.Overlay.Open || closed.Snapshot.Overlay.Flipped || closed.Snapshot.State != booth.Idle {
		t.Errorf("close = %+v", closed)
	}
	again := decode[ChangeResponse](t, do(t, h, http.MethodPost, base+"/close", nil))
	if again.Changed {
		t.Error("closing a closed overlay reported a change")
	}

	if rec := do(t, h, http.MethodPost, base+"/press", PressRequest{Row: 20}); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown row status = %d", rec.Code)
	}

	state := decode[booth.Snapshot](t, do(t, h, http.MethodGet, base, nil))
	if state.State != booth.Idle {
		t.Errorf("state = %v", state.State)
	}

	if rec := do(t, h, http.MethodDelete, base, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, base+"/press", PressRequest{Row: 6}); rec.Code != http.StatusNotFound {
		t.Errorf("press after delete = %d", rec.Code)
	}
}

func TestBoothSessionCapturesTargetAtCreation(t *testing.T) {
	d := newTestDeps(t)
	h := newTestHandler(t, d)
	sess := decode[SessionResponse](t, do(t, h, http.MethodPost, "/api/booth/sessions", nil))

	in := validInput(t)
	in.CandidatePosition = 2
	if _, err := SaveInput(context.Background(), d.Store, in, testNow); err != nil {
		t.Fatalf("save: %v", err)
	}

	out := decode[booth.Outcome](t, do(t, h, http.MethodPost, "/api/booth/sessions/"+sess.ID+"/press", PressRequest{Row: 6}))
	if !out.Target {
		t.Error("an existing session must keep the target it was created with")
	}
}

func TestBoothPageLoadsStayWithinSessionLimit(t *testing.T) {
	d := newTestDeps(t)
	d.Booths = booth.NewManager(booth.Options{}, 3, d.Broker.Publish)
	t.Cleanup(d.Booths.Close)
	h := newTestHandler(t, d)

	for range 10 {
		if rec := do(t, h, http.MethodGet, "/booth", nil); rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	}
	if n := d.Booths.Len(); n != 3 {
		t.Errorf("live sessions = %d, want 3", n)
	}
}
