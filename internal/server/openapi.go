package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/demovote/internal/booth"
	"github.com/playperu/demovote/internal/scenario"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type sessionPath struct {
	ID string `path:"sessionID"`
}

type cuePath struct {
	Cue string `path:"cue" enum:"success,error"`
}

type boothQuery struct {
	Preview string `query:"preview" enum:"1"`
	T       string `query:"t"`
}

type imageUpload struct {
	File []byte `formData:"file" format:"binary"`
}

type healthResponse map[string]struct {
	Status string `json:"status"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Demo Vote API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Configures and serves the demo voting booth.")

	add := func(method, path, summary, desc string, setup func(oc openapi.OperationContext)) {
		oc, _ := r.NewOperationContext(method, path)
		oc.SetSummary(summary)
		oc.SetDescription(desc)
		setup(oc)
		_ = r.AddOperation(oc)
	}

	add(http.MethodGet, "/healthz", "Health check", "Returns the health status of backend dependencies.", func(oc openapi.OperationContext) {
		oc.AddRespStructure(healthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
		oc.AddRespStructure(healthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	})

	add(http.MethodGet, "/api/scenario", "Get scenario", "Returns the stored scenario, or the built-in default when none is stored or it cannot be parsed.", func(oc openapi.OperationContext) {
		oc.AddRespStructure(ScenarioResponse{}, openapi.WithHTTPStatus(http.StatusOK))
		oc.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNotModified))
	})

	add(http.MethodPut, "/api/scenario", "Save scenario", "Validates the input, derives the display strings and replaces the stored scenario.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(scenario.Input{})
		oc.AddRespStructure(scenario.Record{}, openapi.WithHTTPStatus(http.StatusOK))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	})

	add(http.MethodPost, "/api/scenario/preview", "Save and preview", "Saves like PUT /api/scenario and returns the booth preview URL.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(scenario.Input{})
		oc.AddRespStructure(PreviewResponse{}, openapi.WithHTTPStatus(http.StatusOK))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	})

	add(http.MethodPost, "/api/images", "Normalize image", "Scales an uploaded image to the configured maximum edge and re-encodes it as a JPEG data URI.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(imageUpload{})
		oc.AddRespStructure(ImageResponse{}, openapi.WithHTTPStatus(http.StatusOK))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusRequestEntityTooLarge))
	})

	add(http.MethodGet, "/api/booth", "Booth view", "Returns the candidate table and texts the booth page renders.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(boothQuery{})
		oc.AddRespStructure(BoothViewResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	})

	add(http.MethodPost, "/api/booth/sessions", "Start booth session", "Captures the current table's controls into a new interaction session.", func(oc openapi.OperationContext) {
		oc.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	})

	add(http.MethodGet, "/api/booth/sessions/{sessionID}", "Session state", "Returns the session's current state.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(sessionPath{})
		oc.AddRespStructure(booth.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	})

	add(http.MethodDelete, "/api/booth/sessions/{sessionID}", "End session", "Stops the session and cancels its pending timers.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(sessionPath{})
		oc.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	})

	add(http.MethodPost, "/api/booth/sessions/{sessionID}/press", "Press row", "Presses a row's button. The target row reveals the overlay; any other row pulses.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(struct {
			sessionPath
			PressRequest
		}{})
		oc.AddRespStructure(booth.Outcome{}, openapi.WithHTTPStatus(http.StatusOK))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	})

	add(http.MethodPost, "/api/booth/sessions/{sessionID}/flip", "Flip card", "Toggles the reveal card while the overlay is open.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(sessionPath{})
		oc.AddRespStructure(ChangeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	})

	add(http.MethodPost, "/api/booth/sessions/{sessionID}/close", "Close overlay", "Closes the overlay by button, outside click or escape key.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(struct {
			sessionPath
			CloseRequest
		}{})
		oc.AddRespStructure(ChangeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	})

	add(http.MethodGet, "/api/booth/sessions/{sessionID}/events", "Session event stream", "Server-Sent Events stream of the session's state changes.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(sessionPath{})
		oc.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
			openapi.WithContentType("text/event-stream"))
	})

	add(http.MethodGet, "/ws/booth/{sessionID}", "Booth WebSocket", "Upgrades to a WebSocket that accepts press, flip and close commands and streams session events.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(sessionPath{})
		oc.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
			openapi.WithContentType("text/plain"))
	})

	add(http.MethodGet, "/audio/{cue}.wav", "Audio cue", "Synthesized feedback cue. 204 when audio is unavailable.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(cuePath{})
		oc.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK), openapi.WithContentType("audio/wav"))
		oc.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	})

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
