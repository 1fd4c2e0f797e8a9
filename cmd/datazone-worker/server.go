package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/AltairaLabs/datazone-handlers/internal/engine"
	"github.com/AltairaLabs/datazone-handlers/internal/host"
)

const maxRequestBytes = 1 << 20

// errorBody is the response for requests that never reached a handler, or
// whose handler reported a fatal error.
type errorBody struct {
	Error string `json:"error"`
}

// invokeHandler serves POST /v1/invoke: one invocation per request. The
// caller owns the callback delay and sends the returned paused state back.
type invokeHandler struct {
	inv host.Invoker
	log *slog.Logger
}

func (h *invokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req engine.RawRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("decode request: %v", err)})
		return
	}
	if req.PausedState != nil {
		if err := req.PausedState.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
	}

	res, err := h.inv.Invoke(r.Context(), req)
	switch {
	case errors.Is(err, engine.ErrUnknownType):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	case err != nil:
		h.log.Error("invocation failed",
			"type", req.TypeName, "operation", req.Operation, "fatal", engine.IsFatal(err), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}

	h.log.Info("invocation",
		"type", req.TypeName, "operation", req.Operation,
		"status", res.Status, "error_code", res.ErrorKind)
	writeJSON(w, http.StatusOK, res)
}

// buildMux routes the invoke, health and metrics endpoints. Invocations are
// traced; inbound trace context is honored.
func buildMux(invokeH, healthH http.Handler, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("POST /v1/invoke", otelhttp.NewHandler(invokeH, "datazone.invoke"))
	mux.Handle("GET /health", healthH)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}
