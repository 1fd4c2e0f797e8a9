package main

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

// healthHandler serves /health. It reports draining once shutdown begins so
// load balancers stop routing invocations here.
type healthHandler struct {
	ready atomic.Bool
}

func newHealthHandler() *healthHandler {
	h := &healthHandler{}
	h.ready.Store(true)
	return h
}

func (h *healthHandler) setDraining() {
	h.ready.Store(false)
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	status, code := "healthy", http.StatusOK
	if !h.ready.Load() {
		status, code = "draining", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": status})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
