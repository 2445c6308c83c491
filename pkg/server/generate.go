package server

import (
	"context"
	"io"
	"net/http"
)

// handleGenerate proxies image generation requests to the configured
// backend. The sync core never sits in this path: a dead backend surfaces
// as a request failure to the caller and nothing else.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	backend := s.config.Generate.BackendURL
	if backend == "" {
		writeError(w, http.StatusNotImplemented, "Image generation backend not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.Generate.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, backend, r.Body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build generation request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		s.logger.Error("generation backend unreachable", "error", err)
		writeError(w, http.StatusBadGateway, "Generation backend unreachable: "+err.Error())
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", resp.Header.Get("Content-Type"))
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}
