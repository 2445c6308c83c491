package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NachoEstevo/co-canvas-google-hackathon/pkg/storage"
)

// handleAssetUpload stores an uploaded image (or any binary asset) in the
// blob store and returns the URL the client embeds in the document.
func (s *Server) handleAssetUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.Storage.MaxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeFormError(w, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	ext := strings.TrimPrefix(path.Ext(header.Filename), ".")
	if ext == "" {
		ext = "bin"
	}
	key := fmt.Sprintf("assets/%s.%s", uuid.NewString(), ext)

	url, err := s.blobs.Put(r.Context(), key, contentTypeOf(header.Header.Get("Content-Type")), header.Size, file)
	if err != nil {
		s.logger.Error("asset upload failed", "key", key, "error", err)
		writeUploadError(w, err)
		return
	}

	s.logger.Info("asset uploaded", "key", key, "size", header.Size)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"src":     url,
		"key":     key,
		"size":    header.Size,
	})
}

// handleAudioUpload stores a voice annotation recording under the room's
// prefix and returns its URL.
func (s *Server) handleAudioUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.Storage.MaxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeFormError(w, err)
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing audio file or room ID")
		return
	}
	defer file.Close()

	roomID := r.FormValue("roomId")
	if roomID == "" {
		writeError(w, http.StatusBadRequest, "Missing audio file or room ID")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/webm"
	}
	key := fmt.Sprintf("voice-annotations/%s/%d_%s",
		roomID, time.Now().UnixMilli(), path.Base(header.Filename))

	url, err := s.blobs.Put(r.Context(), key, contentType, header.Size, file)
	if err != nil {
		s.logger.Error("audio upload failed", "room_id", roomID, "error", err)
		writeUploadError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"url":     url,
	})
}

// canvasSaveRequest is the explicit save triggered from the export overlay.
type canvasSaveRequest struct {
	RoomID    string          `json:"roomId"`
	Snapshot  json.RawMessage `json:"snapshot"`
	Timestamp int64           `json:"timestamp"`
}

// handleCanvasSave archives a full canvas snapshot as a JSON object in the
// blob store, independent of the live room document.
func (s *Server) handleCanvasSave(w http.ResponseWriter, r *http.Request) {
	var req canvasSaveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.config.Storage.MaxUploadSize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid save request")
		return
	}
	if req.RoomID == "" || len(req.Snapshot) == 0 {
		writeError(w, http.StatusBadRequest, "Missing roomId or snapshot data")
		return
	}

	timestamp := req.Timestamp
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}

	saveID := uuid.NewString()
	key := fmt.Sprintf("canvas-saves/%s/%s.json", req.RoomID, saveID)

	payload, err := json.Marshal(map[string]any{
		"id":        saveID,
		"roomId":    req.RoomID,
		"snapshot":  req.Snapshot,
		"timestamp": timestamp,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save canvas data")
		return
	}

	if _, err := s.blobs.Put(r.Context(), key, "application/json",
		int64(len(payload)), strings.NewReader(string(payload))); err != nil {
		s.logger.Error("canvas save failed", "room_id", req.RoomID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save canvas data")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"id":        saveID,
		"filename":  key,
		"timestamp": timestamp,
		"message":   "Canvas saved successfully",
	})
}

func contentTypeOf(declared string) string {
	if declared == "" {
		return "application/octet-stream"
	}
	return declared
}

// writeFormError maps multipart parse failures: body-size overruns get 413,
// everything else is the client's malformed form.
func writeFormError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}
	writeError(w, http.StatusBadRequest, "Failed to parse form")
}

func writeUploadError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}
	writeError(w, http.StatusInternalServerError, "Upload failed")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
