// internal/adapters/in/http/handlers/media_handler.go
package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"messenger/internal/adapters/in/http/middleware"
	usecase "messenger/internal/application/usecase"
)

// MediaHandler exposes avatar/attachment uploads and URL resolution.
//
//	POST /media/profile-picture   (raw image bytes)
//	POST /media/message-photo     (raw image bytes, ?ext=)
//	GET  /media/url?path=<objectPath>
type MediaHandler struct {
	uc *usecase.MediaUsecase
}

func NewMediaHandler(uc *usecase.MediaUsecase) http.Handler {
	return &MediaHandler{uc: uc}
}

// uploads are capped; the client resizes before upload anyway
const maxUploadBytes = 25 << 20

func (h *MediaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/media/profile-picture":
		h.uploadProfilePicture(w, r, sess)
	case r.Method == http.MethodPost && r.URL.Path == "/media/message-photo":
		h.uploadMessagePhoto(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/media/url":
		h.resolveURL(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not_found"})
	}
}

func (h *MediaHandler) uploadProfilePicture(w http.ResponseWriter, r *http.Request, sess usecase.Session) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil || len(data) == 0 {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "empty body"})
		return
	}

	url, err := h.uc.UploadProfilePicture(r.Context(), sess, data)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"url": url})
}

func (h *MediaHandler) uploadMessagePhoto(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil || len(data) == 0 {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "empty body"})
		return
	}

	url, err := h.uc.UploadMessagePhoto(r.Context(), data, r.URL.Query().Get("ext"))
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"url": url})
}

func (h *MediaHandler) resolveURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.uc.ResolveURL(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"url": url})
}
