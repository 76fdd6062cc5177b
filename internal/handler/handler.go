// internal/handler/handler.go
package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/hemaview/screening-service/internal/cache"
	"github.com/hemaview/screening-service/internal/middleware"
	"github.com/hemaview/screening-service/internal/preprocess"
	"github.com/hemaview/screening-service/internal/screening"
)

// formFieldName is the multipart field carrying the uploaded photo.
const formFieldName = "image"

// Handler serves the screening HTTP API.
type Handler struct {
	screener *screening.Screener
	cache    *cache.Cache
	ready    atomic.Bool
}

// New creates a Handler. cacheClient may be nil; screening then always runs.
func New(screener *screening.Screener, cacheClient *cache.Cache) *Handler {
	return &Handler{
		screener: screener,
		cache:    cacheClient,
	}
}

// SetReady flips the readiness state reported by Ready.
func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Health reports process liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready reports readiness to accept screening requests.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Screen handles POST /v1/screen: a multipart upload of one eyelid photo,
// answered with the screening verdict as JSON. Upload validation failures are
// 4xx; inference failures still produce a 200 with the cautious default
// result flagged by usingDefaultPrediction.
func (h *Handler) Screen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start := time.Now()
	requestID := middleware.GetRequestID(r.Context())
	if requestID == "" {
		requestID = "unknown"
	}

	// Leave headroom above the upload limit so an oversized file is read far
	// enough to be rejected with 413 instead of a generic parse error.
	if err := r.ParseMultipartForm(preprocess.MaxFileSize + (1 << 20)); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile(formFieldName)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("no image file provided; use %q as the form field name", formFieldName))
		return
	}
	defer file.Close()

	if header.Size > preprocess.MaxFileSize {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file size %d exceeds the maximum of %d bytes", header.Size, preprocess.MaxFileSize))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	if err := preprocess.Validate(data, header.Filename); err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	key := cache.Key(data)
	if h.cache != nil {
		if cached, err := h.cache.GetResult(r.Context(), key); err != nil {
			log.Printf("[%s] Cache lookup failed: %v", requestID, err)
		} else if cached != "" {
			var result screening.Result
			if err := json.Unmarshal([]byte(cached), &result); err == nil {
				log.Printf("[%s] Screen: cache hit, prediction=%s", requestID, result.Prediction)
				writeJSON(w, http.StatusOK, &result)
				return
			}
		}
	}

	if h.screener == nil {
		writeError(w, http.StatusServiceUnavailable, "screener not initialized")
		return
	}

	result, err := h.screener.Screen(r.Context(), data)
	if err != nil {
		log.Printf("[%s] Screening error: %v", requestID, err)
		writeError(w, statusForError(err), err.Error())
		return
	}

	// Defaults are never cached: once the model recovers, the same photo
	// should get real inference.
	if h.cache != nil && !result.UsingDefaultPrediction {
		if encoded, err := json.Marshal(result); err == nil {
			if err := h.cache.SetResult(r.Context(), key, string(encoded)); err != nil {
				log.Printf("[%s] Cache store failed: %v", requestID, err)
			}
		}
	}

	totalMs := float64(time.Since(start).Microseconds()) / 1000.0
	log.Printf("[%s] Screen: prediction=%s, confidence=%.4f, default=%v, total_ms=%.2f",
		requestID, result.Prediction, result.Confidence, result.UsingDefaultPrediction, totalMs)

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
