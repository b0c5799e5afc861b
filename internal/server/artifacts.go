package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/sirsalvo/easyreceipts/internal/common"
)

// maxUploadBytes caps artifact uploads; receipt photos stay well under this.
const maxUploadBytes = 20 << 20

// handleGetArtifact serves an artifact to a holder of a signed GET URL.
func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := s.signer.Verify(http.MethodGet, key, r.URL.Query()); err != nil {
		writeError(w, err)
		return
	}

	data, err := s.store.Get(r.Context(), key)
	if err != nil {
		writeError(w, common.NewStorage("failed to read artifact", err))
		return
	}
	if data == nil {
		writeError(w, common.NewNotFound("artifact not found"))
		return
	}

	w.Header().Set("Content-Type", contentTypeForKey(key))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		_ = err
	}
}

// handlePutArtifact accepts an upload against a signed PUT URL. The
// signature binds the grant to one key and one content type.
func (s *Server) handlePutArtifact(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := s.signer.Verify(http.MethodPut, key, r.URL.Query()); err != nil {
		writeError(w, err)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, common.NewValidation("upload body too large or unreadable", "body"))
		return
	}
	defer r.Body.Close()

	if err := s.store.Put(r.Context(), key, data, r.URL.Query().Get("ct")); err != nil {
		writeError(w, common.NewStorage("failed to store artifact", err))
		return
	}
	w.WriteHeader(http.StatusOK)
}

func contentTypeForKey(key string) string {
	switch {
	case strings.HasSuffix(key, ".json"):
		return "application/json"
	case strings.HasSuffix(key, ".jpg"), strings.HasSuffix(key, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(key, ".png"):
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
