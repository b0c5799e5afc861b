package server

import (
	"encoding/json"
	"net/http"

	"github.com/sirsalvo/easyreceipts/internal/common"
)

type errorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// best-effort error response; avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		_ = err
	}
}

// writeError maps domain errors onto the wire taxonomy. Unknown errors
// are masked as internal_error so storage details never leak.
func writeError(w http.ResponseWriter, err error) {
	appErr, ok := common.AsAppError(err)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   string(common.KindInternal),
			Message: "internal error",
		})
		return
	}
	writeJSON(w, common.HTTPStatus(appErr.Kind), errorResponse{
		Error:   string(appErr.Kind),
		Message: appErr.Message,
		Missing: appErr.Fields,
	})
}
