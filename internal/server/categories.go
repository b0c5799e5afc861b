package server

import (
	"net/http"

	"github.com/sirsalvo/easyreceipts/internal/common"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	names, err := s.categories.List(r.Context(), common.OwnerIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": names})
}

func (s *Server) handleReplaceCategories(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rawList, _ := common.FirstRaw(body, "categories", "items")
	raw, ok := rawList.([]any)
	if !ok {
		writeError(w, common.NewValidation("categories must be an array of strings", "categories"))
		return
	}
	names := make([]string, 0, len(raw))
	for _, item := range raw {
		name, ok := item.(string)
		if !ok {
			writeError(w, common.NewValidation("categories must be an array of strings", "categories"))
			return
		}
		names = append(names, name)
	}

	stored, err := s.categories.Replace(r.Context(), common.OwnerIDFromContext(r.Context()), names)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": stored})
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	name, _ := common.FirstString(body, "name", "category", "value")

	stored, err := s.categories.Add(r.Context(), common.OwnerIDFromContext(r.Context()), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": stored})
}
