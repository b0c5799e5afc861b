package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/sirsalvo/easyreceipts/constants"
	"github.com/sirsalvo/easyreceipts/internal/common"
	"github.com/sirsalvo/easyreceipts/internal/entity"
	"github.com/sirsalvo/easyreceipts/internal/receipts"
)

// decodeBody decodes a JSON object body. Clients send a few historical
// field spellings, so handlers read the decoded map through alias
// resolution instead of a fixed struct.
func decodeBody(r *http.Request) (map[string]any, error) {
	if r.Body == nil {
		return map[string]any{}, nil
	}
	defer r.Body.Close()

	var body map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, common.NewValidation("request body must be a JSON object", "body")
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, nil
}

func (s *Server) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	contentType, _ := common.FirstString(body, "contentType", "content_type")

	result, err := s.receipts.CreateReceipt(r.Context(), common.OwnerIDFromContext(r.Context()), contentType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	views, err := s.receipts.ListReceipts(r.Context(), common.OwnerIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": views, "count": len(views)})
}

func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	view, err := s.receipts.GetReceipt(r.Context(), common.OwnerIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleUpdateReceipt(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		writeError(w, err)
		return
	}

	req := receipts.UpdateRequest{}
	if v, ok := common.FirstString(body, "payee", "merchant", "vendor"); ok {
		req.Payee = v
	}
	if v, ok := common.FirstString(body, "date", "txDate", "transaction_date"); ok {
		req.Date = v
	}
	if v, ok := common.FirstString(body, "total", "amount"); ok {
		req.Total = v
	}
	if v, ok := common.FirstString(body, "vat", "tax"); ok {
		req.VAT = v
	}
	if v, ok := common.FirstString(body, "vatRate", "vat_rate", "taxRate"); ok {
		req.VATRate = v
	}
	if v, ok := common.FirstString(body, "note", "notes"); ok {
		req.Note = v
	}
	if v, ok := common.FirstString(body, "category", "categoryId", "category_id"); ok {
		req.Category = v
	}
	if v, ok := common.FirstString(body, "status"); ok {
		req.Status = constants.ReceiptStatus(strings.ToUpper(strings.TrimSpace(v)))
	}

	// The export marker is three-state: absent leaves it alone, an
	// explicit null or empty string clears it, a string sets it.
	if raw, present := common.FirstRaw(body, "ynabExportedAt", "ynab_exported_at"); present {
		if raw == nil {
			req.YNABExportedAt = entity.Clear[string]()
		} else if v, ok := raw.(string); ok {
			if v == "" {
				req.YNABExportedAt = entity.Clear[string]()
			} else {
				req.YNABExportedAt = entity.Set(v)
			}
		} else {
			writeError(w, common.NewValidation("ynabExportedAt must be a string or null", "ynabExportedAt"))
			return
		}
	}

	rec, err := s.receipts.UpdateReceipt(r.Context(), common.OwnerIDFromContext(r.Context()), r.PathValue("id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec.View())
}

func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	if err := s.receipts.DeleteReceipt(r.Context(), common.OwnerIDFromContext(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
