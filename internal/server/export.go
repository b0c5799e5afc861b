package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sirsalvo/easyreceipts/internal/common"
	"github.com/sirsalvo/easyreceipts/internal/export"
)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	opts := export.Options{
		ConfirmedOnly: r.URL.Query().Get("confirmed") == "true",
	}

	data, err := s.export.ReceiptsXLSX(r.Context(), common.OwnerIDFromContext(r.Context()), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("receipts-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		_ = err
	}
}
