// Package server exposes the HTTP surface: receipt CRUD, category
// lists, XLSX export and the signed-URL artifact endpoints.
package server

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/sirsalvo/easyreceipts/internal/artifacts"
	"github.com/sirsalvo/easyreceipts/internal/categories"
	"github.com/sirsalvo/easyreceipts/internal/common"
	"github.com/sirsalvo/easyreceipts/internal/export"
	"github.com/sirsalvo/easyreceipts/internal/receipts"
	"github.com/sirsalvo/easyreceipts/internal/repository"
)

// Server holds the handler dependencies.
type Server struct {
	receipts   *receipts.Service
	categories *categories.Service
	export     *export.Service
	store      artifacts.Store
	signer     *artifacts.Signer
	db         *repository.DB
	jwtSecret  string
	logger     *slog.Logger
}

// New creates the HTTP server facade.
func New(
	receiptSvc *receipts.Service,
	categorySvc *categories.Service,
	exportSvc *export.Service,
	store artifacts.Store,
	signer *artifacts.Signer,
	db *repository.DB,
	jwtSecret string,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		receipts:   receiptSvc,
		categories: categorySvc,
		export:     exportSvc,
		store:      store,
		signer:     signer,
		db:         db,
		jwtSecret:  jwtSecret,
		logger:     logger,
	}
}

// Handler builds the routing table. The export route is registered
// before the receipt-by-id pattern so "export" is never taken for an id.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.Handle("POST /receipts", s.requireAuth(http.HandlerFunc(s.handleCreateReceipt)))
	mux.Handle("GET /receipts", s.requireAuth(http.HandlerFunc(s.handleListReceipts)))
	mux.Handle("GET /receipts/export", s.requireAuth(http.HandlerFunc(s.handleExport)))
	mux.Handle("GET /receipts/{id}", s.requireAuth(http.HandlerFunc(s.handleGetReceipt)))
	mux.Handle("PUT /receipts/{id}", s.requireAuth(http.HandlerFunc(s.handleUpdateReceipt)))
	mux.Handle("DELETE /receipts/{id}", s.requireAuth(http.HandlerFunc(s.handleDeleteReceipt)))

	mux.Handle("GET /categories", s.requireAuth(http.HandlerFunc(s.handleListCategories)))
	mux.Handle("PUT /categories", s.requireAuth(http.HandlerFunc(s.handleReplaceCategories)))
	mux.Handle("POST /categories", s.requireAuth(http.HandlerFunc(s.handleAddCategory)))

	// Artifact access is authorized by URL signature, not by JWT.
	mux.HandleFunc("GET /artifacts/{key...}", s.handleGetArtifact)
	mux.HandleFunc("PUT /artifacts/{key...}", s.handlePutArtifact)

	return s.withRequestID(s.recoverPanics(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(common.WithRequestID(r.Context(), requestID)))
	})
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered",
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", common.RequestIDFromContext(r.Context()),
					"panic", rec,
				)
				writeJSON(w, http.StatusInternalServerError, errorResponse{
					Error:   string(common.KindInternal),
					Message: "internal error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
