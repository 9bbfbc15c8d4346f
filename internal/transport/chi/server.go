// Package chi is the HTTP API surface, routed with the go-chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bucketdb/internal/domain"
	"github.com/kailas-cloud/bucketdb/internal/domain/deletereq"
	"github.com/kailas-cloud/bucketdb/internal/domain/predicate"
	collectionuc "github.com/kailas-cloud/bucketdb/internal/usecase/collection"
	deletionuc "github.com/kailas-cloud/bucketdb/internal/usecase/deletion"
	documentuc "github.com/kailas-cloud/bucketdb/internal/usecase/document"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Pinger checks backing-store liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the collection, document and delete services over HTTP.
type Server struct {
	collections   *collectionuc.Service
	documents     *documentuc.Service
	deletes       *deletionuc.Service
	pinger        Pinger
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	collections *collectionuc.Service,
	documents *documentuc.Service,
	deletes *deletionuc.Service,
	pinger Pinger,
	logger *zap.Logger,
) *Server {
	s := &Server{
		collections: collections,
		documents:   documents,
		deletes:     deletes,
		pinger:      pinger,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, codeAlreadyExists),
		sentinelHandler(domain.ErrInvalidOptions, http.StatusBadRequest, codeInvalidOptions),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrInvalidCollation, http.StatusBadRequest, codeInvalidCollation),
	}
	return s
}

// Routes mounts all API routes onto r.
func (s *Server) Routes(r chirouter.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1/collections", func(r chirouter.Router) {
		r.Post("/", s.CreateCollection)
		r.Get("/", s.ListCollections)
		r.Route("/{collection}", func(r chirouter.Router) {
			r.Get("/", s.GetCollection)
			r.Delete("/", s.DeleteCollection)
			r.Post("/documents", s.InsertDocument)
			r.Get("/documents", s.ListDocuments)
			r.Get("/documents/{id}", s.GetDocument)
			r.Post("/deletes", s.DeleteCommand)
		})
	})
}

// CreateCollection handles POST /api/v1/collections.
func (s *Server) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req CreateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, codeInvalidOptions, "Collection name is required")
		return
	}

	col, err := s.collections.Create(r.Context(), req.Name, collationFromDTO(req.Collation),
		timeseriesFromDTO(req.Timeseries))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, collectionToDTO(col))
}

// ListCollections handles GET /api/v1/collections.
func (s *Server) ListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := s.collections.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]CollectionResponse, len(cols))
	for i, c := range cols {
		items[i] = collectionToDTO(c)
	}
	writeJSON(w, http.StatusOK, CollectionListResponse{Items: items, Total: len(items)})
}

// GetCollection handles GET /api/v1/collections/{collection}.
func (s *Server) GetCollection(w http.ResponseWriter, r *http.Request) {
	col, err := s.collections.Get(r.Context(), chirouter.URLParam(r, "collection"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, collectionToDTO(col))
}

// DeleteCollection handles DELETE /api/v1/collections/{collection}.
func (s *Server) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	if err := s.collections.Delete(r.Context(), chirouter.URLParam(r, "collection")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// InsertDocument handles POST /api/v1/collections/{collection}/documents.
func (s *Server) InsertDocument(w http.ResponseWriter, r *http.Request) {
	var doc map[string]any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(doc) == 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Document must not be empty")
		return
	}

	res, err := s.documents.Insert(r.Context(), chirouter.URLParam(r, "collection"), doc)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, InsertDocumentResponse{ID: res.ID, BucketID: res.BucketID, Created: res.Created})
}

// GetDocument handles GET /api/v1/collections/{collection}/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.Get(r.Context(),
		chirouter.URLParam(r, "collection"), chirouter.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// ListDocuments handles GET /api/v1/collections/{collection}/documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.List(r.Context(), chirouter.URLParam(r, "collection"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if docs == nil {
		docs = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Items: docs, Total: len(docs)})
}

// DeleteCommand handles POST /api/v1/collections/{collection}/deletes. The
// body carries the filter and delete options; the response reports how many
// documents were removed.
func (s *Server) DeleteCommand(w http.ResponseWriter, r *http.Request) {
	var req DeleteCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var pred predicate.Node
	if req.Filter != nil {
		var err error
		pred, err = predicate.Parse(req.Filter)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidQuery, "Invalid filter: "+err.Error())
			return
		}
	}

	dreq, err := deletereq.New(deletereq.Params{
		Namespace:     chirouter.URLParam(r, "collection"),
		Predicate:     pred,
		Collation:     collationFromDTO(req.Collation),
		Sort:          req.Sort,
		Hint:          req.Hint,
		Multi:         req.Multi,
		ReturnDeleted: req.ReturnDeleted,
		Projection:    req.Projection,
		Let:           req.Let,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	res, err := s.deletes.Execute(r.Context(), dreq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteCommandResponse{DeletedCount: res.DeletedCount, Deleted: res.Deleted})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"database": "ok"}
	status, httpStatus := "ok", http.StatusOK
	if err := s.pinger.Ping(r.Context()); err != nil {
		checks["database"] = "unavailable"
		status, httpStatus = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: status, Checks: checks})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrInvalidOptions,
		domain.ErrInvalidQuery,
		domain.ErrInvalidCollation,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
