// Package server exposes the cover pipeline and public objects over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/models"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/pipeline"
)

const maxRequestBody = 64 << 10

// Pipeline handles one cover request.
type Pipeline interface {
	Handle(ctx context.Context, req models.GenerationRequest) (models.Response, error)
}

// Options configures a Server. Objects and Metrics are optional.
type Options struct {
	Listen string
	Logger *zap.Logger
	// Objects serves public artifacts below ObjectsPath, e.g. "/objects".
	Objects     http.Handler
	ObjectsPath string
	Metrics     http.Handler
}

// Server is the mealcover HTTP front end.
type Server struct {
	listen   string
	pipeline Pipeline
	logger   *zap.Logger
	mux      *http.ServeMux
}

// New creates a Server wired to p.
func New(opts Options, p Pipeline) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		listen:   opts.Listen,
		pipeline: p,
		logger:   logger.With(zap.String("component", "server")),
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("/v1/cover-images", s.handleCoverImage)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	if opts.Metrics != nil {
		s.mux.Handle("/metrics", opts.Metrics)
	}
	if opts.Objects != nil {
		prefix := "/" + strings.Trim(opts.ObjectsPath, "/")
		if prefix == "/" {
			s.mux.Handle("/", opts.Objects)
		} else {
			s.mux.Handle(prefix+"/", http.StripPrefix(prefix, opts.Objects))
		}
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server and shuts it down gracefully when ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mealcover listening", zap.String("addr", s.listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleCoverImage(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", requestID)

	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	r.Body.Close()

	var req models.GenerationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := pipeline.WithRequestID(r.Context(), requestID)
	resp, err := s.pipeline.Handle(ctx, req)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			s.logger.Error("pipeline failed", zap.String("request_id", requestID), zap.Error(err))
		}
		writeJSONError(w, code, err.Error())
		return
	}

	if resp.Cached {
		w.Header().Set("X-Mealcover-Cache", "hit")
	} else {
		w.Header().Set("X-Mealcover-Cache", "miss")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, pipeline.ErrMisconfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"message":%q,"type":"mealcover_error","code":%d}}`, message, code)
}
