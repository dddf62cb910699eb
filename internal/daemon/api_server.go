package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"reelsmith/internal/api"
	"reelsmith/internal/config"
	"reelsmith/internal/history"
	"reelsmith/internal/logging"
	"reelsmith/internal/services/genai"
	"reelsmith/internal/studio"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}

	token := strings.TrimSpace(cfg.Paths.APIToken)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/requests", authMiddleware(token, srv.handleRequests))
	mux.HandleFunc("/api/requests/", authMiddleware(token, srv.handleRequestItem))
	mux.HandleFunc("/api/ideas", authMiddleware(token, srv.handleIdeas))
	mux.HandleFunc("/api/scripts", authMiddleware(token, srv.handleScripts))
	mux.HandleFunc("/api/images", authMiddleware(token, srv.handleImages))
	mux.HandleFunc("/api/assessments", authMiddleware(token, srv.handleAssessments))
	mux.HandleFunc("/api/plans", authMiddleware(token, srv.handlePlans))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Generation responses block behind the serializer cooldown, so
		// the write timeout must cover several queue slots.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:         status.Running,
		PID:             status.PID,
		QueueDepth:      status.QueueDepth,
		Busy:            status.Busy,
		CooldownSeconds: status.Cooldown,
		HistoryDBPath:   status.HistoryDBPath,
		LockFilePath:    status.LockFilePath,
		Pending:         status.Summary.Pending,
		Active:          status.Summary.Running,
		Completed:       status.Summary.Completed,
		Failed:          status.Summary.Failed,
	})
}

func (s *apiServer) handleRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	records, err := s.daemon.ListHistory(r.Context(), query.Get("status"), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]api.RequestRecord{"requests": api.FromRecords(records)})
}

func (s *apiServer) handleRequestItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/requests/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "request not found")
		return
	}
	record, err := s.daemon.GetRecord(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "request not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromRecord(record))
}

func (s *apiServer) handleIdeas(w http.ResponseWriter, r *http.Request) {
	var req studio.IdeaRequest
	if !s.decodeGenerationRequest(w, r, &req) {
		return
	}
	result, err := s.daemon.Studio().BrainstormIdeas(r.Context(), req)
	if err != nil {
		s.writeGenerationError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleScripts(w http.ResponseWriter, r *http.Request) {
	var req studio.ScriptRequest
	if !s.decodeGenerationRequest(w, r, &req) {
		return
	}
	result, err := s.daemon.Studio().DraftScript(r.Context(), req)
	if err != nil {
		s.writeGenerationError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleImages(w http.ResponseWriter, r *http.Request) {
	var req studio.ImageRequest
	if !s.decodeGenerationRequest(w, r, &req) {
		return
	}
	result, err := s.daemon.Studio().GenerateImage(r.Context(), req)
	if err != nil {
		s.writeGenerationError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleAssessments(w http.ResponseWriter, r *http.Request) {
	var req studio.AssessmentRequest
	if !s.decodeGenerationRequest(w, r, &req) {
		return
	}
	result, err := s.daemon.Studio().AssessMedia(r.Context(), req)
	if err != nil {
		s.writeGenerationError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handlePlans(w http.ResponseWriter, r *http.Request) {
	var req studio.EditPlanRequest
	if !s.decodeGenerationRequest(w, r, &req) {
		return
	}
	result, err := s.daemon.Studio().PlanEdit(r.Context(), req)
	if err != nil {
		s.writeGenerationError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) decodeGenerationRequest(w http.ResponseWriter, r *http.Request, out any) bool {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeGenerationError maps studio failures onto HTTP statuses. The
// category and request id travel in the body so the front end can show
// the right message and link the history record.
func (s *apiServer) writeGenerationError(w http.ResponseWriter, err error) {
	if errors.Is(err, studio.ErrInvalidInput) {
		s.writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	var opErr *studio.OperationError
	if !errors.As(err, &opErr) {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	payload := api.ErrorResponse{
		Error:     opErr.Category.UserMessage(),
		Category:  string(opErr.Category),
		RequestID: opErr.RequestID,
	}
	status := http.StatusBadGateway
	switch opErr.Category {
	case genai.CategoryQuota:
		status = http.StatusTooManyRequests
		if wait := genai.RetryAfter(opErr.Err); wait > 0 {
			payload.RetryAfter = int(wait.Seconds())
			w.Header().Set("Retry-After", strconv.Itoa(payload.RetryAfter))
		}
	case genai.CategoryBlocked, genai.CategoryInvalid:
		status = http.StatusUnprocessableEntity
	case genai.CategoryNetwork:
		status = http.StatusGatewayTimeout
	}
	s.writeJSON(w, status, payload)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return logging.WithComponent(s.logger, "api-server")
	}
	return logging.NewNop()
}
