package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"

	"reelsmith/internal/api"
	"reelsmith/internal/daemon"
	"reelsmith/internal/history"
	"reelsmith/internal/logging"
	"reelsmith/internal/studio"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Reelsmith", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return logging.WithComponent(s.logger, "ipc")
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Status.Running = status.Running
	resp.Status.PID = status.PID
	resp.Status.QueueDepth = status.QueueDepth
	resp.Status.Busy = status.Busy
	resp.Status.CooldownSeconds = status.Cooldown
	resp.Status.HistoryDBPath = status.HistoryDBPath
	resp.Status.LockFilePath = status.LockFilePath
	resp.Status.Pending = status.Summary.Pending
	resp.Status.Active = status.Summary.Running
	resp.Status.Completed = status.Summary.Completed
	resp.Status.Failed = status.Summary.Failed
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) HistoryList(req HistoryListRequest, resp *HistoryListResponse) error {
	records, err := s.daemon.ListHistory(s.ctx, req.Status, req.Limit)
	if err != nil {
		return err
	}
	resp.Requests = make([]api.RequestRecord, 0, len(records))
	for _, record := range records {
		resp.Requests = append(resp.Requests, api.FromRecord(record))
	}
	return nil
}

func (s *service) HistoryDescribe(req HistoryDescribeRequest, resp *HistoryDescribeResponse) error {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return errors.New("history describe requires an id")
	}
	record, err := s.daemon.GetRecord(s.ctx, id)
	if errors.Is(err, history.ErrNotFound) {
		return fmt.Errorf("request %s not found", id)
	}
	if err != nil {
		return err
	}
	resp.Request = api.FromRecord(record)
	return nil
}

func (s *service) HistoryClear(_ HistoryClearRequest, resp *HistoryClearResponse) error {
	removed, err := s.daemon.ClearHistory(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("history cleared",
		logging.String(logging.FieldEventType, "history_clear"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) HistoryClearFailed(_ HistoryClearFailedRequest, resp *HistoryClearFailedResponse) error {
	removed, err := s.daemon.ClearFailedHistory(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("failed history cleared",
		logging.String(logging.FieldEventType, "history_clear_failed"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) TestSheetLog(_ TestSheetLogRequest, resp *TestSheetLogResponse) error {
	sent, message, err := s.daemon.TestSheetLog(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}

func (s *service) GenerateIdeas(req IdeasRequest, resp *GenerationResponse) error {
	result, err := s.daemon.Studio().BrainstormIdeas(s.ctx, studio.IdeaRequest{Topic: req.Topic, Count: req.Count})
	return FillGeneration(resp, result, err)
}

func (s *service) GenerateScript(req ScriptRequest, resp *GenerationResponse) error {
	result, err := s.daemon.Studio().DraftScript(s.ctx, studio.ScriptRequest{
		Idea:            req.Idea,
		DurationSeconds: req.DurationSeconds,
		Tone:            req.Tone,
	})
	return FillGeneration(resp, result, err)
}

func (s *service) GenerateImage(req ImageRequest, resp *GenerationResponse) error {
	result, err := s.daemon.Studio().GenerateImage(s.ctx, studio.ImageRequest{Prompt: req.Prompt, Style: req.Style})
	return FillGeneration(resp, result, err)
}

func (s *service) Assess(req AssessRequest, resp *GenerationResponse) error {
	result, err := s.daemon.Studio().AssessMedia(s.ctx, studio.AssessmentRequest{Description: req.Description})
	return FillGeneration(resp, result, err)
}

func (s *service) Plan(req PlanRequest, resp *GenerationResponse) error {
	result, err := s.daemon.Studio().PlanEdit(s.ctx, studio.EditPlanRequest{Script: req.Script, Assets: req.Assets})
	return FillGeneration(resp, result, err)
}

// FillGeneration flattens a studio result or failure into the shared
// generation envelope. Validation errors come back as plain errors
// while classified upstream failures travel in-band so callers can
// render the category and request id.
func FillGeneration(resp *GenerationResponse, result any, err error) error {
	if err != nil {
		var opErr *studio.OperationError
		if errors.As(err, &opErr) {
			resp.RequestID = opErr.RequestID
			resp.Failed = true
			resp.Category = string(opErr.Category)
			resp.Message = opErr.Category.UserMessage()
			return nil
		}
		return err
	}
	raw, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		return fmt.Errorf("marshal generation result: %w", marshalErr)
	}
	resp.ResultJSON = string(raw)
	resp.RequestID = extractRequestID(raw)
	return nil
}

func extractRequestID(raw []byte) string {
	var envelope struct {
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	return envelope.RequestID
}
