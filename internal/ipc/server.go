package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"tidy/internal/daemon"
	"tidy/internal/logging"
)

const defaultHistoryLimit = 20

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
	if err := rpcServer.RegisterName("Tidy", srv); err != nil {
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
				s.logger.Warn("accept failed", logging.Error(err))
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
	return logging.NewComponentLogger(s.logger, "ipc")
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.Watching = status.Watching
	resp.SourceRoot = status.SourceRoot
	resp.SourceRootExists = status.SourceRootExists
	resp.LedgerPath = status.LedgerPath
	resp.LockPath = status.LockFilePath
	resp.PID = status.PID
	return nil
}

func (s *service) Run(req RunRequest, resp *RunResponse) error {
	s.log().Debug("run requested", logging.Bool("dry_run", req.DryRun))
	report, err := s.daemon.Run(s.ctx, req.DryRun)
	if err != nil {
		return err
	}
	resp.Report = report
	return nil
}

func (s *service) Undo(_ UndoRequest, resp *RunResponse) error {
	s.log().Debug("undo requested")
	report, err := s.daemon.Undo(s.ctx)
	if err != nil {
		return err
	}
	resp.Report = report
	return nil
}

func (s *service) Watch(req WatchRequest, resp *WatchResponse) error {
	if req.Enable {
		if err := s.daemon.StartWatch(); err != nil {
			return err
		}
	} else {
		s.daemon.StopWatch()
	}
	resp.Watching = s.daemon.Status().Watching
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	history, err := s.daemon.History(s.ctx, limit)
	if err != nil {
		return err
	}
	resp.Runs = make([]HistoryRun, 0, len(history))
	for _, run := range history {
		resp.Runs = append(resp.Runs, HistoryRun{
			RunID:     run.ID,
			Trigger:   run.Trigger,
			StartedAt: run.StartedAt,
			Reverted:  run.Reverted,
			Moves:     run.Records,
		})
	}
	return nil
}

func (s *service) Stats(_ StatsRequest, resp *StatsResponse) error {
	summary, err := s.daemon.Stats(s.ctx)
	if err != nil {
		return err
	}
	resp.Summary = *summary
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
