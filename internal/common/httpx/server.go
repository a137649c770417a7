package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"kitchen-relay/internal/common/logger"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	*http.Server
	lg *logger.Logger
}

func New(addr string, h http.Handler, lg *logger.Logger) *Server {
	if lg == nil {
		lg = logger.Nop()
	}
	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
		},
		lg: lg,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.ListenAndServe() }()
	s.lg.Info("http_server_started", map[string]any{"addr": s.Addr})

	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(sctx); err != nil {
			s.lg.Error("http_server_shutdown_failed", err, nil)
		}
		s.lg.Info("http_server_stopped", map[string]any{"addr": s.Addr})
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, errorBody{Error: msg})
}
