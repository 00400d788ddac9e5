package web

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/vitos/hyper_copy_trade/internal/domain"
	"github.com/vitos/hyper_copy_trade/internal/usecase"
)

type Server struct {
	router  *http.ServeMux
	server  *http.Server
	service *usecase.CopyService
	repo    domain.SyncRepository
	logger  *zap.Logger
}

func NewServer(
	port int,
	service *usecase.CopyService,
	repo domain.SyncRepository,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:  http.NewServeMux(),
		service: service,
		repo:    repo,
		logger:  logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	// Status
	s.router.HandleFunc("GET /api/status", s.handleStatus)

	// Sync history
	s.router.HandleFunc("GET /api/cycles", s.handleCycles)
	s.router.HandleFunc("GET /api/cycles/{id}", s.handleCycleDetail)

	// Current plan (computed on demand, never executed here)
	s.router.HandleFunc("GET /api/plan", s.handlePlan)
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
