package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/infieles/reportes/config"
	errs "github.com/infieles/reportes/errors"
	"github.com/infieles/reportes/limiter"
	"github.com/infieles/reportes/logger"
	"github.com/infieles/reportes/server/response"
	"github.com/infieles/reportes/services"
	"github.com/pkg/errors"
)

const sweepInterval = time.Minute

// Server holds the dependencies shared by the HTTP handlers.
type Server struct {
	Config        *config.Config
	Log           logger.LoggerService
	ReportService services.ReportService
	AdminVerifier services.AdminVerifier
	Limiters      *limiter.Factory
}

// Start serves until ctx is cancelled or the process receives SIGINT or
// SIGTERM, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	router := s.setupRouter()
	s.Limiters.RunSweepers(ctx, sweepInterval)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Config.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		s.Log.Info("server started on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return errors.Wrap(err, "failed to start server")
		}
		return nil
	case <-ctx.Done():
	}

	s.Log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}
	sentry.Flush(2 * time.Second)
	s.Log.Info("server exited")
	return nil
}

func (s *Server) recoverPanic(c *gin.Context, recovered interface{}) {
	s.Log.Error("panic serving %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
	response.Abort(c, errs.Wrap(errs.KindInternal, fmt.Errorf("%v", recovered), errs.ErrInternalServerErr.Message))
}
