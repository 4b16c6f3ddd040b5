package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/idilsaglam/todo/internal/config"
	"github.com/idilsaglam/todo/internal/server"
	"github.com/idilsaglam/todo/internal/store/jsonstore"
	"github.com/idilsaglam/todo/internal/ui"
)

func doServe(cfg *config.Config) int {
	gin.SetMode(gin.ReleaseMode)
	log := slog.New(slog.NewTextHandler(ui.Stderr(), nil))

	st := jsonstore.Open(cfg.Server.DataFile)
	srv := server.New(st, log)
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", httpSrv.Addr, "path", server.BasePath, "data", st.Path())
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			ui.Fail("serve: " + err.Error())
			return 1
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Close()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			ui.Fail("shutdown: " + err.Error())
			return 1
		}
	}
	return 0
}
