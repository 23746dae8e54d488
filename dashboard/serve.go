package dashboard

import (
	"context"
	"errors"
	"log"
	"net/http"
	"syscall"
	"time"

	"github.com/oklog/run"
)

// shutdownTimeout bounds the graceful shutdown of the http server.
const shutdownTimeout = 5 * time.Second

// ListenAndServe serves the dashboard on addr until ctx is done or the
// process is interrupted. It only returns an error if the server fails.
//
// In debug mode the data file is reloaded whenever it changes.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var g run.Group

	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	g.Add(func() error {
		log.Printf("Dashboard is running on http://%s/", addr)
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}, func(error) {
		// event streams never end by themselves.
		s.Close()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("http server shutdown: %v", err)
		}
	})

	if s.opts.Debug {
		wctx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			return s.data.Watch(wctx)
		}, func(error) {
			cancel()
		})
	}

	g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	err := g.Run()
	var sig run.SignalError
	if errors.As(err, &sig) {
		log.Printf("dashboard stopped: %v", sig)
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
