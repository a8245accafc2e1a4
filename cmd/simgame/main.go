// Command simgame runs a local fake game backend for end-to-end agent
// runs. Point the agent at it with ROYALE_API_BASE=http://localhost:9080/api.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moltyroyale/agent/internal/sim"
	"github.com/moltyroyale/agent/pkg/logger"
)

const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	addr := flag.String("addr", ":9080", "listen address")
	seed := flag.Int64("seed", time.Now().UnixNano(), "simulation seed")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logging: " + err.Error() + "\n")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	sim.NewServer(sim.NewWorld(*seed)).Register(ctx, mux)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		logger.Get().Info(ctx, "simgame listening",
			logger.String("addr", *addr),
			logger.Int("seed", int(*seed)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("simgame server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
