// serve.go - Server-Start und Lifecycle-Management
// Enthaelt: Serve() - baut Backend und Modell aus der Umgebung und startet HTTP

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ollama/adaptor/envconfig"
	"github.com/ollama/adaptor/logutil"
	"github.com/ollama/adaptor/ml"
	_ "github.com/ollama/adaptor/ml/backend"
	"github.com/ollama/adaptor/model/models/adaptor"
	"github.com/ollama/adaptor/version"
)

// Serve startet den HTTP-Server mit einem Modell aus der Umgebung
func Serve(ln net.Listener) error {
	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
	slog.Info("server config", "env", envconfig.Values())

	b, err := ml.NewBackend(envconfig.Backend(), ml.BackendParams{
		NumThreads: int(envconfig.NumThreads()),
		Seed:       envconfig.Seed(),
	})
	if err != nil {
		return err
	}
	defer b.Close()

	m, err := adaptor.New(b, adaptor.DefaultConfig().FromEnv(), nil, nil)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}

	s := &Server{addr: ln.Addr(), backend: b, model: m}
	h, err := s.GenerateRoutes()
	if err != nil {
		return err
	}

	ctx, done := context.WithCancel(context.Background())

	slog.Info(fmt.Sprintf("Listening on %s (version %s)", ln.Addr(), version.Version), "backbone", m.Backbone(), "parameters", len(m.Parameters()))
	srvr := &http.Server{Handler: h}

	// listen for a ctrl+c and stop the server
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		srvr.Close()
		done()
	}()

	err = srvr.Serve(ln)
	// If server is closed from the signal handler, wait for the ctx to be done
	// otherwise error out quickly
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-ctx.Done()
	return nil
}
