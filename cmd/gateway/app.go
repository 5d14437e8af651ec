package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Decode-Labs-Web3/decode-gateway/internal/handlers"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/handlers/middleware"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/logger"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/session"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/upstream"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Core session machinery: ticket codec, gate, arrival flag, guard
	codec, err := session.NewCodec(c.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("error while creating ticket codec: %w", err)
	}
	gate := session.NewGate(codec, log)
	arrival := session.NewArrival(0)
	guard := session.NewGuard(gate, arrival, log)

	// Identity backend client
	client := upstream.NewClient(c.IdentityAddr, c.UpstreamTimeout, log)

	// Route handlers
	authHandler := handlers.NewAuth(client, gate, arrival, log)
	passwordHandler := handlers.NewPassword(client, gate, log)
	accountHandler := handlers.NewAccount(client, log)
	pageHandler := handlers.NewPages()

	mux := handlers.NewRouter(
		authHandler,
		passwordHandler,
		accountHandler,
		pageHandler,
		middleware.GuardMiddleware(guard),
		middleware.InternalOnlyMiddleware(c.InternalMarker),
		middleware.RequestIDMiddleware(),
		middleware.MetricsMiddleware(),
		middleware.LoggerMiddleware(log),
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
