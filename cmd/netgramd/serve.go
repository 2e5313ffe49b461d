package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/haldorgrim/netgram"
	"github.com/haldorgrim/netgram/internal/config"
	"github.com/haldorgrim/netgram/internal/dispatcher"
	"github.com/haldorgrim/netgram/internal/metrics"
	"github.com/haldorgrim/netgram/internal/udp"
	"github.com/haldorgrim/netgram/rest"
	"github.com/haldorgrim/netgram/ws"
)

func serveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the UDP server, WebSocket bridge, and HTTP facade",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to netgramd.yaml (defaults to ./netgramd.yaml)")
	return cmd
}

func runServe(configPath string) error {
	cfg, resolvedPath, err := config.Load(&log.Logger, configPath)
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	logger.Info().Str("path", resolvedPath).Msg("loaded configuration")

	reg := prometheus.NewRegistry()
	serverMetrics := metrics.NewServer(reg)

	disp := dispatcher.New().WithLogger(logger)
	disp.QueueDepth = func(depth int) { serverMetrics.DispatcherQueueLen.Set(float64(depth)) }

	rateLimit := &udp.RateLimitConfig{
		MessagesPerSecond: rate.Limit(cfg.RateLimitPerSecond),
		Burst:             cfg.RateLimitBurst,
		Enabled:           cfg.RateLimitEnabled,
	}

	server, err := udp.NewServer(udp.ServerConfig{
		Addr:         cfg.UDPAddr,
		Capacity:     cfg.Capacity,
		PongInterval: cfg.PongInterval,
		PingInterval: cfg.PingInterval,
		RateLimit:    rateLimit,
		Logger:       &logger,
		Metrics:      serverMetrics,
		OnMessageReceived: func(ev netgram.MessageReceivedEvent) {
			disp.Stage(ev.Message)
		},
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := server.Start(ctx); err != nil {
		return err
	}
	go server.RunHeartbeat(ctx, time.Second)
	go runDispatcherLoop(ctx, disp)

	bridge := ws.NewBridge(ws.BridgeConfig{
		Addr:            cfg.WSAddr,
		Dispatcher:      disp,
		RateLimitConfig: rateLimit,
		CheckOrigin:     ws.AllOrigins(),
		Logger:          &logger,
	})
	if err := bridge.Start(ctx); err != nil {
		return err
	}

	var httpSrv *http.Server
	if cfg.HTTPAddr == "" {
		logger.Info().Msg("http facade disabled: http_addr is empty")
	} else {
		gin.SetMode(gin.ReleaseMode)
		engine := gin.New()
		rest.NewHandlers(server, &logger).Register(engine)
		httpSrv = &http.Server{Addr: cfg.HTTPAddr, Handler: engine}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("http facade exited")
			}
		}()
	}

	logger.Info().
		Str("udp", cfg.UDPAddr).
		Str("ws", cfg.WSAddr).
		Str("http", cfg.HTTPAddr).
		Msg("netgramd started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	bridge.Stop(shutdownCtx)
	server.Stop()
	if httpSrv != nil {
		httpSrv.Shutdown(shutdownCtx)
	}
	return nil
}

// runDispatcherLoop drains one staged event per tick until ctx is
// cancelled, backing off briefly when the queue runs dry.
func runDispatcherLoop(ctx context.Context, disp *dispatcher.Dispatcher) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if !disp.Tick() {
			time.Sleep(5 * time.Millisecond)
		}
	}
}
