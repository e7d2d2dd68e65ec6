package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/thringlet/internal/engine"
	"github.com/lazypower/thringlet/internal/events"
	"github.com/lazypower/thringlet/internal/server"
	"github.com/lazypower/thringlet/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and the decay timer",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	dbPath, err := resolveDBPath()
	if err != nil {
		return err
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	publishers := events.Multi{bus}

	if cfg.MQTT.Enabled {
		mq := events.NewMQTTPublisher(events.MQTTConfig{
			BrokerURL:   cfg.MQTT.BrokerURL,
			ClientID:    cfg.MQTT.ClientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
		}, logger)
		if err := mq.Connect(ctx); err != nil {
			logger.Warn("mqtt disabled", "broker", cfg.MQTT.BrokerURL, "error", err)
		} else {
			defer mq.Close()
			publishers = append(publishers, mq)
		}
	}

	eng := newEngine(db, engine.WithPublisher(publishers))
	eng.StartDecayTimer(cfg.Engine.DecayInterval.Std())
	defer eng.Stop()

	srv := server.New(eng, bus, logger, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("thringlet serving", "addr", addr, "db", dbPath, "decay_interval", cfg.Engine.DecayInterval.Std())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
}
