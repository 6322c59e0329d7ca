package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/roosthq/roost/internal/auth"
	"github.com/roosthq/roost/internal/config"
	"github.com/roosthq/roost/internal/daemon"
	"github.com/roosthq/roost/internal/gateway"
	"github.com/roosthq/roost/internal/history/factory"
	"github.com/roosthq/roost/internal/logger"
	"github.com/roosthq/roost/internal/store"
	"github.com/roosthq/roost/pkg/client"
)

// jwtSecret resolves the token signing secret shared by the daemon and
// the gateway: explicit config wins, otherwise a generated secret
// persisted under the data dir. Both services resolve the same file, so
// gateway tokens verify against the daemon without any wiring.
func (c *command) jwtSecret(cfg *config.Config) (string, error) {
	if cfg.Auth.JWTSecret != "" {
		return cfg.Auth.JWTSecret, nil
	}
	return auth.LoadOrCreateSecret(filepath.Join(cfg.DataDir(), "jwt.secret"))
}

// runDaemon runs the agent daemon in the foreground until SIGINT or
// SIGTERM. "roost daemon start" launches this as a detached child;
// running it directly is how you get a service under systemd or in a
// terminal for debugging.
func (c *command) runDaemon(f ServiceStartFlags) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	port := cfg.Daemon.Port
	if f.Port > 0 {
		port = f.Port
	}

	log, closer := logger.NewService(config.ServiceDaemon, *cfg.Log)
	defer func() { _ = closer.Close() }()

	users, err := auth.OpenStore(cfg.Auth.DSN)
	if err != nil {
		return fmt.Errorf("open user store: %w", err)
	}
	secret, err := c.jwtSecret(cfg)
	if err != nil {
		_ = users.Close()
		return err
	}
	svc, err := auth.New(users, secret, cfg.Auth.TokenTTL, cfg.Auth.BcryptCost)
	if err != nil {
		_ = users.Close()
		return err
	}
	defer func() { _ = svc.Close() }()

	sinks, err := factory.NewSinksFromDSNs(cfg.History.Sinks)
	if err != nil {
		return fmt.Errorf("history sinks: %w", err)
	}
	defer func() { _ = sinks.Close() }()

	opts := daemon.Options{
		Version:   version,
		Port:      port,
		Workers:   cfg.Daemon.Workers,
		QueueSize: cfg.Daemon.QueueSize,
		Auth:      svc,
		Personas:  store.NewPersonaStore(cfg.DataDir()),
		Logger:    log,
	}
	if len(sinks) > 0 {
		opts.History = sinks
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return daemon.New(opts).Run(ctx)
}

// runGateway runs the channel gateway in the foreground. It forwards
// into the daemon with a long-lived service token minted from the
// shared secret.
func (c *command) runGateway(f ServiceStartFlags) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	port := cfg.Gateway.Port
	if f.Port > 0 {
		port = f.Port
	}

	log, closer := logger.NewService(config.ServiceGateway, *cfg.Log)
	defer func() { _ = closer.Close() }()

	secret, err := c.jwtSecret(cfg)
	if err != nil {
		return err
	}
	token, err := auth.MintServiceToken(secret, config.ServiceGateway, 0)
	if err != nil {
		return fmt.Errorf("mint service token: %w", err)
	}

	gw := gateway.New(gateway.Options{
		Version:  version,
		Port:     port,
		Channels: store.NewChannelStore(cfg.DataDir()),
		Pairings: store.NewPairingStore(cfg.DataDir()),
		Daemon: client.New(client.Config{
			BaseURL: cfg.DaemonURL(),
			Token:   token,
			Logger:  log,
		}),
		Logger: log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return gw.Run(ctx)
}
