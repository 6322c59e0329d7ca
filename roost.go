package roost

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cfg "github.com/roosthq/roost/internal/config"
	"github.com/roosthq/roost/internal/gateway"
	"github.com/roosthq/roost/internal/history"
	"github.com/roosthq/roost/internal/history/factory"
	"github.com/roosthq/roost/internal/metrics"
	"github.com/roosthq/roost/internal/service"
	"github.com/roosthq/roost/internal/store"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Record = service.Record

type Status = service.Status

type Probe = service.Probe

type LaunchSpec = service.LaunchSpec

type StartOptions = service.StartOptions

type StartResult = service.StartResult

type StopOptions = service.StopOptions

type StopResult = service.StopResult

type Config = cfg.Config

type HistoryConfig = cfg.HistoryConfig

type HistoryEvent = history.Event

type HistorySink = history.Sink

type HistorySinks = history.Multi

const (
	EventServiceStart = history.EventServiceStart
	EventServiceStop  = history.EventServiceStop

	DefaultPollInterval = service.DefaultPollInterval
	DefaultStartBudget  = service.DefaultStartBudget
	DefaultStopWait     = service.DefaultStopWait
)

var (
	ErrStopTimeout        = service.ErrStopTimeout
	ErrExecutableNotFound = service.ErrExecutableNotFound
)

// Supervisor is a thin facade over internal/service.
// It provides a stable public API for embedding.

type Supervisor struct{ reg *service.Registry }

// NewSupervisor returns a Supervisor keeping its PID records under dir.
func NewSupervisor(dir string) *Supervisor {
	return &Supervisor{reg: service.NewRegistry(dir)}
}

func (s *Supervisor) Start(ctx context.Context, opts StartOptions) (StartResult, error) {
	return service.Start(ctx, s.reg, opts)
}

func (s *Supervisor) Stop(opts StopOptions) (StopResult, error) {
	return service.Stop(s.reg, opts)
}

func (s *Supervisor) Check(ctx context.Context, name string, probe Probe) Status {
	return service.Check(ctx, s.reg, name, probe)
}

func (s *Supervisor) Record(name string) (Record, bool) { return s.reg.Read(name) }
func (s *Supervisor) Services() []string                { return s.reg.Services() }

// Launch and probe helpers for callers that keep their own records.

func LaunchDetached(spec LaunchSpec) (int, error) { return service.LaunchDetached(spec) }

func SelfExecutable() (string, error) { return service.SelfExecutable() }

func ProcessRunning(pid int) bool { return service.ProcessRunning(pid) }

func WaitHealthy(ctx context.Context, probe Probe, interval, timeout time.Duration) bool {
	return service.WaitHealthy(ctx, probe, interval, timeout)
}

func HTTPProbe(client *http.Client, url, statusField, want string) Probe {
	return service.HTTPProbe(client, url, statusField, want)
}

func LocalHealthURL(port int) string { return service.LocalHealthURL(port) }

func TailLines(path string, n int) ([]string, error) { return service.TailLines(path, n) }

func LoadConfig(path string) (*Config, error) {
	return cfg.Load(path)
}

// NewHistorySinks opens one sink per DSN (a bare path or sqlite:// for
// SQLite, postgres://, clickhouse://, opensearch://) so embedders can
// record lifecycle events the way the CLI does.
func NewHistorySinks(dsns []string) (HistorySinks, error) {
	return factory.NewSinksFromDSNs(dsns)
}

// Gateway embedding surface: channels, pairings and the inbound HTTP
// handler, for hosts that mount the gateway inside their own server.

type Channel = store.Channel

type Pairing = store.Pairing

type ChannelStore = store.ChannelStore

type PairingStore = store.PairingStore

type GatewayOptions = gateway.Options

func NewChannelStore(dir string) *ChannelStore { return store.NewChannelStore(dir) }
func NewPairingStore(dir string) *PairingStore { return store.NewPairingStore(dir) }

// NewGatewayHandler builds the channel gateway's HTTP surface (health,
// metrics, inbound webhooks) without binding a listener, so it can be
// mounted on any router.
func NewGatewayHandler(opts GatewayOptions) http.Handler {
	return gateway.New(opts).Handler()
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the default registry.
// It returns any immediate listen error; otherwise it runs the server in the caller goroutine.
func ServeMetrics(addr string) error {
	http.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           nil,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
