package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/roosthq/roost/internal/config"
	"github.com/roosthq/roost/internal/history"
	"github.com/roosthq/roost/internal/history/factory"
	"github.com/roosthq/roost/internal/logger"
	"github.com/roosthq/roost/internal/metrics"
	"github.com/roosthq/roost/internal/service"
)

// command binds CLI actions to shared state: the persistent flags and
// the writer command output goes to. Tests swap out for a buffer.
type command struct {
	global *GlobalFlags
	out    io.Writer
	cfg    *config.Config
}

func newCommand(global *GlobalFlags) *command {
	return &command{global: global, out: os.Stdout}
}

// config loads the TOML config once per invocation.
func (c *command) config() (*config.Config, error) {
	if c.cfg == nil {
		cfg, err := config.Load(c.global.ConfigPath)
		if err != nil {
			return nil, err
		}
		c.cfg = cfg
	}
	return c.cfg, nil
}

// logger builds the colored stderr logger; --verbose lowers it to debug.
func (c *command) logger() *slog.Logger {
	level := slog.LevelInfo
	if c.global.Verbose {
		level = slog.LevelDebug
	}
	return logger.NewCLI(os.Stderr, level)
}

// cliNoun maps a registry service name to its command group, for hints
// like "roost daemon logs".
func cliNoun(name string) string {
	if name == config.ServiceDaemon {
		return "daemon"
	}
	return "gateway"
}

// servicePlan is the resolved launch and stop parameters for one
// managed service after flags are layered over config.
type servicePlan struct {
	name     string
	port     int
	bin      string
	args     []string
	env      []string
	logFile  string
	budget   time.Duration
	stopWait time.Duration
	probe    service.Probe
}

// planService resolves the plan for one of the two managed services. An
// empty bin re-executes the roost binary with the service's foreground
// run subcommand; an overridden bin gets the same argv, so a dev build
// drops in without extra config.
func (c *command) planService(cfg *config.Config, name string, f ServiceStartFlags) (servicePlan, error) {
	p := servicePlan{name: name, logFile: cfg.ServiceLogFile(name)}
	var sub, want string
	switch name {
	case config.ServiceDaemon:
		p.port, p.bin, p.env = cfg.Daemon.Port, cfg.Daemon.Bin, cfg.Daemon.Env
		p.budget, p.stopWait = cfg.Daemon.StartBudget, cfg.Daemon.StopWait
		sub, want = "daemon", "healthy"
	case config.ServiceGateway:
		p.port, p.bin, p.env = cfg.Gateway.Port, cfg.Gateway.Bin, cfg.Gateway.Env
		p.budget, p.stopWait = cfg.Gateway.StartBudget, cfg.Gateway.StopWait
		sub, want = "gateway", "ok"
	default:
		return servicePlan{}, fmt.Errorf("unknown service %q", name)
	}
	if f.Port > 0 {
		p.port = f.Port
	}
	if f.Bin != "" {
		p.bin = f.Bin
	}
	if f.Budget > 0 {
		p.budget = f.Budget
	}
	if p.bin == "" {
		self, err := service.SelfExecutable()
		if err != nil {
			return servicePlan{}, err
		}
		p.bin = self
	}
	p.args = []string{sub, "run", "--port", strconv.Itoa(p.port)}
	if c.global.ConfigPath != "" {
		p.args = append(p.args, "--config", c.global.ConfigPath)
	}
	p.probe = service.HTTPProbe(nil, service.LocalHealthURL(p.port), "status", want)
	return p, nil
}

// startService launches one service detached and waits for readiness.
// A probe still failing when the budget runs out is a warning, not a
// failure: the process did launch, and its log usually says why it is
// slow.
func (c *command) startService(name string, f ServiceStartFlags) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	plan, err := c.planService(cfg, name, f)
	if err != nil {
		return err
	}
	// The service runs with the roost home as its working directory.
	if err := os.MkdirAll(cfg.Home(), 0o750); err != nil {
		return err
	}

	reg := service.NewRegistry(cfg.RunDir())
	began := time.Now()
	res, err := service.Start(context.Background(), reg, service.StartOptions{
		Service: name,
		Bin:     plan.bin,
		Args:    plan.args,
		Env:     plan.env,
		WorkDir: cfg.Home(),
		LogFile: plan.logFile,
		Port:    plan.port,
		Version: version,
		Probe:   plan.probe,
		Budget:  plan.budget,
	})
	if err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}

	if res.Already {
		if res.Healthy {
			fmt.Fprintf(c.out, "%s is already running (pid %d)\n", name, res.PID)
		} else {
			fmt.Fprintf(c.out, "%s is already running (pid %d) but not answering health checks\n", name, res.PID)
		}
		return nil
	}

	metrics.IncServiceStart(name)
	metrics.ObserveHealthWait(name, time.Since(began))
	c.recordEvent(history.Event{
		Type: history.EventServiceStart, Service: name,
		PID: res.PID, Port: plan.port, Detail: "version " + version,
	})

	if res.Healthy {
		fmt.Fprintf(c.out, "%s started (pid %d, port %d)\n", name, res.PID, plan.port)
		return nil
	}
	fmt.Fprintf(c.out, "warning: %s started (pid %d, port %d) but was not ready after %s\n",
		name, res.PID, plan.port, plan.budget)
	fmt.Fprintf(c.out, "inspect it with: roost %s logs\n", cliNoun(name))
	return nil
}

// stopService terminates one service. Stopping a service that is not
// running succeeds quietly: the goal state already holds.
func (c *command) stopService(name string, f ServiceStopFlags) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	wait := f.Wait
	if wait <= 0 {
		if name == config.ServiceDaemon {
			wait = cfg.Daemon.StopWait
		} else {
			wait = cfg.Gateway.StopWait
		}
	}

	reg := service.NewRegistry(cfg.RunDir())
	res, err := service.Stop(reg, service.StopOptions{Service: name, Wait: wait, Force: f.Force})
	if err != nil {
		return fmt.Errorf("stop %s: %w", name, err)
	}
	if !res.WasRunning {
		fmt.Fprintf(c.out, "%s is not running\n", name)
		return nil
	}

	metrics.IncServiceStop(name)
	detail := "graceful"
	if res.Killed {
		detail = "killed"
	}
	c.recordEvent(history.Event{Type: history.EventServiceStop, Service: name, PID: res.PID, Detail: detail})

	if res.Killed {
		fmt.Fprintf(c.out, "%s stopped (pid %d, killed after %s)\n", name, res.PID, wait)
	} else {
		fmt.Fprintf(c.out, "%s stopped (pid %d)\n", name, res.PID)
	}
	return nil
}

// statusService reports the observed state of one service.
func (c *command) statusService(name string, f ServiceStatusFlags) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	st := c.checkService(cfg, name)
	if f.JSON {
		return printJSON(c.out, st)
	}
	c.printStatusLine(st)
	return nil
}

// checkService probes one service with the same readiness check start
// uses, so status and start never disagree about "ready".
func (c *command) checkService(cfg *config.Config, name string) service.Status {
	reg := service.NewRegistry(cfg.RunDir())
	rec, ok := reg.Read(name)
	port := 0
	if ok {
		port = rec.Port
	}
	want := "healthy"
	if name == config.ServiceGateway {
		want = "ok"
	}
	var probe service.Probe
	if port > 0 {
		probe = service.HTTPProbe(nil, service.LocalHealthURL(port), "status", want)
	}
	ctx, cancel := context.WithTimeout(context.Background(), service.DefaultHealthTimeout)
	defer cancel()
	return service.Check(ctx, reg, name, probe)
}

func (c *command) printStatusLine(st service.Status) {
	if !st.Running {
		fmt.Fprintf(c.out, "%s: not running\n", st.Service)
		return
	}
	ready := "ready"
	if !st.Healthy {
		ready = "not ready"
	}
	fmt.Fprintf(c.out, "%s: running (pid %d, port %d, up %s, %s)\n",
		st.Service, st.PID, st.Port, st.Uptime, ready)
}

// logsService prints the tail of a service's stdio capture file.
func (c *command) logsService(name string, f ServiceLogsFlags) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	lines, err := service.TailLines(cfg.ServiceLogFile(name), f.Lines)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(c.out, "no log file yet at %s\n", cfg.ServiceLogFile(name))
			return nil
		}
		return err
	}
	for _, line := range lines {
		fmt.Fprintln(c.out, line)
	}
	return nil
}

// Up starts the daemon first, then the gateway that forwards to it.
func (c *command) Up(f ServiceStartFlags) error {
	// Per-service ports come from config when bringing both up; a single
	// --port would be ambiguous here.
	shared := ServiceStartFlags{Budget: f.Budget}
	if err := c.startService(config.ServiceDaemon, shared); err != nil {
		return err
	}
	return c.startService(config.ServiceGateway, shared)
}

// Down stops the gateway first so nothing forwards into a dying daemon.
func (c *command) Down(f ServiceStopFlags) error {
	if err := c.stopService(config.ServiceGateway, f); err != nil {
		return err
	}
	return c.stopService(config.ServiceDaemon, f)
}

// StatusAll reports both services.
func (c *command) StatusAll(f ServiceStatusFlags) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	statuses := []service.Status{
		c.checkService(cfg, config.ServiceDaemon),
		c.checkService(cfg, config.ServiceGateway),
	}
	if f.JSON {
		return printJSON(c.out, statuses)
	}
	for _, st := range statuses {
		c.printStatusLine(st)
	}
	return nil
}

// recordEvent forwards one lifecycle event to the configured history
// sinks. History is best effort from the CLI: a failing sink is
// reported on stderr and never fails the command.
func (c *command) recordEvent(e history.Event) {
	cfg, err := c.config()
	if err != nil || len(cfg.History.Sinks) == 0 {
		return
	}
	sinks, err := factory.NewSinksFromDSNs(cfg.History.Sinks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history: %v\n", err)
		return
	}
	defer func() { _ = sinks.Close() }()

	e.OccurredAt = time.Now().UTC()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := sinks.Send(ctx, e); err != nil {
		fmt.Fprintf(os.Stderr, "history: %v\n", err)
	}
}
