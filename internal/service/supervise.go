package service

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"time"
)

// ErrStopTimeout means the process survived SIGTERM and SIGKILL past
// the stop deadline.
var ErrStopTimeout = errors.New("process did not exit before deadline")

// DefaultStopWait is the grace period between SIGTERM and SIGKILL.
const DefaultStopWait = 5 * time.Second

// StartOptions describes one service start request.
type StartOptions struct {
	Service  string
	Bin      string
	Args     []string
	Env      []string
	WorkDir  string
	LogFile  string
	Port     int
	Version  string
	Probe    Probe
	Interval time.Duration // poll interval, DefaultPollInterval when zero
	Budget   time.Duration // health wait budget, DefaultStartBudget when zero
}

// StartResult reports what Start did.
type StartResult struct {
	Already bool // a live instance was found, nothing spawned
	PID     int
	Healthy bool // probe succeeded (existing instance or within budget)
}

// Start brings a service up: it short-circuits when a live instance is
// already recorded, silently clears a stale record, launches detached,
// records the PID, and waits for readiness within the budget. A probe
// still failing at the end of the budget is not an error; the result
// carries Healthy=false and the caller warns instead.
func Start(ctx context.Context, reg *Registry, opts StartOptions) (StartResult, error) {
	if rec, ok := reg.Read(opts.Service); ok {
		if ProcessRunning(rec.PID) {
			// Never spawn a duplicate over a live PID, ready or not.
			return StartResult{Already: true, PID: rec.PID, Healthy: opts.Probe(ctx)}, nil
		}
		// Record left behind by a dead process. Expected after crashes
		// and reboots, so it is cleared without ceremony.
		_ = reg.Delete(opts.Service)
	}

	pid, err := LaunchDetached(LaunchSpec{
		Service: opts.Service,
		Bin:     opts.Bin,
		Args:    opts.Args,
		Env:     opts.Env,
		WorkDir: opts.WorkDir,
		LogFile: opts.LogFile,
	})
	if err != nil {
		return StartResult{}, err
	}

	rec := Record{
		PID:       pid,
		Port:      opts.Port,
		StartedAt: time.Now().UTC(),
		Version:   opts.Version,
		WorkDir:   opts.WorkDir,
		LogFile:   opts.LogFile,
	}
	if err := reg.Write(opts.Service, rec); err != nil {
		return StartResult{PID: pid}, fmt.Errorf("record %s pid %d: %w", opts.Service, pid, err)
	}

	healthy := WaitHealthy(ctx, opts.Probe, opts.Interval, opts.Budget)
	return StartResult{PID: pid, Healthy: healthy}, nil
}

// StopOptions control Stop escalation.
type StopOptions struct {
	Service string
	Wait    time.Duration // grace before SIGKILL, DefaultStopWait when zero
	Force   bool          // skip SIGTERM, kill the group immediately
}

// StopResult reports what Stop found.
type StopResult struct {
	WasRunning bool
	PID        int
	Killed     bool // escalated to SIGKILL
}

// Stop terminates a recorded service. No record, or a record whose PID
// is already gone, is success: the goal state "not running" holds, so
// the record is cleaned up and nothing is reported as an error. A live
// process gets SIGTERM, the grace period, then SIGKILL.
func Stop(reg *Registry, opts StopOptions) (StopResult, error) {
	rec, ok := reg.Read(opts.Service)
	if !ok {
		return StopResult{}, nil
	}
	if !ProcessRunning(rec.PID) {
		_ = reg.Delete(opts.Service)
		return StopResult{}, nil
	}
	if opts.Wait <= 0 {
		opts.Wait = DefaultStopWait
	}

	res := StopResult{WasRunning: true, PID: rec.PID}
	// The service runs as a session leader, so the negative pid reaches
	// its whole process group, including any children it forked.
	if opts.Force {
		_ = syscall.Kill(-rec.PID, syscall.SIGKILL)
		res.Killed = true
	} else {
		_ = syscall.Kill(-rec.PID, syscall.SIGTERM)
		if !waitGone(rec.PID, opts.Wait) {
			_ = syscall.Kill(-rec.PID, syscall.SIGKILL)
			res.Killed = true
		}
	}
	if !waitGone(rec.PID, 2*time.Second) {
		return res, fmt.Errorf("%w: pid %d", ErrStopTimeout, rec.PID)
	}
	_ = reg.Delete(opts.Service)
	return res, nil
}

// waitGone polls the pid until it stops answering signal 0 or the
// deadline passes.
func waitGone(pid int, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if !ProcessRunning(pid) {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return !ProcessRunning(pid)
}

// Check reports the observed state of one service without touching it.
func Check(ctx context.Context, reg *Registry, name string, probe Probe) Status {
	st := Status{Service: name}
	rec, ok := reg.Read(name)
	if !ok {
		return st
	}
	st.PID = rec.PID
	st.Port = rec.Port
	st.StartedAt = rec.StartedAt
	st.Version = rec.Version
	st.LogFile = rec.LogFile
	st.Running = ProcessRunning(rec.PID)
	if st.Running {
		st.Uptime = time.Since(rec.StartedAt).Round(time.Second).String()
		if probe != nil {
			st.Healthy = probe(ctx)
		}
	}
	return st
}
