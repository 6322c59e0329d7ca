package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

// slowHealthServer answers 503 until the warmup elapses, then a healthy
// daemon-style payload. Mirrors a service that binds its port before it
// finishes loading.
func slowHealthServer(t *testing.T, warmup time.Duration) (*httptest.Server, int) {
	t.Helper()
	started := time.Now()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if time.Since(started) < warmup {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","workers":{"total":2,"busy":0}}`))
	}))
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse stub url: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse stub port: %v", err)
	}
	return srv, port
}

func deadPID(t *testing.T) int {
	t.Helper()
	cmd := exec.Command("true")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	return pid
}

func TestStartBecomesHealthyWithinBudget(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	reg := NewRegistry(filepath.Join(dir, "run"))
	srv, port := slowHealthServer(t, 500*time.Millisecond)

	res, err := Start(context.Background(), reg, StartOptions{
		Service:  "agentd",
		Bin:      "/bin/sleep",
		Args:     []string{"30"},
		LogFile:  filepath.Join(dir, "agentd.log"),
		Port:     port,
		Version:  "0.3.0",
		Probe:    HTTPProbe(srv.Client(), srv.URL, "status", "healthy"),
		Interval: 50 * time.Millisecond,
		Budget:   3 * time.Second,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.Already {
		t.Fatalf("nothing was running, Already must be false")
	}
	if !res.Healthy {
		t.Fatalf("service did not turn healthy within budget")
	}
	rec, ok := reg.Read("agentd")
	if !ok {
		t.Fatalf("record missing after successful start")
	}
	if rec.PID != res.PID || rec.Port != port {
		t.Fatalf("record mismatch: %+v (want pid %d port %d)", rec, res.PID, port)
	}
	if _, err := Stop(reg, StopOptions{Service: "agentd", Wait: time.Second}); err != nil {
		t.Fatalf("cleanup stop: %v", err)
	}
}

func TestStartHealthBudgetExhausted(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	reg := NewRegistry(filepath.Join(dir, "run"))

	never := Probe(func(context.Context) bool { return false })
	res, err := Start(context.Background(), reg, StartOptions{
		Service:  "agentd",
		Bin:      "/bin/sleep",
		Args:     []string{"30"},
		LogFile:  filepath.Join(dir, "agentd.log"),
		Port:     18789,
		Probe:    never,
		Interval: 20 * time.Millisecond,
		Budget:   200 * time.Millisecond,
	})
	// The launch itself succeeded, so there is no error; the caller
	// warns based on Healthy being false.
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.Healthy {
		t.Fatalf("probe never passes, Healthy must be false")
	}
	if _, ok := reg.Read("agentd"); !ok {
		t.Fatalf("record must exist even when health never confirmed")
	}
	if _, err := Stop(reg, StopOptions{Service: "agentd", Wait: time.Second}); err != nil {
		t.Fatalf("cleanup stop: %v", err)
	}
}

func TestStartAlreadyRunningDoesNotSpawn(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	reg := NewRegistry(filepath.Join(dir, "run"))

	always := Probe(func(context.Context) bool { return true })
	first, err := Start(context.Background(), reg, StartOptions{
		Service: "agentd",
		Bin:     "/bin/sleep",
		Args:    []string{"30"},
		LogFile: filepath.Join(dir, "agentd.log"),
		Port:    18789,
		Probe:   always,
		Budget:  time.Second,
	})
	if err != nil {
		t.Fatalf("first Start: %v", err)
	}

	// A second start must short-circuit before touching the launcher:
	// the missing binary would fail loudly if a spawn were attempted.
	second, err := Start(context.Background(), reg, StartOptions{
		Service: "agentd",
		Bin:     filepath.Join(dir, "missing-binary"),
		LogFile: filepath.Join(dir, "agentd.log"),
		Port:    18789,
		Probe:   always,
		Budget:  time.Second,
	})
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if !second.Already {
		t.Fatalf("expected already-running short circuit")
	}
	if second.PID != first.PID {
		t.Fatalf("pid changed: first %d second %d", first.PID, second.PID)
	}
	if _, err := Stop(reg, StopOptions{Service: "agentd", Wait: time.Second}); err != nil {
		t.Fatalf("cleanup stop: %v", err)
	}
}

func TestStartClearsStaleRecord(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	reg := NewRegistry(filepath.Join(dir, "run"))
	if err := reg.Write("agentd", Record{PID: deadPID(t), Port: 18789, StartedAt: time.Now()}); err != nil {
		t.Fatalf("seed stale record: %v", err)
	}

	always := Probe(func(context.Context) bool { return true })
	res, err := Start(context.Background(), reg, StartOptions{
		Service: "agentd",
		Bin:     "/bin/sleep",
		Args:    []string{"30"},
		LogFile: filepath.Join(dir, "agentd.log"),
		Port:    18789,
		Probe:   always,
		Budget:  time.Second,
	})
	if err != nil {
		t.Fatalf("Start over stale record: %v", err)
	}
	if res.Already {
		t.Fatalf("stale record must not count as running")
	}
	rec, ok := reg.Read("agentd")
	if !ok || rec.PID != res.PID {
		t.Fatalf("record not replaced after stale cleanup: %+v", rec)
	}
	if _, err := Stop(reg, StopOptions{Service: "agentd", Wait: time.Second}); err != nil {
		t.Fatalf("cleanup stop: %v", err)
	}
}

func TestStopStaleRecordIsAlreadyStopped(t *testing.T) {
	requireUnix(t)
	reg := NewRegistry(t.TempDir())
	if err := reg.Write("gateway", Record{PID: deadPID(t), Port: 18790}); err != nil {
		t.Fatalf("seed stale record: %v", err)
	}
	res, err := Stop(reg, StopOptions{Service: "gateway", Wait: time.Second})
	if err != nil {
		t.Fatalf("Stop on stale record: %v", err)
	}
	if res.WasRunning {
		t.Fatalf("stale record must report already stopped")
	}
	if _, ok := reg.Read("gateway"); ok {
		t.Fatalf("stale record must be cleaned up by stop")
	}
}

func TestStopMissingRecordIsAlreadyStopped(t *testing.T) {
	reg := NewRegistry(t.TempDir())
	res, err := Stop(reg, StopOptions{Service: "gateway", Wait: time.Second})
	if err != nil {
		t.Fatalf("Stop without record: %v", err)
	}
	if res.WasRunning {
		t.Fatalf("no record means nothing was running")
	}
}

func TestStopTerminatesGracefully(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	reg := NewRegistry(filepath.Join(dir, "run"))
	always := Probe(func(context.Context) bool { return true })
	res, err := Start(context.Background(), reg, StartOptions{
		Service: "agentd",
		Bin:     "/bin/sleep",
		Args:    []string{"30"},
		LogFile: filepath.Join(dir, "agentd.log"),
		Probe:   always,
		Budget:  time.Second,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	stopRes, err := Stop(reg, StopOptions{Service: "agentd", Wait: 2 * time.Second})
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !stopRes.WasRunning {
		t.Fatalf("expected a running service")
	}
	if stopRes.Killed {
		t.Fatalf("sleep exits on SIGTERM, escalation must not trigger")
	}
	if ProcessRunning(res.PID) {
		t.Fatalf("pid %d still running after stop", res.PID)
	}
	if _, ok := reg.Read("agentd"); ok {
		t.Fatalf("record must be removed after confirmed stop")
	}
}

func TestStopEscalatesToKill(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	reg := NewRegistry(filepath.Join(dir, "run"))
	always := Probe(func(context.Context) bool { return true })
	res, err := Start(context.Background(), reg, StartOptions{
		Service: "stubborn",
		Bin:     "/bin/sh",
		Args:    []string{"-c", `trap '' TERM; while :; do sleep 0.2; done`},
		LogFile: filepath.Join(dir, "stubborn.log"),
		Probe:   always,
		Budget:  time.Second,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Give the shell a moment to install its trap.
	time.Sleep(100 * time.Millisecond)

	stopRes, err := Stop(reg, StopOptions{Service: "stubborn", Wait: 300 * time.Millisecond})
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !stopRes.Killed {
		t.Fatalf("TERM-ignoring process must be killed")
	}
	if ProcessRunning(res.PID) {
		t.Fatalf("pid %d survived SIGKILL", res.PID)
	}
}

func TestStartMissingExecutableIsFatal(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry(filepath.Join(dir, "run"))
	always := Probe(func(context.Context) bool { return true })
	_, err := Start(context.Background(), reg, StartOptions{
		Service: "agentd",
		Bin:     filepath.Join(dir, "definitely-missing"),
		LogFile: filepath.Join(dir, "agentd.log"),
		Probe:   always,
	})
	if !errors.Is(err, ErrExecutableNotFound) {
		t.Fatalf("expected ErrExecutableNotFound, got %v", err)
	}
	if _, ok := reg.Read("agentd"); ok {
		t.Fatalf("no record may be written when nothing was spawned")
	}
}

func TestCheckReportsStates(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	reg := NewRegistry(filepath.Join(dir, "run"))
	ctx := context.Background()

	st := Check(ctx, reg, "agentd", nil)
	if st.Running || st.Healthy || st.PID != 0 {
		t.Fatalf("missing record must read as fully down: %+v", st)
	}

	always := Probe(func(context.Context) bool { return true })
	res, err := Start(ctx, reg, StartOptions{
		Service: "agentd",
		Bin:     "/bin/sleep",
		Args:    []string{"30"},
		LogFile: filepath.Join(dir, "agentd.log"),
		Port:    18789,
		Probe:   always,
		Budget:  time.Second,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	st = Check(ctx, reg, "agentd", always)
	if !st.Running || !st.Healthy || st.PID != res.PID || st.Port != 18789 {
		t.Fatalf("unexpected status for live service: %+v", st)
	}

	// Running process with a failing probe stays "running, not ready".
	never := Probe(func(context.Context) bool { return false })
	st = Check(ctx, reg, "agentd", never)
	if !st.Running || st.Healthy {
		t.Fatalf("expected running and unhealthy: %+v", st)
	}
	if _, err := Stop(reg, StopOptions{Service: "agentd", Wait: time.Second}); err != nil {
		t.Fatalf("cleanup stop: %v", err)
	}
}
