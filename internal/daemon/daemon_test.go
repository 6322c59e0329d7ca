package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roosthq/roost/internal/auth"
	"github.com/roosthq/roost/internal/store"
)

func init() { gin.SetMode(gin.TestMode) }

type testDaemon struct {
	d        *Daemon
	personas *store.PersonaStore
	handler  http.Handler
	token    string
}

// newTestDaemon builds a daemon over an in-memory auth store and a
// temp-dir persona store, with one admin user already logged in.
func newTestDaemon(t *testing.T, workers, queueSize int, exec Executor) *testDaemon {
	t.Helper()
	authStore, err := auth.OpenStore(":memory:")
	if err != nil {
		t.Fatalf("open auth store: %v", err)
	}
	t.Cleanup(func() { _ = authStore.Close() })
	svc, err := auth.New(authStore, "test-secret", time.Hour, 4)
	if err != nil {
		t.Fatalf("auth.New: %v", err)
	}
	ctx := context.Background()
	if _, err := svc.CreateUser(ctx, "admin", "hunter2", []string{"admin"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	tok, err := svc.Login(ctx, "admin", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	personas := store.NewPersonaStore(t.TempDir())
	d := New(Options{
		Version:   "0.0.0-test",
		Port:      0,
		Workers:   workers,
		QueueSize: queueSize,
		Auth:      svc,
		Personas:  personas,
		Executor:  exec,
	})
	return &testDaemon{d: d, personas: personas, handler: d.Handler(), token: tok.Value}
}

func (td *testDaemon) startWorkers(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		td.d.pool.Wait()
	})
	td.d.pool.Start(ctx)
}

func (td *testDaemon) do(t *testing.T, method, path string, body any, withAuth bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withAuth {
		req.Header.Set("Authorization", "Bearer "+td.token)
	}
	w := httptest.NewRecorder()
	td.handler.ServeHTTP(w, req)
	return w
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestHealthContract(t *testing.T) {
	td := newTestDaemon(t, 2, 8, nil)

	w := td.do(t, http.MethodGet, "/health", nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}
	var h healthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &h); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if h.Status != "healthy" {
		t.Fatalf("status = %q, want healthy", h.Status)
	}
	if h.Workers.Total != 2 || h.Queue.Capacity != 8 {
		t.Fatalf("sizing mismatch: %+v", h)
	}
	if h.Memory.SysBytes == 0 {
		t.Fatalf("memory stats missing: %+v", h)
	}
	if h.Version != "0.0.0-test" {
		t.Fatalf("version = %q", h.Version)
	}
}

func TestLoginFlow(t *testing.T) {
	td := newTestDaemon(t, 1, 4, nil)

	w := td.do(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"username": "admin", "password": "wrong"}, false)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password login = %d, want 401", w.Code)
	}

	w = td.do(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"username": "admin", "password": "hunter2"}, false)
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d: %s", w.Code, w.Body.String())
	}
	var tok auth.Token
	if err := json.Unmarshal(w.Body.Bytes(), &tok); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if tok.Type != "Bearer" || tok.Value == "" {
		t.Fatalf("unexpected token: %+v", tok)
	}
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	td := newTestDaemon(t, 1, 4, nil)

	if w := td.do(t, http.MethodGet, "/api/v1/status", nil, false); w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", w.Code)
	}
	if w := td.do(t, http.MethodGet, "/api/v1/status", nil, true); w.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d: %s", w.Code, w.Body.String())
	}
}

func TestJobLifecycle(t *testing.T) {
	td := newTestDaemon(t, 1, 4, nil)
	td.startWorkers(t)
	if err := td.personas.Put(store.Persona{Name: "helper", Model: "sonnet"}); err != nil {
		t.Fatalf("seed persona: %v", err)
	}

	w := td.do(t, http.MethodPost, "/api/v1/jobs",
		map[string]string{"persona": "helper", "input": "summarize the readme"}, true)
	if w.Code != http.StatusAccepted {
		t.Fatalf("submit = %d: %s", w.Code, w.Body.String())
	}
	var job Job
	if err := json.Unmarshal(w.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if job.ID == "" || job.State != JobQueued {
		t.Fatalf("unexpected accepted job: %+v", job)
	}

	var last Job
	ok := waitUntil(t, 2*time.Second, func() bool {
		w := td.do(t, http.MethodGet, "/api/v1/jobs/"+job.ID, nil, true)
		if w.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(w.Body.Bytes(), &last); err != nil {
			return false
		}
		return last.State == JobDone || last.State == JobFailed
	})
	if !ok {
		t.Fatalf("job never settled: %+v", last)
	}
	if last.State != JobDone {
		t.Fatalf("job state = %s (%s)", last.State, last.Error)
	}
	if last.Output == "" || last.FinishedAt.IsZero() {
		t.Fatalf("settled job incomplete: %+v", last)
	}
}

func TestJobUnknownPersonaFails(t *testing.T) {
	td := newTestDaemon(t, 1, 4, nil)
	td.startWorkers(t)

	w := td.do(t, http.MethodPost, "/api/v1/jobs",
		map[string]string{"persona": "ghost", "input": "hello"}, true)
	if w.Code != http.StatusAccepted {
		t.Fatalf("submit = %d: %s", w.Code, w.Body.String())
	}
	var job Job
	_ = json.Unmarshal(w.Body.Bytes(), &job)

	var last Job
	ok := waitUntil(t, 2*time.Second, func() bool {
		got, found := td.d.pool.Get(job.ID)
		last = got
		return found && (got.State == JobDone || got.State == JobFailed)
	})
	if !ok || last.State != JobFailed {
		t.Fatalf("unknown persona must fail the job, got %+v", last)
	}
	if last.Error == "" {
		t.Fatalf("failed job must carry the error")
	}
}

func TestQueueFullRejectsAndDegrades(t *testing.T) {
	// No workers started: everything submitted stays queued.
	block := Executor(func(ctx context.Context, _ *Job) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	td := newTestDaemon(t, 1, 1, block)

	w := td.do(t, http.MethodPost, "/api/v1/jobs",
		map[string]string{"persona": "p", "input": "1"}, true)
	if w.Code != http.StatusAccepted {
		t.Fatalf("first submit = %d", w.Code)
	}
	w = td.do(t, http.MethodPost, "/api/v1/jobs",
		map[string]string{"persona": "p", "input": "2"}, true)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("second submit = %d, want 503", w.Code)
	}

	w = td.do(t, http.MethodGet, "/health", nil, false)
	var h healthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &h); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if h.Status != "degraded" {
		t.Fatalf("saturated queue must degrade health, got %q", h.Status)
	}
}

func TestGetJobNotFound(t *testing.T) {
	td := newTestDaemon(t, 1, 4, nil)
	if w := td.do(t, http.MethodGet, "/api/v1/jobs/deadbeef", nil, true); w.Code != http.StatusNotFound {
		t.Fatalf("missing job = %d, want 404", w.Code)
	}
}

func TestPoolOnDoneCallback(t *testing.T) {
	done := make(chan Job, 1)
	pool := NewPool(1, 2, func(_ context.Context, j *Job) (string, error) {
		if j.Input == "boom" {
			return "", errors.New("exploded")
		}
		return "ok", nil
	}, nil)
	pool.OnDone(func(j Job) { done <- j })

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		pool.Wait()
	}()
	pool.Start(ctx)

	if _, err := pool.Submit("p", "boom", "test"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	select {
	case j := <-done:
		if j.State != JobFailed || j.Error != "exploded" {
			t.Fatalf("callback snapshot wrong: %+v", j)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("OnDone never fired")
	}
}
