package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roosthq/roost/internal/store"
	"github.com/roosthq/roost/pkg/client"
)

func init() { gin.SetMode(gin.TestMode) }

// fakeDaemon accepts every job and remembers the last submission.
type fakeDaemon struct {
	srv  *httptest.Server
	last atomic.Pointer[client.SubmitJobRequest]
	full atomic.Bool
}

func newFakeDaemon(t *testing.T) *fakeDaemon {
	t.Helper()
	fd := &fakeDaemon{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/jobs", func(w http.ResponseWriter, r *http.Request) {
		var req client.SubmitJobRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		fd.last.Store(&req)
		if fd.full.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(client.ErrorResponse{Error: "job queue full"})
			return
		}
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(client.Job{ID: "j-42", Persona: req.Persona, State: "queued"})
	})
	fd.srv = httptest.NewServer(mux)
	t.Cleanup(fd.srv.Close)
	return fd
}

type testGateway struct {
	g        *Gateway
	handler  http.Handler
	daemon   *fakeDaemon
	channels *store.ChannelStore
	pairings *store.PairingStore
}

func newTestGateway(t *testing.T) *testGateway {
	t.Helper()
	dir := t.TempDir()
	channels := store.NewChannelStore(dir)
	pairings := store.NewPairingStore(dir)
	fd := newFakeDaemon(t)

	g := New(Options{
		Version:  "0.0.0-test",
		Port:     0,
		Channels: channels,
		Pairings: pairings,
		Daemon:   client.New(client.Config{BaseURL: fd.srv.URL, Timeout: time.Second}),
	})
	return &testGateway{g: g, handler: g.Handler(), daemon: fd, channels: channels, pairings: pairings}
}

func (tg *testGateway) inbound(t *testing.T, channel string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/inbound/"+channel, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	tg.handler.ServeHTTP(w, req)
	return w
}

func TestHealthCountsChannels(t *testing.T) {
	tg := newTestGateway(t)
	for _, name := range []string{"tg-main", "discord-dev"} {
		if err := tg.channels.Add(store.Channel{Name: name, Kind: "web"}); err != nil {
			t.Fatalf("seed channel: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	tg.handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("health = %d", w.Code)
	}
	var h healthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &h); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if h.Status != "ok" || h.Channels != 2 || h.Version != "0.0.0-test" {
		t.Fatalf("health = %+v", h)
	}
}

func TestInboundUnknownChannel(t *testing.T) {
	tg := newTestGateway(t)
	w := tg.inbound(t, "ghost", map[string]string{"sender": "alice", "text": "hi"}, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown channel = %d, want 404", w.Code)
	}
}

func TestInboundUnpairedSender(t *testing.T) {
	tg := newTestGateway(t)
	if err := tg.channels.Add(store.Channel{Name: "tg-main", Kind: "telegram"}); err != nil {
		t.Fatal(err)
	}

	w := tg.inbound(t, "tg-main", map[string]string{"sender": "mallory", "text": "hi"}, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("unpaired sender = %d, want 403", w.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["hint"] == "" {
		t.Fatalf("403 must carry a pairing hint, got %v", resp)
	}
	if tg.daemon.last.Load() != nil {
		t.Fatalf("unpaired message must not reach the daemon")
	}
}

func TestInboundForwardsPairedMessage(t *testing.T) {
	tg := newTestGateway(t)
	if err := tg.channels.Add(store.Channel{
		Name: "tg-main", Kind: "telegram",
		Options: map[string]string{"persona": "concierge"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := tg.pairings.Add(store.Pairing{Channel: "tg-main", Sender: "alice"}); err != nil {
		t.Fatal(err)
	}

	w := tg.inbound(t, "tg-main", map[string]string{"sender": "alice", "text": "status report"}, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("paired inbound = %d: %s", w.Code, w.Body.String())
	}
	var resp inboundResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.JobID != "j-42" || resp.State != "queued" {
		t.Fatalf("response = %+v", resp)
	}

	got := tg.daemon.last.Load()
	if got == nil {
		t.Fatalf("daemon never saw the job")
	}
	if got.Persona != "concierge" {
		t.Fatalf("persona = %q, want channel default", got.Persona)
	}
	if got.Input != "status report" || got.Source != "gateway:tg-main" {
		t.Fatalf("forwarded job = %+v", got)
	}
}

func TestInboundExplicitPersonaWins(t *testing.T) {
	tg := newTestGateway(t)
	if err := tg.channels.Add(store.Channel{
		Name: "web", Kind: "web",
		Options: map[string]string{"persona": "concierge"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := tg.pairings.Add(store.Pairing{Channel: "web", Sender: "alice"}); err != nil {
		t.Fatal(err)
	}

	w := tg.inbound(t, "web",
		map[string]string{"sender": "alice", "text": "hi", "persona": "researcher"}, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("inbound = %d", w.Code)
	}
	if got := tg.daemon.last.Load(); got == nil || got.Persona != "researcher" {
		t.Fatalf("explicit persona lost: %+v", got)
	}
}

func TestInboundChannelSecret(t *testing.T) {
	tg := newTestGateway(t)
	if err := tg.channels.Add(store.Channel{Name: "hooked", Kind: "web", Secret: "s3cr3t"}); err != nil {
		t.Fatal(err)
	}
	if err := tg.pairings.Add(store.Pairing{Channel: "hooked", Sender: "alice"}); err != nil {
		t.Fatal(err)
	}
	body := map[string]string{"sender": "alice", "text": "hi"}

	if w := tg.inbound(t, "hooked", body, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing secret = %d, want 401", w.Code)
	}
	if w := tg.inbound(t, "hooked", body, map[string]string{headerChannelSecret: "wrong"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret = %d, want 401", w.Code)
	}
	if w := tg.inbound(t, "hooked", body, map[string]string{headerChannelSecret: "s3cr3t"}); w.Code != http.StatusAccepted {
		t.Fatalf("correct secret = %d, want 202", w.Code)
	}
}

func TestInboundDaemonBusy(t *testing.T) {
	tg := newTestGateway(t)
	if err := tg.channels.Add(store.Channel{Name: "web", Kind: "web"}); err != nil {
		t.Fatal(err)
	}
	if err := tg.pairings.Add(store.Pairing{Channel: "web", Sender: "alice"}); err != nil {
		t.Fatal(err)
	}
	tg.daemon.full.Store(true)

	w := tg.inbound(t, "web", map[string]string{"sender": "alice", "text": "hi"}, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("busy daemon = %d, want 503", w.Code)
	}
}

func TestInboundDaemonUnreachable(t *testing.T) {
	tg := newTestGateway(t)
	if err := tg.channels.Add(store.Channel{Name: "web", Kind: "web"}); err != nil {
		t.Fatal(err)
	}
	if err := tg.pairings.Add(store.Pairing{Channel: "web", Sender: "alice"}); err != nil {
		t.Fatal(err)
	}
	tg.daemon.srv.Close() // nothing listening anymore

	w := tg.inbound(t, "web", map[string]string{"sender": "alice", "text": "hi"}, nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("dead daemon = %d, want 502", w.Code)
	}
}
