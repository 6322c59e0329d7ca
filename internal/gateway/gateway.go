// Package gateway exposes inbound channel webhooks and forwards
// messages from paired senders to the agent daemon as jobs. It holds no
// state of its own: channels and pairings come from the JSON stores,
// execution lives in the daemon.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roosthq/roost/internal/config"
	"github.com/roosthq/roost/internal/httpx"
	"github.com/roosthq/roost/internal/metrics"
	"github.com/roosthq/roost/internal/store"
	"github.com/roosthq/roost/pkg/client"
)

const headerChannelSecret = "X-Channel-Secret"

// Options configures a Gateway.
type Options struct {
	Version  string
	Port     int
	Channels *store.ChannelStore
	Pairings *store.PairingStore
	Daemon   *client.Client
	Logger   *slog.Logger
}

// Gateway is the channel-facing HTTP front of the node.
type Gateway struct {
	version  string
	port     int
	channels *store.ChannelStore
	pairings *store.PairingStore
	daemon   *client.Client
	log      *slog.Logger
	started  time.Time
}

// New wires a Gateway from its options.
func New(opts Options) *Gateway {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		version:  opts.Version,
		port:     opts.Port,
		channels: opts.Channels,
		pairings: opts.Pairings,
		daemon:   opts.Daemon,
		log:      log,
		started:  time.Now(),
	}
}

// Handler builds the gateway's HTTP surface.
func (g *Gateway) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.Observe(config.ServiceGateway))

	r.GET("/health", g.handleHealth)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.POST("/inbound/:channel", g.handleInbound)
	return r
}

// Run serves on the loopback interface until ctx is canceled.
func (g *Gateway) Run(ctx context.Context) error {
	srv := httpx.NewServer("127.0.0.1:"+strconv.Itoa(g.port), g.Handler())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	g.log.Info("gateway listening", "addr", srv.Addr, "version", g.version)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	err := srv.Shutdown(shutdownCtx)
	g.log.Info("gateway stopped")
	return err
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Channels      int    `json:"channels"`
}

func (g *Gateway) handleHealth(c *gin.Context) {
	channels, err := g.channels.List()
	if err != nil {
		// The gateway can still route; a broken store only hides the count.
		g.log.Warn("channel store unreadable", "error", err)
	}
	c.JSON(http.StatusOK, healthResponse{
		Status:        "ok",
		Version:       g.version,
		UptimeSeconds: int64(time.Since(g.started).Seconds()),
		Channels:      len(channels),
	})
}

type inboundRequest struct {
	Sender  string `json:"sender" binding:"required"`
	Text    string `json:"text" binding:"required"`
	Persona string `json:"persona"`
}

type inboundResponse struct {
	JobID string `json:"job_id"`
	State string `json:"state"`
}

// handleInbound is the whole point of the gateway: check the channel,
// check the sender, hand the message to the daemon.
func (g *Gateway) handleInbound(c *gin.Context) {
	name := c.Param("channel")

	ch, err := g.channels.Get(name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown channel: " + name})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ch.Secret != "" && c.GetHeader(headerChannelSecret) != ch.Secret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid channel secret"})
		return
	}

	var req inboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if !g.pairings.Allowed(name, req.Sender) {
		metrics.IncInbound(name, "unpaired")
		c.JSON(http.StatusForbidden, gin.H{
			"error": fmt.Sprintf("sender %s is not paired with channel %s", req.Sender, name),
			"hint":  fmt.Sprintf("roost pair add --channel %s --sender %s", name, req.Sender),
		})
		return
	}

	persona := req.Persona
	if persona == "" {
		persona = ch.Options["persona"]
	}
	if persona == "" {
		persona = "default"
	}

	job, err := g.daemon.SubmitJob(c.Request.Context(), client.SubmitJobRequest{
		Persona: persona,
		Input:   req.Text,
		Source:  "gateway:" + name,
	})
	if err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			metrics.IncInbound(name, "busy")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "agent daemon busy: " + err.Error()})
			return
		}
		metrics.IncInbound(name, "daemon_error")
		g.log.Error("job forward failed", "channel", name, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "agent daemon unreachable: " + err.Error()})
		return
	}

	metrics.IncInbound(name, "accepted")
	g.log.Info("inbound message forwarded",
		"channel", name, "sender", req.Sender, "persona", persona, "job", job.ID)
	c.JSON(http.StatusAccepted, inboundResponse{JobID: job.ID, State: job.State})
}
