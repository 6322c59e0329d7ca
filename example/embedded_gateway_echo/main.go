package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/roosthq/roost"
	"github.com/roosthq/roost/pkg/client"
)

// embedded_gateway_echo: mount roost's channel gateway inside an existing
// Echo application so inbound webhooks share a listener with the host app.
// A demo channel and pairing are seeded; try:
//
//	curl -X POST localhost:8080/node/inbound/demo \
//	  -H 'Content-Type: application/json' \
//	  -d '{"sender":"anyone","text":"hello"}'
func main() {
	base := os.Getenv("GATEWAY_BASE")
	if base == "" {
		base = "/node"
	}

	dataDir := filepath.Join(os.TempDir(), fmt.Sprintf("roost-gateway-%d", time.Now().UnixNano()))
	_ = os.MkdirAll(dataDir, 0o750)

	channels := roost.NewChannelStore(dataDir)
	pairings := roost.NewPairingStore(dataDir)
	if err := channels.Add(roost.Channel{Name: "demo", Kind: "web"}); err != nil {
		log.Fatal(err)
	}
	if err := pairings.Add(roost.Pairing{Channel: "demo", Sender: "anyone"}); err != nil {
		log.Fatal(err)
	}

	// Forwards accepted messages to the local agent daemon (roost up).
	// Job submission needs a bearer token; set ROOST_DAEMON_TOKEN (for
	// instance the token from ~/.roost/session.json after roost login).
	daemonClient := client.New(client.Config{
		BaseURL: "http://127.0.0.1:18789",
		Token:   os.Getenv("ROOST_DAEMON_TOKEN"),
	})

	h := http.StripPrefix(base, roost.NewGatewayHandler(roost.GatewayOptions{
		Version:  "example",
		Channels: channels,
		Pairings: pairings,
		Daemon:   daemonClient,
	}))

	e := echo.New()
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "host app; gateway mounted under "+base)
	})
	e.Any(base, echo.WrapHandler(h))
	e.Any(base+"/*", echo.WrapHandler(h))

	log.Println("starting echo server on :8080 with gateway under", base)
	if err := e.Start(":8080"); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
