package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/roosthq/roost"
)

// embedded_supervise: run a service under roost supervision from your own
// program: launch it detached, wait for readiness, inspect it, stop it.
// By default it supervises a throwaway sleep; point ROOST_EXAMPLE_BIN at a
// real service binary (and ROOST_EXAMPLE_PORT at its health port) to watch
// the HTTP readiness probe do its work.
func main() {
	runDir := filepath.Join(os.TempDir(), fmt.Sprintf("roost-run-%d", time.Now().UnixNano()))
	_ = os.MkdirAll(runDir, 0o750)
	sup := roost.NewSupervisor(runDir)

	bin := os.Getenv("ROOST_EXAMPLE_BIN")
	var args []string
	// Without a health endpoint, launched counts as ready.
	probe := roost.Probe(func(context.Context) bool { return true })
	if bin == "" {
		bin = "/bin/sh"
		args = []string{"-c", "sleep 30"}
	}
	if v := os.Getenv("ROOST_EXAMPLE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		probe = roost.HTTPProbe(nil, roost.LocalHealthURL(port), "status", "healthy")
	}

	res, err := sup.Start(context.Background(), roost.StartOptions{
		Service: "demo",
		Bin:     bin,
		Args:    args,
		LogFile: filepath.Join(runDir, "demo.log"),
		Probe:   probe,
		Budget:  5 * time.Second,
	})
	if err != nil {
		panic(err)
	}
	fmt.Printf("started pid=%d healthy=%v (records in %s)\n", res.PID, res.Healthy, runDir)

	st := sup.Check(context.Background(), "demo", probe)
	b, _ := json.MarshalIndent(st, "", "  ")
	fmt.Println(string(b))

	if _, err := sup.Stop(roost.StopOptions{Service: "demo", Wait: 2 * time.Second}); err != nil {
		panic(err)
	}
	if _, ok := sup.Record("demo"); !ok {
		fmt.Println("stopped, record cleared")
	}
	fmt.Println("Tip: set ROOST_EXAMPLE_BIN / ROOST_EXAMPLE_PORT to supervise your own service.")
}
