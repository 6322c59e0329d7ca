// Package workspace scaffolds a self-contained roost node directory:
// config, data stores and a skills directory, all rooted in one place
// so `roost --config <dir>/roost.toml` keeps every bit of state inside
// the workspace.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roosthq/roost/internal/store"
)

// ConfigFile is the config name inside a workspace.
const ConfigFile = "roost.toml"

// ErrWorkspaceExists is returned when the target already holds a config.
var ErrWorkspaceExists = errors.New("workspace already exists")

const configTemplate = `# roost node configuration
home = %q

[daemon]
port = 18789
workers = 4
queue_size = 64

[gateway]
port = 18790

# Lifecycle events can be mirrored into one or more sinks:
# [history]
# sinks = ["sqlite://%s/data/history.db"]
`

const readmeTemplate = `# %s

A roost node workspace. Everything the node needs lives here:

    roost.toml   node configuration (services read it via --config)
    data/        personas, pairings, swarms, channels, auth db
    skills/      local skills (roost skill new <name>)
    run/         PID records of running services
    log/         service logs

Start the node:

    roost --config %s up
`

// Init scaffolds a workspace in dir, creating it if needed. It returns
// the paths it wrote, for the CLI to print.
func Init(dir string) ([]string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace dir: %w", err)
	}
	cfgPath := filepath.Join(abs, ConfigFile)
	if _, err := os.Stat(cfgPath); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrWorkspaceExists, cfgPath)
	}

	for _, sub := range []string{"", "data", "skills", "run", "log"} {
		if err := os.MkdirAll(filepath.Join(abs, sub), 0o750); err != nil {
			return nil, fmt.Errorf("create workspace dir: %w", err)
		}
	}

	var written []string
	cfg := fmt.Sprintf(configTemplate, abs, abs)
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		return nil, fmt.Errorf("write config: %w", err)
	}
	written = append(written, cfgPath)

	// Seed the persona store so a fresh node can run jobs immediately.
	personas := store.NewPersonaStore(filepath.Join(abs, "data"))
	err = personas.Put(store.Persona{
		Name:         "default",
		SystemPrompt: "You are a helpful assistant.",
	})
	if err != nil {
		return nil, fmt.Errorf("seed personas: %w", err)
	}
	written = append(written, filepath.Join(abs, "data", "personas.json"))

	readmePath := filepath.Join(abs, "README.md")
	readme := fmt.Sprintf(readmeTemplate, filepath.Base(abs), cfgPath)
	if err := os.WriteFile(readmePath, []byte(readme), 0o644); err != nil {
		return nil, fmt.Errorf("write README: %w", err)
	}
	written = append(written, readmePath)

	return written, nil
}
