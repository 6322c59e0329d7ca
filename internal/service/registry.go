package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// Registry persists one Record per service name under a base directory.
// The directory is injected so tests can point it at a temp dir instead
// of the per-user default. There is no file locking: two CLI processes
// racing on the same record file can interleave, and callers accept the
// last write.
type Registry struct {
	dir string
}

func NewRegistry(dir string) *Registry { return &Registry{dir: dir} }

// Dir returns the base directory records live in.
func (r *Registry) Dir() string { return r.dir }

// Path returns the record file path for a service name.
func (r *Registry) Path(service string) string {
	return filepath.Join(r.dir, service+".json")
}

// Write persists rec for service, creating the base directory as needed.
func (r *Registry) Write(service string, rec Record) error {
	if err := os.MkdirAll(r.dir, 0o750); err != nil {
		return err
	}
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.Path(service), b, 0o600)
}

// Read loads the record for service. Missing and malformed files both
// come back as not found, never as an error: every caller treats them
// the same way, as "service not running".
func (r *Registry) Read(service string) (Record, bool) {
	b, err := os.ReadFile(r.Path(service))
	if err != nil {
		return Record{}, false
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return Record{}, false
	}
	if rec.PID <= 0 {
		return Record{}, false
	}
	return rec, true
}

// Delete removes the record file for service. A missing file is fine.
func (r *Registry) Delete(service string) error {
	err := os.Remove(r.Path(service))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Services lists the names that currently have a record file, sorted by
// directory order. An absent registry directory yields an empty list.
func (r *Registry) Services() []string {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".json"))
	}
	return names
}
