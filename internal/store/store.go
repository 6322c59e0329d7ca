// Package store holds the platform's flat JSON repositories: personas,
// the pairing allowlist, swarms and channels. Each repository is one
// JSON array file under an injected base directory, scanned linearly.
// There is no referential integrity across stores and no file locking;
// concurrent CLI invocations writing the same file keep the last write.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// readList loads a JSON array file into v. A missing file leaves v
// empty; a malformed file is an error so a damaged store never turns
// into a silent wipe on the next save.
func readList(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(b, v)
}

// writeList persists a JSON array file, creating the directory as needed.
func writeList(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
