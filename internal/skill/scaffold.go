package skill

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// DefaultEntry is the instruction file a fresh skill starts with.
const DefaultEntry = "skill.md"

var nameRe = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// ErrSkillExists is returned when the target directory already holds a
// manifest.
var ErrSkillExists = errors.New("skill already exists")

// Scaffold creates a new skill directory under parent: manifest, entry
// stub and README.
func Scaffold(parent, name string) (Manifest, error) {
	if !nameRe.MatchString(name) {
		return Manifest{}, fmt.Errorf("invalid skill name %q: must be lowercase letters, digits and dashes", name)
	}
	dir := filepath.Join(parent, name)
	if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err == nil {
		return Manifest{}, fmt.Errorf("%w: %s", ErrSkillExists, dir)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return Manifest{}, fmt.Errorf("create skill dir: %w", err)
	}

	m := Manifest{
		Name:    name,
		Version: "0.1.0",
		Entry:   DefaultEntry,
	}
	if err := WriteManifest(dir, m); err != nil {
		return Manifest{}, err
	}

	entry := fmt.Sprintf("# %s\n\nDescribe what the agent should do when this skill is invoked.\n", name)
	if err := os.WriteFile(filepath.Join(dir, DefaultEntry), []byte(entry), 0o644); err != nil {
		return Manifest{}, fmt.Errorf("write entry stub: %w", err)
	}

	readme := fmt.Sprintf("# %s\n\nA roost skill. Edit %s, bump the version in %s, then validate:\n\n    roost skill validate %s\n",
		name, DefaultEntry, ManifestFile, dir)
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte(readme), 0o644); err != nil {
		return Manifest{}, fmt.Errorf("write README: %w", err)
	}
	return m, nil
}
