package skill

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestScaffoldProducesValidSkill(t *testing.T) {
	parent := t.TempDir()

	m, err := Scaffold(parent, "summarizer")
	if err != nil {
		t.Fatalf("Scaffold: %v", err)
	}
	if m.Name != "summarizer" || m.Version != "0.1.0" || m.Entry != DefaultEntry {
		t.Fatalf("manifest = %+v", m)
	}

	dir := filepath.Join(parent, "summarizer")
	for _, f := range []string{ManifestFile, DefaultEntry, "README.md"} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Fatalf("missing %s: %v", f, err)
		}
	}

	res, err := Validate(dir)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !res.Valid {
		t.Fatalf("fresh scaffold invalid: %v", res.Issues)
	}

	loaded, err := LoadManifest(dir)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if !reflect.DeepEqual(loaded, m) {
		t.Fatalf("round-trip mismatch: %+v vs %+v", loaded, m)
	}
}

func TestScaffoldRejects(t *testing.T) {
	parent := t.TempDir()

	if _, err := Scaffold(parent, "Bad Name"); err == nil {
		t.Fatalf("invalid name accepted")
	}
	if _, err := Scaffold(parent, "dup"); err != nil {
		t.Fatalf("first scaffold: %v", err)
	}
	if _, err := Scaffold(parent, "dup"); !errors.Is(err, ErrSkillExists) {
		t.Fatalf("second scaffold err = %v, want ErrSkillExists", err)
	}
}

func TestValidateBytes(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		valid   bool
		problem string // substring expected in one issue
	}{
		{
			name:  "complete",
			yaml:  "name: indexer\nversion: 1.2.3\nentry: skill.md\ntags: [search, files]\n",
			valid: true,
		},
		{
			name:    "missing entry",
			yaml:    "name: indexer\nversion: 1.2.3\n",
			problem: "entry",
		},
		{
			name:    "bad version",
			yaml:    "name: indexer\nversion: latest\nentry: skill.md\n",
			problem: "version",
		},
		{
			name:    "uppercase name",
			yaml:    "name: Indexer\nversion: 1.0.0\nentry: skill.md\n",
			problem: "name",
		},
		{
			name:    "unknown field",
			yaml:    "name: indexer\nversion: 1.0.0\nentry: skill.md\nauthor: me\n",
			problem: "additional",
		},
		{
			name:    "not yaml",
			yaml:    "{{{{",
			problem: "YAML",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ValidateBytes([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("ValidateBytes: %v", err)
			}
			if res.Valid != tt.valid {
				t.Fatalf("valid = %v, issues = %v", res.Valid, res.Issues)
			}
			if tt.valid {
				return
			}
			found := false
			for _, issue := range res.Issues {
				if strings.Contains(strings.ToLower(issue), strings.ToLower(tt.problem)) {
					found = true
				}
			}
			if !found {
				t.Fatalf("no issue mentions %q: %v", tt.problem, res.Issues)
			}
		})
	}
}

func TestGenerateWritesFiles(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/skills/generate" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotBody = req["prompt"]
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name": req["name"],
			"files": []map[string]string{
				{"path": "skill.yaml", "content": "name: echoer\nversion: 0.1.0\nentry: skill.md\n"},
				{"path": "skill.md", "content": "# echoer\n"},
				{"path": "lib/helpers.md", "content": "helpers\n"},
			},
		})
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	written, err := Generate(context.Background(), GenerateOptions{
		BaseURL: srv.URL,
		Token:   "tok-1",
		Name:    "echoer",
		Prompt:  "echo things back",
		Dir:     dir,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotBody != "echo things back" {
		t.Fatalf("prompt = %q", gotBody)
	}
	if len(written) != 3 {
		t.Fatalf("written = %v", written)
	}
	data, err := os.ReadFile(filepath.Join(dir, "echoer", "lib", "helpers.md"))
	if err != nil || string(data) != "helpers\n" {
		t.Fatalf("nested file: %v %q", err, data)
	}

	res, err := Validate(filepath.Join(dir, "echoer"))
	if err != nil || !res.Valid {
		t.Fatalf("generated skill invalid: %v %v", err, res)
	}
}

func TestGenerateRejectsTraversal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"files": []map[string]string{
				{"path": "../outside.txt", "content": "nope"},
			},
		})
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	_, err := Generate(context.Background(), GenerateOptions{
		BaseURL: srv.URL, Name: "evil", Prompt: "x", Dir: dir,
	})
	if err == nil || !strings.Contains(err.Error(), "escap") {
		t.Fatalf("traversal not rejected: %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "outside.txt")); !os.IsNotExist(statErr) {
		t.Fatalf("file escaped the skill dir")
	}
}

func TestGenerateSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "generation quota exhausted"})
	}))
	t.Cleanup(srv.Close)

	_, err := Generate(context.Background(), GenerateOptions{
		BaseURL: srv.URL, Name: "s", Prompt: "p", Dir: t.TempDir(),
	})
	if err == nil || !strings.Contains(err.Error(), "quota exhausted") {
		t.Fatalf("API message lost: %v", err)
	}
}
