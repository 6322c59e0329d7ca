package skill

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// GenerateOptions drives one skill-generation call against the hosted
// platform API.
type GenerateOptions struct {
	BaseURL string        // platform API base, e.g. https://api.roosthq.dev
	Token   string        // bearer token from roost login
	Name    string        // skill name, becomes the directory name
	Prompt  string        // what the skill should do
	Dir     string        // parent directory for the generated skill
	Timeout time.Duration // per-request; generation is slow, default 120s
	Logger  *slog.Logger
}

// Generate asks the platform API to write a skill and materializes the
// returned files under Dir/Name. The response is parsed tolerantly:
// only a files array with path/content pairs is required, everything
// else is optional.
func Generate(ctx context.Context, opts GenerateOptions) ([]string, error) {
	if opts.Name == "" || opts.Prompt == "" {
		return nil, fmt.Errorf("skill name and prompt are required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	body, err := json.Marshal(map[string]string{"name": opts.Name, "prompt": opts.Prompt})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	url := strings.TrimRight(opts.BaseURL, "/") + "/v1/skills/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}

	log.Debug("requesting skill generation", "name", opts.Name, "url", url)
	httpClient := &http.Client{Timeout: timeout}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call platform API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(data, "error").String()
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("platform API: %s", msg)
	}

	raw := gjson.GetBytes(data, "files")
	if !raw.IsArray() || len(raw.Array()) == 0 {
		return nil, fmt.Errorf("platform API returned no files")
	}
	var files []File
	for _, f := range raw.Array() {
		files = append(files, File{Path: f.Get("path").String(), Content: f.Get("content").String()})
	}

	written, err := WriteFiles(filepath.Join(opts.Dir, opts.Name), files)
	if err != nil {
		return nil, err
	}
	if len(written) == 0 {
		return nil, fmt.Errorf("platform API returned no usable files")
	}
	log.Info("skill generated", "name", opts.Name, "files", len(written))
	return written, nil
}
