// Package registry checks an npm-compatible registry for newer releases
// of the CLI package. It never installs anything; `roost update --check`
// only reports.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/tidwall/gjson"
)

// ErrCurrentNotSemver marks a running build whose version string is not
// a release version (e.g. "dev"). The check still reports the latest
// release in that case.
var ErrCurrentNotSemver = errors.New("current version is not a release version")

// Client queries one package on one registry.
type Client struct {
	baseURL string
	pkg     string
	http    *http.Client
	log     *slog.Logger
}

// Option tweaks a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.log = l } }

// New builds a Client for pkg on the given registry.
func New(registryURL, pkg string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(registryURL, "/"),
		pkg:     pkg,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Latest fetches the version behind the package's "latest" dist-tag.
func (c *Client) Latest(ctx context.Context) (*semver.Version, error) {
	// Scoped names (@scope/name) must be a single path segment.
	reqURL := c.baseURL + "/" + url.PathEscape(c.pkg)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug("querying registry", "url", reqURL)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query registry: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("package %s not found on %s", c.pkg, c.baseURL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read registry response: %w", err)
	}
	tag := gjson.GetBytes(data, "dist-tags.latest").String()
	if tag == "" {
		return nil, fmt.Errorf("registry response for %s has no dist-tags.latest", c.pkg)
	}
	latest, err := semver.NewVersion(tag)
	if err != nil {
		return nil, fmt.Errorf("latest tag %q is not semver: %w", tag, err)
	}
	return latest, nil
}

// Result is the outcome of one update check.
type Result struct {
	Package         string `json:"package"`
	Current         string `json:"current"`
	Latest          string `json:"latest"`
	UpdateAvailable bool   `json:"update_available"`
}

// Check compares the running version against the registry's latest.
// When current is not parseable the Result still carries the latest
// release and the error wraps ErrCurrentNotSemver.
func (c *Client) Check(ctx context.Context, current string) (Result, error) {
	latest, err := c.Latest(ctx)
	if err != nil {
		return Result{Package: c.pkg, Current: current}, err
	}
	res := Result{Package: c.pkg, Current: current, Latest: latest.String()}

	cur, err := semver.NewVersion(current)
	if err != nil {
		return res, fmt.Errorf("%w: %q", ErrCurrentNotSemver, current)
	}
	res.Current = cur.String()
	res.UpdateAvailable = latest.GreaterThan(cur)
	return res, nil
}
