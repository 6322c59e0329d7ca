// Package market is a thin client for the skill marketplace: search,
// listing details, and installing a skill's files into a local
// directory. All responses are parsed tolerantly; the marketplace
// evolves faster than this CLI ships.
package market

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/roosthq/roost/internal/skill"
)

// Listing is one marketplace entry.
type Listing struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Version     string   `json:"version,omitempty"`
	Author      string   `json:"author,omitempty"`
	Downloads   int64    `json:"downloads,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Client talks to one marketplace.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// Option tweaks a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.log = l } }

// New builds a marketplace client.
func New(marketURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(marketURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search returns listings matching the query.
func (c *Client) Search(ctx context.Context, query string) ([]Listing, error) {
	data, err := c.get(ctx, "/api/v1/skills?q="+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}

	// Accept both a bare array and an object wrapping one.
	root := gjson.ParseBytes(data)
	items := root
	if !root.IsArray() {
		items = root.Get("skills")
	}
	if !items.IsArray() {
		return nil, fmt.Errorf("marketplace returned an unexpected search payload")
	}
	var out []Listing
	for _, item := range items.Array() {
		out = append(out, listingFrom(item))
	}
	return out, nil
}

// Info fetches one listing by slug.
func (c *Client) Info(ctx context.Context, slug string) (Listing, error) {
	data, err := c.get(ctx, "/api/v1/skills/"+url.PathEscape(slug))
	if err != nil {
		return Listing{}, err
	}
	l := listingFrom(gjson.ParseBytes(data))
	if l.Slug == "" && l.Name == "" {
		return Listing{}, fmt.Errorf("marketplace returned an unexpected listing payload")
	}
	return l, nil
}

// Install downloads a skill's files and writes them under destDir/slug.
// It returns the written paths.
func (c *Client) Install(ctx context.Context, slug, destDir string) ([]string, error) {
	data, err := c.get(ctx, "/api/v1/skills/"+url.PathEscape(slug)+"/download")
	if err != nil {
		return nil, err
	}

	raw := gjson.GetBytes(data, "files")
	if !raw.IsArray() || len(raw.Array()) == 0 {
		return nil, fmt.Errorf("marketplace returned no files for %s", slug)
	}
	var files []skill.File
	for _, f := range raw.Array() {
		files = append(files, skill.File{Path: f.Get("path").String(), Content: f.Get("content").String()})
	}

	written, err := skill.WriteFiles(filepath.Join(destDir, slug), files)
	if err != nil {
		return nil, err
	}
	if len(written) == 0 {
		return nil, fmt.Errorf("marketplace returned no usable files for %s", slug)
	}
	c.log.Info("skill installed", "slug", slug, "files", len(written))
	return written, nil
}

// get performs one GET and surfaces the API's error message on non-200s.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call marketplace: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read marketplace response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(data, "error").String()
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("marketplace: %s", msg)
	}
	return data, nil
}

func listingFrom(g gjson.Result) Listing {
	l := Listing{
		Slug:        g.Get("slug").String(),
		Name:        g.Get("name").String(),
		Description: g.Get("description").String(),
		Version:     g.Get("version").String(),
		Author:      g.Get("author").String(),
		Downloads:   g.Get("downloads").Int(),
	}
	for _, tag := range g.Get("tags").Array() {
		l.Tags = append(l.Tags, tag.String())
	}
	return l
}
