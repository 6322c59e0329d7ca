package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/roosthq/roost/internal/market"
	"github.com/roosthq/roost/internal/registry"
	"github.com/roosthq/roost/internal/workspace"
)

func (c *command) market() (*market.Client, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return market.New(cfg.Market.URL, market.WithLogger(c.logger())), nil
}

// MarketSearch queries the skill marketplace.
func (c *command) MarketSearch(query string, f MarketSearchFlags) error {
	m, err := c.market()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	listings, err := m.Search(ctx, query)
	if err != nil {
		return err
	}
	if f.JSON {
		return printJSON(c.out, listings)
	}
	if len(listings) == 0 {
		fmt.Fprintf(c.out, "no skills match %q\n", query)
		return nil
	}
	for _, l := range listings {
		fmt.Fprintf(c.out, "%s\t%s\t%d downloads\t%s\n", l.Slug, l.Version, l.Downloads, l.Description)
	}
	return nil
}

// MarketInfo prints one marketplace listing.
func (c *command) MarketInfo(slug string) error {
	m, err := c.market()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	listing, err := m.Info(ctx, slug)
	if err != nil {
		return err
	}
	return printJSON(c.out, listing)
}

// MarketInstall downloads a marketplace skill into --dir.
func (c *command) MarketInstall(slug string, f MarketInstallFlags) error {
	m, err := c.market()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	written, err := m.Install(ctx, slug, f.Dir)
	if err != nil {
		return err
	}
	dir := filepath.Join(f.Dir, slug)
	fmt.Fprintf(c.out, "skill %s installed (%d files in %s)\n", slug, len(written), dir)
	c.warnInvalidSkill(dir)
	return nil
}

// UpdateCheck asks the npm registry whether a newer CLI is published.
// Roost never replaces its own binary; updating stays an npm operation.
func (c *command) UpdateCheck(f UpdateFlags) error {
	if !f.Check {
		return errors.New("self-update is not supported, run 'roost update --check' and update via npm")
	}
	cfg, err := c.config()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	reg := registry.New(cfg.Registry.URL, cfg.Registry.Package, registry.WithLogger(c.logger()))
	res, err := reg.Check(ctx, version)
	if err != nil && !errors.Is(err, registry.ErrCurrentNotSemver) {
		return err
	}
	if f.JSON {
		return printJSON(c.out, res)
	}
	switch {
	case errors.Is(err, registry.ErrCurrentNotSemver):
		fmt.Fprintf(c.out, "running a development build (%s); latest published %s is %s\n",
			res.Current, res.Package, res.Latest)
	case res.UpdateAvailable:
		fmt.Fprintf(c.out, "update available: %s -> %s\n", res.Current, res.Latest)
		fmt.Fprintf(c.out, "install it with: npm install -g %s@%s\n", res.Package, res.Latest)
	default:
		fmt.Fprintf(c.out, "roost %s is up to date\n", res.Current)
	}
	return nil
}

// InitWorkspace scaffolds a node workspace in dir.
func (c *command) InitWorkspace(dir string) error {
	written, err := workspace.Init(dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "workspace initialized in %s:\n", dir)
	for _, path := range written {
		fmt.Fprintf(c.out, "  %s\n", path)
	}
	cfgPath := filepath.Join(dir, workspace.ConfigFile)
	fmt.Fprintf(c.out, "bring the node up with: roost --config %s up\n", cfgPath)
	return nil
}
