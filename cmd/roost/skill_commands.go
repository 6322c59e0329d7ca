package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/roosthq/roost/internal/skill"
)

// SkillNew scaffolds a skill directory under --dir.
func (c *command) SkillNew(name string, f SkillNewFlags) error {
	m, err := skill.Scaffold(f.Dir, name)
	if err != nil {
		return err
	}
	dir := filepath.Join(f.Dir, m.Name)
	fmt.Fprintf(c.out, "skill %s %s scaffolded in %s\n", m.Name, m.Version, dir)
	fmt.Fprintf(c.out, "edit %s, then check it with: roost skill validate %s\n",
		filepath.Join(dir, m.Entry), dir)
	return nil
}

// SkillValidate checks a skill manifest against the schema. Issues go
// to stdout one per line; an invalid manifest fails the command.
func (c *command) SkillValidate(dir string) error {
	res, err := skill.Validate(dir)
	if err != nil {
		return err
	}
	manifest := filepath.Join(dir, skill.ManifestFile)
	if res.Valid {
		fmt.Fprintf(c.out, "%s: valid\n", manifest)
		return nil
	}
	for _, issue := range res.Issues {
		fmt.Fprintf(c.out, "  - %s\n", issue)
	}
	return fmt.Errorf("%s: %d issue(s)", manifest, len(res.Issues))
}

// SkillGenerate asks the platform API to write a skill from a prompt.
func (c *command) SkillGenerate(f SkillGenerateFlags) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	opts := skill.GenerateOptions{
		BaseURL: cfg.API.BaseURL,
		Name:    f.Name,
		Prompt:  f.Prompt,
		Dir:     f.Dir,
		Logger:  c.logger(),
	}
	// Generation runs as the logged-in user when a session exists; an
	// unauthenticated call is the platform API's to accept or reject.
	sm, err := c.sessions()
	if err != nil {
		return err
	}
	if sess, err := sm.LoadSession(); err == nil && sess != nil {
		opts.Token = sess.Token
	}

	written, err := skill.Generate(context.Background(), opts)
	if err != nil {
		return err
	}
	dir := filepath.Join(f.Dir, f.Name)
	fmt.Fprintf(c.out, "skill %s generated (%d files in %s)\n", f.Name, len(written), dir)
	c.warnInvalidSkill(dir)
	return nil
}

// warnInvalidSkill validates a skill that arrived from outside (the
// platform API or the marketplace) and warns about problems without
// failing: the files are already on disk, and the user decides.
func (c *command) warnInvalidSkill(dir string) {
	res, err := skill.Validate(dir)
	if err != nil {
		fmt.Fprintf(c.out, "warning: %s has no readable %s\n", dir, skill.ManifestFile)
		return
	}
	if res.Valid {
		return
	}
	fmt.Fprintf(c.out, "warning: %s in %s has issues:\n", skill.ManifestFile, dir)
	for _, issue := range res.Issues {
		fmt.Fprintf(c.out, "  - %s\n", issue)
	}
}
