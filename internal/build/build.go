// Package build renders incentive content to PDF by driving containerized
// pandoc and weasyprint, then bundles each incentive's assets.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"incentives/internal/config"
	"incentives/internal/logging"
)

// ErrMissingContent is returned when an incentive has no content.md.
var ErrMissingContent = errors.New("content.md not found")

const (
	contentFile = "content.md"
	assetsDir   = "assets"
	mountPoint  = "/data"
)

// Artifact lists the files produced for one incentive, relative to Root.
type Artifact struct {
	Name   string `json:"name"`
	PDF    string `json:"pdf"`
	Assets string `json:"assets,omitempty"`
}

type Builder struct {
	Root   string
	Config config.BuildConfig
	Runner Runner
	Out    io.Writer
	Logger *slog.Logger
}

func (b *Builder) out() io.Writer {
	if b.Out == nil {
		return io.Discard
	}
	return b.Out
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger == nil {
		return logging.Discard()
	}
	return b.Logger
}

// IncentiveDir returns the source directory of an incentive.
func IncentiveDir(root, name string) string {
	return filepath.Join(root, "incentives", name)
}

// DistDir returns the output directory of an incentive.
func DistDir(root, name string) string {
	return filepath.Join(root, "dist", "incentives", name)
}

// List returns the incentives under root that have content, sorted by name.
func List(root string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(root, "incentives"))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, "incentives", e.Name(), contentFile)); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// BuildAll builds every incentive returned by List, stopping at the first
// failure.
func (b *Builder) BuildAll(ctx context.Context) ([]Artifact, error) {
	names, err := List(b.Root)
	if err != nil {
		return nil, err
	}
	var arts []Artifact
	for _, name := range names {
		a, err := b.BuildOne(ctx, name)
		if err != nil {
			return arts, err
		}
		arts = append(arts, a)
	}
	return arts, nil
}

// BuildOne renders incentives/<name>/content.md to dist/incentives/<name>/content.pdf
// and zips its assets directory when it has entries. No tool is invoked
// when content.md is missing.
func (b *Builder) BuildOne(ctx context.Context, name string) (Artifact, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return Artifact{}, fmt.Errorf("invalid incentive name %q", name)
	}
	srcDir := IncentiveDir(b.Root, name)
	content := filepath.Join(srcDir, contentFile)
	if _, err := os.Stat(content); err != nil {
		if os.IsNotExist(err) {
			return Artifact{}, fmt.Errorf("%s: %w", content, ErrMissingContent)
		}
		return Artifact{}, err
	}
	distDir := DistDir(b.Root, name)
	if err := os.MkdirAll(distDir, 0o755); err != nil {
		return Artifact{}, err
	}
	fmt.Fprintf(b.out(), "Building: %s\n", name)
	b.logger().Debug("build start", "incentive", name, "root", b.Root)

	root, err := filepath.Abs(b.Root)
	if err != nil {
		return Artifact{}, err
	}
	if err := b.Runner.Run(ctx, b.docker(), b.pandocArgs(root, name)...); err != nil {
		return Artifact{}, err
	}
	if err := b.Runner.Run(ctx, b.docker(), b.weasyprintArgs(root, name)...); err != nil {
		return Artifact{}, err
	}
	if err := os.Remove(filepath.Join(distDir, "content.html")); err != nil && !os.IsNotExist(err) {
		return Artifact{}, err
	}

	art := Artifact{Name: name, PDF: b.rel(filepath.Join(distDir, "content.pdf"))}
	fmt.Fprintf(b.out(), "Built: %s\n", art.PDF)

	zipPath := filepath.Join(distDir, "assets.zip")
	n, err := ZipAssets(filepath.Join(srcDir, assetsDir), zipPath)
	if err != nil {
		return Artifact{}, fmt.Errorf("bundle assets for %s: %w", name, err)
	}
	if n >= 0 {
		art.Assets = b.rel(zipPath)
		fmt.Fprintf(b.out(), "Built: %s\n", art.Assets)
		b.logger().Debug("assets bundled", "incentive", name, "files", n)
	}
	return art, nil
}

func (b *Builder) docker() string {
	if b.Config.Docker == "" {
		return "docker"
	}
	return b.Config.Docker
}

func (b *Builder) dockerRun(root string) []string {
	return []string{"run", "--rm", "--platform", b.Config.Platform, "-v", root + ":" + mountPoint}
}

func (b *Builder) pandocArgs(root, name string) []string {
	src := mountPoint + "/incentives/" + name
	dist := mountPoint + "/dist/incentives/" + name
	return append(b.dockerRun(root),
		b.Config.PandocImage,
		src+"/"+contentFile,
		"-o", dist+"/content.html",
		"--css="+b.Config.CSS,
		"--resource-path="+src+":"+src+"/"+assetsDir,
		"--embed-resources",
		"--standalone",
	)
}

func (b *Builder) weasyprintArgs(root, name string) []string {
	dist := mountPoint + "/dist/incentives/" + name
	return append(b.dockerRun(root),
		b.Config.WeasyprintImage,
		dist+"/content.html",
		dist+"/content.pdf",
	)
}

func (b *Builder) rel(path string) string {
	r, err := filepath.Rel(b.Root, path)
	if err != nil || strings.HasPrefix(r, "..") {
		return path
	}
	return filepath.ToSlash(r)
}
