package build_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"

	"incentives/internal/build"
	"incentives/internal/config"
)

type call struct {
	name string
	args []string
}

// fakeRunner records commands and mimics the tools by writing their outputs.
type fakeRunner struct {
	root   string
	calls  []call
	failAt int
	code   int
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.failAt > 0 && len(f.calls) == f.failAt {
		return &build.ExitError{Cmd: name, Code: f.code}
	}
	last := args[len(args)-1]
	for i, a := range args {
		if a == "-o" && i+1 < len(args) {
			last = args[i+1]
		}
	}
	if rel, ok := strings.CutPrefix(last, "/data/"); ok {
		_ = os.WriteFile(filepath.Join(f.root, filepath.FromSlash(rel)), []byte("output"), 0o644)
	}
	return nil
}

func testConfig() config.BuildConfig {
	return config.Default().Build
}

func writeIncentive(t *testing.T, root, name string, assets map[string]string) {
	t.Helper()
	dir := filepath.Join(root, "incentives", name)
	if err := os.MkdirAll(filepath.Join(dir, "assets"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "content.md"), []byte("# "+name+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	for file, body := range assets {
		if err := os.WriteFile(filepath.Join(dir, "assets", file), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestBuildOneRunsPandocThenWeasyprint(t *testing.T) {
	root := t.TempDir()
	writeIncentive(t, root, "activity-schema", map[string]string{"seed.sql": "-- seed", "diagram.png": "png"})
	runner := &fakeRunner{root: root}
	var out bytes.Buffer
	b := &build.Builder{Root: root, Config: testConfig(), Runner: runner, Out: &out}

	art, err := b.BuildOne(context.Background(), "activity-schema")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(runner.calls) != 2 {
		t.Fatalf("expected 2 tool runs, got %d", len(runner.calls))
	}
	abs, _ := filepath.Abs(root)
	pandoc := strings.Join(runner.calls[0].args, " ")
	for _, want := range []string{
		"run --rm --platform linux/amd64 -v " + abs + ":/data pandoc/extra",
		"/data/incentives/activity-schema/content.md",
		"-o /data/dist/incentives/activity-schema/content.html",
		"--css=/data/assets/pdf/kozlovski-pdf.css",
		"--resource-path=/data/incentives/activity-schema:/data/incentives/activity-schema/assets",
		"--embed-resources --standalone",
	} {
		if !strings.Contains(pandoc, want) {
			t.Fatalf("pandoc args missing %q: %s", want, pandoc)
		}
	}
	weasy := strings.Join(runner.calls[1].args, " ")
	if !strings.HasSuffix(weasy, "minidocks/weasyprint:latest /data/dist/incentives/activity-schema/content.html /data/dist/incentives/activity-schema/content.pdf") {
		t.Fatalf("weasyprint args: %s", weasy)
	}
	if runner.calls[0].name != "docker" || runner.calls[1].name != "docker" {
		t.Fatalf("unexpected binaries: %s %s", runner.calls[0].name, runner.calls[1].name)
	}

	dist := build.DistDir(root, "activity-schema")
	if _, err := os.Stat(filepath.Join(dist, "content.html")); !os.IsNotExist(err) {
		t.Fatalf("intermediate html not removed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dist, "content.pdf")); err != nil {
		t.Fatalf("pdf missing: %v", err)
	}
	if art.PDF != "dist/incentives/activity-schema/content.pdf" || art.Assets != "dist/incentives/activity-schema/assets.zip" {
		t.Fatalf("unexpected artifact: %+v", art)
	}
	if !strings.Contains(out.String(), "Building: activity-schema") || !strings.Contains(out.String(), "Built: dist/incentives/activity-schema/content.pdf") {
		t.Fatalf("unexpected output: %q", out.String())
	}

	zr, err := zip.OpenReader(filepath.Join(dist, "assets.zip"))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer zr.Close()
	names := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		names[f.Name] = string(data)
	}
	if len(names) != 2 || names["seed.sql"] != "-- seed" || names["diagram.png"] != "png" {
		t.Fatalf("zip entries: %v", names)
	}
}

func TestBuildOneMissingContentRunsNothing(t *testing.T) {
	root := t.TempDir()
	runner := &fakeRunner{root: root}
	b := &build.Builder{Root: root, Config: testConfig(), Runner: runner}
	_, err := b.BuildOne(context.Background(), "ghost")
	if !errors.Is(err, build.ErrMissingContent) {
		t.Fatalf("expected ErrMissingContent, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("tools ran for missing content: %d", len(runner.calls))
	}
	if _, err := os.Stat(build.DistDir(root, "ghost")); !os.IsNotExist(err) {
		t.Fatalf("dist dir created for missing content")
	}
}

func TestBuildOneRejectsPathNames(t *testing.T) {
	b := &build.Builder{Root: t.TempDir(), Config: testConfig(), Runner: &fakeRunner{}}
	for _, name := range []string{"", ".", "..", "a/b", "../etc"} {
		if _, err := b.BuildOne(context.Background(), name); err == nil {
			t.Fatalf("name %q accepted", name)
		}
	}
}

func TestBuildOneStopsOnToolFailure(t *testing.T) {
	root := t.TempDir()
	writeIncentive(t, root, "broken", map[string]string{"a.txt": "a"})
	runner := &fakeRunner{root: root, failAt: 1, code: 3}
	b := &build.Builder{Root: root, Config: testConfig(), Runner: runner}
	_, err := b.BuildOne(context.Background(), "broken")
	var exitErr *build.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 3 {
		t.Fatalf("expected exit status 3, got %v", err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("pipeline continued after failure: %d calls", len(runner.calls))
	}
	if _, err := os.Stat(filepath.Join(build.DistDir(root, "broken"), "assets.zip")); !os.IsNotExist(err) {
		t.Fatalf("assets zipped after failure")
	}
}

func TestBuildOneWithoutAssets(t *testing.T) {
	root := t.TempDir()
	writeIncentive(t, root, "plain", nil)
	b := &build.Builder{Root: root, Config: testConfig(), Runner: &fakeRunner{root: root}}
	art, err := b.BuildOne(context.Background(), "plain")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if art.Assets != "" {
		t.Fatalf("unexpected assets bundle: %s", art.Assets)
	}
	if _, err := os.Stat(filepath.Join(build.DistDir(root, "plain"), "assets.zip")); !os.IsNotExist(err) {
		t.Fatalf("empty assets dir produced a zip")
	}
}

func TestBuildAllInNameOrder(t *testing.T) {
	root := t.TempDir()
	writeIncentive(t, root, "zeta", nil)
	writeIncentive(t, root, "alpha", nil)
	if err := os.MkdirAll(filepath.Join(root, "incentives", "drafts"), 0o755); err != nil {
		t.Fatal(err)
	}
	names, err := build.List(root)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(names, ",") != "alpha,zeta" {
		t.Fatalf("list = %v", names)
	}
	runner := &fakeRunner{root: root}
	b := &build.Builder{Root: root, Config: testConfig(), Runner: runner}
	arts, err := b.BuildAll(context.Background())
	if err != nil {
		t.Fatalf("build all: %v", err)
	}
	if len(arts) != 2 || arts[0].Name != "alpha" || arts[1].Name != "zeta" {
		t.Fatalf("artifacts: %+v", arts)
	}
	if len(runner.calls) != 4 {
		t.Fatalf("expected 4 tool runs, got %d", len(runner.calls))
	}
}

func TestZipAssetsReplacesStaleArchive(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "assets")
	if err := os.MkdirAll(filepath.Join(src, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "one.txt"), []byte("1"), 0o644); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(dir, "assets.zip")
	if err := os.WriteFile(dest, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	n, err := build.ZipAssets(src, dest)
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	if n != 1 {
		t.Fatalf("zipped %d files, want 1", n)
	}
	zr, err := zip.OpenReader(dest)
	if err != nil {
		t.Fatalf("stale archive not replaced: %v", err)
	}
	zr.Close()

	if n, err := build.ZipAssets(filepath.Join(dir, "missing"), filepath.Join(dir, "x.zip")); err != nil || n != -1 {
		t.Fatalf("missing dir: n=%d err=%v", n, err)
	}
}

func TestExecRunnerReportsExitStatus(t *testing.T) {
	var echo bytes.Buffer
	r := build.ExecRunner{Echo: &echo, Stdout: io.Discard, Stderr: io.Discard}
	err := r.Run(context.Background(), "sh", "-c", "exit 4")
	var exitErr *build.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 4 {
		t.Fatalf("expected exit status 4, got %v", err)
	}
	if echo.String() != "  $ sh -c exit 4\n" {
		t.Fatalf("echo = %q", echo.String())
	}
	if err := r.Run(context.Background(), "sh", "-c", "true"); err != nil {
		t.Fatalf("true failed: %v", err)
	}
}
