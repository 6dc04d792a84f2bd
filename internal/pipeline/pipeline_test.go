package pipeline

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"git.home.luguber.info/inful/readmegen/internal/config"
	rgerrors "git.home.luguber.info/inful/readmegen/internal/errors"
	"git.home.luguber.info/inful/readmegen/internal/history"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRunner builds a Runner over a temp project containing doc.go with
// the given source content.
func newTestRunner(t *testing.T, source string, plugins ...config.PluginConfig) (*Runner, string) {
	t.Helper()
	root := t.TempDir()
	if source != "" {
		if err := os.WriteFile(filepath.Join(root, "doc.go"), []byte(source), 0o644); err != nil {
			t.Fatalf("writing doc.go: %v", err)
		}
	}

	cfg := &config.Config{
		Version: config.Version,
		Project: config.ProjectConfig{Name: "mylib", Version: "v1.2.3", MainSource: "doc.go"},
		Output:  config.OutputConfig{Dir: filepath.Join(root, "build"), Clean: true},
		Plugins: plugins,
	}

	reg, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}
	return NewRunner(cfg, root, reg, quietLogger()), root
}

// TestRunBuildsReadme checks the full build path: gather from disk, generate,
// write the output directory.
func TestRunBuildsReadme(t *testing.T) {
	r, root := newTestRunner(t, "// # mylib\n//\n// A tiny library.\npackage mylib\n",
		config.PluginConfig{Name: "ReadmeMarkdownInBuild", Family: "readme"})

	report, err := r.Run(t.Context())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Outcome != OutcomeSuccess {
		t.Errorf("outcome = %s, want success", report.Outcome)
	}
	if report.Generated != 1 {
		t.Errorf("generated = %d, want 1", report.Generated)
	}
	if report.Files != 2 {
		t.Errorf("files = %d, want doc.go plus README.md", report.Files)
	}
	if report.Project != "mylib" {
		t.Errorf("project = %q", report.Project)
	}
	if report.Duration <= 0 {
		t.Error("duration not measured")
	}

	data, err := os.ReadFile(filepath.Join(root, "build", "README.md"))
	if err != nil {
		t.Fatalf("reading output readme: %v", err)
	}
	want := "# mylib\n\nA tiny library.\n"
	if string(data) != want {
		t.Errorf("readme = %q, want %q", data, want)
	}
	if _, err := os.Stat(filepath.Join(root, "build", "doc.go")); err != nil {
		t.Errorf("gathered source missing from output: %v", err)
	}
}

// TestRunRecordsHistory checks that a build leaves a complete event trail in
// the store.
func TestRunRecordsHistory(t *testing.T) {
	r, _ := newTestRunner(t, "// # mylib\npackage mylib\n",
		config.PluginConfig{Name: "ReadmeMarkdownInBuild", Family: "readme"})

	store, err := history.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	r.WithStore(store)

	report, err := r.Run(t.Context())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	events, err := store.GetByBuildID(t.Context(), report.BuildID)
	if err != nil {
		t.Fatalf("GetByBuildID: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("%d events recorded, want started/generated/completed", len(events))
	}
	if events[0].Type() != history.TypeBuildStarted {
		t.Errorf("first event = %s", events[0].Type())
	}
	if events[1].Type() != history.TypeReadmeGenerated {
		t.Errorf("second event = %s", events[1].Type())
	}
	if events[2].Type() != history.TypeBuildCompleted {
		t.Errorf("third event = %s", events[2].Type())
	}

	sum := history.Summarize(events)
	if sum.Outcome != "success" || sum.Generated != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

// TestRunMissingSourceFails checks that a build without its source artifact
// fails with a source error and still records the failed completion.
func TestRunMissingSourceFails(t *testing.T) {
	r, _ := newTestRunner(t, "", config.PluginConfig{Name: "ReadmeMarkdownInBuild", Family: "readme"})

	store, err := history.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	r.WithStore(store)

	report, err := r.Run(t.Context())
	if err == nil {
		t.Fatal("expected missing source error")
	}
	if !rgerrors.IsCategory(err, rgerrors.CategorySource) {
		t.Errorf("category = %v, want source", rgerrors.GetCategory(err))
	}
	if report.Outcome != OutcomeFailed {
		t.Errorf("outcome = %s, want failed", report.Outcome)
	}

	events, err := store.GetByBuildID(t.Context(), report.BuildID)
	if err != nil {
		t.Fatalf("GetByBuildID: %v", err)
	}
	sum := history.Summarize(events)
	if sum.Outcome != "failed" {
		t.Errorf("recorded outcome = %q, want failed", sum.Outcome)
	}
}

// TestRunUnknownFamilyFails checks that configuration naming an unregistered
// family fails before any phase runs.
func TestRunUnknownFamilyFails(t *testing.T) {
	r, root := newTestRunner(t, "// # mylib\npackage mylib\n",
		config.PluginConfig{Name: "Mystery", Family: "ghost"})

	report, err := r.Run(t.Context())
	if err == nil {
		t.Fatal("expected unknown family error")
	}
	if !rgerrors.IsCategory(err, rgerrors.CategoryConfig) {
		t.Errorf("category = %v, want config", rgerrors.GetCategory(err))
	}
	if report.Outcome != OutcomeFailed {
		t.Errorf("outcome = %s, want failed", report.Outcome)
	}
	if _, err := os.Stat(filepath.Join(root, "build")); !os.IsNotExist(err) {
		t.Error("output directory created despite failed instance creation")
	}
}

// TestRunCleansOutputDir checks that stale output is removed before writing.
func TestRunCleansOutputDir(t *testing.T) {
	r, root := newTestRunner(t, "// # mylib\npackage mylib\n",
		config.PluginConfig{Name: "ReadmeMarkdownInBuild", Family: "readme"})

	stale := filepath.Join(root, "build", "stale.txt")
	if err := os.MkdirAll(filepath.Dir(stale), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Run(t.Context()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale output survived a clean build")
	}
}

// TestRunTwiceIsStable checks that rebuilding an unchanged project yields
// byte-identical output and no regeneration on the second pass.
func TestRunTwiceIsStable(t *testing.T) {
	r, root := newTestRunner(t, "// # mylib\n//\n// A tiny library.\npackage mylib\n",
		config.PluginConfig{Name: "ReadmeMarkdownInBuild", Family: "readme"})

	if _, err := r.Run(t.Context()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	readme := filepath.Join(root, "build", "README.md")
	first, err := os.ReadFile(readme)
	if err != nil {
		t.Fatal(err)
	}

	report, err := r.Run(t.Context())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if report.Outcome != OutcomeSuccess || report.Generated != 1 || report.Regenerated != 0 {
		t.Errorf("second report = %+v", report)
	}

	second, err := os.ReadFile(readme)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Errorf("rebuild changed output: %q vs %q", first, second)
	}
}

// TestRunStampBeforeReadme checks declaration-order execution: a stamp
// instance running first mutates the source before extraction, so no
// regeneration is needed.
func TestRunStampBeforeReadme(t *testing.T) {
	r, root := newTestRunner(t, "// # {{project}} {{version}}\npackage mylib\n",
		config.PluginConfig{Name: "StampRelease", Family: "stamp"},
		config.PluginConfig{Name: "ReadmeMarkdownInBuild", Family: "readme"})

	report, err := r.Run(t.Context())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Regenerated != 0 {
		t.Errorf("regenerated = %d, want 0 when the stamp runs first", report.Regenerated)
	}

	data, err := os.ReadFile(filepath.Join(root, "build", "README.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# mylib v1.2.3\n" {
		t.Errorf("readme = %q", data)
	}
}

// TestRunReadmeBeforeStamp checks the misordered configuration: the readme
// generates from the unstamped source, observes the mutation, and repairs its
// output within the same build.
func TestRunReadmeBeforeStamp(t *testing.T) {
	r, root := newTestRunner(t, "// # {{project}} {{version}}\npackage mylib\n",
		config.PluginConfig{Name: "ReadmeMarkdownInBuild", Family: "readme"},
		config.PluginConfig{Name: "StampRelease", Family: "stamp"})

	report, err := r.Run(t.Context())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Regenerated != 1 {
		t.Errorf("regenerated = %d, want 1 for the repaired readme", report.Regenerated)
	}

	data, err := os.ReadFile(filepath.Join(root, "build", "README.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# mylib v1.2.3\n" {
		t.Errorf("readme = %q, want stamped content after regeneration", data)
	}
}
