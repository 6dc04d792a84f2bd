package plugin

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"git.home.luguber.info/inful/readmegen/internal/buildfile"
	rgerrors "git.home.luguber.info/inful/readmegen/internal/errors"
	"git.home.luguber.info/inful/readmegen/internal/format"
	"git.home.luguber.info/inful/readmegen/internal/infer"
	"git.home.luguber.info/inful/readmegen/internal/metrics"
	"git.home.luguber.info/inful/readmegen/internal/place"
)

// fakeRecorder counts readme counter increments; everything else no-ops.
type fakeRecorder struct {
	metrics.NoopRecorder
	generated   int
	regenerated int
	skipped     int
}

func (r *fakeRecorder) IncReadmeGenerated(string, string) { r.generated++ }
func (r *fakeRecorder) IncReadmeRegenerated(string)       { r.regenerated++ }
func (r *fakeRecorder) IncWriteSkipped(string)            { r.skipped++ }

// newReadme builds a readme instance through the factory, failing the test on
// configuration errors.
func newReadme(t *testing.T, instance string, options map[string]string) *ReadmePlugin {
	t.Helper()
	inf, err := infer.New(16)
	if err != nil {
		t.Fatalf("infer.New: %v", err)
	}
	p, err := NewReadmeFactory(inf)(instance, options)
	if err != nil {
		t.Fatalf("creating %s: %v", instance, err)
	}
	return p.(*ReadmePlugin)
}

func addSource(t *testing.T, pc *Context, name, content string) {
	t.Helper()
	if err := pc.Files.Add(&buildfile.File{Name: name, Content: content}); err != nil {
		t.Fatalf("adding %s: %v", name, err)
	}
}

// TestResolveReadmeConfigInference checks that instance names alone settle
// format, placement, and filename.
func TestResolveReadmeConfigInference(t *testing.T) {
	inf, err := infer.New(16)
	if err != nil {
		t.Fatalf("infer.New: %v", err)
	}

	tests := []struct {
		instance  string
		format    format.Format
		placement place.Placement
		filename  string
	}{
		{"ReadmeMarkdownInBuild", format.Markdown, place.Build, "README.md"},
		{"ReadmePodInRoot", format.Pod, place.Root, "README.pod"},
		{"readmehtml", format.HTML, place.Build, "README.html"},
		{"ReadmeInRoot", format.Text, place.Root, "README"},
		{"WeeklyReport", format.Text, place.Build, "README"},
	}
	for _, tc := range tests {
		cfg, err := ResolveReadmeConfig(tc.instance, nil, inf)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.instance, err)
			continue
		}
		if cfg.Format != tc.format {
			t.Errorf("%s: format = %v, want %v", tc.instance, cfg.Format, tc.format)
		}
		if cfg.Placement != tc.placement {
			t.Errorf("%s: placement = %v, want %v", tc.instance, cfg.Placement, tc.placement)
		}
		if cfg.Filename != tc.filename {
			t.Errorf("%s: filename = %q, want %q", tc.instance, cfg.Filename, tc.filename)
		}
		if cfg.Source != "" {
			t.Errorf("%s: source = %q, want empty before first use", tc.instance, cfg.Source)
		}
	}
}

// TestResolveReadmeConfigExplicitOptions checks that explicit options beat
// name inference.
func TestResolveReadmeConfigExplicitOptions(t *testing.T) {
	inf, err := infer.New(16)
	if err != nil {
		t.Fatalf("infer.New: %v", err)
	}

	cfg, err := ResolveReadmeConfig("ReadmeMarkdownInBuild", map[string]string{
		"type":            "pod",
		"location":        "root",
		"filename":        "DOC.pod",
		"source_filename": "notes.md",
	}, inf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Format != format.Pod {
		t.Errorf("format = %v, want pod despite markdown in the name", cfg.Format)
	}
	if cfg.Placement != place.Root {
		t.Errorf("placement = %v, want root despite build in the name", cfg.Placement)
	}
	if cfg.Filename != "DOC.pod" {
		t.Errorf("filename = %q, want DOC.pod", cfg.Filename)
	}
	if cfg.Source != "notes.md" {
		t.Errorf("source = %q, want notes.md", cfg.Source)
	}
}

// TestResolveReadmeConfigRejects checks the fatal configuration errors.
func TestResolveReadmeConfigRejects(t *testing.T) {
	inf, err := infer.New(16)
	if err != nil {
		t.Fatalf("infer.New: %v", err)
	}

	tests := []struct {
		name     string
		options  map[string]string
		category rgerrors.ErrorCategory
	}{
		{"unknown format", map[string]string{"type": "docx"}, rgerrors.CategoryFormat},
		{"unknown placement", map[string]string{"location": "sidecar"}, rgerrors.CategoryPlacement},
		{"source equals output", map[string]string{"filename": "README.md", "source_filename": "README.md"}, rgerrors.CategoryValidation},
	}
	for _, tc := range tests {
		_, err := ResolveReadmeConfig("Readme", tc.options, inf)
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		if !rgerrors.IsCategory(err, tc.category) {
			t.Errorf("%s: category = %v, want %v", tc.name, rgerrors.GetCategory(err), tc.category)
		}
	}
}

// TestReadmeGatherFiles checks placeholder registration for build placement
// and its absence for root placement.
func TestReadmeGatherFiles(t *testing.T) {
	pc, _ := newTestContext(t)
	p := newReadme(t, "ReadmeMarkdownInBuild", nil)

	if err := p.GatherFiles(pc); err != nil {
		t.Fatalf("gather: %v", err)
	}
	f, ok := pc.Files.Get("README.md")
	if !ok {
		t.Fatal("placeholder not registered")
	}
	if !f.Generated {
		t.Error("placeholder must be marked generated")
	}
	if f.Content != "" {
		t.Errorf("placeholder content = %q, want empty", f.Content)
	}

	// A second gather must not add a duplicate.
	if err := p.GatherFiles(pc); err != nil {
		t.Fatalf("second gather: %v", err)
	}
	if pc.Files.Len() != 1 {
		t.Errorf("fileset has %d files, want 1", pc.Files.Len())
	}

	pcRoot, _ := newTestContext(t)
	root := newReadme(t, "ReadmePodInRoot", nil)
	if err := root.GatherFiles(pcRoot); err != nil {
		t.Fatalf("root gather: %v", err)
	}
	if pcRoot.Files.Len() != 0 {
		t.Errorf("root placement registered %d files, want 0", pcRoot.Files.Len())
	}
}

// TestReadmePruneFiles checks that only root placement drops a coincidental
// build file with the output's name.
func TestReadmePruneFiles(t *testing.T) {
	pc, _ := newTestContext(t)
	addSource(t, pc, "README.pod", "leftover from an earlier step\n")

	build := newReadme(t, "ReadmeMarkdownInBuild", nil)
	if err := build.PruneFiles(pc); err != nil {
		t.Fatalf("build prune: %v", err)
	}
	if _, ok := pc.Files.Get("README.pod"); !ok {
		t.Error("build placement pruned a file it does not own")
	}

	root := newReadme(t, "ReadmePodInRoot", nil)
	if err := root.PruneFiles(pc); err != nil {
		t.Fatalf("root prune: %v", err)
	}
	if _, ok := pc.Files.Get("README.pod"); ok {
		t.Error("root-placed output still in the build fileset after prune")
	}
}

// TestReadmeMungeBuildPlacement checks the full generate path into the build
// fileset, including the lazy source default.
func TestReadmeMungeBuildPlacement(t *testing.T) {
	pc, _ := newTestContext(t)
	rec := &fakeRecorder{}
	pc.Metrics = rec
	addSource(t, pc, "doc.go", "// # One\npackage mylib\n")

	p := newReadme(t, "ReadmeMarkdownInBuild", nil)
	if err := p.MungeFiles(pc); err != nil {
		t.Fatalf("munge: %v", err)
	}

	if got := p.Config().Source; got != "doc.go" {
		t.Errorf("source defaulted to %q, want the project main source", got)
	}
	f, ok := pc.Files.Get("README.md")
	if !ok {
		t.Fatal("readme not in build fileset")
	}
	if f.Content != "# One\n" {
		t.Errorf("content = %q, want %q", f.Content, "# One\n")
	}
	if !f.Generated {
		t.Error("readme must be marked generated")
	}
	if rec.generated != 1 {
		t.Errorf("generated counter = %d, want 1", rec.generated)
	}
}

// TestReadmeMungeMissingSource checks the fatal error when the source
// artifact never entered the build.
func TestReadmeMungeMissingSource(t *testing.T) {
	pc, _ := newTestContext(t)
	p := newReadme(t, "ReadmeMarkdownInBuild", nil)

	err := p.MungeFiles(pc)
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if !rgerrors.IsCategory(err, rgerrors.CategorySource) {
		t.Errorf("category = %v, want %v", rgerrors.GetCategory(err), rgerrors.CategorySource)
	}
}

// TestReadmeRegeneratesOnSourceMutation checks that rewriting the source
// after generation regenerates the readme with exactly one warning per
// change, and that the observation survives across mutations.
func TestReadmeRegeneratesOnSourceMutation(t *testing.T) {
	pc, h := newTestContext(t)
	rec := &fakeRecorder{}
	pc.Metrics = rec
	addSource(t, pc, "doc.go", "// # One\npackage mylib\n")

	p := newReadme(t, "ReadmeMarkdownInBuild", nil)
	if err := p.MungeFiles(pc); err != nil {
		t.Fatalf("munge: %v", err)
	}
	if n := h.count(slog.LevelWarn); n != 0 {
		t.Fatalf("%d warnings before any mutation", n)
	}

	if err := pc.Files.SetContent("doc.go", "// # Two\npackage mylib\n"); err != nil {
		t.Fatalf("mutating source: %v", err)
	}
	f, _ := pc.Files.Get("README.md")
	if f.Content != "# Two\n" {
		t.Errorf("content after mutation = %q, want %q", f.Content, "# Two\n")
	}
	if n := h.count(slog.LevelWarn); n != 1 {
		t.Errorf("%d warnings after first mutation, want exactly 1", n)
	}

	// The handler re-subscribed, so a second change regenerates again.
	if err := pc.Files.SetContent("doc.go", "// # Three\npackage mylib\n"); err != nil {
		t.Fatalf("mutating source again: %v", err)
	}
	f, _ = pc.Files.Get("README.md")
	if f.Content != "# Three\n" {
		t.Errorf("content after second mutation = %q, want %q", f.Content, "# Three\n")
	}
	if n := h.count(slog.LevelWarn); n != 2 {
		t.Errorf("%d warnings after two mutations, want 2", n)
	}
	if rec.regenerated != 2 {
		t.Errorf("regenerated counter = %d, want 2", rec.regenerated)
	}
}

// TestReadmeSkipsNoopRewrite checks that a rewrite leaving the markup intact
// neither regenerates nor warns.
func TestReadmeSkipsNoopRewrite(t *testing.T) {
	pc, h := newTestContext(t)
	rec := &fakeRecorder{}
	pc.Metrics = rec
	addSource(t, pc, "doc.go", "// # One\npackage mylib\n")

	p := newReadme(t, "ReadmeMarkdownInBuild", nil)
	if err := p.MungeFiles(pc); err != nil {
		t.Fatalf("munge: %v", err)
	}

	// Same doc comment, different code below it.
	if err := pc.Files.SetContent("doc.go", "// # One\npackage mylib\n\nvar Version = \"v2\"\n"); err != nil {
		t.Fatalf("mutating source: %v", err)
	}
	if n := h.count(slog.LevelWarn); n != 0 {
		t.Errorf("%d warnings for a markup-preserving rewrite, want 0", n)
	}
	if rec.regenerated != 0 {
		t.Errorf("regenerated counter = %d, want 0", rec.regenerated)
	}
	if rec.skipped != 1 {
		t.Errorf("skipped counter = %d, want 1", rec.skipped)
	}

	// The no-op still re-subscribed; a real change afterwards must land.
	if err := pc.Files.SetContent("doc.go", "// # Two\npackage mylib\n"); err != nil {
		t.Fatalf("mutating source: %v", err)
	}
	f, _ := pc.Files.Get("README.md")
	if f.Content != "# Two\n" {
		t.Errorf("content = %q, want %q", f.Content, "# Two\n")
	}
}

// TestReadmeDoubleMungeSingleSubscription checks that running the generate
// phase twice leaves one subscription, not two.
func TestReadmeDoubleMungeSingleSubscription(t *testing.T) {
	pc, h := newTestContext(t)
	addSource(t, pc, "doc.go", "// # One\npackage mylib\n")

	p := newReadme(t, "ReadmeMarkdownInBuild", nil)
	if err := p.MungeFiles(pc); err != nil {
		t.Fatalf("first munge: %v", err)
	}
	if err := p.MungeFiles(pc); err != nil {
		t.Fatalf("second munge: %v", err)
	}

	if err := pc.Files.SetContent("doc.go", "// # Two\npackage mylib\n"); err != nil {
		t.Fatalf("mutating source: %v", err)
	}
	if n := h.count(slog.LevelWarn); n != 1 {
		t.Errorf("%d warnings after one mutation, want 1", n)
	}
}

// TestReadmeInstancesObserveIndependently checks that two instances watching
// the same source both regenerate on one mutation.
func TestReadmeInstancesObserveIndependently(t *testing.T) {
	pc, h := newTestContext(t)
	addSource(t, pc, "doc.go", "// # One\npackage mylib\n")

	md := newReadme(t, "ReadmeMarkdownInBuild", nil)
	txt := newReadme(t, "ReadmeTextInBuild", nil)
	if err := md.MungeFiles(pc); err != nil {
		t.Fatalf("markdown munge: %v", err)
	}
	if err := txt.MungeFiles(pc); err != nil {
		t.Fatalf("text munge: %v", err)
	}

	if err := pc.Files.SetContent("doc.go", "// # Two\npackage mylib\n"); err != nil {
		t.Fatalf("mutating source: %v", err)
	}

	f, _ := pc.Files.Get("README.md")
	if f.Content != "# Two\n" {
		t.Errorf("markdown readme = %q, want %q", f.Content, "# Two\n")
	}
	f, _ = pc.Files.Get("README")
	if f.Content != "Two\n===\n" {
		t.Errorf("text readme = %q, want %q", f.Content, "Two\n===\n")
	}
	if n := h.count(slog.LevelWarn); n != 2 {
		t.Errorf("%d warnings, want one per instance", n)
	}
}

// TestReadmeRootPlacementLifecycle checks prune, staging, and the final root
// write for a root-placed readme.
func TestReadmeRootPlacementLifecycle(t *testing.T) {
	pc, _ := newTestContext(t)
	addSource(t, pc, "doc.go", "// # Root\npackage mylib\n")
	addSource(t, pc, "README.pod", "stale copy\n")

	p := newReadme(t, "ReadmePodInRoot", nil)
	if err := p.PruneFiles(pc); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if err := p.MungeFiles(pc); err != nil {
		t.Fatalf("munge: %v", err)
	}
	if _, ok := pc.Files.Get("README.pod"); ok {
		t.Error("root-placed readme leaked into the build fileset")
	}

	if err := p.AfterBuild(pc); err != nil {
		t.Fatalf("after build: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(pc.RootDir, "README.pod"))
	if err != nil {
		t.Fatalf("reading root readme: %v", err)
	}
	want := "=pod\n\n=head1 Root\n\n=cut\n"
	if string(data) != want {
		t.Errorf("root readme = %q, want %q", data, want)
	}
}

// TestReadmeRootWriteEncoding checks that a declared source encoding carries
// through to the bytes written at the project root.
func TestReadmeRootWriteEncoding(t *testing.T) {
	pc, _ := newTestContext(t)
	addSource(t, pc, "doc.go", "// <!-- encoding: iso-8859-1 -->\n// # Café\npackage mylib\n")

	p := newReadme(t, "ReadmeTextInRoot", nil)
	if err := p.MungeFiles(pc); err != nil {
		t.Fatalf("munge: %v", err)
	}
	if err := p.AfterBuild(pc); err != nil {
		t.Fatalf("after build: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(pc.RootDir, "README"))
	if err != nil {
		t.Fatalf("reading root readme: %v", err)
	}
	want := []byte("Caf\xe9\n====\n")
	if !bytes.Equal(data, want) {
		t.Errorf("root readme bytes = % x, want % x", data, want)
	}
}

// TestReadmeOverwritesExistingBuildFile checks that a non-generated file
// occupying the output name is overwritten in place.
func TestReadmeOverwritesExistingBuildFile(t *testing.T) {
	pc, _ := newTestContext(t)
	addSource(t, pc, "doc.go", "// # One\npackage mylib\n")
	addSource(t, pc, "README.md", "hand-written readme\n")

	p := newReadme(t, "ReadmeMarkdownInBuild", nil)
	if err := p.MungeFiles(pc); err != nil {
		t.Fatalf("munge: %v", err)
	}
	f, _ := pc.Files.Get("README.md")
	if f.Content != "# One\n" {
		t.Errorf("content = %q, want generated output", f.Content)
	}
}
