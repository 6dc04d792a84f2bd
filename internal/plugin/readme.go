package plugin

import (
	"log/slog"

	"github.com/pmezard/go-difflib/difflib"

	"git.home.luguber.info/inful/readmegen/internal/buildfile"
	rgerrors "git.home.luguber.info/inful/readmegen/internal/errors"
	"git.home.luguber.info/inful/readmegen/internal/extract"
	"git.home.luguber.info/inful/readmegen/internal/format"
	"git.home.luguber.info/inful/readmegen/internal/history"
	"git.home.luguber.info/inful/readmegen/internal/infer"
	"git.home.luguber.info/inful/readmegen/internal/logfields"
	"git.home.luguber.info/inful/readmegen/internal/place"
)

const (
	// FamilyReadme is the registry name of the readme plugin family.
	FamilyReadme = "readme"

	// DefaultSourceFilename is the conventional markup source when neither
	// configuration nor project metadata names one.
	DefaultSourceFilename = "doc.go"

	readmeVersion = "v1.4.0"
)

// ReadmeConfig is the resolved configuration of one readme instance.
type ReadmeConfig struct {
	Format    format.Format
	Filename  string
	Source    string // empty until lazily defaulted on first munge
	Placement place.Placement
}

// ResolveReadmeConfig fills the configuration from explicit options, name
// inference, and the (text, build) fallback, in that order. The inferencer
// must be non-nil; instances created from one factory share its memo table.
// The source filename stays empty here and is lazily defaulted against the
// project's main source on first use.
func ResolveReadmeConfig(instance string, options map[string]string, inf *infer.Inferencer) (ReadmeConfig, error) {
	inferred := inf.Infer(instance)

	var cfg ReadmeConfig
	if raw := options["type"]; raw != "" {
		f, err := format.Parse(raw)
		if err != nil {
			return ReadmeConfig{}, err
		}
		cfg.Format = f
	} else if inferred.Format != format.Unknown {
		cfg.Format = inferred.Format
	} else {
		cfg.Format = format.Text
	}

	if raw := options["location"]; raw != "" {
		p, err := place.Parse(raw)
		if err != nil {
			return ReadmeConfig{}, err
		}
		cfg.Placement = p
	} else if inferred.Placement != place.Unknown {
		cfg.Placement = inferred.Placement
	} else {
		cfg.Placement = place.Build
	}

	cfg.Filename = options["filename"]
	if cfg.Filename == "" {
		cfg.Filename = cfg.Format.DefaultFilename()
	}

	cfg.Source = options["source_filename"]
	if cfg.Source != "" && cfg.Source == cfg.Filename {
		return ReadmeConfig{}, rgerrors.ValidationFailed("source_filename",
			"readme cannot use its own output as source")
	}
	return cfg, nil
}

// ReadmePlugin converts a source artifact's documentation markup into a
// readme artifact and keeps it consistent when a later build step rewrites
// the source. Generated content is a pure function of the current source
// content and the configured format; the mutation subscription restores that
// invariant whenever the source changes after extraction.
type ReadmePlugin struct {
	meta Metadata
	cfg  ReadmeConfig

	lastExtracted string
	encoding      string
	pending       string
}

// NewReadmeFactory returns a Factory producing readme instances that share
// one inference memo table.
func NewReadmeFactory(inf *infer.Inferencer) Factory {
	return func(instance string, options map[string]string) (Plugin, error) {
		cfg, err := ResolveReadmeConfig(instance, options, inf)
		if err != nil {
			return nil, err
		}
		return &ReadmePlugin{
			meta: Metadata{
				Name:        instance,
				Family:      FamilyReadme,
				Version:     readmeVersion,
				Description: "generates a readme from the project's documentation markup",
			},
			cfg: cfg,
		}, nil
	}
}

// Metadata implements Plugin.
func (p *ReadmePlugin) Metadata() Metadata { return p.meta }

// Config returns the resolved instance configuration.
func (p *ReadmePlugin) Config() ReadmeConfig { return p.cfg }

// GatherFiles pre-registers an empty placeholder for build-placed output so
// downstream steps already see the readme in the fileset.
func (p *ReadmePlugin) GatherFiles(pc *Context) error {
	if p.cfg.Placement == place.Root {
		return nil
	}
	if _, ok := pc.Files.Get(p.cfg.Filename); ok {
		return nil
	}
	pc.Logger.Debug("registering readme placeholder",
		logfields.Plugin(p.meta.Name), logfields.Filename(p.cfg.Filename))
	return pc.Files.Add(&buildfile.File{Name: p.cfg.Filename, Generated: true})
}

// PruneFiles drops a root-placed readme's filename from the build output so
// the root write never rides along into the next build by accident.
func (p *ReadmePlugin) PruneFiles(pc *Context) error {
	if p.cfg.Placement != place.Root {
		return nil
	}
	if pc.Files.Remove(p.cfg.Filename) {
		pc.Logger.Info("pruned root-placed readme from build output",
			logfields.Plugin(p.meta.Name), logfields.Filename(p.cfg.Filename))
	}
	return nil
}

// MungeFiles extracts the source markup, converts it, places the result, and
// installs the mutation subscription that keeps the output consistent.
func (p *ReadmePlugin) MungeFiles(pc *Context) error {
	if p.cfg.Source == "" {
		p.cfg.Source = defaultSource(pc)
	}
	if p.cfg.Source == p.cfg.Filename {
		return rgerrors.ValidationFailed("source_filename",
			"readme cannot use its own output as source")
	}

	src, ok := pc.Files.Get(p.cfg.Source)
	if !ok {
		return rgerrors.MissingSource(p.cfg.Source)
	}

	res := extract.FromFile(src)
	out, err := p.cfg.Format.Convert(res.Markup, format.ConvertOptions{Encoding: res.Encoding})
	if err != nil {
		return err
	}

	p.lastExtracted = res.Markup
	p.encoding = res.Encoding
	if err := p.deliver(pc, out); err != nil {
		return err
	}
	p.observe(pc)

	pc.Meter().IncReadmeGenerated(p.cfg.Format.String(), p.cfg.Placement.String())
	if ev, err := history.NewReadmeGenerated(pc.BuildID,
		p.cfg.Format.String(), p.cfg.Placement.String(), p.cfg.Filename, out); err == nil {
		pc.RecordEvent(ev)
	} else {
		pc.Logger.Warn("failed to record generation event", logfields.Error(err))
	}
	return nil
}

// AfterBuild writes root-placed output next to the project configuration,
// overwriting any prior file, in the source-declared encoding when known.
func (p *ReadmePlugin) AfterBuild(pc *Context) error {
	if p.cfg.Placement != place.Root {
		return nil
	}
	writer := place.NewRootWriter(pc.RootDir, pc.Logger)
	_, err := writer.Write(p.cfg.Filename, p.pending, p.encoding)
	return err
}

func defaultSource(pc *Context) string {
	if pc.MainSource != "" {
		return pc.MainSource
	}
	return DefaultSourceFilename
}

// deliver routes converted content to its placement. Build-placed content
// lands in the Set (overwriting or creating the entry); root-placed content
// is staged for AfterBuild.
func (p *ReadmePlugin) deliver(pc *Context, content string) error {
	if p.cfg.Placement == place.Root {
		p.pending = content
		return nil
	}

	f, ok := pc.Files.Get(p.cfg.Filename)
	switch {
	case !ok:
		pc.Logger.Info("creating readme in build output",
			logfields.Plugin(p.meta.Name), logfields.Filename(p.cfg.Filename))
		return pc.Files.Add(&buildfile.File{Name: p.cfg.Filename, Content: content, Generated: true})
	case f.Generated:
		pc.Logger.Debug("rendering readme into build output",
			logfields.Plugin(p.meta.Name), logfields.Filename(p.cfg.Filename))
	default:
		pc.Logger.Info("overwriting readme in build output",
			logfields.Plugin(p.meta.Name), logfields.Filename(p.cfg.Filename))
	}
	return pc.Files.SetContent(p.cfg.Filename, content)
}

// observe installs the instance's mutation subscription for the source.
// Subscription is keyed by instance name, so repeated generation never
// double-subscribes while separate instances observe independently.
func (p *ReadmePlugin) observe(pc *Context) {
	pc.Files.OnChange(p.cfg.Source, p.meta.Name, p.sourceChanged(pc))
}

// sourceChanged returns the mutation handler. Delivery is one-shot, so the
// handler re-subscribes before anything else. Re-extraction decides whether
// the mutation changed the markup at all; no-op rewrites must not cascade.
func (p *ReadmePlugin) sourceChanged(pc *Context) buildfile.ChangeHandler {
	return func(f *buildfile.File) {
		p.observe(pc)

		res := extract.FromFile(f)
		if res.Markup == p.lastExtracted {
			pc.Meter().IncWriteSkipped("unchanged")
			pc.Logger.Debug("source rewritten without markup change",
				logfields.Plugin(p.meta.Name), logfields.Source(f.Name))
			return
		}

		out, err := p.cfg.Format.Convert(res.Markup, format.ConvertOptions{Encoding: res.Encoding})
		if err != nil {
			pc.Logger.Error("readme regeneration failed",
				logfields.Plugin(p.meta.Name), logfields.Source(f.Name), logfields.Error(err))
			return
		}

		p.logMarkupDiff(pc, p.lastExtracted, res.Markup)
		p.lastExtracted = res.Markup
		p.encoding = res.Encoding
		if err := p.deliver(pc, out); err != nil {
			pc.Logger.Error("readme regeneration failed",
				logfields.Plugin(p.meta.Name), logfields.Source(f.Name), logfields.Error(err))
			return
		}

		pc.Logger.Warn("readme regenerated after source mutation; configure this instance to run after the step that rewrites its source",
			logfields.Plugin(p.meta.Name), logfields.Filename(p.cfg.Filename), logfields.Source(f.Name))
		pc.Meter().IncReadmeRegenerated(p.cfg.Format.String())
		if ev, err := history.NewReadmeRegenerated(pc.BuildID, p.cfg.Filename, out, f.Name); err == nil {
			pc.RecordEvent(ev)
		}
	}
}

func (p *ReadmePlugin) logMarkupDiff(pc *Context, before, after string) {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: p.cfg.Source + " (extracted)",
		ToFile:   p.cfg.Source + " (mutated)",
		Context:  3,
	})
	if err != nil || diff == "" {
		return
	}
	pc.Logger.Debug("markup change", logfields.Plugin(p.meta.Name), slog.String("diff", diff))
}
