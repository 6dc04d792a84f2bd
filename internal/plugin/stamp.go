package plugin

import (
	"strings"

	"git.home.luguber.info/inful/readmegen/internal/logfields"
)

const (
	// FamilyStamp is the registry name of the stamp plugin family.
	FamilyStamp = "stamp"

	stampVersion = "v0.3.0"
)

// StampPlugin expands release-metadata tokens in build files: {{project}},
// {{version}}, {{commit}} and {{branch}} are replaced from the resolved
// project metadata. Stamping goes through Set.SetContent, so readme
// instances observing a stamped source regenerate inside the same build.
type StampPlugin struct {
	meta    Metadata
	targets []string
}

// NewStampFactory returns a Factory producing stamp instances. The "files"
// option is a comma-separated list of target file names, defaulting to the
// project's main source.
func NewStampFactory() Factory {
	return func(instance string, options map[string]string) (Plugin, error) {
		var targets []string
		for _, t := range strings.Split(options["files"], ",") {
			if t = strings.TrimSpace(t); t != "" {
				targets = append(targets, t)
			}
		}
		return &StampPlugin{
			meta: Metadata{
				Name:        instance,
				Family:      FamilyStamp,
				Version:     stampVersion,
				Description: "expands release-metadata tokens in build files",
			},
			targets: targets,
		}, nil
	}
}

// Metadata implements Plugin.
func (p *StampPlugin) Metadata() Metadata { return p.meta }

// MungeFiles replaces metadata tokens in each target file. Files whose
// content holds no tokens are left untouched so no mutation event fires for
// them.
func (p *StampPlugin) MungeFiles(pc *Context) error {
	rep := strings.NewReplacer(
		"{{project}}", pc.Project.Name,
		"{{version}}", pc.Project.Version,
		"{{commit}}", pc.Project.ShortCommit(),
		"{{branch}}", pc.Project.Branch,
	)

	targets := p.targets
	if len(targets) == 0 {
		if pc.MainSource == "" {
			pc.Logger.Debug("stamp has no targets", logfields.Plugin(p.meta.Name))
			return nil
		}
		targets = []string{pc.MainSource}
	}

	for _, name := range targets {
		f, ok := pc.Files.Get(name)
		if !ok {
			pc.Logger.Warn("stamp target not in build",
				logfields.Plugin(p.meta.Name), logfields.Filename(name))
			continue
		}

		stamped := rep.Replace(f.Content)
		if stamped == f.Content {
			continue
		}
		if err := pc.Files.SetContent(name, stamped); err != nil {
			return err
		}
		pc.Logger.Debug("stamped release metadata",
			logfields.Plugin(p.meta.Name), logfields.Filename(name))
	}
	return nil
}
