// Package project derives repository metadata for stamping into generated
// readmes.
package project

import (
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Metadata describes the project a readme is generated for. Fields other
// than Name stay empty outside a git repository.
type Metadata struct {
	Name    string // directory basename unless overridden by config
	Commit  string // full HEAD hash
	Branch  string // current branch, empty when detached
	Remote  string // first origin URL
	Version string // tag pointing at HEAD, if any
}

// Describe inspects dir for git metadata. A directory that is not a git
// repository yields name-only metadata; that is not an error.
func Describe(dir string) Metadata {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	meta := Metadata{Name: filepath.Base(abs)}

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return meta
	}

	ref, err := repo.Head()
	if err != nil {
		return meta
	}
	meta.Commit = ref.Hash().String()
	if ref.Name().IsBranch() {
		meta.Branch = ref.Name().Short()
	}
	meta.Version = headTag(repo, ref.Hash())

	if remote, rerr := repo.Remote("origin"); rerr == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			meta.Remote = urls[0]
		}
	}

	return meta
}

// ShortCommit returns the first eight hex digits, the length used in log
// lines.
func (m Metadata) ShortCommit() string {
	if len(m.Commit) < 8 {
		return m.Commit
	}
	return m.Commit[:8]
}

// headTag finds a tag whose target is the HEAD commit. Annotated tags are
// dereferenced to their target first.
func headTag(repo *git.Repository, head plumbing.Hash) string {
	tags, err := repo.Tags()
	if err != nil {
		return ""
	}

	var name string
	_ = tags.ForEach(func(ref *plumbing.Reference) error {
		hash := ref.Hash()
		if tag, terr := repo.TagObject(hash); terr == nil {
			hash = tag.Target
		}
		if hash == head {
			name = ref.Name().Short()
		}
		return nil
	})
	return name
}
