// Package infer derives format and placement hints from a plugin's
// configured name, so that a name like "ReadmeMarkdownInBuild" needs no
// further configuration.
package infer

import (
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"

	"git.home.luguber.info/inful/readmegen/internal/format"
	"git.home.luguber.info/inful/readmegen/internal/place"
)

// Inference is the format and placement hinted by a plugin name. Either
// field stays at its zero value when the name carries no such hint.
type Inference struct {
	Format    format.Format
	Placement place.Placement
}

// The name grammar: an optional "readme" prefix, an optional format token,
// an optional "in" joiner, an optional placement token. Names outside the
// grammar infer nothing.
var namePattern = regexp.MustCompile(`^(?i)(?:readme)?(text|markdown|pod|html)?(?:in)?(build|root)?$`)

const defaultCacheSize = 256

// Inferencer resolves names to inferences, memoizing results in an LRU
// cache. Repeated lookups for the same name are common when many build
// targets share one configuration.
type Inferencer struct {
	cache *lru.Cache[string, Inference]
}

// New creates an Inferencer with the given cache capacity. A non-positive
// size selects the default capacity.
func New(size int) (*Inferencer, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, Inference](size)
	if err != nil {
		return nil, err
	}
	return &Inferencer{cache: cache}, nil
}

// Infer parses a plugin name into format and placement hints.
func (i *Inferencer) Infer(name string) Inference {
	if hit, ok := i.cache.Get(name); ok {
		return hit
	}

	inf := parseName(name)
	i.cache.Add(name, inf)
	return inf
}

// Cached reports how many distinct names have been memoized.
func (i *Inferencer) Cached() int {
	return i.cache.Len()
}

func parseName(name string) Inference {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return Inference{}
	}

	var inf Inference
	if m[1] != "" {
		if f, err := format.Parse(m[1]); err == nil {
			inf.Format = f
		}
	}
	if m[2] != "" {
		if p, err := place.Parse(m[2]); err == nil {
			inf.Placement = p
		}
	}
	return inf
}
