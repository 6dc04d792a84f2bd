package buildfile

import (
	rgerrors "git.home.luguber.info/inful/readmegen/internal/errors"
)

// Set is the ordered build fileset. Files keep insertion order; lookups go
// through a name index. Content mutations publish a change event keyed by
// the file's name.
type Set struct {
	files []*File
	index map[string]*File
	bus   *changeBus
}

// NewSet creates an empty fileset.
func NewSet() *Set {
	return &Set{index: map[string]*File{}, bus: newChangeBus()}
}

// Add appends a file. Names are unique within a build.
func (s *Set) Add(f *File) error {
	if f == nil || f.Name == "" {
		return rgerrors.New(rgerrors.CategoryBuild, rgerrors.SeverityFatal, "build file needs a name")
	}
	if _, exists := s.index[f.Name]; exists {
		return rgerrors.New(rgerrors.CategoryBuild, rgerrors.SeverityFatal, "duplicate file in build").
			WithContext("filename", f.Name)
	}
	s.files = append(s.files, f)
	s.index[f.Name] = f
	return nil
}

// Get returns the file with the given name.
func (s *Set) Get(name string) (*File, bool) {
	f, ok := s.index[name]
	return f, ok
}

// Files returns the fileset in insertion order. The slice is a copy; the
// pointed-to files are shared.
func (s *Set) Files() []*File {
	out := make([]*File, len(s.files))
	copy(out, s.files)
	return out
}

// Len reports the number of files in the set.
func (s *Set) Len() int { return len(s.files) }

// Remove deletes a file and any change subscriptions tied to its name.
func (s *Set) Remove(name string) bool {
	if _, ok := s.index[name]; !ok {
		return false
	}
	delete(s.index, name)
	for i, f := range s.files {
		if f.Name == name {
			s.files = append(s.files[:i], s.files[i+1:]...)
			break
		}
	}
	s.bus.drop(name)
	return true
}

// SetContent replaces a file's content and notifies subscribers. Writing
// identical content still counts as a mutation; skipping no-op updates is
// the observer's decision.
func (s *Set) SetContent(name, content string) error {
	f, ok := s.index[name]
	if !ok {
		return rgerrors.New(rgerrors.CategoryBuild, rgerrors.SeverityFatal, "file not in build").
			WithContext("filename", name)
	}
	f.Content = content
	s.bus.publish(f)
	return nil
}

// OnChange registers a one-shot observer for mutations of the named file.
// Key identifies the subscriber: re-subscribing under the same key replaces
// the earlier handler instead of adding a second one, so installation is
// idempotent per subscriber. The observer is consumed by the next SetContent
// for that name and must re-subscribe if it wants to keep watching.
func (s *Set) OnChange(name, key string, h ChangeHandler) {
	s.bus.subscribe(name, key, h)
}
