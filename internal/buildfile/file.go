// Package buildfile models the in-memory fileset a build produces, plus the
// change notifications plugins use to track late mutations of individual
// files.
package buildfile

// File is one entry in the build fileset. Name is a slash-separated path
// relative to the build root. Generated marks files added by plugins rather
// than gathered from the source tree.
type File struct {
	Name      string
	Content   string
	Generated bool
}
