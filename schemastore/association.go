package schemastore

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/signadot/tomlkit/accessor"
)

// Association assigns a schema to the files matching one of its globs. With
// a Root path, the schema applies to the subtree at Root instead of the
// whole document.
type Association struct {
	SchemaURI string
	Include   []string
	Root      accessor.Path
	Title     string
}

// Matches reports whether the file at name is included. Globs without a
// slash match the base name; "**" matches any number of directories.
func (a *Association) Matches(name string) bool {
	name = filepath.ToSlash(name)
	for _, g := range a.Include {
		if matchGlob(g, name) {
			return true
		}
	}
	return false
}

func matchGlob(glob, name string) bool {
	if !strings.Contains(glob, "/") {
		ok, _ := doublestar.Match(glob, path.Base(name))
		return ok
	}
	glob = strings.TrimPrefix(glob, "./")
	if !strings.HasPrefix(glob, "/") {
		// relative globs match at any depth
		if !strings.HasPrefix(glob, "**") {
			glob = "**/" + glob
		}
		name = strings.TrimPrefix(name, "/")
	}
	ok, _ := doublestar.Match(glob, name)
	return ok
}

// Associate adds an association ranking above the catalog and previously
// added associations.
func (s *Store) Associate(a *Association) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.associations = append([]*Association{a}, s.associations...)
}

// Associations returns the associations matching the file at name, best
// first.
func (s *Store) Associations(name string) []*Association {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*Association
	for _, list := range [][]*Association{s.associations, s.catalog} {
		for _, a := range list {
			if a.Matches(name) {
				res = append(res, a)
			}
		}
	}
	return res
}
