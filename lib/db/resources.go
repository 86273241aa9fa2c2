package db

import (
	"path"
	"strings"
)

// Resources is the immutable table of resource paths stored in a database.
// The id of a resource is its position in the table.
type Resources struct {
	paths []string
}

// NewResources creates a resource table. All paths are normalized.
func NewResources(paths []string) *Resources {
	normalized := make([]string, 0, len(paths))
	for _, p := range paths {
		normalized = append(normalized, NormalizePath(p))
	}
	return &Resources{paths: normalized}
}

// NormalizePath converts p to a relative, slash separated path without
// redundant elements. The root path is returned as "".
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

// Len returns the number of resources.
func (r *Resources) Len() int {
	return len(r.paths)
}

// Path returns the path of the resource with the given id.
func (r *Resources) Path(id int) string {
	return r.paths[id]
}

// Paths returns a copy of all resource paths.
func (r *Resources) Paths() []string {
	out := make([]string, len(r.paths))
	copy(out, r.paths)
	return out
}

// Docs returns the ids of all resources addressed by p: the resource whose
// path equals p and all resources below p if p names a directory.
// An empty or root path selects every resource.
func (r *Resources) Docs(p string) []int {
	target := NormalizePath(p)
	ids := make([]int, 0)
	for id, rp := range r.paths {
		if target == "" || rp == target || strings.HasPrefix(rp, target+"/") {
			ids = append(ids, id)
		}
	}
	return ids
}
