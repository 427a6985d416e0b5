// Package dataset implements the Dataset Walker: a finite, restartable
// iterator over the on-disk JSON corpus (spec §6, §9's "generator pattern"
// design note). It is grounded on the registry-of-candidates shape of
// pkg/scanner/discovery/registry.go for the restart/reset semantics only —
// the discovery package itself is specific to entity extraction and isn't
// reused beyond that shape. Directory walking itself is a thin OS-boundary
// concern with no reusable third-party iterator anywhere in the pack, so
// io/fs and path/filepath (stdlib) are used directly.
package dataset

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Site is one discovered dataset file: a path to a JSON document with at
// least {"url": string, "content": string} (spec §6).
type Site struct {
	Path string
}

// Walker is a finite, restartable iterator over every *.json file found
// under its configured roots. Discovery happens once at construction; the
// iterator itself just advances a cursor, matching the "generator" design
// note's `next() -> Option<Site>` shape.
type Walker struct {
	sites  []Site
	cursor int
}

// NewWalker recursively discovers every *.json file under roots (spec §6:
// the small/"test" and large/"developer" dataset roots), in deterministic
// sorted-path order, and returns a Walker positioned before the first site.
func NewWalker(roots []string) (*Walker, error) {
	var sites []Site
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if strings.EqualFold(filepath.Ext(path), ".json") {
				sites = append(sites, Site{Path: path})
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i].Path < sites[j].Path })
	return &Walker{sites: sites}, nil
}

// Next returns the next not-yet-returned site and true, or the zero Site and
// false once every site has been returned.
func (w *Walker) Next() (Site, bool) {
	if w.cursor >= len(w.sites) {
		return Site{}, false
	}
	s := w.sites[w.cursor]
	w.cursor++
	return s, true
}

// Reset rewinds the iterator to the beginning without re-scanning disk.
func (w *Walker) Reset() {
	w.cursor = 0
}

// Len returns the total number of discovered sites.
func (w *Walker) Len() int { return len(w.sites) }
