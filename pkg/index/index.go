// Package index implements the in-memory repository index over package
// records, the version selector used by repository-wide operations, and the
// persisted store the index is built from.
//
// An Index is constructed fresh per command invocation from a store snapshot
// and is read-only afterwards: adding a package produces a new superset
// Index, never mutating the existing one.
package index

import (
	"slices"
	"sort"

	"github.com/repoforge/repoforge/pkg/errors"
	"github.com/repoforge/repoforge/pkg/pkgspec"
)

// Index groups all known package records by name.
//
// Invariants:
//   - every record's Name matches its bucket key
//   - every bucket is non-empty and sorted ascending by version
//   - no two records share an identity
type Index struct {
	versionsByName map[string][]*pkgspec.Record
}

// Build constructs an index from records, sorting each name's versions
// ascending. It returns a DUPLICATE_VERSION error if two records share an
// identity — the persisted layout is corrupt in that case and no partial
// index is returned.
func Build(records []*pkgspec.Record) (*Index, error) {
	idx := &Index{versionsByName: make(map[string][]*pkgspec.Record)}

	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		id := rec.ID()
		if seen[id] {
			return nil, errors.New(errors.ErrCodeDuplicateVersion, "index contains two records for %s", id)
		}
		seen[id] = true
		idx.versionsByName[rec.Name] = append(idx.versionsByName[rec.Name], rec)
	}

	for _, versions := range idx.versionsByName {
		sort.Slice(versions, func(i, j int) bool {
			return versions[i].Version.Less(versions[j].Version)
		})
	}

	return idx, nil
}

// Add returns a new index containing every record of i plus rec.
// The receiver is not modified. Returns DUPLICATE_VERSION if the record's
// identity is already present.
func (i *Index) Add(rec *pkgspec.Record) (*Index, error) {
	if existing := i.Resolve(rec.Name, rec.Version); existing != nil {
		return nil, errors.New(errors.ErrCodeDuplicateVersion, "%s already exists in the index", rec.ID())
	}

	next := &Index{versionsByName: make(map[string][]*pkgspec.Record, len(i.versionsByName)+1)}
	for name, versions := range i.versionsByName {
		next.versionsByName[name] = slices.Clone(versions)
	}

	bucket := append(next.versionsByName[rec.Name], rec)
	sort.Slice(bucket, func(a, b int) bool {
		return bucket[a].Version.Less(bucket[b].Version)
	})
	next.versionsByName[rec.Name] = bucket

	return next, nil
}

// Names returns all package names, sorted ascending.
// This is the canonical iteration order for every multi-package operation.
func (i *Index) Names() []string {
	names := make([]string, 0, len(i.versionsByName))
	for name := range i.versionsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Versions returns the records for name, sorted ascending by version,
// or nil if the package is unknown. The returned slice must not be modified.
func (i *Index) Versions(name string) []*pkgspec.Record {
	return i.versionsByName[name]
}

// Resolve returns the record for the exact (name, version), or nil.
func (i *Index) Resolve(name string, version pkgspec.Version) *pkgspec.Record {
	for _, rec := range i.versionsByName[name] {
		if rec.Version.Compare(version) == 0 {
			return rec
		}
	}
	return nil
}

// Latest returns the highest version of name, or nil if the package is
// unknown. Buckets are never empty, so a known name always yields a record.
func (i *Index) Latest(name string) *pkgspec.Record {
	versions := i.versionsByName[name]
	if len(versions) == 0 {
		return nil
	}
	return versions[len(versions)-1]
}

// Len returns the total number of records across all names.
func (i *Index) Len() int {
	n := 0
	for _, versions := range i.versionsByName {
		n += len(versions)
	}
	return n
}

// All returns every record, grouped by ascending name and ascending version
// within each name.
func (i *Index) All() []*pkgspec.Record {
	out := make([]*pkgspec.Record, 0, i.Len())
	for _, name := range i.Names() {
		out = append(out, i.versionsByName[name]...)
	}
	return out
}
