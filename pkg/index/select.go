package index

import "github.com/repoforge/repoforge/pkg/pkgspec"

// Select picks the single representative version of one package for a
// repository-wide operation.
//
// Versions compatible with the compiler win: the highest compatible version
// is returned. When no version is compatible, behavior depends on strict:
//
//   - strict: the package is excluded (nil) — used by operations that will
//     actually build the package, such as test-all
//   - lenient: the highest version is returned regardless of compatibility —
//     used by informational listings where every name must appear
//
// versions must be sorted ascending, as [Index.Versions] guarantees.
func Select(versions []*pkgspec.Record, compiler pkgspec.Compiler, strict bool) *pkgspec.Record {
	for i := len(versions) - 1; i >= 0; i-- {
		if versions[i].Compat.Accepts(compiler) {
			return versions[i]
		}
	}

	if strict || len(versions) == 0 {
		return nil
	}
	return versions[len(versions)-1]
}

// WorkingSet applies Select to every package in the index and returns the
// chosen records sorted ascending by name. Strictly excluded packages are
// absent from the result.
func WorkingSet(idx *Index, compiler pkgspec.Compiler, strict bool) []*pkgspec.Record {
	var out []*pkgspec.Record
	for _, name := range idx.Names() {
		if rec := Select(idx.Versions(name), compiler, strict); rec != nil {
			out = append(out, rec)
		}
	}
	return out
}
