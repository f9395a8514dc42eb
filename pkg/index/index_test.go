package index

import (
	"testing"

	"github.com/repoforge/repoforge/pkg/errors"
	"github.com/repoforge/repoforge/pkg/pkgspec"
)

func rec(t *testing.T, name, version string) *pkgspec.Record {
	t.Helper()
	return &pkgspec.Record{Name: name, Version: pkgspec.MustParseVersion(version)}
}

func TestBuildSortsVersions(t *testing.T) {
	idx, err := Build([]*pkgspec.Record{
		rec(t, "alpha", "2.0.0"),
		rec(t, "alpha", "1.0.0"),
		rec(t, "alpha", "1.2.0"),
		rec(t, "beta", "0.1.0"),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := idx.Len(); got != 4 {
		t.Errorf("Len = %d, want 4", got)
	}

	names := idx.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("Names = %v", names)
	}

	versions := idx.Versions("alpha")
	want := []string{"1.0.0", "1.2.0", "2.0.0"}
	for i, w := range want {
		if got := versions[i].Version.String(); got != w {
			t.Errorf("Versions(alpha)[%d] = %s, want %s", i, got, w)
		}
	}
}

func TestBuildRejectsDuplicateIdentity(t *testing.T) {
	_, err := Build([]*pkgspec.Record{
		rec(t, "alpha", "1.0.0"),
		rec(t, "alpha", "1.0.0"),
	})
	if errors.GetCode(err) != errors.ErrCodeDuplicateVersion {
		t.Errorf("Build duplicate: code = %s, want %s", errors.GetCode(err), errors.ErrCodeDuplicateVersion)
	}
}

func TestResolveAndLatest(t *testing.T) {
	idx, err := Build([]*pkgspec.Record{
		rec(t, "alpha", "1.0.0"),
		rec(t, "alpha", "1.2.0"),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := idx.Resolve("alpha", pkgspec.MustParseVersion("1.0.0")); got == nil || got.Version.String() != "1.0.0" {
		t.Errorf("Resolve(alpha, 1.0.0) = %v", got)
	}
	if got := idx.Resolve("alpha", pkgspec.MustParseVersion("9.9.9")); got != nil {
		t.Errorf("Resolve of absent version = %v", got)
	}
	if got := idx.Resolve("missing", pkgspec.MustParseVersion("1.0.0")); got != nil {
		t.Errorf("Resolve of absent name = %v", got)
	}

	if got := idx.Latest("alpha"); got == nil || got.Version.String() != "1.2.0" {
		t.Errorf("Latest(alpha) = %v", got)
	}
	if got := idx.Latest("missing"); got != nil {
		t.Errorf("Latest(missing) = %v", got)
	}
}

func TestAddIsCopyOnWrite(t *testing.T) {
	idx, err := Build([]*pkgspec.Record{rec(t, "alpha", "1.0.0")})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	next, err := idx.Add(rec(t, "alpha", "1.1.0"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if idx.Len() != 1 {
		t.Errorf("original index mutated: Len = %d", idx.Len())
	}
	if next.Len() != 2 {
		t.Errorf("new index Len = %d, want 2", next.Len())
	}
	if got := next.Latest("alpha").Version.String(); got != "1.1.0" {
		t.Errorf("new index Latest = %s", got)
	}

	if _, err := next.Add(rec(t, "alpha", "1.1.0")); errors.GetCode(err) != errors.ErrCodeDuplicateVersion {
		t.Errorf("Add duplicate: code = %s", errors.GetCode(err))
	}
}

func TestAllGroupsByName(t *testing.T) {
	idx, err := Build([]*pkgspec.Record{
		rec(t, "beta", "1.0.0"),
		rec(t, "alpha", "2.0.0"),
		rec(t, "alpha", "1.0.0"),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	all := idx.All()
	want := []string{"alpha-1.0.0", "alpha-2.0.0", "beta-1.0.0"}
	if len(all) != len(want) {
		t.Fatalf("All returned %d records", len(all))
	}
	for i, w := range want {
		if got := all[i].ID(); got != w {
			t.Errorf("All[%d] = %s, want %s", i, got, w)
		}
	}
}
