package depgraph

import (
	"sort"
	"testing"

	"github.com/repoforge/repoforge/pkg/pkgspec"
)

func rec(name string, deps ...string) *pkgspec.Record {
	r := &pkgspec.Record{Name: name, Version: pkgspec.MustParseVersion("1.0.0")}
	for _, d := range deps {
		r.Dependencies = append(r.Dependencies, pkgspec.Dependency{Name: d})
	}
	return r
}

func names(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuildDropsUnindexedDeps(t *testing.T) {
	g := Build([]*pkgspec.Record{
		rec("alpha", "beta", "libc"), // libc is not an indexed package
		rec("beta"),
	})

	if got := g.Nodes(); !equalNames(got, []string{"alpha", "beta"}) {
		t.Errorf("Nodes = %v", got)
	}
	edges := g.Edges()
	if len(edges) != 1 || edges[0] != (Edge{From: "alpha", To: "beta"}) {
		t.Errorf("Edges = %v", edges)
	}
	if g.Contains("libc") {
		t.Error("unindexed dependency must not become a node")
	}
}

func TestBuildCollapsesDuplicateEdges(t *testing.T) {
	g := Build([]*pkgspec.Record{
		rec("alpha", "beta", "beta"),
		rec("beta"),
	})
	if got := len(g.Edges()); got != 1 {
		t.Errorf("duplicate declarations produced %d edges, want 1", got)
	}
}

func TestClosureIsReflexive(t *testing.T) {
	g := Build([]*pkgspec.Record{rec("alpha")})

	deps := g.DependenciesOf([]string{"alpha"})
	if !deps["alpha"] {
		t.Error("DependenciesOf must include the seed itself")
	}
	rdeps := g.DependentsOf([]string{"alpha"})
	if !rdeps["alpha"] {
		t.Error("DependentsOf must include the seed itself")
	}
}

func TestClosureTerminatesOnCycle(t *testing.T) {
	// alpha -> beta -> gamma -> alpha
	g := Build([]*pkgspec.Record{
		rec("alpha", "beta"),
		rec("beta", "gamma"),
		rec("gamma", "alpha"),
	})

	deps := g.DependenciesOf([]string{"alpha"})
	if !equalNames(names(deps), []string{"alpha", "beta", "gamma"}) {
		t.Errorf("DependenciesOf on cycle = %v", names(deps))
	}

	rdeps := g.DependentsOf([]string{"gamma"})
	if !equalNames(names(rdeps), []string{"alpha", "beta", "gamma"}) {
		t.Errorf("DependentsOf on cycle = %v", names(rdeps))
	}
}

func TestClosureDirections(t *testing.T) {
	// chain: top -> mid -> bottom, plus an unrelated node
	g := Build([]*pkgspec.Record{
		rec("top", "mid"),
		rec("mid", "bottom"),
		rec("bottom"),
		rec("island"),
	})

	deps := g.DependenciesOf([]string{"mid"})
	if !equalNames(names(deps), []string{"bottom", "mid"}) {
		t.Errorf("DependenciesOf(mid) = %v", names(deps))
	}

	rdeps := g.DependentsOf([]string{"mid"})
	if !equalNames(names(rdeps), []string{"mid", "top"}) {
		t.Errorf("DependentsOf(mid) = %v", names(rdeps))
	}

	multi := g.DependenciesOf([]string{"top", "island"})
	if !equalNames(names(multi), []string{"bottom", "island", "mid", "top"}) {
		t.Errorf("DependenciesOf(top, island) = %v", names(multi))
	}
}

func TestRenderFullGraph(t *testing.T) {
	g := Build([]*pkgspec.Record{
		rec("alpha", "beta"),
		rec("beta"),
	})

	doc := g.Render(nil, Forward)
	if len(doc.Nodes) != 2 || len(doc.Edges) != 1 {
		t.Fatalf("full render: %d nodes, %d edges", len(doc.Nodes), len(doc.Edges))
	}
	for _, n := range doc.Nodes {
		if n.Highlighted {
			t.Errorf("full render must not highlight %s", n.ID)
		}
	}
}

func TestRenderSeededRestrictsAndHighlights(t *testing.T) {
	g := Build([]*pkgspec.Record{
		rec("top", "mid"),
		rec("mid", "bottom"),
		rec("bottom"),
		rec("island"),
	})

	doc := g.Render([]string{"mid"}, Forward)
	var nodeIDs []string
	highlighted := map[string]bool{}
	for _, n := range doc.Nodes {
		nodeIDs = append(nodeIDs, n.ID)
		highlighted[n.ID] = n.Highlighted
	}
	if !equalNames(nodeIDs, []string{"bottom", "mid"}) {
		t.Errorf("seeded render nodes = %v", nodeIDs)
	}
	if !highlighted["mid"] || highlighted["bottom"] {
		t.Errorf("highlighting = %v", highlighted)
	}
	if len(doc.Edges) != 1 || doc.Edges[0].From != "mid" || doc.Edges[0].To != "bottom" {
		t.Errorf("seeded render edges = %v", doc.Edges)
	}

	rev := g.Render([]string{"mid"}, Reverse)
	nodeIDs = nil
	for _, n := range rev.Nodes {
		nodeIDs = append(nodeIDs, n.ID)
	}
	if !equalNames(nodeIDs, []string{"mid", "top"}) {
		t.Errorf("reverse render nodes = %v", nodeIDs)
	}
}
