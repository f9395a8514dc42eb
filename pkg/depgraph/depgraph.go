// Package depgraph builds the directed dependency graph over package names
// and computes transitive closures on it.
//
// Nodes are package names, not identities: the graph describes one selected
// record per name. An edge (p, q) means p lists q as a dependency. Package
// metadata can be inconsistent, so the graph may contain cycles; every
// traversal here is a monotone fixed-point iteration over the finite node
// set and terminates regardless.
package depgraph

import (
	"sort"

	"github.com/repoforge/repoforge/pkg/graph"
	"github.com/repoforge/repoforge/pkg/pkgspec"
)

// Direction selects which way a closure follows edges.
type Direction int

const (
	// Forward follows dependency edges outward: "everything p needs".
	Forward Direction = iota
	// Reverse follows edges inward: "everything that needs p".
	Reverse
)

// Edge is a directed dependency between two package names.
type Edge struct {
	From, To string
}

// Graph is a directed graph over package names.
// It is immutable after Build and safe for concurrent reads.
type Graph struct {
	nodes    map[string]bool
	edges    []Edge
	outgoing map[string][]string // name -> dependency names
	incoming map[string][]string // name -> dependent names
}

// Build constructs the graph from one record per package name.
//
// Dependency names that are not themselves indexed packages (platform
// libraries, external tools) are dropped: the graph answers questions about
// the repository, not about the world outside it. Duplicate dependency
// declarations collapse into a single edge.
func Build(records []*pkgspec.Record) *Graph {
	g := &Graph{
		nodes:    make(map[string]bool, len(records)),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}

	for _, rec := range records {
		g.nodes[rec.Name] = true
	}

	seen := make(map[Edge]bool)
	for _, rec := range records {
		for _, dep := range rec.DependencyNames() {
			if !g.nodes[dep] {
				continue
			}
			e := Edge{From: rec.Name, To: dep}
			if seen[e] {
				continue
			}
			seen[e] = true
			g.edges = append(g.edges, e)
			g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
			g.incoming[e.To] = append(g.incoming[e.To], e.From)
		}
	}

	return g
}

// Nodes returns all package names in the graph, sorted ascending.
func (g *Graph) Nodes() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Edges returns all edges sorted by (From, To).
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// Contains reports whether name is a node of the graph.
func (g *Graph) Contains(name string) bool { return g.nodes[name] }

// DependenciesOf returns the forward transitive closure of seeds: every
// package any seed transitively depends on, including the seeds themselves.
func (g *Graph) DependenciesOf(seeds []string) map[string]bool {
	return g.closure(seeds, g.outgoing)
}

// DependentsOf returns the backward transitive closure of seeds: every
// package that transitively depends on any seed, including the seeds.
func (g *Graph) DependentsOf(seeds []string) map[string]bool {
	return g.closure(seeds, g.incoming)
}

// closure computes the fixed point of following adj from seeds. The seen set
// only grows and the node set is finite, so this terminates on cycles.
func (g *Graph) closure(seeds []string, adj map[string][]string) map[string]bool {
	seen := make(map[string]bool, len(seeds))
	frontier := make([]string, 0, len(seeds))
	for _, s := range seeds {
		if !seen[s] {
			seen[s] = true
			frontier = append(frontier, s)
		}
	}

	for len(frontier) > 0 {
		var next []string
		for _, f := range frontier {
			for _, n := range adj[f] {
				if !seen[n] {
					seen[n] = true
					next = append(next, n)
				}
			}
		}
		frontier = next
	}

	return seen
}

// Render produces the generic document handed to the layout renderer.
//
// With no seeds the full graph is returned unfiltered. With seeds, the
// closure in the given direction is computed and the document is restricted
// to edges whose endpoints both lie inside it; seed nodes are highlighted so
// the package a visualization was asked about stands out.
func (g *Graph) Render(seeds []string, dir Direction) *graph.Document {
	doc := &graph.Document{}

	if len(seeds) == 0 {
		for _, name := range g.Nodes() {
			doc.Nodes = append(doc.Nodes, graph.Node{ID: name})
		}
		for _, e := range g.Edges() {
			doc.Edges = append(doc.Edges, graph.Edge{From: e.From, To: e.To})
		}
		return doc
	}

	var members map[string]bool
	if dir == Reverse {
		members = g.DependentsOf(seeds)
	} else {
		members = g.DependenciesOf(seeds)
	}

	highlighted := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		highlighted[s] = true
	}

	for _, name := range g.Nodes() {
		if members[name] {
			doc.Nodes = append(doc.Nodes, graph.Node{ID: name, Highlighted: highlighted[name]})
		}
	}
	for _, e := range g.Edges() {
		if members[e.From] && members[e.To] {
			doc.Edges = append(doc.Edges, graph.Edge{From: e.From, To: e.To})
		}
	}

	doc.Sort()
	return doc
}
