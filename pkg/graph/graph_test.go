package graph

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDocumentSort(t *testing.T) {
	doc := &Document{
		Nodes: []Node{{ID: "beta"}, {ID: "alpha"}},
		Edges: []Edge{
			{From: "beta", To: "alpha"},
			{From: "alpha", To: "beta"},
			{From: "alpha", To: "alpha"},
		},
	}
	doc.Sort()

	if doc.Nodes[0].ID != "alpha" || doc.Nodes[1].ID != "beta" {
		t.Errorf("Nodes = %v", doc.Nodes)
	}
	want := []Edge{
		{From: "alpha", To: "alpha"},
		{From: "alpha", To: "beta"},
		{From: "beta", To: "alpha"},
	}
	for i, w := range want {
		if doc.Edges[i] != w {
			t.Errorf("Edges[%d] = %v, want %v", i, doc.Edges[i], w)
		}
	}
}

func TestDocumentFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deps.json")

	doc := &Document{
		Nodes: []Node{{ID: "alpha", Highlighted: true}, {ID: "beta"}},
		Edges: []Edge{{From: "alpha", To: "beta"}},
	}
	if err := WriteFile(path, doc); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got.Nodes) != 2 || len(got.Edges) != 1 {
		t.Fatalf("round trip: %d nodes, %d edges", len(got.Nodes), len(got.Edges))
	}
	if !got.Nodes[0].Highlighted || got.Nodes[1].Highlighted {
		t.Errorf("highlight flags lost: %v", got.Nodes)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("ReadFile of missing file should fail")
	}
}

func TestToDOT(t *testing.T) {
	doc := &Document{
		Nodes: []Node{{ID: "alpha", Highlighted: true}, {ID: "beta"}},
		Edges: []Edge{{From: "alpha", To: "beta"}},
	}

	dot := ToDOT(doc)

	for _, want := range []string{
		"digraph deps {",
		`"alpha" [label="alpha", fillcolor=lightsteelblue, penwidth=2];`,
		`"beta" [label="beta"];`,
		`"alpha" -> "beta";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTEmptyDocument(t *testing.T) {
	dot := ToDOT(&Document{})
	if !strings.HasPrefix(dot, "digraph deps {") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("empty DOT malformed:\n%s", dot)
	}
}
