// Package graph defines the generic node/edge document handed to the
// graph-layout collaborator, plus DOT generation and in-process SVG
// rendering via Graphviz.
//
// The document is deliberately minimal: node identifiers, an optional
// highlight marker for the package a visualization was seeded from, and
// directed edges. Everything about geometry is Graphviz's problem.
package graph

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/repoforge/repoforge/pkg/errors"
)

// Node is one vertex of the render document.
type Node struct {
	ID          string `json:"id"`
	Highlighted bool   `json:"highlighted,omitempty"`
}

// Edge is a directed edge, meaning From depends on To.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Document is the serialization format consumed by the layout renderer.
type Document struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Sort orders nodes by ID and edges by (From, To) so documents are
// reproducible across runs regardless of map iteration order.
func (d *Document) Sort() {
	sort.Slice(d.Nodes, func(i, j int) bool { return d.Nodes[i].ID < d.Nodes[j].ID })
	sort.Slice(d.Edges, func(i, j int) bool {
		if d.Edges[i].From != d.Edges[j].From {
			return d.Edges[i].From < d.Edges[j].From
		}
		return d.Edges[i].To < d.Edges[j].To
	})
}

// WriteFile serializes the document as indented JSON to path.
func WriteFile(path string, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encoding graph document")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "writing graph document %s", path)
	}
	return nil
}

// ReadFile parses a document previously written with WriteFile.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "reading graph document %s", path)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parsing graph document %s", path)
	}
	return &doc, nil
}
