// Package pkgspec defines the immutable package-version record and the
// loader that reads one from a package spec directory.
//
// A Record describes exactly one released version of a package: its name,
// dotted version, declared dependencies, and the compiler range it builds
// with. Records are never mutated after creation; releasing a new version
// means writing a new spec and inserting an additional record into the index.
//
// The unique key across the whole repository is the identity "name-version"
// returned by [Record.ID].
package pkgspec

import (
	"fmt"

	"github.com/repoforge/repoforge/pkg/errors"
)

// Compiler identifies a concrete compiler a repository operation targets,
// e.g. {Name: "fc", Version: 9.4.0}.
type Compiler struct {
	Name    string  `toml:"name"`
	Version Version `toml:"version"`
}

// String returns the compiler identity as "name-version".
func (c Compiler) String() string {
	return fmt.Sprintf("%s-%s", c.Name, c.Version)
}

// CompilerRange is the compatibility predicate of a package version: which
// compilers it is declared to build with. A nil bound leaves that side
// unconstrained and an empty Name accepts any compiler.
type CompilerRange struct {
	Name string   `toml:"name,omitempty"`
	Min  *Version `toml:"min,omitempty"`
	Max  *Version `toml:"max,omitempty"`
}

// Accepts reports whether the given compiler satisfies the range.
func (r CompilerRange) Accepts(c Compiler) bool {
	if r.Name != "" && r.Name != c.Name {
		return false
	}
	if r.Min != nil && c.Version.Less(*r.Min) {
		return false
	}
	if r.Max != nil && r.Max.Less(c.Version) {
		return false
	}
	return true
}

// Dependency is one entry of a package's declared dependency list.
// The constraint is an opaque range expression passed through to the
// external package manager; the engine only consumes the name.
type Dependency struct {
	Name       string `toml:"name"`
	Constraint string `toml:"constraint,omitempty"`
}

// Record is the immutable description of one package version.
//
// Dependencies may repeat a name (e.g. the same package under two
// constraint expressions); duplicates are preserved in declaration order.
type Record struct {
	Name         string        `toml:"name"`
	Version      Version       `toml:"version"`
	Synopsis     string        `toml:"synopsis,omitempty"`
	Category     string        `toml:"category,omitempty"`
	Dependencies []Dependency  `toml:"dependency,omitempty"`
	Compat       CompilerRange `toml:"compiler,omitempty"`
}

// ID returns the identity "name-version", the unique key across the index.
func (r *Record) ID() string {
	return fmt.Sprintf("%s-%s", r.Name, r.Version)
}

// DependencyNames returns the dependency names in declaration order,
// duplicates included.
func (r *Record) DependencyNames() []string {
	names := make([]string, len(r.Dependencies))
	for i, d := range r.Dependencies {
		names[i] = d.Name
	}
	return names
}

// Validate checks the record's structural invariants: a safe non-empty name
// and non-empty dependency names.
func (r *Record) Validate() error {
	if err := errors.ValidatePackageName(r.Name); err != nil {
		return err
	}
	for i, d := range r.Dependencies {
		if d.Name == "" {
			return errors.New(errors.ErrCodeSpecInvalid, "package %s: dependency %d has empty name", r.Name, i)
		}
	}
	return nil
}
