package index

import (
	"context"
	"os"
	"path/filepath"

	"github.com/repoforge/repoforge/pkg/errors"
	"github.com/repoforge/repoforge/pkg/pkgspec"
)

// Store is the persisted repository index.
//
// Implementations must make Append atomic per identity: appending an
// identity that already exists fails with DUPLICATE_VERSION and leaves the
// store unchanged.
type Store interface {
	// ListAll returns every persisted record.
	ListAll(ctx context.Context) ([]*pkgspec.Record, error)

	// Append durably adds one record. Fails with DUPLICATE_VERSION if the
	// identity already exists.
	Append(ctx context.Context, rec *pkgspec.Record) error

	// RemoveByIdentity deletes the record with the given "name-version"
	// identity. Removing an absent identity is not an error.
	RemoveByIdentity(ctx context.Context, id string) error
}

// FileStore persists records under root/<name>/<version>/package.toml.
//
// This is the default single-host layout; it is also what an operator
// inspects and publishes through version control after an admission.
type FileStore struct {
	root string
}

// NewFileStore creates a file store rooted at root, creating the directory
// if it does not exist.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "creating index root %s", root)
	}
	return &FileStore{root: root}, nil
}

// Root returns the store's root directory.
func (s *FileStore) Root() string { return s.root }

// EntryDir returns the directory a record with the given name and version
// occupies, whether or not it exists.
func (s *FileStore) EntryDir(name string, version pkgspec.Version) string {
	return filepath.Join(s.root, name, version.String())
}

// ListAll scans the two-level layout and loads every spec.
// A malformed spec anywhere in the layout fails the whole scan: a corrupt
// persisted index must never be silently narrowed.
func (s *FileStore) ListAll(ctx context.Context) ([]*pkgspec.Record, error) {
	names, err := readDirNames(s.root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "scanning index root %s", s.root)
	}

	var records []*pkgspec.Record
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		versions, err := readDirNames(filepath.Join(s.root, name))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "scanning package %s", name)
		}
		for _, version := range versions {
			rec, err := pkgspec.Load(filepath.Join(s.root, name, version))
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// Append writes the record's spec into its entry directory.
func (s *FileStore) Append(ctx context.Context, rec *pkgspec.Record) error {
	dir := s.EntryDir(rec.Name, rec.Version)
	if _, err := os.Stat(dir); err == nil {
		return errors.New(errors.ErrCodeDuplicateVersion, "%s already exists in the index", rec.ID())
	} else if !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeStore, err, "checking entry %s", dir)
	}

	return pkgspec.Write(dir, rec)
}

// RemoveByIdentity deletes the matching entry directory, pruning the package
// directory when it becomes empty.
func (s *FileStore) RemoveByIdentity(ctx context.Context, id string) error {
	records, err := s.ListAll(ctx)
	if err != nil {
		return err
	}

	for _, rec := range records {
		if rec.ID() != id {
			continue
		}
		dir := s.EntryDir(rec.Name, rec.Version)
		if err := os.RemoveAll(dir); err != nil {
			return errors.Wrap(errors.ErrCodeStore, err, "removing entry %s", dir)
		}
		// Drop the now-empty package directory; ignore failure if other
		// versions remain.
		_ = os.Remove(filepath.Join(s.root, rec.Name))
		return nil
	}
	return nil
}

// readDirNames returns the names of subdirectories of dir, skipping regular
// files (e.g. a README next to the package directories).
func readDirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
