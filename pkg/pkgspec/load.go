package pkgspec

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/repoforge/repoforge/pkg/errors"
)

// SpecFilename is the package spec file looked up inside a spec directory.
const SpecFilename = "package.toml"

// Load reads the package spec from dir/package.toml and returns the record.
//
// A missing file, TOML syntax error, or a record failing [Record.Validate]
// all produce a SPEC_INVALID error; callers never see partially decoded
// records.
func Load(dir string) (*Record, error) {
	path := filepath.Join(dir, SpecFilename)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSpecInvalid, err, "reading spec %s", path)
	}

	var rec Record
	if err := toml.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSpecInvalid, err, "parsing spec %s", path)
	}

	if err := rec.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSpecInvalid, err, "invalid spec %s", path)
	}

	return &rec, nil
}

// Write serializes the record to dir/package.toml, creating dir if needed.
// Used by the persisted index store and by tests building fixtures.
func Write(dir string, rec *Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "creating spec dir %s", dir)
	}

	f, err := os.Create(filepath.Join(dir, SpecFilename))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "creating spec file in %s", dir)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(rec); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "encoding spec for %s", rec.ID())
	}
	return nil
}
