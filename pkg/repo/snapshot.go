package repo

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/repoforge/repoforge/pkg/errors"
	"github.com/repoforge/repoforge/pkg/index"
)

// Snapshot is the serialized index the serve command reads. It is
// regenerated wholesale on republish so it can never advertise an entry the
// store has rolled back.
type Snapshot struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Packages    []SnapshotEntry `json:"packages"`
}

// SnapshotEntry is one package version inside a snapshot.
type SnapshotEntry struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Synopsis     string   `json:"synopsis,omitempty"`
	Category     string   `json:"category,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// Publisher regenerates whatever downstream view of the index exists.
type Publisher interface {
	Republish(ctx context.Context) error
}

// SnapshotPublisher writes the JSON snapshot file from a fresh store scan.
type SnapshotPublisher struct {
	store  index.Store
	path   string
	logger *log.Logger
}

// NewSnapshotPublisher creates a publisher writing to path.
func NewSnapshotPublisher(store index.Store, path string, logger *log.Logger) *SnapshotPublisher {
	return &SnapshotPublisher{store: store, path: path, logger: logger}
}

// Republish rebuilds the snapshot from the persisted store. The write is
// atomic (temp file + rename) so a reader never sees a torn snapshot.
func (p *SnapshotPublisher) Republish(ctx context.Context) error {
	records, err := p.store.ListAll(ctx)
	if err != nil {
		return err
	}
	idx, err := index.Build(records)
	if err != nil {
		return err
	}

	snap := Snapshot{GeneratedAt: time.Now().UTC()}
	for _, rec := range idx.All() {
		snap.Packages = append(snap.Packages, SnapshotEntry{
			ID:           rec.ID(),
			Name:         rec.Name,
			Version:      rec.Version.String(),
			Synopsis:     rec.Synopsis,
			Category:     rec.Category,
			Dependencies: rec.DependencyNames(),
		})
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encoding snapshot")
	}

	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "writing snapshot %s", tmp)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "publishing snapshot %s", p.path)
	}

	p.logger.Info("republished index snapshot", "path", p.path, "packages", len(snap.Packages))
	return nil
}

// ReadSnapshot loads a snapshot file.
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "reading snapshot %s", path)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parsing snapshot %s", path)
	}
	return &snap, nil
}

// Ensure SnapshotPublisher implements Publisher.
var _ Publisher = (*SnapshotPublisher)(nil)
