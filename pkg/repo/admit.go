// Package repo implements the repository admission workflow: validating a
// new package version with a full release pipeline run before it durably
// joins the persisted index, and rolling the index back when the run fails.
//
// The invariant the workflow protects: the persisted index never durably
// contains an entry whose pipeline run failed. Compensation is mandatory,
// not best-effort — if any part of it fails, the error surfaces as
// COMPENSATION_FAILED so an operator knows the index needs manual attention.
package repo

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/repoforge/repoforge/pkg/config"
	"github.com/repoforge/repoforge/pkg/errors"
	"github.com/repoforge/repoforge/pkg/index"
	"github.com/repoforge/repoforge/pkg/pipeline"
	"github.com/repoforge/repoforge/pkg/pkgspec"
)

// Options configures one admission.
type Options struct {
	// Tag tags the working spec directory's version-control state with the
	// version string before the index append.
	Tag bool
}

// Admitter runs the admission workflow.
type Admitter struct {
	cfg       config.Config
	store     index.Store
	pipe      *pipeline.Pipeline
	tagger    Tagger
	publisher Publisher
	logger    *log.Logger
}

// NewAdmitter wires an admitter. tagger may be nil when tagging is never
// requested; publisher may be nil when no served snapshot exists (rollback
// then skips the republish step).
func NewAdmitter(cfg config.Config, store index.Store, pipe *pipeline.Pipeline, tagger Tagger, publisher Publisher, logger *log.Logger) *Admitter {
	return &Admitter{cfg: cfg, store: store, pipe: pipe, tagger: tagger, publisher: publisher, logger: logger}
}

// Admit validates the package spec in specDir with a full pipeline run and
// durably adds it to the index. On success the loaded record is returned so
// the caller can print the operator follow-up commands.
//
// Each step is a commit point with a compensating rollback:
//
//  1. load spec                       → SPEC_INVALID
//  2. tag (optional)                  → TAG_ERROR
//  3. append to the persisted index   → DUPLICATE_VERSION
//  4. release pipeline run
//  5. on pipeline failure: remove the entry, purge the install cache for
//     the identity, republish the served snapshot, then report the failure
//
// A failed admission is fatal for the calling command: a partially admitted
// package is a correctness violation for every future index read.
func (a *Admitter) Admit(ctx context.Context, specDir string, opts Options) (*pkgspec.Record, error) {
	rec, err := pkgspec.Load(specDir)
	if err != nil {
		return nil, err
	}
	logger := a.logger.With("package", rec.ID())

	if opts.Tag {
		if a.tagger == nil {
			return nil, errors.New(errors.ErrCodeTagError, "tagging requested but no tagger configured")
		}
		if err := a.tagger.Tag(ctx, specDir, rec.Version); err != nil {
			return nil, err
		}
		logger.Info("tagged working copy", "tag", "v"+rec.Version.String())
	}

	if err := a.store.Append(ctx, rec); err != nil {
		return nil, err
	}
	logger.Info("appended to index")

	outcome := a.pipe.Run(ctx, rec)
	if outcome.ExitCode == 0 {
		return rec, nil
	}

	logger.Error("pipeline failed, rolling back", "step", outcome.FailedStep, "exit_code", outcome.ExitCode)
	if compErr := a.compensate(ctx, rec); compErr != nil {
		// Never mask a compensation failure as a pipeline failure: it means
		// the index may now be inconsistent.
		return nil, compErr
	}
	return nil, outcome.Err()
}

// compensate undoes a failed admission. All parts run even if an earlier
// one fails, and every failure is reported by name.
func (a *Admitter) compensate(ctx context.Context, rec *pkgspec.Record) error {
	var failed []string
	var causes []error

	if err := a.store.RemoveByIdentity(ctx, rec.ID()); err != nil {
		failed = append(failed, "index entry removal")
		causes = append(causes, err)
	}

	if dir := a.cfg.InstallCacheEntry(rec.ID()); dir != "" {
		if err := os.RemoveAll(dir); err != nil {
			failed = append(failed, "install cache removal")
			causes = append(causes, err)
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Republish(ctx); err != nil {
			failed = append(failed, "index republish")
			causes = append(causes, err)
		}
	}

	if len(failed) == 0 {
		a.logger.Info("rollback complete", "package", rec.ID())
		return nil
	}

	err := errors.New(errors.ErrCodeCompensationFailed,
		"rollback of %s incomplete (%s failed); the index needs manual attention", rec.ID(), joinAnd(failed))
	for _, cause := range causes {
		a.logger.Error("compensation step failed", "package", rec.ID(), "err", cause)
	}
	return err
}

// FollowUp returns the exact version-control commands an operator must run
// to publish the new index entry. The tool never pushes the index itself.
func FollowUp(cfg config.Config, rec *pkgspec.Record) []string {
	entry := fmt.Sprintf("%s/%s/%s", rec.Name, rec.Version, pkgspec.SpecFilename)
	return []string{
		fmt.Sprintf("cd %s", cfg.IndexRoot),
		fmt.Sprintf("git add %s", entry),
		fmt.Sprintf("git commit -m %q", "index: add "+rec.ID()),
		"git push",
	}
}

func joinAnd(parts []string) string {
	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	default:
		s := ""
		for i, p := range parts {
			switch {
			case i == 0:
				s = p
			case i == len(parts)-1:
				s += ", and " + p
			default:
				s += ", " + p
			}
		}
		return s
	}
}
