package repo

import (
	"context"

	"github.com/repoforge/repoforge/pkg/errors"
	"github.com/repoforge/repoforge/pkg/pipeline"
	"github.com/repoforge/repoforge/pkg/pkgspec"
)

// Tagger marks the version-control state of a working spec directory with a
// release version. Re-tagging an existing version must be idempotent
// (delete-then-recreate), since a failed admission may leave a tag behind.
type Tagger interface {
	Tag(ctx context.Context, dir string, version pkgspec.Version) error
}

// GitTagger tags with git and pushes the tag to origin. It shells out
// through the same Runner port the pipeline uses.
type GitTagger struct {
	runner pipeline.Runner
}

// NewGitTagger creates a git-backed tagger.
func NewGitTagger(runner pipeline.Runner) *GitTagger {
	return &GitTagger{runner: runner}
}

// Tag creates (or moves, when it already exists) the tag "v<version>" in dir
// and force-pushes it. Any git failure yields a TAG_ERROR.
func (t *GitTagger) Tag(ctx context.Context, dir string, version pkgspec.Version) error {
	tag := "v" + version.String()

	// -f replaces an existing tag, giving the delete-then-recreate
	// semantics a retried admission needs.
	if err := t.git(ctx, dir, "tag", "-f", tag); err != nil {
		return err
	}
	return t.git(ctx, dir, "push", "--force", "origin", tag)
}

func (t *GitTagger) git(ctx context.Context, dir string, args ...string) error {
	code, err := t.runner.Run(ctx, dir, "git", args, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeTagError, err, "git %s did not run", args[0])
	}
	if code != 0 {
		return errors.New(errors.ErrCodeTagError, "git %s exited with code %d", args[0], code)
	}
	return nil
}

// Ensure GitTagger implements Tagger.
var _ Tagger = (*GitTagger)(nil)
