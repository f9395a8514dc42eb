// Package pipeline drives the release pipeline for one package version:
// checkout → install → test → uninstall, inside a scoped scratch directory.
//
// # State machine
//
// A run moves through explicit states:
//
//	Pending → CheckedOut → Installed → Tested → Succeeded
//	                └──────────┴─────────┴────→ Failed
//
// Each transition shells out to the external package manager through the
// [Runner] port. The first non-zero exit aborts the run, recording which
// step failed. Uninstall is the one exception: once the test step has
// passed, an uninstall failure is logged but does not downgrade the run —
// test success is the authoritative signal.
//
// # Isolation
//
// Every run acquires a fresh scratch directory containing a per-run binary
// directory, both uuid-suffixed, and removes them unconditionally when the
// run ends, whatever state was reached. Installed executables never touch
// the shared install path, so repeated or (future) concurrent runs cannot
// collide.
//
// # Usage
//
//	p := pipeline.New(cfg, pipeline.NewExecRunner(logger), logger)
//	outcome := p.Run(ctx, rec)
//	if outcome.ExitCode != 0 {
//	    logger.Error("release failed", "package", outcome.PackageID, "step", outcome.FailedStep)
//	}
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/repoforge/repoforge/pkg/config"
	"github.com/repoforge/repoforge/pkg/errors"
	"github.com/repoforge/repoforge/pkg/pkgspec"
)

// State is a position in the release pipeline state machine.
type State int

const (
	Pending State = iota
	CheckedOut
	Installed
	Tested
	Succeeded
	Failed
)

var stateNames = [...]string{"pending", "checked-out", "installed", "tested", "succeeded", "failed"}

// String returns the lower-case state name.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Step names one pipeline shell-out, used in failure reporting.
type Step string

const (
	StepCheckout  Step = "checkout"
	StepInstall   Step = "install"
	StepTest      Step = "test"
	StepUninstall Step = "uninstall"
)

// Outcome is the immutable result of one pipeline run.
//
// ExitCode is zero iff checkout, install, and test all succeeded. StatsFile
// names the statistics file the test step was directed to, when a stats
// directory is configured; the file is preserved even if the test step
// failed after partially writing it.
type Outcome struct {
	PackageID  string
	ExitCode   int
	FinalState State
	FailedStep Step   // empty unless FinalState is Failed
	StatsFile  string // empty unless a stats dir is configured
}

// Err returns a PIPELINE_STEP_FAILED error describing the outcome, or nil
// for a successful run.
func (o Outcome) Err() error {
	if o.ExitCode == 0 {
		return nil
	}
	return errors.New(errors.ErrCodePipelineStepFailed,
		"%s: %s exited with code %d", o.PackageID, o.FailedStep, o.ExitCode)
}

// Pipeline runs release pipelines for package versions.
// Runs are sequential: the external package manager shells out to a shared
// filesystem working area and is not guaranteed re-entrant.
type Pipeline struct {
	cfg    config.Config
	runner Runner
	logger *log.Logger
}

// New creates a pipeline using the given runner for all shell-outs.
func New(cfg config.Config, runner Runner, logger *log.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, runner: runner, logger: logger}
}

// Run executes the full pipeline for one record and reports the outcome.
// The scratch directory is removed before Run returns, in every case.
func (p *Pipeline) Run(ctx context.Context, rec *pkgspec.Record) Outcome {
	id := rec.ID()
	logger := p.logger.With("package", id)

	outcome := Outcome{PackageID: id, FinalState: Pending}

	workDir, err := os.MkdirTemp(p.cfg.WorkRoot, fmt.Sprintf("repoforge-%s-%s-", id, uuid.NewString()[:8]))
	if err != nil {
		logger.Error("acquiring scratch directory", "err", err)
		outcome.ExitCode = 1
		outcome.FinalState = Failed
		outcome.FailedStep = StepCheckout
		return outcome
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Warn("removing scratch directory", "dir", workDir, "err", err)
		}
	}()

	binDir := filepath.Join(workDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		logger.Error("creating binary directory", "err", err)
		outcome.ExitCode = 1
		outcome.FinalState = Failed
		outcome.FailedStep = StepCheckout
		return outcome
	}

	// Pending -> CheckedOut
	code := p.invoke(ctx, logger, workDir, StepCheckout, "checkout", rec.Name, rec.Version.String())
	if code != 0 {
		return outcome.fail(StepCheckout, code)
	}
	outcome.FinalState = CheckedOut

	srcDir := filepath.Join(workDir, id)

	// CheckedOut -> Installed
	code = p.invoke(ctx, logger, srcDir, StepInstall, "install", "--bindir", binDir)
	if code != 0 {
		return outcome.fail(StepInstall, code)
	}
	outcome.FinalState = Installed

	// Installed -> Tested
	testArgs := []string{"test"}
	if p.cfg.StatsDir != "" {
		if err := os.MkdirAll(p.cfg.StatsDir, 0o755); err != nil {
			logger.Error("creating stats directory", "err", err)
			return outcome.fail(StepTest, 1)
		}
		outcome.StatsFile = filepath.Join(p.cfg.StatsDir, id+".csv")
		testArgs = append(testArgs, "--stats-file", outcome.StatsFile)
	}
	code = p.invoke(ctx, logger, srcDir, StepTest, testArgs...)
	if code != 0 {
		// A partially written stats file is kept for inspection.
		return outcome.fail(StepTest, code)
	}
	outcome.FinalState = Tested

	// Tested -> Succeeded. Uninstall releases the global side effects of
	// installation; its failure never overrides a green test.
	if code = p.invoke(ctx, logger, srcDir, StepUninstall, "uninstall", rec.Name); code != 0 {
		logger.Warn("uninstall failed after successful test", "exit_code", code)
	}
	outcome.FinalState = Succeeded

	logger.Info("pipeline succeeded")
	return outcome
}

// RunAll runs the pipeline for each record in order, continuing past
// failures so a single broken package never aborts a sweep. The input order
// (sorted by name, per the working set contract) is preserved in the result.
func (p *Pipeline) RunAll(ctx context.Context, records []*pkgspec.Record) []Outcome {
	outcomes := make([]Outcome, 0, len(records))
	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		outcomes = append(outcomes, p.Run(ctx, rec))
	}
	return outcomes
}

func (p *Pipeline) invoke(ctx context.Context, logger *log.Logger, dir string, step Step, args ...string) int {
	logger.Debug("running step", "step", step, "dir", dir)

	// The override definitions travel unchanged into every nested
	// invocation so installation paths stay deterministic.
	code, err := p.runner.Run(ctx, dir, p.cfg.Manager, args, p.cfg.Overrides)
	if err != nil {
		logger.Error("step did not run", "step", step, "err", err)
		if code == 0 {
			code = 1
		}
	}
	return code
}

func (o Outcome) fail(step Step, code int) Outcome {
	o.FinalState = Failed
	o.FailedStep = step
	o.ExitCode = code
	return o
}
