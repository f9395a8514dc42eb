package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/repoforge/repoforge/pkg/config"
	"github.com/repoforge/repoforge/pkg/errors"
	"github.com/repoforge/repoforge/pkg/pkgspec"
)

// call records one runner invocation.
type call struct {
	dir  string
	name string
	args []string
}

// fakeRunner scripts exit codes per step verb and records every call.
type fakeRunner struct {
	codes map[string]int // step verb -> exit code, default 0
	calls []call
}

func (f *fakeRunner) Run(ctx context.Context, dir, name string, args, overrides []string) (int, error) {
	f.calls = append(f.calls, call{dir: dir, name: name, args: args})
	if len(args) == 0 {
		return 0, nil
	}
	return f.codes[args[0]], nil
}

func (f *fakeRunner) stepVerbs() []string {
	verbs := make([]string, len(f.calls))
	for i, c := range f.calls {
		verbs[i] = c.args[0]
	}
	return verbs
}

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func testRecord(name, version string) *pkgspec.Record {
	return &pkgspec.Record{Name: name, Version: pkgspec.MustParseVersion(version)}
}

func newTestPipeline(t *testing.T, runner Runner, statsDir string) *Pipeline {
	t.Helper()
	cfg := config.Default()
	cfg.WorkRoot = t.TempDir()
	cfg.StatsDir = statsDir
	return New(cfg, runner, testLogger())
}

func TestRunSuccess(t *testing.T) {
	runner := &fakeRunner{}
	p := newTestPipeline(t, runner, "")

	outcome := p.Run(context.Background(), testRecord("alpha", "1.0.0"))

	if outcome.ExitCode != 0 {
		t.Fatalf("ExitCode = %d, want 0", outcome.ExitCode)
	}
	if outcome.FinalState != Succeeded {
		t.Errorf("FinalState = %s, want succeeded", outcome.FinalState)
	}
	if outcome.Err() != nil {
		t.Errorf("Err() = %v, want nil", outcome.Err())
	}

	want := []string{"checkout", "install", "test", "uninstall"}
	got := runner.stepVerbs()
	if len(got) != len(want) {
		t.Fatalf("step verbs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRunCheckoutFailureStopsEarly(t *testing.T) {
	runner := &fakeRunner{codes: map[string]int{"checkout": 2}}
	p := newTestPipeline(t, runner, "")

	outcome := p.Run(context.Background(), testRecord("alpha", "1.0.0"))

	if outcome.FinalState != Failed || outcome.FailedStep != StepCheckout {
		t.Errorf("outcome = %+v", outcome)
	}
	if outcome.ExitCode != 2 {
		t.Errorf("ExitCode = %d, want 2", outcome.ExitCode)
	}
	if len(runner.calls) != 1 {
		t.Errorf("a failed checkout must not be followed by further steps: %v", runner.stepVerbs())
	}
	if errors.GetCode(outcome.Err()) != errors.ErrCodePipelineStepFailed {
		t.Errorf("Err() code = %s", errors.GetCode(outcome.Err()))
	}
}

func TestRunInstallFailure(t *testing.T) {
	runner := &fakeRunner{codes: map[string]int{"install": 1}}
	p := newTestPipeline(t, runner, "")

	outcome := p.Run(context.Background(), testRecord("alpha", "1.0.0"))

	if outcome.FinalState != Failed || outcome.FailedStep != StepInstall {
		t.Errorf("outcome = %+v", outcome)
	}
	got := runner.stepVerbs()
	if len(got) != 2 || got[1] != "install" {
		t.Errorf("steps = %v", got)
	}
}

func TestRunTestFailurePreservesStatsFile(t *testing.T) {
	runner := &fakeRunner{codes: map[string]int{"test": 3}}
	p := newTestPipeline(t, runner, t.TempDir())

	outcome := p.Run(context.Background(), testRecord("alpha", "1.0.0"))

	if outcome.FinalState != Failed || outcome.FailedStep != StepTest {
		t.Errorf("outcome = %+v", outcome)
	}
	if outcome.StatsFile == "" || filepath.Base(outcome.StatsFile) != "alpha-1.0.0.csv" {
		t.Errorf("StatsFile = %q", outcome.StatsFile)
	}
}

func TestRunUninstallFailureDoesNotDowngrade(t *testing.T) {
	runner := &fakeRunner{codes: map[string]int{"uninstall": 1}}
	p := newTestPipeline(t, runner, "")

	outcome := p.Run(context.Background(), testRecord("alpha", "1.0.0"))

	if outcome.ExitCode != 0 || outcome.FinalState != Succeeded {
		t.Errorf("uninstall failure must not fail the run: %+v", outcome)
	}
}

func TestRunStatsFileArgument(t *testing.T) {
	statsDir := t.TempDir()
	runner := &fakeRunner{}
	p := newTestPipeline(t, runner, statsDir)

	outcome := p.Run(context.Background(), testRecord("alpha", "1.2.0"))

	want := filepath.Join(statsDir, "alpha-1.2.0.csv")
	if outcome.StatsFile != want {
		t.Errorf("StatsFile = %q, want %q", outcome.StatsFile, want)
	}

	var testCall *call
	for i := range runner.calls {
		if runner.calls[i].args[0] == "test" {
			testCall = &runner.calls[i]
		}
	}
	if testCall == nil {
		t.Fatal("test step never ran")
	}
	joined := strings.Join(testCall.args, " ")
	if !strings.Contains(joined, "--stats-file "+want) {
		t.Errorf("test args = %v", testCall.args)
	}
}

func TestRunRemovesScratchDirectory(t *testing.T) {
	workRoot := t.TempDir()
	cfg := config.Default()
	cfg.WorkRoot = workRoot

	// Fail the checkout to exercise cleanup on the failure path too.
	runner := &fakeRunner{codes: map[string]int{"checkout": 1}}
	p := New(cfg, runner, testLogger())
	p.Run(context.Background(), testRecord("alpha", "1.0.0"))

	entries, err := os.ReadDir(workRoot)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("scratch directory left behind: %v", entries)
	}
}

func TestRunAllContinuesPastFailures(t *testing.T) {
	runner := &fakeRunner{codes: map[string]int{"install": 1}}
	p := newTestPipeline(t, runner, "")

	outcomes := p.RunAll(context.Background(), []*pkgspec.Record{
		testRecord("alpha", "1.0.0"),
		testRecord("beta", "1.0.0"),
	})

	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(outcomes))
	}
	if outcomes[0].PackageID != "alpha-1.0.0" || outcomes[1].PackageID != "beta-1.0.0" {
		t.Errorf("outcome order: %s, %s", outcomes[0].PackageID, outcomes[1].PackageID)
	}
	for _, o := range outcomes {
		if o.FinalState != Failed {
			t.Errorf("%s: FinalState = %s", o.PackageID, o.FinalState)
		}
	}
}

func TestRunAllStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestPipeline(t, &fakeRunner{}, "")
	outcomes := p.RunAll(ctx, []*pkgspec.Record{testRecord("alpha", "1.0.0")})
	if len(outcomes) != 0 {
		t.Errorf("cancelled sweep produced %d outcomes", len(outcomes))
	}
}

func TestMergeEnv(t *testing.T) {
	base := []string{"PATH=/usr/bin", "HOME=/home/u", "PREFIX=/opt/old"}
	overrides := []string{"PREFIX=/opt/new", "EXTRA=1"}

	merged := mergeEnv(base, overrides)

	got := map[string]string{}
	for _, entry := range merged {
		k, v, _ := strings.Cut(entry, "=")
		got[k] = v
	}
	if got["PREFIX"] != "/opt/new" {
		t.Errorf("PREFIX = %q, want override", got["PREFIX"])
	}
	if got["PATH"] != "/usr/bin" || got["HOME"] != "/home/u" || got["EXTRA"] != "1" {
		t.Errorf("merged env = %v", got)
	}
	if len(merged) != 4 {
		t.Errorf("merged has %d entries, want 4", len(merged))
	}

	if out := mergeEnv(base, nil); len(out) != len(base) {
		t.Errorf("no overrides should return the base env unchanged")
	}
}

func TestStateString(t *testing.T) {
	if Pending.String() != "pending" || Succeeded.String() != "succeeded" {
		t.Errorf("state names: %s, %s", Pending, Succeeded)
	}
	if got := State(99).String(); got != "state(99)" {
		t.Errorf("out-of-range state = %q", got)
	}
}
