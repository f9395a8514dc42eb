package pipeline

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// Runner executes one external command and reports its exit code.
//
// overrides are key=value configuration definitions applied on top of the
// process environment; they are the only environment difference between the
// operator's shell and the package-manager invocations, which keeps runs
// reproducible.
type Runner interface {
	Run(ctx context.Context, dir, name string, args, overrides []string) (int, error)
}

// ExecRunner runs commands via os/exec, streaming their output into the
// logger line by line.
type ExecRunner struct {
	logger *log.Logger
}

// NewExecRunner creates a runner that logs command output through logger.
func NewExecRunner(logger *log.Logger) *ExecRunner {
	return &ExecRunner{logger: logger}
}

// Run executes name with args in dir. The returned error is non-nil only
// when the command could not run at all (not found, dir missing); a command
// that ran and exited non-zero yields (code, nil).
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args, overrides []string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = mergeEnv(os.Environ(), overrides)

	logger := r.logger.With("cmd", name)
	cmd.Stdout = &logWriter{logger: logger, level: log.InfoLevel}
	cmd.Stderr = &logWriter{logger: logger, level: log.ErrorLevel}

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// mergeEnv overlays override definitions on the base environment,
// replacing any base entry with the same key.
func mergeEnv(base, overrides []string) []string {
	if len(overrides) == 0 {
		return base
	}

	keys := make(map[string]bool, len(overrides))
	for _, entry := range overrides {
		if k, _, ok := strings.Cut(entry, "="); ok {
			keys[k] = true
		}
	}

	merged := make([]string, 0, len(base)+len(overrides))
	for _, entry := range base {
		if k, _, ok := strings.Cut(entry, "="); ok && keys[k] {
			continue
		}
		merged = append(merged, entry)
	}
	return append(merged, overrides...)
}

// logWriter forwards command output to the logger one line at a time.
type logWriter struct {
	logger *log.Logger
	level  log.Level
}

func (w *logWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimSuffix(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}
		w.logger.Log(w.level, line)
	}
	return len(p), nil
}

// Ensure ExecRunner implements Runner.
var _ Runner = (*ExecRunner)(nil)
