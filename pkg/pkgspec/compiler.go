package pkgspec

import (
	"strings"

	"github.com/repoforge/repoforge/pkg/errors"
)

// ParseCompiler parses a compiler identity of the form "name-version",
// e.g. "fc-9.4.0". The name itself may contain dashes; the version is
// everything after the last dash.
func ParseCompiler(s string) (Compiler, error) {
	i := strings.LastIndex(s, "-")
	if i <= 0 || i == len(s)-1 {
		return Compiler{}, errors.New(errors.ErrCodeInvalidInput, "compiler %q must have the form name-version", s)
	}

	version, err := ParseVersion(s[i+1:])
	if err != nil {
		return Compiler{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "compiler %q", s)
	}
	return Compiler{Name: s[:i], Version: version}, nil
}
