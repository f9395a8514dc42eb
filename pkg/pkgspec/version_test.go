package pkgspec

import (
	"testing"

	"github.com/repoforge/repoforge/pkg/errors"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1.2.3", "1.2.3", true},
		{"0.0.0", "0.0.0", true},
		{"1.2.3.4", "1.2.3.4", true},
		{"10.20.30.40", "10.20.30.40", true},
		{"1.2", "", false},
		{"1.2.3.4.5", "", false},
		{"1.2.x", "", false},
		{"1.02.3", "", false}, // leading zero
		{"-1.2.3", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		v, err := ParseVersion(tt.in)
		if tt.ok {
			if err != nil {
				t.Errorf("ParseVersion(%q) error: %v", tt.in, err)
				continue
			}
			if got := v.String(); got != tt.want {
				t.Errorf("ParseVersion(%q).String() = %q, want %q", tt.in, got, tt.want)
			}
		} else {
			if err == nil {
				t.Errorf("ParseVersion(%q) succeeded, want error", tt.in)
				continue
			}
			if code := errors.GetCode(err); code != errors.ErrCodeInvalidVersion {
				t.Errorf("ParseVersion(%q) code = %s, want %s", tt.in, code, errors.ErrCodeInvalidVersion)
			}
		}
	}
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "2.0.0", -1},
		{"2.0.0", "1.9.9", 1},
		{"1.2.0", "1.10.0", -1},
		{"1.2.3", "1.2.4", -1},
		// A missing build component sorts before any build component.
		{"1.2.3", "1.2.3.0", -1},
		{"1.2.3.0", "1.2.3.1", -1},
		{"1.2.3.1", "1.2.3", 1},
		{"1.2.3.5", "1.2.3.5", 0},
	}

	for _, tt := range tests {
		a, b := MustParseVersion(tt.a), MustParseVersion(tt.b)
		if got := a.Compare(b); got != tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := b.Compare(a); got != -tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.b, tt.a, got, -tt.want)
		}
		if gotLess := a.Less(b); gotLess != (tt.want < 0) {
			t.Errorf("Less(%s, %s) = %v, want %v", tt.a, tt.b, gotLess, tt.want < 0)
		}
	}
}

func TestVersionBuild(t *testing.T) {
	v := NewVersion(1, 2, 3)
	if _, has := v.Build(); has {
		t.Error("NewVersion should not carry a build component")
	}

	w := v.WithBuild(7)
	if b, has := w.Build(); !has || b != 7 {
		t.Errorf("WithBuild(7).Build() = %d, %v", b, has)
	}
	// Original is unchanged.
	if _, has := v.Build(); has {
		t.Error("WithBuild must not mutate the receiver")
	}
}

func TestVersionTextRoundTrip(t *testing.T) {
	for _, s := range []string{"1.2.3", "1.2.3.4", "0.0.1"} {
		v := MustParseVersion(s)
		text, err := v.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%s): %v", s, err)
		}
		var back Version
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s): %v", text, err)
		}
		if back.Compare(v) != 0 {
			t.Errorf("round trip of %s produced %s", s, back)
		}
	}

	var v Version
	if err := v.UnmarshalText([]byte("not-a-version")); err == nil {
		t.Error("UnmarshalText should reject invalid input")
	}
}

func TestParseCompiler(t *testing.T) {
	c, err := ParseCompiler("fc-9.4.0")
	if err != nil {
		t.Fatalf("ParseCompiler: %v", err)
	}
	if c.Name != "fc" || c.Version.String() != "9.4.0" {
		t.Errorf("ParseCompiler = %+v", c)
	}
	if got := c.String(); got != "fc-9.4.0" {
		t.Errorf("Compiler.String() = %q", got)
	}

	// Names may contain dashes; the version is after the last one.
	c, err = ParseCompiler("my-compiler-1.0.0")
	if err != nil {
		t.Fatalf("ParseCompiler: %v", err)
	}
	if c.Name != "my-compiler" || c.Version.String() != "1.0.0" {
		t.Errorf("ParseCompiler = %+v", c)
	}

	for _, s := range []string{"fc", "-1.0.0", "fc-", "fc-abc"} {
		if _, err := ParseCompiler(s); err == nil {
			t.Errorf("ParseCompiler(%q) succeeded, want error", s)
		}
	}
}
