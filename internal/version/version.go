// Package version implements the semantic version rules used when linking
// dependencies and migrating deployment record schemas.
package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Satisfies reports whether a deployed version meets a manifest requirement.
// An absent requirement accepts anything, identical strings always match,
// and otherwise the version is coerced to a canonical numeric triple and
// checked against the requirement's semantic range.
func Satisfies(version, requirement string) bool {
	if requirement == "" {
		return true
	}
	if version == requirement {
		return true
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	c, err := semver.NewConstraint(requirement)
	if err != nil {
		return false
	}
	return c.Check(v)
}

// Compare orders two versions numerically, coercing partial versions such as
// "2.1" to full triples. It returns -1, 0 or 1.
func Compare(a, b string) (int, error) {
	va, err := semver.NewVersion(a)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", a, err)
	}
	vb, err := semver.NewVersion(b)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", b, err)
	}
	return va.Compare(vb), nil
}

// Before reports whether schema version a predates b. Unparseable versions
// are treated as predating everything, which routes malformed legacy records
// through migration.
func Before(a, b string) bool {
	cmp, err := Compare(a, b)
	if err != nil {
		return true
	}
	return cmp < 0
}
