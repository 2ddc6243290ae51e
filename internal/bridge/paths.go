package bridge

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PathPolicy limits the document paths save and load may use. Patterns are
// doublestar globs written with forward slashes; backslashes in the path are
// treated as separators before matching. Deny is checked first, and an empty
// Allow list allows everything not denied.
type PathPolicy struct {
	Allow []string
	Deny  []string
}

// NewPathPolicy returns a policy after checking every pattern is well formed.
func NewPathPolicy(allow, deny []string) (PathPolicy, error) {
	for _, p := range append(append([]string(nil), allow...), deny...) {
		if !doublestar.ValidatePattern(p) {
			return PathPolicy{}, fmt.Errorf("invalid document path pattern %q", p)
		}
	}
	return PathPolicy{Allow: allow, Deny: deny}, nil
}

// Check returns an error when path is not permitted.
func (p PathPolicy) Check(path string) error {
	if len(p.Allow) == 0 && len(p.Deny) == 0 {
		return nil
	}
	slashed := strings.ReplaceAll(path, `\`, "/")
	for _, pattern := range p.Deny {
		if match(pattern, slashed) {
			return fmt.Errorf("document path %q is denied by pattern %q", path, pattern)
		}
	}
	if len(p.Allow) == 0 {
		return nil
	}
	for _, pattern := range p.Allow {
		if match(pattern, slashed) {
			return nil
		}
	}
	return fmt.Errorf("document path %q is not in the allowed locations", path)
}

func match(pattern, path string) bool {
	ok, err := doublestar.Match(pattern, path)
	return err == nil && ok
}
