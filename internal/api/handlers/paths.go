package handlers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// confine resolves p against base and rejects it when it, or the real path
// behind any symlinks in it, lies outside base. Relative paths are taken
// relative to base. The returned path is the lexical one, not the resolved
// one.
func confine(base, p string, allowBase bool) (string, error) {
	base = filepath.Clean(base)
	target := p
	if !filepath.IsAbs(target) {
		target = filepath.Join(base, target)
	}
	target = filepath.Clean(target)

	if !within(base, target, allowBase) {
		return "", fmt.Errorf("path %q is outside %s", p, base)
	}

	realBase, err := evalExisting(base)
	if err != nil {
		return "", err
	}
	realTarget, err := evalExisting(target)
	if err != nil {
		return "", err
	}
	if !within(realBase, realTarget, allowBase) {
		return "", fmt.Errorf("path %q resolves outside %s", p, base)
	}
	return target, nil
}

func within(base, target string, allowBase bool) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return allowBase
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// evalExisting resolves symlinks in the longest existing prefix of p and
// appends the rest unchanged.
func evalExisting(p string) (string, error) {
	var rest []string
	for {
		resolved, err := filepath.EvalSymlinks(p)
		if err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		parent := filepath.Dir(p)
		if parent == p {
			return filepath.Join(append([]string{p}, rest...)...), nil
		}
		rest = append([]string{filepath.Base(p)}, rest...)
		p = parent
	}
}
