package pipeline

import (
	types "GridForge/pkg"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Discoverer finds video files below a root directory by extension.
type Discoverer struct {
	extensions      []string
	caseInsensitive bool
	sort            bool
	strict          bool
	logger          *zap.Logger
}

func NewDiscoverer(cfg types.DiscoveryConfig, logger *zap.Logger) *Discoverer {
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = types.DefaultExtensions()
	}
	normalized := make([]string, len(exts))
	for i, ext := range exts {
		if cfg.CaseInsensitive {
			ext = strings.ToLower(ext)
		}
		normalized[i] = ext
	}
	return &Discoverer{
		extensions:      normalized,
		caseInsensitive: cfg.CaseInsensitive,
		sort:            cfg.Sort,
		strict:          cfg.Strict,
		logger:          logger,
	}
}

// Matches reports whether a file name carries one of the allowed extensions.
func (d *Discoverer) Matches(name string) bool {
	if d.caseInsensitive {
		name = strings.ToLower(name)
	}
	for _, ext := range d.extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Discover walks root and returns every matching file. A symlinked root is
// followed; symlinked directories below it are not descended. An empty
// result is not an error.
func (d *Discoverer) Discover(ctx context.Context, root string) ([]string, error) {
	start := time.Now()

	info, err := os.Stat(root)
	if err != nil {
		return nil, newDiscoveryError(root, root, err)
	}
	if !info.IsDir() {
		return nil, &DiscoveryError{Root: root, Path: root, Kind: DiscoveryNotDirectory}
	}

	// WalkDir does not follow a symlinked root; a trailing separator makes
	// the initial Lstat resolve it while keeping the caller's path prefix.
	walkRoot := root
	if link, lstatErr := os.Lstat(root); lstatErr == nil && link.Mode()&fs.ModeSymlink != 0 {
		walkRoot = root + string(filepath.Separator)
	}

	var files []string
	var skipped int
	err = filepath.WalkDir(walkRoot, func(path string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == walkRoot || d.strict {
				return newDiscoveryError(root, path, err)
			}
			skipped++
			d.logger.Warn("Skipping unreadable path", zap.String("path", path), zap.Error(err))
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		if !d.Matches(entry.Name()) {
			return nil
		}
		if entry.Type()&fs.ModeSymlink != 0 {
			if target, statErr := os.Stat(path); statErr == nil && target.IsDir() {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if d.sort {
		sort.Strings(files)
	}

	d.logger.Info("Discovery completed",
		zap.String("root", root),
		zap.Int("files", len(files)),
		zap.Int("skipped", skipped),
		zap.Duration("duration", time.Since(start)))
	return files, nil
}
