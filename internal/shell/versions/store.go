// Package versions manages tag-named config checkouts under a base path and
// the atomic "current" pointer that names the live one.
//
// On-disk layout:
//
//	{base}/config-{tag}/   one immutable checkout per version
//	{base}/current         symlink to the active checkout
package versions

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	versionPrefix = "config-"
	pointerName   = "current"
)

// Cloner fetches one tag of a repository into a destination directory.
// Implemented by proc.Git; faked in tests.
type Cloner interface {
	CloneAtTag(ctx context.Context, url, tag, dest string) error
}

// =============================================================================
// Store
// =============================================================================

// Store manages versioned config directories under one base path. A single
// run owns the base path for its duration; concurrent runs against the same
// base are not supported and must be excluded by the caller.
type Store struct {
	basePath string
	cloner   Cloner
	logger   *slog.Logger
}

// NewStore creates a store rooted at basePath.
func NewStore(basePath string, cloner Cloner, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		basePath: basePath,
		cloner:   cloner,
		logger:   logger,
	}
}

// VersionPath returns the directory for a tag: {base}/config-{tag}.
// Deterministic and injective for distinct path-safe tags.
func VersionPath(basePath, tag string) string {
	return filepath.Join(basePath, versionPrefix+tag)
}

// PointerPath returns the location of the current pointer under basePath.
func PointerPath(basePath string) string {
	return filepath.Join(basePath, pointerName)
}

// =============================================================================
// Operations
// =============================================================================

// EnsureVersion makes {base}/config-{tag} exist and returns its path. An
// existing directory is returned as-is with no clone, which is what lets a
// rollback reuse a version fetched by an earlier deploy. The content of an
// existing directory is trusted to match the tag; it is not re-verified.
func (s *Store) EnsureVersion(ctx context.Context, repoURL, tag string) (string, error) {
	if err := validateTag(tag); err != nil {
		return "", err
	}

	path := VersionPath(s.basePath, tag)
	if _, err := os.Stat(path); err == nil {
		s.logger.Info("version already present, reusing", "tag", tag, "path", path)
		return path, nil
	}

	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return "", NewStoreError("EnsureVersion", tag, fmt.Sprintf("create base path: %v", err), err)
	}

	s.logger.Info("cloning version", "tag", tag, "path", path)
	if err := s.cloner.CloneAtTag(ctx, repoURL, tag, path); err != nil {
		return "", NewStoreError("EnsureVersion", tag, err.Error(), ErrClone)
	}

	return path, nil
}

// Publish atomically repoints {base}/current at versionPath and returns the
// pointer path. The pointer is created under a unique temporary name and
// renamed into place, so a concurrent reader sees either the old target or
// the new one, never a missing or half-written pointer.
func (s *Store) Publish(versionPath string) (string, error) {
	pointer := PointerPath(s.basePath)
	tmp := filepath.Join(s.basePath, fmt.Sprintf(".%s.%s.tmp", pointerName, uuid.NewString()))

	if err := os.Symlink(versionPath, tmp); err != nil {
		return "", NewStoreError("Publish", "", fmt.Sprintf("create temp pointer: %v", err), ErrPublish)
	}
	if err := os.Rename(tmp, pointer); err != nil {
		_ = os.Remove(tmp)
		return "", NewStoreError("Publish", "", fmt.Sprintf("replace pointer: %v", err), ErrPublish)
	}

	s.logger.Info("published current pointer", "pointer", pointer, "target", versionPath)
	return pointer, nil
}

// Current returns the path the current pointer resolves to, or "" when no
// pointer has been published yet.
func (s *Store) Current() string {
	target, err := os.Readlink(PointerPath(s.basePath))
	if err != nil {
		return ""
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(s.basePath, target)
	}
	return target
}

// Cleanup removes version directories beyond the keep newest. Failures are
// logged and skipped; retention never fails a deployment. The directory the
// current pointer resolves to is always kept, whatever its age.
func (s *Store) Cleanup(keep int) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		s.logger.Warn("cleanup: cannot list base path", "path", s.basePath, "error", err)
		return
	}

	type versionDir struct {
		path    string
		modTime time.Time
	}
	var dirs []versionDir
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), versionPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			s.logger.Warn("cleanup: cannot stat version dir", "name", e.Name(), "error", err)
			continue
		}
		dirs = append(dirs, versionDir{
			path:    filepath.Join(s.basePath, e.Name()),
			modTime: info.ModTime(),
		})
	}

	// Newest first; everything past the keep window goes.
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].modTime.After(dirs[j].modTime) })

	current := s.Current()
	for i := keep; i < len(dirs); i++ {
		if dirs[i].path == current {
			s.logger.Info("cleanup: keeping current version despite age", "path", dirs[i].path)
			continue
		}
		s.logger.Info("cleanup: removing old version", "path", dirs[i].path)
		if err := os.RemoveAll(dirs[i].path); err != nil {
			s.logger.Warn("cleanup: remove failed, skipping", "path", dirs[i].path, "error", err)
		}
	}
}

// validateTag rejects tags that would escape or mangle the base path.
func validateTag(tag string) error {
	if tag == "" || tag == "." || tag == ".." || strings.ContainsAny(tag, "/\\") {
		return NewStoreError("EnsureVersion", tag, "tag must be a plain path segment", ErrBadTag)
	}
	return nil
}
