package versions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Fake Cloner
// =============================================================================

type fakeCloner struct {
	calls int
	err   error
}

func (f *fakeCloner) CloneAtTag(_ context.Context, _, _, dest string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	// A real clone produces the destination directory with content.
	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dest, "traefik.yml"), []byte("entryPoints: {}\n"), 0644)
}

// =============================================================================
// VersionPath Tests
// =============================================================================

func TestVersionPath(t *testing.T) {
	assert.Equal(t, "/opt/configs/config-v1.2.3", VersionPath("/opt/configs", "v1.2.3"))
	assert.Equal(t, "/opt/configs/config-v2.0.0", VersionPath("/opt/configs", "v2.0.0"))
	// Distinct tags always map to distinct paths.
	assert.NotEqual(t, VersionPath("/base", "a"), VersionPath("/base", "b"))
}

// =============================================================================
// EnsureVersion Tests
// =============================================================================

func TestEnsureVersion_ClonesOnce(t *testing.T) {
	base := t.TempDir()
	cloner := &fakeCloner{}
	s := NewStore(base, cloner, nil)

	path1, err := s.EnsureVersion(context.Background(), "https://example.com/cfg.git", "v1.2.3")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "config-v1.2.3"), path1)
	assert.Equal(t, 1, cloner.calls)

	// Second call with the same tag returns the identical path with no
	// further process invocation.
	path2, err := s.EnsureVersion(context.Background(), "https://example.com/cfg.git", "v1.2.3")
	require.NoError(t, err)
	assert.Equal(t, path1, path2)
	assert.Equal(t, 1, cloner.calls)
}

func TestEnsureVersion_CreatesBasePath(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "configs")
	s := NewStore(base, &fakeCloner{}, nil)

	path, err := s.EnsureVersion(context.Background(), "https://example.com/cfg.git", "v1.0.0")
	require.NoError(t, err)
	assert.DirExists(t, path)
}

func TestEnsureVersion_CloneFailure(t *testing.T) {
	cloner := &fakeCloner{err: errors.New("fatal: Remote branch v9 not found in upstream origin")}
	s := NewStore(t.TempDir(), cloner, nil)

	_, err := s.EnsureVersion(context.Background(), "https://example.com/cfg.git", "v9")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClone)
	// The collaborator's diagnostics must survive into the error message.
	assert.Contains(t, err.Error(), "Remote branch v9 not found")
}

func TestEnsureVersion_BadTag(t *testing.T) {
	s := NewStore(t.TempDir(), &fakeCloner{}, nil)

	for _, tag := range []string{"", ".", "..", "a/b", `a\b`} {
		_, err := s.EnsureVersion(context.Background(), "https://example.com/cfg.git", tag)
		assert.ErrorIs(t, err, ErrBadTag, "tag %q", tag)
	}
}

// =============================================================================
// Publish Tests
// =============================================================================

func TestPublish(t *testing.T) {
	base := t.TempDir()
	s := NewStore(base, &fakeCloner{}, nil)

	version := filepath.Join(base, "config-v1.2.3")
	require.NoError(t, os.MkdirAll(version, 0755))

	pointer, err := s.Publish(version)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "current"), pointer)

	target, err := os.Readlink(pointer)
	require.NoError(t, err)
	assert.Equal(t, version, target)
	assert.Equal(t, version, s.Current())
}

func TestPublish_ReplacesExistingPointer(t *testing.T) {
	base := t.TempDir()
	s := NewStore(base, &fakeCloner{}, nil)

	v1 := filepath.Join(base, "config-v1")
	v2 := filepath.Join(base, "config-v2")
	require.NoError(t, os.MkdirAll(v1, 0755))
	require.NoError(t, os.MkdirAll(v2, 0755))

	_, err := s.Publish(v1)
	require.NoError(t, err)
	_, err = s.Publish(v2)
	require.NoError(t, err)

	assert.Equal(t, v2, s.Current())
}

func TestPublish_LeavesNoTempFiles(t *testing.T) {
	base := t.TempDir()
	s := NewStore(base, &fakeCloner{}, nil)

	version := filepath.Join(base, "config-v1")
	require.NoError(t, os.MkdirAll(version, 0755))
	_, err := s.Publish(version)
	require.NoError(t, err)

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp pointer %s survived publish", e.Name())
	}
}

func TestPublish_OldPointerValidUntilRename(t *testing.T) {
	// Simulate the state between temp-create and rename: the temp pointer
	// exists alongside the old one. The current pointer must still resolve
	// to the previous version.
	base := t.TempDir()
	s := NewStore(base, &fakeCloner{}, nil)

	v1 := filepath.Join(base, "config-v1")
	v2 := filepath.Join(base, "config-v2")
	require.NoError(t, os.MkdirAll(v1, 0755))
	require.NoError(t, os.MkdirAll(v2, 0755))

	_, err := s.Publish(v1)
	require.NoError(t, err)

	// Crash point: temp pointer created, rename never happened.
	require.NoError(t, os.Symlink(v2, filepath.Join(base, ".current.crashed.tmp")))

	assert.Equal(t, v1, s.Current(), "old pointer must remain valid")
	_, err = os.Stat(PointerPath(base))
	assert.NoError(t, err, "current must never resolve to a nonexistent path")
}

func TestCurrent_NoPointer(t *testing.T) {
	s := NewStore(t.TempDir(), &fakeCloner{}, nil)
	assert.Empty(t, s.Current())
}

// =============================================================================
// Cleanup Tests
// =============================================================================

// makeVersionDirs creates n version directories with strictly increasing
// modification times, oldest first.
func makeVersionDirs(t *testing.T, base string, tags []string) []string {
	t.Helper()
	var paths []string
	start := time.Now().Add(-time.Duration(len(tags)) * time.Hour)
	for i, tag := range tags {
		p := VersionPath(base, tag)
		require.NoError(t, os.MkdirAll(p, 0755))
		mtime := start.Add(time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(p, mtime, mtime))
		paths = append(paths, p)
	}
	return paths
}

func TestCleanup_KeepsNewestThree(t *testing.T) {
	base := t.TempDir()
	s := NewStore(base, &fakeCloner{}, nil)
	paths := makeVersionDirs(t, base, []string{"v1", "v2", "v3", "v4", "v5"})

	s.Cleanup(3)

	assert.NoDirExists(t, paths[0])
	assert.NoDirExists(t, paths[1])
	assert.DirExists(t, paths[2])
	assert.DirExists(t, paths[3])
	assert.DirExists(t, paths[4])
}

func TestCleanup_FewerThanKeep(t *testing.T) {
	base := t.TempDir()
	s := NewStore(base, &fakeCloner{}, nil)
	paths := makeVersionDirs(t, base, []string{"v1", "v2"})

	s.Cleanup(3)

	assert.DirExists(t, paths[0])
	assert.DirExists(t, paths[1])
}

func TestCleanup_IgnoresUnrelatedEntries(t *testing.T) {
	base := t.TempDir()
	s := NewStore(base, &fakeCloner{}, nil)
	makeVersionDirs(t, base, []string{"v1"})
	unrelated := filepath.Join(base, "notes")
	require.NoError(t, os.MkdirAll(unrelated, 0755))

	s.Cleanup(0)

	assert.DirExists(t, unrelated)
}

func TestCleanup_NeverRemovesCurrentTarget(t *testing.T) {
	base := t.TempDir()
	s := NewStore(base, &fakeCloner{}, nil)
	paths := makeVersionDirs(t, base, []string{"v1", "v2", "v3", "v4", "v5"})

	// Point current at the oldest version, as after a rollback.
	_, err := s.Publish(paths[0])
	require.NoError(t, err)

	s.Cleanup(3)

	assert.DirExists(t, paths[0], "current target must survive retention")
	assert.NoDirExists(t, paths[1])
}

func TestCleanup_MissingBasePath(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "gone"), &fakeCloner{}, nil)
	// Must not panic or fail; cleanup errors are swallowed.
	s.Cleanup(3)
}
