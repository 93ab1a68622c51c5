package local

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeTree creates <root>/candidates/<candidate>/<version>/bin for each pair.
func makeTree(t *testing.T, versions map[string][]string) string {
	t.Helper()
	root := t.TempDir()
	for candidate, vs := range versions {
		for _, v := range vs {
			require.NoError(t, os.MkdirAll(filepath.Join(root, "candidates", candidate, v, "bin"), 0755))
		}
	}
	return root
}

func TestInstalledVersions(t *testing.T) {
	root := makeTree(t, map[string][]string{"java": {"21.0.1-tem", "17.0.9-tem", "11.0.21-zulu"}})
	// A stray file is not a version.
	require.NoError(t, os.WriteFile(filepath.Join(root, "candidates", "java", "notes.txt"), nil, 0644))
	links := NewLinks(root)
	require.NoError(t, links.SetDefault("java", "17.0.9-tem"))

	s := NewScanner(root)
	versions, err := s.InstalledVersions("java")
	require.NoError(t, err)
	assert.Equal(t, []string{"11.0.21-zulu", "17.0.9-tem", "21.0.1-tem"}, versions)

	none, err := s.InstalledVersions("kotlin")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestIsInstalled(t *testing.T) {
	s := NewScanner(makeTree(t, map[string][]string{"maven": {"3.9.6"}}))
	assert.True(t, s.IsInstalled("maven", "3.9.6"))
	assert.False(t, s.IsInstalled("maven", "3.8.8"))
	assert.False(t, s.IsInstalled("gradle", "8.5"))
}

func TestCurrentVersion(t *testing.T) {
	root := makeTree(t, map[string][]string{"java": {"17.0.9-tem", "21.0.1-tem"}})
	s := NewScanner(root)
	links := NewLinks(root)

	cur, err := s.CurrentVersion("java")
	require.NoError(t, err)
	assert.Empty(t, cur)

	require.NoError(t, links.SetDefault("java", "21.0.1-tem"))
	cur, err = s.CurrentVersion("java")
	require.NoError(t, err)
	assert.Equal(t, "21.0.1-tem", cur)
	assert.True(t, links.IsValid("java"))

	require.NoError(t, links.SetDefault("java", "17.0.9-tem"))
	cur, err = s.CurrentVersion("java")
	require.NoError(t, err)
	assert.Equal(t, "17.0.9-tem", cur)
}

func TestCurrentVersionDangling(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("dangling links need native symlinks")
	}
	root := makeTree(t, map[string][]string{"java": {"17.0.9-tem"}})
	links := NewLinks(root)
	require.NoError(t, links.SetDefault("java", "17.0.9-tem"))
	require.NoError(t, os.RemoveAll(filepath.Join(root, "candidates", "java", "17.0.9-tem")))

	s := NewScanner(root)
	cur, err := s.CurrentVersion("java")
	require.NoError(t, err)
	assert.Empty(t, cur)
	assert.False(t, links.IsValid("java"))

	// A dangling link is replaced, not an error.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "candidates", "java", "11.0.21-zulu"), 0755))
	require.NoError(t, links.SetDefault("java", "11.0.21-zulu"))
	cur, err = s.CurrentVersion("java")
	require.NoError(t, err)
	assert.Equal(t, "11.0.21-zulu", cur)
}

func TestSetDefaultNotInstalled(t *testing.T) {
	links := NewLinks(makeTree(t, map[string][]string{"java": {"17.0.9-tem"}}))
	err := links.SetDefault("java", "8.0.392-tem")
	assert.ErrorIs(t, err, ErrNotInstalled)
}

func TestUnsetDefault(t *testing.T) {
	root := makeTree(t, map[string][]string{"gradle": {"8.5"}})
	links := NewLinks(root)

	require.NoError(t, links.UnsetDefault("gradle"), "no link is fine")

	require.NoError(t, links.SetDefault("gradle", "8.5"))
	require.NoError(t, links.UnsetDefault("gradle"))

	cur, err := NewScanner(root).CurrentVersion("gradle")
	require.NoError(t, err)
	assert.Empty(t, cur)
	assert.DirExists(t, filepath.Join(root, "candidates", "gradle", "8.5"))
}

func TestInstalledCandidates(t *testing.T) {
	root := makeTree(t, map[string][]string{
		"maven": {"3.9.6"},
		"java":  {"17.0.9-tem"},
	})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "candidates", "kotlin"), 0755))

	got, err := NewScanner(root).InstalledCandidates()
	require.NoError(t, err)
	assert.Equal(t, []string{"java", "maven"}, got)
}

func TestInstalledCandidatesEmptyTree(t *testing.T) {
	got, err := NewScanner(t.TempDir()).InstalledCandidates()
	require.NoError(t, err)
	assert.Empty(t, got)
}
