package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdkdesk/sdkdesk/internal/local"
	"github.com/sdkdesk/sdkdesk/internal/sdk"
)

type fakeFetcher struct {
	mu             sync.Mutex
	candidates     []sdk.Candidate
	versions       map[string][]sdk.Version
	candidateCalls int
	versionCalls   int
	err            error
}

func (f *fakeFetcher) FetchCandidates(context.Context) ([]sdk.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candidateCalls++
	return f.candidates, f.err
}

func (f *fakeFetcher) FetchVersions(_ context.Context, candidate string, _ []string, _ string) ([]sdk.Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.versionCalls++
	return f.versions[candidate], f.err
}

func newTestService(t *testing.T, f *fakeFetcher, installed map[string][]string) (*Service, string) {
	t.Helper()
	root := t.TempDir()
	for c, vs := range installed {
		for _, v := range vs {
			require.NoError(t, os.MkdirAll(filepath.Join(root, "candidates", c, v), 0755))
		}
	}
	cache := NewCache(filepath.Join(t.TempDir(), "cache"), time.Hour)
	return NewService(f, cache, local.NewScanner(root)), root
}

func javaVersions() []sdk.Version {
	return []sdk.Version{
		{Candidate: "java", Version: "17.0.9", Identifier: "17.0.9-tem", Vendor: "Temurin"},
		{Candidate: "java", Version: "21.0.1", Identifier: "21.0.1-tem", Vendor: "Temurin", Installed: true},
		{Candidate: "java", Version: "11.0.21", Identifier: "11.0.21-tem", Vendor: "Temurin"},
	}
}

func TestListCandidatesUsesCache(t *testing.T) {
	f := &fakeFetcher{candidates: []sdk.Candidate{{ID: "java"}, {ID: "maven"}}}
	s, _ := newTestService(t, f, nil)
	ctx := context.Background()

	got, err := s.ListCandidates(ctx, false)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = s.ListCandidates(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, f.candidateCalls)

	_, err = s.ListCandidates(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, f.candidateCalls)
}

func TestListVersionsAnnotatesFromDisk(t *testing.T) {
	f := &fakeFetcher{versions: map[string][]sdk.Version{"java": javaVersions()}}
	s, root := newTestService(t, f, map[string][]string{"java": {"17.0.9-tem", "8.0.392-local"}})
	require.NoError(t, local.NewLinks(root).SetDefault("java", "17.0.9-tem"))

	got, err := s.ListVersions(context.Background(), "java", false)
	require.NoError(t, err)

	var ids []string
	for _, v := range got {
		ids = append(ids, v.Identifier)
	}
	// Installed first, newest first; the local-only version is kept.
	assert.Equal(t, []string{"17.0.9-tem", "8.0.392-local", "21.0.1-tem", "11.0.21-tem"}, ids)

	assert.True(t, got[0].Installed)
	assert.True(t, got[0].InUse)
	assert.True(t, got[0].IsDefault)
	assert.True(t, got[1].Installed)
	assert.False(t, got[1].InUse)
	assert.False(t, got[2].Installed, "the API flag is replaced by the disk state")
}

func TestListVersionsCacheDoesNotHideUninstall(t *testing.T) {
	f := &fakeFetcher{versions: map[string][]sdk.Version{"java": javaVersions()}}
	s, root := newTestService(t, f, map[string][]string{"java": {"17.0.9-tem"}})
	ctx := context.Background()

	got, err := s.ListVersions(ctx, "java", false)
	require.NoError(t, err)
	require.True(t, got[0].Installed)

	require.NoError(t, os.RemoveAll(filepath.Join(root, "candidates", "java", "17.0.9-tem")))
	got, err = s.ListVersions(ctx, "java", false)
	require.NoError(t, err)
	assert.Equal(t, 1, f.versionCalls)
	for _, v := range got {
		assert.False(t, v.Installed, v.Identifier)
	}
}

func TestListVersionsFetchError(t *testing.T) {
	f := &fakeFetcher{err: errors.New("offline")}
	s, _ := newTestService(t, f, nil)
	_, err := s.ListVersions(context.Background(), "java", true)
	assert.Error(t, err)
}

func TestStatistics(t *testing.T) {
	f := &fakeFetcher{
		candidates: []sdk.Candidate{{ID: "java"}, {ID: "maven"}, {ID: "gradle"}},
		versions:   map[string][]sdk.Version{"java": javaVersions()},
	}
	s, _ := newTestService(t, f, map[string][]string{
		"java":  {"17.0.9-tem", "21.0.1-tem"},
		"maven": {"3.9.6"},
		"scala": {"3.3.1"},
	})

	stats, err := s.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sdk.Statistics{
		JDKInstalled: 2,
		JDKAvailable: 3,
		SDKInstalled: 3,
		SDKAvailable: 3,
	}, stats)
}

func TestStatisticsError(t *testing.T) {
	s, _ := newTestService(t, &fakeFetcher{err: errors.New("offline")}, nil)
	_, err := s.Statistics(context.Background())
	assert.Error(t, err)
}

func TestLocalQueries(t *testing.T) {
	s, root := newTestService(t, &fakeFetcher{}, map[string][]string{"maven": {"3.9.6", "3.8.8"}})
	require.NoError(t, local.NewLinks(root).SetDefault("maven", "3.8.8"))

	installed, err := s.ScanInstalled("maven")
	require.NoError(t, err)
	assert.Equal(t, []string{"3.8.8", "3.9.6"}, installed)

	cur, err := s.CurrentVersion("maven")
	require.NoError(t, err)
	assert.Equal(t, "3.8.8", cur)

	cands, err := s.ListInstalledCandidates()
	require.NoError(t, err)
	assert.Equal(t, []string{"maven"}, cands)
}
