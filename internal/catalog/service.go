package catalog

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sdkdesk/sdkdesk/internal/local"
	"github.com/sdkdesk/sdkdesk/internal/sdk"
)

// JavaCandidate is the candidate counted as JDKs in Statistics.
const JavaCandidate = "java"

// Fetcher retrieves listings from the API.
type Fetcher interface {
	FetchCandidates(ctx context.Context) ([]sdk.Candidate, error)
	FetchVersions(ctx context.Context, candidate string, installed []string, current string) ([]sdk.Version, error)
}

// Service combines the API, the cache and the local tree.
type Service struct {
	fetcher Fetcher
	cache   *Cache
	scanner *local.Scanner
	log     *zap.Logger

	// mu serializes fetch-and-store per service so concurrent refreshes
	// do not write the same cache file twice.
	mu sync.Mutex
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used for cache problems.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		s.log = l
	}
}

// NewService creates a Service. A nil cache disables caching.
func NewService(fetcher Fetcher, cache *Cache, scanner *local.Scanner, opts ...ServiceOption) *Service {
	s := &Service{fetcher: fetcher, cache: cache, scanner: scanner, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListCandidates returns every candidate, from the cache unless force is set
// or the cache is stale.
func (s *Service) ListCandidates(ctx context.Context, force bool) ([]sdk.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cached []sdk.Candidate
	if !force && s.load(candidatesCacheFile, &cached) {
		return cached, nil
	}

	candidates, err := s.fetcher.FetchCandidates(ctx)
	if err != nil {
		return nil, err
	}
	s.store(candidatesCacheFile, candidates)
	return candidates, nil
}

// ListVersions returns the versions of candidate annotated with the local
// install state, installed first, then newest first. Versions installed
// locally but unknown to the API are included.
func (s *Service) ListVersions(ctx context.Context, candidate string, force bool) ([]sdk.Version, error) {
	if err := sdk.ValidateName(candidate); err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	installed, err := s.scanner.InstalledVersions(candidate)
	if err != nil {
		return nil, err
	}
	current, err := s.scanner.CurrentVersion(candidate)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	var versions []sdk.Version
	name := versionsCacheFile(candidate)
	if force || !s.load(name, &versions) {
		versions, err = s.fetcher.FetchVersions(ctx, candidate, installed, current)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		s.store(name, versions)
	}
	s.mu.Unlock()

	return annotate(versions, candidate, installed, current), nil
}

// ScanInstalled lists the installed versions of candidate.
func (s *Service) ScanInstalled(candidate string) ([]string, error) {
	return s.scanner.InstalledVersions(candidate)
}

// CurrentVersion returns the default version of candidate, or "".
func (s *Service) CurrentVersion(candidate string) (string, error) {
	return s.scanner.CurrentVersion(candidate)
}

// ListInstalledCandidates lists candidates with at least one version installed.
func (s *Service) ListInstalledCandidates() ([]string, error) {
	return s.scanner.InstalledCandidates()
}

// Statistics counts installed and available JDKs and SDKs. SDKs available
// is the number of candidates; SDKs installed sums installed versions over
// every candidate in the catalog.
func (s *Service) Statistics(ctx context.Context) (sdk.Statistics, error) {
	var (
		jdks       []sdk.Version
		candidates []sdk.Candidate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		jdks, err = s.ListVersions(gctx, JavaCandidate, false)
		return err
	})
	g.Go(func() error {
		var err error
		candidates, err = s.ListCandidates(gctx, false)
		return err
	})
	if err := g.Wait(); err != nil {
		return sdk.Statistics{}, fmt.Errorf("collecting statistics: %w", err)
	}

	javaInstalled, err := s.scanner.InstalledVersions(JavaCandidate)
	if err != nil {
		return sdk.Statistics{}, err
	}

	stats := sdk.Statistics{
		JDKInstalled: len(javaInstalled),
		JDKAvailable: len(jdks),
		SDKAvailable: len(candidates),
	}
	for _, c := range candidates {
		versions, err := s.scanner.InstalledVersions(c.ID)
		if err != nil {
			s.log.Warn("scanning candidate", zap.String("candidate", c.ID), zap.Error(err))
			continue
		}
		stats.SDKInstalled += len(versions)
	}
	return stats, nil
}

// ClearCache drops every cached listing.
func (s *Service) ClearCache() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Clear()
}

func (s *Service) load(name string, v any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Load(name, v)
	if err != nil {
		s.log.Warn("ignoring unreadable cache", zap.String("file", name), zap.Error(err))
		return false
	}
	return ok
}

func (s *Service) store(name string, v any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Save(name, v); err != nil {
		s.log.Warn("caching listing", zap.String("file", name), zap.Error(err))
	}
}

// annotate sets the install flags from the local tree, appends local-only
// versions and sorts the result. The input is not modified.
func annotate(versions []sdk.Version, candidate string, installed []string, current string) []sdk.Version {
	out := make([]sdk.Version, 0, len(versions)+len(installed))
	seen := make(map[string]bool, len(versions))
	for _, v := range versions {
		id := v.Key().Version
		seen[id] = true
		v.Installed = slices.Contains(installed, id)
		v.InUse = current != "" && id == current
		v.IsDefault = v.InUse
		out = append(out, v)
	}
	for _, id := range installed {
		if seen[id] {
			continue
		}
		out = append(out, sdk.Version{
			Candidate:  candidate,
			Version:    id,
			Identifier: id,
			Installed:  true,
			InUse:      id == current,
			IsDefault:  id == current,
		})
	}
	SortVersions(out)
	return out
}
