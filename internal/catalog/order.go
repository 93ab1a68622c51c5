package catalog

import (
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/sdkdesk/sdkdesk/internal/sdk"
)

// CompareVersions returns -1, 0 or 1 as a is older than, equal to or newer
// than b. Versions that parse as semver (after dropping a leading "v")
// compare by precedence. Anything else is older than every semver version
// and compares lexically.
func CompareVersions(a, b string) int {
	av, aerr := parseSemver(a)
	bv, berr := parseSemver(b)
	switch {
	case aerr == nil && berr == nil:
		if c := av.Compare(bv); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	case aerr == nil:
		return 1
	case berr == nil:
		return -1
	default:
		return strings.Compare(a, b)
	}
}

// SortVersions orders versions installed first, then newest first.
func SortVersions(versions []sdk.Version) {
	sort.SliceStable(versions, func(i, j int) bool {
		a, b := versions[i], versions[j]
		if a.Installed != b.Installed {
			return a.Installed
		}
		if c := CompareVersions(a.Version, b.Version); c != 0 {
			return c > 0
		}
		return a.Identifier < b.Identifier
	})
}

func parseSemver(version string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(version, "v"))
}
