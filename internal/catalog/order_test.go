package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sdkdesk/sdkdesk/internal/sdk"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"3.9.6", "3.10.0", -1},
		{"v2.0.0", "1.9.9", 1},
		{"17.0.9", "17.0.9", 0},
		{"21", "17.0.9", 1},
		{"1.0.0.Final", "1.0.0", -1},
		{"abc", "abd", -1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareVersions(tt.a, tt.b))
		})
	}
}

func TestSortVersions(t *testing.T) {
	versions := []sdk.Version{
		{Version: "3.6.3"},
		{Version: "3.10.1"},
		{Version: "3.8.8", Installed: true},
		{Version: "3.9.6"},
		{Version: "3.6.2", Installed: true},
	}
	SortVersions(versions)

	var got []string
	for _, v := range versions {
		got = append(got, v.Version)
	}
	assert.Equal(t, []string{"3.8.8", "3.6.2", "3.10.1", "3.9.6", "3.6.3"}, got)
}
