package sdkhome

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sdkdesk/sdkdesk/internal/sdk"
)

func TestSDKManRoot_AppEnvWins(t *testing.T) {
	t.Setenv("SDKDESK_SDKMAN_DIR", "/tmp/desk-sdkman")
	t.Setenv("SDKMAN_DIR", "/tmp/shell-sdkman")
	root, err := SDKManRoot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if root != "/tmp/desk-sdkman" {
		t.Errorf("expected /tmp/desk-sdkman, got %s", root)
	}
}

func TestSDKManRoot_SDKManEnv(t *testing.T) {
	t.Setenv("SDKDESK_SDKMAN_DIR", "")
	t.Setenv("SDKMAN_DIR", "/tmp/shell-sdkman")
	root, err := SDKManRoot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if root != "/tmp/shell-sdkman" {
		t.Errorf("expected /tmp/shell-sdkman, got %s", root)
	}
}

func TestSDKManRoot_Default(t *testing.T) {
	t.Setenv("SDKDESK_SDKMAN_DIR", "")
	t.Setenv("SDKMAN_DIR", "")
	root, err := SDKManRoot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".sdkman"); root != want {
		t.Errorf("expected %s, got %s", want, root)
	}
}

func TestAppDir_EnvOverride(t *testing.T) {
	t.Setenv("SDKDESK_HOME", "/tmp/desk")
	if got := AppDir(); got != "/tmp/desk" {
		t.Errorf("expected /tmp/desk, got %s", got)
	}
}

func TestLayout(t *testing.T) {
	l := Layout{Root: "/sdk"}
	tests := []struct {
		name, got, want string
	}{
		{"candidates", l.Candidates(), "/sdk/candidates"},
		{"version", l.VersionDir("java", "17.0.9-tem"), "/sdk/candidates/java/17.0.9-tem"},
		{"current", l.Current("maven"), "/sdk/candidates/maven/current"},
		{"tmp", l.Tmp(), "/sdk/tmp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if filepath.ToSlash(tt.got) != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestLayoutCheckVersion(t *testing.T) {
	l := Layout{Root: "/sdk"}
	if err := l.CheckVersion("java", "17.0.9-tem"); err != nil {
		t.Fatalf("CheckVersion: %v", err)
	}
	for _, v := range []string{"..", ".", "a/b", "", CurrentLink} {
		if err := l.CheckVersion("java", v); !errors.Is(err, sdk.ErrInvalidName) {
			t.Errorf("CheckVersion(java, %q) = %v", v, err)
		}
	}
	if err := l.CheckCandidate(".."); !errors.Is(err, sdk.ErrInvalidName) {
		t.Errorf("CheckCandidate(..) = %v", err)
	}
}
