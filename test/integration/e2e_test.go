//go:build integration

package integration_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sdkdesk/sdkdesk/internal/local"
	"github.com/sdkdesk/sdkdesk/internal/manager"
	"github.com/sdkdesk/sdkdesk/internal/sdk"
	"github.com/sdkdesk/sdkdesk/internal/tracker"
)

// TestFullFlowInstallSwitchUninstall tests the complete flow:
// install -> verify tree and tracker -> list -> install second -> switch
// default -> uninstall -> health check.
func TestFullFlowInstallSwitchUninstall(t *testing.T) {
	env := setupTestEnv(t)
	s := env.newStack(t)
	ctx := context.Background()

	// Step 1: Install the first JDK.
	if err := s.Manager.Install(ctx, "java", "17.0.9-tem"); err != nil {
		t.Fatalf("Install: %v", err)
	}
	key := sdk.NewKey("java", "17.0.9-tem")
	task, ok := s.Manager.Tasks().Get(key)
	if !ok || task.Status != tracker.StatusCompleted || task.Progress.Percentage != 100 {
		t.Fatalf("task = %+v, %v; want completed at 100%%", task, ok)
	}
	dir := filepath.Join(env.SDKManDir, "candidates", "java", "17.0.9-tem")
	assertFileExists(t, filepath.Join(dir, "bin", "java"))
	assertFileExists(t, filepath.Join(dir, "release"))

	// Step 2: The refreshed state reflects the install.
	st := s.Manager.State()
	if got := st.Candidates["java"].Current; got != "17.0.9-tem" {
		t.Errorf("current = %q, want 17.0.9-tem (first install becomes default)", got)
	}
	if st.Statistics.JDKInstalled != 1 {
		t.Errorf("JDKInstalled = %d, want 1", st.Statistics.JDKInstalled)
	}

	versions, err := s.Catalog.ListVersions(ctx, "java", false)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) == 0 {
		t.Fatal("no java versions listed")
	}
	if versions[0].Key() != key || !versions[0].InUse {
		t.Errorf("first listed version = %+v, want %s in use", versions[0], key)
	}

	// Step 3: A second install does not move the default.
	if err := s.Manager.Install(ctx, "java", "21.0.1-tem"); err != nil {
		t.Fatalf("Install second: %v", err)
	}
	if cur, _ := s.Catalog.CurrentVersion("java"); cur != "17.0.9-tem" {
		t.Errorf("current after second install = %q", cur)
	}

	// Step 4: Switch the default.
	if err := s.Manager.SetDefault(ctx, "java", "21.0.1-tem"); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	if got := s.Manager.State().Candidates["java"].Current; got != "21.0.1-tem" {
		t.Errorf("current after switch = %q", got)
	}

	// Step 5: Uninstalling the default clears the link.
	if err := s.Manager.Uninstall(ctx, "java", "21.0.1-tem"); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	assertFileNotExists(t, filepath.Join(env.SDKManDir, "candidates", "java", "current"))
	installed := s.Manager.State().Candidates["java"].Installed
	if len(installed) != 1 || installed[0] != "17.0.9-tem" {
		t.Errorf("installed = %v, want [17.0.9-tem]", installed)
	}

	// Step 6: The tree is healthy.
	report, err := local.NewScanner(env.SDKManDir).Check(false)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if n := report.Problems(); n != 0 {
		t.Errorf("health check found %d problems: %v", n, report.Findings)
	}
}

// TestConcurrentOperations runs two installs of different keys at once and
// checks duplicates of a busy key are dropped.
func TestConcurrentOperations(t *testing.T) {
	env := setupTestEnv(t)
	s := env.newStack(t)
	ctx := context.Background()

	release := env.Server.Hold("java", "21.0.1-tem")
	defer release()

	javaKey := sdk.NewKey("java", "21.0.1-tem")
	done := make(chan error, 1)
	go func() { done <- s.Manager.Install(ctx, "java", "21.0.1-tem") }()

	waitFor(t, "java download progress", func() bool {
		p, ok := s.Manager.Tasks().GetProgress(javaKey)
		return ok && p.Percentage > 0
	})

	// Another key proceeds while java is held.
	if err := s.Manager.Install(ctx, "maven", "3.9.6"); err != nil {
		t.Fatalf("Install maven: %v", err)
	}
	if st, _ := s.Manager.Tasks().GetStatus(sdk.NewKey("maven", "3.9.6")); st != tracker.StatusCompleted {
		t.Errorf("maven status = %s, want completed", st)
	}
	if st, _ := s.Manager.Tasks().GetStatus(javaKey); st != tracker.StatusDownloading {
		t.Errorf("java status = %s, want downloading", st)
	}

	// Duplicates of the busy key are soft no-ops.
	if err := s.Manager.Install(ctx, "java", "21.0.1-tem"); err != nil {
		t.Errorf("duplicate Install: %v", err)
	}
	if err := s.Manager.Uninstall(ctx, "java", "21.0.1-tem"); err != nil {
		t.Errorf("Uninstall of busy key: %v", err)
	}
	brokerPath := "/broker/download/java/21.0.1-tem/linuxx64"
	if n := env.Server.Requests(brokerPath); n != 1 {
		t.Errorf("broker requests = %d, want 1", n)
	}

	release()
	if err := <-done; err != nil {
		t.Fatalf("Install java: %v", err)
	}
	if s.Manager.Busy(javaKey) {
		t.Error("java key still busy after install")
	}
	if st, _ := s.Manager.Tasks().GetStatus(javaKey); st != tracker.StatusCompleted {
		t.Errorf("java status = %s, want completed", st)
	}
	for _, c := range []string{"java", "maven"} {
		if cur, _ := s.Catalog.CurrentVersion(c); cur == "" {
			t.Errorf("%s has no default after its first install", c)
		}
	}
}

// TestFailedInstallIsEvicted checks a failed task stays visible, then goes.
func TestFailedInstallIsEvicted(t *testing.T) {
	env := setupTestEnv(t)
	s := env.newStack(t, manager.WithTrackerOptions(tracker.WithFailedRetention(100*time.Millisecond)))

	err := s.Manager.Install(context.Background(), "java", "missing")
	if err == nil {
		t.Fatal("expected an error for a missing archive")
	}

	key := sdk.NewKey("java", "missing")
	task, ok := s.Manager.Tasks().Get(key)
	if !ok || task.Status != tracker.StatusFailed {
		t.Fatalf("task = %+v, %v; want failed", task, ok)
	}
	assertFileNotExists(t, filepath.Join(env.SDKManDir, "candidates", "java", "missing"))

	waitFor(t, "failed task eviction", func() bool { return !s.Manager.Tasks().IsOperating(key) })
}

// TestCanceledInstall checks a canceled download leaves nothing behind.
func TestCanceledInstall(t *testing.T) {
	env := setupTestEnv(t)
	s := env.newStack(t)

	release := env.Server.Hold("gradle", "8.5")
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Manager.Install(ctx, "gradle", "8.5") }()

	key := sdk.NewKey("gradle", "8.5")
	waitFor(t, "gradle download progress", func() bool {
		p, ok := s.Manager.Tasks().GetProgress(key)
		return ok && p.Percentage > 0
	})
	cancel()

	if err := <-done; err == nil {
		t.Fatal("expected the canceled install to fail")
	}
	if st, _ := s.Manager.Tasks().GetStatus(key); st != tracker.StatusFailed {
		t.Errorf("status = %s, want failed", st)
	}
	assertFileNotExists(t, filepath.Join(env.SDKManDir, "candidates", "gradle", "8.5"))
	entries, _ := os.ReadDir(filepath.Join(env.SDKManDir, "tmp"))
	if len(entries) != 0 {
		t.Errorf("tmp has %d leftover entries", len(entries))
	}
}
