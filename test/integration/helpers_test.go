//go:build integration

package integration_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sdkdesk/sdkdesk/internal/catalog"
	"github.com/sdkdesk/sdkdesk/internal/events"
	"github.com/sdkdesk/sdkdesk/internal/installer"
	"github.com/sdkdesk/sdkdesk/internal/local"
	"github.com/sdkdesk/sdkdesk/internal/manager"
	"github.com/sdkdesk/sdkdesk/internal/refresh"
)

// testEnv holds an isolated SDK tree, app dir and fake catalog server.
type testEnv struct {
	AppDir    string // SDKDESK_HOME: config and cache
	SDKManDir string // SDKDESK_SDKMAN_DIR: the SDK tree
	Server    *fakeCatalog
}

// setupTestEnv creates isolated temp directories and sets environment variables
// so every operation is sandboxed. The env vars are restored after the test.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		AppDir:    t.TempDir(),
		SDKManDir: t.TempDir(),
		Server:    newFakeCatalog(t),
	}
	t.Setenv("SDKDESK_HOME", env.AppDir)
	t.Setenv("SDKDESK_SDKMAN_DIR", env.SDKManDir)
	return env
}

// stack is the wiring the CLI builds, pointed at the test env.
type stack struct {
	Bus       *events.Bus
	Client    *catalog.Client
	Catalog   *catalog.Service
	Installer *installer.Installer
	Manager   *manager.Manager
}

func (env *testEnv) newStack(t *testing.T, opts ...manager.Option) *stack {
	t.Helper()

	client := catalog.NewClient(
		catalog.WithBaseURL(env.Server.URL()),
		catalog.WithHTTPClient(env.Server.srv.Client()),
		catalog.WithPlatform("linuxx64"),
	)
	cache := catalog.NewCache(filepath.Join(env.AppDir, "cache"), time.Hour)
	svc := catalog.NewService(client, cache, local.NewScanner(env.SDKManDir))
	bus := events.NewBus()
	inst := installer.New(client, env.SDKManDir, bus)
	opts = append([]manager.Option{manager.WithRefreshOptions(refresh.WithSettle(time.Millisecond))}, opts...)
	mgr := manager.New(inst, svc, bus, opts...)
	if err := mgr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Shutdown)

	return &stack{Bus: bus, Client: client, Catalog: svc, Installer: inst, Manager: mgr}
}

// fakeCatalog serves listings from the catalog testdata and archives built
// on the fly. Downloads can be held open to exercise concurrent operations.
type fakeCatalog struct {
	srv *httptest.Server

	mu       sync.Mutex
	hold     map[string]chan struct{}
	requests map[string]int
}

func newFakeCatalog(t *testing.T) *fakeCatalog {
	t.Helper()
	f := &fakeCatalog{hold: make(map[string]chan struct{}), requests: make(map[string]int)}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeCatalog) URL() string { return f.srv.URL }

// Hold makes downloads of candidate/version block until the returned func
// is called.
func (f *fakeCatalog) Hold(candidate, version string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.hold[candidate+"/"+version] = ch
	f.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Requests returns how many times path was requested.
func (f *fakeCatalog) Requests(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[path]
}

func (f *fakeCatalog) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests[r.URL.Path]++
	f.mu.Unlock()

	segs := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
	switch {
	case r.URL.Path == "/candidates/list":
		serveTestdata(w, r, "candidates.txt")
	case len(segs) == 5 && segs[0] == "candidates" && segs[4] == "list":
		serveTestdata(w, r, segs[1]+".txt")
	case len(segs) == 5 && segs[0] == "broker":
		candidate, version := segs[2], segs[3]
		if version == "missing" {
			http.NotFound(w, r)
			return
		}
		f.mu.Lock()
		ch := f.hold[candidate+"/"+version]
		f.mu.Unlock()

		data := sdkArchive(candidate, version)
		w.Header().Set("X-Sdkman-ArchiveType", "tar.gz")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		if ch != nil {
			// Send a first chunk so the client sees progress, then wait.
			_, _ = w.Write(data[:len(data)/2])
			w.(http.Flusher).Flush()
			select {
			case <-ch:
			case <-r.Context().Done():
				return
			}
			_, _ = w.Write(data[len(data)/2:])
			return
		}
		_, _ = w.Write(data)
	default:
		http.NotFound(w, r)
	}
}

func serveTestdata(w http.ResponseWriter, r *http.Request, name string) {
	data, err := os.ReadFile(filepath.Join("..", "..", "internal", "catalog", "testdata", name))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write(data)
}

// sdkArchive builds a tar.gz with a top-level directory and a bin tool.
func sdkArchive(candidate, version string) []byte {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	top := candidate + "-" + version + "/"
	files := []struct {
		name, body string
		mode       int64
	}{
		{top + "bin/" + candidate, "#!/bin/sh\necho " + candidate + "\n", 0644},
		{top + "lib/" + candidate + ".jar", strings.Repeat("x", 64<<10), 0644},
		{top + "release", "VERSION=" + version + "\n", 0644},
	}
	_ = tw.WriteHeader(&tar.Header{Name: top, Typeflag: tar.TypeDir, Mode: 0755})
	_ = tw.WriteHeader(&tar.Header{Name: top + "bin/", Typeflag: tar.TypeDir, Mode: 0755})
	_ = tw.WriteHeader(&tar.Header{Name: top + "lib/", Typeflag: tar.TypeDir, Mode: 0755})
	for _, f := range files {
		_ = tw.WriteHeader(&tar.Header{Name: f.name, Typeflag: tar.TypeReg, Mode: f.mode, Size: int64(len(f.body))})
		_, _ = tw.Write([]byte(f.body))
	}
	_ = tw.Close()
	_ = gz.Close()
	return buf.Bytes()
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
