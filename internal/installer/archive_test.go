package installer

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	name     string
	body     string
	linkname string
	dir      bool
}

func tarGz(t *testing.T, entries []entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0644, Size: int64(len(e.body)), Typeflag: tar.TypeReg}
		switch {
		case e.dir:
			hdr.Typeflag, hdr.Mode, hdr.Size = tar.TypeDir, 0755, 0
		case e.linkname != "":
			hdr.Typeflag, hdr.Linkname, hdr.Size = tar.TypeSymlink, e.linkname, 0
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func zipArchive(t *testing.T, entries []entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		if e.dir {
			_, err := zw.Create(e.name)
			require.NoError(t, err)
			continue
		}
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func sdkEntries(top string) []entry {
	return []entry{
		{name: top + "/", dir: true},
		{name: top + "/bin/", dir: true},
		{name: top + "/bin/java", body: "#!/bin/sh\necho java\n"},
		{name: top + "/lib/", dir: true},
		{name: top + "/lib/modules", body: "modules"},
		{name: top + "/release", body: "JAVA_VERSION=\"17.0.9\"\n"},
	}
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0644))
	return p
}

func TestDetectArchiveType(t *testing.T) {
	tests := []struct {
		name      string
		header    map[string]string
		candidate string
		want      ArchiveType
	}{
		{"broker header zip", map[string]string{"X-Sdkman-ArchiveType": "zip"}, "java", ArchiveZip},
		{"broker header tgz", map[string]string{"X-Sdkman-ArchiveType": "tgz"}, "maven", ArchiveTarGz},
		{"broker header wins", map[string]string{"X-Sdkman-ArchiveType": "tar.gz", "Content-Type": "application/zip"}, "java", ArchiveTarGz},
		{"disposition", map[string]string{"Content-Disposition": `attachment; filename="gradle-8.5-bin.zip"`}, "gradle", ArchiveZip},
		{"disposition tar", map[string]string{"Content-Disposition": `attachment; filename="jdk.tar.gz"`}, "maven", ArchiveTarGz},
		{"content type zip", map[string]string{"Content-Type": "application/zip"}, "java", ArchiveZip},
		{"content type gzip", map[string]string{"Content-Type": "application/x-gzip"}, "maven", ArchiveTarGz},
		{"maven default", nil, "maven", ArchiveZip},
		{"java default", nil, "java", ArchiveTarGz},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.header {
				h.Set(k, v)
			}
			assert.Equal(t, tt.want, DetectArchiveType(h, tt.candidate))
		})
	}
}

func TestSniffArchive(t *testing.T) {
	got, err := sniffArchive(writeTemp(t, "a", tarGz(t, sdkEntries("jdk"))))
	require.NoError(t, err)
	assert.Equal(t, ArchiveTarGz, got)

	got, err = sniffArchive(writeTemp(t, "b", zipArchive(t, sdkEntries("maven"))))
	require.NoError(t, err)
	assert.Equal(t, ArchiveZip, got)

	got, err = sniffArchive(writeTemp(t, "c", []byte("<html>")))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExtractTarGzStripsTopLevel(t *testing.T) {
	entries := append(sdkEntries("jdk-17.0.9+9"), entry{name: "jdk-17.0.9+9/lib/current", linkname: "modules"})
	path := writeTemp(t, "jdk.tar.gz", tarGz(t, entries))
	dest := t.TempDir()

	var msgs []string
	require.NoError(t, Extract(context.Background(), path, dest, ArchiveTarGz, func(m string) { msgs = append(msgs, m) }))

	data, err := os.ReadFile(filepath.Join(dest, "bin", "java"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "echo java")
	assert.FileExists(t, filepath.Join(dest, "release"))
	assert.NoDirExists(t, filepath.Join(dest, "jdk-17.0.9+9"))

	if runtime.GOOS != "windows" {
		link, err := os.Readlink(filepath.Join(dest, "lib", "current"))
		require.NoError(t, err)
		assert.Equal(t, "modules", link)
	}
	require.NotEmpty(t, msgs)
	assert.Equal(t, "Extracted 6 files", msgs[len(msgs)-1])
}

func TestExtractZip(t *testing.T) {
	path := writeTemp(t, "maven.zip", zipArchive(t, sdkEntries("apache-maven-3.9.6")))
	dest := t.TempDir()

	var msgs []string
	require.NoError(t, Extract(context.Background(), path, dest, ArchiveZip, func(m string) { msgs = append(msgs, m) }))

	assert.FileExists(t, filepath.Join(dest, "bin", "java"))
	assert.FileExists(t, filepath.Join(dest, "lib", "modules"))
	assert.Equal(t, []string{"Extracting files (1/6)", "Extracting files (6/6)"}, msgs)
}

func TestExtractRejectsTraversal(t *testing.T) {
	tests := []struct {
		name    string
		entries []entry
	}{
		{"dotdot", []entry{{name: "jdk/../../evil", body: "x"}}},
		{"absolute link", []entry{{name: "jdk/bin/sh", linkname: "/bin/sh"}}},
		{"escaping link", []entry{{name: "jdk/lib/x", linkname: "../../../etc/passwd"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, "bad.tar.gz", tarGz(t, tt.entries))
			parent := t.TempDir()
			dest := filepath.Join(parent, "dest")
			require.NoError(t, os.Mkdir(dest, 0755))

			err := Extract(context.Background(), path, dest, ArchiveTarGz, nil)
			assert.ErrorIs(t, err, ErrUnsafePath)
			assert.NoFileExists(t, filepath.Join(parent, "evil"))
		})
	}
}

func TestExtractZipRejectsTraversal(t *testing.T) {
	path := writeTemp(t, "bad.zip", zipArchive(t, []entry{{name: "top/../../evil", body: "x"}}))
	err := Extract(context.Background(), path, t.TempDir(), ArchiveZip, nil)
	assert.ErrorIs(t, err, ErrUnsafePath)
}

func TestExtractWrongFormat(t *testing.T) {
	path := writeTemp(t, "not.tar.gz", zipArchive(t, sdkEntries("x")))
	assert.Error(t, Extract(context.Background(), path, t.TempDir(), ArchiveTarGz, nil))
	assert.Error(t, Extract(context.Background(), path, t.TempDir(), ArchiveType("7z"), nil))
}

func TestExtractCanceled(t *testing.T) {
	path := writeTemp(t, "jdk.tar.gz", tarGz(t, sdkEntries("jdk")))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Extract(ctx, path, t.TempDir(), ArchiveTarGz, nil), context.Canceled)
}
