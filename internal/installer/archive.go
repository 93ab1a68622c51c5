package installer

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ArchiveType is the container format of a downloaded SDK.
type ArchiveType string

const (
	ArchiveTarGz ArchiveType = "tar.gz"
	ArchiveZip   ArchiveType = "zip"
)

// Extension returns the file name extension for t, without the dot.
func (t ArchiveType) Extension() string { return string(t) }

// ErrUnsafePath is returned for archive entries that would land outside
// the destination directory.
var ErrUnsafePath = errors.New("archive entry escapes destination")

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zipMagic  = []byte("PK\x03\x04")
)

// zipCandidates are distributed as zip when the broker does not say otherwise.
var zipCandidates = map[string]bool{"gradle": true, "maven": true, "ant": true}

// DetectArchiveType picks the archive format from the broker response
// headers, falling back to the usual format of candidate.
func DetectArchiveType(h http.Header, candidate string) ArchiveType {
	switch t := strings.ToLower(strings.TrimSpace(h.Get("X-Sdkman-ArchiveType"))); t {
	case "zip":
		return ArchiveZip
	case "tar.gz", "tgz":
		return ArchiveTarGz
	case "":
	default:
		return ArchiveType(t)
	}

	disposition := h.Get("Content-Disposition")
	switch {
	case strings.Contains(disposition, ".zip"):
		return ArchiveZip
	case strings.Contains(disposition, ".tar.gz"), strings.Contains(disposition, ".tgz"):
		return ArchiveTarGz
	}

	contentType := h.Get("Content-Type")
	switch {
	case strings.Contains(contentType, "zip") && !strings.Contains(contentType, "gzip"):
		return ArchiveZip
	case strings.Contains(contentType, "gzip"):
		return ArchiveTarGz
	}

	if zipCandidates[candidate] {
		return ArchiveZip
	}
	return ArchiveTarGz
}

// sniffArchive inspects the magic bytes of the file at path. It returns ""
// when the format is not recognized.
func sniffArchive(path string) (ArchiveType, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	head := make([]byte, 4)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading archive header: %w", err)
	}
	head = head[:n]
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return ArchiveTarGz, nil
	case bytes.HasPrefix(head, zipMagic):
		return ArchiveZip, nil
	}
	return "", nil
}

// extractor unpacks one archive into dest, dropping the archive's top-level
// directory. report is called with a status line every few entries.
type extractor struct {
	dest   string
	report func(msg string)
}

// Extract unpacks the archive at path into dest.
func Extract(ctx context.Context, path, dest string, typ ArchiveType, report func(string)) error {
	if report == nil {
		report = func(string) {}
	}
	x := &extractor{dest: dest, report: report}
	switch typ {
	case ArchiveTarGz:
		return x.tarGz(ctx, path)
	case ArchiveZip:
		return x.zip(ctx, path)
	default:
		return fmt.Errorf("unsupported archive format %q", typ)
	}
}

func (x *extractor) tarGz(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("not a valid gzip archive, try downloading again: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	count := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if errors.Is(err, tar.ErrInsecurePath) {
			return fmt.Errorf("%w: %s", ErrUnsafePath, hdr.Name)
		}
		if err != nil {
			return fmt.Errorf("reading tar entry %d: %w", count, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		target, ok, err := x.target(hdr.Name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			err = os.MkdirAll(target, dirMode(hdr.FileInfo().Mode()))
		case tar.TypeReg:
			err = writeFile(target, tr, hdr.FileInfo().Mode())
		case tar.TypeSymlink:
			err = x.symlink(target, hdr.Linkname)
		case tar.TypeLink:
			var src string
			src, ok, err = x.target(hdr.Linkname)
			if err == nil && ok {
				err = os.Link(src, target)
			}
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("extracting %s: %w", hdr.Name, err)
		}

		count++
		if count%100 == 0 {
			x.report(fmt.Sprintf("Extracted %d files", count))
		}
	}
	x.report(fmt.Sprintf("Extracted %d files", count))
	return nil
}

func (x *extractor) zip(ctx context.Context, path string) error {
	r, err := zip.OpenReader(path)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return fmt.Errorf("not a valid zip archive, try downloading again: %w", err)
	}
	defer r.Close()

	total := len(r.File)
	for i, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		target, ok, err := x.target(f.Name)
		if err != nil {
			return err
		}
		if ok {
			if err := x.zipEntry(f, target); err != nil {
				return fmt.Errorf("extracting %s: %w", f.Name, err)
			}
		}
		if i%10 == 0 || i == total-1 {
			x.report(fmt.Sprintf("Extracting files (%d/%d)", i+1, total))
		}
	}
	return nil
}

func (x *extractor) zipEntry(f *zip.File, target string) error {
	mode := f.Mode()
	if mode.IsDir() {
		return os.MkdirAll(target, dirMode(mode))
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	if mode&os.ModeSymlink != 0 {
		link, err := io.ReadAll(io.LimitReader(rc, 4096))
		if err != nil {
			return err
		}
		return x.symlink(target, string(link))
	}
	if mode.Perm() == 0 {
		mode |= 0644
	}
	return writeFile(target, rc, mode)
}

// target maps an archive entry name to its path under dest. Entries at the
// top level are skipped.
func (x *extractor) target(name string) (string, bool, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	parts := strings.Split(strings.Trim(name, "/"), "/")
	if len(parts) <= 1 {
		return "", false, nil
	}
	rel := filepath.FromSlash(strings.Join(parts[1:], "/"))
	if !filepath.IsLocal(rel) {
		return "", false, fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return filepath.Join(x.dest, rel), true, nil
}

// symlink creates a link at target pointing to linkname, which must stay
// inside dest once resolved.
func (x *extractor) symlink(target, linkname string) error {
	if filepath.IsAbs(linkname) {
		return fmt.Errorf("%w: absolute link %s", ErrUnsafePath, linkname)
	}
	resolved := filepath.Join(filepath.Dir(target), filepath.FromSlash(linkname))
	rel, err := filepath.Rel(x.dest, resolved)
	if err != nil || !filepath.IsLocal(rel) {
		return fmt.Errorf("%w: link %s", ErrUnsafePath, linkname)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	return os.Symlink(linkname, target)
}

func writeFile(path string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func dirMode(m os.FileMode) os.FileMode {
	if p := m.Perm(); p&0700 == 0700 {
		return p
	}
	return 0755
}
