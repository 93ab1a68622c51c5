package local

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/sdkdesk/sdkdesk/internal/platform"
	"github.com/sdkdesk/sdkdesk/internal/sdkhome"
)

// Severity grades one doctor finding.
type Severity string

const (
	SeverityOK   Severity = "OK"
	SeverityWarn Severity = "WARN"
	SeverityMiss Severity = "MISS"
	SeverityFix  Severity = "FIX"
	SeverityFail Severity = "FAIL"
)

// Finding is one line of a health report.
type Finding struct {
	Severity Severity
	Path     string
	Message  string
}

func (f Finding) String() string {
	label := string(f.Severity)
	switch len(label) {
	case 2:
		label = " " + label + " "
	case 3:
		label += " "
	}
	return fmt.Sprintf("[%s] %s: %s", label, f.Path, f.Message)
}

// Report collects the findings of Check in the order they were made.
type Report struct {
	Findings []Finding
}

// Problems counts findings that were neither fine nor fixed.
func (r Report) Problems() int {
	n := 0
	for _, f := range r.Findings {
		switch f.Severity {
		case SeverityWarn, SeverityMiss, SeverityFail:
			n++
		}
	}
	return n
}

func (r *Report) add(sev Severity, path, format string, args ...any) {
	r.Findings = append(r.Findings, Finding{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
}

// Check inspects the SDK tree for dangling current links, empty installs,
// non-executable bin files and leftover temp files. With fix set it
// repairs what it safely can: dangling links are removed, bin files are
// made executable and temp files are deleted. Empty installs are only
// reported.
func (s *Scanner) Check(fix bool) (Report, error) {
	var r Report
	root := s.layout.Root

	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		r.add(SeverityMiss, root, "SDK tree does not exist")
		return r, nil
	}
	r.add(SeverityOK, root, "SDK tree exists")

	s.checkTmp(&r, fix)

	candidates, err := listDirs(s.layout.Candidates())
	if err != nil {
		return r, err
	}
	if len(candidates) == 0 {
		r.add(SeverityOK, s.layout.Candidates(), "no candidates installed")
		return r, nil
	}
	for _, c := range candidates {
		if err := s.checkCandidate(&r, c, fix); err != nil {
			return r, err
		}
	}
	return r, nil
}

func (s *Scanner) checkTmp(r *Report, fix bool) {
	dir := s.layout.Tmp()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(entries) == 0) {
		return
	}
	if err != nil {
		r.add(SeverityFail, dir, "%v", err)
		return
	}
	if !fix {
		r.add(SeverityWarn, dir, "%d leftover temp entries", len(entries))
		return
	}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(p); err != nil {
			r.add(SeverityFail, p, "could not remove: %v", err)
			return
		}
	}
	r.add(SeverityFix, dir, "removed %d leftover temp entries", len(entries))
}

func (s *Scanner) checkCandidate(r *Report, candidate string, fix bool) error {
	link := s.layout.Current(candidate)
	target, err := platform.ReadSymlinkTarget(link)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		r.add(SeverityFail, link, "%v", err)
	case platform.IsDangling(link):
		if !fix {
			r.add(SeverityWarn, link, "points at missing %s", target)
			break
		}
		if err := (&Links{layout: s.layout}).UnsetDefault(candidate); err != nil {
			r.add(SeverityFail, link, "could not remove: %v", err)
			break
		}
		r.add(SeverityFix, link, "removed link to missing %s", target)
	default:
		r.add(SeverityOK, link, "-> %s", filepath.Base(target))
	}

	versions, err := s.InstalledVersions(candidate)
	if err != nil {
		return err
	}
	for _, v := range versions {
		dir := s.layout.VersionDir(candidate, v)
		entries, err := os.ReadDir(dir)
		if err != nil {
			r.add(SeverityFail, dir, "%v", err)
			continue
		}
		if len(entries) == 0 {
			r.add(SeverityWarn, dir, "install is empty")
			continue
		}
		s.checkBin(r, filepath.Join(dir, sdkhome.BinDir), fix)
	}
	return nil
}

func (s *Scanner) checkBin(r *Report, bin string, fix bool) {
	if runtime.GOOS == "windows" {
		return
	}
	entries, err := os.ReadDir(bin)
	if err != nil {
		return
	}
	missing := 0
	for _, e := range entries {
		info, err := e.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if info.Mode().Perm()&0111 == 0 {
			missing++
		}
	}
	if missing == 0 {
		return
	}
	if !fix {
		r.add(SeverityWarn, bin, "%d files are not executable", missing)
		return
	}
	if _, err := platform.MakeExecutable(bin); err != nil {
		r.add(SeverityFail, bin, "%v", err)
		return
	}
	r.add(SeverityFix, bin, "made %d files executable", missing)
}
