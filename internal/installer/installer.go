package installer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sdkdesk/sdkdesk/internal/events"
	"github.com/sdkdesk/sdkdesk/internal/local"
	"github.com/sdkdesk/sdkdesk/internal/platform"
	"github.com/sdkdesk/sdkdesk/internal/sdkhome"
)

// ErrNotInstalled is returned when uninstalling a version that is not on disk.
var ErrNotInstalled = local.ErrNotInstalled

// MessageInstalled is the install-complete message of a successful install.
const MessageInstalled = "Installation completed successfully"

// Source locates SDK archives. *catalog.Client implements it.
type Source interface {
	DownloadURL(candidate, version string) string
	UserAgent() string
	HTTP() *http.Client
}

// Installer installs and removes SDK versions in one SDK tree.
type Installer struct {
	source  Source
	layout  sdkhome.Layout
	scanner *local.Scanner
	links   *local.Links
	events  events.Publisher
	limiter *rate.Limiter
	log     *zap.Logger
}

// Option configures an Installer.
type Option func(*Installer)

// WithRateLimit caps download bandwidth in bytes per second. Zero or less
// means unlimited.
func WithRateLimit(bytesPerSec int64) Option {
	return func(in *Installer) {
		in.limiter = newLimiter(bytesPerSec)
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(in *Installer) {
		in.log = l
	}
}

// New creates an Installer for the SDK tree at root that reports progress
// on pub.
func New(source Source, root string, pub events.Publisher, opts ...Option) *Installer {
	in := &Installer{
		source:  source,
		layout:  sdkhome.Layout{Root: root},
		scanner: local.NewScanner(root),
		links:   local.NewLinks(root),
		events:  pub,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Install downloads and unpacks candidate/version and returns the install
// directory. It publishes install-complete exactly once, with success=false
// and the error text when any step fails. When this is the only installed
// version of candidate it becomes the default.
func (in *Installer) Install(ctx context.Context, candidate, version string) (string, error) {
	dir, err := in.install(ctx, candidate, version)
	if err != nil {
		in.publish(ctx, events.TopicInstallComplete, events.InstallComplete{
			Candidate: candidate,
			Version:   version,
			Success:   false,
			Message:   err.Error(),
		})
		return "", fmt.Errorf("installing %s %s: %w", candidate, version, err)
	}
	in.publish(ctx, events.TopicInstallComplete, events.InstallComplete{
		Candidate: candidate,
		Version:   version,
		Success:   true,
		Message:   MessageInstalled,
		Path:      dir,
	})
	return dir, nil
}

func (in *Installer) install(ctx context.Context, candidate, version string) (string, error) {
	if err := in.layout.CheckVersion(candidate, version); err != nil {
		return "", err
	}
	log := in.log.With(zap.String("candidate", candidate), zap.String("version", version))

	url := in.source.DownloadURL(candidate, version)
	log.Info("downloading", zap.String("url", url))

	got, err := in.download(ctx, url, in.layout.Tmp(), candidate+"-"+version+"-*.download",
		func(downloaded, total int64, pct float64) {
			in.publish(ctx, events.TopicDownloadProgress, events.DownloadProgress{
				Candidate:  candidate,
				Version:    version,
				Percentage: pct,
				Downloaded: downloaded,
				Total:      total,
			})
		})
	if err != nil {
		return "", err
	}
	defer os.Remove(got.path)

	typ := DetectArchiveType(got.header, candidate)
	if sniffed, err := sniffArchive(got.path); err != nil {
		return "", err
	} else if sniffed != "" && sniffed != typ {
		log.Warn("archive type differs from headers", zap.String("declared", string(typ)), zap.String("detected", string(sniffed)))
		typ = sniffed
	}
	log.Debug("download finished", zap.Int64("bytes", got.size), zap.String("archive", string(typ)))

	report := func(msg string) {
		in.publish(ctx, events.TopicInstallProgress, events.InstallProgress{
			Candidate: candidate,
			Version:   version,
			Message:   msg,
		})
	}
	report("Extracting archive...")

	staging, err := os.MkdirTemp(in.layout.Tmp(), candidate+"-"+version+"-*")
	if err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := Extract(ctx, got.path, staging, typ, report); err != nil {
		return "", err
	}
	if _, err := platform.MakeExecutable(filepath.Join(staging, sdkhome.BinDir)); err != nil {
		return "", err
	}
	if err := platform.Chmod(staging, sdkhome.DirPerm); err != nil {
		return "", fmt.Errorf("chmod staging directory: %w", err)
	}

	dest := in.layout.VersionDir(candidate, version)
	if err := os.MkdirAll(filepath.Dir(dest), sdkhome.DirPerm); err != nil {
		return "", fmt.Errorf("creating candidate directory: %w", err)
	}
	if err := os.RemoveAll(dest); err != nil {
		return "", fmt.Errorf("removing existing installation: %w", err)
	}
	if err := os.Rename(staging, dest); err != nil {
		return "", fmt.Errorf("moving installation into place: %w", err)
	}

	in.defaultIfOnly(log, candidate, version)
	log.Info("installed", zap.String("path", dest))
	return dest, nil
}

// defaultIfOnly makes version the default when it is the only one installed.
func (in *Installer) defaultIfOnly(log *zap.Logger, candidate, version string) {
	installed, err := in.scanner.InstalledVersions(candidate)
	if err != nil {
		log.Warn("scanning installed versions", zap.Error(err))
		return
	}
	if len(installed) != 1 {
		return
	}
	if err := in.links.SetDefault(candidate, version); err != nil {
		log.Warn("setting default version", zap.Error(err))
	}
}

// Uninstall removes candidate/version. The current link is removed too if
// it pointed at this version or no longer resolves.
func (in *Installer) Uninstall(ctx context.Context, candidate, version string) error {
	if err := in.layout.CheckVersion(candidate, version); err != nil {
		return fmt.Errorf("uninstalling %s %s: %w", candidate, version, err)
	}
	dir := in.layout.VersionDir(candidate, version)
	if !in.scanner.IsInstalled(candidate, version) {
		return fmt.Errorf("uninstalling %s %s: %w", candidate, version, ErrNotInstalled)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	current, err := in.scanner.CurrentVersion(candidate)
	if err != nil {
		in.log.Warn("reading current version", zap.String("candidate", candidate), zap.Error(err))
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing %s: %w", dir, err)
	}

	link := in.layout.Current(candidate)
	if current == version || platform.IsDangling(link) {
		if err := in.links.UnsetDefault(candidate); err != nil {
			return err
		}
	}
	in.log.Info("uninstalled", zap.String("candidate", candidate), zap.String("version", version))
	return nil
}

// SetDefault makes version the default of candidate.
func (in *Installer) SetDefault(ctx context.Context, candidate, version string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return in.links.SetDefault(candidate, version)
}

// UnsetDefault clears the default of candidate.
func (in *Installer) UnsetDefault(ctx context.Context, candidate string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return in.links.UnsetDefault(candidate)
}

// Verify reports whether candidate/version is installed and not empty.
func (in *Installer) Verify(candidate, version string) bool {
	if in.layout.CheckVersion(candidate, version) != nil {
		return false
	}
	entries, err := os.ReadDir(in.layout.VersionDir(candidate, version))
	return err == nil && len(entries) > 0
}

// publish sends an event even after ctx is canceled, so a canceled install
// still reports its failure.
func (in *Installer) publish(ctx context.Context, topic events.Topic, payload any) {
	if in.events == nil {
		return
	}
	if err := in.events.Publish(context.WithoutCancel(ctx), topic, payload); err != nil && !errors.Is(err, context.Canceled) {
		in.log.Warn("publishing event", zap.String("topic", string(topic)), zap.Error(err))
	}
}
