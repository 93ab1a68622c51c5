package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/sdkdesk/sdkdesk/internal/branding"
	"github.com/sdkdesk/sdkdesk/internal/sdkhome"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Config keys.
const (
	KeySDKManDir       = "sdkman_dir"
	KeyAPIBaseURL      = "api_base_url"
	KeyProxyType       = "proxy.type"
	KeyProxyHost       = "proxy.host"
	KeyProxyPort       = "proxy.port"
	KeyDownloadTimeout = "download.timeout"
	KeyConnectTimeout  = "download.connect_timeout"
	KeyRateLimit       = "download.rate_limit"
	KeyCacheTTL        = "cache.ttl"
	KeyLogLevel        = "log.level"
	KeyLogEncoding     = "log.encoding"
)

// Keys lists every supported key in display order.
var Keys = []string{
	KeySDKManDir, KeyAPIBaseURL,
	KeyProxyType, KeyProxyHost, KeyProxyPort,
	KeyDownloadTimeout, KeyConnectTimeout, KeyRateLimit,
	KeyCacheTTL, KeyLogLevel, KeyLogEncoding,
}

// ErrUnknownKey is returned by Set for keys outside Keys.
var ErrUnknownKey = errors.New("unknown config key")

// Config is the typed view of the settings.
type Config struct {
	SDKManDir  string   `mapstructure:"sdkman_dir"`
	APIBaseURL string   `mapstructure:"api_base_url"`
	Proxy      Proxy    `mapstructure:"proxy"`
	Download   Download `mapstructure:"download"`
	Cache      Cache    `mapstructure:"cache"`
	Log        Log      `mapstructure:"log"`
}

// Proxy selects an outbound proxy. Type is "none", "http" or "socks5".
type Proxy struct {
	Type string `mapstructure:"type"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// URL returns the proxy URL, or nil when no proxy is configured.
func (p Proxy) URL() *url.URL {
	if p.Type == "" || p.Type == "none" || p.Host == "" {
		return nil
	}
	return &url.URL{Scheme: p.Type, Host: net.JoinHostPort(p.Host, strconv.Itoa(p.Port))}
}

// Download holds HTTP limits for catalog calls and archive downloads.
type Download struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// RateLimit caps download bandwidth in bytes per second. Zero is unlimited.
	RateLimit int64 `mapstructure:"rate_limit"`
}

// Cache controls the on-disk catalog cache.
type Cache struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// Log selects the logger level and encoding.
type Log struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// Dir returns the path to the config directory (~/.sdkdesk/).
func Dir() string {
	return sdkhome.AppDir()
}

// FilePath returns the full path to the config file (~/.sdkdesk/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// CacheDir returns the directory for cached catalog responses.
func CacheDir() string {
	return filepath.Join(Dir(), sdkhome.CacheDir)
}

// Store reads and writes one config file through its own viper instance.
type Store struct {
	v    *viper.Viper
	path string
}

// NewStore creates a Store for the file at path with defaults and the
// SDKDESK_ environment overlay applied. Nothing is read until Load.
func NewStore(path string) *Store {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(fileType)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	sdkmanDir, err := sdkhome.SDKManRoot()
	if err != nil {
		sdkmanDir = filepath.Join(".", branding.SDKManDir())
	}
	v.SetDefault(KeySDKManDir, sdkmanDir)
	v.SetDefault(KeyAPIBaseURL, branding.APIBaseURL())
	v.SetDefault(KeyProxyType, "none")
	v.SetDefault(KeyProxyHost, "")
	v.SetDefault(KeyProxyPort, 0)
	v.SetDefault(KeyDownloadTimeout, 10*time.Minute)
	v.SetDefault(KeyConnectTimeout, 30*time.Second)
	v.SetDefault(KeyRateLimit, 0)
	v.SetDefault(KeyCacheTTL, 24*time.Hour)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogEncoding, "console")

	return &Store{v: v, path: path}
}

// Default returns a Store for FilePath.
func Default() *Store {
	return NewStore(FilePath())
}

// Path returns the config file path.
func (s *Store) Path() string { return s.path }

// Load reads the config file, if any, and decodes the effective settings.
// A missing file is not an error.
func (s *Store) Load() (*Config, error) {
	if err := s.v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", s.path, err)
		}
	}

	var cfg Config
	if err := s.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Get returns a config value by key. Returns empty string if not set.
func (s *Store) Get(key string) string {
	return s.v.GetString(key)
}

// Set writes a config key-value pair and saves the config file. Only keys
// present in the file are written; defaults and environment overrides stay
// out of it. The value is parsed as a YAML scalar so numbers keep their type.
func (s *Store) Set(key, value string) error {
	if !slices.Contains(Keys, key) {
		return fmt.Errorf("%w %q", ErrUnknownKey, key)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, sdkhome.DirPerm); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	doc := map[string]any{}
	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config file %s: %w", s.path, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("reading config file %s: %w", s.path, err)
	}

	var typed any
	if err := yaml.Unmarshal([]byte(value), &typed); err != nil || typed == nil {
		typed = value
	}
	setPath(doc, strings.Split(key, "."), typed)

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(s.path, out, sdkhome.FilePerm); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	s.v.Set(key, typed)
	return nil
}

func setPath(doc map[string]any, path []string, value any) {
	for _, p := range path[:len(path)-1] {
		next, ok := doc[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			doc[p] = next
		}
		doc = next
	}
	doc[path[len(path)-1]] = value
}
