// Package config loads client settings from defaults, an optional config
// file and PAXD_* environment variables, and reads the repository location.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// AppName names the config and data directories.
	AppName = "paxd"
	// ConfigFileName is the config file looked up in the config directory.
	ConfigFileName = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. PAXD_STORE_ROOT.
	EnvPrefix = "PAXD"

	// NativeID is the native client's package; its install provides the
	// launcher directory and the runner every shim invokes.
	NativeID = "com.mralfiem591.paxd"
	// SelfID is this client's own package.
	SelfID = "com.mralfiem591.paxd-imp"

	// OptimisedPrefix marks a pre-optimised repository. It is stripped
	// before use.
	OptimisedPrefix = "optimised::"
)

// ErrNoRepository is returned when no repository location is configured.
var ErrNoRepository = errors.New("no repository configured")

// HTTP holds network settings.
type HTTP struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`

	// AuthHeader is sent as "Name: Value" with every request to the
	// repository host, for private repositories.
	AuthHeader string `mapstructure:"auth_header"`
}

// Config is the loaded client configuration.
type Config struct {
	StoreRoot      string `mapstructure:"store_root"`
	LauncherDir    string `mapstructure:"launcher_dir"`
	RepositoryFile string `mapstructure:"repository_file"`

	// Repository overrides the repository file when set.
	Repository string `mapstructure:"repository"`

	Runner            string `mapstructure:"runner"`
	Interpreter       string `mapstructure:"interpreter"`
	ExternalInstaller string `mapstructure:"external_installer"`
	UserAgent         string `mapstructure:"user_agent"`

	// PipIndex is checked before each external dependency is installed.
	// Empty disables the check.
	PipIndex string `mapstructure:"pip_index"`

	HTTP HTTP `mapstructure:"http"`

	Verbose                 bool `mapstructure:"verbose"`
	RedirectProtectedUpdate bool `mapstructure:"redirect_protected_update"`
}

// AuthFunc returns the header to send for a request URL: AuthHeader for
// URLs under repo, nothing for any other host. It returns nil when no
// header is configured.
func (h HTTP) AuthFunc(repo string) func(url string) (name, value string) {
	name, value, ok := strings.Cut(h.AuthHeader, ":")
	name, value = strings.TrimSpace(name), strings.TrimSpace(value)
	if !ok || name == "" || value == "" || repo == "" {
		return nil
	}
	prefix := strings.TrimRight(repo, "/") + "/"
	return func(url string) (string, string) {
		if !strings.HasPrefix(url, prefix) {
			return "", ""
		}
		return name, value
	}
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigFile is an explicit config file. It must exist.
	ConfigFile string
	// ConfigDir overrides the directory searched for config.yaml.
	ConfigDir string
	// Getenv resolves platform directories. Defaults to os.Getenv.
	Getenv func(string) string
	// GOOS selects platform directory conventions. Defaults to runtime.GOOS.
	GOOS string
}

func (o *LoadOptions) normalize() {
	if o.Getenv == nil {
		o.Getenv = os.Getenv
	}
	if o.GOOS == "" {
		o.GOOS = runtime.GOOS
	}
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults(getenv func(string) string, goos string) Config {
	root := filepath.Join(dataDir(getenv, goos), "PaxD")
	native := filepath.Join(root, NativeID)

	interpreter := "python3"
	if goos == "windows" {
		interpreter = "python"
	}

	return Config{
		StoreRoot:         root,
		LauncherDir:       filepath.Join(native, "bin"),
		RepositoryFile:    filepath.Join(root, SelfID, "repository"),
		Runner:            filepath.Join(native, "run_pkg.py"),
		Interpreter:       interpreter,
		ExternalInstaller: "pip install {ref} -q",
		PipIndex:          "https://pypi.org",
		UserAgent:         "PaxD-Improved/1.0.0",
		HTTP: HTTP{
			Timeout:    30 * time.Second,
			MaxRetries: 5,
		},
	}
}

func dataDir(getenv func(string) string, goos string) string {
	if goos == "windows" {
		if dir := getenv("LOCALAPPDATA"); dir != "" {
			return dir
		}
		return filepath.Join(getenv("USERPROFILE"), "AppData", "Local")
	}
	if dir := getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(getenv("HOME"), ".local", "share")
}

// Dir returns the directory config.yaml is looked up in.
func Dir(getenv func(string) string, goos string) string {
	var base string
	switch {
	case goos == "windows":
		base = getenv("APPDATA")
		if base == "" {
			base = filepath.Join(getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case getenv("XDG_CONFIG_HOME") != "":
		base = getenv("XDG_CONFIG_HOME")
	default:
		base = filepath.Join(getenv("HOME"), ".config")
	}
	return filepath.Join(base, AppName)
}

// Load builds the configuration. It returns the config file that was read,
// or an empty string when only defaults and the environment applied.
func Load(opts LoadOptions) (*Config, string, error) {
	opts.normalize()

	v := viper.New()
	defaults := Defaults(opts.Getenv, opts.GOOS)
	v.SetDefault("store_root", defaults.StoreRoot)
	v.SetDefault("launcher_dir", defaults.LauncherDir)
	v.SetDefault("repository_file", defaults.RepositoryFile)
	v.SetDefault("repository", defaults.Repository)
	v.SetDefault("runner", defaults.Runner)
	v.SetDefault("interpreter", defaults.Interpreter)
	v.SetDefault("external_installer", defaults.ExternalInstaller)
	v.SetDefault("pip_index", defaults.PipIndex)
	v.SetDefault("user_agent", defaults.UserAgent)
	v.SetDefault("http.timeout", defaults.HTTP.Timeout)
	v.SetDefault("http.max_retries", defaults.HTTP.MaxRetries)
	v.SetDefault("http.auth_header", defaults.HTTP.AuthHeader)
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("redirect_protected_update", defaults.RedirectProtectedUpdate)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := opts.ConfigFile
	if path != "" {
		if !fileExists(path) {
			return nil, "", fmt.Errorf("config file not found: %s", path)
		}
	} else {
		dir := opts.ConfigDir
		if dir == "" {
			dir = Dir(opts.Getenv, opts.GOOS)
		}
		if candidate := filepath.Join(dir, ConfigFileName); fileExists(candidate) {
			path = candidate
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, path, nil
}

// RepositoryURL returns the repository to use: the inline override if
// set, otherwise the contents of the repository file.
func (c *Config) RepositoryURL() (string, error) {
	raw := c.Repository
	if raw == "" {
		var err error
		if raw, err = ReadRepository(c.RepositoryFile); err != nil {
			return "", err
		}
	}
	repo := ResolveRepository(raw)
	if repo == "" {
		return "", ErrNoRepository
	}
	return repo, nil
}

// ReadRepository reads the single-line repository file.
func ReadRepository(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: repository file %s not found", ErrNoRepository, path)
	}
	if err != nil {
		return "", fmt.Errorf("reading repository file: %w", err)
	}
	line, _, _ := strings.Cut(string(data), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%w: repository file %s is empty", ErrNoRepository, path)
	}
	return line, nil
}

// ResolveRepository strips the optimised marker and any trailing slash.
func ResolveRepository(raw string) string {
	repo := strings.TrimSpace(raw)
	repo = strings.TrimPrefix(repo, OptimisedPrefix)
	return strings.TrimRight(repo, "/")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
