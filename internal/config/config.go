package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/cuda-installer/internal/logger"
)

// Config holds the settings shared by the install and check commands.
type Config struct {
	// ScratchDir is the fixed staging directory for downloaded artifacts.
	ScratchDir string `mapstructure:"scratch_dir" yaml:"scratch_dir"`
	// ManifestPath overrides the embedded dependency manifest when set.
	ManifestPath string `mapstructure:"manifest_path" yaml:"manifest_path,omitempty"`
	// PackageManager is the pacman binary used for queries and installs.
	PackageManager string `mapstructure:"package_manager" yaml:"package_manager"`
	// UseSudo elevates mutating package manager calls when not running as root.
	UseSudo bool `mapstructure:"use_sudo" yaml:"use_sudo"`
	// ProbeTimeout bounds a single link reachability probe.
	ProbeTimeout time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout"`
	// DownloadTimeout bounds a single artifact download, zero means no limit.
	DownloadTimeout time.Duration `mapstructure:"download_timeout" yaml:"download_timeout"`
	// VerifyArtifacts enables .PKGINFO inspection of downloaded packages.
	VerifyArtifacts bool `mapstructure:"verify_artifacts" yaml:"verify_artifacts"`
	// PinFile is the pacman configuration file mentioned in the pinning guidance.
	PinFile string `mapstructure:"pin_file" yaml:"pin_file"`
	// LogLevel is the minimum level for diagnostic logs.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	// CudnnHeader is the header the check command reads the cuDNN version from.
	CudnnHeader string `mapstructure:"cudnn_header" yaml:"cudnn_header"`
}

const (
	// DefaultConfigFilename is the default filename used when saving settings.
	DefaultConfigFilename = "cuda-installer.yaml"

	// DefaultScratchDir is the well-known staging directory.
	DefaultScratchDir = "/tmp/cuda_installer"

	// DefaultPackageManager is the only supported package manager.
	DefaultPackageManager = "pacman"

	// DefaultProbeTimeout is the default duration for a link probe.
	DefaultProbeTimeout = 30 * time.Second

	// DefaultPinFile is where IgnorePkg entries belong.
	DefaultPinFile = "/etc/pacman.conf"

	// DefaultLogLevel keeps diagnostics quiet unless something goes wrong.
	DefaultLogLevel = "warn"

	// DefaultCudnnHeader is the header installed by the cudnn package.
	DefaultCudnnHeader = "/usr/include/cudnn_version.h"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// EnvPrefix is prepended to every environment override.
	EnvPrefix = "CUDA_INSTALLER"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errScratchDirInvalid is returned when the scratch directory is unsafe to remove recursively.
	errScratchDirInvalid = errors.New("scratch directory must be an absolute path below the filesystem root")
	// errPackageManagerRequired is returned when the package manager binary is empty.
	errPackageManagerRequired = errors.New("package manager must be provided")
	// errNegativeTimeout is returned for negative durations.
	errNegativeTimeout = errors.New("timeout must not be negative")
	// errUnknownLogLevel is returned for unparsable log levels.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		ScratchDir:      DefaultScratchDir,
		PackageManager:  DefaultPackageManager,
		UseSudo:         true,
		ProbeTimeout:    DefaultProbeTimeout,
		VerifyArtifacts: true,
		PinFile:         DefaultPinFile,
		LogLevel:        DefaultLogLevel,
		CudnnHeader:     DefaultCudnnHeader,
	}
}

// Load reads configuration from the optional YAML file at path, applies
// environment overrides and validates the result.
// An empty path means defaults plus environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(filepath.Clean(path))
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills in defaults for optional fields.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ScratchDir == "" {
		settings.ScratchDir = DefaultScratchDir
	}

	cleaned := filepath.Clean(settings.ScratchDir)
	if !filepath.IsAbs(cleaned) || cleaned == string(filepath.Separator) {
		return fmt.Errorf("%w: %q", errScratchDirInvalid, settings.ScratchDir)
	}

	settings.ScratchDir = cleaned

	if strings.TrimSpace(settings.PackageManager) == "" {
		return errPackageManagerRequired
	}

	if settings.ProbeTimeout < 0 || settings.DownloadTimeout < 0 {
		return errNegativeTimeout
	}

	if settings.ProbeTimeout == 0 {
		settings.ProbeTimeout = DefaultProbeTimeout
	}

	if settings.PinFile == "" {
		settings.PinFile = DefaultPinFile
	}

	if settings.CudnnHeader == "" {
		settings.CudnnHeader = DefaultCudnnHeader
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%w: %s", errUnknownLogLevel, settings.LogLevel)
	}

	return nil
}

// setDefaults registers every key with viper so environment overrides are picked up by Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("scratch_dir", cfg.ScratchDir)
	v.SetDefault("manifest_path", cfg.ManifestPath)
	v.SetDefault("package_manager", cfg.PackageManager)
	v.SetDefault("use_sudo", cfg.UseSudo)
	v.SetDefault("probe_timeout", cfg.ProbeTimeout)
	v.SetDefault("download_timeout", cfg.DownloadTimeout)
	v.SetDefault("verify_artifacts", cfg.VerifyArtifacts)
	v.SetDefault("pin_file", cfg.PinFile)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("cudnn_header", cfg.CudnnHeader)
}
