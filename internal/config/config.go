// =============================================================================
// Trader Config Editor - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration files.
// It handles both the main application configuration and the price profiles
// used by batch processing.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): Global application settings, read with
//      viper. Every key can be overridden with a TRADERCFG_ environment
//      variable, e.g. TRADERCFG_SERVER_ADDR=:9090.
//   2. Profiles (profiles/*.yaml): Named lists of bulk operations.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/trader-config-editor/internal/pricing"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "TRADERCFG"

// Operation types of a profile.
const (
	OperationGlobal   = "global"
	OperationCategory = "category"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned by `process` for configuration files.
	// Default: "./input"
	InputDir string `mapstructure:"input_dir"`

	// OutputDir receives the modified files written by `process`.
	// Default: "./output"
	OutputDir string `mapstructure:"output_dir"`

	// InputArchiveDir receives processed input files.
	// Default: "./input_archive"
	InputArchiveDir string `mapstructure:"input_archive_dir"`

	// OutputArchiveDir keeps a copy of every generated file.
	// Default: "./output_archive"
	OutputArchiveDir string `mapstructure:"output_archive_dir"`

	// ProfilesDir contains the price profiles.
	// Default: "./profiles"
	ProfilesDir string `mapstructure:"profiles_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel: "debug", "info", "warn", "error". Default: "info"
	LogLevel string `mapstructure:"log_level"`

	// LogFormat: "console" or "json". Default: "console"
	LogFormat string `mapstructure:"log_format"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputFileName is the default output of single-file commands.
	// Default: "modified_config.json"
	OutputFileName string `mapstructure:"output_file_name"`

	// OutputNameFormat names batch outputs. Placeholders:
	//   {stem}      - input file name without extension
	//   {profile}   - profile name
	//   {uuid}      - a random UUID
	//   {timestamp} - current timestamp (YYYYMMDD_HHMMSS)
	// Default: "{stem}_{timestamp}.json"
	OutputNameFormat string `mapstructure:"output_name_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files processed at once.
	// Default: 4
	MaxConcurrency int `mapstructure:"max_concurrency"`

	// ContinueOnError keeps processing other files when one fails.
	// Default: true
	ContinueOnError bool `mapstructure:"continue_on_error"`

	// Server holds the `serve` settings.
	Server ServerConfig `mapstructure:"server"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address. Default: ":8080"
	Addr string `mapstructure:"addr"`

	// MaxUploadBytes limits uploaded documents. Default: 10 MiB
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`

	// ReleaseMode switches gin to release mode. Default: true
	ReleaseMode bool `mapstructure:"release_mode"`
}

// =============================================================================
// PROFILE STRUCTURE
// =============================================================================

// Profile is a named, ordered list of bulk operations applied by `process`.
type Profile struct {
	// ProfileName is used in logs and output file names.
	ProfileName string `yaml:"profile_name"`

	// FileMatchingPatterns are glob patterns matched against input file
	// names. The first profile with a matching pattern is used.
	FileMatchingPatterns []string `yaml:"file_matching_patterns"`

	// Operations are applied in order.
	Operations []Operation `yaml:"operations"`

	// SourceFile is the file the profile was loaded from.
	SourceFile string `yaml:"-"`
}

// Operation is one bulk operation of a profile.
//
// EXAMPLE:
//
//	operations:
//	  - type: global
//	    price_percent: -10
//	    stock: "-1"
//	  - type: category
//	    categories: [Weapons, Ammo]
//	    price_percent: 25
//	    apply_to_sell: false
type Operation struct {
	// Type is "global" or "category".
	Type string `yaml:"type"`

	PricePercent float64 `yaml:"price_percent"`

	// Stock is the global stock override; empty keeps stock.
	Stock string `yaml:"stock,omitempty"`

	// Categories selects categories by name for "category" operations.
	Categories []string `yaml:"categories,omitempty"`

	// ApplyToBuy and ApplyToSell default to true when omitted.
	ApplyToBuy  *bool `yaml:"apply_to_buy,omitempty"`
	ApplyToSell *bool `yaml:"apply_to_sell,omitempty"`
}

// BuyEnabled reports whether buy prices are changed.
func (o Operation) BuyEnabled() bool {
	return o.ApplyToBuy == nil || *o.ApplyToBuy
}

// SellEnabled reports whether sell prices are changed.
func (o Operation) SellEnabled() bool {
	return o.ApplyToSell == nil || *o.ApplyToSell
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// DefaultMainConfig returns the configuration used when no file exists.
func DefaultMainConfig() *MainConfig {
	return &MainConfig{
		InputDir:         "./input",
		OutputDir:        "./output",
		InputArchiveDir:  "./input_archive",
		OutputArchiveDir: "./output_archive",
		ProfilesDir:      "./profiles",
		LogLevel:         "info",
		LogFormat:        "console",
		OutputFileName:   "modified_config.json",
		OutputNameFormat: "{stem}_{timestamp}.json",
		MaxConcurrency:   4,
		ContinueOnError:  true,
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 10 << 20,
			ReleaseMode:    true,
		},
	}
}

// LoadMainConfig loads the main configuration. A missing file is not an
// error: defaults and environment overrides are used instead.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config MainConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults registers DefaultMainConfig with viper so that file and
// environment values are layered over the same defaults.
func setDefaults(v *viper.Viper) {
	d := DefaultMainConfig()
	v.SetDefault("input_dir", d.InputDir)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("input_archive_dir", d.InputArchiveDir)
	v.SetDefault("output_archive_dir", d.OutputArchiveDir)
	v.SetDefault("profiles_dir", d.ProfilesDir)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("output_file_name", d.OutputFileName)
	v.SetDefault("output_name_format", d.OutputNameFormat)
	v.SetDefault("max_concurrency", d.MaxConcurrency)
	v.SetDefault("continue_on_error", d.ContinueOnError)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.max_upload_bytes", d.Server.MaxUploadBytes)
	v.SetDefault("server.release_mode", d.Server.ReleaseMode)
}

func validateMainConfig(config *MainConfig) error {
	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", config.MaxConcurrency)
	}
	if config.OutputFileName == "" {
		return fmt.Errorf("output_file_name must not be empty")
	}
	if config.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	switch config.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", config.LogFormat)
	}
	return nil
}

// LoadProfiles loads all profiles from a directory, keyed by profile name
// (the file name when profile_name is empty). A missing directory yields
// no profiles.
func LoadProfiles(profilesDir string) (map[string]*Profile, error) {
	profiles := make(map[string]*Profile)

	files, err := filepath.Glob(filepath.Join(profilesDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list profile files: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(profilesDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list profile files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		profile, err := LoadProfile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
		if _, dup := profiles[profile.ProfileName]; dup {
			return nil, fmt.Errorf("duplicate profile name %q in %s", profile.ProfileName, file)
		}
		profiles[profile.ProfileName] = profile
	}

	return profiles, nil
}

// LoadProfile loads and validates a single profile file.
func LoadProfile(filePath string) (*Profile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	profile.SourceFile = filePath
	if profile.ProfileName == "" {
		profile.ProfileName = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}

	if err := validateProfile(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func validateProfile(profile *Profile) error {
	for _, pattern := range profile.FileMatchingPatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid file pattern %q: %w", pattern, err)
		}
	}

	for i, op := range profile.Operations {
		switch op.Type {
		case OperationGlobal:
			if len(op.Categories) > 0 {
				return fmt.Errorf("operation %d: categories are not allowed on a global operation", i)
			}
		case OperationCategory:
			if op.Stock != "" {
				return fmt.Errorf("operation %d: stock is not allowed on a category operation", i)
			}
		default:
			return fmt.Errorf("operation %d: unknown type %q", i, op.Type)
		}
		if err := pricing.CheckPercent(op.PricePercent); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return nil
}

// Matches reports whether fileName matches one of the profile patterns.
func (p *Profile) Matches(fileName string) bool {
	for _, pattern := range p.FileMatchingPatterns {
		if ok, err := filepath.Match(pattern, fileName); err == nil && ok {
			return true
		}
	}
	return false
}
