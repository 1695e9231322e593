// File: internal/config/config.go
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Engine() EngineConfig
	Cache() CacheConfig
	Viewport() ViewportConfig
	Host() HostConfig
	Output() OutputConfig

	// Viewport Setters
	SetViewportSize(width, height float64)
	SetViewportPaged(bool)

	// Output Setters
	SetOutputFormat(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	EngineCfg   EngineConfig   `mapstructure:"engine" yaml:"engine"`
	CacheCfg    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	ViewportCfg ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
	HostCfg     HostConfig     `mapstructure:"host" yaml:"host"`
	OutputCfg   OutputConfig   `mapstructure:"output" yaml:"output"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Engine() EngineConfig     { return c.EngineCfg }
func (c *Config) Cache() CacheConfig       { return c.CacheCfg }
func (c *Config) Viewport() ViewportConfig { return c.ViewportCfg }
func (c *Config) Host() HostConfig         { return c.HostCfg }
func (c *Config) Output() OutputConfig     { return c.OutputCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetViewportSize(width, height float64) {
	c.ViewportCfg.Width, c.ViewportCfg.Height = width, height
}
func (c *Config) SetViewportPaged(b bool)  { c.ViewportCfg.Paged = b }
func (c *Config) SetOutputFormat(f string) { c.OutputCfg.Format = f }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// EngineConfig tunes the layout engine.
type EngineConfig struct {
	DefaultFontSize  float64 `mapstructure:"default_font_size" yaml:"default_font_size"`
	LineHeightFactor float64 `mapstructure:"line_height_factor" yaml:"line_height_factor"`
	// Knuth-Plass tolerance; lines looser than this are rejected when a
	// feasible alternative exists.
	BreakTolerance  float64 `mapstructure:"break_tolerance" yaml:"break_tolerance"`
	HyphenPenalty   float64 `mapstructure:"hyphen_penalty" yaml:"hyphen_penalty"`
	DebugAssertions bool    `mapstructure:"debug_assertions" yaml:"debug_assertions"`
	FontDir         string  `mapstructure:"font_dir" yaml:"font_dir"`
	FixedPitchFonts bool    `mapstructure:"fixed_pitch_fonts" yaml:"fixed_pitch_fonts"`
}

// CacheConfig controls the layout cache.
type CacheConfig struct {
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled"`
	MaxIdlePasses int    `mapstructure:"max_idle_passes" yaml:"max_idle_passes"`
	SnapshotPath  string `mapstructure:"snapshot_path" yaml:"snapshot_path"`
}

// ViewportConfig is the default viewport for commands that do not set one.
type ViewportConfig struct {
	Width      float64 `mapstructure:"width" yaml:"width"`
	Height     float64 `mapstructure:"height" yaml:"height"`
	Scale      float64 `mapstructure:"scale" yaml:"scale"`
	Paged      bool    `mapstructure:"paged" yaml:"paged"`
	PageHeight float64 `mapstructure:"page_height" yaml:"page_height"`
}

// HostConfig configures the frame loop around the engine.
type HostConfig struct {
	FramesPerSecond float64       `mapstructure:"frames_per_second" yaml:"frames_per_second"`
	PassBudget      time.Duration `mapstructure:"pass_budget" yaml:"pass_budget"`
	InboxSize       int           `mapstructure:"inbox_size" yaml:"inbox_size"`
}

// OutputConfig selects how results are written.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "trellis")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "red")

	// -- Engine --
	v.SetDefault("engine.default_font_size", 16.0)
	v.SetDefault("engine.line_height_factor", 1.2)
	v.SetDefault("engine.break_tolerance", 200.0)
	v.SetDefault("engine.hyphen_penalty", 50.0)
	v.SetDefault("engine.debug_assertions", false)
	v.SetDefault("engine.font_dir", "")
	v.SetDefault("engine.fixed_pitch_fonts", false)

	// -- Cache --
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_idle_passes", 8)
	v.SetDefault("cache.snapshot_path", "")

	// -- Viewport --
	v.SetDefault("viewport.width", 800.0)
	v.SetDefault("viewport.height", 600.0)
	v.SetDefault("viewport.scale", 1.0)
	v.SetDefault("viewport.paged", false)
	v.SetDefault("viewport.page_height", 0.0)

	// -- Host --
	v.SetDefault("host.frames_per_second", 60.0)
	v.SetDefault("host.pass_budget", "16ms")
	v.SetDefault("host.inbox_size", 256)

	// -- Output --
	v.SetDefault("output.format", "json")
	v.SetDefault("output.pretty", false)
}

// Load prepares v to read trellis.yaml from the working directory or the
// home directory and TRELLIS_ prefixed environment variables. A missing
// config file is not an error; a malformed one is.
func Load(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)
	v.SetEnvPrefix("TRELLIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		path, err := homedir.Expand(cfgFile)
		if err != nil {
			return fmt.Errorf("error expanding config path %q: %w", cfgFile, err)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("trellis")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
			v.AddConfigPath(filepath.Join(home, ".config", "trellis"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.EngineCfg.Validate(); err != nil {
		return fmt.Errorf("engine configuration invalid: %w", err)
	}
	if err := c.ViewportCfg.Validate(); err != nil {
		return fmt.Errorf("viewport configuration invalid: %w", err)
	}
	if c.HostCfg.FramesPerSecond <= 0 {
		return fmt.Errorf("host.frames_per_second must be positive")
	}
	if c.HostCfg.InboxSize <= 0 {
		return fmt.Errorf("host.inbox_size must be a positive integer")
	}
	if c.CacheCfg.MaxIdlePasses < 0 {
		return fmt.Errorf("cache.max_idle_passes must not be negative")
	}
	switch c.OutputCfg.Format {
	case "json", "svg":
	default:
		return fmt.Errorf("output.format must be one of json, svg (got %q)", c.OutputCfg.Format)
	}
	return nil
}

// Validate checks the EngineConfig settings.
func (e *EngineConfig) Validate() error {
	if e.DefaultFontSize <= 0 {
		return fmt.Errorf("default_font_size must be positive")
	}
	if e.LineHeightFactor <= 0 {
		return fmt.Errorf("line_height_factor must be positive")
	}
	if e.BreakTolerance < 0 {
		return fmt.Errorf("break_tolerance must not be negative")
	}
	return nil
}

// Validate checks the ViewportConfig settings.
func (vp *ViewportConfig) Validate() error {
	if vp.Width <= 0 || vp.Height <= 0 {
		return fmt.Errorf("width and height must be positive")
	}
	if vp.Scale <= 0 {
		return fmt.Errorf("scale must be positive")
	}
	if vp.PageHeight < 0 {
		return fmt.Errorf("page_height must not be negative")
	}
	return nil
}
