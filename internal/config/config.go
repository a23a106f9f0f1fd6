// Package config holds the runtime configuration for the sheetgrid CLI,
// loaded from defaults, SHEETGRID_* environment variables and command
// line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Default values
const (
	DefaultColumns      = 33
	DefaultRows         = 24
	DefaultIoU          = 0.5
	DefaultConfFloor    = 0.15
	DefaultTargetWidth  = 1200
	DefaultTargetHeight = 900
	DefaultPadding      = 2
	DefaultWorkers      = 4
	DefaultLanguage     = "eng"
	DefaultLogLevel     = "info"
)

// Extraction mode names accepted by --mode.
const (
	ModeTemplate = "template"
	ModeDetector = "detector"
)

// Config holds all configuration for a sheetgrid run.
type Config struct {
	// Input/output. InputPaths collects the --input flag plus any
	// positional arguments; a multi-image batch shares one process.
	InputPaths []string
	OutputDir  string

	// Extraction
	Mode         string // "template" or "detector"
	TemplatePath string // empty selects the built-in layout
	Columns      int
	Rows         int
	IoU          float64
	ConfFloor    float64
	Padding      int

	// Rectification
	TargetWidth    int
	TargetHeight   int
	PreserveScale  bool
	StrictBoundary bool

	// Recognition
	Language       string
	TessdataPrefix string
	Workers        int

	LogLevel string
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		OutputDir:    "out",
		Mode:         ModeTemplate,
		Columns:      DefaultColumns,
		Rows:         DefaultRows,
		IoU:          DefaultIoU,
		ConfFloor:    DefaultConfFloor,
		Padding:      DefaultPadding,
		TargetWidth:  DefaultTargetWidth,
		TargetHeight: DefaultTargetHeight,
		Language:     DefaultLanguage,
		Workers:      DefaultWorkers,
		LogLevel:     DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags plus the environment and
// returns a validated configuration.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()

	pflag.Parse()

	populateConfigFromViper(cfg)

	if flagged := viper.GetString("input"); flagged != "" {
		cfg.InputPaths = append(cfg.InputPaths, flagged)
	}
	cfg.InputPaths = append(cfg.InputPaths, pflag.Args()...)
	for i, p := range cfg.InputPaths {
		if abs, err := filepath.Abs(p); err == nil {
			cfg.InputPaths[i] = abs
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("SHEETGRID")
	viper.AutomaticEnv()

	viper.SetDefault("input", "")
	viper.SetDefault("out", cfg.OutputDir)
	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("template", cfg.TemplatePath)
	viper.SetDefault("columns", cfg.Columns)
	viper.SetDefault("rows", cfg.Rows)
	viper.SetDefault("iou", cfg.IoU)
	viper.SetDefault("conf", cfg.ConfFloor)
	viper.SetDefault("padding", cfg.Padding)
	viper.SetDefault("width", cfg.TargetWidth)
	viper.SetDefault("height", cfg.TargetHeight)
	viper.SetDefault("preservescale", cfg.PreserveScale)
	viper.SetDefault("strict", cfg.StrictBoundary)
	viper.SetDefault("lang", cfg.Language)
	viper.SetDefault("tessdata", cfg.TessdataPrefix)
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("loglevel", cfg.LogLevel)
}

func defineCommandLineFlags(cfg *Config) {
	pflag.String("input", "", "Input sheet image (PNG or JPEG); extra images may follow as arguments")
	pflag.String("out", cfg.OutputDir, "Output directory for extracted artifacts")
	pflag.String("mode", cfg.Mode, "Extraction mode: 'template' or 'detector'")
	pflag.String("template", cfg.TemplatePath, "Layout template JSON (default: built-in logsheet layout)")
	pflag.Int("columns", cfg.Columns, "Grid column budget")
	pflag.Int("rows", cfg.Rows, "Grid row budget per column")
	pflag.Float64("iou", cfg.IoU, "IoU threshold for overlap suppression")
	pflag.Float64("conf", cfg.ConfFloor, "Detector confidence floor")
	pflag.Int("padding", cfg.Padding, "Pixels of padding around template sections")
	pflag.Int("width", cfg.TargetWidth, "Rectified sheet width")
	pflag.Int("height", cfg.TargetHeight, "Rectified sheet height")
	pflag.Bool("preservescale", cfg.PreserveScale, "Size rectified output from the detected quad instead of width/height")
	pflag.Bool("strict", cfg.StrictBoundary, "Require the sheet boundary to cover at least 30% of the frame")
	pflag.String("lang", cfg.Language, "Tesseract language code")
	pflag.String("tessdata", cfg.TessdataPrefix, "Tesseract trained-data directory")
	pflag.Int("workers", cfg.Workers, "Concurrent recognition workers")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
}

func bindFlagsToViper() {
	for _, name := range []string{
		"input", "out", "mode", "template", "columns", "rows", "iou", "conf",
		"padding", "width", "height", "preservescale", "strict", "lang",
		"tessdata", "workers", "loglevel",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

func populateConfigFromViper(cfg *Config) {
	cfg.OutputDir = viper.GetString("out")
	cfg.Mode = viper.GetString("mode")
	cfg.TemplatePath = viper.GetString("template")
	cfg.Columns = viper.GetInt("columns")
	cfg.Rows = viper.GetInt("rows")
	cfg.IoU = viper.GetFloat64("iou")
	cfg.ConfFloor = viper.GetFloat64("conf")
	cfg.Padding = viper.GetInt("padding")
	cfg.TargetWidth = viper.GetInt("width")
	cfg.TargetHeight = viper.GetInt("height")
	cfg.PreserveScale = viper.GetBool("preservescale")
	cfg.StrictBoundary = viper.GetBool("strict")
	cfg.Language = viper.GetString("lang")
	cfg.TessdataPrefix = viper.GetString("tessdata")
	cfg.Workers = viper.GetInt("workers")
	cfg.LogLevel = viper.GetString("loglevel")
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if len(c.InputPaths) == 0 {
		return errors.New("at least one input image path is required")
	}
	if c.OutputDir == "" {
		return errors.New("output directory cannot be empty")
	}
	if c.Mode != ModeTemplate && c.Mode != ModeDetector {
		return fmt.Errorf("mode must be %q or %q", ModeTemplate, ModeDetector)
	}
	if c.Columns < 1 || c.Rows < 1 {
		return errors.New("columns and rows must be positive")
	}
	if c.IoU <= 0 || c.IoU > 1 {
		return errors.New("iou threshold must be in (0, 1]")
	}
	if c.ConfFloor < 0 || c.ConfFloor >= 1 {
		return errors.New("confidence floor must be in [0, 1)")
	}
	if c.TargetWidth < 1 || c.TargetHeight < 1 {
		return errors.New("target size must be positive")
	}
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	return nil
}

// IsDebug reports whether debug logging is enabled.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a loggable representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Inputs: %d, Out: %s, Mode: %s, Columns: %d, Rows: %d, Workers: %d}",
		len(c.InputPaths), c.OutputDir, c.Mode, c.Columns, c.Rows, c.Workers)
}
