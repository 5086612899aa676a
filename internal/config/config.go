// Package config loads the application settings from a YAML file and applies CELLCOUNT_*
// environment overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cellcount/internal/imageio"
	"cellcount/internal/models"

	"gopkg.in/yaml.v3"
)

const (
	CodecStd    = "std"
	CodecOpenCV = "opencv"

	envPrefix = "CELLCOUNT_"
)

type Config struct {
	// Segmentation model invocation
	Model struct {
		// Python is the interpreter that has the cellpose package installed
		Python string `yaml:"python"`

		UseGPU bool `yaml:"useGpu"`

		// Variant preselected in the shell
		Variant string `yaml:"variant"`
	} `yaml:"model"`

	Output struct {
		Folder string `yaml:"folder"`

		// MaskFormat is "png" or "tif"
		MaskFormat string `yaml:"maskFormat"`

		// KeepMask disables deletion of the mask file after the overlay is shown
		KeepMask bool `yaml:"keepMask"`
	} `yaml:"output"`

	// Codec selects the image backend: "std" (pure Go) or "opencv"
	Codec string `yaml:"codec"`

	Log struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
	} `yaml:"log"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Model.Python = "python3"
	cfg.Model.UseGPU = false
	cfg.Model.Variant = models.DefaultVariant.String()

	cfg.Output.Folder = defaultOutputFolder()
	cfg.Output.MaskFormat = imageio.FormatPNG
	cfg.Output.KeepMask = false

	cfg.Codec = CodecStd

	cfg.Log.Level = "info"
	cfg.Log.JSON = false

	return cfg
}

func defaultOutputFolder() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "cellcount")
	}
	return "."
}

// DefaultPath is the per-user configuration file location.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "cellcount", "config.yaml")
	}
	return "cellcount.yaml"
}

// Load reads configPath, falling back to defaults when the file does not exist, then applies
// environment overrides and validates the result.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("error reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to configPath, creating the directory when needed.
func Save(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	texts := map[string]*string{
		"PYTHON":      &c.Model.Python,
		"VARIANT":     &c.Model.Variant,
		"OUTPUT":      &c.Output.Folder,
		"MASK_FORMAT": &c.Output.MaskFormat,
		"CODEC":       &c.Codec,
		"LOG_LEVEL":   &c.Log.Level,
	}
	for key, target := range texts {
		if value, ok := lookup(envPrefix + key); ok && value != "" {
			*target = value
		}
	}

	bools := map[string]*bool{
		"USE_GPU":   &c.Model.UseGPU,
		"KEEP_MASK": &c.Output.KeepMask,
		"JSON_LOGS": &c.Log.JSON,
	}
	for key, target := range bools {
		value, ok := lookup(envPrefix + key)
		if !ok || value == "" {
			continue
		}
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return models.NewValidationError(envPrefix+key, value, "must be true or false")
		}
		*target = parsed
	}
	return nil
}

// Validate normalizes enumerated fields and rejects unknown values. An unknown model variant
// is left as is: the job falls back to the default and reports a note.
func (c *Config) Validate() error {
	format, err := imageio.NormalizeFormat(c.Output.MaskFormat)
	if err != nil {
		return models.NewValidationError("maskFormat", c.Output.MaskFormat, err.Error())
	}
	c.Output.MaskFormat = format

	switch codec := strings.ToLower(strings.TrimSpace(c.Codec)); codec {
	case "", CodecStd:
		c.Codec = CodecStd
	case CodecOpenCV:
		c.Codec = CodecOpenCV
	default:
		return models.NewValidationError("codec", c.Codec, "must be std or opencv")
	}

	if strings.TrimSpace(c.Model.Python) == "" {
		return models.NewValidationError("python", c.Model.Python, "interpreter path is required")
	}
	return nil
}
