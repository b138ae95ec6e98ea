package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the project config file looked up in the working directory.
const FileName = ".watscheck.yml"

// Config captures CLI options sourced from the config file or flags.
type Config struct {
	Profile string `yaml:"profile"`
	Format  string `yaml:"format"`
	FailOn  string `yaml:"fail_on"`

	Log    LogConfig    `yaml:"log"`
	Ledger LedgerConfig `yaml:"ledger"`
	LLM    LLMConfig    `yaml:"llm"`
	Import ImportConfig `yaml:"import"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
}

// LedgerConfig controls the sqlite history of validation runs.
type LedgerConfig struct {
	Path   string `yaml:"path"`
	Record bool   `yaml:"record"`
}

// LLMConfig selects the model used by the repair command.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// ImportConfig holds defaults for CSV imports when the file header omits them.
type ImportConfig struct {
	ProcessCode int    `yaml:"process_code"`
	Location    string `yaml:"location"`
	Purpose     string `yaml:"purpose"`
	Operator    string `yaml:"operator"`
}

const (
	FormatText      = "text"
	FormatJSON      = "json"
	FormatMarkdown  = "markdown"
	FormatAnnotated = "annotated"

	DefaultLedgerPath = ".watscheck/history.db"
)

// Formats lists the accepted output formats.
var Formats = []string{FormatText, FormatJSON, FormatMarkdown, FormatAnnotated}

// Default returns the baseline configuration used when neither flags nor
// the config file specify values.
func Default() Config {
	return Config{
		Profile: "standard",
		Format:  FormatText,
		FailOn:  "NONCONFORMING",
		Log:     LogConfig{Mode: "dev", Level: "warn"},
		Ledger:  LedgerConfig{Path: DefaultLedgerPath},
		LLM: LLMConfig{
			Provider:  "anthropic",
			MaxTokens: 8192,
		},
		Import: ImportConfig{ProcessCode: 10, Purpose: "Development"},
	}
}

// Load reads .watscheck.yml from dir when present. A missing file is not an error.
func Load(dir string) (Config, error) {
	cfg, err := LoadFile(filepath.Join(dir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// LoadFile reads the named config file and merges it over Default.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	return merge(cfg, fileCfg), nil
}

func merge(base, override Config) Config {
	out := base

	if override.Profile != "" {
		out.Profile = override.Profile
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if override.FailOn != "" {
		out.FailOn = override.FailOn
	}

	if override.Log.Mode != "" {
		out.Log.Mode = override.Log.Mode
	}
	if override.Log.Level != "" {
		out.Log.Level = override.Log.Level
	}

	if override.Ledger.Path != "" {
		out.Ledger.Path = override.Ledger.Path
	}
	if override.Ledger.Record {
		out.Ledger.Record = true
	}

	if override.LLM.Provider != "" {
		out.LLM.Provider = override.LLM.Provider
	}
	if override.LLM.Model != "" {
		out.LLM.Model = override.LLM.Model
	}
	if override.LLM.MaxTokens > 0 {
		out.LLM.MaxTokens = override.LLM.MaxTokens
	}
	if override.LLM.Temperature != 0 {
		out.LLM.Temperature = override.LLM.Temperature
	}

	if override.Import.ProcessCode != 0 {
		out.Import.ProcessCode = override.Import.ProcessCode
	}
	if override.Import.Location != "" {
		out.Import.Location = override.Import.Location
	}
	if override.Import.Purpose != "" {
		out.Import.Purpose = override.Import.Purpose
	}
	if override.Import.Operator != "" {
		out.Import.Operator = override.Import.Operator
	}

	return out
}

// ApplyFlags mutates cfg by applying values from CLI flags that were set explicitly.
func ApplyFlags(cfg *Config, flags FlagValues) {
	if flags.Profile.Set {
		cfg.Profile = flags.Profile.Value
	}
	if flags.Format.Set {
		cfg.Format = flags.Format.Value
	}
	if flags.FailOn.Set {
		cfg.FailOn = flags.FailOn.Value
	}
	if flags.LogMode.Set {
		cfg.Log.Mode = flags.LogMode.Value
	}
	if flags.LogLevel.Set {
		cfg.Log.Level = flags.LogLevel.Value
	}
	if flags.LedgerPath.Set {
		cfg.Ledger.Path = flags.LedgerPath.Value
	}
	if flags.Record.Set {
		cfg.Ledger.Record = flags.Record.Value
	}
	if flags.Provider.Set {
		cfg.LLM.Provider = flags.Provider.Value
	}
	if flags.Model.Set {
		cfg.LLM.Model = flags.Model.Value
	}
}

// FlagValues captures CLI flag state with knowledge of whether each flag was set explicitly.
type FlagValues struct {
	Profile    StringFlag
	Format     StringFlag
	FailOn     StringFlag
	LogMode    StringFlag
	LogLevel   StringFlag
	LedgerPath StringFlag
	Record     BoolFlag
	Provider   StringFlag
	Model      StringFlag
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// BoolFlag represents a bool flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}
