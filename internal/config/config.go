// Package config loads .apiextract/config.toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"apiextract/internal/errors"
	"apiextract/internal/paths"
	"apiextract/internal/slogutil"
)

// EnvPrefix prefixes environment overrides, e.g. APIEXTRACT_EMIT_WORKERS.
const EnvPrefix = "APIEXTRACT"

// Config is the complete apiextract configuration.
type Config struct {
	// BasePackages are the package prefixes that make up the API.
	BasePackages []string `toml:"basePackages" json:"basePackages" mapstructure:"basePackages"`
	// ExcludePackages are removed from BasePackages.
	ExcludePackages []string `toml:"excludePackages" json:"excludePackages" mapstructure:"excludePackages"`
	// IncludeMembersDefault is what includeMembers = DEFAULT means on a seed.
	IncludeMembersDefault bool `toml:"includeMembersDefault" json:"includeMembersDefault" mapstructure:"includeMembersDefault"`

	WarnDoc             bool     `toml:"warnDoc" json:"warnDoc" mapstructure:"warnDoc"`
	WarnDocBasePackages []string `toml:"warnDocBasePackages" json:"warnDocBasePackages" mapstructure:"warnDocBasePackages"`

	Annotations AnnotationsConfig `toml:"annotations" json:"annotations" mapstructure:"annotations"`
	Output      OutputConfig      `toml:"output" json:"output" mapstructure:"output"`
	Emit        EmitConfig        `toml:"emit" json:"emit" mapstructure:"emit"`
	Ledger      LedgerConfig      `toml:"ledger" json:"ledger" mapstructure:"ledger"`
	Logging     LoggingConfig     `toml:"logging" json:"logging" mapstructure:"logging"`
}

// AnnotationsConfig names the marker annotations seeds are discovered from.
type AnnotationsConfig struct {
	Include string `toml:"include" json:"include" mapstructure:"include"`
	Exclude string `toml:"exclude" json:"exclude" mapstructure:"exclude"`
}

// OutputConfig controls where artifacts go. Relative paths resolve against
// the project root.
type OutputConfig struct {
	Dir      string `toml:"dir" json:"dir" mapstructure:"dir"`
	Jar      string `toml:"jar" json:"jar" mapstructure:"jar"`
	Location string `toml:"location" json:"location" mapstructure:"location"`
}

// EmitConfig tunes stub generation. Workers 0 means one per CPU.
type EmitConfig struct {
	Workers int `toml:"workers" json:"workers" mapstructure:"workers"`
}

// LedgerConfig toggles the sqlite artifact ledger.
type LedgerConfig struct {
	Enabled bool `toml:"enabled" json:"enabled" mapstructure:"enabled"`
}

// LoggingConfig configures the log file. Console verbosity comes from -v
// and --quiet.
type LoggingConfig struct {
	Level        string `toml:"level" json:"level" mapstructure:"level"`
	File         string `toml:"file" json:"file" mapstructure:"file"`
	MaxSizeBytes int64  `toml:"maxSizeBytes" json:"maxSizeBytes" mapstructure:"maxSizeBytes"`
	MaxBackups   int    `toml:"maxBackups" json:"maxBackups" mapstructure:"maxBackups"`
}

// DefaultConfig returns the configuration used when no file exists.
// BasePackages is empty, so it does not validate until one is set.
func DefaultConfig() *Config {
	return &Config{
		BasePackages:          []string{},
		ExcludePackages:       []string{},
		IncludeMembersDefault: true,
		WarnDoc:               false,
		WarnDocBasePackages:   []string{},
		Annotations: AnnotationsConfig{
			Include: "apiextract.annotations.PublicApi",
			Exclude: "apiextract.annotations.ExcludeApi",
		},
		Output: OutputConfig{
			Dir:      "build/api-classes",
			Location: "API_OUTPUT",
		},
		Emit:   EmitConfig{Workers: 0},
		Ledger: LedgerConfig{Enabled: true},
		Logging: LoggingConfig{
			Level:        "info",
			MaxSizeBytes: 10 << 20,
			MaxBackups:   3,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("basePackages", d.BasePackages)
	v.SetDefault("excludePackages", d.ExcludePackages)
	v.SetDefault("includeMembersDefault", d.IncludeMembersDefault)
	v.SetDefault("warnDoc", d.WarnDoc)
	v.SetDefault("warnDocBasePackages", d.WarnDocBasePackages)
	v.SetDefault("annotations.include", d.Annotations.Include)
	v.SetDefault("annotations.exclude", d.Annotations.Exclude)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.jar", d.Output.Jar)
	v.SetDefault("output.location", d.Output.Location)
	v.SetDefault("emit.workers", d.Emit.Workers)
	v.SetDefault("ledger.enabled", d.Ledger.Enabled)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSizeBytes", d.Logging.MaxSizeBytes)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
}

// LoadConfig reads the project configuration. configFile overrides the
// default location <root>/.apiextract/config.toml; a missing default file
// yields the defaults, a missing explicit file is an error. Environment
// variables (APIEXTRACT_BASEPACKAGES, APIEXTRACT_OUTPUT_DIR, ...) override
// file values. The result is not validated.
func LoadConfig(root, configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("toml")
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(paths.StateDir(root))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.New(errors.ConfigInvalid, "failed to read configuration", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "failed to decode configuration", err)
	}
	return &cfg, nil
}

// Save writes the configuration to <root>/.apiextract/config.toml.
func (c *Config) Save(root string) error {
	if _, err := paths.EnsureStateDir(root); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return c.WriteFile(paths.ConfigPath(root))
}

// WriteFile writes the configuration as TOML to path.
func (c *Config) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(header); err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return f.Close()
}

const header = `# apiextract configuration.
# basePackages must list at least one package prefix before extract runs.

`

// DocBasePackages returns the packages checked for missing documentation,
// which default to BasePackages.
func (c *Config) DocBasePackages() []string {
	if len(c.WarnDocBasePackages) > 0 {
		return c.WarnDocBasePackages
	}
	return c.BasePackages
}

var qualifiedName = regexp.MustCompile(`^[\p{L}_$][\p{L}\p{N}_$]*(\.[\p{L}_$][\p{L}\p{N}_$]*)*$`)

// Validate checks the configuration and returns a CONFIG_INVALID error
// listing every problem.
func (c *Config) Validate() error {
	var problems []ConfigError
	add := func(field, format string, args ...interface{}) {
		problems = append(problems, ConfigError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if len(c.BasePackages) == 0 {
		add("basePackages", "at least one base package is required")
	}
	checkNames := func(field string, names []string) {
		for _, n := range names {
			if !qualifiedName.MatchString(n) {
				add(field, "%q is not a package name", n)
			}
		}
	}
	checkNames("basePackages", c.BasePackages)
	checkNames("excludePackages", c.ExcludePackages)
	checkNames("warnDocBasePackages", c.WarnDocBasePackages)

	if !qualifiedName.MatchString(c.Annotations.Include) {
		add("annotations.include", "%q is not a qualified annotation name", c.Annotations.Include)
	}
	if !qualifiedName.MatchString(c.Annotations.Exclude) {
		add("annotations.exclude", "%q is not a qualified annotation name", c.Annotations.Exclude)
	}
	if c.Annotations.Include != "" && c.Annotations.Include == c.Annotations.Exclude {
		add("annotations.exclude", "must differ from annotations.include")
	}
	if c.Output.Location == "" {
		add("output.location", "must not be empty")
	}
	if c.Emit.Workers < 0 {
		add("emit.workers", "must be >= 0, got %d", c.Emit.Workers)
	}
	if !slogutil.ValidLevel(c.Logging.Level) {
		add("logging.level", "unknown level %q", c.Logging.Level)
	}
	if c.Logging.MaxSizeBytes < 0 || c.Logging.MaxBackups < 0 {
		add("logging", "maxSizeBytes and maxBackups must be >= 0")
	}

	if len(problems) == 0 {
		return nil
	}
	lines := make([]string, len(problems))
	for i, p := range problems {
		lines[i] = p.Error()
	}
	return errors.Newf(errors.ConfigInvalid, "invalid configuration (%d problem(s))", len(problems)).WithDetails(lines)
}

// ConfigError is one problem found by Validate.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
