package config

import (
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/errors"
)

// Default configuration sources, read before the job-specific file.
const (
	SystemConfigPath = "configs/system_config.yml"
	UserConfigPath   = "configs/user_config.yml"
	DefaultJobConfig = "configs/job_config.yml"
)

// EnvPrefix is the prefix of environment variables that override
// configuration keys, e.g. OSDR_API_KEY for api_key.
const EnvPrefix = "OSDR"

// Config represents the merged job configuration
type Config struct {
	// APIKey is the data API credential, sent as the api_key query parameter
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	// NtfyTopic is the notification topic appended to NtfyURL
	NtfyTopic string `mapstructure:"ntfy_topic" yaml:"ntfy_topic"`
	// NtfyURL is the base URL of the notification relay (default: https://ntfy.sh/)
	NtfyURL string `mapstructure:"ntfy_url" yaml:"ntfy_url"`
	// DataURL is the study files endpoint of the data API; the study ID is
	// appended as the last path segment
	DataURL string `mapstructure:"data_url" yaml:"data_url"`
	// StudyID selects the OSD-<id> study in the response (default: 201)
	StudyID int `mapstructure:"study_id" yaml:"study_id"`
	// Plot controls the rendered chart
	Plot PlotConfig `mapstructure:"plot_config" yaml:"plot_config"`
	// OutputPaths are the directories the chart is written to
	OutputPaths []string `mapstructure:"output_paths" yaml:"output_paths"`
	// OutputFile is the chart file name inside each output directory (default: SubCat.png)
	OutputFile string `mapstructure:"output_file" yaml:"output_file"`
	// VerboseLog switches logging from INFO to DEBUG
	VerboseLog bool `mapstructure:"verbose_log" yaml:"verbose_log"`
	// HTTPTimeout bounds every data API and notification request (default: 30s)
	HTTPTimeout time.Duration `mapstructure:"http_timeout" yaml:"http_timeout"`
	// LogDir is where the timestamped log file is written (default: ".")
	LogDir string `mapstructure:"log_dir" yaml:"log_dir"`
	// DropFirstCategory drops the first category in sort order after
	// aggregation (default: true)
	DropFirstCategory bool `mapstructure:"drop_first_category" yaml:"drop_first_category"`
}

// PlotConfig controls chart rendering
type PlotConfig struct {
	Title  string `mapstructure:"title" yaml:"title"`
	XLabel string `mapstructure:"xlabel" yaml:"xlabel"`
	YLabel string `mapstructure:"ylabel" yaml:"ylabel"`
	// Color is a hex color ("#1f77b4") or one of NamedColors()
	Color string `mapstructure:"color" yaml:"color"`
	// SizeW and SizeH are the figure size in inches
	SizeW float64 `mapstructure:"sizew" yaml:"sizew"`
	SizeH float64 `mapstructure:"sizeh" yaml:"sizeh"`
	// Kind is "bar" or "scatter" (default: "bar")
	Kind string `mapstructure:"kind" yaml:"kind"`
}

// Default returns a Config with default values for every optional key.
// Required keys are left empty.
func Default() *Config {
	return &Config{
		NtfyURL:    "https://ntfy.sh/",
		DataURL:    "https://osdr.nasa.gov/osdr/data/osd/files",
		StudyID:    201,
		OutputFile: "SubCat.png",
		Plot: PlotConfig{
			Color: "#1f77b4",
			SizeW: 6.4,
			SizeH: 4.8,
			Kind:  PlotKindBar,
		},
		HTTPTimeout:       30 * time.Second,
		LogDir:            ".",
		DropFirstCategory: true,
	}
}

// RequiredKeys returns the keys that must be present after merging, in the
// order they are checked.
func RequiredKeys() []string {
	return []string{
		"api_key",
		"ntfy_topic",
		"plot_config.title",
		"plot_config.xlabel",
		"plot_config.ylabel",
		"output_paths",
		"verbose_log",
	}
}

// legacyKeys maps key spellings used by older configuration files to their
// current names.
var legacyKeys = map[string]string{
	"ntfytopic": "ntfy_topic",
}

// DefaultSources returns the system, user and job configuration paths in
// merge order.
func DefaultSources(jobConfig string) []string {
	return []string{SystemConfigPath, UserConfigPath, jobConfig}
}

// setDefaults registers default values with v
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("ntfy_url", defaults.NtfyURL)
	v.SetDefault("data_url", defaults.DataURL)
	v.SetDefault("study_id", defaults.StudyID)
	v.SetDefault("output_file", defaults.OutputFile)
	v.SetDefault("http_timeout", defaults.HTTPTimeout)
	v.SetDefault("log_dir", defaults.LogDir)
	v.SetDefault("drop_first_category", defaults.DropFirstCategory)

	// Plot defaults apply per field, so a plot_config section that omits
	// them still gets them.
	v.SetDefault("plot_config.color", defaults.Plot.Color)
	v.SetDefault("plot_config.sizew", defaults.Plot.SizeW)
	v.SetDefault("plot_config.sizeh", defaults.Plot.SizeH)
	v.SetDefault("plot_config.kind", defaults.Plot.Kind)
}

// loadOptions holds the settings applied by LoadOption values.
type loadOptions struct {
	fs        afero.Fs
	envPrefix string
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithFs reads configuration sources from fs instead of the OS filesystem.
func WithFs(fs afero.Fs) LoadOption {
	return func(o *loadOptions) {
		o.fs = fs
	}
}

// WithEnvPrefix changes the environment variable prefix. An empty prefix
// disables environment overrides.
func WithEnvPrefix(prefix string) LoadOption {
	return func(o *loadOptions) {
		o.envPrefix = prefix
	}
}

// Load reads each source in order, merges them with top-level override
// (a key in a later source replaces the whole value of that key from earlier
// sources, nested sections included), applies environment overrides, and
// validates the result.
//
// Errors:
//   - *errors.ConfigNotFoundError if a source does not exist; no merge is attempted
//   - *errors.ConfigParseError if a source is not valid structured data or a
//     value is malformed
//   - *errors.ConfigMissingKeyError naming the first missing required key
func Load(paths []string, opts ...LoadOption) (*Config, error) {
	o := loadOptions{fs: afero.NewOsFs(), envPrefix: EnvPrefix}
	for _, opt := range opts {
		opt(&o)
	}

	merged := make(map[string]any)
	for _, path := range paths {
		settings, err := readSource(o.fs, path)
		if err != nil {
			return nil, err
		}
		for key, value := range settings {
			merged[key] = value
		}
	}

	v := viper.New()
	setDefaults(v)
	if o.envPrefix != "" {
		v.SetEnvPrefix(o.envPrefix)
		// Replace dots with underscores for nested keys in env vars
		// e.g., OSDR_PLOT_CONFIG_TITLE for plot_config.title
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		// Required keys have no default, so bind them explicitly to make
		// env-only values visible to Unmarshal.
		for _, key := range RequiredKeys() {
			_ = v.BindEnv(key)
		}
	}
	if err := v.MergeConfigMap(merged); err != nil {
		return nil, errors.NewConfigParseError(strings.Join(paths, ","), err)
	}

	for _, key := range RequiredKeys() {
		if !isPresent(v, key) {
			return nil, errors.NewConfigMissingKeyError(key)
		}
	}

	cfg := Default()
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, errors.NewConfigParseError(strings.Join(paths, ","), err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errors.NewConfigParseError("", ValidationErrors(errs)).WithField(errs[0].Field)
	}

	return cfg, nil
}

// readSource parses one configuration source into its top-level settings.
func readSource(fsys afero.Fs, path string) (map[string]any, error) {
	exists, err := afero.Exists(fsys, path)
	if err != nil {
		return nil, errors.NewConfigNotFoundError(path, err)
	}
	if !exists {
		return nil, errors.NewConfigNotFoundError(path, fs.ErrNotExist)
	}

	v := viper.New()
	v.SetFs(fsys)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.NewConfigParseError(path, err)
	}

	settings := v.AllSettings()
	for legacy, current := range legacyKeys {
		if value, ok := settings[legacy]; ok {
			if _, set := settings[current]; !set {
				settings[current] = value
			}
			delete(settings, legacy)
		}
	}
	return settings, nil
}

// isPresent reports whether key is set by a source or the environment and
// is not an empty string or empty list.
func isPresent(v *viper.Viper, key string) bool {
	if !v.IsSet(key) {
		return false
	}
	switch value := v.Get(key).(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(value) != ""
	case []any:
		return len(value) > 0
	case []string:
		return len(value) > 0
	}
	return true
}

// StudyURL returns the data API URL for the configured study, without the
// api_key query parameter.
func (c *Config) StudyURL() string {
	return fmt.Sprintf("%s/%d", strings.TrimSuffix(c.DataURL, "/"), c.StudyID)
}

// Redacted returns a copy of the configuration with the API key masked,
// suitable for logging and display.
func (c *Config) Redacted() Config {
	out := *c
	out.OutputPaths = append([]string(nil), c.OutputPaths...)
	if out.APIKey != "" {
		out.APIKey = "****"
	}
	return out
}

// ValidPlotKinds returns the list of valid plot_config.kind values
func ValidPlotKinds() []string {
	return []string{PlotKindBar, PlotKindScatter}
}

// Plot kinds
const (
	PlotKindBar     = "bar"
	PlotKindScatter = "scatter"
)

// IsValidPlotKind checks if the given kind is valid
func IsValidPlotKind(kind string) bool {
	for _, valid := range ValidPlotKinds() {
		if kind == valid {
			return true
		}
	}
	return false
}
