// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jonathan/lighthouse-audit/internal/browser"
	"github.com/jonathan/lighthouse-audit/internal/lighthouse"
	"github.com/jonathan/lighthouse-audit/internal/notify"
	"github.com/jonathan/lighthouse-audit/internal/schemas"
	"github.com/jonathan/lighthouse-audit/internal/types"
)

// EnvPrefix is prepended to environment overrides, e.g. LIGHTHOUSE_NOTIFY_WEBHOOK_URL.
const EnvPrefix = "LIGHTHOUSE"

// DefaultConfigName is the config file looked up in the working directory when
// no path is given.
const DefaultConfigName = "lighthouse-audit"

// Config is the resolved run configuration.
type Config struct {
	AppName     string             `mapstructure:"app_name" json:"app_name" validate:"required"`
	OutputDir   string             `mapstructure:"output_dir" json:"output_dir" validate:"required"`
	Verbose     bool               `mapstructure:"verbose" json:"verbose"`
	DatabaseURL string             `mapstructure:"database_url" json:"database_url,omitempty"`
	Baseline    map[string]float64 `mapstructure:"baseline" json:"baseline" validate:"required,dive,keys,oneof=performance accessibility best-practices seo,endkeys,gte=0,lte=1"`
	Pages       []types.Page       `mapstructure:"pages" json:"pages" validate:"required,min=1,dive"`
	Browser     BrowserConfig      `mapstructure:"browser" json:"browser"`
	Lighthouse  LighthouseConfig   `mapstructure:"lighthouse" json:"lighthouse"`
	Notify      NotifyConfig       `mapstructure:"notify" json:"notify"`
}

// BrowserConfig configures the Chrome instance.
type BrowserConfig struct {
	Headless     bool          `mapstructure:"headless" json:"headless"`
	Port         int           `mapstructure:"port" json:"port" validate:"min=1,max=65535"`
	WindowWidth  int           `mapstructure:"window_width" json:"window_width" validate:"min=1"`
	WindowHeight int           `mapstructure:"window_height" json:"window_height" validate:"min=1"`
	ChromePath   string        `mapstructure:"chrome_path" json:"chrome_path,omitempty"`
	Flags        []string      `mapstructure:"flags" json:"flags"`
	StepTimeout  time.Duration `mapstructure:"step_timeout" json:"step_timeout" validate:"gt=0"`
}

// LighthouseConfig configures the Lighthouse CLI.
type LighthouseConfig struct {
	Binary    string        `mapstructure:"binary" json:"binary" validate:"required"`
	Preset    string        `mapstructure:"preset" json:"preset"`
	ExtraArgs []string      `mapstructure:"extra_args" json:"extra_args"`
	Timeout   time.Duration `mapstructure:"timeout" json:"timeout" validate:"gt=0"`
}

// NotifyConfig configures the alert destination. An empty webhook URL disables alerts.
type NotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url" json:"webhook_url,omitempty" validate:"omitempty,url"`
	Channel    string `mapstructure:"channel" json:"channel,omitempty"`
	Username   string `mapstructure:"username" json:"username,omitempty"`
	Color      string `mapstructure:"color" json:"color,omitempty"`
	FooterIcon string `mapstructure:"footer_icon" json:"footer_icon,omitempty"`
}

// ValidationError lists every invalid field of a configuration.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "config error: " + strings.Join(e.Fields, "; ")
}

// DefaultPages reproduces the built-in Nature run: the homepage, and the
// Cancer subject reached by clicking through the subjects index.
func DefaultPages() []types.Page {
	return []types.Page{
		{
			URL:        "https://www.nature.com",
			ReportName: "Nature Homepage",
		},
		{
			URL:        "https://www.nature.com/subjects",
			ReportName: "Nature Subjects Cancer",
			Steps: []types.Step{
				{Action: types.StepGoto, URL: "https://www.nature.com/subjects"},
				{Action: types.StepClick, Selector: "a[data-track-label='Cancer']", WaitNavigation: true},
			},
		},
	}
}

func setDefaults(v *viper.Viper) {
	bopts := browser.DefaultOptions()
	lopts := lighthouse.DefaultOptions()

	v.SetDefault("app_name", "Nature")
	v.SetDefault("output_dir", ".")
	v.SetDefault("verbose", false)
	v.SetDefault("database_url", "")
	for _, c := range types.Categories {
		v.SetDefault("baseline."+string(c), types.DefaultBaselineScore)
	}

	v.SetDefault("browser.headless", bopts.Headless)
	v.SetDefault("browser.port", bopts.Port)
	v.SetDefault("browser.window_width", bopts.WindowWidth)
	v.SetDefault("browser.window_height", bopts.WindowHeight)
	v.SetDefault("browser.chrome_path", "")
	v.SetDefault("browser.flags", bopts.Flags)
	v.SetDefault("browser.step_timeout", bopts.StepTimeout.String())

	v.SetDefault("lighthouse.binary", lopts.Binary)
	v.SetDefault("lighthouse.preset", lopts.Preset)
	v.SetDefault("lighthouse.extra_args", []string{})
	v.SetDefault("lighthouse.timeout", lopts.Timeout.String())

	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("notify.channel", "")
	v.SetDefault("notify.username", "")
	v.SetDefault("notify.color", notify.DefaultColor)
	v.SetDefault("notify.footer_icon", notify.DefaultFooterIcon)
}

// Load resolves the configuration from defaults, an optional config file
// (YAML or JSON) and LIGHTHOUSE_* environment variables. With an empty path,
// lighthouse-audit.{yaml,json} in the working directory is used if present.
// DATABASE_URL is honoured when database_url is not set.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		if !filepath.IsAbs(path) {
			cwd, err := os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to get current directory: %w", err)
			}
			path = filepath.Join(cwd, path)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if used := v.ConfigFileUsed(); used != "" {
		if err := validateFile(used); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// An explicit empty list is left for Validate to reject.
	if !v.IsSet("pages") {
		cfg.Pages = DefaultPages()
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	return &cfg, nil
}

// validateFile checks the config file alone, before defaults and environment
// overrides are merged in, against the config schema.
func validateFile(path string) error {
	fileOnly := viper.New()
	fileOnly.SetConfigFile(path)
	if err := fileOnly.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	doc, err := json.Marshal(fileOnly.AllSettings())
	if err != nil {
		return fmt.Errorf("failed to encode config for schema validation: %w", err)
	}
	if err := schemas.ValidateConfig(doc); err != nil {
		return fmt.Errorf("config file %s does not match schema: %w", path, err)
	}
	return nil
}

// Validate checks field constraints and per-step requirements.
func (c *Config) Validate() error {
	var fields []string

	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("config error: %w", err)
		}
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s failed '%s' (value: %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
	}

	for i, page := range c.Pages {
		for j, step := range page.Steps {
			if err := step.Validate(); err != nil {
				fields = append(fields, fmt.Sprintf("pages[%d].steps[%d]: %v", i, j, err))
			}
		}
	}

	if len(fields) > 0 {
		sort.Strings(fields)
		return &ValidationError{Fields: fields}
	}
	return nil
}

// BaselineScores converts the configured thresholds to a types.Baseline.
func (c *Config) BaselineScores() types.Baseline {
	b := make(types.Baseline, len(c.Baseline))
	for k, v := range c.Baseline {
		b[types.Category(k)] = v
	}
	return b
}

// BrowserOptions returns the options for launching Chrome.
func (c *Config) BrowserOptions() browser.Options {
	return browser.Options{
		Headless:     c.Browser.Headless,
		Port:         c.Browser.Port,
		WindowWidth:  c.Browser.WindowWidth,
		WindowHeight: c.Browser.WindowHeight,
		ChromePath:   c.Browser.ChromePath,
		Flags:        c.Browser.Flags,
		StepTimeout:  c.Browser.StepTimeout,
		Verbose:      c.Verbose,
	}
}

// LighthouseOptions returns the options for the Lighthouse CLI. It attaches to
// the browser's debugging port.
func (c *Config) LighthouseOptions() lighthouse.Options {
	return lighthouse.Options{
		Binary:    c.Lighthouse.Binary,
		Port:      c.Browser.Port,
		Preset:    c.Lighthouse.Preset,
		ExtraArgs: c.Lighthouse.ExtraArgs,
		Timeout:   c.Lighthouse.Timeout,
		Verbose:   c.Verbose,
	}
}

// SlackOptions returns the webhook notifier options; ok is false when no
// webhook is configured.
func (c *Config) SlackOptions() (notify.SlackOptions, bool) {
	if c.Notify.WebhookURL == "" {
		return notify.SlackOptions{}, false
	}
	return notify.SlackOptions{
		WebhookURL: c.Notify.WebhookURL,
		Channel:    c.Notify.Channel,
		Username:   c.Notify.Username,
		Color:      c.Notify.Color,
		FooterIcon: c.Notify.FooterIcon,
	}, true
}
