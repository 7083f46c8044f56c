// Package config loads the daemon settings.
//
// Settings come from built-in defaults, then a JSON settings file (or its
// .example template), then NEXUS_* environment variables. The file is checked
// against an embedded JSON schema before it is decoded.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultPath is where the settings file is looked up
	DefaultPath = "config/settings.json"
	// ExampleSuffix names the template used when the settings file is absent
	ExampleSuffix = ".example"
	// EnvPrefix prefixes environment overrides, e.g. NEXUS_MIN_GROWTH_CHARS
	EnvPrefix = "NEXUS"
)

// ErrInvalid is wrapped by every settings validation error
var ErrInvalid = errors.New("invalid settings")

// Settings is the daemon configuration. It is built once and not modified.
type Settings struct {
	InboxDir      string `mapstructure:"inbox_dir" json:"inbox_dir" yaml:"inbox_dir"`
	ProcessedDir  string `mapstructure:"processed_dir" json:"processed_dir" yaml:"processed_dir"`
	AddressesFile string `mapstructure:"addresses_file" json:"addresses_file" yaml:"addresses_file"`

	PollIntervalSec         float64 `mapstructure:"poll_interval_sec" json:"poll_interval_sec" yaml:"poll_interval_sec"`
	MaturityWaitSec         float64 `mapstructure:"maturity_wait_sec" json:"maturity_wait_sec" yaml:"maturity_wait_sec"`
	ResponseTimeoutSec      float64 `mapstructure:"response_capture_timeout_sec" json:"response_capture_timeout_sec" yaml:"response_capture_timeout_sec"`
	ResponseStabilitySec    float64 `mapstructure:"response_stability_wait_sec" json:"response_stability_wait_sec" yaml:"response_stability_wait_sec"`
	ResponsePollIntervalSec float64 `mapstructure:"response_poll_interval_sec" json:"response_poll_interval_sec" yaml:"response_poll_interval_sec"`
	MinGrowthChars          int     `mapstructure:"min_growth_chars" json:"min_growth_chars" yaml:"min_growth_chars"`
	CaptureSuffixOnly       bool    `mapstructure:"capture_suffix_only" json:"capture_suffix_only" yaml:"capture_suffix_only"`

	SubmitMode        string  `mapstructure:"submit_mode" json:"submit_mode" yaml:"submit_mode"`
	InputMethod       string  `mapstructure:"input_method" json:"input_method" yaml:"input_method"`
	TypePauseSec      float64 `mapstructure:"type_pause_sec" json:"type_pause_sec" yaml:"type_pause_sec"`
	PreSubmitDelaySec float64 `mapstructure:"pre_submit_delay_sec" json:"pre_submit_delay_sec" yaml:"pre_submit_delay_sec"`
	PostSendWaitSec   float64 `mapstructure:"post_send_wait_sec" json:"post_send_wait_sec" yaml:"post_send_wait_sec"`

	AutoDetectAddresses bool   `mapstructure:"auto_detect_addresses" json:"auto_detect_addresses" yaml:"auto_detect_addresses"`
	DefaultAddressKey   string `mapstructure:"default_address_key" json:"default_address_key" yaml:"default_address_key"`
	ReplyToSender       bool   `mapstructure:"reply_to_sender" json:"reply_to_sender" yaml:"reply_to_sender"`

	EmbedOCR      bool    `mapstructure:"embed_ocr_in_json" json:"embed_ocr_in_json" yaml:"embed_ocr_in_json"`
	OCRCommand    string  `mapstructure:"ocr_command" json:"ocr_command" yaml:"ocr_command"`
	OCRTimeoutSec float64 `mapstructure:"ocr_timeout_sec" json:"ocr_timeout_sec" yaml:"ocr_timeout_sec"`

	LegacyEncoding string `mapstructure:"legacy_encoding" json:"legacy_encoding" yaml:"legacy_encoding"`
	WatchInbox     bool   `mapstructure:"watch_inbox" json:"watch_inbox" yaml:"watch_inbox"`

	// Source is the file the settings were read from, empty for defaults only
	Source string `mapstructure:"-" json:"-" yaml:"-"`
}

var defaults = map[string]any{
	"inbox_dir":                    "inbox",
	"processed_dir":                "processed",
	"addresses_file":               "config/addresses.json",
	"poll_interval_sec":            5.0,
	"maturity_wait_sec":            0.2,
	"response_capture_timeout_sec": 60.0,
	"response_stability_wait_sec":  1.2,
	"response_poll_interval_sec":   0.3,
	"min_growth_chars":             80,
	"capture_suffix_only":          false,
	"submit_mode":                  "single",
	"input_method":                 "paste",
	"type_pause_sec":               0.02,
	"pre_submit_delay_sec":         0.6,
	"post_send_wait_sec":           0.0,
	"auto_detect_addresses":        true,
	"default_address_key":          "terminal",
	"reply_to_sender":              true,
	"embed_ocr_in_json":            false,
	"ocr_command":                  "",
	"ocr_timeout_sec":              30.0,
	"legacy_encoding":              "shift_jis",
	"watch_inbox":                  false,
}

// Load builds Settings from path (DefaultPath when empty). A missing file
// falls back to path+".example", then to defaults alone.
func Load(path string) (*Settings, error) {
	if path == "" {
		path = DefaultPath
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	source, data, err := readFirst(path, path+ExampleSuffix)
	if err != nil {
		return nil, err
	}
	if source != "" {
		if err := ValidateDocument(data); err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", source, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	s.Source = source

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Default returns the built-in settings
func Default() *Settings {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	var s Settings
	// defaults always decode
	_ = v.Unmarshal(&s)
	return &s
}

// WriteFile writes s as an indented settings file, refusing to overwrite.
func (s *Settings) WriteFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func readFirst(paths ...string) (string, []byte, error) {
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err == nil {
			return p, data, nil
		}
		if !os.IsNotExist(err) {
			return "", nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	}
	return "", nil, nil
}

// Validate checks values the schema cannot see, such as settings that came
// from the environment.
func (s *Settings) Validate() error {
	var problems []string
	positive := map[string]float64{
		"poll_interval_sec":            s.PollIntervalSec,
		"response_capture_timeout_sec": s.ResponseTimeoutSec,
		"response_stability_wait_sec":  s.ResponseStabilitySec,
		"response_poll_interval_sec":   s.ResponsePollIntervalSec,
	}
	for key, value := range positive {
		if value <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive", key))
		}
	}
	nonNegative := map[string]float64{
		"maturity_wait_sec":    s.MaturityWaitSec,
		"type_pause_sec":       s.TypePauseSec,
		"pre_submit_delay_sec": s.PreSubmitDelaySec,
		"post_send_wait_sec":   s.PostSendWaitSec,
	}
	for key, value := range nonNegative {
		if value < 0 {
			problems = append(problems, fmt.Sprintf("%s must not be negative", key))
		}
	}
	if s.MinGrowthChars < 1 {
		problems = append(problems, "min_growth_chars must be at least 1")
	}
	if s.InboxDir == "" || s.ProcessedDir == "" {
		problems = append(problems, "inbox_dir and processed_dir are required")
	}

	switch s.SubmitMode {
	case "single", "doubled", "modified":
	default:
		problems = append(problems, fmt.Sprintf("submit_mode %q is not one of single, doubled, modified", s.SubmitMode))
	}
	switch s.InputMethod {
	case "type", "paste":
	default:
		problems = append(problems, fmt.Sprintf("input_method %q is not one of type, paste", s.InputMethod))
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}

// PollInterval is the idle wait between inbox scans
func (s *Settings) PollInterval() time.Duration { return seconds(s.PollIntervalSec) }

// MaturityWait is the gap between the two size samples of a new file
func (s *Settings) MaturityWait() time.Duration { return seconds(s.MaturityWaitSec) }

// CaptureTimeout bounds one response capture
func (s *Settings) CaptureTimeout() time.Duration { return seconds(s.ResponseTimeoutSec) }

func (s *Settings) StabilityWait() time.Duration { return seconds(s.ResponseStabilitySec) }

func (s *Settings) ResponsePollInterval() time.Duration { return seconds(s.ResponsePollIntervalSec) }

func (s *Settings) TypePause() time.Duration { return seconds(s.TypePauseSec) }

func (s *Settings) PreSubmitDelay() time.Duration { return seconds(s.PreSubmitDelaySec) }

func (s *Settings) PostSendWait() time.Duration { return seconds(s.PostSendWaitSec) }

func (s *Settings) OCRTimeout() time.Duration { return seconds(s.OCRTimeoutSec) }

// OCREnabled reports whether optical recovery should run after a capture
func (s *Settings) OCREnabled() bool {
	return s.EmbedOCR && strings.TrimSpace(s.OCRCommand) != ""
}

func seconds(f float64) time.Duration {
	return time.Duration(math.Round(f * float64(time.Second)))
}
