package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/indicompute/indicompute/internal/session"
)

const (
	KeyAPIURL         = "api_url"
	KeySessionFile    = "session_file"
	KeyPollInterval   = "poll_interval"
	KeyRedirectDelay  = "redirect_delay"
	KeyRequestTimeout = "request_timeout"
	KeyInsecure       = "insecure"
	KeyLogLevel       = "log_level"
	KeyCurrency       = "currency"

	EnvPrefix      = "INDICOMPUTE"
	ConfigFileName = "config.yaml"
)

const (
	DefaultAPIURL        = "http://127.0.0.1:8000"
	DefaultPollInterval  = 15 * time.Second
	DefaultRedirectDelay = time.Second
	DefaultLogLevel      = "warn"
	DefaultCurrency      = "INR"
)

type CLIConfig struct {
	APIURL         string
	SessionFile    string
	PollInterval   time.Duration
	RedirectDelay  time.Duration
	RequestTimeout time.Duration // zero means no client-side timeout
	Insecure       bool
	LogLevel       string
	Currency       string
}

// New returns a viper instance with defaults and INDICOMPUTE_* environment
// bindings applied. Flags may be bound to it before Load is called.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyAPIURL, DefaultAPIURL)
	v.SetDefault(KeySessionFile, "")
	v.SetDefault(KeyPollInterval, DefaultPollInterval)
	v.SetDefault(KeyRedirectDelay, DefaultRedirectDelay)
	v.SetDefault(KeyRequestTimeout, time.Duration(0))
	v.SetDefault(KeyInsecure, false)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyCurrency, DefaultCurrency)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// DefaultPath returns ~/.indicompute/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, session.DirName, ConfigFileName), nil
}

// Load reads the optional YAML file at path into v and resolves the result.
// An explicit path must exist; the default path may be absent.
func Load(v *viper.Viper, path string) (*CLIConfig, error) {
	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil || explicit {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrapf(err, "reading config %s", path)
			}
		}
	}

	cfg := &CLIConfig{
		APIURL:         strings.TrimRight(v.GetString(KeyAPIURL), "/"),
		SessionFile:    v.GetString(KeySessionFile),
		PollInterval:   v.GetDuration(KeyPollInterval),
		RedirectDelay:  v.GetDuration(KeyRedirectDelay),
		RequestTimeout: v.GetDuration(KeyRequestTimeout),
		Insecure:       v.GetBool(KeyInsecure),
		LogLevel:       v.GetString(KeyLogLevel),
		Currency:       v.GetString(KeyCurrency),
	}

	if cfg.SessionFile == "" {
		p, err := session.DefaultPath()
		if err != nil {
			return nil, errors.Wrap(err, "resolving session file")
		}
		cfg.SessionFile = p
	}

	return cfg, cfg.Validate()
}

func (c *CLIConfig) Validate() error {
	if c.APIURL == "" {
		return errors.New("api_url is required")
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return errors.Errorf("api_url %q must start with http:// or https://", c.APIURL)
	}
	if c.PollInterval <= 0 {
		return errors.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.RedirectDelay < 0 {
		return errors.Errorf("redirect_delay must not be negative, got %s", c.RedirectDelay)
	}
	if c.RequestTimeout < 0 {
		return errors.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout)
	}
	return nil
}
