// Copyright (c) 2024 RoseLoverX

package bale

import (
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/amarnathcjd/balegram/internal/transport"
	"github.com/amarnathcjd/balegram/internal/utils"
)

// Environment variables read by ConfigFromEnv and LoadConfigFile.
const (
	EnvToken         = "BALE_TOKEN"
	EnvBaseURL       = "BALE_BASE_URL"
	EnvDatabaseName  = "BALE_DATABASE_NAME"
	EnvLogLevel      = "BALE_LOG_LEVEL"
	EnvAutoLogStart  = "BALE_AUTO_LOG_START"
	EnvDebug         = "BALE_DEBUG"
	EnvProxy         = "BALE_PROXY"
	EnvPersistOffset = "BALE_PERSIST_OFFSET"
)

// fileConfig is the YAML shape of a ClientConfig. Durations are seconds.
type fileConfig struct {
	Token                 string `yaml:"token"`
	BaseURL               string `yaml:"base_url"`
	DatabaseName          string `yaml:"database_name"`
	PersistOffset         bool   `yaml:"persist_offset"`
	AutoLogStartMessage   bool   `yaml:"auto_log_start_message"`
	Debug                 bool   `yaml:"debug"`
	LogLevel              string `yaml:"log_level"`
	PollTimeout           int    `yaml:"poll_timeout"`
	PollLimit             int    `yaml:"poll_limit"`
	RequestTimeout        int    `yaml:"request_timeout"`
	ShutdownGrace         int    `yaml:"shutdown_grace"`
	MaxConcurrentHandlers int    `yaml:"max_concurrent_handlers"`
	Proxy                 string `yaml:"proxy"`
}

// ConfigFromEnv builds a config from the process environment, after loading
// the given dotenv files (".env" when none are named). Missing files are
// not an error.
func ConfigFromEnv(files ...string) (ClientConfig, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ClientConfig{}, errors.Wrap(err, "loading dotenv")
	}
	var c ClientConfig
	if err := applyEnv(&c); err != nil {
		return ClientConfig{}, err
	}
	return c, nil
}

// LoadConfigFile reads a YAML config. Environment variables that are set
// take precedence over the file.
func LoadConfigFile(path string) (ClientConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ClientConfig{}, errors.Wrap(err, "reading config file")
	}
	var fc fileConfig
	if err := yaml.UnmarshalStrict(raw, &fc); err != nil {
		return ClientConfig{}, errors.Wrapf(err, "parsing %s", path)
	}

	c := ClientConfig{
		Token:                 fc.Token,
		BaseURL:               fc.BaseURL,
		DatabaseName:          fc.DatabaseName,
		PersistOffset:         fc.PersistOffset,
		AutoLogStartMessage:   fc.AutoLogStartMessage,
		Debug:                 fc.Debug,
		PollTimeout:           seconds(fc.PollTimeout),
		PollLimit:             fc.PollLimit,
		RequestTimeout:        seconds(fc.RequestTimeout),
		ShutdownGrace:         seconds(fc.ShutdownGrace),
		MaxConcurrentHandlers: fc.MaxConcurrentHandlers,
	}
	if fc.LogLevel != "" {
		c.LogLevel = ParseLogLevel(fc.LogLevel)
	}
	if c.Proxy, err = transport.ParseProxy(fc.Proxy); err != nil {
		return ClientConfig{}, err
	}
	if err := applyEnv(&c); err != nil {
		return ClientConfig{}, err
	}
	return c, nil
}

func applyEnv(c *ClientConfig) error {
	if v, ok := os.LookupEnv(EnvToken); ok {
		c.Token = v
	}
	if v, ok := os.LookupEnv(EnvBaseURL); ok {
		c.BaseURL = v
	}
	if v, ok := os.LookupEnv(EnvDatabaseName); ok {
		c.DatabaseName = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.LogLevel = ParseLogLevel(v)
	}
	if v, ok := os.LookupEnv(EnvAutoLogStart); ok {
		c.AutoLogStartMessage = parseBool(v)
	}
	if v, ok := os.LookupEnv(EnvDebug); ok {
		c.Debug = parseBool(v)
	}
	if v, ok := os.LookupEnv(EnvPersistOffset); ok {
		c.PersistOffset = parseBool(v)
	}
	if v, ok := os.LookupEnv(EnvProxy); ok {
		p, err := transport.ParseProxy(v)
		if err != nil {
			return errors.Wrap(err, EnvProxy)
		}
		c.Proxy = p
	}
	return nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// ParseLogLevel accepts debug, info, warn, error and disable (and a few
// aliases); anything else is info.
func ParseLogLevel(s string) LogLevel {
	return utils.ParseLevel(s)
}
