// Package config defines the data structures related to configuration and
// includes functions for loading, validating and printing it.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/iwvelando/cpi-calculator/pkg/constants"
	"github.com/iwvelando/cpi-calculator/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for cpi-calculator.
type Configuration struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	HTTP    HTTPConfig    `mapstructure:"http" yaml:"http"`
	Sources SourcesConfig `mapstructure:"sources" yaml:"sources"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds CLI output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv, json
}

// ServerConfig defines runtime parameters for the HTTP server.
type ServerConfig struct {
	Address          string `mapstructure:"address" yaml:"address"`
	MaxRequestSize   string `mapstructure:"maxRequestSize" yaml:"maxRequestSize"`
	requestSizeBytes int64
}

// HTTPConfig controls requests made to the statistics providers.
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent string        `mapstructure:"userAgent" yaml:"userAgent"`
}

// SourcesConfig holds the endpoint settings of every statistics provider.
type SourcesConfig struct {
	ONS ONSConfig `mapstructure:"ons" yaml:"ons"`
	ECB ECBConfig `mapstructure:"ecb" yaml:"ecb"`
	BLS BLSConfig `mapstructure:"bls" yaml:"bls"`
}

// ONSConfig addresses the Office for National Statistics CPIH dataset.
type ONSConfig struct {
	BaseURL   string `mapstructure:"baseURL" yaml:"baseURL"`
	Dataset   string `mapstructure:"dataset" yaml:"dataset"`
	Edition   string `mapstructure:"edition" yaml:"edition"`
	Geography string `mapstructure:"geography" yaml:"geography"`
	Aggregate string `mapstructure:"aggregate" yaml:"aggregate"`
}

// ECBConfig addresses the European Central Bank HICP series.
type ECBConfig struct {
	BaseURL   string `mapstructure:"baseURL" yaml:"baseURL"`
	SeriesKey string `mapstructure:"seriesKey" yaml:"seriesKey"`
}

// BLSConfig addresses the Bureau of Labor Statistics CPI-U series.
type BLSConfig struct {
	URL             string `mapstructure:"url" yaml:"url"`
	SeriesID        string `mapstructure:"seriesID" yaml:"seriesID"`
	RegistrationKey string `mapstructure:"registrationKey" yaml:"registrationKey,omitempty"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)

	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxRequestSize", fmt.Sprintf("%d", constants.DefaultMaxRequestSizeBytes))

	v.SetDefault("http.timeout", constants.DefaultHTTPTimeout)
	v.SetDefault("http.userAgent", constants.DefaultUserAgent)

	v.SetDefault("sources.ons.baseURL", constants.DefaultONSBaseURL)
	v.SetDefault("sources.ons.dataset", constants.DefaultONSDataset)
	v.SetDefault("sources.ons.edition", constants.DefaultONSEdition)
	v.SetDefault("sources.ons.geography", constants.DefaultONSGeography)
	v.SetDefault("sources.ons.aggregate", constants.DefaultONSAggregate)

	v.SetDefault("sources.ecb.baseURL", constants.DefaultECBBaseURL)
	v.SetDefault("sources.ecb.seriesKey", constants.DefaultECBSeriesKey)

	v.SetDefault("sources.bls.url", constants.DefaultBLSURL)
	v.SetDefault("sources.bls.seriesID", constants.DefaultBLSSeriesID)
	v.SetDefault("sources.bls.registrationKey", "")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the built-in configuration with environment overrides applied.
func Default() (*Configuration, error) {
	return decode(newViper())
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. If the file does not exist, defaults are returned
// without error.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("error reading config file, %s", err)
			}
		} else {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file, %s", err)
			}
		}
	}

	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from an io.Reader.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	if err := configuration.normalize(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

func (c *Configuration) normalize() error {
	if strings.TrimSpace(c.Server.Address) == "" {
		c.Server.Address = constants.DefaultServerAddress
	}

	size, err := ParseSize(c.Server.MaxRequestSize)
	if err != nil {
		return err
	}
	if size <= 0 {
		size = constants.DefaultMaxRequestSizeBytes
	}
	c.Server.requestSizeBytes = size

	c.Sources.ONS.BaseURL = strings.TrimRight(c.Sources.ONS.BaseURL, "/")
	c.Sources.ECB.BaseURL = strings.TrimRight(c.Sources.ECB.BaseURL, "/")
	c.Sources.ECB.SeriesKey = strings.Trim(c.Sources.ECB.SeriesKey, "/")
	return nil
}

// RequestSizeBytes returns the configured request body limit in bytes.
func (s ServerConfig) RequestSizeBytes() int64 {
	if s.requestSizeBytes <= 0 {
		return constants.DefaultMaxRequestSizeBytes
	}
	return s.requestSizeBytes
}

// SetRequestSizeBytes overrides the configured request body limit.
func (s *ServerConfig) SetRequestSizeBytes(size int64) {
	if size > 0 {
		s.requestSizeBytes = size
		s.MaxRequestSize = fmt.Sprintf("%d", size)
	}
}

// Validate returns an error describing every setting that cannot work.
func (c *Configuration) Validate() error {
	var problems []string

	if _, err := ParseLevel(c.Logging.Level); err != nil {
		problems = append(problems, err.Error())
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format: %s", c.Logging.Format))
	}
	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if c.HTTP.Timeout < 0 {
		problems = append(problems, fmt.Sprintf("http.timeout must not be negative, got %s", c.HTTP.Timeout))
	}

	for name, endpoint := range c.endpoints() {
		if err := validation.ValidateEndpoint(name, endpoint); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if c.Sources.ECB.SeriesKey == "" {
		problems = append(problems, "sources.ecb.seriesKey must not be empty")
	}
	if c.Sources.BLS.SeriesID == "" {
		problems = append(problems, "sources.bls.seriesID must not be empty")
	}
	if c.Sources.ONS.Dataset == "" || c.Sources.ONS.Edition == "" {
		problems = append(problems, "sources.ons.dataset and sources.ons.edition must not be empty")
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if c.HTTP.Timeout == 0 {
		warnings = append(warnings, "http.timeout is 0: upstream requests may hang indefinitely")
	}
	if c.Sources.BLS.RegistrationKey == "" {
		warnings = append(warnings, "sources.bls.registrationKey is empty: BLS requests are subject to the unregistered daily limit")
	}
	for name, endpoint := range c.endpoints() {
		if w := validation.InsecureEndpointWarning(name, endpoint); w != "" {
			warnings = append(warnings, w)
		}
	}

	sort.Strings(warnings)
	return warnings
}

func (c *Configuration) endpoints() map[string]string {
	return map[string]string{
		"sources.ons.baseURL": c.Sources.ONS.BaseURL,
		"sources.ecb.baseURL": c.Sources.ECB.BaseURL,
		"sources.bls.url":     c.Sources.BLS.URL,
	}
}
