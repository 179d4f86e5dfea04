// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/iwvelando/mortgage-simulator/internal/mortgage"
	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// Configuration holds all configuration for mortgage-simulator.
type Configuration struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging,omitempty"`
	Simulation SimulationConfig `mapstructure:"simulation" yaml:"simulation"`
	Format     FormatConfig     `mapstructure:"format" yaml:"format"`
	Defaults   DefaultsConfig   `mapstructure:"defaults" yaml:"defaults"`
	Session    SessionConfig    `mapstructure:"session" yaml:"session"`
}

// ServerConfig holds the HTTP listener options.
type ServerConfig struct {
	Address        string   `mapstructure:"address" yaml:"address"`
	MaxBodySize    string   `mapstructure:"maxBodySize" yaml:"maxBodySize"`
	AllowedOrigins []string `mapstructure:"allowedOrigins" yaml:"allowedOrigins"`
	Version        string   `mapstructure:"version" yaml:"version,omitempty"`

	maxBodySizeBytes int64
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// SimulationConfig points at the external simulation service.
type SimulationConfig struct {
	ServiceURL string        `mapstructure:"serviceURL" yaml:"serviceURL"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"` // 0 waits indefinitely
}

// FormatConfig controls how numeric fields are displayed and parsed.
type FormatConfig struct {
	Locale         string  `mapstructure:"locale" yaml:"locale"`
	Currency       string  `mapstructure:"currency" yaml:"currency"`
	SymbolPosition string  `mapstructure:"symbolPosition" yaml:"symbolPosition"` // prefix, suffix
	PercentageMax  float64 `mapstructure:"percentageMax" yaml:"percentageMax"`
}

// DefaultsConfig seeds new sessions and added conditions.
type DefaultsConfig struct {
	General   mortgage.GeneralInput `mapstructure:"general" yaml:"general"`
	Condition mortgage.Condition    `mapstructure:"condition" yaml:"condition"`
}

// SessionConfig selects where session state is kept.
type SessionConfig struct {
	Backend       string        `mapstructure:"backend" yaml:"backend"` // memory, redis
	RedisAddress  string        `mapstructure:"redisAddress" yaml:"redisAddress,omitempty"`
	RedisPassword string        `mapstructure:"redisPassword" yaml:"redisPassword,omitempty"`
	RedisDB       int           `mapstructure:"redisDB" yaml:"redisDB,omitempty"`
	RedisPrefix   string        `mapstructure:"redisPrefix" yaml:"redisPrefix,omitempty"`
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl"`
	SweepSchedule string        `mapstructure:"sweepSchedule" yaml:"sweepSchedule"`
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error reading env file %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxBodySize", fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes))
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("server.version", "")

	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.outputFile", "")

	v.SetDefault("simulation.serviceURL", constants.DefaultSimulationServiceURL)
	v.SetDefault("simulation.timeout", constants.DefaultSimulationTimeout)

	v.SetDefault("format.locale", constants.DefaultLocale)
	v.SetDefault("format.currency", constants.DefaultCurrency)
	v.SetDefault("format.symbolPosition", constants.SymbolPositionSuffix)
	v.SetDefault("format.percentageMax", constants.DefaultPercentageMax)

	general := mortgage.DefaultGeneralInput()
	v.SetDefault("defaults.general.principal", general.Principal)
	v.SetDefault("defaults.general.currentEuribor", general.CurrentReferenceRate)
	v.SetDefault("defaults.general.yearlyVariance", general.YearlyVariance)
	v.SetDefault("defaults.general.yearlyExpenses", general.YearlyExpenses)

	cond := mortgage.DefaultCondition()
	v.SetDefault("defaults.condition.name", cond.Name)
	v.SetDefault("defaults.condition.rate", cond.Rate)
	v.SetDefault("defaults.condition.fixedPeriod", cond.FixedPeriod)
	v.SetDefault("defaults.condition.euriborDelta", cond.EuriborDelta)
	v.SetDefault("defaults.condition.totalYears", cond.TotalYears)
	v.SetDefault("defaults.condition.fixedPeriodBonification", cond.FixedPeriodBonification)
	v.SetDefault("defaults.condition.afterFixedPeriodBonification", cond.AfterFixedPeriodBonification)

	v.SetDefault("session.backend", constants.SessionBackendMemory)
	v.SetDefault("session.redisAddress", "")
	v.SetDefault("session.redisPassword", "")
	v.SetDefault("session.redisDB", 0)
	v.SetDefault("session.redisPrefix", constants.DefaultRedisPrefix)
	v.SetDefault("session.ttl", constants.DefaultSessionTTL)
	v.SetDefault("session.sweepSchedule", constants.DefaultSweepSchedule)
}

// LoadConfiguration loads the YAML configuration at configPath on top of the
// built-in defaults. Every key can be overridden from the environment as
// MORTGAGE_<SECTION>_<KEY>, e.g. MORTGAGE_SERVER_ADDRESS. A missing file
// yields the defaults.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file, %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file, %w", err)
		}
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
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

	size, err := ParseSize(c.Server.MaxBodySize)
	if err != nil {
		return err
	}
	if size <= 0 {
		size = constants.DefaultMaxBodySizeBytes
	}
	c.Server.maxBodySizeBytes = size

	if _, err := c.Format.Tag(); err != nil {
		return err
	}
	if _, err := c.Format.Unit(); err != nil {
		return err
	}
	switch c.Format.SymbolPosition {
	case constants.SymbolPositionPrefix, constants.SymbolPositionSuffix:
	case "":
		c.Format.SymbolPosition = constants.SymbolPositionSuffix
	default:
		return fmt.Errorf("invalid format.symbolPosition %q (expected %s or %s)",
			c.Format.SymbolPosition, constants.SymbolPositionPrefix, constants.SymbolPositionSuffix)
	}
	if c.Format.PercentageMax <= 0 {
		c.Format.PercentageMax = constants.DefaultPercentageMax
	}

	switch c.Session.Backend {
	case constants.SessionBackendMemory:
	case "":
		c.Session.Backend = constants.SessionBackendMemory
	case constants.SessionBackendRedis:
		if strings.TrimSpace(c.Session.RedisAddress) == "" {
			return errors.New("session.redisAddress is required for the redis backend")
		}
	default:
		return fmt.Errorf("invalid session.backend %q (expected %s or %s)",
			c.Session.Backend, constants.SessionBackendMemory, constants.SessionBackendRedis)
	}
	if c.Session.SweepSchedule == "" {
		c.Session.SweepSchedule = constants.DefaultSweepSchedule
	}

	if strings.TrimSpace(c.Simulation.ServiceURL) == "" {
		return errors.New("simulation.serviceURL must not be empty")
	}
	if c.Simulation.Timeout < 0 {
		return fmt.Errorf("simulation.timeout must not be negative, got %s", c.Simulation.Timeout)
	}
	return nil
}

// MaxBodySizeBytes returns the parsed request body limit.
func (s ServerConfig) MaxBodySizeBytes() int64 {
	if s.maxBodySizeBytes <= 0 {
		return constants.DefaultMaxBodySizeBytes
	}
	return s.maxBodySizeBytes
}

// Tag parses the configured locale.
func (f FormatConfig) Tag() (language.Tag, error) {
	tag, err := language.Parse(f.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("invalid format.locale %q: %w", f.Locale, err)
	}
	return tag, nil
}

// Unit parses the configured ISO 4217 currency code.
func (f FormatConfig) Unit() (currency.Unit, error) {
	unit, err := currency.ParseISO(f.Currency)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("invalid format.currency %q: %w", f.Currency, err)
	}
	return unit, nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if c.Simulation.Timeout == 0 {
		warnings = append(warnings, "simulation.timeout is 0: requests wait for the simulation service indefinitely")
	}
	for _, origin := range c.Server.AllowedOrigins {
		if origin == "*" {
			warnings = append(warnings, "server.allowedOrigins permits any origin")
			break
		}
	}
	if c.Session.Backend == constants.SessionBackendMemory && c.Session.TTL <= 0 {
		warnings = append(warnings, "session.ttl is not positive: in-memory sessions are never swept")
	}

	d := c.Defaults.Condition
	if d.FixedPeriod > d.TotalYears {
		warnings = append(warnings, fmt.Sprintf(
			"defaults.condition.fixedPeriod (%d) is longer than defaults.condition.totalYears (%d)",
			d.FixedPeriod, d.TotalYears))
	}
	if limit := c.Format.PercentageMax / constants.PercentageMultiplier; d.Rate > limit || d.EuriborDelta > limit {
		warnings = append(warnings, "defaults.condition rates exceed format.percentageMax and will be clamped when edited")
	}

	return warnings
}
