// Package config loads the service configuration.
//
// Sources are applied in increasing priority: built-in defaults, the JSON file
// named by CONFIG (or -c), the .env file, environment variables and finally
// command-line flags. The merged result is validated before it is returned.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the full set of service settings.
type Config struct {
	RunAddr         string        `env:"SERVER_ADDRESS" validate:"listenaddr"`
	LogLevel        string        `env:"LOG_LEVEL" validate:"loglevel"`
	Workers         int           `env:"WORKERS" validate:"gte=0"`
	Backlog         int           `env:"BACKLOG" validate:"gte=0"`
	BacklogTimeout  time.Duration `env:"BACKLOG_TIMEOUT" validate:"gte=0"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	ConfigFile      string
}

// jsonConfig mirrors Config in the JSON file; durations are written as "30s".
type jsonConfig struct {
	RunAddr         *string `json:"server_address"`
	LogLevel        *string `json:"log_level"`
	Workers         *int    `json:"workers"`
	Backlog         *int    `json:"backlog"`
	BacklogTimeout  *string `json:"backlog_timeout"`
	ShutdownTimeout *string `json:"shutdown_timeout"`
}

var defaultConfig = Config{
	RunAddr:         "127.0.0.1:8080",
	LogLevel:        "info",
	Workers:         2,
	Backlog:         1024,
	BacklogTimeout:  30 * time.Second,
	ShutdownTimeout: 10 * time.Second,
}

var allowedLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
	"fatal": true,
}

// InitOption configures New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
	dotEnvFiles         []string
}

// WithDisableFlagsParsing skips command-line flags. Tests use it because the
// test binary's own flags are in os.Args.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// WithDotEnvFiles overrides the list of .env files to load.
func WithDotEnvFiles(fileNames ...string) InitOption {
	return func(options *initOptions) {
		options.dotEnvFiles = fileNames
	}
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	return allowedLogLevels[fieldLevel.Field().String()]
}

var hostnamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// validateListenAddr accepts "host:port" with an empty host, an IP or a
// hostname. Unlike hostname_port it allows port 0, which asks the OS for a
// free port.
func validateListenAddr(fieldLevel validator.FieldLevel) bool {
	host, port, err := net.SplitHostPort(fieldLevel.Field().String())
	if err != nil {
		return false
	}

	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return false
	}

	return host == "" || net.ParseIP(host) != nil || hostnamePattern.MatchString(host)
}

func (values *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("listenaddr", validateListenAddr)
	if err != nil {
		return err
	}

	return validate.Struct(values)
}

func (values *Config) loadJSON(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return fmt.Errorf("in internal/config/config.go/loadJSON(): error while `os.ReadFile()` calling: %w", err)
	}

	var fromFile jsonConfig
	if err := json.Unmarshal(data, &fromFile); err != nil {
		return fmt.Errorf("in internal/config/config.go/loadJSON(): error while `json.Unmarshal()` calling: %w", err)
	}

	if fromFile.RunAddr != nil {
		values.RunAddr = *fromFile.RunAddr
	}
	if fromFile.LogLevel != nil {
		values.LogLevel = *fromFile.LogLevel
	}
	if fromFile.Workers != nil {
		values.Workers = *fromFile.Workers
	}
	if fromFile.Backlog != nil {
		values.Backlog = *fromFile.Backlog
	}
	if fromFile.BacklogTimeout != nil {
		values.BacklogTimeout, err = time.ParseDuration(*fromFile.BacklogTimeout)
		if err != nil {
			return fmt.Errorf("in internal/config/config.go/loadJSON(): bad backlog_timeout: %w", err)
		}
	}
	if fromFile.ShutdownTimeout != nil {
		values.ShutdownTimeout, err = time.ParseDuration(*fromFile.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("in internal/config/config.go/loadJSON(): bad shutdown_timeout: %w", err)
		}
	}

	return nil
}

// parseFlags returns the values given on the command line and the names of
// the flags that were actually set.
func parseFlags(arguments []string) (Config, map[string]bool, error) {
	var fromFlags Config
	flags := flag.NewFlagSet("greeter", flag.ContinueOnError)
	flags.StringVar(&fromFlags.RunAddr, "a", defaultConfig.RunAddr, "address and port to run server")
	flags.StringVar(&fromFlags.LogLevel, "l", defaultConfig.LogLevel, "logger level")
	flags.IntVar(&fromFlags.Workers, "w", defaultConfig.Workers, "requests served at once, 0 for unlimited")
	flags.IntVar(&fromFlags.Backlog, "backlog", defaultConfig.Backlog, "requests allowed to wait for a worker")
	flags.DurationVar(&fromFlags.BacklogTimeout, "backlog-timeout", defaultConfig.BacklogTimeout, "how long a request may wait for a worker")
	flags.DurationVar(&fromFlags.ShutdownTimeout, "shutdown-timeout", defaultConfig.ShutdownTimeout, "graceful shutdown timeout")
	flags.StringVar(&fromFlags.ConfigFile, "c", "", "JSON configuration file")

	if err := flags.Parse(arguments); err != nil {
		return Config{}, nil, err
	}

	set := map[string]bool{}
	flags.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	return fromFlags, set, nil
}

func (values *Config) applyFlags(fromFlags Config, set map[string]bool) {
	if set["a"] {
		values.RunAddr = fromFlags.RunAddr
	}
	if set["l"] {
		values.LogLevel = fromFlags.LogLevel
	}
	if set["w"] {
		values.Workers = fromFlags.Workers
	}
	if set["backlog"] {
		values.Backlog = fromFlags.Backlog
	}
	if set["backlog-timeout"] {
		values.BacklogTimeout = fromFlags.BacklogTimeout
	}
	if set["shutdown-timeout"] {
		values.ShutdownTimeout = fromFlags.ShutdownTimeout
	}
}

// New builds the configuration from all sources.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	var (
		fromFlags Config
		setFlags  map[string]bool
		err       error
	)
	if !options.disableFlagsParsing {
		fromFlags, setFlags, err = parseFlags(os.Args[1:])
		if err != nil {
			return nil, err
		}
	}

	err = godotenv.Load(options.dotEnvFiles...)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("in internal/config/config.go/New(): error while `godotenv.Load()` calling: %w", err)
	}

	values := &Config{}
	*values = defaultConfig

	values.ConfigFile = os.Getenv("CONFIG")
	if setFlags["c"] {
		values.ConfigFile = fromFlags.ConfigFile
	}
	if values.ConfigFile != "" {
		if err := values.loadJSON(values.ConfigFile); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(values); err != nil {
		return nil, fmt.Errorf("in internal/config/config.go/New(): error while `env.Parse()` calling: %w", err)
	}

	values.applyFlags(fromFlags, setFlags)

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}
