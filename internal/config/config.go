// Package config loads the bootctl configuration and builds its logger.
package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	BackendEfivarfs = "efivarfs"
	BackendJSON     = "json"
	BackendFirmware = "firmware"
	BackendMemory   = "memory"

	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"

	envPrefix = "BOOTCTL"
)

type StoreConfig struct {
	Backend      string `yaml:"backend"       mapstructure:"backend"`
	EfivarsPath  string `yaml:"efivars_path"  mapstructure:"efivars_path"`
	JSONFile     string `yaml:"json_file"     mapstructure:"json_file"`
	FirmwareFile string `yaml:"firmware_file" mapstructure:"firmware_file"`
	VirtFwVars   string `yaml:"virt_fw_vars"  mapstructure:"virt_fw_vars"`
}

type Config struct {
	Store     StoreConfig `yaml:"store"      mapstructure:"store"`
	LogLevel  string      `yaml:"log_level"  mapstructure:"log_level"`
	LogFormat string      `yaml:"log_format" mapstructure:"log_format"`
	Output    string      `yaml:"output"     mapstructure:"output"`
	Log       logr.Logger `yaml:"-"          mapstructure:"-"`
}

// Loader wraps a viper instance holding the bootctl settings.
type Loader struct {
	v         *viper.Viper
	logOutput io.Writer
}

func NewLoader() *Loader {
	v := viper.New()

	v.SetConfigName("bootctl")
	v.SetConfigType("yaml")

	v.AddConfigPath("/etc/bootctl/")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "bootctl"))
	}
	v.AddConfigPath(".")

	v.SetDefault("store.backend", BackendEfivarfs)
	v.SetDefault("store.efivars_path", "/sys/firmware/efi/efivars")
	v.SetDefault("store.json_file", "efivars.json")
	v.SetDefault("store.firmware_file", "RPI_EFI.fd")
	v.SetDefault("store.virt_fw_vars", "virt-fw-vars")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("output", OutputText)

	return &Loader{v: v, logOutput: os.Stderr}
}

// SetLogOutput sets the writer the loaded logger writes to.
func (l *Loader) SetLogOutput(w io.Writer) {
	l.logOutput = w
}

// BindFlags binds command line flags to configuration keys. Flags left at
// their defaults do not override the config file or the environment.
func (l *Loader) BindFlags(flags map[string]*pflag.Flag) error {
	for key, flag := range flags {
		if flag == nil {
			continue
		}
		if err := l.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("config: unable to bind flag %s: %w", flag.Name, err)
		}
	}
	return nil
}

// SetConfigFile uses path instead of searching the config directories.
func (l *Loader) SetConfigFile(path string) {
	if path != "" {
		l.v.SetConfigFile(path)
	}
}

// Load reads the config file, if any, applies BOOTCTL_* environment
// overrides and returns the resulting Config with its logger.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: unable to read config file: %w", err)
		}
	}

	for _, key := range l.v.AllKeys() {
		envKey := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := l.v.BindEnv(key, envKey); err != nil {
			return nil, fmt.Errorf("config: unable to bind env: %w", err)
		}
	}

	conf := &Config{}
	if err := l.v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("config: unable to decode: %w", err)
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	conf.Log = NewLogger(l.logOutput, conf.LogLevel, conf.LogFormat)

	return conf, nil
}

// ConfigFileUsed returns the path of the config file read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendEfivarfs, BackendJSON, BackendFirmware, BackendMemory:
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}

	switch c.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("config: unknown output format %q", c.Output)
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("config: unknown log format %q", c.LogFormat)
	}

	return nil
}

// NewLogger returns a logr.Logger writing to w. format "text" selects the
// stdr logger, anything else the slog JSON handler.
func NewLogger(w io.Writer, level, format string) logr.Logger {
	if format == "text" {
		if level == "debug" {
			stdr.SetVerbosity(1)
		}
		return stdr.New(log.New(w, "", log.LstdFlags))
	}
	return defaultLogger(w, level)
}

// defaultLogger uses the slog logr implementation.
func defaultLogger(w io.Writer, level string) logr.Logger {
	// source file and function can be long. This makes the logs less readable.
	// truncate source file and function to last 3 parts for improved readability.
	customAttr := func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.SourceKey {
			ss, ok := a.Value.Any().(*slog.Source)
			if !ok || ss == nil {
				return a
			}
			f := strings.Split(ss.Function, "/")
			if len(f) > 3 {
				ss.Function = filepath.Join(f[len(f)-3:]...)
			}
			p := strings.Split(ss.File, "/")
			if len(p) > 3 {
				ss.File = filepath.Join(p[len(p)-3:]...)
			}

			return a
		}

		return a
	}
	opts := &slog.HandlerOptions{AddSource: true, ReplaceAttr: customAttr}
	switch level {
	case "debug":
		opts.Level = slog.LevelDebug
	default:
		opts.Level = slog.LevelInfo
	}
	log := slog.New(slog.NewJSONHandler(w, opts))

	return logr.FromSlogHandler(log.Handler())
}
