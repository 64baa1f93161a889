// Package config loads tool-wide settings from an optional config
// file, with environment-variable overrides under the "PYOPACK_"
// prefix.
package config

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/datawire/dlib/dlog"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// IndexConfig points at a PEP 503 "simple" package index.
type IndexConfig struct {
	URL string `mapstructure:"url"`
}

type CompileConfig struct {
	// Python is the interpreter executable used for bytecode
	// compilation.
	Python string `mapstructure:"python"`

	// CacheSize bounds the in-process bytecode cache, in entries.
	CacheSize int `mapstructure:"cache_size"`
}

type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Index   IndexConfig   `mapstructure:"index"`
	Compile CompileConfig `mapstructure:"compile"`
}

// Load reads "pyopack.yaml" from dir (or the current directory when
// dir is empty); a missing file is not an error, the defaults and
// environment apply on their own.
func Load(ctx context.Context, dir string) (*Config, error) {
	v := viper.New()
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("index.url", "https://pypi.org/simple/")
	v.SetDefault("compile.python", "python3")
	v.SetDefault("compile.cache_size", 4096)

	v.SetConfigName("pyopack")
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	} else {
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("pyopack")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, err
		}
		dlog.Debugln(ctx, "no config file, using defaults and environment")
	} else {
		dlog.Debugf(ctx, "loaded config file %q", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Logger builds a dlog logger honoring the configured level, for
// installation on the command context with dlog.WithLogger.
func (c *Config) Logger(w io.Writer) dlog.Logger {
	log := logrus.New()
	log.SetOutput(w)
	switch c.Logging.Level {
	case LogLevelDebug:
		log.SetLevel(logrus.DebugLevel)
	case LogLevelWarn:
		log.SetLevel(logrus.WarnLevel)
	case LogLevelError:
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
	return dlog.WrapLogrus(log)
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Logging, validation.By(func(value interface{}) error {
			lc, ok := value.(LoggingConfig)
			if !ok {
				return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
			}
			return validation.ValidateStruct(&lc,
				validation.Field(&lc.Level,
					validation.Required,
					validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
				),
			)
		})),
		validation.Field(&c.Index, validation.By(func(value interface{}) error {
			ic, ok := value.(IndexConfig)
			if !ok {
				return validation.NewError("validation_invalid_type", "must be an IndexConfig")
			}
			return validation.ValidateStruct(&ic,
				validation.Field(&ic.URL,
					validation.Required,
					validation.By(validateIndexURL),
				),
			)
		})),
		validation.Field(&c.Compile, validation.By(func(value interface{}) error {
			cc, ok := value.(CompileConfig)
			if !ok {
				return validation.NewError("validation_invalid_type", "must be a CompileConfig")
			}
			return validation.ValidateStruct(&cc,
				validation.Field(&cc.Python, validation.Required),
				validation.Field(&cc.CacheSize, validation.Min(0)),
			)
		})),
	)
}

func validateIndexURL(value interface{}) error {
	str, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}
	parsed, err := url.Parse(str)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}
	if parsed.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}
	return nil
}
