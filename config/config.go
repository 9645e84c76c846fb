// Package config loads settings for the uncertainty command and server.
package config

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/zephyrtronium/uncertainty"
)

// EnvPrefix prefixes environment variables that override configuration, e.g.
// UNCERTAINTY_SERVER_PORT.
const EnvPrefix = "UNCERTAINTY"

// Config is the complete configuration.
type Config struct {
	// Precision is the number of mantissa bits used in evaluation.
	Precision uint     `validate:"gte=2,lte=4096"`
	Server    *Server  `validate:"required"`
	Logger    *Logger  `validate:"required"`
	Builder   *Builder `validate:"required"`
	// File is the configuration file that was read, if any.
	File string `validate:"-"`
}

// Server configures the HTTP API.
type Server struct {
	Host string `validate:"omitempty,hostname|ip"`
	Port int    `validate:"gte=0,lte=65535"`
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Builder configures uncertainty derivation.
type Builder struct {
	SignedSingleTerm bool
}

// Options returns the builder options the configuration selects.
func (b *Builder) Options() []uncertainty.BuilderOption {
	if b.SignedSingleTerm {
		return []uncertainty.BuilderOption{uncertainty.WithSignedSingleTerm()}
	}
	return nil
}

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("precision", 64)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.output", "stderr")
	v.SetDefault("builder.signed_single_term", false)
}

func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config %s", path)
		}
		return v, nil
	}
	v.SetConfigName("uncertainty")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".uncertainty"))
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, errors.Wrap(err, "reading config")
		}
	}
	return v, nil
}

// Load reads configuration from path, or from uncertainty.yaml in the working
// directory or ~/.uncertainty if path is empty. A missing file is not an
// error when path is empty. Environment variables override file values.
func Load(path string) (*Config, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	prec := v.GetInt("precision")
	if prec < 0 {
		return nil, errors.Errorf("precision must be positive, not %d", prec)
	}
	cfg := &Config{
		Precision: uint(prec),
		Server: &Server{
			Host: v.GetString("server.host"),
			Port: v.GetInt("server.port"),
		},
		Logger:  getLoggerConfig(v),
		Builder: &Builder{SignedSingleTerm: v.GetBool("builder.signed_single_term")},
		File:    v.ConfigFileUsed(),
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

// Watcher reloads a configuration file when it changes.
type Watcher struct {
	mu  sync.Mutex
	v   *viper.Viper
	cfg *Config
}

// Watch loads configuration like Load and calls callback with the new
// configuration whenever the file changes. Invalid changes are reported to
// onError and otherwise ignored. Watching requires a configuration file.
func Watch(path string, callback func(*Config), onError func(error)) (*Watcher, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if cfg.File == "" {
		return nil, errors.New("no config file to watch")
	}
	w := &Watcher{v: v, cfg: cfg}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		w.mu.Lock()
		cfg, err := decode(v)
		if err == nil {
			w.cfg = cfg
		}
		w.mu.Unlock()
		if err != nil {
			if onError != nil {
				onError(errors.WithMessagef(err, "reloading %s", e.Name))
			}
			return
		}
		callback(cfg)
	})
	v.WatchConfig()
	return w, nil
}

// Config returns the most recently loaded valid configuration.
func (w *Watcher) Config() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}
