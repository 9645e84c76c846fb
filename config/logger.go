package config

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Logger configures logging.
type Logger struct {
	// Level is a logrus level name such as "debug" or "warn".
	Level string `validate:"oneof=trace debug info warn warning error fatal panic"`
	// Format is "text" or "json".
	Format string `validate:"oneof=text json"`
	// Output is "stdout" or "stderr".
	Output string `validate:"oneof=stdout stderr"`
}

func getLoggerConfig(v *viper.Viper) *Logger {
	return &Logger{
		Level:  v.GetString("logger.level"),
		Format: v.GetString("logger.format"),
		Output: v.GetString("logger.output"),
	}
}

// NewLogger creates a logger as configured.
func (c *Logger) NewLogger() (*logrus.Logger, error) {
	l := logrus.New()
	if err := c.Apply(l); err != nil {
		return nil, err
	}
	return l, nil
}

// Apply configures an existing logger, e.g. after the configuration reloads.
func (c *Logger) Apply(l *logrus.Logger) error {
	lvl, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return errors.Wrap(err, "logger level")
	}
	l.SetLevel(lvl)

	switch c.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{})
	}

	var out io.Writer = os.Stderr
	if c.Output == "stdout" {
		out = os.Stdout
	}
	l.SetOutput(out)
	return nil
}
