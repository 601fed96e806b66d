// Package logging builds the process loggers: a logrus logger for the
// application and an hclog logger for the raft library, sharing one output
// and level.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/sirupsen/logrus"
)

// New returns a logrus logger writing to out. format is "json" or "text".
func New(level, format string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("log format %q: must be json or text", format)
	}
	return log, nil
}

// Raft returns an hclog logger for hashicorp/raft matching log's level and
// output.
func Raft(log *logrus.Logger) hclog.Logger {
	_, isJSON := log.Formatter.(*logrus.JSONFormatter)
	return hclog.New(&hclog.LoggerOptions{
		Name:       "raft",
		Level:      hclogLevel(log.GetLevel()),
		Output:     log.Out,
		JSONFormat: isJSON,
	})
}

func hclogLevel(l logrus.Level) hclog.Level {
	switch l {
	case logrus.TraceLevel:
		return hclog.Trace
	case logrus.DebugLevel:
		return hclog.Debug
	case logrus.InfoLevel:
		return hclog.Info
	case logrus.WarnLevel:
		return hclog.Warn
	default:
		return hclog.Error
	}
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
