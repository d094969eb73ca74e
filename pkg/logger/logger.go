package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger for the given environment:
// JSON lines in production, human readable text everywhere else.
func Setup(env, level string) *logrus.Logger {
	return configure(logrus.StandardLogger(), os.Stdout, env, level)
}

func configure(l *logrus.Logger, out io.Writer, env, level string) *logrus.Logger {
	l.SetOutput(out)

	switch env {
	case "production", "staging":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		l.WithField("level", level).Warn("unknown LOG_LEVEL, falling back to info")
	}
	l.SetLevel(lvl)

	return l
}
