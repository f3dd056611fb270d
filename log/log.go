package log

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

type Logger interface {
	Print(...interface{})
	Printf(string, ...interface{})
	Debugf(string, ...interface{})
	Error(...interface{})
	Errorf(string, ...interface{})
	Fatal(...interface{})
	Fatalf(string, ...interface{})

	WithField(key string, value interface{}) Logger
}

type logger struct {
	*logrus.Entry
}

// New returns a logger writing to stderr. In prod, entries are JSON at info
// level; anywhere else they are text at debug level, colored when stderr is
// a terminal.
func New(env string) Logger {
	return NewWithOutput(env, os.Stderr)
}

func NewWithOutput(env string, out io.Writer) Logger {
	l := logrus.New()
	l.Out = out

	if env == "prod" {
		l.Formatter = &logrus.JSONFormatter{}
		l.Level = logrus.InfoLevel
	} else {
		l.Formatter = &logrus.TextFormatter{
			ForceColors:   isTerminal(out),
			FullTimestamp: true,
		}
		l.Level = logrus.DebugLevel
	}

	return logger{l.WithField("env", env)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (l logger) Print(args ...interface{}) {
	l.Infoln(args...)
}

func (l logger) Printf(format string, args ...interface{}) {
	l.Infof(format, args...)
}

func (l logger) Error(args ...interface{}) {
	l.Errorln(args...)
}

func (l logger) Fatal(args ...interface{}) {
	l.Fatalln(args...)
}

func (l logger) WithField(key string, value interface{}) Logger {
	return logger{l.Entry.WithField(key, value)}
}

// Discard is a logger that drops everything. Useful in tests.
func Discard() Logger {
	return NewWithOutput("test", io.Discard)
}
