// Package logger provides structured logging for the genesis credential issuer.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	defaultLogDir  = "logs"
	defaultFilePfx = "genesis-issuer"
	logFilePerm    = 0644
	logDirPerm     = 0755
)

// Logger embeds *logrus.Logger so every logrus method (WithField, Infof,
// WithError, ...) is available directly on the value every package here is
// constructed with.
type Logger struct {
	*logrus.Logger
}

// LoggingConfig is the environment-supplied shape of logging knobs: level,
// wire format, output sink, and (when Output is "file") the log file's name
// prefix under ./logs.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePrefix string `mapstructure:"file_prefix"`
}

// New builds a Logger from cfg. An unparseable Level falls back to Info
// rather than failing construction; an unrecognized Format or Output falls
// back to text/stdout respectively.
func New(cfg LoggingConfig) *Logger {
	base := logrus.New()
	base.SetLevel(resolveLevel(cfg.Level))
	base.SetFormatter(resolveFormatter(cfg.Format))
	base.SetOutput(resolveOutput(base, cfg))
	return &Logger{Logger: base}
}

// NewDefault builds a Logger at Info level, text format, writing to stdout.
// name is accepted for call-site symmetry with the per-component constructors
// elsewhere in this repo but does not currently affect output.
func NewDefault(name string) *Logger {
	return New(LoggingConfig{Level: "info", Format: "text", Output: "stdout"})
}

func resolveLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

func resolveFormatter(format string) logrus.Formatter {
	if strings.EqualFold(format, "json") {
		return &logrus.JSONFormatter{}
	}
	return &logrus.TextFormatter{FullTimestamp: true}
}

// resolveOutput picks the destination writer. Failures opening the log
// directory or file are logged through base itself (still pointed at its
// prior output at this stage) and fall back to stdout-only.
func resolveOutput(base *logrus.Logger, cfg LoggingConfig) io.Writer {
	if !strings.EqualFold(cfg.Output, "file") {
		return os.Stdout
	}

	prefix := cfg.FilePrefix
	if prefix == "" {
		prefix = defaultFilePfx
	}
	if err := os.MkdirAll(defaultLogDir, logDirPerm); err != nil {
		base.Errorf("logger: create log directory %s: %v", defaultLogDir, err)
		return os.Stdout
	}
	path := filepath.Join(defaultLogDir, prefix+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerm)
	if err != nil {
		base.Errorf("logger: open log file %s: %v", path, err)
		return os.Stdout
	}
	return io.MultiWriter(os.Stdout, file)
}
