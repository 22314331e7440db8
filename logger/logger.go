package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/infieles/reportes/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultTimeFormat = "2006-01-02 15:04:05"

type LoggerService interface {
	Debug(msg string, args ...any)

	Info(msg string, args ...any)

	Warn(msg string, args ...any)

	Error(msg string, args ...any)

	Fatal(msg string, args ...any)

	Named(name string) LoggerService

	// Writer exposes the underlying sink so gin and gorm share it.
	Writer() io.Writer
}

type Options struct {
	Level      string
	File       string
	JSON       bool
	NoColor    bool
	NoTerminal bool
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// OptionsFromConfig picks the logging settings out of the service config.
func OptionsFromConfig(c *config.Config) Options {
	return Options{
		Level:      c.LogLevel,
		File:       c.LogFile,
		JSON:       c.LogJSON,
		NoColor:    c.LogNoColor,
		MaxSize:    c.LogMaxSize,
		MaxBackups: c.LogMaxBackups,
		MaxAge:     c.LogMaxAge,
		Compress:   c.LogCompress,
	}
}

type loggerService struct {
	opts   Options
	name   string
	level  LogLevel
	writer io.Writer
}

type logEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Service   string `json:"service,omitempty"`
	Message   string `json:"message"`
}

func New(name string, opts Options) LoggerService {
	impl := &loggerService{
		opts:  opts,
		name:  name,
		level: Parse(opts.Level),
	}
	impl.setupWriter()
	return impl
}

// NewWithWriter builds a logger writing only to w. Used by tests.
func NewWithWriter(name string, level string, w io.Writer) LoggerService {
	return &loggerService{
		opts:   Options{Level: level, NoColor: true, NoTerminal: true},
		name:   name,
		level:  Parse(level),
		writer: w,
	}
}

func (l *loggerService) setupWriter() {
	var writers []io.Writer

	if !l.opts.NoTerminal {
		writers = append(writers, os.Stdout)
	}

	if l.opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   l.opts.File,
			MaxSize:    l.opts.MaxSize,
			MaxBackups: l.opts.MaxBackups,
			MaxAge:     l.opts.MaxAge,
			Compress:   l.opts.Compress,
		})
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	l.writer = io.MultiWriter(writers...)
}

func (l *loggerService) log(level LogLevel, msg string, args ...any) {
	if level < l.level {
		return
	}

	timestamp := time.Now().Format(defaultTimeFormat)
	formatted := msg
	if len(args) > 0 {
		formatted = fmt.Sprintf(msg, args...)
	}

	if l.opts.JSON {
		entry := logEntry{
			Timestamp: timestamp,
			Level:     level.String(),
			Service:   l.name,
			Message:   formatted,
		}
		b, _ := json.Marshal(entry)
		fmt.Fprintf(l.writer, "%s\n", b)
	} else {
		prefix := fmt.Sprintf("[%s] %-5s", timestamp, level)
		if l.name != "" {
			prefix = fmt.Sprintf("%s [%s]", prefix, l.name)
		}
		if !l.opts.NoTerminal && !l.opts.NoColor {
			fmt.Fprintf(l.writer, "%s%s %s\033[0m\n", Color(level), prefix, formatted)
		} else {
			fmt.Fprintf(l.writer, "%s %s\n", prefix, formatted)
		}
	}

	if level == Fatal {
		os.Exit(1)
	}
}

func (l *loggerService) Debug(msg string, args ...any) { l.log(Debug, msg, args...) }

func (l *loggerService) Info(msg string, args ...any) { l.log(Info, msg, args...) }

func (l *loggerService) Warn(msg string, args ...any) { l.log(Warn, msg, args...) }

func (l *loggerService) Error(msg string, args ...any) { l.log(Error, msg, args...) }

func (l *loggerService) Fatal(msg string, args ...any) { l.log(Fatal, msg, args...) }

func (l *loggerService) Named(name string) LoggerService {
	full := name
	if l.name != "" {
		full = l.name + "/" + name
	}
	return &loggerService{
		opts:   l.opts,
		name:   full,
		level:  l.level,
		writer: l.writer,
	}
}

func (l *loggerService) Writer() io.Writer {
	return l.writer
}
