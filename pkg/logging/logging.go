// Package logging builds the zerolog loggers used across easycommands.
//
// Every line carries a "category" field so startup output can be scanned the
// same way regardless of the sink:
//
//	log := logging.New(logging.Options{Level: "debug"})
//	syncLog := logging.For(log, logging.Sync)
//	syncLog.Info().Msg("submitting commands")
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Category tags a log line with the part of the startup or runtime it belongs to.
type Category string

const (
	Startup   Category = "startup"
	Listeners Category = "listeners"
	Executors Category = "executors"
	Sync      Category = "sync"
	Dispatch  Category = "dispatch"
	Timing    Category = "timing"
	Config    Category = "config"
)

// CategoryField is the field name categories are written under.
const CategoryField = "category"

// Options configures New.
type Options struct {
	Level string // zerolog level name, defaults to info

	// File enables a rotating JSON log file next to the console output.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Console overrides the console sink (stdout when nil).
	Console io.Writer
	NoColor bool
}

// New returns a logger writing human-readable lines to the console and, when
// Options.File is set, JSON lines to a rotating file.
func New(opts Options) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	out := opts.Console
	noColor := opts.NoColor
	if out == nil {
		out = colorable.NewColorableStdout()
		if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			noColor = true
		}
	}

	console := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    noColor,
		TimeFormat: time.TimeOnly,
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			CategoryField,
			zerolog.MessageFieldName,
		},
		FieldsExclude: []string{CategoryField},
		FormatPartValueByName: func(v interface{}, name string) string {
			if name != CategoryField || v == nil {
				return ""
			}
			s, _ := v.(string)
			return "[" + strings.ToUpper(s) + "]"
		},
	}

	var w io.Writer = console
	if opts.File != "" {
		w = zerolog.MultiLevelWriter(console, fileWriter(opts))
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func fileWriter(opts Options) io.Writer {
	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	return &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    maxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
}

// For returns l with the category field set.
func For(l zerolog.Logger, c Category) zerolog.Logger {
	return l.With().Str(CategoryField, string(c)).Logger()
}
