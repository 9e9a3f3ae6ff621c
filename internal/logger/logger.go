package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// FieldApp names the program in every entry.
	FieldApp = "app"
	// FieldVersion carries the build version in every entry.
	FieldVersion = "version"
)

// Options controls how the process logger is built.
type Options struct {
	JSON  bool
	Debug bool
	// Name is set as the logger name, e.g. "serve" or "chat".
	Name string
	// Fields are attached to every entry. Empty keys or values are skipped.
	Fields []StringField
}

func New(opts Options) (*zap.Logger, error) {
	logger, err := newConfig(opts).Build()
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	if opts.Name != "" {
		logger = logger.Named(opts.Name)
	}

	return logger, nil
}

func newConfig(opts Options) zap.Config {
	level := zapcore.InfoLevel
	encoding := "console"

	if opts.JSON {
		encoding = "json"
	}

	if opts.Debug {
		level = zapcore.DebugLevel
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "step",
			NameKey:    "logger",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}

	for _, f := range StringFields(opts.Fields...) {
		if cfg.InitialFields == nil {
			cfg.InitialFields = make(map[string]interface{})
		}
		cfg.InitialFields[f.Key] = f.String
	}

	return cfg
}
