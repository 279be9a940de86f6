package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with the frame host's component naming.
type Logger struct {
	*zap.Logger
}

// Config defines logger configuration.
type Config struct {
	Level       string // "debug", "info", "warn", "error"
	Development bool
	OutputPaths []string
	// Fields are attached to every entry, e.g. service and build version.
	Fields map[string]string
}

// DefaultConfig returns production-ready logger configuration.
func DefaultConfig() Config {
	return Config{Level: "info", OutputPaths: []string{"stdout"}}
}

// DevelopmentConfig returns development logger configuration.
func DevelopmentConfig() Config {
	return Config{Level: "debug", Development: true, OutputPaths: []string{"stdout"}}
}

// New creates a logger. Production output is sampled JSON; development
// output is colored console text with stack traces on warnings.
func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapCfg.EncoderConfig.TimeKey = "timestamp"
		zapCfg.EncoderConfig.MessageKey = "message"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if len(cfg.OutputPaths) > 0 {
		zapCfg.OutputPaths = cfg.OutputPaths
	}
	if len(cfg.Fields) > 0 {
		zapCfg.InitialFields = make(map[string]any, len(cfg.Fields))
		for k, v := range cfg.Fields {
			zapCfg.InitialFields[k] = v
		}
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: logger}, nil
}

// NewDefault creates a logger with default configuration.
func NewDefault() *Logger {
	return mustOrNop(New(DefaultConfig()))
}

// NewDevelopment creates a logger with development configuration.
func NewDevelopment() *Logger {
	return mustOrNop(New(DevelopmentConfig()))
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

func mustOrNop(l *Logger, err error) *Logger {
	if err != nil {
		return NewNop()
	}
	return l
}

// Component returns a child logger tagged with the component name, e.g.
// "bootstrap" or "sandbox".
func (l *Logger) Component(name string) *zap.Logger {
	return l.Named(name).With(zap.String("component", name))
}
