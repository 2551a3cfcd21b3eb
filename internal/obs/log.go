package obs

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig controls how the process-wide logger is built.
type LogConfig struct {
	Level   string
	Pretty  bool
	Service string
	Env     string
	Version string
}

// NewLogger builds the shared zap logger. Pretty selects the development
// console encoder, otherwise JSON lines go to stdout.
func NewLogger(c LogConfig) (*zap.Logger, error) {
	var cfg zap.Config
	if c.Pretty {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	level := new(zapcore.Level)
	if err := level.Set(c.Level); err != nil {
		*level = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(*level)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build(
		zap.Fields(
			zap.String("service", c.Service),
			zap.String("env", c.Env),
			zap.String("version", c.Version),
		),
	)
	if err != nil {
		return nil, err
	}
	return logger, nil
}
