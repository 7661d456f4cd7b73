package dicom

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logger is used for non-fatal diagnostics: transfer syntax fallbacks,
// character set fallbacks and similar recoverable conditions. It defaults to
// a nop logger so the package is silent unless a logger is installed.
var logger = zap.NewNop().Sugar()

// SetLogger installs the logger used for package diagnostics. Passing nil
// restores the default nop logger.
func SetLogger(l *zap.SugaredLogger) {
	if l == nil {
		logger = zap.NewNop().Sugar()
		return
	}
	logger = l
}

func normaliseWriters(writers ...zapcore.WriteSyncer) zapcore.WriteSyncer {
	if len(writers) == 1 {
		return writers[0]
	}
	return zapcore.NewMultiWriteSyncer(writers...)
}

// NewJSONLogger creates a *zap.SugaredLogger configured for JSON output to
// writers, suitable for SetLogger.
func NewJSONLogger(writers ...zapcore.WriteSyncer) *zap.SugaredLogger {
	writer := normaliseWriters(writers...)
	encoderCfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), writer, zapcore.DebugLevel)
	return zap.New(core).Sugar()
}

// NewConsoleLogger creates a *zap.SugaredLogger configured for human-readable
// output to writers, suitable for SetLogger.
func NewConsoleLogger(writers ...zapcore.WriteSyncer) *zap.SugaredLogger {
	writer := normaliseWriters(writers...)
	encoderCfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		EncodeLevel:    zapcore.LowercaseColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), writer, zapcore.DebugLevel)
	return zap.New(core).Sugar()
}
