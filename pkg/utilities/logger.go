package utilities

import (
	"fmt"
	"os"
	"strconv"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level string
	Dev   bool

	// File is a strftime pattern (e.g. logs/task.%Y%m%d.log). Empty disables file output.
	File         string
	MaxAge       time.Duration
	RotationTime time.Duration
}

// ConfigFromEnv reads minimal config from env vars.
func ConfigFromEnv() Config {
	dev := os.Getenv("LOG_DEV") == "1"
	lvl := os.Getenv("LOG_LEVEL")
	if lvl == "" {
		if dev {
			lvl = "debug"
		} else {
			lvl = "info"
		}
	}
	return Config{
		Level:        lvl,
		Dev:          dev,
		File:         os.Getenv("LOG_FILE"),
		MaxAge:       hoursFromEnv("LOG_MAX_AGE_HOURS", 7*24),
		RotationTime: hoursFromEnv("LOG_ROTATION_HOURS", 24),
	}
}

func hoursFromEnv(key string, def int) time.Duration {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return time.Duration(v) * time.Hour
	}
	return time.Duration(def) * time.Hour
}

func levelFromString(l string) zapcore.Level {
	switch l {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Init initializes and returns a *zap.Logger
func Init(cfg Config) (*zap.Logger, error) {
	lvl := levelFromString(cfg.Level)

	var encoder zapcore.Encoder
	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Dev {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		opts = append(opts, zap.Development())
	} else {
		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), lvl)}
	if cfg.File != "" {
		w, err := rotatingWriter(cfg)
		if err != nil {
			return nil, err
		}
		// file output is always JSON so it can be shipped as-is
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(w), lvl))
	}
	return zap.New(zapcore.NewTee(cores...), opts...), nil
}

func rotatingWriter(cfg Config) (*rotatelogs.RotateLogs, error) {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	rotation := cfg.RotationTime
	if rotation <= 0 {
		rotation = 24 * time.Hour
	}
	w, err := rotatelogs.New(cfg.File,
		rotatelogs.WithMaxAge(maxAge),
		rotatelogs.WithRotationTime(rotation),
	)
	if err != nil {
		return nil, fmt.Errorf("open log file %q: %w", cfg.File, err)
	}
	return w, nil
}
