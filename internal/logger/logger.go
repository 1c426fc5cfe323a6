/**
 * @description
 * Structured logger for the catalog backend.
 * Ensures info messages go to stdout (not stderr) so log collectors don't label them as errors.
 *
 * @dependencies
 * - go.uber.org/zap
 */

package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.RWMutex
	base *zap.SugaredLogger
)

func init() {
	base = build("development")
}

// Init rebuilds the global logger for the given environment.
// "production" switches to the JSON encoder; anything else uses the console encoder.
func Init(env string) {
	l := build(env)
	mu.Lock()
	old := base
	base = l
	mu.Unlock()
	_ = old.Sync()
}

// SetNop silences all output. Used by tests.
func SetNop() {
	mu.Lock()
	base = zap.NewNop().Sugar()
	mu.Unlock()
}

func build(env string) *zap.SugaredLogger {
	var encCfg zapcore.EncoderConfig
	var encoder zapcore.Encoder
	minLevel := zapcore.DebugLevel

	switch strings.ToLower(env) {
	case "prod", "production":
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
		minLevel = zapcore.InfoLevel
	default:
		encCfg = zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	// Info and below go to stdout, warnings and errors to stderr
	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= minLevel && l < zapcore.WarnLevel })
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= zapcore.WarnLevel })

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), low),
		zapcore.NewCore(encoder.Clone(), zapcore.Lock(os.Stderr), high),
	)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Debug logs a debug message to stdout
func Debug(format string, v ...interface{}) {
	get().Debugf(format, v...)
}

// Info logs an info message to stdout
func Info(format string, v ...interface{}) {
	get().Infof(format, v...)
}

// Warn logs a warning to stderr
func Warn(format string, v ...interface{}) {
	get().Warnf(format, v...)
}

// Error logs an error message to stderr
func Error(format string, v ...interface{}) {
	get().Errorf(format, v...)
}

// Fatal logs an error and exits
func Fatal(format string, v ...interface{}) {
	get().Fatalf(format, v...)
}

// With returns a logger carrying the given key/value pairs on every entry.
func With(keysAndValues ...interface{}) *zap.SugaredLogger {
	return get().Desugar().WithOptions(zap.AddCallerSkip(-1)).Sugar().With(keysAndValues...)
}

// Sync flushes buffered entries.
func Sync() {
	_ = get().Sync()
}
