package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging interface shared by the calibration packages.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Sublogger returns a logger named "<parent>.<subname>" sharing the parent's outputs and level.
	Sublogger(subname string) Logger
	SetLevel(level Level)
	GetLevel() Level
	AsZap() *zap.SugaredLogger
	Desugar() *zap.Logger
	Sync() error
}

type impl struct {
	name  string
	level AtomicLevel
	core  zapcore.Core
}

func (imp *impl) AsZap() *zap.SugaredLogger {
	return zap.New(imp.core, zap.AddCaller(), zap.AddCallerSkip(1)).Named(imp.name).Sugar()
}

func (imp *impl) Desugar() *zap.Logger {
	return imp.AsZap().Desugar()
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) Sublogger(subname string) Logger {
	newName := subname
	if imp.name != "" {
		newName = fmt.Sprintf("%s.%s", imp.name, subname)
	}
	return &impl{name: newName, level: imp.level, core: imp.core}
}

func (imp *impl) Sync() error {
	return imp.core.Sync()
}

func (imp *impl) Debug(args ...interface{}) {
	imp.AsZap().Debug(args...)
}

func (imp *impl) Debugf(template string, args ...interface{}) {
	imp.AsZap().Debugf(template, args...)
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.AsZap().Debugw(msg, keysAndValues...)
}

func (imp *impl) Info(args ...interface{}) {
	imp.AsZap().Info(args...)
}

func (imp *impl) Infof(template string, args ...interface{}) {
	imp.AsZap().Infof(template, args...)
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.AsZap().Infow(msg, keysAndValues...)
}

func (imp *impl) Warn(args ...interface{}) {
	imp.AsZap().Warn(args...)
}

func (imp *impl) Warnf(template string, args ...interface{}) {
	imp.AsZap().Warnf(template, args...)
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.AsZap().Warnw(msg, keysAndValues...)
}

func (imp *impl) Error(args ...interface{}) {
	imp.AsZap().Error(args...)
}

func (imp *impl) Errorf(template string, args ...interface{}) {
	imp.AsZap().Errorf(template, args...)
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.AsZap().Errorw(msg, keysAndValues...)
}
