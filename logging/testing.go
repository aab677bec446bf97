package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// NewTestLogger returns a new logger that outputs Debug+ logs through `tb.Log`.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also saves logs to an in memory observer.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	level := NewAtomicLevelAt(DEBUG)
	testCore := zaptest.NewLogger(tb, zaptest.Level(level.zap)).Core()
	observerCore, observedLogs := observer.New(level.zap)
	return &impl{name: "", level: level, core: zapcore.NewTee(testCore, observerCore)}, observedLogs
}
