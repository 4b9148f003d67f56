// Package logging holds the process logger for the hosts (CLI and relay).
// The session core itself never logs.
package logging

import (
	"go.uber.org/zap"
)

var logger = zap.NewNop()

// Init installs the process logger. verbose selects the development config
// with debug level enabled.
func Init(verbose bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if verbose {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// L returns the current logger.
func L() *zap.Logger { return logger }

// Sync flushes buffered log entries.
func Sync() { _ = logger.Sync() }

func Debug(msg string, fields ...zap.Field) { logger.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { logger.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { logger.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { logger.Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { logger.Fatal(msg, fields...) }
