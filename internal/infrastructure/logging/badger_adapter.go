package logging

import (
	"fmt"
	"strings"
)

// BadgerLoggerAdapter routes BadgerDB's printf-style logging into the
// structured logger. It satisfies badger.Logger.
type BadgerLoggerAdapter struct {
	logger Logger
}

// NewBadgerLoggerAdapter wraps logger; nil means the default logger
func NewBadgerLoggerAdapter(logger Logger) *BadgerLoggerAdapter {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return &BadgerLoggerAdapter{logger: logger}
}

func badgerMessage(format string, args ...interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}

// Errorf logs at ERROR
func (b *BadgerLoggerAdapter) Errorf(format string, args ...interface{}) {
	b.logger.Error(badgerMessage(format, args...), "source", "badger")
}

// Warningf logs at WARN
func (b *BadgerLoggerAdapter) Warningf(format string, args ...interface{}) {
	b.logger.Warn(badgerMessage(format, args...), "source", "badger")
}

// Infof is demoted to DEBUG; badger is chatty about compactions
func (b *BadgerLoggerAdapter) Infof(format string, args ...interface{}) {
	b.logger.Debug(badgerMessage(format, args...), "source", "badger")
}

// Debugf logs at DEBUG
func (b *BadgerLoggerAdapter) Debugf(format string, args ...interface{}) {
	b.logger.Debug(badgerMessage(format, args...), "source", "badger", "level", "trace")
}
