package taskqueue

import (
	"maps"

	"github.com/ThreeDotsLabs/watermill"
)

const queueModule = "QUEUE"

// watermillLogger sends watermill's router and pub/sub logs through the
// application logger. Trace is logged at debug level.
type watermillLogger struct {
	logger Logger
	fields watermill.LogFields
}

func newWatermillLogger(logger Logger) watermill.LoggerAdapter {
	return &watermillLogger{logger: logger}
}

func (w *watermillLogger) details(fields watermill.LogFields) map[string]interface{} {
	out := make(map[string]interface{}, len(w.fields)+len(fields))
	maps.Copy(out, w.fields)
	maps.Copy(out, fields)
	return out
}

func (w *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	details := w.details(fields)
	if err != nil {
		details["error"] = err.Error()
	}
	w.logger.Error(queueModule, msg, details)
}

func (w *watermillLogger) Info(msg string, fields watermill.LogFields) {
	w.logger.Info(queueModule, msg, w.details(fields))
}

func (w *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	w.logger.Debug(queueModule, msg, w.details(fields))
}

func (w *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	w.logger.Debug(queueModule, msg, w.details(fields))
}

func (w *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{logger: w.logger, fields: w.details(fields)}
}
