package messaging

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/sangkips/investify-docs/pkg/logger"
)

// zapAdapter routes watermill's internal logging through the service logger
type zapAdapter struct {
	log *logger.Logger
}

func newLoggerAdapter(log *logger.Logger) watermill.LoggerAdapter {
	return &zapAdapter{log: log}
}

func (a *zapAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Errorw(msg, append(flatten(fields), "error", err)...)
}

func (a *zapAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Infow(msg, flatten(fields)...)
}

func (a *zapAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debugw(msg, flatten(fields)...)
}

func (a *zapAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debugw(msg, flatten(fields)...)
}

func (a *zapAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &zapAdapter{log: a.log.With(flatten(fields)...)}
}

func flatten(fields watermill.LogFields) []interface{} {
	kv := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return kv
}
