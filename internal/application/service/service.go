package service

import (
	"context"

	"github.com/garyjia/school-payroll/internal/application/port"
	"github.com/garyjia/school-payroll/internal/domain/event"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func orNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}

// publish hands an event to the audit sink without waiting on it. Handlers
// outlive the request, so the caller's cancellation is detached.
func publish(ctx context.Context, p port.EventPublisher, evt *event.Event) {
	if p == nil {
		return
	}
	p.DispatchAsync(context.WithoutCancel(ctx), evt)
}

func actorValue(actorID *int64) interface{} {
	if actorID == nil {
		return "system"
	}
	return *actorID
}
