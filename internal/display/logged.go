package display

import (
	"context"
	"time"

	"github.com/OCAP2/hologram/pkg/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// WithLogging wraps a backend so every call is logged at debug level and
// every failure at error level. Calls, failures and latency are also
// recorded as metrics.
func WithLogging(b Backend, logger Logger) Backend {
	return &loggedBackend{next: b, logger: logger, ins: newInstruments()}
}

type loggedBackend struct {
	next   Backend
	logger Logger
	ins    instruments
}

func (l *loggedBackend) observe(op string, h Handle, start time.Time, err error) {
	ctx := context.Background()
	opAttr := metric.WithAttributes(attribute.String("op", op))
	l.ins.calls.Add(ctx, 1, opAttr)
	l.ins.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, opAttr)

	if err != nil {
		l.ins.failures.Add(ctx, 1, opAttr)
		l.logger.Error("display call failed", "op", op, "handle", h, "duration", time.Since(start), "error", err)
		return
	}
	l.logger.Debug("display call complete", "op", op, "handle", h, "duration", time.Since(start))
}

func (l *loggedBackend) Spawn(loc core.Location) (Handle, error) {
	start := time.Now()
	h, err := l.next.Spawn(loc)
	l.observe("spawn", h, start, err)
	return h, err
}

func (l *loggedBackend) Update(h Handle) error {
	start := time.Now()
	err := l.next.Update(h)
	l.observe("update", h, start, err)
	return err
}

func (l *loggedBackend) Kill(h Handle) error {
	start := time.Now()
	err := l.next.Kill(h)
	l.observe("kill", h, start, err)
	return err
}

func (l *loggedBackend) SetText(h Handle, text string) error {
	start := time.Now()
	err := l.next.SetText(h, text)
	l.observe("setText", h, start, err)
	return err
}

func (l *loggedBackend) SetItem(h Handle, item Item) error {
	start := time.Now()
	err := l.next.SetItem(h, item)
	l.observe("setItem", h, start, err)
	return err
}

func (l *loggedBackend) Attach(h Handle, targetID int, persistent bool) error {
	start := time.Now()
	err := l.next.Attach(h, targetID, persistent)
	l.observe("attach", h, start, err)
	return err
}
