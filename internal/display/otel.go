package display

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/OCAP2/hologram/internal/display"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type instruments struct {
	calls    metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

// newInstruments falls back to no-op instruments when the meter rejects one.
func newInstruments() instruments {
	mt := meter()
	nop := noop.Meter{}

	var ins instruments
	var err error

	if ins.calls, err = mt.Int64Counter(
		"display.calls",
		metric.WithDescription("Display backend calls"),
	); err != nil {
		ins.calls, _ = nop.Int64Counter("display.calls")
	}
	if ins.failures, err = mt.Int64Counter(
		"display.failures",
		metric.WithDescription("Display backend calls that returned an error"),
	); err != nil {
		ins.failures, _ = nop.Int64Counter("display.failures")
	}
	if ins.duration, err = mt.Float64Histogram(
		"display.call.duration",
		metric.WithDescription("Display backend call latency"),
		metric.WithUnit("ms"),
	); err != nil {
		ins.duration, _ = nop.Float64Histogram("display.call.duration")
	}
	return ins
}
