package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type TimeMeasure struct {
	now time.Time
}

func TimeMeasureNow() TimeMeasure {
	return TimeMeasure{now: time.Now()}
}

func (t TimeMeasure) MeasureTime(metric prometheus.Observer) {
	metric.Observe(float64(time.Since(t.now).Microseconds()) / 1000)
}

// MeasureStage observes the elapsed time under the given pipeline stage.
func (t TimeMeasure) MeasureStage(stage string) {
	t.MeasureTime(StageTime.With(prometheus.Labels{"stage": stage}))
}
