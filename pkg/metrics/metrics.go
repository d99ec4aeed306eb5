// Package metrics keeps operational gauges in an embedded time-series
// store under the workdir, for the admin dashboard charts.
package metrics

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
)

var (
	mu      sync.Mutex
	storage tstorage.Storage
)

// InitMetrics opens the time-series store under workdir/metrics.
func InitMetrics(workdir string) error {
	mu.Lock()
	defer mu.Unlock()
	s, err := tstorage.NewStorage(
		tstorage.WithDataPath(filepath.Join(workdir, "metrics")),
		tstorage.WithTimestampPrecision(tstorage.Seconds),
		tstorage.WithRetention(7*24*time.Hour),
	)
	if err != nil {
		return err
	}
	storage = s
	return nil
}

// SetGauge records the current value of a named gauge.
func SetGauge(name string, value int64) {
	mu.Lock()
	s := storage
	mu.Unlock()
	if s == nil {
		return
	}
	_ = s.InsertRows([]tstorage.Row{{
		Metric: name,
		DataPoint: tstorage.DataPoint{
			Timestamp: time.Now().Unix(),
			Value:     float64(value),
		},
	}})
}

// Range returns the stored points for a gauge between start and end
// (unix seconds). A gauge with no points yields an empty slice.
func Range(name string, start, end int64) []*tstorage.DataPoint {
	mu.Lock()
	s := storage
	mu.Unlock()
	if s == nil {
		return nil
	}
	points, err := s.Select(name, nil, start, end)
	if err != nil {
		return nil
	}
	return points
}

// Close flushes and closes the store.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return nil
	}
	err := storage.Close()
	storage = nil
	return err
}
