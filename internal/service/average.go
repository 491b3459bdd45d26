package service

import (
	"math"
	"sort"

	"github.com/yourname/ringchallenge/internal"
)

// MetricValue extracts one metric from a canonical record, nil when that
// record has no data for the metric. Absence is distinct from zero
// throughout the averaging path.
type MetricValue func(internal.DailySleep) *float64

// PeriodAverage averages one metric over a window of records.
//
// With expectedDays <= 0 it is the plain arithmetic mean of the known
// values. With expectedDays > count it fills each missing day with the
// median of the known values before averaging, which keeps a two-day sample
// early in a challenge from swinging the whole period. The result is rounded
// to the nearest integer unless the metric is a fractional unit. nil means
// no data at all.
//
// dataPoints is the number of records considered, not the number of
// non-absent values; callers use it for "insufficient data" messaging.
func PeriodAverage(records []internal.DailySleep, metric MetricValue, expectedDays int, fractional bool) (avg *float64, dataPoints int) {
	dataPoints = len(records)

	var values []float64
	for _, r := range records {
		if v := metric(r); v != nil {
			values = append(values, *v)
		}
	}
	if len(values) == 0 {
		return nil, dataPoints
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	var result float64
	if expectedDays > 0 && len(values) < expectedDays {
		med := median(values)
		missing := float64(expectedDays - len(values))
		result = (sum + med*missing) / float64(expectedDays)
	} else {
		result = sum / float64(len(values))
	}

	if !fractional {
		result = math.Round(result)
	}
	return &result, dataPoints
}

// median of a non-empty sequence: middle element when odd, mean of the two
// middle elements when even.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
