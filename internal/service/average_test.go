package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourname/ringchallenge/internal"
)

func hrRecords(values ...float64) []internal.DailySleep {
	records := make([]internal.DailySleep, len(values))
	for i, v := range values {
		hr := v
		records[i] = internal.DailySleep{AvgHeartRate: &hr}
	}
	return records
}

func hrMetric(r internal.DailySleep) *float64 { return r.AvgHeartRate }

func TestPeriodAverageSimpleMean(t *testing.T) {
	avg, points := PeriodAverage(hrRecords(60, 62), hrMetric, 0, false)
	assert.Equal(t, 61.0, *avg)
	assert.Equal(t, 2, points)
}

func TestPeriodAverageMedianFill(t *testing.T) {
	// median 60 fills the 5 missing days: (304 + 5*60) / 10 = 60.4 -> 60
	avg, points := PeriodAverage(hrRecords(60, 62, 58, 64, 60), hrMetric, 10, false)
	assert.Equal(t, 60.0, *avg)
	assert.Equal(t, 5, points)
}

func TestPeriodAverageFullSampleIgnoresFill(t *testing.T) {
	// sample already covers the expected days: plain mean
	avg, _ := PeriodAverage(hrRecords(60, 62, 58, 64, 60), hrMetric, 5, false)
	assert.Equal(t, 61.0, *avg)
}

func TestPeriodAverageFractionalMetricKeepsPrecision(t *testing.T) {
	avg, _ := PeriodAverage(hrRecords(60, 61), hrMetric, 0, true)
	assert.Equal(t, 60.5, *avg)
}

func TestPeriodAverageEmptyIsAbsent(t *testing.T) {
	avg, points := PeriodAverage(nil, hrMetric, 10, false)
	assert.Nil(t, avg)
	assert.Equal(t, 0, points)

	// records exist but none carries the metric: absent result, but the
	// record count still reflects what was considered
	records := []internal.DailySleep{{}, {}, {}}
	avg, points = PeriodAverage(records, hrMetric, 10, false)
	assert.Nil(t, avg)
	assert.Equal(t, 3, points)
}

func TestPeriodAverageDataPointsCountRecordsNotValues(t *testing.T) {
	records := hrRecords(60, 62)
	records = append(records, internal.DailySleep{}) // no HR that day
	avg, points := PeriodAverage(records, hrMetric, 0, false)
	assert.Equal(t, 61.0, *avg)
	assert.Equal(t, 3, points)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 60.0, median([]float64{64, 58, 60}))
	assert.Equal(t, 61.0, median([]float64{58, 60, 62, 64}))
	assert.Equal(t, 42.0, median([]float64{42}))
}
