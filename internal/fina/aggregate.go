package fina

import (
	"errors"
	"io"
	"math"

	"github.com/finakit/finakit/internal/utils"
)

// OutputRow is one output interval's numeric tuple. Its column count is
// fixed by the query's OutputType.
type OutputRow []float64

// aggregateBucket folds one bucket of raw samples into a row. NaN
// samples count toward the total but never toward the statistics;
// min/max clamps and rounding apply to the finite statistics only.
func aggregateBucket(q SearchQuery, start int64, values []float64) OutputRow {
	var (
		sum    float64
		lo     = math.Inf(1)
		hi     = math.Inf(-1)
		finite int
	)
	for _, v := range values {
		if !utils.IsFinite(v) {
			continue
		}
		sum += v
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
		finite++
	}

	mean := math.NaN()
	if finite > 0 {
		mean = sum / float64(finite)
	} else {
		lo = math.NaN()
		hi = math.NaN()
	}

	mean = shape(q, mean)
	lo = shape(q, lo)
	hi = shape(q, hi)

	switch q.OutputType {
	case OutputValues:
		return OutputRow{mean}
	case OutputValuesMinMax:
		return OutputRow{lo, mean, hi}
	case OutputTimeSeries:
		return OutputRow{float64(start), mean}
	case OutputTimeSeriesMinMax:
		return OutputRow{float64(start), lo, mean, hi}
	case OutputIntegrity:
		return OutputRow{float64(start), float64(finite), float64(len(values))}
	default:
		return nil
	}
}

// shape applies the optional clamps and rounding to a finite statistic.
func shape(q SearchQuery, v float64) float64 {
	if !utils.IsFinite(v) {
		return v
	}
	if q.MinValue != nil && v < *q.MinValue {
		v = *q.MinValue
	}
	if q.MaxValue != nil && v > *q.MaxValue {
		v = *q.MaxValue
	}
	if q.NDecimals != nil {
		v = utils.RoundTo(v, *q.NDecimals)
	}
	return v
}

// aggregate drains a reader into rows, one per bucket, in time order.
func aggregate(r *Reader, q SearchQuery) ([]OutputRow, error) {
	rows := make([]OutputRow, 0)
	for {
		chunk, err := r.Next()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		off := 0
		for _, b := range chunk.Buckets {
			rows = append(rows, aggregateBucket(q, b.Start, chunk.Values[off:off+b.Npoints]))
			off += b.Npoints
		}
	}
}
