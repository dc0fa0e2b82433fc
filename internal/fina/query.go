package fina

import "fmt"

// OutputType selects the shape of each output row.
type OutputType int

const (
	// OutputValues emits one column: the bucket mean.
	OutputValues OutputType = iota
	// OutputValuesMinMax emits min, mean, max.
	OutputValuesMinMax
	// OutputTimeSeries emits bucket start time and mean.
	OutputTimeSeries
	// OutputTimeSeriesMinMax emits bucket start time, min, mean, max.
	OutputTimeSeriesMinMax
	// OutputIntegrity emits bucket start time, finite count, total count.
	OutputIntegrity
)

// Columns returns the fixed column count of rows of this type.
func (t OutputType) Columns() int {
	switch t {
	case OutputValues:
		return 1
	case OutputValuesMinMax:
		return 3
	case OutputTimeSeries:
		return 2
	case OutputTimeSeriesMinMax:
		return 4
	case OutputIntegrity:
		return 3
	default:
		return 0
	}
}

func (t OutputType) String() string {
	switch t {
	case OutputValues:
		return "values"
	case OutputValuesMinMax:
		return "values_min_max"
	case OutputTimeSeries:
		return "time_series"
	case OutputTimeSeriesMinMax:
		return "time_series_min_max"
	case OutputIntegrity:
		return "integrity"
	default:
		return fmt.Sprintf("output_type(%d)", int(t))
	}
}

// ParseOutputType resolves a textual output type name.
func ParseOutputType(s string) (OutputType, error) {
	for _, t := range []OutputType{OutputValues, OutputValuesMinMax, OutputTimeSeries, OutputTimeSeriesMinMax, OutputIntegrity} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown output type %q", ErrValidation, s)
}

// OutputAverage selects how buckets align to the output grid.
type OutputAverage int

const (
	// AverageComplete aligns to whole output-interval boundaries,
	// dropping a leading partial bucket.
	AverageComplete OutputAverage = iota
	// AveragePartial allows a leading partial bucket.
	AveragePartial
	// AverageAsIs disables realignment entirely.
	AverageAsIs
)

func (a OutputAverage) String() string {
	switch a {
	case AverageComplete:
		return "complete"
	case AveragePartial:
		return "partial"
	case AverageAsIs:
		return "as_is"
	default:
		return fmt.Sprintf("output_average(%d)", int(a))
	}
}

// TimeRef selects the anchor of the output grid when the query begins
// at or before the file's first point.
type TimeRef int

const (
	// RefByTime lands bucket boundaries on round wall-clock multiples of
	// the output interval.
	RefByTime TimeRef = iota
	// RefBySearch anchors the grid to the query start time itself.
	RefBySearch
)

func (r TimeRef) String() string {
	switch r {
	case RefByTime:
		return "by_time"
	case RefBySearch:
		return "by_search"
	default:
		return fmt.Sprintf("time_ref(%d)", int(r))
	}
}

// SearchQuery describes one read. Immutable once validated; all fields
// are epoch seconds or second counts.
type SearchQuery struct {
	StartTime    int64 // epoch seconds
	TimeWindow   int64 // seconds to read, 0 means to end of file
	TimeInterval int64 // output sampling period, 0 means source interval

	OutputType    OutputType
	OutputAverage OutputAverage
	TimeRef       TimeRef

	// Optional shaping of finite statistics, applied after aggregation.
	MinValue  *float64
	MaxValue  *float64
	NDecimals *int
}

// Validate rejects malformed queries before any file I/O happens.
func (q SearchQuery) Validate() error {
	if q.StartTime < 0 {
		return fmt.Errorf("%w: start_time %d is negative", ErrValidation, q.StartTime)
	}
	if q.TimeWindow < 0 {
		return fmt.Errorf("%w: time_window %d is negative", ErrValidation, q.TimeWindow)
	}
	if q.TimeInterval < 0 {
		return fmt.Errorf("%w: time_interval %d is negative", ErrValidation, q.TimeInterval)
	}
	if q.OutputType.Columns() == 0 {
		return fmt.Errorf("%w: unknown output type %d", ErrValidation, int(q.OutputType))
	}
	if q.OutputAverage < AverageComplete || q.OutputAverage > AverageAsIs {
		return fmt.Errorf("%w: unknown output average %d", ErrValidation, int(q.OutputAverage))
	}
	if q.TimeRef < RefByTime || q.TimeRef > RefBySearch {
		return fmt.Errorf("%w: unknown time reference %d", ErrValidation, int(q.TimeRef))
	}
	if q.MinValue != nil && q.MaxValue != nil && *q.MinValue > *q.MaxValue {
		return fmt.Errorf("%w: min_value %v exceeds max_value %v", ErrValidation, *q.MinValue, *q.MaxValue)
	}
	return nil
}
