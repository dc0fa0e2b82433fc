package fina

import (
	"fmt"

	"github.com/finakit/finakit/internal/logging"
)

// FinaData is the query facade for one feed: a .meta/.dat pair under a
// data directory. It holds no per-read state, so one value may serve
// concurrent queries; every call re-reads the metadata and builds its
// own plan and mapping.
type FinaData struct {
	name   string
	dir    string
	limits Limits
	sizing ChunkSizing
	log    *logging.Logger
}

// Option configures a FinaData.
type Option func(*FinaData)

// WithLimits overrides the file size guards.
func WithLimits(lim Limits) Option {
	return func(f *FinaData) { f.limits = lim }
}

// WithChunkSizing overrides the chunk size bounds.
func WithChunkSizing(sizing ChunkSizing) Option {
	return func(f *FinaData) { f.sizing = sizing }
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(log *logging.Logger) Option {
	return func(f *FinaData) { f.log = log }
}

// New creates a facade for the feed {dir}/{name}.{meta,dat}.
func New(name, dir string, opts ...Option) *FinaData {
	f := &FinaData{
		name:   name,
		dir:    dir,
		limits: DefaultLimits(),
		sizing: DefaultChunkSizing(),
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Meta reads the feed's metadata fresh from disk.
func (f *FinaData) Meta() (Meta, error) {
	return ReadMeta(f.name, f.dir, f.limits)
}

// Values runs one query and returns its rows in ascending time order.
// Either the full sequence is returned or an error is raised before any
// rows are handed out; there are no partial results.
func (f *FinaData) Values(q SearchQuery) ([]OutputRow, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	meta, err := f.Meta()
	if err != nil {
		return nil, err
	}
	plan, err := NewPlan(meta, q, f.sizing)
	if err != nil {
		return nil, err
	}
	f.log.Debug("planned read",
		"feed", f.name,
		"start_pos", plan.StartPos,
		"window_max", plan.WindowMax,
		"block_size", plan.BlockSize)

	datPath, err := ResolvePath(f.dir, f.name, ".dat")
	if err != nil {
		return nil, err
	}
	r, err := NewReader(datPath, plan)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	rows, err := aggregate(r, q)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.name, err)
	}
	return rows, nil
}

// ValuesByDate translates a calendar start date to epoch seconds and
// runs the epoch-window query unchanged.
func (f *FinaData) ValuesByDate(startDate, layout string, window int64, q SearchQuery) ([]OutputRow, error) {
	start, err := ParseDate(startDate, layout)
	if err != nil {
		return nil, err
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: date %q is before the epoch", ErrValidation, startDate)
	}
	q.StartTime = start
	q.TimeWindow = window
	return f.Values(q)
}

// ValuesByDateRange derives the window from a calendar date range and
// runs the epoch-window query unchanged.
func (f *FinaData) ValuesByDateRange(startDate, endDate, layout string, q SearchQuery) ([]OutputRow, error) {
	start, err := ParseDate(startDate, layout)
	if err != nil {
		return nil, err
	}
	end, err := ParseDate(endDate, layout)
	if err != nil {
		return nil, err
	}
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: date range [%s, %s] is empty or before the epoch", ErrValidation, startDate, endDate)
	}
	q.StartTime = start
	q.TimeWindow = end - start
	return f.Values(q)
}

// ReadDirect returns one row per source point, unaggregated: the output
// interval collapses to the source interval so each bucket holds a
// single reading. NaN samples still flow through the finite counting of
// INTEGRITY output.
func (f *FinaData) ReadDirect(startTime, window int64, outputType OutputType) ([]OutputRow, error) {
	return f.Values(SearchQuery{
		StartTime:     startTime,
		TimeWindow:    window,
		TimeInterval:  0,
		OutputType:    outputType,
		OutputAverage: AverageAsIs,
		TimeRef:       RefBySearch,
	})
}
