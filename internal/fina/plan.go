package fina

import (
	"fmt"

	"github.com/finakit/finakit/internal/config"
)

// ChunkSizing bounds how many points a single mapped access decodes.
type ChunkSizing struct {
	Default int64 // preferred chunk size in points
	Limit   int64 // hard cap in points

	// NoMinimum bypasses the efficiency floor that tries to cover the
	// whole window in one access when it fits under Limit.
	NoMinimum bool
}

// DefaultChunkSizing returns the built-in chunk bounds.
func DefaultChunkSizing() ChunkSizing {
	return ChunkSizing{Default: config.DefaultChunkSize, Limit: config.ChunkSizeLimit}
}

// Plan is the immutable result of turning a SearchQuery and a Meta into
// a bounded iteration: which point to start at, how many points are
// readable, how many source points feed one output row, and where the
// first bucket sits on the output grid. A Plan is computed once per read
// and never mutated; per-iteration state lives in Cursor.
type Plan struct {
	Meta  Meta
	Query SearchQuery

	BlockSize int64 // source points per output row
	Step      int64 // seconds per output row (BlockSize * interval)

	StartPos     int64 // index of the first point to read
	StartSearch  int64 // signed offset between output grid and file grid, in points
	WindowSearch int64
	WindowMax    int64 // points available to read from StartPos

	FirstStart  int64 // epoch seconds of the first bucket
	FirstWindow int64 // points in the first bucket; < BlockSize only under PARTIAL

	sizing ChunkSizing
}

// NewPlan validates q against meta and computes the read plan.
//
// When the query begins before the file's first recorded point, window
// sizing keeps the historical arithmetic of the format's readers,
// including the second floored division of the already-converted point
// offset by the interval; the averaging-policy row counts depend on it.
func NewPlan(meta Meta, q SearchQuery, sizing ChunkSizing) (*Plan, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if meta.Interval <= 0 {
		return nil, fmt.Errorf("%w: cannot plan over interval %d", ErrZeroInterval, meta.Interval)
	}
	if sizing.Default <= 0 || sizing.Limit <= 0 {
		return nil, fmt.Errorf("%w: chunk sizing %+v", ErrValidation, sizing)
	}

	s := meta.Interval
	n := meta.Npoints

	blockSize := int64(1)
	if q.TimeInterval > 0 {
		blockSize = ceilDiv(q.TimeInterval, s)
	}
	step := blockSize * s

	rawOff := floorDiv(q.StartTime-meta.StartTime, s)
	basePos := clampI(rawOff, 0, n)

	var startSearch, windowSearch, windowMax int64
	skip := int64(0)
	firstWindow := blockSize

	if rawOff < 0 {
		// Query begins before the first recorded point; reading starts
		// at point 0 and the grid offset only sizes the window.
		switch {
		case q.OutputAverage == AverageAsIs:
			startSearch = rawOff
		case q.TimeRef == RefByTime:
			startSearch = floorDiv(nearestMult(q.StartTime, step)-meta.StartTime, s)
		default: // RefBySearch
			startSearch = rawOff
		}
		if q.TimeWindow == 0 {
			windowSearch = n
			windowMax = n
		} else {
			windowSearch = floorDiv(startSearch, s) + floorDiv(q.TimeWindow, s)
			if windowSearch > 0 {
				windowMax = windowSearch
				if q.OutputAverage != AverageAsIs {
					windowMax -= absI(startSearch)
				}
			} else {
				windowMax = n - basePos
			}
		}
	} else {
		// Query begins inside the recorded range.
		switch q.OutputAverage {
		case AverageComplete:
			// Skip forward to the next block boundary so every bucket
			// is whole.
			skip = floorMod(-basePos, blockSize)
			startSearch = skip
		case AveragePartial:
			// Emit one short bucket reaching the next block boundary,
			// then stay aligned.
			lead := floorMod(-basePos, blockSize)
			if lead == 0 {
				lead = blockSize
			}
			firstWindow = lead
			startSearch = basePos
		default: // AverageAsIs
			startSearch = basePos
		}
		if q.TimeWindow == 0 {
			windowSearch = n - basePos
		} else {
			endOff := floorDiv(q.StartTime+q.TimeWindow-meta.StartTime, s)
			windowSearch = endOff - basePos
		}
		windowMax = windowSearch - skip
	}

	startPos := min(basePos+skip, n)
	windowMax = clampI(windowMax, 0, n-startPos)

	return &Plan{
		Meta:         meta,
		Query:        q,
		BlockSize:    blockSize,
		Step:         step,
		StartPos:     startPos,
		StartSearch:  startSearch,
		WindowSearch: windowSearch,
		WindowMax:    windowMax,
		FirstStart:   meta.StartTime + startPos*s,
		FirstWindow:  firstWindow,
		sizing:       sizing,
	}, nil
}

// Cursor is the mutable per-read-session state threaded through the
// chunk loop: the next unread point and the bounds of the bucket being
// filled. Created per read, discarded when the stream ends.
type Cursor struct {
	pos  int64 // absolute index of the next unread point
	read int64 // points consumed so far

	bucketStart int64 // epoch seconds, inclusive
	bucketEnd   int64 // epoch seconds, exclusive
}

// NewCursor positions a cursor at the start of the planned window.
func (p *Plan) NewCursor() *Cursor {
	return &Cursor{
		pos:         p.StartPos,
		bucketStart: p.FirstStart,
		bucketEnd:   p.FirstStart + p.FirstWindow*p.Meta.Interval,
	}
}

// Pos returns the absolute index of the next unread point.
func (c *Cursor) Pos() int64 { return c.pos }

// BucketStart returns the inclusive epoch of the bucket being filled.
func (c *Cursor) BucketStart() int64 { return c.bucketStart }

// Remaining returns how many planned points are still unread.
func (p *Plan) Remaining(c *Cursor) int64 {
	return max(0, p.WindowMax-c.read)
}

// CurrentWindow returns how many source points contribute to the bucket
// currently being filled; it shrinks at the file's edges.
func (p *Plan) CurrentWindow(c *Cursor) int64 {
	hi := min(p.Meta.DataEnd(), c.bucketEnd)
	lo := max(p.Meta.StartTime, c.bucketStart)
	w := ceilDiv(hi-lo, p.Meta.Interval)
	if w < 1 {
		w = 1
	}
	if w > p.BlockSize {
		w = p.BlockSize
	}
	return w
}

// Advance moves the cursor past one emitted bucket of w points and sets
// up the next bucket's bounds. The cursor never moves backward.
func (p *Plan) Advance(c *Cursor, w int64) error {
	c.pos += w
	c.read += w
	c.bucketStart = c.bucketEnd
	c.bucketEnd += p.Step
	if c.pos < p.StartPos || c.pos > p.Meta.Npoints {
		return fmt.Errorf("%w: cursor at point %d outside [%d, %d]", ErrCorrupt, c.pos, p.StartPos, p.Meta.Npoints)
	}
	return nil
}

// ChunkSize picks how many points the next mapped access should decode:
// a multiple of the current window so chunk boundaries never split a
// bucket, raised to the efficient minimum when the whole window fits
// under the cap, and never more than min(limit, remaining). A zero
// return with a nil error means the stream is done; points cut off by
// the query window (rather than the file edge) are not read.
func (p *Plan) ChunkSize(c *Cursor) (int64, error) {
	cw := p.CurrentWindow(c)
	remaining := p.Remaining(c)
	if remaining < cw {
		return 0, nil
	}
	limit := min(p.sizing.Limit, remaining)
	largest := limit - limit%cw
	if largest <= 0 {
		return 0, fmt.Errorf("%w: bucket of %d points exceeds chunk limit %d", ErrChunkStuck, cw, p.sizing.Limit)
	}
	if cw != p.BlockSize {
		// Irregular bucket at a file edge reads alone so later chunks
		// stay block aligned.
		return cw, nil
	}

	size := p.sizing.Default - p.sizing.Default%cw
	if size <= 0 || size > largest {
		size = largest
	}
	if !p.sizing.NoMinimum {
		minEfficient := ceilDiv(p.WindowMax, p.BlockSize) * p.BlockSize
		if minEfficient <= largest {
			size = max(size, minEfficient)
		} else {
			size = largest
		}
	}
	return size, nil
}
