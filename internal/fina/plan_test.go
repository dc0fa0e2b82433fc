package fina

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseQuery() SearchQuery {
	return SearchQuery{
		StartTime:     int64(testStart),
		TimeWindow:    3600,
		TimeInterval:  60,
		OutputType:    OutputValues,
		OutputAverage: AverageComplete,
		TimeRef:       RefByTime,
	}
}

func TestNewPlanBlockSize(t *testing.T) {
	meta := testMeta(51840)

	tests := []struct {
		timeInterval int64
		blockSize    int64
		step         int64
	}{
		{0, 1, 10},   // source resolution
		{10, 1, 10},  // equal to source interval
		{15, 2, 20},  // rounded up to a whole number of points
		{30, 3, 30},
		{60, 6, 60},
		{3600, 360, 3600},
	}
	for _, tt := range tests {
		q := baseQuery()
		q.TimeInterval = tt.timeInterval
		p, err := NewPlan(meta, q, DefaultChunkSizing())
		require.NoError(t, err)
		assert.Equal(t, tt.blockSize, p.BlockSize, "time_interval %d", tt.timeInterval)
		assert.Equal(t, tt.step, p.Step, "time_interval %d", tt.timeInterval)
	}
}

func TestNewPlanWindowInsideFile(t *testing.T) {
	meta := testMeta(51840)
	p, err := NewPlan(meta, baseQuery(), DefaultChunkSizing())
	require.NoError(t, err)

	assert.Equal(t, int64(0), p.StartPos)
	assert.Equal(t, int64(360), p.WindowMax) // one hour of 10s points
	assert.Equal(t, int64(testStart), p.FirstStart)
	assert.Equal(t, p.BlockSize, p.FirstWindow)
}

func TestNewPlanStartPosClamped(t *testing.T) {
	meta := testMeta(100)

	// Start far past the end of the file
	q := baseQuery()
	q.StartTime = meta.DataEnd() + 86400
	p, err := NewPlan(meta, q, DefaultChunkSizing())
	require.NoError(t, err)
	assert.Equal(t, meta.Npoints, p.StartPos)
	assert.Equal(t, int64(0), p.WindowMax)
}

func TestNewPlanWindowToEndOfFile(t *testing.T) {
	meta := testMeta(720)
	q := baseQuery()
	q.TimeWindow = 0
	p, err := NewPlan(meta, q, DefaultChunkSizing())
	require.NoError(t, err)
	assert.Equal(t, int64(720), p.WindowMax)
}

// Reference behavior for a query starting 142 seconds before the first
// recorded point: the window arithmetic differs per averaging policy and
// time reference, and the resulting row counts are part of the contract.
func TestNewPlanBeforeFileStart(t *testing.T) {
	meta := testMeta(51840)

	tests := []struct {
		name        string
		average     OutputAverage
		ref         TimeRef
		startSearch int64
		windowMax   int64
		rows        int64 // windowMax / blockSize, trailing partial dropped
	}{
		{"complete by_time", AverageComplete, RefByTime, -12, 346, 57},
		{"complete by_search", AverageComplete, RefBySearch, -15, 343, 57},
		{"partial by_time", AveragePartial, RefByTime, -12, 346, 57},
		{"partial by_search", AveragePartial, RefBySearch, -15, 343, 57},
		{"as_is by_time", AverageAsIs, RefByTime, -15, 358, 59},
		{"as_is by_search", AverageAsIs, RefBySearch, -15, 358, 59},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := baseQuery()
			q.StartTime = int64(testStart) - 142
			q.OutputAverage = tt.average
			q.TimeRef = tt.ref

			p, err := NewPlan(meta, q, DefaultChunkSizing())
			require.NoError(t, err)

			assert.Equal(t, int64(0), p.StartPos)
			assert.Equal(t, tt.startSearch, p.StartSearch)
			assert.Equal(t, tt.windowMax, p.WindowMax)
			assert.Equal(t, tt.rows, p.WindowMax/p.BlockSize)
		})
	}
}

func TestCursorInvariants(t *testing.T) {
	meta := testMeta(51840)
	p, err := NewPlan(meta, baseQuery(), DefaultChunkSizing())
	require.NoError(t, err)

	c := p.NewCursor()
	for p.Remaining(c) >= p.CurrentWindow(c) {
		w := p.CurrentWindow(c)
		require.NoError(t, p.Advance(c, w))

		assert.LessOrEqual(t, p.StartPos, c.Pos())
		assert.LessOrEqual(t, c.Pos(), meta.Npoints)
		assert.Equal(t, max(0, p.WindowMax-(c.Pos()-p.StartPos)), p.Remaining(c))
	}
	assert.Equal(t, int64(0), p.Remaining(c))
}

func TestAdvanceRejectsOverrun(t *testing.T) {
	meta := testMeta(12)
	q := baseQuery()
	q.TimeWindow = 0
	p, err := NewPlan(meta, q, DefaultChunkSizing())
	require.NoError(t, err)

	c := p.NewCursor()
	err = p.Advance(c, meta.Npoints+1)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestChunkSizeAlignment(t *testing.T) {
	meta := testMeta(51840)
	sizing := ChunkSizing{Default: 20, Limit: 50}
	p, err := NewPlan(meta, baseQuery(), sizing)
	require.NoError(t, err)

	c := p.NewCursor()
	total := int64(0)
	for {
		size, err := p.ChunkSize(c)
		require.NoError(t, err)
		if size == 0 {
			break
		}
		cw := p.CurrentWindow(c)
		assert.Zero(t, size%cw, "chunk size %d must divide into windows of %d", size, cw)
		assert.LessOrEqual(t, size, sizing.Limit)

		for consumed := int64(0); consumed < size; consumed += cw {
			require.NoError(t, p.Advance(c, cw))
		}
		total += size
	}
	assert.Equal(t, p.WindowMax, total)
}

func TestChunkSizeCoversWindowWhenItFits(t *testing.T) {
	meta := testMeta(51840)
	p, err := NewPlan(meta, baseQuery(), DefaultChunkSizing())
	require.NoError(t, err)

	// 360 points fit well under the limit, so one access covers them all
	size, err := p.ChunkSize(p.NewCursor())
	require.NoError(t, err)
	assert.Equal(t, int64(360), size)
}

func TestChunkSizeStuck(t *testing.T) {
	meta := testMeta(51840)
	// Limit smaller than one block: no aligned chunk can ever be formed
	p, err := NewPlan(meta, baseQuery(), ChunkSizing{Default: 4, Limit: 4})
	require.NoError(t, err)

	_, err = p.ChunkSize(p.NewCursor())
	assert.ErrorIs(t, err, ErrChunkStuck)
}

func TestShrunkenFinalBucketAtFileEnd(t *testing.T) {
	meta := testMeta(10)
	q := baseQuery()
	q.TimeWindow = 0
	q.TimeInterval = 30 // blocks of 3; the file holds 3 blocks and one leftover point
	p, err := NewPlan(meta, q, DefaultChunkSizing())
	require.NoError(t, err)

	c := p.NewCursor()
	windows := []int64{}
	for {
		size, err := p.ChunkSize(c)
		require.NoError(t, err)
		if size == 0 {
			break
		}
		cw := p.CurrentWindow(c)
		for consumed := int64(0); consumed < size; consumed += cw {
			windows = append(windows, cw)
			require.NoError(t, p.Advance(c, cw))
		}
	}
	assert.Equal(t, []int64{3, 3, 3, 1}, windows)
}

func TestNewPlanPartialLeadBucket(t *testing.T) {
	meta := testMeta(51840)
	q := baseQuery()
	q.StartTime = int64(testStart) + 142 // point 14, mid-block
	q.OutputAverage = AveragePartial

	p, err := NewPlan(meta, q, DefaultChunkSizing())
	require.NoError(t, err)

	assert.Equal(t, int64(14), p.StartPos)
	assert.Equal(t, int64(4), p.FirstWindow) // reaches the boundary at point 18
	assert.Equal(t, int64(testStart)+140, p.FirstStart)
}

func TestNewPlanCompleteSkipsToBlockBoundary(t *testing.T) {
	meta := testMeta(51840)
	q := baseQuery()
	q.StartTime = int64(testStart) + 142

	p, err := NewPlan(meta, q, DefaultChunkSizing())
	require.NoError(t, err)

	assert.Equal(t, int64(18), p.StartPos) // next multiple of 6 past point 14
	assert.Equal(t, p.BlockSize, p.FirstWindow)
	assert.Equal(t, int64(testStart)+180, p.FirstStart)
}

func TestNewPlanValidation(t *testing.T) {
	meta := testMeta(100)

	q := baseQuery()
	q.TimeWindow = -1
	_, err := NewPlan(meta, q, DefaultChunkSizing())
	assert.ErrorIs(t, err, ErrValidation)

	q = baseQuery()
	q.OutputType = OutputType(99)
	_, err = NewPlan(meta, q, DefaultChunkSizing())
	assert.ErrorIs(t, err, ErrValidation)

	bad := meta
	bad.Interval = 0
	_, err = NewPlan(bad, baseQuery(), DefaultChunkSizing())
	assert.ErrorIs(t, err, ErrZeroInterval)
}
