package fina

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Bucket delimits one output interval's worth of points inside a Chunk.
type Bucket struct {
	Start   int64 // epoch seconds of the bucket
	Npoints int   // points of this bucket inside the chunk's Values
}

// Chunk is one contiguous run of decoded points. Buckets partition
// Values in order; chunk boundaries never split a bucket.
type Chunk struct {
	Pos     int64     // absolute index of the first point
	Values  []float64 // decoded samples, NaN means no reading
	Buckets []Bucket
}

// Reader streams the .dat file through a read-only memory mapping,
// yielding chunks until the planned window is exhausted. It is a
// forward-only, finite, non-restartable sequence; a fresh Plan and
// Reader are needed to read again. Close must be called on every path,
// including early abandonment.
type Reader struct {
	plan *Plan
	cur  *Cursor

	f    *os.File
	data mmap.MMap
	done bool
}

// NewReader maps datPath read-only and positions a cursor at the start
// of the planned window.
func NewReader(datPath string, plan *Plan) (*Reader, error) {
	r := &Reader{plan: plan, cur: plan.NewCursor()}

	if plan.Meta.Npoints == 0 || plan.WindowMax == 0 {
		// Nothing to map or nothing to read.
		r.done = true
		return r, nil
	}

	f, err := os.Open(datPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, datPath)
		}
		return nil, fmt.Errorf("open %s: %w", datPath, err)
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("map %s: %w", datPath, err)
	}
	if int64(len(data)) < plan.Meta.Size {
		// The file shrank between the metadata read and the mapping.
		unmapAndClose(data, f)
		return nil, fmt.Errorf("%w: %s shrank to %d bytes, meta saw %d", ErrCorrupt, datPath, len(data), plan.Meta.Size)
	}

	r.f = f
	r.data = data
	return r, nil
}

// Next returns the next chunk, or io.EOF once the planned window is
// exhausted. Any other error ends the stream; the caller still owns
// Close.
func (r *Reader) Next() (Chunk, error) {
	if r.done {
		return Chunk{}, io.EOF
	}

	size, err := r.plan.ChunkSize(r.cur)
	if err != nil {
		r.done = true
		return Chunk{}, err
	}
	if size == 0 {
		r.done = true
		return Chunk{}, io.EOF
	}

	cw := r.plan.CurrentWindow(r.cur)
	start := r.cur.Pos()
	end := start + size
	if end*pointSize > int64(len(r.data)) {
		r.done = true
		return Chunk{}, fmt.Errorf("%w: chunk [%d, %d) reaches past %d mapped bytes", ErrCorrupt, start, end, len(r.data))
	}

	chunk := Chunk{
		Pos:     start,
		Values:  make([]float64, size),
		Buckets: make([]Bucket, 0, size/cw),
	}
	for i := int64(0); i < size; i++ {
		bits := binary.LittleEndian.Uint32(r.data[(start+i)*pointSize:])
		chunk.Values[i] = float64(math.Float32frombits(bits))
	}

	// Advance the cursor bucket by bucket. All buckets inside a chunk
	// share the window the chunk was sized for.
	for consumed := int64(0); consumed < size; consumed += cw {
		chunk.Buckets = append(chunk.Buckets, Bucket{Start: r.cur.BucketStart(), Npoints: int(cw)})
		if err := r.plan.Advance(r.cur, cw); err != nil {
			r.done = true
			return Chunk{}, err
		}
	}

	if r.plan.Remaining(r.cur) == 0 {
		r.done = true
	}
	return chunk, nil
}

// Close releases the mapping and the file. Safe to call more than once.
func (r *Reader) Close() error {
	r.done = true
	if r.data == nil {
		return nil
	}
	err := unmapAndClose(r.data, r.f)
	r.data = nil
	r.f = nil
	return err
}

func unmapAndClose(data mmap.MMap, f *os.File) error {
	unmapErr := data.Unmap()
	closeErr := f.Close()
	if unmapErr != nil {
		return fmt.Errorf("unmap: %w", unmapErr)
	}
	return closeErr
}
