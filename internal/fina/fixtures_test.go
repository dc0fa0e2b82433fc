package fina

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// writeFeed writes a .meta/.dat pair under dir and returns dir.
func writeFeed(t *testing.T, dir, name string, interval, startTime uint32, values []float32) {
	t.Helper()

	meta := make([]byte, 16)
	binary.LittleEndian.PutUint32(meta[8:], interval)
	binary.LittleEndian.PutUint32(meta[12:], startTime)
	if err := os.WriteFile(filepath.Join(dir, name+".meta"), meta, 0o644); err != nil {
		t.Fatalf("write meta: %v", err)
	}

	dat := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(dat[i*4:], math.Float32bits(v))
	}
	if err := os.WriteFile(filepath.Join(dir, name+".dat"), dat, 0o644); err != nil {
		t.Fatalf("write dat: %v", err)
	}
}

// rampValues returns n samples where point i reads float32(i).
func rampValues(n int) []float32 {
	values := make([]float32, n)
	for i := range values {
		values[i] = float32(i)
	}
	return values
}

// nan32 is the encoded "no reading" sample.
func nan32() float32 {
	return float32(math.NaN())
}

// epoch 2020-09-13 12:28:00 UTC, a multiple of 60 so minute buckets under
// BY_TIME land exactly on the file grid.
const testStart = uint32(1600000080)

func testMeta(npoints int64) Meta {
	return Meta{
		Interval:  10,
		StartTime: int64(testStart),
		EndTime:   int64(testStart) + (npoints-1)*10,
		Npoints:   npoints,
		Size:      npoints * 4,
	}
}
