package fina

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/finakit/finakit/internal/config"
)

// On-disk layout of the .meta file. Bytes 0-7 are a legacy header region
// this reader skips; the two u32 fields follow it.
const (
	metaIntervalOffset  = 8
	metaStartTimeOffset = 12
	metaMinSize         = 16
	pointSize           = 4
)

// Meta describes one feed's files at the moment it was read. It is
// derived fresh on every query because the data file may have grown
// since the last read; nothing caches it.
type Meta struct {
	Interval  int64 // seconds between points
	StartTime int64 // epoch seconds of point 0
	EndTime   int64 // epoch seconds of the last point, 0 when StartTime is 0
	Npoints   int64 // data file size / 4
	Size      int64 // data file size in bytes
}

// Limits bounds the file sizes ReadMeta will accept.
type Limits struct {
	MaxMetaSize int64
	MaxDataSize int64
}

// DefaultLimits returns the built-in file size guards.
func DefaultLimits() Limits {
	return Limits{
		MaxMetaSize: config.MaxMetaSize,
		MaxDataSize: config.MaxDataSize,
	}
}

// ResolvePath joins a bare feed name with dir and the given extension,
// rejecting names that carry their own extension or escape dir.
func ResolvePath(dir, name, ext string) (string, error) {
	if name == "" || filepath.Ext(name) != "" {
		return "", fmt.Errorf("%w: feed name %q must be bare", ErrPathSecurity, name)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve data dir %s: %w", dir, err)
	}

	path := filepath.Join(absDir, name+ext)
	if filepath.Dir(path) != absDir || !strings.HasPrefix(path, absDir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q resolves outside %s", ErrPathSecurity, name, dir)
	}
	return path, nil
}

// ReadMeta opens {dir}/{name}.meta and its sibling .dat file and derives
// a fresh Meta for them.
func ReadMeta(name, dir string, lim Limits) (Meta, error) {
	metaPath, err := ResolvePath(dir, name, ".meta")
	if err != nil {
		return Meta{}, err
	}
	datPath, err := ResolvePath(dir, name, ".dat")
	if err != nil {
		return Meta{}, err
	}

	metaInfo, err := os.Stat(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Meta{}, fmt.Errorf("%w: %s", ErrNotFound, metaPath)
		}
		return Meta{}, fmt.Errorf("stat %s: %w", metaPath, err)
	}
	if metaInfo.Size() > lim.MaxMetaSize {
		return Meta{}, fmt.Errorf("%w: %s is %d bytes, cap %d", ErrSizeLimit, metaPath, metaInfo.Size(), lim.MaxMetaSize)
	}

	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return Meta{}, fmt.Errorf("read %s: %w", metaPath, err)
	}
	if len(raw) < metaMinSize {
		return Meta{}, fmt.Errorf("%w: %s holds %d bytes, need %d", ErrCorrupt, metaPath, len(raw), metaMinSize)
	}

	interval := int64(binary.LittleEndian.Uint32(raw[metaIntervalOffset:]))
	startTime := int64(binary.LittleEndian.Uint32(raw[metaStartTimeOffset:]))

	datInfo, err := os.Stat(datPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Meta{}, fmt.Errorf("%w: %s", ErrNotFound, datPath)
		}
		return Meta{}, fmt.Errorf("stat %s: %w", datPath, err)
	}
	size := datInfo.Size()
	if size > lim.MaxDataSize {
		return Meta{}, fmt.Errorf("%w: %s is %d bytes, cap %d", ErrSizeLimit, datPath, size, lim.MaxDataSize)
	}
	if size%pointSize != 0 {
		return Meta{}, fmt.Errorf("%w: %s is %d bytes, not a whole number of points", ErrCorrupt, datPath, size)
	}

	m := Meta{
		Interval:  interval,
		StartTime: startTime,
		Npoints:   size / pointSize,
		Size:      size,
	}
	if m.StartTime > 0 && m.Npoints > 0 {
		m.EndTime = m.StartTime + m.Npoints*m.Interval - m.Interval
	}
	return m, nil
}

// DataEnd returns the exclusive end of the recorded range: the instant
// just past the span covered by the last point.
func (m Meta) DataEnd() int64 {
	return m.StartTime + m.Npoints*m.Interval
}
