// Package fina reads fixed-interval time-series stored in the PHPFina
// flat binary format: an append-only .dat file of 4-byte little-endian
// floats paired with a small .meta file carrying the sampling interval
// and the epoch of the first point.
//
// A read is a linear pipeline: ReadMeta derives fresh file metadata,
// NewPlan turns a SearchQuery into a bounded iteration plan, Reader
// streams the data file through a read-only memory mapping in
// bucket-aligned chunks, and the aggregation layer folds each bucket
// into one output row. Every call builds its own metadata, plan and
// mapping, so concurrent queries over the same files need no
// coordination.
package fina

import "errors"

// Failure classes for the read pipeline. Call sites wrap these with the
// offending path or parameter; callers match with errors.Is.
var (
	// ErrValidation reports a malformed query parameter, rejected before
	// any file I/O occurs.
	ErrValidation = errors.New("invalid query parameter")

	// ErrNotFound reports a missing .meta or .dat file.
	ErrNotFound = errors.New("fina file not found")

	// ErrCorrupt reports an unreadable file pair: a meta file too short,
	// a data file whose size is not a whole number of points, a chunk
	// read coming up short, or non-monotonic reader state.
	ErrCorrupt = errors.New("corrupt fina file")

	// ErrSizeLimit reports a meta or data file exceeding the configured caps.
	ErrSizeLimit = errors.New("fina file exceeds size limit")

	// ErrPathSecurity reports a feed name that resolves outside the data
	// directory or carries an extension of its own.
	ErrPathSecurity = errors.New("unsafe fina path")

	// ErrZeroInterval reports a meta interval of zero where division is required.
	ErrZeroInterval = errors.New("meta interval is zero")

	// ErrChunkStuck reports a computed chunk size of zero while points
	// remain to read, which would otherwise loop forever.
	ErrChunkStuck = errors.New("degenerate chunk size")
)
