// Package httprange implements single-range HTTP Range header handling for
// media playback and seeking.
package httprange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMalformed indicates a Range header this server cannot parse.
	ErrMalformed = errors.New("malformed range header")
	// ErrUnsatisfiable indicates a syntactically valid range outside the
	// resource bounds; callers respond with 416 and ContentRangeUnsatisfied.
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

// Range is a resolved byte range, inclusive on both ends.
type Range struct {
	Start int64
	End   int64
}

// Length returns the number of bytes covered by the range.
func (r Range) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange formats the Content-Range header for a 206 response.
func (r Range) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// ContentRangeUnsatisfied formats the Content-Range header for a 416 response.
func ContentRangeUnsatisfied(size int64) string {
	return fmt.Sprintf("bytes */%d", size)
}

// Parse resolves a "bytes=<start>-<end?>" header against a resource of the
// given size. A missing end defaults to size-1. Returns nil when the header
// is empty (no range requested), ErrMalformed for anything this server does
// not support (multi-range, suffix form, garbage), and ErrUnsatisfiable when
// start or end falls outside the resource.
func Parse(header string, size int64) (*Range, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, ErrMalformed
	}
	if strings.Contains(spec, ",") {
		return nil, ErrMalformed
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, ErrMalformed
	}

	start, err := strconv.ParseInt(strings.TrimSpace(startStr), 10, 64)
	if err != nil || start < 0 {
		return nil, ErrMalformed
	}

	end := size - 1
	if trimmed := strings.TrimSpace(endStr); trimmed != "" {
		end, err = strconv.ParseInt(trimmed, 10, 64)
		if err != nil || end < 0 {
			return nil, ErrMalformed
		}
	}

	if start >= size || end >= size {
		return nil, ErrUnsatisfiable
	}
	if end < start {
		return nil, ErrMalformed
	}

	return &Range{Start: start, End: end}, nil
}
