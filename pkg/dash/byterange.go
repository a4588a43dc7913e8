package dash

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	errs "igfetch/pkg/errors"
	"igfetch/pkg/fetch"
)

// ByteRange is an inclusive byte range as written in manifests ("start-end")
type ByteRange = fetch.Range

// ParseByteRange parses "<start>-<end>" with 0 <= start <= end < MaxInt64
func ParseByteRange(s string) (ByteRange, error) {
	start, end, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return ByteRange{}, errs.NewParseError(fmt.Sprintf("malformed byte range %q", s), nil)
	}

	a, err := parseOffset(start)
	if err != nil {
		return ByteRange{}, errs.NewParseError(fmt.Sprintf("malformed byte range %q", s), err)
	}
	b, err := parseOffset(end)
	if err != nil {
		return ByteRange{}, errs.NewParseError(fmt.Sprintf("malformed byte range %q", s), err)
	}
	if a > b {
		return ByteRange{}, errs.NewParseError(fmt.Sprintf("byte range %q ends before it starts", s), nil)
	}
	// Len must stay representable
	if b == math.MaxInt64 {
		return ByteRange{}, errs.NewParseError(fmt.Sprintf("byte range %q is too large", s), nil)
	}
	return ByteRange{Start: a, End: b}, nil
}

// parseOffset accepts decimal digits only, so signs and spaces inside the range are rejected
func parseOffset(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty offset")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid offset %q", s)
		}
	}
	return strconv.ParseInt(s, 10, 64)
}
