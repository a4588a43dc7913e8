package fetch

import "fmt"

// Range is an inclusive byte range
type Range struct {
	Start int64
	End   int64
}

// Len is the number of bytes the range covers
func (r Range) Len() int64 {
	return r.End - r.Start + 1
}

// String formats the range the way manifests write it
func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Header is the value of the Range request header for r
func (r Range) Header() string {
	return "bytes=" + r.String()
}
