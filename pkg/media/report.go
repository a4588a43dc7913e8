package media

import "fmt"

// Report tallies one Resolve call. Produced always equals len(Files).
type Report struct {
	Produced    int
	Attempted   int
	Failed      int
	Unavailable int
	Skipped     int
	Files       []string
	Errors      []error
}

// Merge adds other's counts and appends its files and errors
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Produced += other.Produced
	r.Attempted += other.Attempted
	r.Failed += other.Failed
	r.Unavailable += other.Unavailable
	r.Skipped += other.Skipped
	r.Files = append(r.Files, other.Files...)
	r.Errors = append(r.Errors, other.Errors...)
}

// NothingToExtract reports whether the item produced nothing without any leaf failing
func (r *Report) NothingToExtract() bool {
	return r.Produced == 0 && r.Failed == 0
}

func (r *Report) String() string {
	return fmt.Sprintf("produced=%d attempted=%d failed=%d unavailable=%d skipped=%d",
		r.Produced, r.Attempted, r.Failed, r.Unavailable, r.Skipped)
}

func (r *Report) produced(path string, skipped bool) {
	r.Produced++
	r.Attempted++
	r.Files = append(r.Files, path)
	if skipped {
		r.Skipped++
	}
}

func (r *Report) failed(err error) {
	r.Attempted++
	r.Failed++
	r.Errors = append(r.Errors, err)
}
