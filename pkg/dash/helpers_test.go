package dash

import (
	"context"
	"fmt"
	"sync"

	errs "igfetch/pkg/errors"
	"igfetch/pkg/fetch"
)

// memFetcher serves byte ranges from in-memory files and records every request
type memFetcher struct {
	mu     sync.Mutex
	files  map[string][]byte
	fail   map[string]error
	ranges map[string][]string
}

func newMemFetcher() *memFetcher {
	return &memFetcher{
		files:  map[string][]byte{},
		fail:   map[string]error{},
		ranges: map[string][]string{},
	}
}

func (f *memFetcher) add(url string, size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte((i * 7) % 256)
	}
	f.files[url] = data
	return data
}

func (f *memFetcher) FetchRange(ctx context.Context, url string, r *fetch.Range) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := "full"
	if r != nil {
		key = r.String()
	}
	f.ranges[url] = append(f.ranges[url], key)

	if err, ok := f.fail[url+"#"+key]; ok {
		return nil, err
	}
	data, ok := f.files[url]
	if !ok {
		return nil, errs.NewNetworkError(url, 404, nil)
	}
	if r == nil {
		return data, nil
	}
	if r.End >= int64(len(data)) {
		return nil, errs.NewNetworkError(url, 416, fmt.Errorf("range %s beyond %d", r, len(data)))
	}
	return data[r.Start : r.End+1], nil
}

func (f *memFetcher) requested(url string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ranges[url]...)
}

// shortFetcher drops the last byte of every response
type shortFetcher struct{ next *memFetcher }

func (s shortFetcher) FetchRange(ctx context.Context, url string, r *fetch.Range) ([]byte, error) {
	data, err := s.next.FetchRange(ctx, url, r)
	if err != nil || len(data) == 0 {
		return data, err
	}
	return data[:len(data)-1], nil
}
