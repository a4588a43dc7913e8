package dash

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "igfetch/pkg/errors"
)

const videoURL = "https://cdn.example/v.mp4"

func lengthRep(init, length string) *Representation {
	return &Representation{
		ID:            "v",
		BaseURL:       videoURL,
		ContentLength: length,
		SegmentBase:   &SegmentBase{Initialization: &Initialization{Range: init}},
	}
}

func TestAssembleWithTotalLength(t *testing.T) {
	f := newMemFetcher()
	file := f.add(videoURL, 5000)
	a := NewAssembler(f, nil)

	data, err := a.Assemble(context.Background(), lengthRep("0-999", "5000"))

	require.NoError(t, err)
	assert.Equal(t, []string{"0-999", "1000-4999"}, f.requested(videoURL))
	assert.Len(t, data, 5000)
	assert.Equal(t, file, data)
}

func TestAssembleWithPrefetchRanges(t *testing.T) {
	f := newMemFetcher()
	file := f.add(videoURL, 400)
	rep := &Representation{
		ID:      "v",
		BaseURL: videoURL,
		SegmentBase: &SegmentBase{
			Initialization:       &Initialization{Range: "0-99"},
			FirstSegmentRange:    "100-249",
			SecondSegmentRange:   "250-399",
			PrefetchSegmentRange: "100-249",
		},
	}

	data, err := NewAssembler(f, nil).Assemble(context.Background(), rep)

	require.NoError(t, err)
	assert.Equal(t, []string{"0-99", "100-249", "250-399"}, f.requested(videoURL))
	assert.Equal(t, file, data)
}

func TestPlanDedupIsTextual(t *testing.T) {
	rep := &Representation{
		ID:                   "v",
		FirstSegmentRange:    "100-199",
		PrefetchSegmentRange: "0100-199",
		SegmentBase:          &SegmentBase{Initialization: &Initialization{Range: "0-99"}},
	}

	plan, err := NewAssembler(newMemFetcher(), nil).Plan(rep)
	require.NoError(t, err)
	require.Len(t, plan, 3, "numerically equal ranges written differently are both kept")
	assert.Equal(t, plan[1], plan[2])
}

func TestPlanDedupAcrossAllNames(t *testing.T) {
	rep := &Representation{
		ID:                   "v",
		FirstSegmentRange:    "100-199",
		SecondSegmentRange:   "100-199",
		PrefetchSegmentRange: "100-199",
		SegmentBase:          &SegmentBase{Initialization: &Initialization{Range: "0-99"}},
	}

	plan, err := NewAssembler(newMemFetcher(), nil).Plan(rep)
	require.NoError(t, err)
	assert.Equal(t, []ByteRange{{Start: 0, End: 99}, {Start: 100, End: 199}}, plan)
}

func TestPlanErrors(t *testing.T) {
	tests := map[string]*Representation{
		"no segment base":    {ID: "v", ContentLength: "100"},
		"no initialization":  {ID: "v", ContentLength: "100", SegmentBase: &SegmentBase{}},
		"malformed init":     lengthRep("zero-99", "100"),
		"reversed init":      lengthRep("99-0", "100"),
		"length inside init": lengthRep("0-99", "100"),
		"nothing after init": lengthRep("0-99", ""),
		"malformed prefetch": {
			ID:                "v",
			FirstSegmentRange: "100-",
			SegmentBase:       &SegmentBase{Initialization: &Initialization{Range: "0-99"}},
		},
	}

	for name, rep := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewAssembler(newMemFetcher(), nil).Plan(rep)
			require.Error(t, err)
			assert.Equal(t, errs.ErrorTypeParse, errs.TypeOf(err))
		})
	}
}

func TestAssembleRejectsOversizedRanges(t *testing.T) {
	tests := map[string]*SegmentBase{
		"end at max int64": {
			Initialization:    &Initialization{Range: "0-99"},
			FirstSegmentRange: "100-9223372036854775807",
		},
		"sizes overflow": {
			Initialization:     &Initialization{Range: "0-99"},
			FirstSegmentRange:  "100-9223372036854775806",
			SecondSegmentRange: "0-9223372036854775806",
		},
	}

	for name, sb := range tests {
		t.Run(name, func(t *testing.T) {
			f := newMemFetcher()
			f.add(videoURL, 400)
			rep := &Representation{ID: "v", BaseURL: videoURL, SegmentBase: sb}

			var data []byte
			var err error
			require.NotPanics(t, func() {
				data, err = NewAssembler(f, nil).Assemble(context.Background(), rep)
			})
			require.Error(t, err)
			assert.Nil(t, data)
			assert.Equal(t, errs.ErrorTypeParse, errs.TypeOf(err))
			assert.Empty(t, f.requested(videoURL), "nothing is fetched for an impossible plan")
		})
	}
}

func TestAssembleAbortsOnFetchFailure(t *testing.T) {
	f := newMemFetcher()
	f.add(videoURL, 5000)
	f.fail[videoURL+"#1000-4999"] = errs.NewNetworkError(videoURL, 503, nil)

	data, err := NewAssembler(f, nil).Assemble(context.Background(), lengthRep("0-999", "5000"))

	require.Error(t, err)
	assert.Nil(t, data, "no partial stream")
	var e *errs.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, 503, e.Code)
}

func TestAssembleInitFailureStopsEarly(t *testing.T) {
	f := newMemFetcher()
	f.add(videoURL, 5000)
	f.fail[videoURL+"#0-999"] = errs.NewNetworkError(videoURL, 0, errors.New("reset"))

	_, err := NewAssembler(f, nil).Assemble(context.Background(), lengthRep("0-999", "5000"))

	require.Error(t, err)
	assert.Equal(t, []string{"0-999"}, f.requested(videoURL))
}

func TestAssembleRejectsShortChunks(t *testing.T) {
	f := newMemFetcher()
	f.add(videoURL, 5000)

	_, err := NewAssembler(shortFetcher{f}, nil).Assemble(context.Background(), lengthRep("0-999", "5000"))

	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeNetwork, errs.TypeOf(err))
}

func TestAssembleRequiresBaseURL(t *testing.T) {
	rep := lengthRep("0-99", "1000")
	rep.BaseURL = ""
	_, err := NewAssembler(newMemFetcher(), nil).Assemble(context.Background(), rep)
	assert.Equal(t, errs.ErrorTypeParse, errs.TypeOf(err))
}
