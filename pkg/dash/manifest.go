package dash

import (
	"encoding/xml"
	"strconv"
	"strings"

	errs "igfetch/pkg/errors"
)

// MPD is the subset of a DASH manifest Instagram serves: one period of
// SegmentBase representations, each addressed by a single BaseURL.
type MPD struct {
	XMLName xml.Name `xml:"MPD"`
	Type    string   `xml:"type,attr"`
	BaseURL string   `xml:"BaseURL"`
	Periods []Period `xml:"Period"`
}

type Period struct {
	ID             string          `xml:"id,attr"`
	Duration       string          `xml:"duration,attr"`
	AdaptationSets []AdaptationSet `xml:"AdaptationSet"`
}

// AdaptationSet groups alternative encodings of one track
type AdaptationSet struct {
	ID              string           `xml:"id,attr"`
	ContentType     string           `xml:"contentType,attr"`
	MimeType        string           `xml:"mimeType,attr"`
	Codecs          string           `xml:"codecs,attr"`
	Representations []Representation `xml:"Representation"`
}

// Representation is one encoding of a track.
// The FB* attributes are Instagram extensions describing which byte ranges hold media data.
type Representation struct {
	ID        string `xml:"id,attr"`
	Bandwidth string `xml:"bandwidth,attr"`
	Codecs    string `xml:"codecs,attr"`
	MimeType  string `xml:"mimeType,attr"`
	Width     string `xml:"width,attr"`
	Height    string `xml:"height,attr"`
	Quality   string `xml:"FBQualityLabel,attr"`

	ContentLength        string `xml:"FBContentLength,attr"`
	FirstSegmentRange    string `xml:"FBFirstSegmentRange,attr"`
	SecondSegmentRange   string `xml:"FBSecondSegmentRange,attr"`
	PrefetchSegmentRange string `xml:"FBPrefetchSegmentRange,attr"`

	BaseURL     string       `xml:"BaseURL"`
	SegmentBase *SegmentBase `xml:"SegmentBase"`
}

type SegmentBase struct {
	IndexRange     string          `xml:"indexRange,attr"`
	Initialization *Initialization `xml:"Initialization"`

	FirstSegmentRange    string `xml:"FBFirstSegmentRange,attr"`
	SecondSegmentRange   string `xml:"FBSecondSegmentRange,attr"`
	PrefetchSegmentRange string `xml:"FBPrefetchSegmentRange,attr"`
}

type Initialization struct {
	Range string `xml:"range,attr"`
}

// ParseMPD decodes a manifest and checks it has at least one period with adaptation sets
func ParseMPD(doc string) (*MPD, error) {
	if strings.TrimSpace(doc) == "" {
		return nil, errs.NewParseError("empty manifest", nil)
	}

	var mpd MPD
	if err := xml.Unmarshal([]byte(doc), &mpd); err != nil {
		return nil, errs.NewParseError("malformed manifest XML", err)
	}
	if len(mpd.Periods) == 0 {
		return nil, errs.NewParseError("manifest has no Period", nil)
	}
	if len(mpd.Periods[0].AdaptationSets) == 0 {
		return nil, errs.NewParseError("manifest period has no AdaptationSet", nil)
	}

	mpd.BaseURL = strings.TrimSpace(mpd.BaseURL)
	for i := range mpd.Periods[0].AdaptationSets {
		set := &mpd.Periods[0].AdaptationSets[i]
		for j := range set.Representations {
			set.Representations[j].BaseURL = strings.TrimSpace(set.Representations[j].BaseURL)
		}
	}
	return &mpd, nil
}

// ParseManifest returns the adaptation sets of the manifest's first period.
// A set holding a single Representation yields a one-element slice.
func ParseManifest(doc string) ([]AdaptationSet, error) {
	mpd, err := ParseMPD(doc)
	if err != nil {
		return nil, err
	}
	return mpd.Periods[0].AdaptationSets, nil
}

// BandwidthBPS returns the declared bandwidth; missing or unparseable values are 0
func (r *Representation) BandwidthBPS() int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(r.Bandwidth), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// TotalLength returns the declared content length, or 0 when absent
func (r *Representation) TotalLength() int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(r.ContentLength), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// InitRange returns the raw Initialization@range string
func (r *Representation) InitRange() string {
	if r.SegmentBase == nil || r.SegmentBase.Initialization == nil {
		return ""
	}
	return r.SegmentBase.Initialization.Range
}

// PrefetchRanges returns the declared first-segment, second-segment and
// prefetch range strings in that order, skipping absent ones. A value on
// SegmentBase takes precedence over the same attribute on the Representation.
func (r *Representation) PrefetchRanges() []string {
	pick := func(onSegment, onRep string) string {
		if v := strings.TrimSpace(onSegment); v != "" {
			return v
		}
		return strings.TrimSpace(onRep)
	}

	var sb SegmentBase
	if r.SegmentBase != nil {
		sb = *r.SegmentBase
	}

	var out []string
	for _, v := range []string{
		pick(sb.FirstSegmentRange, r.FirstSegmentRange),
		pick(sb.SecondSegmentRange, r.SecondSegmentRange),
		pick(sb.PrefetchSegmentRange, r.PrefetchSegmentRange),
	} {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
