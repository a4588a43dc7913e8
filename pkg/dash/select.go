package dash

import "strings"

type trackHints struct {
	contentType string
	mime        string
	codec       string
}

var (
	videoHints = trackHints{contentType: "video", mime: "video", codec: "avc1"}
	audioHints = trackHints{contentType: "audio", mime: "audio", codec: "mp4a"}
)

// SelectVideoSet finds the video adaptation set
func SelectVideoSet(sets []AdaptationSet) (*AdaptationSet, bool) {
	return selectSet(sets, videoHints)
}

// SelectAudioSet finds the audio adaptation set
func SelectAudioSet(sets []AdaptationSet) (*AdaptationSet, bool) {
	return selectSet(sets, audioHints)
}

// selectSet prefers an explicit contentType anywhere in the list, then falls
// back to sniffing each set's first representation in order.
func selectSet(sets []AdaptationSet, h trackHints) (*AdaptationSet, bool) {
	for i := range sets {
		if strings.EqualFold(strings.TrimSpace(sets[i].ContentType), h.contentType) {
			return &sets[i], true
		}
	}

	for i := range sets {
		if len(sets[i].Representations) == 0 {
			continue
		}
		first := sets[i].Representations[0]

		mime := first.MimeType
		if mime == "" {
			mime = sets[i].MimeType
		}
		codecs := first.Codecs
		if codecs == "" {
			codecs = sets[i].Codecs
		}

		if strings.Contains(strings.ToLower(mime), h.mime) || strings.Contains(strings.ToLower(codecs), h.codec) {
			return &sets[i], true
		}
	}
	return nil, false
}

// PickBestRepresentation returns the highest-bandwidth representation.
// The first-listed one wins ties.
func PickBestRepresentation(set *AdaptationSet) (*Representation, bool) {
	if set == nil || len(set.Representations) == 0 {
		return nil, false
	}

	best := 0
	for i := 1; i < len(set.Representations); i++ {
		if set.Representations[i].BandwidthBPS() > set.Representations[best].BandwidthBPS() {
			best = i
		}
	}
	return &set.Representations[best], true
}
