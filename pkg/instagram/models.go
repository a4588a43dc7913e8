package instagram

import (
	"bytes"
	"encoding/json"
)

// PostResponse covers the envelopes the post endpoint has been seen to return
type PostResponse struct {
	GraphQL *struct {
		ShortcodeMedia *ShortcodeMedia `json:"shortcode_media"`
	} `json:"graphql"`
	Data *struct {
		XDTShortcodeMedia *ShortcodeMedia `json:"xdt_shortcode_media"`
		ShortcodeMedia    *ShortcodeMedia `json:"shortcode_media"`
	} `json:"data"`
	Items        []V1Item `json:"items"`
	RequireLogin bool     `json:"require_login"`
	Message      string   `json:"message"`
	Status       string   `json:"status"`
}

// ShortcodeMedia is the GraphQL post node
type ShortcodeMedia struct {
	ID                 string            `json:"id"`
	Shortcode          string            `json:"shortcode"`
	Typename           string            `json:"__typename"`
	IsVideo            bool              `json:"is_video"`
	VideoURL           string            `json:"video_url"`
	DashInfo           *DashInfo         `json:"dash_info"`
	DisplayURL         string            `json:"display_url"`
	DisplayResources   []DisplayResource `json:"display_resources"`
	Dimensions         Dimensions        `json:"dimensions"`
	Owner              GraphQLOwner      `json:"owner"`
	TakenAtTimestamp   int64             `json:"taken_at_timestamp"`
	EdgeMediaToCaption struct {
		Edges []struct {
			Node struct {
				Text string `json:"text"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"edge_media_to_caption"`
	EdgeSidecarToChildren *struct {
		Edges []struct {
			Node ShortcodeMedia `json:"node"`
		} `json:"edges"`
	} `json:"edge_sidecar_to_children"`
}

// DashInfo carries the inline DASH manifest of a GraphQL video
type DashInfo struct {
	IsDashEligible    bool   `json:"is_dash_eligible"`
	VideoDashManifest string `json:"video_dash_manifest"`
}

// DisplayResource is one rendition of a GraphQL image
type DisplayResource struct {
	Src          string `json:"src"`
	ConfigWidth  int    `json:"config_width"`
	ConfigHeight int    `json:"config_height"`
}

// Dimensions is the original size of a GraphQL node
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GraphQLOwner is the poster of a GraphQL node
type GraphQLOwner struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// V1Item is a post from the private v1 API
type V1Item struct {
	ID                string          `json:"id"`
	PK                FlexibleString  `json:"pk"`
	Code              string          `json:"code"`
	MediaType         int             `json:"media_type"`
	TakenAt           int64           `json:"taken_at"`
	User              V1User          `json:"user"`
	Caption           *V1Caption      `json:"caption"`
	ImageVersions2    *ImageVersions2 `json:"image_versions2"`
	VideoVersions     []V1Candidate   `json:"video_versions"`
	VideoDashManifest string          `json:"video_dash_manifest"`
	CarouselMedia     []V1Item        `json:"carousel_media"`
}

// v1 media_type values
const (
	V1MediaImage    = 1
	V1MediaVideo    = 2
	V1MediaCarousel = 8
)

// V1User is the poster of a v1 item
type V1User struct {
	PK       FlexibleString `json:"pk"`
	Username string         `json:"username"`
	FullName string         `json:"full_name"`
}

// V1Caption holds a v1 caption
type V1Caption struct {
	Text string `json:"text"`
}

// ImageVersions2 lists the image candidates of a v1 item
type ImageVersions2 struct {
	Candidates []V1Candidate `json:"candidates"`
}

// V1Candidate is one image or video rendition of a v1 item
type V1Candidate struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// FlexibleString accepts a JSON string or number
type FlexibleString string

func (s *FlexibleString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexibleString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = FlexibleString(n.String())
	return nil
}

func (s FlexibleString) String() string { return string(s) }
