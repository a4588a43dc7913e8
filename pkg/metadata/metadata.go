package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"igfetch/pkg/instagram"
	"igfetch/pkg/media"
	"igfetch/pkg/storage"
)

// PostMetadata is the info sidecar written next to a post's files
type PostMetadata struct {
	// Core identifiers
	ID        string `json:"id"`
	Shortcode string `json:"shortcode"`
	URL       string `json:"url"`
	Kind      string `json:"kind"`

	// Timestamps
	TakenAt      time.Time `json:"taken_at,omitempty"`
	DownloadedAt time.Time `json:"downloaded_at"`

	Caption string `json:"caption,omitempty"`
	Owner   Owner  `json:"owner"`

	Leaves []Leaf    `json:"leaves"`
	Files  []string  `json:"files"`
	Result ResultSet `json:"result"`
}

// Owner represents the media owner
type Owner struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
}

// Leaf describes one downloadable node of the post
type Leaf struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	ID        string `json:"id,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
	HasDASH   bool   `json:"has_dash,omitempty"`
}

// ResultSet mirrors the resolver's counters
type ResultSet struct {
	Produced    int `json:"produced"`
	Failed      int `json:"failed"`
	Unavailable int `json:"unavailable"`
	Skipped     int `json:"skipped"`
}

// FromItem builds the sidecar for item resolved under baseName
func FromItem(item *media.Item, baseName string, report *media.Report) *PostMetadata {
	meta := &PostMetadata{
		ID:           item.ID,
		Shortcode:    item.Shortcode,
		URL:          instagram.GetPostURL(item.Shortcode),
		Kind:         item.Kind().String(),
		TakenAt:      item.TakenAt,
		DownloadedAt: time.Now().UTC(),
		Caption:      item.Caption,
		Owner: Owner{
			ID:       item.Owner.ID,
			Username: item.Owner.Username,
			FullName: item.Owner.FullName,
		},
		Leaves: collectLeaves(item, baseName, nil),
		Files:  []string{},
	}

	if report != nil {
		for _, f := range report.Files {
			meta.Files = append(meta.Files, filepath.Base(f))
		}
		meta.Result = ResultSet{
			Produced:    report.Produced,
			Failed:      report.Failed,
			Unavailable: report.Unavailable,
			Skipped:     report.Skipped,
		}
	}
	return meta
}

// collectLeaves follows the resolver's naming so each leaf lines up with its file
func collectLeaves(item *media.Item, name string, out []Leaf) []Leaf {
	if item.Kind() == media.KindCarousel {
		for i := range item.Children {
			out = collectLeaves(&item.Children[i], name+"_"+strconv.Itoa(i+1), out)
		}
		return out
	}

	leaf := Leaf{Name: name, Kind: item.Kind().String(), ID: item.ID}
	switch item.Kind() {
	case media.KindVideo:
		leaf.Name += ".mp4"
		leaf.SourceURL = item.VideoURL
		leaf.HasDASH = item.DashManifest != ""
		if best, ok := item.BestResource(); ok {
			leaf.Width, leaf.Height = best.Width, best.Height
		}
	case media.KindImage:
		leaf.Name += ".jpg"
		best, _ := item.BestResource()
		leaf.Width, leaf.Height = best.Width, best.Height
		leaf.SourceURL = best.URL
	}
	return append(out, leaf)
}

// Path returns the sidecar location for baseName inside dir
func Path(dir, baseName string) string {
	return filepath.Join(dir, baseName+".json")
}

// Save writes the sidecar as <baseName>.json inside dir
func (m *PostMetadata) Save(dir, baseName string) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}

	path := Path(dir, baseName)
	if _, err := storage.WriteFileAtomic(path, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to write metadata file: %w", err)
	}
	return path, nil
}

// Load reads a sidecar from path
func Load(path string) (*PostMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var meta PostMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &meta, nil
}

// GetFormattedCaption returns the caption on one line, cut to maxLength runes
func (m *PostMetadata) GetFormattedCaption(maxLength int) string {
	return FormatCaption(m.Caption, maxLength)
}

// FormatCaption flattens newlines and truncates to maxLength runes
func FormatCaption(caption string, maxLength int) string {
	if caption == "" {
		return ""
	}

	runes := []rune(caption)
	for i, r := range runes {
		if r == '\n' || r == '\r' || r == '\t' {
			runes[i] = ' '
		}
	}
	if maxLength > 3 && len(runes) > maxLength {
		return string(runes[:maxLength-3]) + "..."
	}
	return string(runes)
}

// GetAspectRatio returns the aspect ratio as a string
func (l *Leaf) GetAspectRatio() string {
	if l.Height == 0 {
		return "unknown"
	}

	ratio := float64(l.Width) / float64(l.Height)

	// Common aspect ratios
	switch {
	case ratio > 1.7 && ratio < 1.8:
		return "16:9"
	case ratio > 1.3 && ratio < 1.4:
		return "4:3"
	case ratio > 0.9 && ratio < 1.1:
		return "1:1"
	case ratio > 0.55 && ratio < 0.57:
		return "9:16"
	case ratio > 0.79 && ratio < 0.81:
		return "4:5"
	default:
		return fmt.Sprintf("%.2f:1", ratio)
	}
}

// MetadataExists checks if a sidecar exists for baseName inside dir
func MetadataExists(dir, baseName string) bool {
	_, err := os.Stat(Path(dir, baseName))
	return err == nil
}
