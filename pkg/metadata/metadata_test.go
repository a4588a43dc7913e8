package metadata

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igfetch/pkg/media"
)

func samplePost() *media.Item {
	return &media.Item{
		ID:        "100",
		Shortcode: "C0abc",
		Owner:     media.Owner{ID: "7", Username: "alice"},
		Caption:   "line one\nline two",
		TakenAt:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Children: []media.Item{
			{ID: "101", DisplayResources: []media.Resource{{URL: "a", Width: 1080, Height: 1350}}},
			{ID: "102", IsVideo: true, DashManifest: "<MPD/>", VideoURL: "v"},
			{Children: []media.Item{{ID: "103", DisplayResources: []media.Resource{{URL: "b", Width: 640, Height: 640}}}}},
		},
	}
}

func TestFromItem(t *testing.T) {
	report := &media.Report{
		Produced: 2,
		Failed:   1,
		Files:    []string{"/out/alice/alice_C0abc_1.jpg", "/out/alice/alice_C0abc_3_1.jpg"},
	}

	meta := FromItem(samplePost(), "alice_C0abc", report)

	assert.Equal(t, "https://www.instagram.com/p/C0abc/", meta.URL)
	assert.Equal(t, "carousel", meta.Kind)
	assert.Equal(t, "alice", meta.Owner.Username)
	assert.Equal(t, []string{"alice_C0abc_1.jpg", "alice_C0abc_3_1.jpg"}, meta.Files)
	assert.Equal(t, ResultSet{Produced: 2, Failed: 1}, meta.Result)

	require.Len(t, meta.Leaves, 3)
	assert.Equal(t, "alice_C0abc_1.jpg", meta.Leaves[0].Name)
	assert.Equal(t, "a", meta.Leaves[0].SourceURL)
	assert.Equal(t, "alice_C0abc_2.mp4", meta.Leaves[1].Name)
	assert.True(t, meta.Leaves[1].HasDASH)
	assert.Equal(t, "alice_C0abc_3_1.jpg", meta.Leaves[2].Name)
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	meta := FromItem(samplePost(), "alice_C0abc", nil)

	path, err := meta.Save(dir, "alice_C0abc")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "alice_C0abc.json"), path)
	assert.True(t, MetadataExists(dir, "alice_C0abc"))
	assert.False(t, MetadataExists(dir, "other"))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, meta.Shortcode, loaded.Shortcode)
	assert.Equal(t, meta.Leaves, loaded.Leaves)
	assert.True(t, meta.TakenAt.Equal(loaded.TakenAt))
	assert.Empty(t, loaded.Files)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestFormatCaption(t *testing.T) {
	assert.Equal(t, "line one line two", FormatCaption("line one\nline two", 100))
	assert.Equal(t, "héllo w...", FormatCaption("héllo wörld", 10))
	assert.Equal(t, "", FormatCaption("", 10))
}

func TestGetAspectRatio(t *testing.T) {
	tests := []struct {
		w, h int
		want string
	}{
		{1920, 1080, "16:9"},
		{1080, 1080, "1:1"},
		{1080, 1350, "4:5"},
		{1080, 1920, "9:16"},
		{100, 0, "unknown"},
		{300, 100, "3.00:1"},
	}

	for _, tt := range tests {
		l := Leaf{Width: tt.w, Height: tt.h}
		assert.Equal(t, tt.want, l.GetAspectRatio())
	}
}
