package crawlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const similarPage = `<html><body>
<div id="released">
  <div class="similar_grid_item"><a href="https://store.steampowered.com/app/400/Portal/?snr=1_rec">Portal</a></div>
</div>
<div id="topselling3">
  <div class="row">
    <div class="similar_grid_item"><a href="https://store.steampowered.com/app/70/HalfLife/">HL</a></div>
  </div>
</div>
<section>
  <div class="similar_grid_item"><a href="https://store.steampowered.com/bundle/234/Valve_Complete/">Bundle</a></div>
</section>
<div id="123">
  <div class="similar_grid_item"><span>no link</span></div>
</div>
</body></html>`

func TestSimilarItemExtractor(t *testing.T) {
	candidates, err := NewSimilarItemExtractor().Extract([]byte(similarPage))
	require.NoError(t, err)
	require.Len(t, candidates, 4)

	assert.Equal(t, RawCandidate{
		ID:          "400",
		DisplayName: "Portal",
		Link:        "https://store.steampowered.com/app/400/Portal/?snr=1_rec",
		Category:    "released",
	}, candidates[0])

	assert.Equal(t, "70", candidates[1].ID)
	assert.Equal(t, "HalfLife", candidates[1].DisplayName)
	assert.Equal(t, "topselling", candidates[1].Category)

	// 链接不是应用页面
	assert.Empty(t, candidates[2].ID)
	assert.Equal(t, "unknown", candidates[2].Category)

	// 没有链接
	assert.Empty(t, candidates[3].ID)
	assert.Empty(t, candidates[3].Link)
	assert.Equal(t, "unknown", candidates[3].Category)
}

func TestSimilarItemExtractorNoItems(t *testing.T) {
	candidates, err := NewSimilarItemExtractor().Extract([]byte("<html><body><p>nothing</p></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, candidates)

	candidates, err = NewSimilarItemExtractor().Extract(nil)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestParseAppLink(t *testing.T) {
	tests := []struct {
		href     string
		wantID   string
		wantName string
	}{
		{"https://store.steampowered.com/app/620/Portal_2/", "620", "Portal_2"},
		{"https://store.steampowered.com/app/620/Portal_2?snr=1", "620", "Portal_2"},
		{"/app/10/CounterStrike/", "10", "CounterStrike"},
		{"https://store.steampowered.com/app/620/", "", ""},
		{"https://store.steampowered.com/sub/620/Pack/", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			id, name := ParseAppLink(tt.href)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestRawCandidateToItem(t *testing.T) {
	item, err := RawCandidate{ID: "400", DisplayName: "Portal", Link: "l", Category: "released"}.ToItem(2)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Depth)

	_, err = RawCandidate{ID: "400", Category: ""}.ToItem(1)
	assert.Error(t, err)
}
