package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timeParse(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func TestCollectedItem_ValidateAndNormalize(t *testing.T) {
	tests := []struct {
		name    string
		item    CollectedItem
		wantErr string
	}{
		{
			name: "valid with uuid",
			item: CollectedItem{UUID: uuid.New(), Token: "t", Content: "body"},
		},
		{
			name: "missing uuid is auto-filled",
			item: CollectedItem{Token: "t", Content: "body"},
		},
		{
			name:    "missing token",
			item:    CollectedItem{Content: "body"},
			wantErr: "token",
		},
		{
			name:    "empty content",
			item:    CollectedItem{Token: "t", Content: "   "},
			wantErr: "content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.ValidateAndNormalize()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.NotEqual(t, uuid.Nil, tt.item.UUID)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantErr, vErr.Field)
		})
	}
}

func TestValidateAndNormalize_Idempotent(t *testing.T) {
	item := CollectedItem{Token: "t", Content: "body"}
	require.NoError(t, item.ValidateAndNormalize())
	assigned := item.UUID

	// A second pass must not re-assign the UUID or start failing
	require.NoError(t, item.ValidateAndNormalize())
	assert.Equal(t, assigned, item.UUID)
}

func TestProcessedItem_Validate(t *testing.T) {
	valid := ProcessedItem{UUID: uuid.New(), EventTitle: "t", EventText: "x"}
	assert.NoError(t, valid.Validate())

	// A business drop (no event text) is valid even without titles
	drop := ProcessedItem{UUID: uuid.New()}
	assert.NoError(t, drop.Validate())

	missing := ProcessedItem{EventTitle: "t"}
	assert.Error(t, missing.Validate())

	untitled := ProcessedItem{UUID: uuid.New(), EventText: "x"}
	assert.Error(t, untitled.Validate())
}

func TestProcessedItem_WireNames(t *testing.T) {
	// Submitters may send lowercase or all-caps field names; both must bind.
	lower := []byte(`{"uuid":"6ba7b810-9dad-11d1-80b4-00c04fd430c8","event_title":"T","event_text":"X","rate":{"impact":0.5}}`)
	upper := []byte(`{"UUID":"6ba7b810-9dad-11d1-80b4-00c04fd430c8","EVENT_TITLE":"T","EVENT_TEXT":"X","RATE":{"impact":0.5}}`)

	var a, b ProcessedItem
	require.NoError(t, json.Unmarshal(lower, &a))
	require.NoError(t, json.Unmarshal(upper, &b))

	assert.Equal(t, a, b)
	assert.Equal(t, "T", a.EventTitle)
	assert.InDelta(t, 0.5, a.Rate["impact"], 1e-9)
}

func TestRateKeyOrder(t *testing.T) {
	raw := []byte(`{
		"uuid": "x",
		"rate": {"credibility": 0.5, "impact": 0.5, "novelty": 0.3},
		"nested": {"rate": "decoy"}
	}`)
	rate := Rate{"credibility": 0.5, "impact": 0.5, "novelty": 0.3}

	order, err := RateKeyOrder(raw, rate)
	require.NoError(t, err)
	assert.Equal(t, []string{"credibility", "impact", "novelty"}, order)
}

func TestRateKeyOrder_UppercaseKey(t *testing.T) {
	raw := []byte(`{"RATE": {"b": 0.2, "a": 0.9}}`)
	rate := Rate{"a": 0.9, "b": 0.2}

	order, err := RateKeyOrder(raw, rate)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, order)
}

func TestRateKeyOrder_FallsBackToMapKeys(t *testing.T) {
	// Raw bytes without a rate object: sanitization falls back to whatever
	// keys the map holds, in any order.
	rate := Rate{"only": 1.0}
	order, err := RateKeyOrder([]byte(`{}`), rate)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"only"}, order)
}

func TestMaxRate(t *testing.T) {
	rate := Rate{"impact": 0.8, "credibility": 0.8, "accuracy": 0.99, "novelty": 0.1}

	// Exclusion removes accuracy even though it scores highest; the tie
	// between impact and credibility keeps the first-seen key.
	class, score := rate.MaxRate("accuracy", []string{"impact", "credibility", "accuracy", "novelty"})
	assert.Equal(t, "impact", class)
	assert.InDelta(t, 0.8, score, 1e-9)

	// Reversed order flips the tie-break winner
	class, _ = rate.MaxRate("accuracy", []string{"credibility", "impact", "accuracy", "novelty"})
	assert.Equal(t, "credibility", class)
}

func TestMaxRate_Empty(t *testing.T) {
	class, score := Rate{}.MaxRate("accuracy", nil)
	assert.Equal(t, "", class)
	assert.Zero(t, score)
}

func TestArchivedFlag_Terminal(t *testing.T) {
	assert.True(t, FlagArchived.Terminal())
	assert.True(t, FlagDropped.Terminal())
	assert.True(t, FlagError.Terminal())
	assert.False(t, FlagRetry.Terminal())
	assert.False(t, FlagNone.Terminal())
}

func TestRecommendationSet_TruncatedHour(t *testing.T) {
	set := RecommendationSet{}
	var err error
	set.GeneratedDatetime, err = timeParse("2026-03-01T14:37:22Z")
	require.NoError(t, err)

	want, err := timeParse("2026-03-01T14:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, want, set.TruncatedHour())
}

func TestRecommendationSet_RoundTrip(t *testing.T) {
	set := RecommendationSet{
		Recommendations:        []ArchivedItem{{ProcessedItem: ProcessedItem{UUID: uuid.New(), EventTitle: "t", EventText: "x"}}},
		CandidateIntelligences: []uuid.UUID{uuid.New(), uuid.New()},
	}
	var err error
	set.GeneratedDatetime, err = timeParse("2026-03-01T14:00:00Z")
	require.NoError(t, err)

	data, err := json.Marshal(set)
	require.NoError(t, err)

	var back RecommendationSet
	require.NoError(t, json.Unmarshal(data, &back))
	if diff := cmp.Diff(set, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectedItem_RoundTrip(t *testing.T) {
	pub, err := timeParse("2026-02-11T08:00:00Z")
	require.NoError(t, err)
	item := CollectedItem{
		UUID:      uuid.New(),
		Token:     "tok",
		Source:    "https://example.com/article",
		Title:     "Title",
		Authors:   []string{"a1", "a2"},
		Content:   "body",
		PubTime:   &pub,
		Informant: "informant",
	}

	data, err := json.Marshal(item)
	require.NoError(t, err)

	var back CollectedItem
	require.NoError(t, json.Unmarshal(data, &back))
	if diff := cmp.Diff(item, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
