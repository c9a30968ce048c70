package service

import (
	"testing"

	"github.com/GoPolymarket/vaultscope/internal/model"
	"github.com/GoPolymarket/vaultscope/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyEmpty(t *testing.T) {
	buckets, err := Classify(nil)
	require.NoError(t, err)
	require.Len(t, buckets, 5)

	wantLabels := []string{"Extreme (5)", "Very High (4)", "High (3)", "Medium (2)", "Low (1)"}
	for i, b := range buckets {
		assert.Equal(t, wantLabels[i], b.Label)
		assert.Equal(t, 5-i, b.Impact)
		assert.Empty(t, b.Groups)
		assert.Empty(t, b.URLParams)
		for j, slot := range b.Slots {
			assert.Equal(t, model.LikelihoodLabels[j], slot.Likelihood)
			assert.True(t, slot.Empty())
			assert.Empty(t, slot.Labels)
		}
	}
}

func TestClassifySingleItem(t *testing.T) {
	buckets, err := Classify([]model.RiskItem{
		{ID: "1", Label: "X", Groups: "g", Impact: 5, Likelihood: 1, URLParam: "u"},
	})
	require.NoError(t, err)

	extreme := buckets[0]
	assert.Equal(t, "Extreme (5)", extreme.Label)
	assert.Equal(t, "Rare", extreme.Slots[0].Likelihood)
	assert.Equal(t, []string{"1"}, extreme.Slots[0].IDs)
	assert.Equal(t, []string{"X"}, extreme.Slots[0].Labels)
	assert.Equal(t, []string{"g"}, extreme.Groups)
	assert.Equal(t, []string{"u"}, extreme.URLParams)

	for i, b := range buckets {
		for j, slot := range b.Slots {
			if i == 0 && j == 0 {
				continue
			}
			assert.True(t, slot.Empty(), "bucket %d slot %d", i, j)
		}
		if i > 0 {
			assert.Empty(t, b.Groups)
		}
	}
}

func TestClassifyOrderAndDuplicates(t *testing.T) {
	items := []model.RiskItem{
		{ID: "a", Label: "Curve", Groups: "stables", Impact: 3, Likelihood: 4, URLParam: "p1"},
		{ID: "b", Label: "Aave", Groups: "lending", Impact: 3, Likelihood: 2, URLParam: "p2"},
		{ID: "a", Label: "Curve", Groups: "stables", Impact: 3, Likelihood: 4, URLParam: "p1"},
		{ID: "c", Label: "Maker", Groups: "cdp", Impact: 1, Likelihood: 5, URLParam: "p3"},
	}
	buckets, err := Classify(items)
	require.NoError(t, err)

	high := buckets[2]
	assert.Equal(t, "High (3)", high.Label)
	assert.Equal(t, []string{"a", "a"}, high.Slots[3].IDs, "duplicates are kept")
	assert.Equal(t, []string{"Curve", "Curve"}, high.Slots[3].Labels)
	assert.Equal(t, []string{"b"}, high.Slots[1].IDs)
	assert.Equal(t, []string{"stables", "lending", "stables"}, high.Groups, "groups follow input order across likelihoods")
	assert.Equal(t, []string{"p1", "p2", "p1"}, high.URLParams)

	low := buckets[4]
	assert.Equal(t, []string{"c"}, low.Slots[4].IDs)
	assert.Equal(t, "Almost Certain", low.Slots[4].Likelihood)
}

func TestClassifyRejectsOutOfRange(t *testing.T) {
	for _, item := range []model.RiskItem{
		{ID: "x", Impact: 0, Likelihood: 1},
		{ID: "x", Impact: 6, Likelihood: 1},
		{ID: "x", Impact: 3, Likelihood: 0},
		{ID: "x", Impact: 3, Likelihood: 7},
	} {
		_, err := Classify([]model.RiskItem{{ID: "ok", Impact: 2, Likelihood: 2}, item})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidArgument))
	}
}

func TestClassifyIsStateless(t *testing.T) {
	first, err := Classify([]model.RiskItem{{ID: "1", Label: "X", Impact: 2, Likelihood: 2}})
	require.NoError(t, err)
	second, err := Classify(nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"1"}, first[3].Slots[1].IDs)
	assert.True(t, second[3].Slots[1].Empty())
}

func TestClassifyJoined(t *testing.T) {
	views, err := ClassifyJoined([]model.RiskItem{
		{ID: "1", Label: "X", Groups: "g1", Impact: 4, Likelihood: 3, URLParam: "u1"},
		{ID: "2", Label: "Y", Groups: "g2", Impact: 4, Likelihood: 3, URLParam: "u2"},
	})
	require.NoError(t, err)
	require.Len(t, views, 5)

	vh := views[1]
	assert.Equal(t, "Very High (4)", vh.Label)
	assert.Equal(t, "1,2", vh.Slots[2].IDs)
	assert.Equal(t, "X,Y", vh.Slots[2].Labels)
	assert.Equal(t, "g1;g2", vh.Groups)
	assert.Equal(t, "u1;u2", vh.URLParam)
	assert.Equal(t, "", views[0].Groups)
}
