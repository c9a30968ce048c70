package service

import (
	"github.com/GoPolymarket/vaultscope/internal/model"
	"github.com/GoPolymarket/vaultscope/internal/pkg/apperrors"
)

// Classify groups items into the 5x5 impact/likelihood grid. Buckets come
// back highest impact first. Any score outside 1..5 rejects the whole call.
// Classify keeps no state between calls.
func Classify(items []model.RiskItem) ([]model.RiskBucket, error) {
	for i, item := range items {
		if !validScore(item.Impact) {
			return nil, apperrors.NewInvalidArgument("risk item %d (%s): impact %d out of range 1..5", i, item.ID, item.Impact)
		}
		if !validScore(item.Likelihood) {
			return nil, apperrors.NewInvalidArgument("risk item %d (%s): likelihood %d out of range 1..5", i, item.ID, item.Likelihood)
		}
	}

	buckets := newRiskBuckets()
	for _, item := range items {
		b := &buckets[model.RiskScoreMax-item.Impact]
		b.Groups = append(b.Groups, item.Groups)
		b.URLParams = append(b.URLParams, item.URLParam)

		slot := &b.Slots[item.Likelihood-model.RiskScoreMin]
		slot.IDs = append(slot.IDs, item.ID)
		slot.Labels = append(slot.Labels, item.Label)
	}
	return buckets, nil
}

// ClassifyJoined is Classify rendered for the chart.
func ClassifyJoined(items []model.RiskItem) ([]model.RiskBucketView, error) {
	buckets, err := Classify(items)
	if err != nil {
		return nil, err
	}
	views := make([]model.RiskBucketView, len(buckets))
	for i, b := range buckets {
		views[i] = b.Joined()
	}
	return views, nil
}

func newRiskBuckets() []model.RiskBucket {
	buckets := make([]model.RiskBucket, model.RiskLevels)
	for i := range buckets {
		buckets[i] = model.RiskBucket{
			Label:     model.ImpactLabels[i],
			Impact:    model.RiskScoreMax - i,
			Groups:    []string{},
			URLParams: []string{},
		}
		for j := range buckets[i].Slots {
			buckets[i].Slots[j] = model.RiskSlot{
				Likelihood: model.LikelihoodLabels[j],
				IDs:        []string{},
				Labels:     []string{},
			}
		}
	}
	return buckets
}

func validScore(score int) bool {
	return score >= model.RiskScoreMin && score <= model.RiskScoreMax
}
