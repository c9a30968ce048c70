package model

import "strings"

const (
	RiskScoreMin = 1
	RiskScoreMax = 5
	RiskLevels   = RiskScoreMax - RiskScoreMin + 1
)

// ImpactLabels is indexed by bucket position, highest impact first.
var ImpactLabels = [RiskLevels]string{"Extreme (5)", "Very High (4)", "High (3)", "Medium (2)", "Low (1)"}

// LikelihoodLabels is indexed by slot position (likelihood - 1).
var LikelihoodLabels = [RiskLevels]string{"Rare", "Unlikely", "Even Chance", "Likely", "Almost Certain"}

// RiskItem is one classification input. Impact and Likelihood are scored 1..5.
type RiskItem struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Groups     string `json:"groups"`
	Impact     int    `json:"impact"`
	Likelihood int    `json:"likelihood"`
	URLParam   string `json:"urlParam"`
}

type RiskSlot struct {
	Likelihood string   `json:"likelihood"`
	IDs        []string `json:"ids"`
	Labels     []string `json:"labels"`
}

func (s RiskSlot) Empty() bool {
	return len(s.IDs) == 0
}

// RiskBucket is one impact row of the 5x5 grid.
type RiskBucket struct {
	Label     string               `json:"label"`
	Impact    int                  `json:"impact"`
	Slots     [RiskLevels]RiskSlot `json:"slots"`
	Groups    []string             `json:"groups"`
	URLParams []string             `json:"urlParams"`
}

// RiskSlotView and RiskBucketView carry the delimited strings the chart renders.
type RiskSlotView struct {
	Likelihood string `json:"likelihood"`
	IDs        string `json:"ids"`
	Labels     string `json:"labels"`
}

type RiskBucketView struct {
	Label    string                   `json:"label"`
	Impact   int                      `json:"impact"`
	Slots    [RiskLevels]RiskSlotView `json:"slots"`
	Groups   string                   `json:"groups"`
	URLParam string                   `json:"urlParam"`
}

// Joined renders slot ids/labels comma-separated and bucket groups/urlParams
// semicolon-separated.
func (b RiskBucket) Joined() RiskBucketView {
	view := RiskBucketView{
		Label:    b.Label,
		Impact:   b.Impact,
		Groups:   strings.Join(b.Groups, ";"),
		URLParam: strings.Join(b.URLParams, ";"),
	}
	for i, slot := range b.Slots {
		view.Slots[i] = RiskSlotView{
			Likelihood: slot.Likelihood,
			IDs:        strings.Join(slot.IDs, ","),
			Labels:     strings.Join(slot.Labels, ","),
		}
	}
	return view
}
