package domain

import "strings"

type RangeCategory string

const (
	RangeBudget   RangeCategory = "budget"
	RangeMidRange RangeCategory = "mid-range"
	RangeLuxury   RangeCategory = "luxury"
)

// RangeAll is a request value only; no recommendation carries it.
const RangeAll = "all"

func ParseRangeCategory(value string) (RangeCategory, bool) {
	switch RangeCategory(strings.ToLower(strings.TrimSpace(value))) {
	case RangeBudget:
		return RangeBudget, true
	case RangeMidRange:
		return RangeMidRange, true
	case RangeLuxury:
		return RangeLuxury, true
	default:
		return "", false
	}
}

// AccommodationRecommendation is ephemeral; it is never persisted.
type AccommodationRecommendation struct {
	Destination   string        `json:"destination"`
	Name          string        `json:"name"`
	Type          string        `json:"type"`
	PricePerNight float64       `json:"price_per_night"`
	Currency      string        `json:"currency"`
	TotalCost     float64       `json:"total_cost"`
	NightsCount   int           `json:"nights_count"`
	Location      string        `json:"location"`
	Description   string        `json:"description"`
	WhyFits       string        `json:"why_fits"`
	RangeCategory RangeCategory `json:"range_category"`
}

type TripNameDescription struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
