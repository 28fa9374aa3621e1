package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iago/trip-planner-back/internal/domain"
)

func lisbonParams() AccommodationParams {
	return AccommodationParams{
		Destination:    "Lisbon",
		Nights:         4,
		BudgetPerNight: 100,
		Currency:       "EUR",
		Range:          domain.RangeAll,
	}
}

func TestAccommodationsGarbageYieldsThreeFallbacks(t *testing.T) {
	recommendations := Accommodations("the service is down", lisbonParams())
	require.Len(t, recommendations, 3)

	assert.Equal(t, "Lisbon Budget Hostel", recommendations[0].Name)
	assert.Equal(t, domain.RangeBudget, recommendations[0].RangeCategory)
	assert.Equal(t, 50.0, recommendations[0].PricePerNight)
	assert.Equal(t, "hostel", recommendations[0].Type)

	assert.Equal(t, "Lisbon Central Hotel", recommendations[1].Name)
	assert.Equal(t, 100.0, recommendations[1].PricePerNight)

	assert.Equal(t, "Lisbon Luxury Resort", recommendations[2].Name)
	assert.Equal(t, 180.0, recommendations[2].PricePerNight)
	assert.Equal(t, 720.0, recommendations[2].TotalCost)
	assert.Equal(t, "This luxury option fits within the trip budget and offers good value.", recommendations[2].WhyFits)

	for _, recommendation := range recommendations {
		assert.Equal(t, "EUR", recommendation.Currency)
		assert.Equal(t, 4, recommendation.NightsCount)
		assert.Equal(t, "Lisbon", recommendation.Location)
	}
}

func TestAccommodationsFallbackFloors(t *testing.T) {
	params := lisbonParams()
	params.BudgetPerNight = 10

	recommendations := Accommodations("", params)
	assert.Equal(t, 20.0, recommendations[0].PricePerNight)
	assert.Equal(t, 50.0, recommendations[1].PricePerNight)
	assert.Equal(t, 100.0, recommendations[2].PricePerNight)
}

func TestAccommodationsSpecificRangeFallback(t *testing.T) {
	params := lisbonParams()
	params.Range = string(domain.RangeLuxury)

	recommendations := Accommodations("", params)
	require.Len(t, recommendations, 3)
	for _, recommendation := range recommendations {
		assert.Equal(t, domain.RangeLuxury, recommendation.RangeCategory)
		assert.Equal(t, "Lisbon Luxury Resort", recommendation.Name)
	}
}

func TestAccommodationsParsesAndTruncates(t *testing.T) {
	text := "```json\n" + `[
		{"name":"Home Lisbon Hostel","type":"Hostel","price_per_night":"35","currency":"USD","location":"Baixa"},
		{"name":"Memmo Alfama","price_per_night":110,"range_category":"luxury"},
		{"type":"hotel","price_per_night":90},
		{"name":"Pestana Palace","price_per_night":400},
		{"name":"Fourth valid, truncated","price_per_night":80}
	]` + "\n```"

	recommendations := Accommodations(text, lisbonParams())
	require.Len(t, recommendations, 3)

	assert.Equal(t, "Home Lisbon Hostel", recommendations[0].Name)
	assert.Equal(t, "hostel", recommendations[0].Type)
	assert.Equal(t, domain.RangeBudget, recommendations[0].RangeCategory)
	assert.Equal(t, "EUR", recommendations[0].Currency)
	assert.Equal(t, 140.0, recommendations[0].TotalCost)

	assert.Equal(t, domain.RangeLuxury, recommendations[1].RangeCategory, "explicit category is kept")
	assert.Equal(t, "Lisbon", recommendations[1].Location)

	assert.Equal(t, "Pestana Palace", recommendations[2].Name)
	assert.Equal(t, domain.RangeLuxury, recommendations[2].RangeCategory)
}

func TestAccommodationsPadsShortLists(t *testing.T) {
	recommendations := Accommodations(`[{"name":"Casa do Bairro","price_per_night":95}]`, lisbonParams())
	require.Len(t, recommendations, 3)
	assert.Equal(t, "Casa do Bairro", recommendations[0].Name)
	assert.Equal(t, domain.RangeMidRange, recommendations[0].RangeCategory)
	assert.Equal(t, "Lisbon Central Hotel", recommendations[1].Name)
	assert.Equal(t, "Lisbon Luxury Resort", recommendations[2].Name)
}

func TestAccommodationsNegativePriceIsClamped(t *testing.T) {
	recommendations := Accommodations(`[{"name":"Weird Inn","price_per_night":-50}]`, lisbonParams())
	require.Len(t, recommendations, 3)

	assert.Equal(t, "Weird Inn", recommendations[0].Name)
	assert.Equal(t, 0.0, recommendations[0].PricePerNight)
	assert.Equal(t, 0.0, recommendations[0].TotalCost)
	for _, recommendation := range recommendations {
		assert.GreaterOrEqual(t, recommendation.PricePerNight, 0.0)
		assert.GreaterOrEqual(t, recommendation.TotalCost, 0.0)
	}
}

func TestAccommodationsFromProse(t *testing.T) {
	text := `Here are some options for your stay.

1. **Lost Inn Lisbon** - a lively hostel in Bairro Alto. Around €30 per night.

2. The Lumiares Hotel offers stylish suites. Location: Bairro Alto, Lisbon. Prices start at 180 EUR.
`
	recommendations := Accommodations(text, lisbonParams())
	require.Len(t, recommendations, 3)

	assert.Equal(t, "Lost Inn Lisbon", recommendations[0].Name)
	assert.Equal(t, "hostel", recommendations[0].Type)
	assert.Equal(t, 30.0, recommendations[0].PricePerNight)
	assert.Equal(t, domain.RangeBudget, recommendations[0].RangeCategory)

	assert.Equal(t, "The Lumiares Hotel", recommendations[1].Name)
	assert.Equal(t, 180.0, recommendations[1].PricePerNight)
	assert.Equal(t, "Bairro Alto, Lisbon", recommendations[1].Location)
	assert.Equal(t, domain.RangeLuxury, recommendations[1].RangeCategory)

	assert.Equal(t, "Lisbon Luxury Resort", recommendations[2].Name)
}

func TestClassifyPrice(t *testing.T) {
	assert.Equal(t, domain.RangeBudget, ClassifyPrice(60, 100, domain.RangeAll))
	assert.Equal(t, domain.RangeMidRange, ClassifyPrice(120, 100, domain.RangeAll))
	assert.Equal(t, domain.RangeLuxury, ClassifyPrice(121, 100, domain.RangeAll))
	assert.Equal(t, domain.RangeBudget, ClassifyPrice(900, 100, "budget"))
}
