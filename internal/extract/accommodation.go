package extract

import (
	"fmt"
	"strings"

	"github.com/iago/trip-planner-back/internal/domain"
)

// AccommodationCount is the fixed cardinality of a recommendation set.
const AccommodationCount = 3

type AccommodationParams struct {
	Destination    string
	Nights         int
	BudgetPerNight float64
	Currency       string
	// Range is domain.RangeAll or one RangeCategory value.
	Range string
}

// Accommodations always returns exactly AccommodationCount records. JSON is
// tried first, then prose mining; missing records are synthesised.
func Accommodations(text string, params AccommodationParams) []domain.AccommodationRecommendation {
	if params.Nights < 1 {
		params.Nights = 1
	}
	if params.Range == "" {
		params.Range = domain.RangeAll
	}

	candidates := accommodationCandidates(text)
	recommendations := make([]domain.AccommodationRecommendation, 0, AccommodationCount)
	for _, candidate := range candidates {
		if len(recommendations) == AccommodationCount {
			break
		}
		if candidate.Name == "" {
			continue
		}
		category, ok := domain.ParseRangeCategory(candidate.RangeCategory)
		if !ok {
			category = ClassifyPrice(candidate.Price, params.BudgetPerNight, params.Range)
		}
		recommendations = append(recommendations, finishRecommendation(params, candidate, category))
	}

	for len(recommendations) < AccommodationCount {
		recommendations = append(recommendations, FallbackAccommodation(params, len(recommendations)))
	}
	return recommendations
}

type accommodationCandidate struct {
	Name          string
	Type          string
	Price         float64
	Location      string
	Description   string
	WhyFits       string
	RangeCategory string
}

func accommodationCandidates(text string) []accommodationCandidate {
	if objects, ok := DecodeArray(text); ok {
		candidates := make([]accommodationCandidate, 0, len(objects))
		for _, object := range objects {
			if !hasString(object, "name") {
				continue
			}
			candidates = append(candidates, accommodationCandidate{
				Name:          stringField(object, "name"),
				Type:          stringField(object, "type"),
				Price:         amountField(object, "price_per_night"),
				Location:      stringField(object, "location"),
				Description:   stringField(object, "description"),
				WhyFits:       stringField(object, "why_fits"),
				RangeCategory: stringField(object, "range_category"),
			})
		}
		return candidates
	}

	records := MineProse(text)
	candidates := make([]accommodationCandidate, 0, len(records))
	for _, record := range records {
		candidates = append(candidates, accommodationCandidate{
			Name:        record.Name,
			Type:        record.Type,
			Price:       record.Price,
			Location:    record.Location,
			Description: record.Description,
		})
	}
	return candidates
}

func finishRecommendation(
	params AccommodationParams,
	candidate accommodationCandidate,
	category domain.RangeCategory,
) domain.AccommodationRecommendation {
	kind := strings.ToLower(candidate.Type)
	if kind == "" {
		kind = "hotel"
	}
	location := candidate.Location
	if location == "" {
		location = params.Destination
	}
	price := max(candidate.Price, 0)
	return domain.AccommodationRecommendation{
		Destination:   params.Destination,
		Name:          candidate.Name,
		Type:          kind,
		PricePerNight: price,
		Currency:      params.Currency,
		TotalCost:     price * float64(params.Nights),
		NightsCount:   params.Nights,
		Location:      location,
		Description:   candidate.Description,
		WhyFits:       candidate.WhyFits,
		RangeCategory: category,
	}
}

// ClassifyPrice places a price against the per-night anchor. A specific
// requested range always wins.
func ClassifyPrice(price, budgetPerNight float64, requested string) domain.RangeCategory {
	if category, ok := domain.ParseRangeCategory(requested); ok {
		return category
	}
	switch {
	case price <= budgetPerNight*0.6:
		return domain.RangeBudget
	case price <= budgetPerNight*1.2:
		return domain.RangeMidRange
	default:
		return domain.RangeLuxury
	}
}

var fallbackCycle = []domain.RangeCategory{domain.RangeBudget, domain.RangeMidRange, domain.RangeLuxury}

// FallbackAccommodation synthesises the record at position index of the set.
func FallbackAccommodation(params AccommodationParams, index int) domain.AccommodationRecommendation {
	category, ok := domain.ParseRangeCategory(params.Range)
	if !ok {
		category = fallbackCycle[index%len(fallbackCycle)]
	}

	var candidate accommodationCandidate
	switch category {
	case domain.RangeBudget:
		candidate = accommodationCandidate{
			Name:        params.Destination + " Budget Hostel",
			Type:        "hostel",
			Price:       float64(max(int(params.BudgetPerNight*0.5), 20)),
			Description: "A clean and comfortable budget accommodation option with basic amenities.",
		}
	case domain.RangeMidRange:
		candidate = accommodationCandidate{
			Name:        params.Destination + " Central Hotel",
			Type:        "hotel",
			Price:       float64(max(int(params.BudgetPerNight), 50)),
			Description: "A well-located hotel with good amenities and comfortable rooms.",
		}
	default:
		candidate = accommodationCandidate{
			Name:        params.Destination + " Luxury Resort",
			Type:        "hotel",
			Price:       float64(max(int(params.BudgetPerNight*1.8), 100)),
			Description: "An upscale property offering premium amenities and exceptional service.",
		}
	}
	candidate.WhyFits = fmt.Sprintf("This %s option fits within the trip budget and offers good value.", category)
	return finishRecommendation(params, candidate, category)
}
