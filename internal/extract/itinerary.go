package extract

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/iago/trip-planner-back/internal/domain"
)

// ItineraryItems extracts itinerary items. Items without a title are dropped
// and OrderIndex is reassigned densely in output order. ok is false only when
// no JSON array could be found at all.
func ItineraryItems(text string) (items []domain.ItineraryItem, ok bool) {
	objects, ok := DecodeArray(text)
	if !ok {
		return nil, false
	}

	items = make([]domain.ItineraryItem, 0, len(objects))
	for _, object := range objects {
		if !hasString(object, "title") {
			continue
		}
		items = append(items, domain.ItineraryItem{
			DayNumber:   intField(object, "day_number"),
			OrderIndex:  len(items),
			Date:        stringField(object, "date"),
			StartTime:   NormalizeClock(stringField(object, "start_time")),
			EndTime:     NormalizeClock(stringField(object, "end_time")),
			Title:       stringField(object, "title"),
			Description: stringField(object, "description"),
			Location:    stringField(object, "location"),
			Type:        domain.ParseItemType(stringField(object, "type")),
			Cost:        int(amountField(object, "cost")),
		})
	}
	return items, true
}

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?$`)

// NormalizeClock renders "9:00" or "09:00:00" as "09:00". Unparseable input
// is returned unchanged.
func NormalizeClock(value string) string {
	matches := clockPattern.FindStringSubmatch(value)
	if len(matches) != 3 {
		return value
	}
	hour, _ := strconv.Atoi(matches[1])
	minute, _ := strconv.Atoi(matches[2])
	if hour > 23 || minute > 59 {
		return value
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// FallbackDay is the whole-day item used when a day could not be generated.
func FallbackDay(destination string) domain.ItineraryItem {
	if destination == "" {
		destination = "the destination"
	}
	return domain.ItineraryItem{
		StartTime:   "09:00",
		EndTime:     "17:00",
		Title:       "Explore " + destination,
		Description: "Spend the day exploring " + destination + " and its main attractions.",
		Location:    destination,
		Type:        domain.ItemTypeActivity,
	}
}
