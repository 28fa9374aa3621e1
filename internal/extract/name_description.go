package extract

import (
	"strings"

	"github.com/iago/trip-planner-back/internal/domain"
)

const fallbackTripDescription = "An amazing adventure awaits!"

// NameDescription extracts {name, description}; both keys are required.
func NameDescription(text string) (domain.TripNameDescription, bool) {
	object, ok := DecodeObject(text)
	if !ok || !hasString(object, "name") || !hasString(object, "description") {
		return domain.TripNameDescription{}, false
	}
	return domain.TripNameDescription{
		Name:        stringField(object, "name"),
		Description: stringField(object, "description"),
	}, true
}

// FallbackNameDescription names the trip after its first destination, then
// its end point.
func FallbackNameDescription(trip domain.Trip) domain.TripNameDescription {
	place := trip.FirstDestination()
	if place == "" {
		place = strings.TrimSpace(trip.EndPoint)
	}
	if place == "" {
		place = "Unknown"
	}
	return domain.TripNameDescription{
		Name:        "Trip to " + place,
		Description: fallbackTripDescription,
	}
}
