package service

import (
	"strconv"
	"strings"

	"github.com/iago/trip-planner-back/internal/domain"
)

// tripView is the prompt-facing rendering of a trip.
type tripView struct {
	Name           string
	Description    string
	Destinations   string
	StartPoint     string
	EndPoint       string
	Dates          string
	Adults         int
	Children       int
	Preferences    string
	Transportation string
	Budget         int
	Currency       string
}

func newTripView(trip domain.Trip) tripView {
	return tripView{
		Name:           orDefault(trip.Name, "Trip"),
		Description:    orDefault(trip.Description, "A trip"),
		Destinations:   orDefault(strings.Join(trip.Destinations, ", "), "Not specified"),
		StartPoint:     orDefault(trip.StartPoint, "Not specified"),
		EndPoint:       orDefault(trip.EndPoint, "Not specified"),
		Dates:          formatDates(trip),
		Adults:         max(trip.AdultsCount, 1),
		Children:       max(trip.ChildrenCount, 0),
		Preferences:    orDefault(strings.Join(trip.Preferences, ", "), "None specified"),
		Transportation: orDefault(strings.Join(trip.Transportation, ", "), "Not specified"),
		Budget:         trip.Budget,
		Currency:       trip.CurrencyOrDefault(),
	}
}

// formatDates renders "Flexible", "{start} to {end}" or "Not specified".
func formatDates(trip domain.Trip) string {
	if trip.FlexibleDates {
		return "Flexible"
	}
	start := strings.TrimSpace(trip.StartDate)
	end := strings.TrimSpace(trip.EndDate)
	if start != "" && end != "" {
		return start + " to " + end
	}
	return "Not specified"
}

// formatTravelers renders "2 adults and 1 child".
func formatTravelers(adults, children int) string {
	adults = max(adults, 1)
	text := pluralize(adults, "adult", "adults")
	if children > 0 {
		text += " and " + pluralize(children, "child", "children")
	}
	return text
}

func pluralize(count int, singular, plural string) string {
	word := plural
	if count == 1 {
		word = singular
	}
	return strconv.Itoa(count) + " " + word
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}
