package domain

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Trip is read by the pipelines to build prompts; they never create or delete it.
type Trip struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id,omitempty"`
	Name           string    `json:"name,omitempty"`
	Description    string    `json:"description,omitempty"`
	Destinations   []string  `json:"destinations"`
	StartPoint     string    `json:"start_point,omitempty"`
	EndPoint       string    `json:"end_point,omitempty"`
	StartDate      string    `json:"start_date,omitempty"`
	EndDate        string    `json:"end_date,omitempty"`
	FlexibleDates  bool      `json:"flexible_dates"`
	AdultsCount    int       `json:"adults_count"`
	ChildrenCount  int       `json:"children_count"`
	Preferences    []string  `json:"preferences"`
	Transportation []string  `json:"transportation"`
	Budget         int       `json:"budget"`
	Currency       string    `json:"currency"`
	CreatedAt      time.Time `json:"created_at"`
}

// ParseDate accepts a plain date or an RFC3339 timestamp.
func ParseDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	if parsed, err := time.Parse(DateLayout, trimmed); err == nil {
		return parsed, true
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), true
	}
	if len(trimmed) > len(DateLayout) {
		if parsed, err := time.Parse(DateLayout, trimmed[:len(DateLayout)]); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// DayCount is the inclusive number of calendar days, never less than 1.
func (t Trip) DayCount() (int, bool) {
	start, okStart := ParseDate(t.StartDate)
	end, okEnd := ParseDate(t.EndDate)
	if !okStart || !okEnd {
		return 0, false
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	return days, true
}

// Nights is end minus start in whole days, minimum 1, and 7 when dates are missing.
func (t Trip) Nights() int {
	start, okStart := ParseDate(t.StartDate)
	end, okEnd := ParseDate(t.EndDate)
	if !okStart || !okEnd {
		return 7
	}
	nights := int(end.Sub(start).Hours() / 24)
	if nights < 1 {
		return 1
	}
	return nights
}

func (t Trip) FirstDestination() string {
	for _, destination := range t.Destinations {
		if trimmed := strings.TrimSpace(destination); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func (t Trip) CurrencyOrDefault() string {
	if currency := strings.TrimSpace(t.Currency); currency != "" {
		return strings.ToUpper(currency)
	}
	return "USD"
}

type User struct {
	ID          string `json:"id"`
	Citizenship string `json:"citizenship,omitempty"`
}

type ItemType string

const (
	ItemTypeActivity      ItemType = "activity"
	ItemTypeTransport     ItemType = "transport"
	ItemTypeAccommodation ItemType = "accommodation"
	ItemTypeMeal          ItemType = "meal"
	ItemTypeOther         ItemType = "other"
)

func ParseItemType(value string) ItemType {
	switch ItemType(strings.ToLower(strings.TrimSpace(value))) {
	case ItemTypeActivity:
		return ItemTypeActivity
	case ItemTypeTransport:
		return ItemTypeTransport
	case ItemTypeAccommodation:
		return ItemTypeAccommodation
	case ItemTypeMeal:
		return ItemTypeMeal
	case ItemTypeOther:
		return ItemTypeOther
	default:
		return ItemTypeActivity
	}
}

// ItineraryItem is one scheduled event; (DayNumber, OrderIndex) orders items within a trip.
type ItineraryItem struct {
	ID          string   `json:"id,omitempty"`
	TripID      string   `json:"trip_id,omitempty"`
	DayNumber   int      `json:"day_number"`
	OrderIndex  int      `json:"order_index"`
	Date        string   `json:"date,omitempty"`
	StartTime   string   `json:"start_time,omitempty"`
	EndTime     string   `json:"end_time,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Type        ItemType `json:"type"`
	Cost        int      `json:"cost"`
}

type TaskCategory string

const (
	TaskCategoryGeneral        TaskCategory = "general"
	TaskCategoryVisa           TaskCategory = "visa"
	TaskCategoryAccommodation  TaskCategory = "accommodation"
	TaskCategoryTransportation TaskCategory = "transportation"
	TaskCategoryHealth         TaskCategory = "health"
	TaskCategoryFinance        TaskCategory = "finance"
	TaskCategoryPacking        TaskCategory = "packing"
	TaskCategoryActivities     TaskCategory = "activities"
	TaskCategoryDocumentation  TaskCategory = "documentation"
)

var taskCategories = map[TaskCategory]struct{}{
	TaskCategoryGeneral:        {},
	TaskCategoryVisa:           {},
	TaskCategoryAccommodation:  {},
	TaskCategoryTransportation: {},
	TaskCategoryHealth:         {},
	TaskCategoryFinance:        {},
	TaskCategoryPacking:        {},
	TaskCategoryActivities:     {},
	TaskCategoryDocumentation:  {},
}

func ParseTaskCategory(value string) TaskCategory {
	category := TaskCategory(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := taskCategories[category]; ok {
		return category
	}
	return TaskCategoryGeneral
}

type TaskPriority string

const (
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityLow    TaskPriority = "low"
)

func ParseTaskPriority(value string) TaskPriority {
	switch TaskPriority(strings.ToLower(strings.TrimSpace(value))) {
	case TaskPriorityHigh:
		return TaskPriorityHigh
	case TaskPriorityLow:
		return TaskPriorityLow
	default:
		return TaskPriorityMedium
	}
}

type Task struct {
	ID          string       `json:"id,omitempty"`
	TripID      string       `json:"trip_id,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Category    TaskCategory `json:"category"`
	Priority    TaskPriority `json:"priority"`
	Completed   bool         `json:"completed"`
	CreatedAt   time.Time    `json:"created_at,omitempty"`
}
