package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iago/trip-planner-back/internal/domain"
)

// Store is the persistent home of trips, users, itinerary items and tasks.
type Store interface {
	GetTrip(ctx context.Context, tripID string) (*domain.Trip, error)
	CreateTrip(ctx context.Context, trip *domain.Trip) error
	GetUserCitizenship(ctx context.Context, userID string) (string, error)
	UpsertUser(ctx context.Context, user domain.User) error
	AppendItineraryItems(ctx context.Context, tripID string, items []domain.ItineraryItem) error
	ListItineraryItems(ctx context.Context, tripID string) ([]domain.ItineraryItem, error)
	// ReplaceItineraryItems swaps the whole itinerary of a trip in one step.
	ReplaceItineraryItems(ctx context.Context, tripID string, items []domain.ItineraryItem) error
	InsertTasks(ctx context.Context, tripID string, tasks []domain.Task) error
	ListTasks(ctx context.Context, tripID string) ([]domain.Task, error)
}

type MemoryStore struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip
	users map[string]domain.User
	items map[string][]domain.ItineraryItem
	tasks map[string][]domain.Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trips: make(map[string]*domain.Trip),
		users: make(map[string]domain.User),
		items: make(map[string][]domain.ItineraryItem),
		tasks: make(map[string][]domain.Task),
	}
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) GetTrip(_ context.Context, tripID string) (*domain.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trip, ok := s.trips[tripID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneTrip(trip), nil
}

func (s *MemoryStore) CreateTrip(_ context.Context, trip *domain.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepareTrip(trip)
	s.trips[trip.ID] = cloneTrip(trip)
	return nil
}

func (s *MemoryStore) GetUserCitizenship(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return "", ErrNotFound
	}
	return user.Citizenship, nil
}

func (s *MemoryStore) UpsertUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user.ID] = user
	return nil
}

func (s *MemoryStore) AppendItineraryItems(_ context.Context, tripID string, items []domain.ItineraryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trips[tripID]; !ok {
		return ErrNotFound
	}
	s.items[tripID] = append(s.items[tripID], prepareItems(tripID, items)...)
	return nil
}

func (s *MemoryStore) ListItineraryItems(_ context.Context, tripID string) ([]domain.ItineraryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := append([]domain.ItineraryItem(nil), s.items[tripID]...)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].DayNumber != items[j].DayNumber {
			return items[i].DayNumber < items[j].DayNumber
		}
		return items[i].OrderIndex < items[j].OrderIndex
	})
	return items, nil
}

func (s *MemoryStore) ReplaceItineraryItems(_ context.Context, tripID string, items []domain.ItineraryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trips[tripID]; !ok {
		return ErrNotFound
	}
	s.items[tripID] = prepareItems(tripID, items)
	return nil
}

func (s *MemoryStore) InsertTasks(_ context.Context, tripID string, tasks []domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trips[tripID]; !ok {
		return ErrNotFound
	}
	s.tasks[tripID] = append(s.tasks[tripID], prepareTasks(tripID, tasks)...)
	return nil
}

func (s *MemoryStore) ListTasks(_ context.Context, tripID string) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.Task(nil), s.tasks[tripID]...), nil
}

func prepareTrip(trip *domain.Trip) {
	if strings.TrimSpace(trip.ID) == "" {
		trip.ID = uuid.NewString()
	}
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = time.Now().UTC()
	}
	trip.Currency = trip.CurrencyOrDefault()
}

func prepareItems(tripID string, items []domain.ItineraryItem) []domain.ItineraryItem {
	prepared := make([]domain.ItineraryItem, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.TripID = tripID
		prepared = append(prepared, item)
	}
	return prepared
}

func prepareTasks(tripID string, tasks []domain.Task) []domain.Task {
	now := time.Now().UTC()
	prepared := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.ID == "" {
			task.ID = uuid.NewString()
		}
		if task.CreatedAt.IsZero() {
			task.CreatedAt = now
		}
		task.TripID = tripID
		prepared = append(prepared, task)
	}
	return prepared
}

func cloneTrip(trip *domain.Trip) *domain.Trip {
	clone := *trip
	clone.Destinations = append([]string(nil), trip.Destinations...)
	clone.Preferences = append([]string(nil), trip.Preferences...)
	clone.Transportation = append([]string(nil), trip.Transportation...)
	return &clone
}
