package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iago/trip-planner-back/internal/domain"
	"github.com/iago/trip-planner-back/internal/repository"
)

// ErrInvalidTrip is a validation failure on a trip or user payload.
var ErrInvalidTrip = errors.New("invalid trip")

// TripsService backs the bootstrap endpoints that feed the pipelines.
type TripsService struct {
	store repository.Store
	now   func() time.Time
}

func NewTripsService(store repository.Store) *TripsService {
	return &TripsService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

func (s *TripsService) CreateTrip(ctx context.Context, trip domain.Trip) (*domain.Trip, error) {
	if err := validateTrip(trip); err != nil {
		return nil, err
	}
	if strings.TrimSpace(trip.ID) == "" {
		trip.ID = uuid.NewString()
	}
	if trip.AdultsCount < 1 {
		trip.AdultsCount = 1
	}
	trip.Currency = trip.CurrencyOrDefault()
	trip.CreatedAt = s.now()
	if err := s.store.CreateTrip(ctx, &trip); err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}
	return &trip, nil
}

func (s *TripsService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return trip, nil
}

func (s *TripsService) UpsertUser(ctx context.Context, user domain.User) error {
	user.ID = strings.TrimSpace(user.ID)
	user.Citizenship = strings.TrimSpace(user.Citizenship)
	if user.ID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidTrip)
	}
	return s.store.UpsertUser(ctx, user)
}

func (s *TripsService) Itinerary(ctx context.Context, tripID string) ([]domain.ItineraryItem, error) {
	if _, err := s.GetTrip(ctx, tripID); err != nil {
		return nil, err
	}
	return s.store.ListItineraryItems(ctx, tripID)
}

func (s *TripsService) Tasks(ctx context.Context, tripID string) ([]domain.Task, error) {
	if _, err := s.GetTrip(ctx, tripID); err != nil {
		return nil, err
	}
	return s.store.ListTasks(ctx, tripID)
}

func validateTrip(trip domain.Trip) error {
	if trip.FirstDestination() == "" {
		return fmt.Errorf("%w: at least one destination is required", ErrInvalidTrip)
	}
	if trip.Budget < 0 {
		return fmt.Errorf("%w: budget must not be negative", ErrInvalidTrip)
	}
	for _, value := range []string{trip.StartDate, trip.EndDate} {
		if strings.TrimSpace(value) == "" {
			continue
		}
		if _, ok := domain.ParseDate(value); !ok {
			return fmt.Errorf("%w: invalid date %q", ErrInvalidTrip, value)
		}
	}
	return nil
}
