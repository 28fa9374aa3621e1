package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iago/trip-planner-back/internal/domain"
)

// db is satisfied by both *pgxpool.Pool and pgx.Tx.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	var trip domain.Trip
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, name, description, destinations, start_point, end_point,
			start_date, end_date, flexible_dates, adults_count, children_count,
			preferences, transportation, budget, currency, created_at
		FROM trips
		WHERE id = $1
	`, tripID).Scan(
		&trip.ID,
		&trip.UserID,
		&trip.Name,
		&trip.Description,
		&trip.Destinations,
		&trip.StartPoint,
		&trip.EndPoint,
		&trip.StartDate,
		&trip.EndDate,
		&trip.FlexibleDates,
		&trip.AdultsCount,
		&trip.ChildrenCount,
		&trip.Preferences,
		&trip.Transportation,
		&trip.Budget,
		&trip.Currency,
		&trip.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository.PostgresStore.GetTrip: %w", err)
	}
	return &trip, nil
}

func (s *PostgresStore) CreateTrip(ctx context.Context, trip *domain.Trip) error {
	prepareTrip(trip)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO trips (
			id, user_id, name, description, destinations, start_point, end_point,
			start_date, end_date, flexible_dates, adults_count, children_count,
			preferences, transportation, budget, currency, created_at
		) VALUES (
			@id, @user_id, @name, @description, @destinations, @start_point, @end_point,
			@start_date, @end_date, @flexible_dates, @adults_count, @children_count,
			@preferences, @transportation, @budget, @currency, @created_at
		)
	`, pgx.NamedArgs{
		"id":             trip.ID,
		"user_id":        trip.UserID,
		"name":           trip.Name,
		"description":    trip.Description,
		"destinations":   nonNil(trip.Destinations),
		"start_point":    trip.StartPoint,
		"end_point":      trip.EndPoint,
		"start_date":     trip.StartDate,
		"end_date":       trip.EndDate,
		"flexible_dates": trip.FlexibleDates,
		"adults_count":   trip.AdultsCount,
		"children_count": trip.ChildrenCount,
		"preferences":    nonNil(trip.Preferences),
		"transportation": nonNil(trip.Transportation),
		"budget":         trip.Budget,
		"currency":       trip.Currency,
		"created_at":     trip.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("repository.PostgresStore.CreateTrip: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserCitizenship(ctx context.Context, userID string) (string, error) {
	var citizenship string
	err := s.pool.QueryRow(ctx, `SELECT citizenship FROM users WHERE id = $1`, userID).Scan(&citizenship)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("repository.PostgresStore.GetUserCitizenship: %w", err)
	}
	return citizenship, nil
}

func (s *PostgresStore) UpsertUser(ctx context.Context, user domain.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, citizenship)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET citizenship = EXCLUDED.citizenship, updated_at = now()
	`, user.ID, user.Citizenship)
	if err != nil {
		return fmt.Errorf("repository.PostgresStore.UpsertUser: %w", err)
	}
	return nil
}

// AppendItineraryItems writes one day's batch in a single transaction.
func (s *PostgresStore) AppendItineraryItems(ctx context.Context, tripID string, items []domain.ItineraryItem) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return insertItems(ctx, tx, tripID, items)
	})
	if err != nil {
		return fmt.Errorf("repository.PostgresStore.AppendItineraryItems: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListItineraryItems(ctx context.Context, tripID string) ([]domain.ItineraryItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, trip_id, day_number, order_index, item_date, start_time, end_time,
			title, description, location, item_type, cost
		FROM itinerary_items
		WHERE trip_id = $1
		ORDER BY day_number, order_index
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("repository.PostgresStore.ListItineraryItems: %w", err)
	}
	defer rows.Close()

	items := make([]domain.ItineraryItem, 0)
	for rows.Next() {
		var (
			item     domain.ItineraryItem
			itemType string
		)
		if err := rows.Scan(
			&item.ID,
			&item.TripID,
			&item.DayNumber,
			&item.OrderIndex,
			&item.Date,
			&item.StartTime,
			&item.EndTime,
			&item.Title,
			&item.Description,
			&item.Location,
			&itemType,
			&item.Cost,
		); err != nil {
			return nil, fmt.Errorf("repository.PostgresStore.ListItineraryItems: scan: %w", err)
		}
		item.Type = domain.ItemType(itemType)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.PostgresStore.ListItineraryItems: iterate: %w", err)
	}
	return items, nil
}

// ReplaceItineraryItems deletes and reinserts inside one transaction; readers
// see either the old itinerary or the new one.
func (s *PostgresStore) ReplaceItineraryItems(ctx context.Context, tripID string, items []domain.ItineraryItem) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM itinerary_items WHERE trip_id = $1`, tripID); err != nil {
			return err
		}
		return insertItems(ctx, tx, tripID, items)
	})
	if err != nil {
		return fmt.Errorf("repository.PostgresStore.ReplaceItineraryItems: %w", err)
	}
	return nil
}

// InsertTasks queues the rows in slice order; the identity column `position`
// keeps that order for ListTasks.
func (s *PostgresStore) InsertTasks(ctx context.Context, tripID string, tasks []domain.Task) error {
	batch := &pgx.Batch{}
	for _, task := range prepareTasks(tripID, tasks) {
		batch.Queue(`
			INSERT INTO tasks (id, trip_id, title, description, category, priority, completed, created_at)
			VALUES (@id, @trip_id, @title, @description, @category, @priority, @completed, @created_at)
		`, pgx.NamedArgs{
			"id":          task.ID,
			"trip_id":     task.TripID,
			"title":       task.Title,
			"description": task.Description,
			"category":    string(task.Category),
			"priority":    string(task.Priority),
			"completed":   task.Completed,
			"created_at":  task.CreatedAt,
		})
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("repository.PostgresStore.InsertTasks: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListTasks(ctx context.Context, tripID string) ([]domain.Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, trip_id, title, description, category, priority, completed, created_at
		FROM tasks
		WHERE trip_id = $1
		ORDER BY position
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("repository.PostgresStore.ListTasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		var (
			task     domain.Task
			category string
			priority string
		)
		if err := rows.Scan(
			&task.ID,
			&task.TripID,
			&task.Title,
			&task.Description,
			&category,
			&priority,
			&task.Completed,
			&task.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("repository.PostgresStore.ListTasks: scan: %w", err)
		}
		task.Category = domain.TaskCategory(category)
		task.Priority = domain.TaskPriority(priority)
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.PostgresStore.ListTasks: iterate: %w", err)
	}
	return tasks, nil
}

func insertItems(ctx context.Context, conn db, tripID string, items []domain.ItineraryItem) error {
	for _, item := range prepareItems(tripID, items) {
		_, err := conn.Exec(ctx, `
			INSERT INTO itinerary_items (
				id, trip_id, day_number, order_index, item_date, start_time, end_time,
				title, description, location, item_type, cost
			) VALUES (
				@id, @trip_id, @day_number, @order_index, @item_date, @start_time, @end_time,
				@title, @description, @location, @item_type, @cost
			)
		`, pgx.NamedArgs{
			"id":          item.ID,
			"trip_id":     item.TripID,
			"day_number":  item.DayNumber,
			"order_index": item.OrderIndex,
			"item_date":   item.Date,
			"start_time":  item.StartTime,
			"end_time":    item.EndTime,
			"title":       item.Title,
			"description": item.Description,
			"location":    item.Location,
			"item_type":   string(item.Type),
			"cost":        item.Cost,
		})
		if err != nil {
			return fmt.Errorf("insert itinerary item: %w", err)
		}
	}
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
