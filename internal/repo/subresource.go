package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/nmhoang/tripmate/backend/internal/domain"
)

// exclusionViolation is the SQLSTATE raised when a row would violate the
// range-exclusion constraint on (trip_id, kind, tstzrange(start_at, end_at)).
// The constraint is the authoritative guard against overlapping intervals;
// the service-level check is only the fast path for a friendly error.
const exclusionViolation = "23P01"

// SubResourceRepo defines the persistence operations for sub-resources.
// All single-row operations are scoped by tripID and kind so a resource can
// never be read or mutated through another trip's (or kind's) route.
type SubResourceRepo interface {
	// Create inserts a new sub-resource and returns the persisted record
	// (with DB-generated id, created_at, and updated_at populated).
	// Returns domain.ErrConflict if the interval collides with an existing
	// same-kind row under the same trip.
	Create(ctx context.Context, sr domain.SubResource) (domain.SubResource, error)

	// GetByID retrieves a single sub-resource, scoped to tripID and kind.
	// Returns domain.ErrNotFound if no such row exists under that trip.
	GetByID(ctx context.Context, tripID, id uuid.UUID, kind domain.Kind) (domain.SubResource, error)

	// ListByTrip returns all sub-resources of one kind for a trip, ordered
	// by start_at ascending.
	ListByTrip(ctx context.Context, tripID uuid.UUID, kind domain.Kind) ([]domain.SubResource, error)

	// Update overwrites the mutable fields of a sub-resource, scoped to its
	// trip and kind. Returns domain.ErrNotFound if the row does not exist,
	// domain.ErrConflict on an interval collision.
	Update(ctx context.Context, sr domain.SubResource) (domain.SubResource, error)

	// Delete removes a sub-resource, scoped to tripID and kind.
	// Returns domain.ErrNotFound if the row does not exist under that trip.
	Delete(ctx context.Context, tripID, id uuid.UUID, kind domain.Kind) error
}

// pgSubResourceRepo is the Postgres implementation of SubResourceRepo.
type pgSubResourceRepo struct {
	db db
}

// NewSubResourceRepo constructs a SubResourceRepo backed by the provided db.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewSubResourceRepo(db db) SubResourceRepo {
	return &pgSubResourceRepo{db: db}
}

func (r *pgSubResourceRepo) Create(ctx context.Context, sr domain.SubResource) (domain.SubResource, error) {
	const q = `
		INSERT INTO sub_resources (trip_id, kind, details, price, start_at, end_at)
		VALUES (@trip_id, @kind, @details, @price, @start_at, @end_at)
		RETURNING id, trip_id, kind, details, price, start_at, end_at, created_at, updated_at`

	args := pgx.NamedArgs{
		"trip_id":  sr.TripID,
		"kind":     string(sr.Kind),
		"details":  sr.Details,
		"price":    sr.Price,
		"start_at": sr.StartAt,
		"end_at":   sr.EndAt,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanSubResource(row)
	if err != nil {
		return domain.SubResource{}, fmt.Errorf("repo.SubResourceRepo.Create: %w", mapConflict(err))
	}
	return result, nil
}

func (r *pgSubResourceRepo) GetByID(ctx context.Context, tripID, id uuid.UUID, kind domain.Kind) (domain.SubResource, error) {
	const q = `
		SELECT id, trip_id, kind, details, price, start_at, end_at, created_at, updated_at
		FROM sub_resources
		WHERE id = @id AND trip_id = @trip_id AND kind = @kind`

	args := pgx.NamedArgs{"id": id, "trip_id": tripID, "kind": string(kind)}
	row := r.db.QueryRow(ctx, q, args)
	result, err := scanSubResource(row)
	if err != nil {
		return domain.SubResource{}, fmt.Errorf("repo.SubResourceRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgSubResourceRepo) ListByTrip(ctx context.Context, tripID uuid.UUID, kind domain.Kind) ([]domain.SubResource, error) {
	const q = `
		SELECT id, trip_id, kind, details, price, start_at, end_at, created_at, updated_at
		FROM sub_resources
		WHERE trip_id = @trip_id AND kind = @kind
		ORDER BY start_at ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID, "kind": string(kind)})
	if err != nil {
		return nil, fmt.Errorf("repo.SubResourceRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	var out []domain.SubResource
	for rows.Next() {
		sr, err := scanSubResource(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.SubResourceRepo.ListByTrip: scan: %w", err)
		}
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.SubResourceRepo.ListByTrip: rows: %w", err)
	}

	return out, nil
}

func (r *pgSubResourceRepo) Update(ctx context.Context, sr domain.SubResource) (domain.SubResource, error) {
	const q = `
		UPDATE sub_resources
		SET details    = @details,
		    price      = @price,
		    start_at   = @start_at,
		    end_at     = @end_at,
		    updated_at = now()
		WHERE id = @id AND trip_id = @trip_id AND kind = @kind
		RETURNING id, trip_id, kind, details, price, start_at, end_at, created_at, updated_at`

	args := pgx.NamedArgs{
		"id":       sr.ID,
		"trip_id":  sr.TripID,
		"kind":     string(sr.Kind),
		"details":  sr.Details,
		"price":    sr.Price,
		"start_at": sr.StartAt,
		"end_at":   sr.EndAt,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanSubResource(row)
	if err != nil {
		return domain.SubResource{}, fmt.Errorf("repo.SubResourceRepo.Update: %w", mapConflict(err))
	}
	return result, nil
}

func (r *pgSubResourceRepo) Delete(ctx context.Context, tripID, id uuid.UUID, kind domain.Kind) error {
	const q = `DELETE FROM sub_resources WHERE id = @id AND trip_id = @trip_id AND kind = @kind`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "trip_id": tripID, "kind": string(kind)})
	if err != nil {
		return fmt.Errorf("repo.SubResourceRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.SubResourceRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// mapConflict translates an exclusion-constraint violation into the domain
// conflict sentinel so callers can react with errors.Is.
func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
		return fmt.Errorf("%w: time range overlaps with an existing row: %s", domain.ErrConflict, pgErr.ConstraintName)
	}
	return err
}

// scanSubResource maps a single database row into a domain.SubResource.
// It handles the UUID and jsonb details conversions.
func scanSubResource(s scanner) (domain.SubResource, error) {
	var (
		sr      domain.SubResource
		id      pgtype.UUID
		tripID  pgtype.UUID
		kind    string
		details []byte
	)

	err := s.Scan(&id, &tripID, &kind, &details, &sr.Price, &sr.StartAt, &sr.EndAt, &sr.CreatedAt, &sr.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SubResource{}, domain.ErrNotFound
		}
		return domain.SubResource{}, err
	}

	sr.ID = uuid.UUID(id.Bytes)
	sr.TripID = uuid.UUID(tripID.Bytes)
	sr.Kind = domain.Kind(kind)
	if err := json.Unmarshal(details, &sr.Details); err != nil {
		return domain.SubResource{}, fmt.Errorf("decode details: %w", err)
	}

	return sr, nil
}
