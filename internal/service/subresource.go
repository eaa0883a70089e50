// Package service contains the business logic for the trip planner API.
// Services validate inputs, enforce the overlap invariant, and orchestrate
// repo calls. No SQL lives here — services depend on repo interfaces, not
// implementations.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nmhoang/tripmate/backend/internal/domain"
	"github.com/nmhoang/tripmate/backend/internal/repo"
)

// SubResourceService implements the lifecycle of trip sub-resources
// (accommodations and transport legs). One instance serves every kind; the
// kind parameter selects the capability descriptor that drives validation
// and error messages.
//
// Every mutation follows the same sequence: authorize against the trip
// owner, validate the payload, fetch same-kind siblings, reject interval
// overlap, persist. All failures happen before the write, so a failed call
// leaves the resource exactly as it was.
type SubResourceService struct {
	trips repo.TripRepo
	subs  repo.SubResourceRepo

	// mu guards locks. Each (trip, kind) pair gets its own mutex so that
	// two concurrent mutations cannot both pass the sibling check against
	// a stale snapshot. The database exclusion constraint remains the
	// final guard for writers outside this process.
	mu    sync.Mutex
	locks map[lockKey]*sync.Mutex
}

type lockKey struct {
	tripID uuid.UUID
	kind   domain.Kind
}

// NewSubResourceService constructs a SubResourceService backed by the
// provided repos.
func NewSubResourceService(trips repo.TripRepo, subs repo.SubResourceRepo) *SubResourceService {
	return &SubResourceService{
		trips: trips,
		subs:  subs,
		locks: make(map[lockKey]*sync.Mutex),
	}
}

// lock serializes mutations for one (trip, kind) pair and returns the
// unlock function.
func (s *SubResourceService) lock(tripID uuid.UUID, kind domain.Kind) func() {
	s.mu.Lock()
	key := lockKey{tripID: tripID, kind: kind}
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Create validates, conflict-checks, and persists a new sub-resource.
// Returns domain.ErrNotFound if the trip does not exist, domain.ErrForbidden
// if actorID is not the trip owner, domain.ErrValidation for bad input, and
// domain.ErrConflict if the interval overlaps an existing same-kind sibling.
func (s *SubResourceService) Create(ctx context.Context, kind domain.Kind, tripID uuid.UUID, in domain.SubResourceInput, actorID uuid.UUID) (domain.SubResource, error) {
	if err := s.authorizeMutation(ctx, tripID, actorID, kind); err != nil {
		return domain.SubResource{}, fmt.Errorf("service.SubResourceService.Create: %w", err)
	}

	candidate, err := validateNew(kind, tripID, in)
	if err != nil {
		return domain.SubResource{}, err
	}

	unlock := s.lock(tripID, kind)
	defer unlock()

	siblings, err := s.subs.ListByTrip(ctx, tripID, kind)
	if err != nil {
		return domain.SubResource{}, fmt.Errorf("service.SubResourceService.Create: %w", err)
	}
	if candidate.Interval().ConflictsWith(siblings, uuid.Nil) {
		return domain.SubResource{}, conflictErr(kind)
	}

	result, err := s.subs.Create(ctx, candidate)
	if err != nil {
		return domain.SubResource{}, fmt.Errorf("service.SubResourceService.Create: %w", err)
	}
	return result, nil
}

// Update applies a partial payload to an existing sub-resource. Fields not
// present in the payload keep their stored values. The conflict check
// excludes the resource's own prior interval, so shifting a booking inside
// its own slot never collides with itself.
func (s *SubResourceService) Update(ctx context.Context, kind domain.Kind, tripID, id uuid.UUID, in domain.SubResourceInput, actorID uuid.UUID) (domain.SubResource, error) {
	if err := s.authorizeMutation(ctx, tripID, actorID, kind); err != nil {
		return domain.SubResource{}, fmt.Errorf("service.SubResourceService.Update: %w", err)
	}

	unlock := s.lock(tripID, kind)
	defer unlock()

	current, err := s.subs.GetByID(ctx, tripID, id, kind)
	if err != nil {
		return domain.SubResource{}, fmt.Errorf("service.SubResourceService.Update: %w", err)
	}

	merged, err := validateMerge(kind, current, in)
	if err != nil {
		return domain.SubResource{}, err
	}

	siblings, err := s.subs.ListByTrip(ctx, tripID, kind)
	if err != nil {
		return domain.SubResource{}, fmt.Errorf("service.SubResourceService.Update: %w", err)
	}
	if merged.Interval().ConflictsWith(siblings, id) {
		return domain.SubResource{}, conflictErr(kind)
	}

	result, err := s.subs.Update(ctx, merged)
	if err != nil {
		return domain.SubResource{}, fmt.Errorf("service.SubResourceService.Update: %w", err)
	}
	return result, nil
}

// Delete removes a sub-resource. Removal can never create an overlap, so no
// conflict check runs. Returns domain.ErrNotFound if the id does not exist
// under that trip and kind.
func (s *SubResourceService) Delete(ctx context.Context, kind domain.Kind, tripID, id uuid.UUID, actorID uuid.UUID) error {
	if err := s.authorizeMutation(ctx, tripID, actorID, kind); err != nil {
		return fmt.Errorf("service.SubResourceService.Delete: %w", err)
	}

	if err := s.subs.Delete(ctx, tripID, id, kind); err != nil {
		return fmt.Errorf("service.SubResourceService.Delete: %w", err)
	}
	return nil
}

// List returns all sub-resources of one kind for a trip, ordered by start
// time. Public trips are readable by anyone (actorID may be uuid.Nil for
// anonymous callers); private trips only by the owner and shared users.
// Always returns a non-nil slice so callers can safely range over it.
func (s *SubResourceService) List(ctx context.Context, kind domain.Kind, tripID, actorID uuid.UUID) ([]domain.SubResource, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.SubResourceService.List: %w", err)
	}

	if trip.Privacy != domain.PrivacyPublic && trip.OwnerID != actorID {
		shared := false
		if actorID != uuid.Nil {
			shared, err = s.trips.IsSharedWith(ctx, tripID, actorID)
			if err != nil {
				return nil, fmt.Errorf("service.SubResourceService.List: %w", err)
			}
		}
		if !shared {
			return nil, fmt.Errorf("service.SubResourceService.List: %w: trip is private", domain.ErrForbidden)
		}
	}

	subs, err := s.subs.ListByTrip(ctx, tripID, kind)
	if err != nil {
		return nil, fmt.Errorf("service.SubResourceService.List: %w", err)
	}
	if subs == nil {
		return []domain.SubResource{}, nil
	}
	return subs, nil
}

// authorizeMutation resolves the trip and checks that actorID is its owner.
func (s *SubResourceService) authorizeMutation(ctx context.Context, tripID, actorID uuid.UUID, kind domain.Kind) error {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	if trip.OwnerID != actorID {
		return fmt.Errorf("%w: only the trip owner may modify its %ss", domain.ErrForbidden, kind.Spec().Label)
	}
	return nil
}

// conflictErr builds the kind-specific overlap error.
func conflictErr(kind domain.Kind) error {
	return fmt.Errorf("%w: time range overlaps with an existing %s", domain.ErrConflict, kind.Spec().Label)
}

// validateNew enforces the creation rules, in order: descriptive fields
// present and non-empty after trimming, both instants supplied, start
// strictly before end, price present and non-negative. The first failure
// wins; nothing is partially applied.
func validateNew(kind domain.Kind, tripID uuid.UUID, in domain.SubResourceInput) (domain.SubResource, error) {
	spec := kind.Spec()
	details := make(map[string]string, len(spec.DetailFields))
	for _, field := range spec.DetailFields {
		v := strings.TrimSpace(in.Details[field])
		if v == "" {
			return domain.SubResource{}, fmt.Errorf("%w: %s is required", domain.ErrValidation, field)
		}
		details[field] = v
	}

	if in.StartAt == nil || in.EndAt == nil {
		return domain.SubResource{}, fmt.Errorf("%w: startDate and endDate are required", domain.ErrValidation)
	}
	interval := domain.TimeInterval{StartAt: *in.StartAt, EndAt: *in.EndAt}
	if !interval.Valid() {
		return domain.SubResource{}, fmt.Errorf("%w: startDate must be before endDate", domain.ErrValidation)
	}

	if in.Price == nil {
		return domain.SubResource{}, fmt.Errorf("%w: price is required", domain.ErrValidation)
	}
	if *in.Price < 0 {
		return domain.SubResource{}, fmt.Errorf("%w: price must be a non-negative number", domain.ErrValidation)
	}

	return domain.SubResource{
		TripID:  tripID,
		Kind:    kind,
		Details: details,
		Price:   *in.Price,
		StartAt: interval.StartAt,
		EndAt:   interval.EndAt,
	}, nil
}

// validateMerge applies a partial payload on top of the stored record and
// re-validates the result. Supplied detail fields must still be non-empty
// after trimming; absent ones keep their stored values.
func validateMerge(kind domain.Kind, current domain.SubResource, in domain.SubResourceInput) (domain.SubResource, error) {
	merged := current
	merged.Details = make(map[string]string, len(current.Details))
	for k, v := range current.Details {
		merged.Details[k] = v
	}

	for _, field := range kind.Spec().DetailFields {
		v, ok := in.Details[field]
		if !ok {
			continue
		}
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return domain.SubResource{}, fmt.Errorf("%w: %s is required", domain.ErrValidation, field)
		}
		merged.Details[field] = trimmed
	}

	if in.StartAt != nil {
		merged.StartAt = *in.StartAt
	}
	if in.EndAt != nil {
		merged.EndAt = *in.EndAt
	}
	if !merged.Interval().Valid() {
		return domain.SubResource{}, fmt.Errorf("%w: startDate must be before endDate", domain.ErrValidation)
	}

	if in.Price != nil {
		if *in.Price < 0 {
			return domain.SubResource{}, fmt.Errorf("%w: price must be a non-negative number", domain.ErrValidation)
		}
		merged.Price = *in.Price
	}

	return merged, nil
}
