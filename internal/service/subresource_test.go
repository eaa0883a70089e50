package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmhoang/tripmate/backend/internal/domain"
	"github.com/nmhoang/tripmate/backend/internal/repo"
	"github.com/nmhoang/tripmate/backend/internal/service"
)

// ---- test doubles ----------------------------------------------------------

// mockTripRepo is a hand-written test double for repo.TripRepo.
type mockTripRepo struct {
	getByID      func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	isSharedWith func(ctx context.Context, tripID, userID uuid.UUID) (bool, error)
}

func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) IsSharedWith(ctx context.Context, tripID, userID uuid.UUID) (bool, error) {
	if m.isSharedWith != nil {
		return m.isSharedWith(ctx, tripID, userID)
	}
	return false, nil
}

// compile-time check: mockTripRepo must satisfy repo.TripRepo.
var _ repo.TripRepo = (*mockTripRepo)(nil)

// fakeSubResourceRepo is an in-memory repo.SubResourceRepo. Sequential
// lifecycle scenarios (create A, then try conflicting B) need real state,
// which function-field mocks make awkward.
type fakeSubResourceRepo struct {
	items []domain.SubResource
}

func (f *fakeSubResourceRepo) Create(_ context.Context, sr domain.SubResource) (domain.SubResource, error) {
	sr.ID = uuid.New()
	now := time.Now().UTC()
	sr.CreatedAt = now
	sr.UpdatedAt = now
	f.items = append(f.items, sr)
	return sr, nil
}

func (f *fakeSubResourceRepo) GetByID(_ context.Context, tripID, id uuid.UUID, kind domain.Kind) (domain.SubResource, error) {
	for _, sr := range f.items {
		if sr.ID == id && sr.TripID == tripID && sr.Kind == kind {
			return sr, nil
		}
	}
	return domain.SubResource{}, domain.ErrNotFound
}

func (f *fakeSubResourceRepo) ListByTrip(_ context.Context, tripID uuid.UUID, kind domain.Kind) ([]domain.SubResource, error) {
	var out []domain.SubResource
	for _, sr := range f.items {
		if sr.TripID == tripID && sr.Kind == kind {
			out = append(out, sr)
		}
	}
	return out, nil
}

func (f *fakeSubResourceRepo) Update(_ context.Context, sr domain.SubResource) (domain.SubResource, error) {
	for i, existing := range f.items {
		if existing.ID == sr.ID && existing.TripID == sr.TripID && existing.Kind == sr.Kind {
			sr.CreatedAt = existing.CreatedAt
			sr.UpdatedAt = time.Now().UTC()
			f.items[i] = sr
			return sr, nil
		}
	}
	return domain.SubResource{}, domain.ErrNotFound
}

func (f *fakeSubResourceRepo) Delete(_ context.Context, tripID, id uuid.UUID, kind domain.Kind) error {
	for i, sr := range f.items {
		if sr.ID == id && sr.TripID == tripID && sr.Kind == kind {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

var _ repo.SubResourceRepo = (*fakeSubResourceRepo)(nil)

// ---- helpers ---------------------------------------------------------------

var (
	ownerID    = uuid.New()
	strangerID = uuid.New()
)

// newService wires a SubResourceService to a fake repo and a single trip
// owned by ownerID.
func newService(t *testing.T, trip domain.Trip) (*service.SubResourceService, *fakeSubResourceRepo) {
	t.Helper()
	subs := &fakeSubResourceRepo{}
	trips := &mockTripRepo{
		getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
			if id != trip.ID {
				return domain.Trip{}, domain.ErrNotFound
			}
			return trip, nil
		},
	}
	return service.NewSubResourceService(trips, subs), subs
}

func privateTrip() domain.Trip {
	return domain.Trip{ID: uuid.New(), OwnerID: ownerID, Privacy: domain.PrivacyPrivate, Title: "Da Nang 2025"}
}

func at(day, hour int) time.Time {
	return time.Date(2025, 4, day, hour, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

// accommodationInput builds a valid creation payload for [startHour, endHour)
// on the given days.
func accommodationInput(start, end time.Time) domain.SubResourceInput {
	return domain.SubResourceInput{
		Details: map[string]string{"name": "Seaside Hotel", "location": "Da Nang"},
		Price:   ptr(500000.0),
		StartAt: ptr(start),
		EndAt:   ptr(end),
	}
}

func transportInput(start, end time.Time) domain.SubResourceInput {
	return domain.SubResourceInput{
		Details: map[string]string{"type": "train", "from": "Hanoi", "to": "Da Nang"},
		Price:   ptr(350000.0),
		StartAt: ptr(start),
		EndAt:   ptr(end),
	}
}

// ---- Create ----------------------------------------------------------------

func TestCreate_OK(t *testing.T) {
	trip := privateTrip()
	svc, _ := newService(t, trip)

	got, err := svc.Create(context.Background(), domain.KindAccommodation, trip.ID,
		accommodationInput(at(11, 14), at(12, 11)), ownerID)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, trip.ID, got.TripID)
	assert.Equal(t, domain.KindAccommodation, got.Kind)
	assert.Equal(t, 500000.0, got.Price)
	assert.Equal(t, "Seaside Hotel", got.Details["name"])
}

func TestCreate_TrimsDetailFields(t *testing.T) {
	trip := privateTrip()
	svc, _ := newService(t, trip)

	in := accommodationInput(at(11, 14), at(12, 11))
	in.Details["name"] = "  Seaside Hotel  "

	got, err := svc.Create(context.Background(), domain.KindAccommodation, trip.ID, in, ownerID)

	require.NoError(t, err)
	assert.Equal(t, "Seaside Hotel", got.Details["name"])
}

func TestCreate_TrueOverlapConflicts(t *testing.T) {
	trip := privateTrip()
	svc, _ := newService(t, trip)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.KindAccommodation, trip.ID,
		accommodationInput(at(11, 10), at(11, 12)), ownerID)
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.KindAccommodation, trip.ID,
		accommodationInput(at(11, 11), at(11, 13)), ownerID)

	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.ErrorContains(t, err, "existing accommodation")
}

func TestCreate_TouchingEndpointConflicts(t *testing.T) {
	// [10:00,12:00] then [12:00,14:00]: touching endpoints are overlap here,
	// not adjacency. Stricter than the usual half-open convention.
	trip := privateTrip()
	svc, _ := newService(t, trip)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.KindAccommodation, trip.ID,
		accommodationInput(at(11, 10), at(11, 12)), ownerID)
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.KindAccommodation, trip.ID,
		accommodationInput(at(11, 12), at(11, 14)), ownerID)

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCreate_DisjointSucceeds(t *testing.T) {
	trip := privateTrip()
	svc, _ := newService(t, trip)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.KindAccommodation, trip.ID,
		accommodationInput(at(11, 10), at(11, 11)), ownerID)
	require.NoError(t, err)

	later := accommodationInput(at(11, 11).Add(30*time.Minute), at(11, 12).Add(30*time.Minute))
	_, err = svc.Create(ctx, domain.KindAccommodation, trip.ID, later, ownerID)
	require.NoError(t, err)
}

func TestCreate_CrossKindIndependent(t *testing.T) {
	// An accommodation and a transport may freely overlap on the same trip;
	// only same-kind intervals are mutually exclusive.
	trip := privateTrip()
	svc, _ := newService(t, trip)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.KindAccommodation, trip.ID,
		accommodationInput(at(11, 10), at(11, 20)), ownerID)
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.KindTransport, trip.ID,
		transportInput(at(11, 12), at(11, 14)), ownerID)
	require.NoError(t, err)
}

func TestCreate_StartNotBeforeEnd(t *testing.T) {
	trip := privateTrip()
	svc, subs := newService(t, trip)

	for name, in := range map[string]domain.SubResourceInput{
		"reversed":    accommodationInput(at(11, 12), at(11, 10)),
		"zero-length": accommodationInput(at(11, 12), at(11, 12)),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), domain.KindAccommodation, trip.ID, in, ownerID)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
	assert.Empty(t, subs.items, "failed validation must not persist anything")
}

func TestCreate_NegativePrice(t *testing.T) {
	trip := privateTrip()
	svc, _ := newService(t, trip)

	in := accommodationInput(at(11, 14), at(12, 11))
	in.Price = ptr(-1.0)

	_, err := svc.Create(context.Background(), domain.KindAccommodation, trip.ID, in, ownerID)

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorContains(t, err, "price")
}

func TestCreate_MissingFields(t *testing.T) {
	trip := privateTrip()
	svc, _ := newService(t, trip)
	base := func() domain.SubResourceInput { return accommodationInput(at(11, 14), at(12, 11)) }

	tests := map[string]struct {
		mutate func(*domain.SubResourceInput)
		msg    string
	}{
		"no name":           {func(in *domain.SubResourceInput) { delete(in.Details, "name") }, "name is required"},
		"blank location":    {func(in *domain.SubResourceInput) { in.Details["location"] = "   " }, "location is required"},
		"no price":          {func(in *domain.SubResourceInput) { in.Price = nil }, "price is required"},
		"no start":          {func(in *domain.SubResourceInput) { in.StartAt = nil }, "startDate and endDate are required"},
		"no end":            {func(in *domain.SubResourceInput) { in.EndAt = nil }, "startDate and endDate are required"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			in := base()
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), domain.KindAccommodation, trip.ID, in, ownerID)
			require.ErrorIs(t, err, domain.ErrValidation)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestCreate_TransportRequiredFields(t *testing.T) {
	trip := privateTrip()
	svc, _ := newService(t, trip)

	in := transportInput(at(11, 8), at(11, 10))
	delete(in.Details, "from")

	_, err := svc.Create(context.Background(), domain.KindTransport, trip.ID, in, ownerID)

	require.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorContains(t, err, "from is required")
}

func TestCreate_NotOwner(t *testing.T) {
	trip := privateTrip()
	svc, subs := newService(t, trip)

	_, err := svc.Create(context.Background(), domain.KindAccommodation, trip.ID,
		accommodationInput(at(11, 14), at(12, 11)), strangerID)

	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, subs.items)
}

func TestCreate_TripNotFound(t *testing.T) {
	trip := privateTrip()
	svc, _ := newService(t, trip)

	_, err := svc.Create(context.Background(), domain.KindAccommodation, uuid.New(),
		accommodationInput(at(11, 14), at(12, 11)), ownerID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- Update ----------------------------------------------------------------

func TestUpdate_ExcludesSelf(t *testing.T) {
	trip := privateTrip()
	svc, _ := newService(t, trip)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.KindAccommodation, trip.ID,
		accommodationInput(at(11, 10), at(11, 12)), ownerID)
	require.NoError(t, err)

	// Identical range: never conflicts with its own prior state.
	_, err = svc.Update(ctx, domain.KindAccommodation, trip.ID, created.ID,
		accommodationInput(at(11, 10), at(11, 12)), ownerID)
	require.NoError(t, err)

	// Shifted but still only overlapping its own old slot.
	updated, err := svc.Update(ctx, domain.KindAccommodation, trip.ID, created.ID,
		accommodationInput(at(11, 11), at(11, 13)), ownerID)
	require.NoError(t, err)
	assert.Equal(t, at(11, 11), updated.StartAt)
}

func TestUpdate_PartialPayloadKeepsStoredValues(t *testing.T) {
	trip := privateTrip()
	svc, _ := newService(t, trip)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.KindAccommodation, trip.ID,
		accommodationInput(at(11, 14), at(12, 11)), ownerID)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, domain.KindAccommodation, trip.ID, created.ID,
		domain.SubResourceInput{Price: ptr(750000.0)}, ownerID)

	require.NoError(t, err)
	assert.Equal(t, 750000.0, updated.Price)
	assert.Equal(t, created.StartAt, updated.StartAt)
	assert.Equal(t, created.EndAt, updated.EndAt)
	assert.Equal(t, created.Details, updated.Details)
}

func TestUpdate_ConflictsWithSibling(t *testing.T) {
	trip := privateTrip()
	svc, _ := newService(t, trip)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.KindAccommodation, trip.ID,
		accommodationInput(at(11, 10), at(11, 12)), ownerID)
	require.NoError(t, err)

	second, err := svc.Create(ctx, domain.KindAccommodation, trip.ID,
		accommodationInput(at(11, 14), at(11, 16)), ownerID)
	require.NoError(t, err)

	_, err = svc.Update(ctx, domain.KindAccommodation, trip.ID, second.ID,
		domain.SubResourceInput{StartAt: ptr(at(11, 11)), EndAt: ptr(at(11, 13))}, ownerID)

	assert.ErrorIs(t, err, domain.ErrConflict)

	// The failed update must leave the stored record untouched.
	after, err := svc.List(ctx, domain.KindAccommodation, trip.ID, ownerID)
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, at(11, 14), after[1].StartAt)
}

func TestUpdate_InvalidMergedInterval(t *testing.T) {
	trip := privateTrip()
	svc, _ := newService(t, trip)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.KindAccommodation, trip.ID,
		accommodationInput(at(11, 10), at(11, 12)), ownerID)
	require.NoError(t, err)

	// Only the end moves, before the stored start.
	_, err = svc.Update(ctx, domain.KindAccommodation, trip.ID, created.ID,
		domain.SubResourceInput{EndAt: ptr(at(11, 9))}, ownerID)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdate_BlankSuppliedDetailRejected(t *testing.T) {
	trip := privateTrip()
	svc, _ := newService(t, trip)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.KindAccommodation, trip.ID,
		accommodationInput(at(11, 10), at(11, 12)), ownerID)
	require.NoError(t, err)

	_, err = svc.Update(ctx, domain.KindAccommodation, trip.ID, created.ID,
		domain.SubResourceInput{Details: map[string]string{"name": "  "}}, ownerID)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdate_NotFound(t *testing.T) {
	trip := privateTrip()
	svc, _ := newService(t, trip)

	_, err := svc.Update(context.Background(), domain.KindAccommodation, trip.ID, uuid.New(),
		domain.SubResourceInput{Price: ptr(1.0)}, ownerID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_NotOwner(t *testing.T) {
	trip := privateTrip()
	svc, _ := newService(t, trip)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.KindAccommodation, trip.ID,
		accommodationInput(at(11, 10), at(11, 12)), ownerID)
	require.NoError(t, err)

	_, err = svc.Update(ctx, domain.KindAccommodation, trip.ID, created.ID,
		domain.SubResourceInput{Price: ptr(1.0)}, strangerID)

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ---- Delete ----------------------------------------------------------------

func TestDelete_OKThenNotFound(t *testing.T) {
	trip := privateTrip()
	svc, _ := newService(t, trip)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.KindTransport, trip.ID,
		transportInput(at(11, 8), at(11, 10)), ownerID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, domain.KindTransport, trip.ID, created.ID, ownerID))

	err = svc.Delete(ctx, domain.KindTransport, trip.ID, created.ID, ownerID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_UnknownID(t *testing.T) {
	trip := privateTrip()
	svc, _ := newService(t, trip)

	err := svc.Delete(context.Background(), domain.KindTransport, trip.ID, uuid.New(), ownerID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_NotOwner(t *testing.T) {
	trip := privateTrip()
	svc, _ := newService(t, trip)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.KindTransport, trip.ID,
		transportInput(at(11, 8), at(11, 10)), ownerID)
	require.NoError(t, err)

	err = svc.Delete(ctx, domain.KindTransport, trip.ID, created.ID, strangerID)

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ---- List ------------------------------------------------------------------

func TestList_PublicTripAnonymous(t *testing.T) {
	trip := privateTrip()
	trip.Privacy = domain.PrivacyPublic
	svc, _ := newService(t, trip)

	subs, err := svc.List(context.Background(), domain.KindAccommodation, trip.ID, uuid.Nil)

	require.NoError(t, err)
	assert.NotNil(t, subs)
	assert.Empty(t, subs)
}

func TestList_PrivateTripStranger(t *testing.T) {
	trip := privateTrip()
	svc, _ := newService(t, trip)

	_, err := svc.List(context.Background(), domain.KindAccommodation, trip.ID, strangerID)

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestList_PrivateTripSharedUser(t *testing.T) {
	trip := privateTrip()
	subs := &fakeSubResourceRepo{}
	trips := &mockTripRepo{
		getByID: func(_ context.Context, _ uuid.UUID) (domain.Trip, error) { return trip, nil },
		isSharedWith: func(_ context.Context, _, userID uuid.UUID) (bool, error) {
			return userID == strangerID, nil
		},
	}
	svc := service.NewSubResourceService(trips, subs)

	_, err := svc.List(context.Background(), domain.KindAccommodation, trip.ID, strangerID)

	require.NoError(t, err)
}

func TestList_PrivateTripOwner(t *testing.T) {
	trip := privateTrip()
	svc, _ := newService(t, trip)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.KindAccommodation, trip.ID,
		accommodationInput(at(11, 10), at(11, 12)), ownerID)
	require.NoError(t, err)

	subs, err := svc.List(ctx, domain.KindAccommodation, trip.ID, ownerID)

	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

// ---- end-to-end scenario ---------------------------------------------------

// TestLifecycle_BookingScenario walks the canonical flow: a first stay, a
// disjoint second stay, a touching third attempt, and a fully-contained
// fourth attempt.
func TestLifecycle_BookingScenario(t *testing.T) {
	trip := privateTrip()
	svc, _ := newService(t, trip)
	ctx := context.Background()

	// A1: Apr 11 14:00 -> Apr 12 11:00, price 500000.
	a1, err := svc.Create(ctx, domain.KindAccommodation, trip.ID,
		accommodationInput(at(11, 14), at(12, 11)), ownerID)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, a1.ID)

	// A2: starts Apr 12 12:00, clear of A1. Succeeds.
	_, err = svc.Create(ctx, domain.KindAccommodation, trip.ID,
		accommodationInput(at(12, 12), at(13, 10)), ownerID)
	require.NoError(t, err)

	// A2': starts exactly at A1's end. Touching counts as overlap.
	_, err = svc.Create(ctx, domain.KindAccommodation, trip.ID,
		accommodationInput(at(12, 11), at(12, 12)), ownerID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	// A3: fully inside A1.
	_, err = svc.Create(ctx, domain.KindAccommodation, trip.ID,
		accommodationInput(at(11, 20), at(11, 23)), ownerID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	subs, err := svc.List(ctx, domain.KindAccommodation, trip.ID, ownerID)
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}
