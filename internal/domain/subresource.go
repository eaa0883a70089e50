package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind identifies a sub-resource flavor. All kinds share one lifecycle and
// one conflict algorithm; they differ only in their descriptive fields.
type Kind string

const (
	// KindAccommodation is a lodging stay (hotel, rental, campsite).
	KindAccommodation Kind = "accommodation"
	// KindTransport is a transport leg (flight, train, bus, ferry).
	KindTransport Kind = "transport"
)

// KindSpec is the capability descriptor for a sub-resource kind: the label
// used in user-facing messages and the descriptive fields that must be
// present and non-empty on creation.
type KindSpec struct {
	Label        string
	DetailFields []string
}

// kindSpecs is the closed set of supported kinds. Adding a kind means adding
// an entry here and a value to the kind CHECK constraint in the migrations.
var kindSpecs = map[Kind]KindSpec{
	KindAccommodation: {Label: "accommodation", DetailFields: []string{"name", "location"}},
	KindTransport:     {Label: "transport", DetailFields: []string{"type", "from", "to"}},
}

// ParseKind maps a URL path segment to a Kind.
// Unknown kinds wrap ErrNotFound so handlers answer 404 for made-up routes.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := kindSpecs[k]; !ok {
		return "", fmt.Errorf("%w: unknown sub-resource kind %q", ErrNotFound, s)
	}
	return k, nil
}

// Spec returns the capability descriptor for k.
// k must be a value produced by ParseKind or one of the Kind constants.
func (k Kind) Spec() KindSpec {
	return kindSpecs[k]
}

// SubResource is a time-bounded entity attached to exactly one trip: an
// accommodation stay or a transport leg. Details holds the kind-specific
// descriptive fields (accommodation: name, location; transport: type, from,
// to). Ownership is not stored here; it derives from the owning trip.
type SubResource struct {
	ID        uuid.UUID
	TripID    uuid.UUID
	Kind      Kind
	Details   map[string]string
	Price     float64
	StartAt   time.Time
	EndAt     time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Interval returns the time span this sub-resource occupies.
func (sr SubResource) Interval() TimeInterval {
	return TimeInterval{StartAt: sr.StartAt, EndAt: sr.EndAt}
}

// SubResourceInput is a mutation payload. Nil pointers and absent Details
// keys mean "field not supplied": creation rejects them, updates fall back
// to the currently stored value.
type SubResourceInput struct {
	Details map[string]string
	Price   *float64
	StartAt *time.Time
	EndAt   *time.Time
}
