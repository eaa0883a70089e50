// Package domain contains the core data types for the trip planner engine.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (repo, service, handler, syncstate).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Privacy controls who may read a trip and its sub-resources.
type Privacy string

const (
	// PrivacyPublic trips are readable by anyone, authenticated or not.
	PrivacyPublic Privacy = "PUBLIC"
	// PrivacyPrivate trips are readable only by the owner and shared users.
	PrivacyPrivate Privacy = "PRIVATE"
)

// Trip is the top-level aggregate that sub-resources attach to.
// The engine never mutates trips; it reads OwnerID to authorize mutations of
// a trip's sub-resources and Privacy to decide read visibility.
type Trip struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Title     string
	Country   string
	City      string
	Privacy   Privacy
	StartDate time.Time
	EndDate   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
