// Package handler implements the HTTP handlers for the trip planner API.
// Handlers decode requests, call the service layer, and map domain errors
// to HTTP status codes. No business rules live here.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nmhoang/tripmate/backend/internal/domain"
)

// SubResourceServicer defines the business operations the handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type SubResourceServicer interface {
	Create(ctx context.Context, kind domain.Kind, tripID uuid.UUID, in domain.SubResourceInput, actorID uuid.UUID) (domain.SubResource, error)
	Update(ctx context.Context, kind domain.Kind, tripID, id uuid.UUID, in domain.SubResourceInput, actorID uuid.UUID) (domain.SubResource, error)
	Delete(ctx context.Context, kind domain.Kind, tripID, id uuid.UUID, actorID uuid.UUID) error
	List(ctx context.Context, kind domain.Kind, tripID, actorID uuid.UUID) ([]domain.SubResource, error)
}

// Server holds the handler dependencies.
type Server struct {
	subs SubResourceServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(subs SubResourceServicer) *Server {
	return &Server{subs: subs}
}

// Routes registers the sub-resource and health routes on r.
// requireAuth guards mutations; optionalAuth lets anonymous users read
// public trips. Both are built in main from the same JWT secret.
func (s *Server) Routes(r chi.Router, requireAuth, optionalAuth func(http.Handler) http.Handler) {
	r.Get("/healthz", s.GetHealth)
	r.Route("/subresources/{kind}", func(r chi.Router) {
		r.With(optionalAuth).Get("/", s.ListSubResources)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", s.CreateSubResource)
			r.Put("/{id}", s.UpdateSubResource)
			r.Delete("/{id}", s.DeleteSubResource)
		})
	})
}
