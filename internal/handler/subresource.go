package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nmhoang/tripmate/backend/internal/domain"
	"github.com/nmhoang/tripmate/backend/internal/middleware"
)

// dataEnvelope wraps every successful response body.
type dataEnvelope struct {
	Data any `json:"data"`
}

// CreateSubResource handles POST /subresources/{kind}.
func (s *Server) CreateSubResource(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.kindFromRequest(w, r)
	if !ok {
		return
	}
	actorID, _ := middleware.UserID(r.Context())

	tripID, in, ok := decodeMutation(w, r, kind)
	if !ok {
		return
	}
	if tripID == uuid.Nil {
		badRequest(w, "tripId is required")
		return
	}

	created, err := s.subs.Create(r.Context(), kind, tripID, in, actorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dataEnvelope{Data: subResourceToResponse(created)})
}

// UpdateSubResource handles PUT /subresources/{kind}/{id}.
// The body is a partial payload; absent fields keep their stored values.
func (s *Server) UpdateSubResource(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.kindFromRequest(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid sub-resource id")
		return
	}
	actorID, _ := middleware.UserID(r.Context())

	tripID, in, ok := decodeMutation(w, r, kind)
	if !ok {
		return
	}
	if tripID == uuid.Nil {
		badRequest(w, "tripId is required")
		return
	}

	updated, err := s.subs.Update(r.Context(), kind, tripID, id, in, actorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dataEnvelope{Data: subResourceToResponse(updated)})
}

// DeleteSubResource handles DELETE /subresources/{kind}/{id}?tripId=...
func (s *Server) DeleteSubResource(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.kindFromRequest(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid sub-resource id")
		return
	}
	tripID, err := uuid.Parse(r.URL.Query().Get("tripId"))
	if err != nil {
		badRequest(w, "tripId query parameter is required")
		return
	}
	actorID, _ := middleware.UserID(r.Context())

	if err := s.subs.Delete(r.Context(), kind, tripID, id, actorID); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

// ListSubResources handles GET /subresources/{kind}?tripId=...
// Anonymous callers are allowed; visibility is decided by trip privacy.
func (s *Server) ListSubResources(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.kindFromRequest(w, r)
	if !ok {
		return
	}
	tripID, err := uuid.Parse(r.URL.Query().Get("tripId"))
	if err != nil {
		badRequest(w, "tripId query parameter is required")
		return
	}
	actorID, _ := middleware.UserID(r.Context())

	subs, err := s.subs.List(r.Context(), kind, tripID, actorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	data := make([]map[string]any, len(subs))
	for i, sr := range subs {
		data[i] = subResourceToResponse(sr)
	}
	writeJSON(w, http.StatusOK, dataEnvelope{Data: data})
}

// kindFromRequest resolves the {kind} path segment, answering 404 for
// unknown kinds.
func (s *Server) kindFromRequest(w http.ResponseWriter, r *http.Request) (domain.Kind, bool) {
	kind, err := domain.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeDomainError(w, err)
		return "", false
	}
	return kind, true
}

// decodeMutation reads a create/update body. Known top-level fields (tripId,
// price, startDate, endDate) are decoded by type; the kind's descriptive
// fields are collected into the input's Details map. Reports 400 itself and
// returns ok=false on any decode failure.
func decodeMutation(w http.ResponseWriter, r *http.Request, kind domain.Kind) (uuid.UUID, domain.SubResourceInput, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		badRequest(w, "unable to read request body")
		return uuid.Nil, domain.SubResourceInput{}, false
	}

	var known struct {
		TripID    *uuid.UUID `json:"tripId"`
		Price     *float64   `json:"price"`
		StartDate *string    `json:"startDate"`
		EndDate   *string    `json:"endDate"`
	}
	if err := json.Unmarshal(body, &known); err != nil {
		badRequest(w, "invalid request body")
		return uuid.Nil, domain.SubResourceInput{}, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		badRequest(w, "invalid request body")
		return uuid.Nil, domain.SubResourceInput{}, false
	}

	in := domain.SubResourceInput{Price: known.Price, Details: map[string]string{}}
	for _, field := range kind.Spec().DetailFields {
		raw, ok := fields[field]
		if !ok {
			continue
		}
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			badRequest(w, field+" must be a string")
			return uuid.Nil, domain.SubResourceInput{}, false
		}
		in.Details[field] = v
	}

	if known.StartDate != nil {
		ts, err := parseInstant(*known.StartDate)
		if err != nil {
			badRequest(w, "invalid startDate or endDate format")
			return uuid.Nil, domain.SubResourceInput{}, false
		}
		in.StartAt = &ts
	}
	if known.EndDate != nil {
		ts, err := parseInstant(*known.EndDate)
		if err != nil {
			badRequest(w, "invalid startDate or endDate format")
			return uuid.Nil, domain.SubResourceInput{}, false
		}
		in.EndAt = &ts
	}

	tripID := uuid.Nil
	if known.TripID != nil {
		tripID = *known.TripID
	}
	return tripID, in, true
}

// parseInstant parses an RFC 3339 timestamp, normalized to UTC.
func parseInstant(s string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}

// subResourceToResponse converts a domain.SubResource to its wire shape.
// Descriptive fields are flattened to top level so an accommodation carries
// name/location and a transport carries type/from/to, alongside the shared
// fields.
func subResourceToResponse(sr domain.SubResource) map[string]any {
	out := map[string]any{
		"id":        sr.ID,
		"tripId":    sr.TripID,
		"kind":      string(sr.Kind),
		"price":     sr.Price,
		"startDate": sr.StartAt.UTC().Format(time.RFC3339),
		"endDate":   sr.EndAt.UTC().Format(time.RFC3339),
		"createdAt": sr.CreatedAt.UTC().Format(time.RFC3339),
		"updatedAt": sr.UpdatedAt.UTC().Format(time.RFC3339),
	}
	for k, v := range sr.Details {
		out[k] = v
	}
	return out
}
