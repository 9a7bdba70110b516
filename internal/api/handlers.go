package api

import (
	"errors"
	"net/http"
	"time"

	"lendhub/internal/cache"
	"lendhub/internal/domain"
	"lendhub/internal/models"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCollection serves any cached entity collection together with
// its freshness metadata.
func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	t := models.EntityType(r.PathValue("entity"))
	if !t.Valid() {
		writeError(w, http.StatusNotFound, "unknown entity type")
		return
	}

	last := s.store.LastRefresh(t)
	resp := map[string]any{
		"items": s.collection(t),
		"fresh": s.store.IsFresh(t),
	}
	if !last.IsZero() {
		resp["last_refresh"] = last
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) collection(t models.EntityType) any {
	switch t {
	case models.EntityUsers:
		return cache.Read[models.User](s.store, t)
	case models.EntityResources:
		return cache.Read[models.Resource](s.store, t)
	case models.EntityLoans:
		return cache.Read[models.Loan](s.store, t)
	case models.EntityReservations:
		return cache.Read[models.Reservation](s.store, t)
	case models.EntityMeetings:
		return cache.Read[models.Meeting](s.store, t)
	case models.EntityCategories:
		return cache.Read[models.Category](s.store, t)
	case models.EntityAreas:
		return cache.Read[models.Area](s.store, t)
	case models.EntityGrades:
		return cache.Read[models.Grade](s.store, t)
	case models.EntityHours:
		return cache.Read[models.PedagogicalHour](s.store, t)
	case models.EntitySettings:
		return cache.Read[models.AppSettings](s.store, t)
	default:
		return nil
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Types []string `json:"types"`
		Force bool     `json:"force"`
	}
	var body request
	if r.ContentLength > 0 {
		if err := apiJSON.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	if len(body.Types) > 0 {
		types := make([]models.EntityType, 0, len(body.Types))
		for _, raw := range body.Types {
			t := models.EntityType(raw)
			if !t.Valid() {
				writeError(w, http.StatusBadRequest, "unknown entity type: "+raw)
				return
			}
			types = append(types, t)
		}
		if err := s.refresher.RefreshTypes(r.Context(), types...); err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"refreshed": body.Types})
		return
	}

	result, err := s.refresher.LoadAll(r.Context(), body.Force)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	failed := make(map[string]string, len(result.Failed))
	for t, ferr := range result.Failed {
		failed[string(t)] = ferr.Error()
	}
	resp := map[string]any{
		"refreshed":  result.Refreshed,
		"skipped":    result.Skipped,
		"attempts":   result.Attempts,
		"elapsed_ms": result.Elapsed.Milliseconds(),
		"partial":    result.Partial(),
	}
	if len(failed) > 0 {
		resp["failed"] = failed
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLoanCreate(w http.ResponseWriter, r *http.Request) {
	type request struct {
		UserID      string   `json:"user_id"`
		Purpose     string   `json:"purpose"`
		ResourceIDs []string `json:"resource_ids"`
		CreatedBy   string   `json:"created_by"`
	}
	var body request
	if err := apiJSON.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	creator := body.CreatedBy
	if creator == "" {
		creator = body.UserID
	}
	role := ""
	if u, ok := cache.Find[models.User](s.store, models.EntityUsers, creator); ok {
		role = u.Role
	}

	loan, err := s.loans.Create(r.Context(), models.LoanRequest{
		UserID:      body.UserID,
		Purpose:     body.Purpose,
		ResourceIDs: body.ResourceIDs,
	}, role)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

func (s *Server) handleLoanApprove(w http.ResponseWriter, r *http.Request) {
	loan, err := s.loans.Approve(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (s *Server) handleLoanReject(w http.ResponseWriter, r *http.Request) {
	loan, err := s.loans.Reject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (s *Server) handleLoanReturn(w http.ResponseWriter, r *http.Request) {
	var reports models.ReturnReports
	if r.ContentLength > 0 {
		if err := apiJSON.NewDecoder(r.Body).Decode(&reports); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	loan, err := s.loans.ProcessReturn(r.Context(), r.PathValue("id"), reports)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (s *Server) handleReservationCreate(w http.ResponseWriter, r *http.Request) {
	type request struct {
		UserID  string `json:"user_id"`
		Purpose string `json:"purpose"`
		Date    string `json:"date"`
		Slot    string `json:"slot"`
	}
	var body request
	if err := apiJSON.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date, err := parseDate(body.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
		return
	}

	reservation, err := s.reservations.Create(r.Context(), models.ReservationRequest{
		UserID:  body.UserID,
		Purpose: body.Purpose,
		Date:    date,
		Slot:    body.Slot,
	})
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, reservation)
}

func (s *Server) handleReservationStatus(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Status string `json:"status"`
	}
	var body request
	if err := apiJSON.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reservation, err := s.reservations.UpdateStatus(r.Context(), r.PathValue("id"), body.Status)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (s *Server) handleResourceCreate(w http.ResponseWriter, r *http.Request) {
	var resource models.Resource
	if err := apiJSON.NewDecoder(r.Body).Decode(&resource); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	created, err := s.resources.Create(r.Context(), resource)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleResourceUpdate(w http.ResponseWriter, r *http.Request) {
	var resource models.Resource
	if err := apiJSON.NewDecoder(r.Body).Decode(&resource); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resource.ID = r.PathValue("id")

	updated, err := s.resources.Update(r.Context(), resource)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleResourceDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.resources.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// statusForError maps domain errors onto HTTP statuses. Unclassified
// errors are treated as rejected input.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSlotConflict), errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTimeoutExceeded):
		return http.StatusGatewayTimeout
	}
	var remote *domain.RemoteError
	if errors.As(err, &remote) {
		return http.StatusBadGateway
	}
	var partial *domain.PartialFailure
	if errors.As(err, &partial) {
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}
