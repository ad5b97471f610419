package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

func createAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
			return
		}

		created, err := svc.Create(r.Context(), schedule.CreateInput{
			PatientName:   req.PatientName,
			PatientPhone:  req.PatientPhone,
			PatientEmail:  req.PatientEmail,
			DoctorID:      req.DoctorID,
			DoctorName:    req.DoctorName,
			Date:          req.Date,
			Time:          req.Time,
			DurationMin:   req.DurationMin,
			Type:          schedule.AppointmentType(req.Type),
			Symptoms:      req.Symptoms,
			Notes:         req.Notes,
			Priority:      schedule.Priority(req.Priority),
			BookingSource: req.BookingSource,
		})
		if err != nil {
			writeScheduleError(w, r, svc, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(created))
	}
}

func listAppointmentsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requests, err := svc.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		out := make([]AppointmentResponse, 0, len(requests))
		for i := range requests {
			out = append(out, toAppointmentResponse(&requests[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeScheduleError(w, r, svc, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(req))
	}
}

func approveAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body ApproveRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
				return
			}
		}

		approved, err := svc.Approve(r.Context(), chi.URLParam(r, "id"), body.Notes)
		if err != nil {
			writeScheduleError(w, r, svc, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(approved))
	}
}

func declineAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body DeclineRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
			return
		}

		declined, err := svc.Decline(r.Context(), chi.URLParam(r, "id"), body.Reason)
		if err != nil {
			writeScheduleError(w, r, svc, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(declined))
	}
}

func cancelAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cancelled, err := svc.Cancel(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeScheduleError(w, r, svc, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(cancelled))
	}
}

func rescheduleAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
			return
		}

		moved, err := svc.Reschedule(r.Context(), chi.URLParam(r, "id"), body.Date, body.Time)
		if err != nil {
			writeScheduleError(w, r, svc, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(moved))
	}
}

func updateAppointmentStatusHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body UpdateAppointmentStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
			return
		}

		updated, err := svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), schedule.RequestStatus(body.Status))
		if err != nil {
			writeScheduleError(w, r, svc, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(updated))
	}
}

func bulkApproveHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body BulkApproveRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
			return
		}
		if len(body.IDs) == 0 {
			writeError(w, http.StatusBadRequest, "validation_error", "ids must not be empty")
			return
		}

		results := svc.BulkApprove(r.Context(), body.IDs)
		writeJSON(w, http.StatusOK, toBulkResponse(results))
	}
}

func bulkDeclineHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body BulkDeclineRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
			return
		}
		if len(body.IDs) == 0 {
			writeError(w, http.StatusBadRequest, "validation_error", "ids must not be empty")
			return
		}

		results := svc.BulkDecline(r.Context(), body.IDs, body.Reason)
		writeJSON(w, http.StatusOK, toBulkResponse(results))
	}
}

func checkConflictsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		duration, err := strconv.Atoi(q.Get("duration_min"))
		if err != nil || duration <= 0 {
			writeError(w, http.StatusBadRequest, "validation_error", "duration_min must be a positive integer")
			return
		}

		conflicts, err := svc.CheckConflicts(r.Context(), q.Get("date"), q.Get("time"), duration, q.Get("doctor_id"), q.Get("exclude_id"))
		if err != nil {
			writeScheduleError(w, r, svc, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"has_conflicts": len(conflicts) > 0,
			"conflicts":     toConflictResponses(conflicts),
		})
	}
}

func suggestSlotsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		duration, err := strconv.Atoi(q.Get("duration_min"))
		if err != nil || duration <= 0 {
			writeError(w, http.StatusBadRequest, "validation_error", "duration_min must be a positive integer")
			return
		}
		count := 3
		if raw := q.Get("count"); raw != "" {
			if count, err = strconv.Atoi(raw); err != nil || count <= 0 {
				writeError(w, http.StatusBadRequest, "validation_error", "count must be a positive integer")
				return
			}
		}

		slots, err := svc.SuggestSlots(r.Context(), q.Get("date"), q.Get("time"), duration, q.Get("doctor_id"), count)
		if err != nil {
			writeScheduleError(w, r, svc, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"suggested_slots": slots})
	}
}

func appointmentCountsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := svc.Counts(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, CountsResponse{
			Pending: counts.Pending,
			Today:   counts.Today,
		})
	}
}

// writeScheduleError maps scheduling errors to HTTP responses. A conflict
// additionally carries alternative slots so the client can re-offer the
// patient a time without a second round trip.
func writeScheduleError(w http.ResponseWriter, r *http.Request, svc *schedule.Service, err error) {
	var conflictErr *schedule.ConflictError
	if errors.As(err, &conflictErr) {
		resp := ConflictErrorResponse{
			Error:     "slot_conflict",
			Conflicts: toConflictResponses(conflictErr.Conflicts),
		}
		if id := chi.URLParam(r, "id"); id != "" {
			if req, getErr := svc.Get(r.Context(), id); getErr == nil {
				if slots, sErr := svc.SuggestSlots(r.Context(), req.Date, req.Time, req.DurationMin, req.DoctorID, 3); sErr == nil {
					resp.SuggestedSlots = slots
				}
			}
		}
		writeJSON(w, http.StatusConflict, resp)
		return
	}

	var validationErr *schedule.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, "validation_error", validationErr.Error())
		return
	}

	switch {
	case errors.Is(err, schedule.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "appointment request not found")
	case errors.Is(err, schedule.ErrInvalidState):
		writeError(w, http.StatusConflict, "invalid_state", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
