package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/clinic-scheduling/internal/queue"
	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

// addQueueItemHandler enqueues a patient either from an approved
// appointment request or directly as a walk-in.
func addQueueItemHandler(queueSvc *queue.Service, scheduleSvc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddQueueItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
			return
		}

		var item queue.Item
		if req.AppointmentRequestID != "" {
			appt, err := scheduleSvc.Get(r.Context(), req.AppointmentRequestID)
			if err != nil {
				writeScheduleError(w, r, scheduleSvc, err)
				return
			}
			if !appt.Status.IsCommitted() {
				writeError(w, http.StatusConflict, "invalid_state", "appointment request is not committed to the schedule")
				return
			}
			item = queue.ItemFromRequest(appt)
		} else {
			item = queue.Item{
				PatientName:          req.PatientName,
				PatientPhone:         req.PatientPhone,
				DoctorID:             req.DoctorID,
				DoctorName:           req.DoctorName,
				AppointmentTime:      req.AppointmentTime,
				EstimatedDurationMin: req.EstimatedDurationMin,
				Priority:             schedule.Priority(req.Priority),
			}
		}
		item.Status = queue.Status(req.Status)

		added, err := queueSvc.Add(r.Context(), item)
		if err != nil {
			writeQueueError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toQueueItemResponse(added))
	}
}

func listQueueHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		out := make([]QueueItemResponse, 0, len(items))
		for i := range items {
			out = append(out, toQueueItemResponse(&items[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getQueueItemHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeQueueError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toQueueItemResponse(item))
	}
}

func updateQueueStatusHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body UpdateQueueStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
			return
		}

		updated, err := svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), queue.Status(body.Status))
		if err != nil {
			writeQueueError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toQueueItemResponse(updated))
	}
}

func moveQueueItemHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body MoveQueueItemRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
			return
		}

		moved, err := svc.Move(r.Context(), chi.URLParam(r, "id"), queue.Direction(body.Direction))
		if err != nil {
			writeQueueError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toQueueItemResponse(moved))
	}
}

func setCallTimeHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body CallTimeRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
			return
		}

		updated, err := svc.SetEstimatedCallTime(r.Context(), chi.URLParam(r, "id"), body.EstimatedCallTime)
		if err != nil {
			writeQueueError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toQueueItemResponse(updated))
	}
}

func estimateCallTimesHandler(svc *queue.Service, defaultConsultMin int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		avg := defaultConsultMin
		if raw := r.URL.Query().Get("avg_consult_min"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				writeError(w, http.StatusBadRequest, "validation_error", "avg_consult_min must be a positive integer")
				return
			}
			avg = parsed
		}

		if err := svc.EstimateCallTimes(r.Context(), avg); err != nil {
			writeQueueError(w, err)
			return
		}
		listQueueHandler(svc)(w, r)
	}
}

func queueStatsHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, QueueStatsResponse{
			Total:          stats.Total,
			Scheduled:      stats.Scheduled,
			Arrived:        stats.Arrived,
			Waiting:        stats.Waiting,
			InConsultation: stats.InConsultation,
			Completed:      stats.Completed,
			NoShow:         stats.NoShow,
		})
	}
}

func listNotificationsHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notifications := svc.Notifications()
		out := make([]NotificationResponse, 0, len(notifications))
		for _, n := range notifications {
			out = append(out, NotificationResponse{
				Message:   n.Message,
				Timestamp: n.Timestamp,
				Category:  n.Category,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func clearNotificationsHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ClearNotifications()
		w.WriteHeader(http.StatusNoContent)
	}
}

func refreshQueueHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Refresh(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		listQueueHandler(svc)(w, r)
	}
}

func writeQueueError(w http.ResponseWriter, err error) {
	var validationErr *queue.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, "validation_error", validationErr.Error())
		return
	}

	switch {
	case errors.Is(err, queue.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "queue item not found")
	case errors.Is(err, queue.ErrInvalidState):
		writeError(w, http.StatusConflict, "invalid_state", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
