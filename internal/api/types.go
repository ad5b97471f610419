package api

import (
	"time"

	"github.com/hackgods/clinic-scheduling/internal/queue"
	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

type CreateAppointmentRequest struct {
	PatientName   string `json:"patient_name"`
	PatientPhone  string `json:"patient_phone"`
	PatientEmail  string `json:"patient_email"`
	DoctorID      string `json:"doctor_id"`
	DoctorName    string `json:"doctor_name"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	DurationMin   int    `json:"duration_min"`
	Type          string `json:"type"`
	Symptoms      string `json:"symptoms,omitempty"`
	Notes         string `json:"notes,omitempty"`
	Priority      string `json:"priority,omitempty"`
	BookingSource string `json:"booking_source,omitempty"`
}

type AppointmentResponse struct {
	ID            string     `json:"id"`
	PatientName   string     `json:"patient_name"`
	PatientPhone  string     `json:"patient_phone,omitempty"`
	PatientEmail  string     `json:"patient_email,omitempty"`
	DoctorID      string     `json:"doctor_id"`
	DoctorName    string     `json:"doctor_name,omitempty"`
	Date          string     `json:"date"`
	Time          string     `json:"time"`
	DurationMin   int        `json:"duration_min"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	Symptoms      string     `json:"symptoms,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Priority      string     `json:"priority"`
	BookingSource string     `json:"booking_source,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
	DeclineReason *string    `json:"decline_reason,omitempty"`
}

func toAppointmentResponse(req *schedule.AppointmentRequest) AppointmentResponse {
	return AppointmentResponse{
		ID:            req.ID,
		PatientName:   req.PatientName,
		PatientPhone:  req.PatientPhone,
		PatientEmail:  req.PatientEmail,
		DoctorID:      req.DoctorID,
		DoctorName:    req.DoctorName,
		Date:          req.Date,
		Time:          req.Time,
		DurationMin:   req.DurationMin,
		Type:          string(req.Type),
		Status:        string(req.Status),
		Symptoms:      req.Symptoms,
		Notes:         req.Notes,
		Priority:      string(req.Priority),
		BookingSource: req.BookingSource,
		CreatedAt:     req.CreatedAt,
		UpdatedAt:     req.UpdatedAt,
		DeclineReason: req.DeclineReason,
	}
}

type ApproveRequest struct {
	Notes string `json:"notes,omitempty"`
}

type DeclineRequest struct {
	Reason string `json:"reason"`
}

type RescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status"`
}

type BulkApproveRequest struct {
	IDs []string `json:"ids"`
}

type BulkDeclineRequest struct {
	IDs    []string `json:"ids"`
	Reason string   `json:"reason"`
}

type BulkItemResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func toBulkResponse(results []schedule.BulkResult) []BulkItemResponse {
	out := make([]BulkItemResponse, 0, len(results))
	for _, r := range results {
		out = append(out, BulkItemResponse{
			ID:      r.ID,
			Success: r.Success,
			Error:   string(r.Error),
			Message: r.Message,
		})
	}
	return out
}

type ConflictResponse struct {
	ConflictingID   string `json:"conflicting_appointment_id"`
	OverlapStart    string `json:"overlap_start"`
	OverlapEnd      string `json:"overlap_end"`
	ConflictingName string `json:"conflicting_patient_name"`
}

func toConflictResponses(conflicts []schedule.ConflictInfo) []ConflictResponse {
	out := make([]ConflictResponse, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, ConflictResponse{
			ConflictingID:   c.ConflictingID,
			OverlapStart:    c.OverlapStart,
			OverlapEnd:      c.OverlapEnd,
			ConflictingName: c.ConflictingPatientName,
		})
	}
	return out
}

// ConflictErrorResponse is the 409 body for approve/reschedule: the
// conflicts plus suggested alternatives, so the caller can offer a way out.
type ConflictErrorResponse struct {
	Error          string             `json:"error"`
	Conflicts      []ConflictResponse `json:"conflicts"`
	SuggestedSlots []string           `json:"suggested_slots,omitempty"`
}

type CountsResponse struct {
	Pending int `json:"pending"`
	Today   int `json:"today"`
}

type AddQueueItemRequest struct {
	// Either activate an approved appointment request...
	AppointmentRequestID string `json:"appointment_request_id,omitempty"`

	// ...or add a walk-in directly.
	PatientName          string `json:"patient_name,omitempty"`
	PatientPhone         string `json:"patient_phone,omitempty"`
	DoctorID             string `json:"doctor_id,omitempty"`
	DoctorName           string `json:"doctor_name,omitempty"`
	AppointmentTime      string `json:"appointment_time,omitempty"`
	EstimatedDurationMin int    `json:"estimated_duration_min,omitempty"`
	Priority             string `json:"priority,omitempty"`
	Status               string `json:"status,omitempty"`
}

type QueueItemResponse struct {
	ID                   string     `json:"id"`
	PatientName          string     `json:"patient_name"`
	PatientPhone         string     `json:"patient_phone,omitempty"`
	DoctorID             string     `json:"doctor_id"`
	DoctorName           string     `json:"doctor_name,omitempty"`
	AppointmentTime      string     `json:"appointment_time,omitempty"`
	EstimatedDurationMin int        `json:"estimated_duration_min"`
	Status               string     `json:"status"`
	Priority             string     `json:"priority,omitempty"`
	QueuePosition        int        `json:"queue_position"`
	CheckInTime          *time.Time `json:"check_in_time,omitempty"`
	CheckOutTime         *time.Time `json:"check_out_time,omitempty"`
	EstimatedCallTime    *string    `json:"estimated_call_time,omitempty"`
}

func toQueueItemResponse(item *queue.Item) QueueItemResponse {
	return QueueItemResponse{
		ID:                   item.ID,
		PatientName:          item.PatientName,
		PatientPhone:         item.PatientPhone,
		DoctorID:             item.DoctorID,
		DoctorName:           item.DoctorName,
		AppointmentTime:      item.AppointmentTime,
		EstimatedDurationMin: item.EstimatedDurationMin,
		Status:               string(item.Status),
		Priority:             string(item.Priority),
		QueuePosition:        item.QueuePosition,
		CheckInTime:          item.CheckInTime,
		CheckOutTime:         item.CheckOutTime,
		EstimatedCallTime:    item.EstimatedCallTime,
	}
}

type UpdateQueueStatusRequest struct {
	Status string `json:"status"`
}

type MoveQueueItemRequest struct {
	Direction string `json:"direction"`
}

type CallTimeRequest struct {
	EstimatedCallTime string `json:"estimated_call_time"`
}

type QueueStatsResponse struct {
	Total          int `json:"total"`
	Scheduled      int `json:"scheduled"`
	Arrived        int `json:"arrived"`
	Waiting        int `json:"waiting"`
	InConsultation int `json:"in_consultation"`
	Completed      int `json:"completed"`
	NoShow         int `json:"no_show"`
}

type NotificationResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
