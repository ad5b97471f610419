package schedule

import (
	"time"
)

type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusApproved   RequestStatus = "approved"
	StatusConfirmed  RequestStatus = "confirmed"
	StatusInProgress RequestStatus = "in-progress"
	StatusCompleted  RequestStatus = "completed"
	StatusCancelled  RequestStatus = "cancelled"
	StatusDeclined   RequestStatus = "declined"
)

type AppointmentType string

const (
	TypeConsultation AppointmentType = "consultation"
	TypeFollowUp     AppointmentType = "follow-up"
	TypeEmergency    AppointmentType = "emergency"
	TypeRoutine      AppointmentType = "routine"
	TypeSpecialist   AppointmentType = "specialist"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// AppointmentRequest is a booking request moving through the approval
// lifecycle. Date is YYYY-MM-DD and Time is 24h HH:MM; DurationMin is the
// appointment length in minutes.
type AppointmentRequest struct {
	ID            string
	PatientName   string
	PatientPhone  string
	PatientEmail  string
	DoctorID      string
	DoctorName    string
	Date          string
	Time          string
	DurationMin   int
	Type          AppointmentType
	Status        RequestStatus
	Symptoms      string
	Notes         string
	Priority      Priority
	BookingSource string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	DeclineReason *string
}

// requestTransitions is the allowed edge set of the request state machine.
// pending → approved → confirmed → in-progress → completed
// pending → declined
// {pending, approved, confirmed} → cancelled
var requestTransitions = map[RequestStatus][]RequestStatus{
	StatusPending:    {StatusApproved, StatusDeclined, StatusCancelled},
	StatusApproved:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

// CanTransitionTo reports whether the status may move to next.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (s RequestStatus) IsTerminal() bool {
	return len(requestTransitions[s]) == 0
}

// IsCommitted reports whether the request holds its slot for conflict
// purposes. Pending requests may freely collide; collision is resolved at
// approval time.
func (s RequestStatus) IsCommitted() bool {
	return s == StatusApproved || s == StatusConfirmed || s == StatusInProgress
}

// isActive reports whether the request still counts toward day load.
func (s RequestStatus) isActive() bool {
	return s == StatusPending || s.IsCommitted()
}

func validAppointmentType(t AppointmentType) bool {
	switch t {
	case TypeConsultation, TypeFollowUp, TypeEmergency, TypeRoutine, TypeSpecialist:
		return true
	}
	return false
}

func validPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ConflictInfo describes one overlap between a candidate slot and an
// existing committed appointment. Computed on demand, never persisted.
type ConflictInfo struct {
	ConflictingID          string
	OverlapStart           string
	OverlapEnd             string
	ConflictingPatientName string
}

// ErrorKind labels a failed bulk item for transport.
type ErrorKind string

const (
	KindConflict     ErrorKind = "conflict"
	KindInvalidState ErrorKind = "invalid_state"
	KindNotFound     ErrorKind = "not_found"
	KindValidation   ErrorKind = "validation"
	KindInternal     ErrorKind = "internal"
)

// BulkResult is the per-id outcome of a bulk operation.
type BulkResult struct {
	ID      string
	Success bool
	Error   ErrorKind
	Message string
}

// Counts are the derived request counters recomputed after every mutation.
type Counts struct {
	Pending int
	Today   int
}

// CreateInput is the booking-flow payload for a new pending request.
type CreateInput struct {
	PatientName   string
	PatientPhone  string
	PatientEmail  string
	DoctorID      string
	DoctorName    string
	Date          string
	Time          string
	DurationMin   int
	Type          AppointmentType
	Symptoms      string
	Notes         string
	Priority      Priority
	BookingSource string
}
