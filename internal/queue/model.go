package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

type Status string

const (
	StatusScheduled      Status = "scheduled"
	StatusArrived        Status = "arrived"
	StatusWaiting        Status = "waiting"
	StatusInConsultation Status = "in-consultation"
	StatusCompleted      Status = "completed"
	StatusNoShow         Status = "no-show"
)

// transitions is the allowed edge set of the visit state machine.
// scheduled → arrived → waiting → in-consultation → completed
// scheduled → no-show
// {arrived, waiting} → no-show
var transitions = map[Status][]Status{
	StatusScheduled:      {StatusArrived, StatusNoShow},
	StatusArrived:        {StatusWaiting, StatusNoShow},
	StatusWaiting:        {StatusInConsultation, StatusNoShow},
	StatusInConsultation: {StatusCompleted},
}

// CanTransitionTo reports whether the status may move to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the visit is over.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusNoShow
}

// HoldsPosition reports whether the status occupies a slot in the active
// call order. Only arrived and waiting entries are orderable.
func (s Status) HoldsPosition() bool {
	return s == StatusArrived || s == StatusWaiting
}

// Item is one patient's visit instance for a service day, typically derived
// from an approved appointment request.
type Item struct {
	ID                   string
	PatientName          string
	PatientPhone         string
	DoctorID             string
	DoctorName           string
	AppointmentTime      string // HH:MM
	EstimatedDurationMin int
	Status               Status
	Priority             schedule.Priority
	QueuePosition        int // 1-based among active entries, 0 otherwise
	CheckInTime          *time.Time
	CheckOutTime         *time.Time
	EstimatedCallTime    *string // HH:MM
	CreatedAt            time.Time
}

// ItemFromRequest activates an approved appointment request for a service
// day. The caller adds the result through Service.Add.
func ItemFromRequest(req *schedule.AppointmentRequest) Item {
	return Item{
		ID:                   uuid.NewString(),
		PatientName:          req.PatientName,
		PatientPhone:         req.PatientPhone,
		DoctorID:             req.DoctorID,
		DoctorName:           req.DoctorName,
		AppointmentTime:      req.Time,
		EstimatedDurationMin: req.DurationMin,
		Status:               StatusScheduled,
		Priority:             req.Priority,
	}
}

// Direction of a manual queue move.
type Direction string

const (
	MoveUp   Direction = "up"
	MoveDown Direction = "down"
)

// Notification is a transient message produced by queue mutations and
// retained until the consumer clears it.
type Notification struct {
	Message   string
	Timestamp time.Time
	Category  string
}

// Stats are the per-status counts, recomputed from the collection on every
// call.
type Stats struct {
	Total          int
	Scheduled      int
	Arrived        int
	Waiting        int
	InConsultation int
	Completed      int
	NoShow         int
}
