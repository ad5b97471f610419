package schedule

import (
	"context"
)

// Store is the collection abstraction the lifecycle service mutates through.
// The in-memory implementation backs single-process deployments and tests;
// the Postgres implementation backs the API server.
type Store interface {
	GetRequestByID(ctx context.Context, id string) (*AppointmentRequest, error)
	ListRequests(ctx context.Context) ([]AppointmentRequest, error)

	// For conflict checks
	ListByDoctorDate(ctx context.Context, doctorID, date string) ([]AppointmentRequest, error)

	InsertRequest(ctx context.Context, req *AppointmentRequest) error
	UpdateRequest(ctx context.Context, req *AppointmentRequest) error
}
