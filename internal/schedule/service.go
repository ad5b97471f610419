package schedule

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/timeslot"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

// Service owns the appointment request collection. All mutations go through
// it so the no-double-booking invariant is enforced in one place. The mutex
// serializes conflict-check-then-commit sequences within the process; the
// locker extends that guarantee across processes when the store is shared.
type Service struct {
	mu     sync.Mutex
	store  Store
	locker redisclient.Locker
	logger zerolog.Logger
	slots  SlotOptions
	now    func() time.Time
}

func NewService(store Store, locker redisclient.Locker, logger zerolog.Logger, slots SlotOptions) *Service {
	if locker == nil {
		locker = redisclient.NoopLocker{}
	}
	if slots.StepMin <= 0 {
		slots = DefaultSlotOptions()
	}
	return &Service{
		store:  store,
		locker: locker,
		logger: logger,
		slots:  slots,
		now:    time.Now,
	}
}

// Create registers a new pending request from a booking flow. Pending
// requests may collide freely; conflicts are resolved at approval time.
func (s *Service) Create(ctx context.Context, in CreateInput) (*AppointmentRequest, error) {
	if strings.TrimSpace(in.PatientName) == "" {
		return nil, &ValidationError{Field: "patientName", Reason: "must not be empty"}
	}
	if strings.TrimSpace(in.DoctorID) == "" {
		return nil, &ValidationError{Field: "doctorId", Reason: "must not be empty"}
	}
	if !validAppointmentType(in.Type) {
		return nil, &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown appointment type %q", in.Type)}
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !validPriority(in.Priority) {
		return nil, &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", in.Priority)}
	}
	if _, err := s.validateSlot(in.Date, in.Time, in.DurationMin); err != nil {
		return nil, err
	}

	req := &AppointmentRequest{
		ID:            uuid.NewString(),
		PatientName:   in.PatientName,
		PatientPhone:  in.PatientPhone,
		PatientEmail:  in.PatientEmail,
		DoctorID:      in.DoctorID,
		DoctorName:    in.DoctorName,
		Date:          in.Date,
		Time:          in.Time,
		DurationMin:   in.DurationMin,
		Type:          in.Type,
		Status:        StatusPending,
		Symptoms:      in.Symptoms,
		Notes:         in.Notes,
		Priority:      in.Priority,
		BookingSource: in.BookingSource,
		CreatedAt:     s.now(),
	}

	if err := s.store.InsertRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("insert request: %w", err)
	}

	s.logger.Info().
		Str("request_id", req.ID).
		Str("doctor_id", req.DoctorID).
		Str("date", req.Date).
		Str("time", req.Time).
		Msg("appointment request created")

	return req, nil
}

func (s *Service) Get(ctx context.Context, id string) (*AppointmentRequest, error) {
	return s.store.GetRequestByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]AppointmentRequest, error) {
	return s.store.ListRequests(ctx)
}

// Approve moves a pending request to approved after a conflict check.
// A ConflictError carries the overlapping appointments so the caller can
// offer suggested slots instead of failing hard.
func (s *Service) Approve(ctx context.Context, id, notes string) (*AppointmentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.approveLocked(ctx, id, notes)
}

func (s *Service) approveLocked(ctx context.Context, id, notes string) (*AppointmentRequest, error) {
	req, err := s.store.GetRequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, fmt.Errorf("%w: approve requires pending, request %s is %s", ErrInvalidState, id, req.Status)
	}

	err = s.locker.WithScheduleLock(ctx, req.DoctorID, req.Date, func(lockCtx context.Context) error {
		conflicts, err := s.findConflicts(lockCtx, req.Date, req.Time, req.DurationMin, req.DoctorID, req.ID)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return &ConflictError{Conflicts: conflicts}
		}

		req.Status = StatusApproved
		s.stamp(req)
		appendNotes(req, notes)

		if err := s.store.UpdateRequest(lockCtx, req); err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("request_id", req.ID).
		Str("doctor_id", req.DoctorID).
		Msg("appointment approved")

	return req, nil
}

// Decline rejects a pending request. A reason is required and stored for
// history; declining a later-stage appointment is not supported.
func (s *Service) Decline(ctx context.Context, id, reason string) (*AppointmentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.declineLocked(ctx, id, reason)
}

func (s *Service) declineLocked(ctx context.Context, id, reason string) (*AppointmentRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, &ValidationError{Field: "reason", Reason: "must not be empty"}
	}

	req, err := s.store.GetRequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, fmt.Errorf("%w: decline requires pending, request %s is %s", ErrInvalidState, id, req.Status)
	}

	req.Status = StatusDeclined
	req.DeclineReason = &reason
	s.stamp(req)

	if err := s.store.UpdateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("update request: %w", err)
	}

	s.logger.Info().
		Str("request_id", req.ID).
		Str("reason", reason).
		Msg("appointment declined")

	return req, nil
}

// Cancel abandons a request that has not yet started.
func (s *Service) Cancel(ctx context.Context, id string) (*AppointmentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.store.GetRequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransitionTo(StatusCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel request %s in status %s", ErrInvalidState, id, req.Status)
	}

	req.Status = StatusCancelled
	s.stamp(req)

	if err := s.store.UpdateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("update request: %w", err)
	}

	s.logger.Info().Str("request_id", req.ID).Msg("appointment cancelled")
	return req, nil
}

// Reschedule replaces the slot of a request, re-validated as if approving
// anew. Status is preserved, except a completed request becomes a fresh
// pending one. Declined and cancelled requests cannot be rescheduled.
func (s *Service) Reschedule(ctx context.Context, id, newDate, newTime string) (*AppointmentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.store.GetRequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status == StatusDeclined || req.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: cannot reschedule request %s in status %s", ErrInvalidState, id, req.Status)
	}
	if _, err := s.validateSlot(newDate, newTime, req.DurationMin); err != nil {
		return nil, err
	}

	err = s.locker.WithScheduleLock(ctx, req.DoctorID, newDate, func(lockCtx context.Context) error {
		conflicts, err := s.findConflicts(lockCtx, newDate, newTime, req.DurationMin, req.DoctorID, req.ID)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return &ConflictError{Conflicts: conflicts}
		}

		req.Date = newDate
		req.Time = newTime
		if req.Status == StatusCompleted {
			// Reschedule from terminal is a new booking cycle.
			req.Status = StatusPending
		}
		s.stamp(req)

		if err := s.store.UpdateRequest(lockCtx, req); err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("request_id", req.ID).
		Str("date", newDate).
		Str("time", newTime).
		Msg("appointment rescheduled")

	return req, nil
}

// UpdateStatus applies one state-machine edge: confirm, start, complete or
// cancel. Approve and decline have dedicated operations because they carry
// extra semantics (conflict check, decline reason).
func (s *Service) UpdateStatus(ctx context.Context, id string, next RequestStatus) (*AppointmentRequest, error) {
	switch next {
	case StatusApproved:
		return s.Approve(ctx, id, "")
	case StatusDeclined:
		return nil, &ValidationError{Field: "status", Reason: "declining requires a reason, use the decline operation"}
	case StatusCancelled:
		return s.Cancel(ctx, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.store.GetRequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s → %s is not an allowed transition", ErrInvalidState, req.Status, next)
	}

	req.Status = next
	s.stamp(req)

	if err := s.store.UpdateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("update request: %w", err)
	}

	s.logger.Info().
		Str("request_id", req.ID).
		Str("status", string(next)).
		Msg("appointment status updated")

	return req, nil
}

// BulkApprove applies Approve to each id independently. Partial failure is
// expected: every id gets its own outcome and one conflict never aborts the
// rest of the batch.
func (s *Service) BulkApprove(ctx context.Context, ids []string) []BulkResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		_, err := s.approveLocked(ctx, id, "")
		results = append(results, toBulkResult(id, err))
	}
	return results
}

// BulkDecline declines each id independently with the shared reason.
func (s *Service) BulkDecline(ctx context.Context, ids []string, reason string) []BulkResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		_, err := s.declineLocked(ctx, id, reason)
		results = append(results, toBulkResult(id, err))
	}
	return results
}

func toBulkResult(id string, err error) BulkResult {
	if err == nil {
		return BulkResult{ID: id, Success: true}
	}
	return BulkResult{ID: id, Success: false, Error: KindOf(err), Message: err.Error()}
}

// CheckConflicts is a pure query: it never mutates and reports every
// committed appointment overlapping the candidate slot.
func (s *Service) CheckConflicts(ctx context.Context, date, clock string, durationMin int, doctorID, excludeID string) ([]ConflictInfo, error) {
	if _, err := s.validateSlot(date, clock, durationMin); err != nil {
		return nil, err
	}
	return s.findConflicts(ctx, date, clock, durationMin, doctorID, excludeID)
}

func (s *Service) findConflicts(ctx context.Context, date, clock string, durationMin int, doctorID, excludeID string) ([]ConflictInfo, error) {
	candidate, err := timeslot.NewInterval(clock, durationMin)
	if err != nil {
		return nil, &ValidationError{Field: "time", Reason: err.Error()}
	}

	existing, err := s.store.ListByDoctorDate(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments for doctor %s on %s: %w", doctorID, date, err)
	}

	return DetectConflicts(existing, candidate, doctorID, excludeID), nil
}

// SuggestSlots returns up to count conflict-free slots for the doctor on the
// date, ranked by proximity to the requested time.
func (s *Service) SuggestSlots(ctx context.Context, date, clock string, durationMin int, doctorID string, count int) ([]string, error) {
	if _, err := s.validateSlot(date, clock, durationMin); err != nil {
		return nil, err
	}
	want, err := timeslot.ParseClock(clock)
	if err != nil {
		return nil, &ValidationError{Field: "time", Reason: err.Error()}
	}

	existing, err := s.store.ListByDoctorDate(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments for doctor %s on %s: %w", doctorID, date, err)
	}

	return SuggestFreeSlots(existing, want, durationMin, doctorID, count, s.slots), nil
}

// Counts recomputes the derived counters from the current collection.
func (s *Service) Counts(ctx context.Context) (Counts, error) {
	all, err := s.store.ListRequests(ctx)
	if err != nil {
		return Counts{}, fmt.Errorf("list requests: %w", err)
	}

	today := s.now().Format(timeslot.DateLayout)
	var c Counts
	for _, req := range all {
		if req.Status == StatusPending {
			c.Pending++
		}
		if req.Date == today && req.Status.isActive() {
			c.Today++
		}
	}
	return c, nil
}

func (s *Service) validateSlot(date, clock string, durationMin int) (timeslot.Interval, error) {
	if _, err := timeslot.ParseDate(date); err != nil {
		return timeslot.Interval{}, &ValidationError{Field: "date", Reason: err.Error()}
	}
	if durationMin <= 0 {
		return timeslot.Interval{}, &ValidationError{Field: "duration", Reason: "must be positive"}
	}
	iv, err := timeslot.NewInterval(clock, durationMin)
	if err != nil {
		return timeslot.Interval{}, &ValidationError{Field: "time", Reason: err.Error()}
	}
	return iv, nil
}

func (s *Service) stamp(req *AppointmentRequest) {
	now := s.now()
	req.UpdatedAt = &now
}

func appendNotes(req *AppointmentRequest, notes string) {
	if notes == "" {
		return
	}
	if req.Notes == "" {
		req.Notes = notes
		return
	}
	req.Notes = req.Notes + "\n" + notes
}
