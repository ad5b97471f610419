package queue

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/timeslot"
)

// Service owns the per-day queue collection. Consumers never touch the
// store directly; every transition, reorder and call-time update goes
// through here so the contiguous-position invariant holds centrally.
type Service struct {
	mu            sync.Mutex
	store         Store
	source        Source
	logger        zerolog.Logger
	now           func() time.Time
	notifications []Notification
}

// NewService creates a queue service. source may be nil when there is no
// external backing feed; Refresh then just reconciles the current store.
func NewService(store Store, source Source, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		source: source,
		logger: logger,
		now:    time.Now,
	}
}

// Add activates a visit for the service day. New items start scheduled
// unless explicitly added as arrived, in which case they check in and take
// the next position immediately.
func (s *Service) Add(ctx context.Context, item Item) (*Item, error) {
	if strings.TrimSpace(item.PatientName) == "" {
		return nil, &ValidationError{Field: "patientName", Reason: "must not be empty"}
	}
	if item.AppointmentTime != "" {
		if _, err := timeslot.ParseClock(item.AppointmentTime); err != nil {
			return nil, &ValidationError{Field: "appointmentTime", Reason: err.Error()}
		}
	}
	if item.EstimatedDurationMin < 0 {
		return nil, &ValidationError{Field: "estimatedDuration", Reason: "must not be negative"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = StatusScheduled
	}
	switch item.Status {
	case StatusScheduled:
		item.QueuePosition = 0
	case StatusArrived:
		now := s.now()
		item.CheckInTime = &now
		pos, err := s.nextPosition(ctx)
		if err != nil {
			return nil, err
		}
		item.QueuePosition = pos
	default:
		return nil, fmt.Errorf("%w: new items start scheduled or arrived, got %s", ErrInvalidState, item.Status)
	}
	item.CreatedAt = s.now()

	if err := s.store.InsertItem(ctx, &item); err != nil {
		return nil, fmt.Errorf("insert queue item: %w", err)
	}

	s.logger.Info().
		Str("item_id", item.ID).
		Str("status", string(item.Status)).
		Msg("queue item added")

	return &item, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	return s.store.GetItemByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Item, error) {
	return s.store.ListItems(ctx)
}

// UpdateStatus applies one edge of the visit state machine. Entering
// arrived stamps the check-in time and takes the next queue position;
// entering completed stamps the check-out time; leaving the active set
// releases the position and compacts the remainder.
func (s *Service) UpdateStatus(ctx context.Context, id string, next Status) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.store.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidState, item.Status, next)
	}

	wasActive := item.Status.HoldsPosition()

	switch next {
	case StatusArrived:
		now := s.now()
		item.CheckInTime = &now
		pos, err := s.nextPosition(ctx)
		if err != nil {
			return nil, err
		}
		item.QueuePosition = pos
	case StatusCompleted:
		now := s.now()
		item.CheckOutTime = &now
	}

	item.Status = next
	if !next.HoldsPosition() {
		item.QueuePosition = 0
	}

	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("update queue item: %w", err)
	}

	if wasActive && !next.HoldsPosition() {
		if err := s.compact(ctx); err != nil {
			return nil, err
		}
	}

	s.notify(next, item.PatientName)

	s.logger.Info().
		Str("item_id", item.ID).
		Str("status", string(next)).
		Msg("queue status updated")

	return item, nil
}

// Move swaps the item with its neighbour in the active call order. At the
// boundary it is a no-op, never an error.
func (s *Service) Move(ctx context.Context, id string, dir Direction) (*Item, error) {
	if dir != MoveUp && dir != MoveDown {
		return nil, &ValidationError{Field: "direction", Reason: fmt.Sprintf("must be %q or %q", MoveUp, MoveDown)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.store.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.Status.HoldsPosition() {
		return nil, fmt.Errorf("%w: only arrived or waiting entries can be reordered, got %s", ErrInvalidState, item.Status)
	}

	active, err := s.activeOrdered(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range active {
		if active[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrNotFound
	}

	other := idx - 1
	if dir == MoveDown {
		other = idx + 1
	}
	if other < 0 || other >= len(active) {
		// Already first or last.
		return item, nil
	}

	active[idx].QueuePosition, active[other].QueuePosition = active[other].QueuePosition, active[idx].QueuePosition

	if err := s.store.UpdateItem(ctx, &active[idx]); err != nil {
		return nil, fmt.Errorf("update queue item: %w", err)
	}
	if err := s.store.UpdateItem(ctx, &active[other]); err != nil {
		return nil, fmt.Errorf("update queue item: %w", err)
	}

	s.logger.Info().
		Str("item_id", id).
		Str("direction", string(dir)).
		Int("position", active[idx].QueuePosition).
		Msg("queue item moved")

	moved := active[idx]
	return &moved, nil
}

// SetEstimatedCallTime updates the estimated call time without touching
// status or position.
func (s *Service) SetEstimatedCallTime(ctx context.Context, id, clock string) (*Item, error) {
	if _, err := timeslot.ParseClock(clock); err != nil {
		return nil, &ValidationError{Field: "estimatedCallTime", Reason: err.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.store.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}

	item.EstimatedCallTime = &clock
	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("update queue item: %w", err)
	}
	return item, nil
}

// EstimateCallTimes recomputes estimated call times for active entries from
// their queue order: each entry is called after the estimated durations of
// everyone ahead of it. avgConsultMin fills in entries with no duration.
func (s *Service) EstimateCallTimes(ctx context.Context, avgConsultMin int) error {
	if avgConsultMin <= 0 {
		return &ValidationError{Field: "avgConsultMin", Reason: "must be positive"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.activeOrdered(ctx)
	if err != nil {
		return err
	}

	at := s.now()
	for i := range active {
		clock := at.Format(timeslot.ClockLayout)
		active[i].EstimatedCallTime = &clock
		if err := s.store.UpdateItem(ctx, &active[i]); err != nil {
			return fmt.Errorf("update queue item: %w", err)
		}

		dur := active[i].EstimatedDurationMin
		if dur <= 0 {
			dur = avgConsultMin
		}
		at = at.Add(time.Duration(dur) * time.Minute)
	}
	return nil
}

// Stats recomputes the per-status counts from the current collection.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list queue items: %w", err)
	}

	var st Stats
	st.Total = len(items)
	for _, item := range items {
		switch item.Status {
		case StatusScheduled:
			st.Scheduled++
		case StatusArrived:
			st.Arrived++
		case StatusWaiting:
			st.Waiting++
		case StatusInConsultation:
			st.InConsultation++
		case StatusCompleted:
			st.Completed++
		case StatusNoShow:
			st.NoShow++
		}
	}
	return st, nil
}

// Notifications returns the accumulated notifications, oldest first.
func (s *Service) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// ClearNotifications drops everything accumulated so far. The consumer owns
// display and dismissal; this is the sole channel.
func (s *Service) ClearNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = nil
}

// Refresh reloads the collection from the backing source, if any, then
// recomputes active positions deterministically: stored position first,
// earliest check-in breaks ties, insertion order breaks the rest.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source != nil {
		items, err := s.source.FetchQueue(ctx)
		if err != nil {
			return fmt.Errorf("fetch queue: %w", err)
		}
		if err := s.store.ReplaceAll(ctx, items); err != nil {
			return fmt.Errorf("replace queue: %w", err)
		}
	}

	return s.compact(ctx)
}

// nextPosition returns the position for a newly arrived entry. Positions
// are contiguous, so the next one is always the active count plus one.
func (s *Service) nextPosition(ctx context.Context) (int, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return 0, fmt.Errorf("list queue items: %w", err)
	}
	count := 0
	for _, item := range items {
		if item.Status.HoldsPosition() {
			count++
		}
	}
	return count + 1, nil
}

// activeOrdered returns active entries in call order. Listing is in
// insertion order, so the stable sort applies the documented tie-break.
func (s *Service) activeOrdered(ctx context.Context) ([]Item, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}

	var active []Item
	for _, item := range items {
		if item.Status.HoldsPosition() {
			active = append(active, item)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		if active[i].QueuePosition != active[j].QueuePosition {
			return active[i].QueuePosition < active[j].QueuePosition
		}
		return earlierCheckIn(active[i].CheckInTime, active[j].CheckInTime)
	})
	return active, nil
}

// compact renumbers active entries 1..n in call order, restoring the
// contiguity invariant after a departure or a reconciled reload.
func (s *Service) compact(ctx context.Context) error {
	active, err := s.activeOrdered(ctx)
	if err != nil {
		return err
	}
	for i := range active {
		want := i + 1
		if active[i].QueuePosition == want {
			continue
		}
		active[i].QueuePosition = want
		if err := s.store.UpdateItem(ctx, &active[i]); err != nil {
			return fmt.Errorf("update queue item: %w", err)
		}
	}
	return nil
}

func (s *Service) notify(next Status, patientName string) {
	var category, message string
	switch next {
	case StatusArrived:
		category, message = "check-in", fmt.Sprintf("%s checked in", patientName)
	case StatusWaiting:
		category, message = "waiting", fmt.Sprintf("%s is waiting", patientName)
	case StatusInConsultation:
		category, message = "consultation", fmt.Sprintf("consultation started for %s", patientName)
	case StatusCompleted:
		category, message = "check-out", fmt.Sprintf("%s checked out", patientName)
	case StatusNoShow:
		category, message = "no-show", fmt.Sprintf("%s marked as no-show", patientName)
	default:
		category, message = "status", fmt.Sprintf("%s is now %s", patientName, next)
	}

	s.notifications = append(s.notifications, Notification{
		Message:   message,
		Timestamp: s.now(),
		Category:  category,
	})
}

func earlierCheckIn(a, b *time.Time) bool {
	if a == nil || b == nil {
		// Missing check-in sorts after a known one; two missing fall back
		// to insertion order via the stable sort.
		return a != nil && b == nil
	}
	return a.Before(*b)
}
