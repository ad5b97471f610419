package queue

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

var testNow = time.Date(2024, 6, 20, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(NewMemoryStore(), nil, zerolog.Nop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func addScheduled(t *testing.T, svc *Service, name string) *Item {
	t.Helper()
	item, err := svc.Add(context.Background(), Item{
		PatientName:          name,
		PatientPhone:         "555-0101",
		DoctorID:             "doc-1",
		DoctorName:           "Dr. Reyes",
		AppointmentTime:      "09:30",
		EstimatedDurationMin: 20,
	})
	require.NoError(t, err)
	return item
}

func addWaiting(t *testing.T, svc *Service, name string) *Item {
	t.Helper()
	item := addScheduled(t, svc, name)
	_, err := svc.UpdateStatus(context.Background(), item.ID, StatusArrived)
	require.NoError(t, err)
	got, err := svc.UpdateStatus(context.Background(), item.ID, StatusWaiting)
	require.NoError(t, err)
	return got
}

func activePositions(t *testing.T, svc *Service) map[string]int {
	t.Helper()
	items, err := svc.List(context.Background())
	require.NoError(t, err)
	out := make(map[string]int)
	for _, it := range items {
		if it.Status.HoldsPosition() {
			out[it.PatientName] = it.QueuePosition
		}
	}
	return out
}

func assertContiguous(t *testing.T, svc *Service) {
	t.Helper()
	items, err := svc.List(context.Background())
	require.NoError(t, err)

	seen := make(map[int]bool)
	count := 0
	for _, it := range items {
		if !it.Status.HoldsPosition() {
			continue
		}
		count++
		assert.False(t, seen[it.QueuePosition], "duplicate position %d", it.QueuePosition)
		seen[it.QueuePosition] = true
	}
	for p := 1; p <= count; p++ {
		assert.True(t, seen[p], "missing position %d in 1..%d", p, count)
	}
}

func TestAddValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, Item{PatientName: "  "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "patientName", verr.Field)

	_, err = svc.Add(ctx, Item{PatientName: "A", AppointmentTime: "midnight"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "appointmentTime", verr.Field)

	_, err = svc.Add(ctx, Item{PatientName: "A", EstimatedDurationMin: -5})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "estimatedDuration", verr.Field)

	_, err = svc.Add(ctx, Item{PatientName: "A", Status: StatusCompleted})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAddArrivedTakesNextPosition(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	addWaiting(t, svc, "Q1")

	item, err := svc.Add(ctx, Item{PatientName: "Walk-in", Status: StatusArrived})
	require.NoError(t, err)
	assert.Equal(t, 2, item.QueuePosition)
	require.NotNil(t, item.CheckInTime)
	assertContiguous(t, svc)
}

func TestCheckInAndCheckOutStamps(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	item := addScheduled(t, svc, "Jordan Blake")
	assert.Equal(t, 0, item.QueuePosition)
	assert.Nil(t, item.CheckInTime)

	got, err := svc.UpdateStatus(ctx, item.ID, StatusArrived)
	require.NoError(t, err)
	require.NotNil(t, got.CheckInTime)
	assert.Equal(t, testNow, *got.CheckInTime)
	assert.Equal(t, 1, got.QueuePosition)

	_, err = svc.UpdateStatus(ctx, item.ID, StatusWaiting)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, item.ID, StatusInConsultation)
	require.NoError(t, err)

	got, err = svc.UpdateStatus(ctx, item.ID, StatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, got.CheckOutTime)
	assert.Equal(t, testNow, *got.CheckOutTime)
	assert.Equal(t, 0, got.QueuePosition)
}

func TestUpdateStatusRejectsIllegalEdges(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	item := addScheduled(t, svc, "Jordan Blake")

	tests := []struct {
		name string
		prep []Status
		next Status
	}{
		{"scheduled to waiting skips arrival", nil, StatusWaiting},
		{"scheduled to in-consultation", nil, StatusInConsultation},
		{"scheduled to completed", nil, StatusCompleted},
		{"completed back to waiting", []Status{StatusArrived, StatusWaiting, StatusInConsultation, StatusCompleted}, StatusWaiting},
		{"in-consultation to no-show", []Status{StatusArrived, StatusWaiting, StatusInConsultation}, StatusNoShow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := item
			if len(tt.prep) > 0 {
				it = addScheduled(t, svc, "Prep "+tt.name)
				for _, st := range tt.prep {
					_, err := svc.UpdateStatus(ctx, it.ID, st)
					require.NoError(t, err)
				}
			}
			_, err := svc.UpdateStatus(ctx, it.ID, tt.next)
			assert.ErrorIs(t, err, ErrInvalidState)
		})
	}
}

func TestNoShowEdges(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	scheduled := addScheduled(t, svc, "Never Came")
	got, err := svc.UpdateStatus(ctx, scheduled.ID, StatusNoShow)
	require.NoError(t, err)
	assert.Equal(t, StatusNoShow, got.Status)

	waiting := addWaiting(t, svc, "Left Early")
	got, err = svc.UpdateStatus(ctx, waiting.ID, StatusNoShow)
	require.NoError(t, err)
	assert.Equal(t, StatusNoShow, got.Status)
	assert.Equal(t, 0, got.QueuePosition)
	assertContiguous(t, svc)
}

func TestDepartureCompactsPositions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	q1 := addWaiting(t, svc, "Q1")
	addWaiting(t, svc, "Q2")
	addWaiting(t, svc, "Q3")

	// Q1 leaves the active set; Q2 and Q3 close the gap.
	_, err := svc.UpdateStatus(ctx, q1.ID, StatusInConsultation)
	require.NoError(t, err)

	positions := activePositions(t, svc)
	assert.Equal(t, map[string]int{"Q2": 1, "Q3": 2}, positions)
	assertContiguous(t, svc)
}

func TestMoveSwapsNeighbours(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	addWaiting(t, svc, "Q1")
	q2 := addWaiting(t, svc, "Q2")

	got, err := svc.Move(ctx, q2.ID, MoveUp)
	require.NoError(t, err)
	assert.Equal(t, 1, got.QueuePosition)

	positions := activePositions(t, svc)
	assert.Equal(t, map[string]int{"Q2": 1, "Q1": 2}, positions)
	assertContiguous(t, svc)
}

func TestMoveBoundaryIsNoOp(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	q1 := addWaiting(t, svc, "Q1")
	q2 := addWaiting(t, svc, "Q2")

	got, err := svc.Move(ctx, q1.ID, MoveUp)
	require.NoError(t, err)
	assert.Equal(t, 1, got.QueuePosition, "already first")

	got, err = svc.Move(ctx, q2.ID, MoveDown)
	require.NoError(t, err)
	assert.Equal(t, 2, got.QueuePosition, "already last")

	assertContiguous(t, svc)
}

func TestMoveRejectsInactiveAndBadDirection(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	scheduled := addScheduled(t, svc, "Not Here Yet")
	_, err := svc.Move(ctx, scheduled.ID, MoveUp)
	assert.ErrorIs(t, err, ErrInvalidState)

	waiting := addWaiting(t, svc, "Q1")
	_, err = svc.Move(ctx, waiting.ID, "sideways")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Move(ctx, "missing", MoveUp)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMoveSequencePreservesContiguity(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		ids = append(ids, addWaiting(t, svc, name).ID)
	}

	moves := []struct {
		idx int
		dir Direction
	}{
		{4, MoveUp}, {4, MoveUp}, {0, MoveDown}, {2, MoveUp},
		{0, MoveUp}, {4, MoveDown}, {1, MoveDown}, {3, MoveUp},
	}
	for _, m := range moves {
		_, err := svc.Move(ctx, ids[m.idx], m.dir)
		require.NoError(t, err)
		assertContiguous(t, svc)
	}
}

func TestSetEstimatedCallTime(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	item := addWaiting(t, svc, "Q1")

	got, err := svc.SetEstimatedCallTime(ctx, item.ID, "10:45")
	require.NoError(t, err)
	require.NotNil(t, got.EstimatedCallTime)
	assert.Equal(t, "10:45", *got.EstimatedCallTime)
	assert.Equal(t, StatusWaiting, got.Status)
	assert.Equal(t, item.QueuePosition, got.QueuePosition)

	_, err = svc.SetEstimatedCallTime(ctx, item.ID, "later")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestEstimateCallTimes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	q1 := addWaiting(t, svc, "Q1") // 20 min
	q2 := addWaiting(t, svc, "Q2") // 20 min
	q3 := addWaiting(t, svc, "Q3")

	require.NoError(t, svc.EstimateCallTimes(ctx, 15))

	got1, _ := svc.Get(ctx, q1.ID)
	got2, _ := svc.Get(ctx, q2.ID)
	got3, _ := svc.Get(ctx, q3.ID)

	require.NotNil(t, got1.EstimatedCallTime)
	assert.Equal(t, "09:00", *got1.EstimatedCallTime)
	assert.Equal(t, "09:20", *got2.EstimatedCallTime)
	assert.Equal(t, "09:40", *got3.EstimatedCallTime)

	assert.Error(t, svc.EstimateCallTimes(ctx, 0))
}

func TestStats(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	addScheduled(t, svc, "S1")
	addWaiting(t, svc, "W1")
	addWaiting(t, svc, "W2")
	inConsult := addWaiting(t, svc, "C1")
	_, err := svc.UpdateStatus(ctx, inConsult.ID, StatusInConsultation)
	require.NoError(t, err)
	noShow := addScheduled(t, svc, "N1")
	_, err = svc.UpdateStatus(ctx, noShow.ID, StatusNoShow)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{
		Total:          5,
		Scheduled:      1,
		Waiting:        2,
		InConsultation: 1,
		NoShow:         1,
	}, stats)
}

func TestNotificationsAccumulateAndClear(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	item := addScheduled(t, svc, "Jordan Blake")
	_, err := svc.UpdateStatus(ctx, item.ID, StatusArrived)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, item.ID, StatusWaiting)
	require.NoError(t, err)

	notes := svc.Notifications()
	require.Len(t, notes, 2)
	assert.Equal(t, "check-in", notes[0].Category)
	assert.Equal(t, "Jordan Blake checked in", notes[0].Message)
	assert.Equal(t, "waiting", notes[1].Category)
	assert.Equal(t, testNow, notes[0].Timestamp)

	svc.ClearNotifications()
	assert.Empty(t, svc.Notifications())
}

type staticSource struct {
	items []Item
}

func (s staticSource) FetchQueue(_ context.Context) ([]Item, error) {
	return s.items, nil
}

func TestRefreshReconcilesFromSource(t *testing.T) {
	earlier := testNow.Add(-30 * time.Minute)
	later := testNow.Add(-10 * time.Minute)

	// Two entries tied on position 1: the earlier check-in wins; the
	// third entry has no position yet and sorts last.
	src := staticSource{items: []Item{
		{ID: "a", PatientName: "A", Status: StatusWaiting, QueuePosition: 1, CheckInTime: &later},
		{ID: "b", PatientName: "B", Status: StatusWaiting, QueuePosition: 1, CheckInTime: &earlier},
		{ID: "c", PatientName: "C", Status: StatusArrived, QueuePosition: 3},
		{ID: "d", PatientName: "D", Status: StatusCompleted, QueuePosition: 0},
	}}

	svc := NewService(NewMemoryStore(), src, zerolog.Nop())
	svc.now = func() time.Time { return testNow }

	require.NoError(t, svc.Refresh(context.Background()))

	positions := activePositions(t, svc)
	assert.Equal(t, map[string]int{"B": 1, "A": 2, "C": 3}, positions)
	assertContiguous(t, svc)

	// Terminal rows are retained for stats.
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Completed)
}

func TestRefreshWithoutSourceCompacts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	addWaiting(t, svc, "Q1")
	addWaiting(t, svc, "Q2")

	require.NoError(t, svc.Refresh(ctx))
	assert.Equal(t, map[string]int{"Q1": 1, "Q2": 2}, activePositions(t, svc))
}

func TestItemFromRequest(t *testing.T) {
	req := &schedule.AppointmentRequest{
		ID:           "req-1",
		PatientName:  "Jordan Blake",
		PatientPhone: "555-0101",
		DoctorID:     "doc-1",
		DoctorName:   "Dr. Reyes",
		Time:         "09:30",
		DurationMin:  20,
		Status:       schedule.StatusApproved,
		Priority:     schedule.PriorityHigh,
	}

	item := ItemFromRequest(req)
	assert.NotEmpty(t, item.ID)
	assert.NotEqual(t, req.ID, item.ID, "visit instance gets its own id")
	assert.Equal(t, "Jordan Blake", item.PatientName)
	assert.Equal(t, "09:30", item.AppointmentTime)
	assert.Equal(t, 20, item.EstimatedDurationMin)
	assert.Equal(t, StatusScheduled, item.Status)
	assert.Equal(t, schedule.PriorityHigh, item.Priority)
}
