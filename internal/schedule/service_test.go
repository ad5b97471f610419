package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 20, 8, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	svc := NewService(store, nil, zerolog.Nop(), DefaultSlotOptions())
	svc.now = func() time.Time { return testNow }
	return svc, store
}

func createRequest(t *testing.T, svc *Service, doctorID, date, clock string, durationMin int) *AppointmentRequest {
	t.Helper()
	req, err := svc.Create(context.Background(), CreateInput{
		PatientName:   "Jordan Blake",
		PatientPhone:  "555-0101",
		DoctorID:      doctorID,
		DoctorName:    "Dr. Reyes",
		Date:          date,
		Time:          clock,
		DurationMin:   durationMin,
		Type:          TypeConsultation,
		Priority:      PriorityMedium,
		BookingSource: "receptionist",
	})
	require.NoError(t, err)
	return req
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	base := CreateInput{
		PatientName: "Jordan Blake",
		DoctorID:    "doc-1",
		Date:        "2024-06-20",
		Time:        "09:00",
		DurationMin: 30,
		Type:        TypeConsultation,
	}

	tests := []struct {
		name   string
		mutate func(*CreateInput)
		field  string
	}{
		{"empty patient name", func(in *CreateInput) { in.PatientName = "  " }, "patientName"},
		{"empty doctor", func(in *CreateInput) { in.DoctorID = "" }, "doctorId"},
		{"bad type", func(in *CreateInput) { in.Type = "walk-in" }, "type"},
		{"bad priority", func(in *CreateInput) { in.Priority = "extreme" }, "priority"},
		{"bad date", func(in *CreateInput) { in.Date = "20-06-2024" }, "date"},
		{"bad time", func(in *CreateInput) { in.Time = "9am" }, "time"},
		{"zero duration", func(in *CreateInput) { in.DurationMin = 0 }, "duration"},
		{"negative duration", func(in *CreateInput) { in.DurationMin = -15 }, "duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := svc.Create(ctx, in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestCreateDefaultsAndStamps(t *testing.T) {
	svc, _ := newTestService(t)

	req, err := svc.Create(context.Background(), CreateInput{
		PatientName: "Jordan Blake",
		DoctorID:    "doc-1",
		Date:        "2024-06-20",
		Time:        "09:00",
		DurationMin: 30,
		Type:        TypeRoutine,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, PriorityMedium, req.Priority)
	assert.Equal(t, testNow, req.CreatedAt)
	assert.Nil(t, req.UpdatedAt)
}

func TestApproveHappyPath(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := createRequest(t, svc, "doc-1", "2024-06-20", "09:00", 30)

	approved, err := svc.Approve(ctx, req.ID, "bring previous bloodwork")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	require.NotNil(t, approved.UpdatedAt)
	assert.Equal(t, "bring previous bloodwork", approved.Notes)

	stored, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, stored.Status)
}

func TestApproveConflictListsOffender(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	r1 := createRequest(t, svc, "doc-1", "2024-06-20", "09:00", 30)
	_, err := svc.Approve(ctx, r1.ID, "")
	require.NoError(t, err)

	r2 := createRequest(t, svc, "doc-1", "2024-06-20", "09:15", 30)
	_, err = svc.Approve(ctx, r2.ID, "")

	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.Len(t, conflictErr.Conflicts, 1)
	assert.Equal(t, r1.ID, conflictErr.Conflicts[0].ConflictingID)

	// R2 stays pending after the failed approve.
	stored, err := svc.Get(ctx, r2.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)

	// And the engine steers the caller to 09:30.
	slots, err := svc.SuggestSlots(ctx, "2024-06-20", "09:15", 30, "doc-1", 3)
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	assert.Equal(t, "09:30", slots[0])
}

func TestApproveTwiceRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := createRequest(t, svc, "doc-1", "2024-06-20", "09:00", 30)
	_, err := svc.Approve(ctx, req.ID, "")
	require.NoError(t, err)

	// A double-click approve must fail, not double-apply.
	_, err = svc.Approve(ctx, req.ID, "")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestApproveUnknownID(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Approve(context.Background(), "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBackToBackApprovalsAllowed(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	r1 := createRequest(t, svc, "doc-1", "2024-06-20", "09:00", 30)
	r2 := createRequest(t, svc, "doc-1", "2024-06-20", "09:30", 30)

	_, err := svc.Approve(ctx, r1.ID, "")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, r2.ID, "")
	assert.NoError(t, err, "touching intervals are not a conflict")
}

func TestDecline(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := createRequest(t, svc, "doc-1", "2024-06-20", "09:00", 30)

	t.Run("empty reason rejected", func(t *testing.T) {
		_, err := svc.Decline(ctx, req.ID, "   ")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "reason", verr.Field)
	})

	t.Run("stores reason", func(t *testing.T) {
		declined, err := svc.Decline(ctx, req.ID, "doctor unavailable")
		require.NoError(t, err)
		assert.Equal(t, StatusDeclined, declined.Status)
		require.NotNil(t, declined.DeclineReason)
		assert.Equal(t, "doctor unavailable", *declined.DeclineReason)
	})

	t.Run("non-pending rejected", func(t *testing.T) {
		_, err := svc.Decline(ctx, req.ID, "again")
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestReschedule(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	r1 := createRequest(t, svc, "doc-1", "2024-06-20", "09:00", 30)
	_, err := svc.Approve(ctx, r1.ID, "")
	require.NoError(t, err)

	t.Run("into a conflict fails", func(t *testing.T) {
		r2 := createRequest(t, svc, "doc-1", "2024-06-20", "14:00", 30)
		_, err := svc.Approve(ctx, r2.ID, "")
		require.NoError(t, err)

		_, err = svc.Reschedule(ctx, r2.ID, "2024-06-20", "09:15")
		var conflictErr *ConflictError
		require.ErrorAs(t, err, &conflictErr)
		assert.Equal(t, r1.ID, conflictErr.Conflicts[0].ConflictingID)
	})

	t.Run("same slot does not self-conflict", func(t *testing.T) {
		got, err := svc.Reschedule(ctx, r1.ID, "2024-06-20", "09:00")
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, got.Status, "status preserved")
	})

	t.Run("moves the slot", func(t *testing.T) {
		got, err := svc.Reschedule(ctx, r1.ID, "2024-06-21", "10:00")
		require.NoError(t, err)
		assert.Equal(t, "2024-06-21", got.Date)
		assert.Equal(t, "10:00", got.Time)
		assert.Equal(t, StatusApproved, got.Status)
	})

	t.Run("declined cannot be rescheduled", func(t *testing.T) {
		r3 := createRequest(t, svc, "doc-1", "2024-06-20", "15:00", 30)
		_, err := svc.Decline(ctx, r3.ID, "no show history")
		require.NoError(t, err)

		_, err = svc.Reschedule(ctx, r3.ID, "2024-06-21", "15:00")
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("malformed slot rejected", func(t *testing.T) {
		_, err := svc.Reschedule(ctx, r1.ID, "2024-06-21", "25:00")
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestRescheduleCompletedBecomesPending(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := createRequest(t, svc, "doc-1", "2024-06-20", "09:00", 30)
	_, err := svc.Approve(ctx, req.ID, "")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, req.ID, StatusConfirmed)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, req.ID, StatusInProgress)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, req.ID, StatusCompleted)
	require.NoError(t, err)

	got, err := svc.Reschedule(ctx, req.ID, "2024-07-01", "09:00")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status, "reschedule from completed starts a new booking cycle")
}

func TestUpdateStatusEnforcesStateMachine(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := createRequest(t, svc, "doc-1", "2024-06-20", "09:00", 30)

	// pending → confirmed skips approval.
	_, err := svc.UpdateStatus(ctx, req.ID, StatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Approve(ctx, req.ID, "")
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, req.ID, StatusConfirmed)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, req.ID, StatusInProgress)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, req.ID, StatusCompleted)
	require.NoError(t, err)

	// completed is terminal for plain status updates.
	_, err = svc.UpdateStatus(ctx, req.ID, StatusInProgress)
	assert.ErrorIs(t, err, ErrInvalidState)

	// Declining through UpdateStatus is not supported, a reason is required.
	other := createRequest(t, svc, "doc-1", "2024-06-22", "09:00", 30)
	_, err = svc.UpdateStatus(ctx, other.ID, StatusDeclined)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCancelEdges(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("pending cancels", func(t *testing.T) {
		req := createRequest(t, svc, "doc-1", "2024-06-20", "09:00", 30)
		got, err := svc.Cancel(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, got.Status)
	})

	t.Run("approved cancels and frees the slot", func(t *testing.T) {
		req := createRequest(t, svc, "doc-1", "2024-06-20", "10:00", 30)
		_, err := svc.Approve(ctx, req.ID, "")
		require.NoError(t, err)
		_, err = svc.Cancel(ctx, req.ID)
		require.NoError(t, err)

		conflicts, err := svc.CheckConflicts(ctx, "2024-06-20", "10:00", 30, "doc-1", "")
		require.NoError(t, err)
		assert.Empty(t, conflicts)
	})

	t.Run("cancelled cannot cancel again", func(t *testing.T) {
		req := createRequest(t, svc, "doc-1", "2024-06-20", "11:00", 30)
		_, err := svc.Cancel(ctx, req.ID)
		require.NoError(t, err)
		_, err = svc.Cancel(ctx, req.ID)
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestBulkApprovePartialFailure(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	blocker := createRequest(t, svc, "doc-1", "2024-06-20", "09:15", 30)
	_, err := svc.Approve(ctx, blocker.ID, "")
	require.NoError(t, err)

	a := createRequest(t, svc, "doc-1", "2024-06-20", "08:00", 30)
	b := createRequest(t, svc, "doc-1", "2024-06-20", "09:00", 30) // overlaps blocker
	c := createRequest(t, svc, "doc-1", "2024-06-20", "10:00", 30)

	results := svc.BulkApprove(ctx, []string{a.ID, b.ID, c.ID})
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, KindConflict, results[1].Error)
	assert.True(t, results[2].Success, "one conflict must not abort the batch")

	storedA, _ := svc.Get(ctx, a.ID)
	storedB, _ := svc.Get(ctx, b.ID)
	storedC, _ := svc.Get(ctx, c.ID)
	assert.Equal(t, StatusApproved, storedA.Status)
	assert.Equal(t, StatusPending, storedB.Status)
	assert.Equal(t, StatusApproved, storedC.Status)
}

func TestBulkDeclineReportsPerID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a := createRequest(t, svc, "doc-1", "2024-06-20", "08:00", 30)
	b := createRequest(t, svc, "doc-1", "2024-06-20", "09:00", 30)
	_, err := svc.Approve(ctx, b.ID, "")
	require.NoError(t, err)

	results := svc.BulkDecline(ctx, []string{a.ID, b.ID, "missing"}, "clinic closed")
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, KindInvalidState, results[1].Error)
	assert.False(t, results[2].Success)
	assert.Equal(t, KindNotFound, results[2].Error)
}

func TestNoDoubleBookingInvariant(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// A pile of colliding pending requests; approvals and reschedules in
	// arbitrary order must never commit an overlapping pair.
	clocks := []string{"09:00", "09:15", "09:30", "09:45", "10:00", "09:00", "09:30"}
	var ids []string
	for _, c := range clocks {
		ids = append(ids, createRequest(t, svc, "doc-1", "2024-06-20", c, 30).ID)
	}

	svc.BulkApprove(ctx, ids)
	for _, id := range ids {
		_, _ = svc.Reschedule(ctx, id, "2024-06-20", "09:10")
	}

	all, err := svc.List(ctx)
	require.NoError(t, err)

	var committed []AppointmentRequest
	for _, req := range all {
		if req.Status.IsCommitted() {
			committed = append(committed, req)
		}
	}
	require.NotEmpty(t, committed)

	for i := 0; i < len(committed); i++ {
		for j := i + 1; j < len(committed); j++ {
			a, b := committed[i], committed[j]
			if a.DoctorID != b.DoctorID || a.Date != b.Date {
				continue
			}
			conflicts, err := svc.CheckConflicts(ctx, a.Date, a.Time, a.DurationMin, a.DoctorID, a.ID)
			require.NoError(t, err)
			for _, c := range conflicts {
				assert.NotEqual(t, b.ID, c.ConflictingID, "%s and %s are double-booked", a.ID, b.ID)
			}
		}
	}
}

func TestCounts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	today := testNow.Format("2006-01-02")

	p1 := createRequest(t, svc, "doc-1", today, "09:00", 30)
	_ = p1
	createRequest(t, svc, "doc-1", "2024-07-01", "09:00", 30)
	approvedToday := createRequest(t, svc, "doc-2", today, "09:00", 30)
	_, err := svc.Approve(ctx, approvedToday.ID, "")
	require.NoError(t, err)

	declined := createRequest(t, svc, "doc-2", today, "10:00", 30)
	_, err = svc.Decline(ctx, declined.ID, "overbooked")
	require.NoError(t, err)

	counts, err := svc.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Pending, "today's pending + future pending")
	assert.Equal(t, 2, counts.Today, "pending and approved today count, declined does not")
}

func TestCheckConflictsIsPure(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := createRequest(t, svc, "doc-1", "2024-06-20", "09:00", 30)
	_, err := svc.Approve(ctx, req.ID, "")
	require.NoError(t, err)

	before, err := svc.List(ctx)
	require.NoError(t, err)

	_, err = svc.CheckConflicts(ctx, "2024-06-20", "09:00", 30, "doc-1", "")
	require.NoError(t, err)

	after, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(&ConflictError{}))
	assert.Equal(t, KindValidation, KindOf(&ValidationError{Field: "x"}))
	assert.Equal(t, KindInvalidState, KindOf(ErrInvalidState))
	assert.Equal(t, KindNotFound, KindOf(ErrNotFound))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}
