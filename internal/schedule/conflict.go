package schedule

import (
	"github.com/hackgods/clinic-scheduling/internal/timeslot"
)

// DetectConflicts scans existing appointments for the doctor and returns
// every committed one whose interval overlaps the candidate. Intervals are
// half-open, so back-to-back appointments never conflict. excludeID lets a
// reschedule check a slot without colliding with itself.
func DetectConflicts(existing []AppointmentRequest, candidate timeslot.Interval, doctorID, excludeID string) []ConflictInfo {
	var conflicts []ConflictInfo
	for _, appt := range existing {
		if appt.DoctorID != doctorID {
			continue
		}
		if appt.ID == excludeID {
			continue
		}
		if !appt.Status.IsCommitted() {
			continue
		}

		iv, err := timeslot.NewInterval(appt.Time, appt.DurationMin)
		if err != nil {
			// Malformed stored data cannot hold a slot.
			continue
		}

		overlap, ok := candidate.Intersect(iv)
		if !ok {
			continue
		}
		conflicts = append(conflicts, ConflictInfo{
			ConflictingID:          appt.ID,
			OverlapStart:           timeslot.FormatClock(overlap.Start),
			OverlapEnd:             timeslot.FormatClock(overlap.End),
			ConflictingPatientName: appt.PatientName,
		})
	}
	return conflicts
}
