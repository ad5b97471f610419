package schedule

import (
	"sort"

	"github.com/hackgods/clinic-scheduling/internal/timeslot"
)

// SlotOptions bound the working day the suggestion engine searches.
type SlotOptions struct {
	DayStartMin int // minutes since midnight, inclusive
	DayEndMin   int // minutes since midnight, exclusive
	StepMin     int // grid step between candidate starts
}

// DefaultSlotOptions is a 08:00-18:00 clinic day on a 15 minute grid.
func DefaultSlotOptions() SlotOptions {
	return SlotOptions{
		DayStartMin: 8 * 60,
		DayEndMin:   18 * 60,
		StepMin:     15,
	}
}

// SuggestFreeSlots walks the slot grid for the doctor's day and returns up
// to count conflict-free start times (HH:MM), ordered by proximity to the
// requested start. Equal distances resolve to the earlier slot, so the
// ranking is deterministic.
func SuggestFreeSlots(existing []AppointmentRequest, wantStartMin, durationMin int, doctorID string, count int, opts SlotOptions) []string {
	if count <= 0 {
		return nil
	}

	type ranked struct {
		start int
		dist  int
	}

	var free []ranked
	seen := make(map[int]bool)
	for _, start := range timeslot.Grid(opts.DayStartMin, opts.DayEndMin, opts.StepMin, durationMin) {
		if seen[start] {
			continue
		}
		seen[start] = true

		candidate := timeslot.Interval{Start: start, End: start + durationMin}
		if len(DetectConflicts(existing, candidate, doctorID, "")) > 0 {
			continue
		}
		free = append(free, ranked{start: start, dist: timeslot.Distance(start, wantStartMin)})
	}

	sort.SliceStable(free, func(i, j int) bool {
		if free[i].dist != free[j].dist {
			return free[i].dist < free[j].dist
		}
		return free[i].start < free[j].start
	})

	if len(free) > count {
		free = free[:count]
	}

	out := make([]string, 0, len(free))
	for _, f := range free {
		out = append(out, timeslot.FormatClock(f.start))
	}
	return out
}
