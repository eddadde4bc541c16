// Package summary turns flat shift and operation rows into per-day
// totals. The functions are pure folds: they take the already-fetched
// rows plus a "now" for open shifts and never touch the store, so the
// same code serves the worker's own summary and the supervisor's
// all-employee view.
package summary

import (
	"sort"
	"time"

	"github.com/mkravets/skladbot/internal/models"
	"github.com/mkravets/skladbot/internal/timeutil"
)

// Bucket accumulates piecework of one operation type.
type Bucket struct {
	Units   int // Summed quantities, absent quantities count as zero
	Minutes int // Summed durations
}

// ShiftRange is one shift of the day as rendered in a summary line.
// End is nil for a shift that is still open.
type ShiftRange struct {
	Start   time.Time
	End     *time.Time
	Minutes int
}

// DaySummary is the folded result for one employee and one day.
type DaySummary struct {
	Shifts        []ShiftRange
	TotalShiftMin int
	Assembly      Bucket // FBS assembly
	Packing       Bucket // Packing
	OtherMin      int    // Declared other tasks
	MiscMin       int    // Catch-all for free-text operation types
	TotalOpMin    int
	ResidueMin    int // Shift time not covered by any operation, never negative
}

// EmployeeDaySummary is one employee's day summary in the supervisor view.
type EmployeeDaySummary struct {
	EmployeeID int64
	Name       string
	DaySummary
}

// BuildDaySummary folds one employee's rows for a single day. A closed
// shift contributes its stored duration; an open shift contributes the
// time elapsed until now, so an in-progress shift still shows up in a
// same-day summary. The residue is the shift time left over after all
// operations and is clamped at zero.
func BuildDaySummary(shifts []models.Shift, ops []models.Operation, now time.Time) DaySummary {
	var ds DaySummary

	for _, shift := range shifts {
		minutes := shiftMinutes(shift, now)
		ds.Shifts = append(ds.Shifts, ShiftRange{
			Start:   shift.StartedAt,
			End:     shift.EndedAt,
			Minutes: minutes,
		})
		ds.TotalShiftMin += minutes
	}

	for _, op := range ops {
		minutes := timeutil.ClampMinutes(op.DurationMin)
		units := 0
		if op.Quantity != nil {
			units = *op.Quantity
		}

		switch op.Type {
		case models.OpTypeAssembly:
			ds.Assembly.Units += units
			ds.Assembly.Minutes += minutes
		case models.OpTypePacking:
			ds.Packing.Units += units
			ds.Packing.Minutes += minutes
		case models.OpTypeOther:
			ds.OtherMin += minutes
		default:
			ds.MiscMin += minutes
		}
		ds.TotalOpMin += minutes
	}

	if residue := ds.TotalShiftMin - ds.TotalOpMin; residue > 0 {
		ds.ResidueMin = residue
	}

	return ds
}

// BuildAdminSummary folds the whole day's rows into one summary per
// employee who has any shift or operation that day. Display names are
// resolved from the employee list; the result is sorted by name so the
// rendered report is stable.
func BuildAdminSummary(
	shifts []models.Shift,
	ops []models.Operation,
	employees []models.Employee,
	now time.Time,
) []EmployeeDaySummary {
	shiftsByEmployee := make(map[int64][]models.Shift)
	for _, shift := range shifts {
		shiftsByEmployee[shift.EmployeeID] = append(shiftsByEmployee[shift.EmployeeID], shift)
	}

	opsByEmployee := make(map[int64][]models.Operation)
	for _, op := range ops {
		opsByEmployee[op.EmployeeID] = append(opsByEmployee[op.EmployeeID], op)
	}

	names := make(map[int64]string, len(employees))
	for _, employee := range employees {
		names[employee.ID] = employee.DisplayName
	}

	seen := make(map[int64]bool)
	var result []EmployeeDaySummary
	appendFor := func(id int64) {
		if seen[id] {
			return
		}
		seen[id] = true
		result = append(result, EmployeeDaySummary{
			EmployeeID: id,
			Name:       names[id],
			DaySummary: BuildDaySummary(shiftsByEmployee[id], opsByEmployee[id], now),
		})
	}

	for _, shift := range shifts {
		appendFor(shift.EmployeeID)
	}
	for _, op := range ops {
		appendFor(op.EmployeeID)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].EmployeeID < result[j].EmployeeID
	})

	return result
}

// shiftMinutes resolves the minute contribution of one shift row.
// Closed rows normally carry a stored duration; a malformed closed row
// without one falls back to the timestamps.
func shiftMinutes(shift models.Shift, now time.Time) int {
	if shift.Open() {
		return timeutil.ElapsedMinutes(shift.StartedAt, now)
	}
	if shift.DurationMin != nil {
		return timeutil.ClampMinutes(*shift.DurationMin)
	}
	return timeutil.ElapsedMinutes(shift.StartedAt, *shift.EndedAt)
}
