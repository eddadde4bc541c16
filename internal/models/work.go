package models

import "time"

// Operation type names as they appear on the keyboard and in the rows.
// Anything else found in a row is treated as a free-text type and lands
// in the catch-all bucket during aggregation.
const (
	OpTypeAssembly = "FBS-сборка"
	OpTypePacking  = "Упаковка"
	OpTypeOther    = "Прочие задачи"
)

// Shift is one bounded work session of an employee.
// EndedAt == nil means the shift is still open; DurationMin is only
// meaningful once the shift is closed.
type Shift struct {
	ID          int64      // Row identifier in the store
	EmployeeID  int64      // Telegram ID of the owner
	Date        time.Time  // Work date (midnight, store timezone)
	StartedAt   time.Time  // Moment the shift was opened
	EndedAt     *time.Time // Moment the shift was closed, nil while open
	DurationMin *int       // Whole minutes between start and end, nil while open
}

// Open reports whether the shift has no end timestamp yet.
func (s Shift) Open() bool {
	return s.EndedAt == nil
}

// Operation is one unit of recorded piecework. Quantity distinguishes
// "absent" (nil) from an explicit zero, which is valid input for work
// that is not counted per unit.
type Operation struct {
	ID          int64     // Row identifier in the store
	EmployeeID  int64     // Telegram ID of the owner
	ShiftID     *int64    // Shift open at creation time, nil if none
	Date        time.Time // Work date (midnight, store timezone)
	Type        string    // Operation type, one of OpType* or free text
	Article     string    // SKU / article, empty when not provided
	Quantity    *int      // Units done, nil when not provided, 0 is valid
	StartedAt   time.Time // Moment the operation began
	EndedAt     time.Time // Moment the operation finished
	DurationMin int       // Whole minutes spent, measured or user-declared
	Comment     string    // Free-text comment plus any parse annotations
}
