package model

import (
	"math"
	"slices"
)

// Unassigned is the department value recorded for students who did not receive a seat
const Unassigned = "UNASSIGNED"

// Mode selects how department capacities are planned
type Mode string

const (
	ModeEqual  Mode = "EQUAL"
	ModeManual Mode = "MANUAL"
)

func (m Mode) IsValid() bool {
	return m == ModeEqual || m == ModeManual
}

// Pass records which allocation pass produced an assignment
type Pass string

const (
	PassNone     Pass = ""
	PassPrimary  Pass = "primary"
	PassOverflow Pass = "overflow"
)

// StudentRecord is a single ranked applicant read from the roster
type StudentRecord struct {
	// ID is the stable identifier from the roster (row number or admission number)
	ID string

	// Name is the display name
	Name string

	// Average is the academic score used for ranking.
	// NaN or infinite values are not usable and exclude the student from ranking.
	Average float64

	// Channel is the admission channel the student applied through
	Channel Channel

	// Choices are optional department preferences, most preferred first.
	// When empty the student may be placed in any department.
	Choices []string

	// Row is the 1-based data row in the source roster, 0 when unknown
	Row int
}

// HasUsableAverage reports whether the average can be ranked
func (s StudentRecord) HasUsableAverage() bool {
	return !math.IsNaN(s.Average) && !math.IsInf(s.Average, 0)
}

// ChannelQuota is the fraction of every department's capacity reserved for a channel
type ChannelQuota struct {
	Channel  Channel
	Fraction float64
}

// Department is a department with its planned capacity
type Department struct {
	// Name is unique across a run
	Name string

	// Priority is the department's position in the configured order (0 is highest).
	// It decides which department receives a student when several have open seats.
	Priority int

	// Capacity is the total number of seats
	Capacity int

	// ChannelSeats is the per-channel split of Capacity. It is filled by the quota
	// splitter once per run and always sums to Capacity.
	ChannelSeats map[Channel]int

	// ChannelOrder is the declaration order of the ChannelSeats keys.
	// Overflow seats are offered in this order within a department.
	ChannelOrder []Channel
}

// Assignment is the outcome for a single student
type Assignment struct {
	StudentID string
	Name      string
	Average   float64

	// Order is the student's position in the input roster
	Order int

	// StudentChannel is the channel the student applied through
	StudentChannel Channel

	// Department is the assigned department name or Unassigned
	Department string

	// Channel is the channel of the seat the student filled (empty when unassigned).
	// Students placed by overflow carry the channel of the vacated seat.
	Channel Channel

	// Pass is the allocation pass that placed the student
	Pass Pass

	// Skipped is true when the record was excluded from ranking
	Skipped bool
}

// IsAssigned returns true if the student received a seat
func (a Assignment) IsAssigned() bool {
	return a.Department != Unassigned
}

// Stats summarises an allocation run
type Stats struct {
	Total      int
	Assigned   int
	Unassigned int
	Skipped    int
}

// DepartmentSummary reports how a department's seats were used
type DepartmentSummary struct {
	Name     string
	Priority int
	Capacity int

	// ChannelSeats is the quota split used for the run
	ChannelSeats map[Channel]int

	// PrimaryFilled counts seats filled by the primary pass, per channel
	PrimaryFilled map[Channel]int

	// OverflowFilled counts seats filled by overflow backfill, per slot channel
	OverflowFilled map[Channel]int

	// Assigned is the total number of students placed in the department
	Assigned int

	// MinAverage is the lowest admitted average (0 when nobody was admitted)
	MinAverage float64
}

// Vacant returns the number of seats left empty after both passes
func (d DepartmentSummary) Vacant() int {
	return max(d.Capacity-d.Assigned, 0)
}

// SkippedRecord is a roster record excluded from allocation
type SkippedRecord struct {
	// Row is the 1-based data row in the source roster. Records without a
	// source row are numbered by their position in the allocator input.
	Row       int
	StudentID string
	Name      string
	Reason    string
}

// AllocationResult is the complete outcome of one allocation run
type AllocationResult struct {
	// Assignments holds exactly one entry per input record, in roster order
	Assignments []Assignment

	// Departments reports seat usage in department priority order
	Departments []DepartmentSummary

	// Skipped lists records excluded from ranking
	Skipped []SkippedRecord

	Stats Stats
}

// Ranked returns a copy of the assignments sorted by average descending.
// Ties keep roster order. Skipped records are listed last.
func (r *AllocationResult) Ranked() []Assignment {
	ranked := slices.Clone(r.Assignments)
	slices.SortStableFunc(ranked, func(a, b Assignment) int {
		if a.Skipped != b.Skipped {
			if a.Skipped {
				return 1
			}
			return -1
		}
		switch {
		case a.Average > b.Average:
			return -1
		case a.Average < b.Average:
			return 1
		}
		return a.Order - b.Order
	})
	return ranked
}
