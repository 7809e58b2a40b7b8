package allocator

import (
	"slices"

	"github.com/ssds/seat-allocation/pkg/core/model"
)

// RunConfig holds everything needed to plan, split and allocate in one call
type RunConfig struct {
	// Mode selects EQUAL or MANUAL capacity planning
	Mode model.Mode

	// TotalSeats is divided across departments in EQUAL mode
	TotalSeats int

	// Departments are department names in priority order
	Departments []string

	// ManualCapacities maps department name to seats in MANUAL mode
	ManualCapacities map[string]int

	// Quotas are channel fractions in declaration order
	Quotas []model.ChannelQuota
}

// Run validates the configuration, plans capacities, splits them by quota and allocates.
// Configuration problems are reported before any allocation work starts.
func Run(students []model.StudentRecord, cfg RunConfig) (*model.AllocationResult, error) {
	if err := ValidateQuotas(cfg.Quotas); err != nil {
		return nil, err
	}

	departments, err := PlanCapacities(cfg.TotalSeats, cfg.Mode, cfg.Departments, cfg.ManualCapacities)
	if err != nil {
		return nil, err
	}

	departments, err = SplitDepartments(departments, cfg.Quotas)
	if err != nil {
		return nil, err
	}

	return Allocate(students, departments)
}

// engine holds the working state of a single allocation run
type engine struct {
	students    []model.StudentRecord
	departments []model.Department
	deptIndex   map[string]int

	// remaining[d][channel] is the number of unfilled seats of that channel
	remaining []map[model.Channel]int

	assignments []model.Assignment
	summaries   []model.DepartmentSummary
}

// Allocate assigns ranked students to departments in three passes.
//
//  1. Primary fill: each student, in rank order, takes a seat of their own channel in
//     the first department (priority order, or their choice order) that still has one.
//  2. Leftover: seats of every (department, channel) pair that pass 1 left empty
//     form the overflow pool.
//  3. Overflow backfill: students still unassigned, in rank order and regardless of
//     channel, take the first pooled seat in department priority order. They are
//     recorded under the channel of the seat they fill.
//
// Students are ranked by average descending, ties by roster position. Students whose
// average is not usable or whose channel is unknown are excluded from ranking and
// listed in Skipped; their assignment is UNASSIGNED.
//
// Departments must already carry ChannelSeats (see SplitDepartments). A department
// with capacity 0 is valid and receives nobody.
func Allocate(students []model.StudentRecord, departments []model.Department) (*model.AllocationResult, error) {
	e, err := newEngine(students, departments)
	if err != nil {
		return nil, err
	}

	ranked, skipped := e.rank()

	unassigned := e.primaryFill(ranked)
	pool := e.leftoverSeats()
	e.overflowFill(unassigned, pool)

	return e.buildResult(skipped), nil
}

func newEngine(students []model.StudentRecord, departments []model.Department) (*engine, error) {
	// Work on a priority-ordered copy; inputs stay untouched
	ordered := slices.Clone(departments)
	slices.SortStableFunc(ordered, func(a, b model.Department) int {
		return a.Priority - b.Priority
	})

	e := &engine{
		students:    students,
		departments: ordered,
		deptIndex:   make(map[string]int, len(ordered)),
		remaining:   make([]map[model.Channel]int, len(ordered)),
		assignments: make([]model.Assignment, len(students)),
		summaries:   make([]model.DepartmentSummary, len(ordered)),
	}

	for i := range ordered {
		d := &ordered[i]
		if _, dup := e.deptIndex[d.Name]; dup {
			return nil, configErrorf("departments", "duplicate department %q", d.Name)
		}
		e.deptIndex[d.Name] = i

		if d.Capacity < 0 {
			return nil, configErrorf("departments", "department %q has negative capacity %d", d.Name, d.Capacity)
		}

		if len(d.ChannelOrder) == 0 {
			d.ChannelOrder = defaultChannelOrder(d.ChannelSeats)
		}

		total := 0
		e.remaining[i] = make(map[model.Channel]int, len(d.ChannelSeats))
		for _, ch := range d.ChannelOrder {
			seats := d.ChannelSeats[ch]
			if seats < 0 {
				return nil, configErrorf("departments", "department %q has negative seats for channel %q", d.Name, ch)
			}
			e.remaining[i][ch] = seats
			total += seats
		}
		if total != d.Capacity {
			return nil, configErrorf("departments", "channel seats of %q sum to %d, capacity is %d", d.Name, total, d.Capacity)
		}

		e.summaries[i] = model.DepartmentSummary{
			Name:           d.Name,
			Priority:       d.Priority,
			Capacity:       d.Capacity,
			ChannelSeats:   d.ChannelSeats,
			PrimaryFilled:  make(map[model.Channel]int),
			OverflowFilled: make(map[model.Channel]int),
		}
	}

	return e, nil
}

// defaultChannelOrder orders channels canonically when the caller gave no declaration order
func defaultChannelOrder(seats map[model.Channel]int) []model.Channel {
	canonical := append(slices.Clone(model.Channels), model.ChannelOpen)
	order := make([]model.Channel, 0, len(seats))
	for _, ch := range canonical {
		if _, ok := seats[ch]; ok {
			order = append(order, ch)
		}
	}
	return order
}

// rank returns eligible student indices in rank order and the excluded records.
// Every assignment starts out UNASSIGNED.
func (e *engine) rank() ([]int, []model.SkippedRecord) {
	ranked := make([]int, 0, len(e.students))
	var skipped []model.SkippedRecord

	for i, s := range e.students {
		e.assignments[i] = model.Assignment{
			StudentID:      s.ID,
			Name:           s.Name,
			Average:        s.Average,
			Order:          i,
			StudentChannel: s.Channel,
			Department:     model.Unassigned,
		}

		reason := ""
		switch {
		case !s.HasUsableAverage():
			reason = "average is not a usable number"
		case !s.Channel.IsValid():
			reason = "unknown admission channel " + string(s.Channel)
		}
		if reason != "" {
			e.assignments[i].Skipped = true
			row := s.Row
			if row == 0 {
				row = i + 1
			}
			skipped = append(skipped, model.SkippedRecord{Row: row, StudentID: s.ID, Name: s.Name, Reason: reason})
			continue
		}

		ranked = append(ranked, i)
	}

	// Indices are already in roster order, so a stable sort keeps ties in roster order
	slices.SortStableFunc(ranked, func(a, b int) int {
		avgA, avgB := e.students[a].Average, e.students[b].Average
		switch {
		case avgA > avgB:
			return -1
		case avgA < avgB:
			return 1
		}
		return 0
	})

	return ranked, skipped
}

// candidateDepartments returns the department indices a student may be placed in,
// in the order they should be tried
func (e *engine) candidateDepartments(s model.StudentRecord) []int {
	if len(s.Choices) == 0 {
		all := make([]int, len(e.departments))
		for i := range all {
			all[i] = i
		}
		return all
	}

	candidates := make([]int, 0, len(s.Choices))
	for _, name := range s.Choices {
		idx, ok := e.deptIndex[name]
		if !ok || slices.Contains(candidates, idx) {
			continue
		}
		candidates = append(candidates, idx)
	}
	return candidates
}

// primaryFill places students on seats of their own channel.
// Channel buckets never compete for the same seat, so walking the full ranked list
// is the same as processing each bucket in rank order.
// Returns the ranked students left unassigned.
func (e *engine) primaryFill(ranked []int) []int {
	var unassigned []int

	for _, idx := range ranked {
		student := e.students[idx]
		placed := false

		for _, d := range e.candidateDepartments(student) {
			if e.remaining[d][student.Channel] <= 0 {
				continue
			}
			e.remaining[d][student.Channel]--
			e.assign(idx, d, student.Channel, model.PassPrimary)
			placed = true
			break
		}

		if !placed {
			unassigned = append(unassigned, idx)
		}
	}

	return unassigned
}

// leftoverSeats counts the seats primary fill left empty
func (e *engine) leftoverSeats() int {
	pool := 0
	for d := range e.departments {
		for _, ch := range e.departments[d].ChannelOrder {
			pool += e.remaining[d][ch]
		}
	}
	return pool
}

// overflowFill backfills leftover seats with unassigned students of any channel
func (e *engine) overflowFill(unassigned []int, pool int) {
	for _, idx := range unassigned {
		if pool == 0 {
			return
		}

		student := e.students[idx]
	departments:
		for _, d := range e.candidateDepartments(student) {
			for _, ch := range e.departments[d].ChannelOrder {
				if e.remaining[d][ch] <= 0 {
					continue
				}
				e.remaining[d][ch]--
				pool--
				e.assign(idx, d, ch, model.PassOverflow)
				break departments
			}
		}
	}
}

func (e *engine) assign(studentIdx, deptIdx int, ch model.Channel, pass model.Pass) {
	a := &e.assignments[studentIdx]
	a.Department = e.departments[deptIdx].Name
	a.Channel = ch
	a.Pass = pass

	summary := &e.summaries[deptIdx]
	if pass == model.PassPrimary {
		summary.PrimaryFilled[ch]++
	} else {
		summary.OverflowFilled[ch]++
	}
	if summary.Assigned == 0 || a.Average < summary.MinAverage {
		summary.MinAverage = a.Average
	}
	summary.Assigned++
}

func (e *engine) buildResult(skipped []model.SkippedRecord) *model.AllocationResult {
	result := &model.AllocationResult{
		Assignments: e.assignments,
		Departments: e.summaries,
		Skipped:     skipped,
	}

	// Initialise with an empty slice (not nil) for consumers that serialise it
	if result.Skipped == nil {
		result.Skipped = []model.SkippedRecord{}
	}

	result.Stats.Total = len(e.assignments)
	for _, a := range e.assignments {
		if a.IsAssigned() {
			result.Stats.Assigned++
		}
	}
	result.Stats.Unassigned = result.Stats.Total - result.Stats.Assigned
	result.Stats.Skipped = len(skipped)

	return result
}

// Overflowed counts students placed by overflow backfill
func Overflowed(result *model.AllocationResult) int {
	count := 0
	for _, a := range result.Assignments {
		if a.Pass == model.PassOverflow {
			count++
		}
	}
	return count
}

