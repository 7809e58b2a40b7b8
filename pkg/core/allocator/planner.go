package allocator

import (
	"strings"

	"github.com/ssds/seat-allocation/pkg/core/model"
)

// PlanCapacities produces the capacity table for the given departments.
//
// In MANUAL mode each department takes its capacity from manual (missing names get 0)
// and totalSeats is informational only.
//
// In EQUAL mode totalSeats is divided evenly; the remainder is handed out one seat at a
// time in configured order, so earlier departments may hold one seat more than later ones.
// Example: 10 seats over 3 departments gives [4, 3, 3].
//
// The returned departments carry their configured position as Priority.
// ChannelSeats is left nil for the quota splitter to fill.
func PlanCapacities(totalSeats int, mode model.Mode, names []string, manual map[string]int) ([]model.Department, error) {
	if !mode.IsValid() {
		return nil, configErrorf("mode", "unknown capacity mode %q (expected %s or %s)", mode, model.ModeEqual, model.ModeManual)
	}

	if err := validateDepartmentNames(names); err != nil {
		return nil, err
	}

	departments := make([]model.Department, len(names))
	for i, name := range names {
		departments[i] = model.Department{Name: name, Priority: i}
	}

	switch mode {
	case model.ModeManual:
		for i := range departments {
			capacity := manual[departments[i].Name]
			if capacity < 0 {
				return nil, configErrorf("capacities", "department %q has negative capacity %d", departments[i].Name, capacity)
			}
			departments[i].Capacity = capacity
		}

	case model.ModeEqual:
		if totalSeats < 0 {
			return nil, configErrorf("total_capacity", "must not be negative, got %d", totalSeats)
		}
		if len(departments) == 0 {
			if totalSeats > 0 {
				return nil, configErrorf("departments", "no departments to hold %d seats", totalSeats)
			}
			return departments, nil
		}

		base := totalSeats / len(departments)
		remainder := totalSeats % len(departments)
		for i := range departments {
			departments[i].Capacity = base
			if i < remainder {
				departments[i].Capacity++
			}
		}
	}

	return departments, nil
}

// validateDepartmentNames rejects blank and duplicate names
func validateDepartmentNames(names []string) error {
	seen := make(map[string]bool, len(names))
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return configErrorf("departments", "department %d has a blank name", i)
		}
		if seen[name] {
			return configErrorf("departments", "duplicate department %q", name)
		}
		seen[name] = true
	}
	return nil
}

// TotalCapacity sums department capacities
func TotalCapacity(departments []model.Department) int {
	total := 0
	for _, d := range departments {
		total += d.Capacity
	}
	return total
}
