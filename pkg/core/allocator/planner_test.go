package allocator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssds/seat-allocation/pkg/core/model"
)

func capacities(departments []model.Department) []int {
	caps := make([]int, len(departments))
	for i, d := range departments {
		caps[i] = d.Capacity
	}
	return caps
}

func TestPlanCapacities_EqualEvenSplit(t *testing.T) {
	departments, err := PlanCapacities(9, model.ModeEqual, []string{"CS", "SE", "IS"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{3, 3, 3}, capacities(departments))
}

func TestPlanCapacities_EqualRemainderGoesToEarlierDepartments(t *testing.T) {
	departments, err := PlanCapacities(11, model.ModeEqual, []string{"CS", "SE", "IS", "AI"}, nil)
	require.NoError(t, err)

	// 11 = 4*2 + 3, so the first three departments get an extra seat
	assert.Equal(t, []int{3, 3, 3, 2}, capacities(departments))
	assert.Equal(t, 11, TotalCapacity(departments))
}

func TestPlanCapacities_EqualFewerSeatsThanDepartments(t *testing.T) {
	departments, err := PlanCapacities(2, model.ModeEqual, []string{"CS", "SE", "IS"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 1, 0}, capacities(departments))
}

func TestPlanCapacities_EqualAssignsPriorityFromOrder(t *testing.T) {
	departments, err := PlanCapacities(3, model.ModeEqual, []string{"SE", "CS"}, nil)
	require.NoError(t, err)

	require.Len(t, departments, 2)
	assert.Equal(t, "SE", departments[0].Name)
	assert.Equal(t, 0, departments[0].Priority)
	assert.Equal(t, "CS", departments[1].Name)
	assert.Equal(t, 1, departments[1].Priority)
	assert.Nil(t, departments[0].ChannelSeats, "Channel seats are filled by the splitter")
}

func TestPlanCapacities_EqualNoDepartmentsWithSeats(t *testing.T) {
	_, err := PlanCapacities(10, model.ModeEqual, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "departments", cfgErr.Field)
}

func TestPlanCapacities_EqualNoDepartmentsNoSeats(t *testing.T) {
	departments, err := PlanCapacities(0, model.ModeEqual, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, departments)
}

func TestPlanCapacities_EqualNegativeTotal(t *testing.T) {
	_, err := PlanCapacities(-1, model.ModeEqual, []string{"CS"}, nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestPlanCapacities_ManualVerbatim(t *testing.T) {
	manual := map[string]int{"CS": 40, "SE": 25}

	// totalSeats is informational and not redistributed
	departments, err := PlanCapacities(1000, model.ModeManual, []string{"CS", "SE", "IS"}, manual)
	require.NoError(t, err)

	assert.Equal(t, []int{40, 25, 0}, capacities(departments), "Missing department gets 0")
}

func TestPlanCapacities_ManualNegativeCapacity(t *testing.T) {
	_, err := PlanCapacities(0, model.ModeManual, []string{"CS"}, map[string]int{"CS": -5})
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "negative capacity")
}

func TestPlanCapacities_UnknownMode(t *testing.T) {
	_, err := PlanCapacities(10, model.Mode("AUTO"), []string{"CS"}, nil)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "unknown capacity mode")
}

func TestPlanCapacities_DuplicateDepartment(t *testing.T) {
	_, err := PlanCapacities(10, model.ModeEqual, []string{"CS", "CS"}, nil)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "duplicate department")
}

func TestPlanCapacities_BlankDepartment(t *testing.T) {
	_, err := PlanCapacities(10, model.ModeEqual, []string{"CS", "  "}, nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}
