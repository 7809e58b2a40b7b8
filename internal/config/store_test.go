package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssds/seat-allocation/pkg/core/model"
)

func TestStore_GetReturnsCopy(t *testing.T) {
	cfg := &Config{Allocation: AllocationConfig{Departments: []string{"CS"}, Capacities: map[string]int{"CS": 3}}}
	store := NewStore(cfg)

	got := store.Get()
	got.Allocation.Departments[0] = "changed"
	got.Allocation.Capacities["CS"] = 99

	again := store.Get()
	assert.Equal(t, []string{"CS"}, again.Allocation.Departments)
	assert.Equal(t, 3, again.Allocation.Capacities["CS"])

	// The caller's config is not shared either
	cfg.Allocation.Departments[0] = "mutated"
	assert.Equal(t, "CS", store.Get().Allocation.Departments[0])
}

func TestStore_UpdateAllocationSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seat_config.test.yaml")
	cfg := &Config{Path: path}
	ApplyDefaults(cfg)
	store := NewStore(cfg)

	updated, err := store.UpdateAllocation(AllocationConfig{
		Mode:       model.ModeManual,
		Capacities: map[string]int{"Law": 4},
		Quotas: QuotaList{
			{Channel: model.ChannelParallel, Fraction: 0.5},
			{Channel: model.ChannelGeneral, Fraction: 0.5},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ModeManual, updated.Allocation.Mode)

	// The file round-trips, keeping quota order
	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Law": 4}, loaded.Allocation.Capacities)
	require.Len(t, loaded.Allocation.Quotas, 2)
	assert.Equal(t, model.ChannelParallel, loaded.Allocation.Quotas[0].Channel)

	assert.Equal(t, model.ModeManual, store.Get().Allocation.Mode)
}

func TestStore_UpdateAllocationDefaultsQuotas(t *testing.T) {
	store := NewStore(&Config{})

	updated, err := store.UpdateAllocation(AllocationConfig{TotalSeats: 30})
	require.NoError(t, err)
	assert.Equal(t, model.ModeEqual, updated.Allocation.Mode)
	assert.Equal(t, QuotaList(model.DefaultQuotas), updated.Allocation.Quotas)
}

func TestStore_UpdateAllocationInvalid(t *testing.T) {
	store := NewStore(&Config{Allocation: AllocationConfig{TotalSeats: 10}})

	_, err := store.UpdateAllocation(AllocationConfig{
		Quotas: QuotaList{
			{Channel: model.ChannelGeneral, Fraction: 0.8},
			{Channel: model.ChannelMartyrs, Fraction: 0.3},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)

	// Previous settings are kept
	assert.Equal(t, 10, store.Get().Allocation.TotalSeats)
}
