package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssds/seat-allocation/pkg/core/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "seat_config.test.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := &Config{
		Allocation: AllocationConfig{
			Mode:        model.ModeManual,
			Departments: []string{"CS", "SE"},
			Capacities:  map[string]int{"CS": 40, "SE": 25},
			Quotas:      QuotaList(model.DefaultQuotas),
		},
		Sheets: SheetsConfig{RosterSheetID: "sheet123", RosterTab: "Applicants"},
	}

	err := Validate(cfg)
	assert.NoError(t, err)
}

func TestValidate_UnknownMode(t *testing.T) {
	cfg := &Config{Allocation: AllocationConfig{Mode: model.Mode("AUTO")}}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_NegativeCapacity(t *testing.T) {
	cfg := &Config{Allocation: AllocationConfig{
		Mode:       model.ModeManual,
		Capacities: map[string]int{"CS": -1},
	}}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_QuotasOverOne(t *testing.T) {
	cfg := &Config{Allocation: AllocationConfig{
		Mode: model.ModeEqual,
		Quotas: QuotaList{
			{Channel: model.ChannelGeneral, Fraction: 0.7},
			{Channel: model.ChannelParallel, Fraction: 0.4},
		},
	}}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid quotas")
}

func TestValidate_DuplicateDepartment(t *testing.T) {
	cfg := &Config{Allocation: AllocationConfig{
		Mode:        model.ModeEqual,
		Departments: []string{"CS", "CS"},
	}}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate department")
}

func TestValidate_RosterTabRequiredWithSheet(t *testing.T) {
	cfg := &Config{Sheets: SheetsConfig{RosterSheetID: "sheet123"}}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromPath_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
allocation:
  mode: MANUAL
  departments:
    - CS
    - SE
  capacities:
    CS: 40
    SE: 25
  quotas:
    parallel: 0.5
    general: 0.5
databaseURL: "postgres://localhost:5432/seats"
server:
  addr: ":9090"
sheets:
  rosterSheetID: "sheet123"
  rosterTab: "Applicants"
  resultsSheetID: "results456"
`)

	cfg, err := LoadFromPath(configPath)
	require.NoError(t, err)

	assert.Equal(t, configPath, cfg.Path)
	assert.Equal(t, model.ModeManual, cfg.Allocation.Mode)
	assert.Equal(t, []string{"CS", "SE"}, cfg.Allocation.Departments)
	assert.Equal(t, map[string]int{"CS": 40, "SE": 25}, cfg.Allocation.Capacities)
	assert.Equal(t, "postgres://localhost:5432/seats", cfg.DatabaseURL)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "results456", cfg.Sheets.ResultsSheetID)

	// Mapping order is declaration order
	assert.Equal(t, QuotaList{
		{Channel: model.ChannelParallel, Fraction: 0.5},
		{Channel: model.ChannelGeneral, Fraction: 0.5},
	}, cfg.Allocation.Quotas)
}

func TestLoadFromPath_MinimalConfigGetsDefaults(t *testing.T) {
	configPath := writeConfig(t, `
allocation:
  totalSeats: 120
`)

	cfg, err := LoadFromPath(configPath)
	require.NoError(t, err)

	assert.Equal(t, model.ModeEqual, cfg.Allocation.Mode)
	assert.Equal(t, 120, cfg.Allocation.TotalSeats)
	assert.Equal(t, QuotaList(model.DefaultQuotas), cfg.Allocation.Quotas)
	assert.Equal(t, DefaultServerAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultMaxUploadMB, cfg.Server.MaxUploadMB)
	assert.Equal(t, DefaultLogDir, cfg.LogDir)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadFromPath_PercentQuotasAndAliases(t *testing.T) {
	configPath := writeConfig(t, `
allocation:
  quotas:
    مركزي: 60
    mawazi: 30
    shuhada: 10
`)

	cfg, err := LoadFromPath(configPath)
	require.NoError(t, err)

	require.Len(t, cfg.Allocation.Quotas, 3)
	assert.Equal(t, model.ChannelGeneral, cfg.Allocation.Quotas[0].Channel)
	assert.InDelta(t, 0.6, cfg.Allocation.Quotas[0].Fraction, 1e-9)
	assert.Equal(t, model.ChannelParallel, cfg.Allocation.Quotas[1].Channel)
	assert.InDelta(t, 0.3, cfg.Allocation.Quotas[1].Fraction, 1e-9)
	assert.Equal(t, model.ChannelMartyrs, cfg.Allocation.Quotas[2].Channel)
	assert.InDelta(t, 0.1, cfg.Allocation.Quotas[2].Fraction, 1e-9)
}

func TestLoadFromPath_UnknownQuotaChannel(t *testing.T) {
	configPath := writeConfig(t, `
allocation:
  quotas:
    evening: 0.2
`)

	_, err := LoadFromPath(configPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown channel")
}

func TestLoadFromPath_QuotasNotAMapping(t *testing.T) {
	configPath := writeConfig(t, `
allocation:
  quotas:
    - 0.6
    - 0.4
`)

	_, err := LoadFromPath(configPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be a mapping")
}

func TestLoadFromPath_DuplicateChannelAlias(t *testing.T) {
	configPath := writeConfig(t, `
allocation:
  quotas:
    general: 0.3
    markazi: 0.3
`)

	_, err := LoadFromPath(configPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "more than once")
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `
allocation:
  mode: "EQUAL"
    invalid indentation
`)

	_, err := LoadFromPath(configPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestSave_RoundTrip(t *testing.T) {
	cfg := &Config{
		Allocation: AllocationConfig{
			Mode:       model.ModeManual,
			Capacities: map[string]int{"CS": 3},
			Quotas: QuotaList{
				{Channel: model.ChannelMartyrs, Fraction: 0.25},
				{Channel: model.ChannelGeneral, Fraction: 0.75},
			},
		},
	}
	ApplyDefaults(cfg)

	path := filepath.Join(t.TempDir(), "nested", "seat_config.yaml")
	require.NoError(t, Save(path, cfg))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Allocation, loaded.Allocation)
	assert.Equal(t, cfg.Server, loaded.Server)
}

func TestLoadWithEnv_CurrentDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(FileName("local"), []byte("allocation:\n  totalSeats: 5\n"), 0644))

	cfg, err := LoadWithEnv("local")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Allocation.TotalSeats)

	_, err = LoadWithEnv("missing-env")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to find config file")
}

func TestNormaliseFraction(t *testing.T) {
	assert.Equal(t, 0.3, NormaliseFraction(0.3))
	assert.Equal(t, 1.0, NormaliseFraction(1))
	assert.Equal(t, 0.6, NormaliseFraction(60))
}
