package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ssds/seat-allocation/internal/config"
	"github.com/ssds/seat-allocation/pkg/core/allocator"
	"github.com/ssds/seat-allocation/pkg/core/model"
	"github.com/ssds/seat-allocation/pkg/db"
	"github.com/ssds/seat-allocation/pkg/exporter"
	"github.com/ssds/seat-allocation/pkg/metrics"
	"github.com/ssds/seat-allocation/pkg/roster"
)

// AllocationStore defines the database operations needed to persist a run
type AllocationStore interface {
	InsertRun(ctx context.Context, run *db.Run, assignments []db.RunAssignment) error
}

// AllocationRequest describes one allocation run.
// Zero-valued settings fall back to the saved configuration.
type AllocationRequest struct {
	Roster *roster.Roster

	// Source names the roster for run history (file name or sheet tab)
	Source string

	Mode       model.Mode
	TotalSeats *int

	// Departments overrides the configured department order
	Departments []string

	// Capacities overrides manual capacities from the roster's Settings sheet and the config
	Capacities map[string]int

	// Quotas overrides the configured channel split
	Quotas []model.ChannelQuota

	// SkipFile leaves RunResult.File empty
	SkipFile bool
}

// RunResult contains the outcome of an allocation run
type RunResult struct {
	// RunID is empty when the run was not stored
	RunID string

	Settings allocator.RunConfig
	Result   *model.AllocationResult

	// File is the rendered result workbook
	File []byte
}

// RunAllocation resolves the run settings, allocates seats, renders the result
// workbook and stores the run when a store is given.
// Configuration problems are returned as *allocator.ConfigurationError before anything is allocated.
func RunAllocation(
	ctx context.Context,
	store AllocationStore,
	recorder metrics.Recorder,
	cfg *config.Config,
	logger *zap.Logger,
	req AllocationRequest,
) (*RunResult, error) {
	if recorder == nil {
		recorder = metrics.NewNop()
	}
	start := time.Now()

	result, err := runAllocation(ctx, store, cfg, logger, req)

	outcome := metrics.OutcomeSuccess
	switch {
	case errors.Is(err, allocator.ErrConfiguration):
		outcome = metrics.OutcomeConfigError
	case err != nil:
		outcome = metrics.OutcomeError
	}
	recorder.RecordRun(outcome, time.Since(start))

	if err != nil {
		return nil, err
	}

	stats := result.Result.Stats
	recorder.RecordResult(metrics.RunStats{
		Assigned:   stats.Assigned,
		Unassigned: stats.Unassigned,
		Skipped:    stats.Skipped,
		Backfilled: allocator.Overflowed(result.Result),
	})

	return result, nil
}

func runAllocation(
	ctx context.Context,
	store AllocationStore,
	cfg *config.Config,
	logger *zap.Logger,
	req AllocationRequest,
) (*RunResult, error) {
	if req.Roster == nil {
		return nil, fmt.Errorf("no roster given")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 1: Resolve settings from the request, the roster and the saved config
	settings := ResolveSettings(cfg, req)
	logger.Debug("Resolved allocation settings",
		zap.String("mode", string(settings.Mode)),
		zap.Int("total_seats", settings.TotalSeats),
		zap.Strings("departments", settings.Departments),
		zap.Int("quotas", len(settings.Quotas)))

	// Step 2: Allocate
	result, err := allocator.Run(req.Roster.Students, settings)
	if err != nil {
		return nil, err
	}

	// Rows the loader could not turn into a record are reported with the engine's skips
	mergeLoaderSkips(result, req.Roster.Skipped)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Info("Allocation complete",
		zap.Int("total", result.Stats.Total),
		zap.Int("assigned", result.Stats.Assigned),
		zap.Int("unassigned", result.Stats.Unassigned),
		zap.Int("skipped", result.Stats.Skipped),
		zap.Int("backfilled", allocator.Overflowed(result)))

	if skipErr := allocator.SkippedErrors(result); skipErr != nil {
		logger.Warn("Some roster records were not ranked", zap.Error(skipErr))
	}

	runResult := &RunResult{Settings: settings, Result: result}

	// Step 3: Render the workbook
	if !req.SkipFile {
		runResult.File, err = exporter.Bytes(result)
		if err != nil {
			return nil, fmt.Errorf("failed to render result workbook: %w", err)
		}
	}

	// Step 4: Store the run
	if store != nil {
		runID := uuid.New().String()
		run, assignments := buildRunRecords(runID, time.Now().UTC(), req.Source, settings, result)

		if err := store.InsertRun(ctx, run, assignments); err != nil {
			return nil, fmt.Errorf("failed to save run: %w", err)
		}
		runResult.RunID = runID
		logger.Info("Run saved", zap.String("run_id", runID))
	}

	return runResult, nil
}

// ResolveSettings merges the request with the saved configuration.
// Each setting is taken from the first source that has it: the request,
// then the roster's Settings sheet (capacities only), then the config, then the defaults.
func ResolveSettings(cfg *config.Config, req AllocationRequest) allocator.RunConfig {
	var saved config.AllocationConfig
	if cfg != nil {
		saved = cfg.Allocation
	}

	settings := allocator.RunConfig{
		Mode:       req.Mode,
		TotalSeats: saved.TotalSeats,
		Quotas:     req.Quotas,
	}

	if settings.Mode == "" {
		settings.Mode = saved.Mode
	}
	if settings.Mode == "" {
		settings.Mode = model.ModeEqual
	}

	if req.TotalSeats != nil {
		settings.TotalSeats = *req.TotalSeats
	}

	if len(settings.Quotas) == 0 {
		settings.Quotas = saved.Quotas
	}
	if len(settings.Quotas) == 0 {
		settings.Quotas = model.DefaultQuotas
	}
	settings.Quotas = slices.Clone(settings.Quotas)

	switch {
	case req.Capacities != nil:
		settings.ManualCapacities = req.Capacities
	case req.Roster != nil && req.Roster.Capacities != nil:
		settings.ManualCapacities = req.Roster.Capacities
	default:
		settings.ManualCapacities = saved.Capacities
	}

	settings.Departments = resolveDepartments(req, saved, settings)
	return settings
}

// resolveDepartments picks the department order: explicit lists first,
// then the manual capacity names, then the departments students chose
func resolveDepartments(req AllocationRequest, saved config.AllocationConfig, settings allocator.RunConfig) []string {
	if len(req.Departments) > 0 {
		return slices.Clone(req.Departments)
	}
	if len(saved.Departments) > 0 {
		return slices.Clone(saved.Departments)
	}
	if settings.Mode == model.ModeManual && len(settings.ManualCapacities) > 0 {
		return slices.Sorted(maps.Keys(settings.ManualCapacities))
	}
	if req.Roster != nil {
		return req.Roster.Departments()
	}
	return nil
}

// mergeLoaderSkips adds rows dropped by the roster loader to the result.
// They are counted as skipped and unassigned; they have no assignment entry.
func mergeLoaderSkips(result *model.AllocationResult, skipped []model.SkippedRecord) {
	if len(skipped) == 0 {
		return
	}
	result.Skipped = append(result.Skipped, skipped...)
	result.Stats.Total += len(skipped)
	result.Stats.Unassigned += len(skipped)
	result.Stats.Skipped += len(skipped)
}

// buildRunRecords converts a result into the stored run and its ranked assignments
func buildRunRecords(
	runID string,
	createdAt time.Time,
	source string,
	settings allocator.RunConfig,
	result *model.AllocationResult,
) (*db.Run, []db.RunAssignment) {
	run := &db.Run{
		ID:         runID,
		CreatedAt:  createdAt,
		Source:     source,
		Mode:       string(settings.Mode),
		TotalSeats: settings.TotalSeats,
		Total:      result.Stats.Total,
		Assigned:   result.Stats.Assigned,
		Unassigned: result.Stats.Unassigned,
		Skipped:    result.Stats.Skipped,
	}

	for _, q := range settings.Quotas {
		run.Quotas = append(run.Quotas, db.RunQuota{Channel: string(q.Channel), Fraction: q.Fraction})
	}

	for _, d := range result.Departments {
		dept := db.RunDepartment{
			Name:         d.Name,
			Capacity:     d.Capacity,
			ChannelSeats: make(map[string]int, len(d.ChannelSeats)),
			Assigned:     d.Assigned,
		}
		for ch, seats := range d.ChannelSeats {
			dept.ChannelSeats[string(ch)] = seats
		}
		for _, n := range d.OverflowFilled {
			dept.Backfilled += n
		}
		if d.Assigned > 0 {
			minAvg := d.MinAverage
			dept.MinAverage = &minAvg
		}
		run.Departments = append(run.Departments, dept)
	}

	ranked := result.Ranked()
	assignments := make([]db.RunAssignment, len(ranked))
	for i, a := range ranked {
		ra := db.RunAssignment{
			RunID:          runID,
			Rank:           i + 1,
			StudentID:      a.StudentID,
			Name:           a.Name,
			StudentChannel: string(a.StudentChannel),
			Department:     a.Department,
			Channel:        string(a.Channel),
			Pass:           string(a.Pass),
			Skipped:        a.Skipped,
		}
		if !a.Skipped {
			avg := a.Average
			ra.Average = &avg
		}
		assignments[i] = ra
	}

	return run, assignments
}
