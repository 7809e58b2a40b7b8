package services

import (
	"go.uber.org/zap"

	"github.com/ssds/seat-allocation/pkg/roster"
)

// ScanResult summarises a roster before allocation
type ScanResult struct {
	StudentCount int            `json:"student_count"`
	SkippedCount int            `json:"skipped_count"`
	Departments  []string       `json:"departments"`
	Capacities   map[string]int `json:"capacities,omitempty"`
}

// ScanRoster counts the usable records and lists the departments students chose
func ScanRoster(r *roster.Roster, logger *zap.Logger) *ScanResult {
	result := &ScanResult{
		StudentCount: r.Count(),
		SkippedCount: len(r.Skipped),
		Departments:  r.Departments(),
		Capacities:   r.Capacities,
	}
	if result.Departments == nil {
		result.Departments = []string{}
	}

	logger.Debug("Scanned roster",
		zap.Int("students", result.StudentCount),
		zap.Int("skipped", result.SkippedCount),
		zap.Int("departments", len(result.Departments)))

	return result
}
