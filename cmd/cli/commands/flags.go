package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ssds/seat-allocation/internal/config"
	"github.com/ssds/seat-allocation/pkg/core/model"
)

// splitPair splits a KEY=VALUE flag value
func splitPair(raw string) (string, string, error) {
	key, value, ok := strings.Cut(raw, "=")
	key, value = strings.TrimSpace(key), strings.TrimSpace(value)
	if !ok || key == "" || value == "" {
		return "", "", fmt.Errorf("expected KEY=VALUE, got %q", raw)
	}
	return key, value, nil
}

// parseQuotaFlags parses repeated --quota CHANNEL=FRACTION flags.
// Flag order is the channel declaration order. Percentages are accepted.
func parseQuotaFlags(values []string) ([]model.ChannelQuota, error) {
	if len(values) == 0 {
		return nil, nil
	}

	quotas := make([]model.ChannelQuota, 0, len(values))
	for _, raw := range values {
		key, value, err := splitPair(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid --quota: %w", err)
		}

		ch, err := model.ParseChannel(key)
		if err != nil {
			return nil, fmt.Errorf("invalid --quota: %w", err)
		}

		fraction, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --quota %q: fraction must be a number", raw)
		}

		quotas = append(quotas, model.ChannelQuota{Channel: ch, Fraction: config.NormaliseFraction(fraction)})
	}
	return quotas, nil
}

// parseCapacityFlags parses repeated --capacity DEPARTMENT=SEATS flags.
// It also returns the department names in flag order.
func parseCapacityFlags(values []string) (map[string]int, []string, error) {
	if len(values) == 0 {
		return nil, nil, nil
	}

	capacities := make(map[string]int, len(values))
	order := make([]string, 0, len(values))
	for _, raw := range values {
		key, value, err := splitPair(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --capacity: %w", err)
		}

		seats, err := strconv.Atoi(value)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --capacity %q: seats must be a whole number", raw)
		}

		if _, dup := capacities[key]; dup {
			return nil, nil, fmt.Errorf("invalid --capacity: department %q given twice", key)
		}
		capacities[key] = seats
		order = append(order, key)
	}
	return capacities, order, nil
}
