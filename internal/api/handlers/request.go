package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ssds/seat-allocation/internal/config"
	"github.com/ssds/seat-allocation/pkg/core/model"
)

// parseMode reads the mode form field. Empty means "use the saved mode".
func parseMode(raw string) (model.Mode, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	mode := model.Mode(strings.ToUpper(raw))
	if !mode.IsValid() {
		return "", badRequest(fmt.Sprintf("mode must be EQUAL or MANUAL, got %q", raw))
	}
	return mode, nil
}

// parseTotal reads the total_capacity form field. Empty returns nil.
func parseTotal(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	total, err := strconv.Atoi(raw)
	if err != nil {
		return nil, badRequest(fmt.Sprintf("total_capacity must be a whole number, got %q", raw))
	}
	return &total, nil
}

// parseCapacities reads a JSON object of department name to seat count. Empty returns nil.
func parseCapacities(raw string) (map[string]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "{}" || raw == "null" {
		return nil, nil
	}

	var values map[string]float64
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, badRequest(fmt.Sprintf("capacities must be a JSON object of department to seats: %v", err))
	}

	capacities := make(map[string]int, len(values))
	for name, v := range values {
		if v != math.Trunc(v) {
			return nil, badRequest(fmt.Sprintf("capacity of %q must be a whole number, got %v", name, v))
		}
		capacities[strings.TrimSpace(name)] = int(v)
	}
	return capacities, nil
}

// parseQuotas reads a JSON object of channel to fraction or percentage. Empty returns nil.
func parseQuotas(raw string) ([]model.ChannelQuota, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "{}" || raw == "null" {
		return nil, nil
	}

	var values map[string]float64
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, badRequest(fmt.Sprintf("quotas must be a JSON object of channel to fraction: %v", err))
	}
	return quotasFromMap(values)
}

// quotasFromMap resolves channel names and orders the quotas canonically.
// JSON objects carry no key order, so declaration order is the fixed channel order.
func quotasFromMap(values map[string]float64) ([]model.ChannelQuota, error) {
	if len(values) == 0 {
		return nil, nil
	}

	fractions := make(map[model.Channel]float64, len(values))
	for name, v := range values {
		ch, err := model.ParseChannel(name)
		if err != nil {
			return nil, badRequest(err.Error())
		}
		if _, dup := fractions[ch]; dup {
			return nil, badRequest(fmt.Sprintf("channel %q is given more than once", ch))
		}
		fractions[ch] = config.NormaliseFraction(v)
	}

	quotas := make([]model.ChannelQuota, 0, len(fractions))
	for _, ch := range model.Channels {
		if f, ok := fractions[ch]; ok {
			quotas = append(quotas, model.ChannelQuota{Channel: ch, Fraction: f})
		}
	}
	return quotas, nil
}

// quotasToMap is the inverse of quotasFromMap
func quotasToMap(quotas []model.ChannelQuota) map[string]float64 {
	out := make(map[string]float64, len(quotas))
	for _, q := range quotas {
		out[string(q.Channel)] = q.Fraction
	}
	return out
}
