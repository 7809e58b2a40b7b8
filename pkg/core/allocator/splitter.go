package allocator

import (
	"math"
	"slices"

	"github.com/ssds/seat-allocation/pkg/core/model"
)

// fractionScale quantises quota fractions to parts per million so apportionment
// runs on integers and ties cannot be decided by floating-point noise.
// Splits are exact apportionments of the quantised fractions. From about a million
// seats up a split can differ by a seat from one computed on the raw fractions.
const fractionScale int64 = 1_000_000

// fullTolerance is how close a float sum must be to 1 to count as a full split
const fullTolerance = 1e-9

// channelShare is one channel's entry in the apportionment of a department
type channelShare struct {
	channel model.Channel
	ppm     int64
	order   int // declaration order, used to break remainder ties

	seats     int
	remainder int64 // numerator of the fractional part, out of fractionScale
}

// ValidateQuotas checks quota fractions before any allocation runs.
// Fractions must lie in [0, 1], name a known channel at most once,
// and sum to at most 1. A sum below 1 is accepted: the gap becomes open capacity.
func ValidateQuotas(quotas []model.ChannelQuota) error {
	_, err := quantiseQuotas(quotas)
	return err
}

func quantiseQuotas(quotas []model.ChannelQuota) ([]channelShare, error) {
	shares := make([]channelShare, 0, len(quotas)+1)
	seen := make(map[model.Channel]bool, len(quotas))
	residuals := make([]float64, 0, len(quotas))
	var total int64
	var sum float64

	for i, q := range quotas {
		if !q.Channel.IsValid() {
			return nil, configErrorf("quotas", "unknown channel %q", q.Channel)
		}
		if seen[q.Channel] {
			return nil, configErrorf("quotas", "channel %q is listed more than once", q.Channel)
		}
		seen[q.Channel] = true

		if math.IsNaN(q.Fraction) || q.Fraction < 0 || q.Fraction > 1 {
			return nil, configErrorf("quotas", "fraction for %q must be between 0 and 1, got %v", q.Channel, q.Fraction)
		}

		scaled := q.Fraction * float64(fractionScale)
		ppm := int64(math.Round(scaled))
		total += ppm
		sum += q.Fraction
		residuals = append(residuals, scaled-float64(ppm))
		shares = append(shares, channelShare{channel: q.Channel, ppm: ppm, order: i})
	}

	// Fractions adding up to 1 (thirds, say) must not leave open capacity
	// through rounding
	if math.Abs(sum-1) <= fullTolerance && total != fractionScale {
		absorbRounding(shares, residuals, fractionScale-total)
		total = fractionScale
	}

	if total > fractionScale {
		return nil, configErrorf("quotas", "fractions sum to %.4f, which exceeds 1", float64(total)/float64(fractionScale))
	}

	// Unquoted capacity is apportioned like any other channel, declared last
	if gap := fractionScale - total; gap > 0 {
		shares = append(shares, channelShare{channel: model.ChannelOpen, ppm: gap, order: len(quotas)})
	}

	return shares, nil
}

// absorbRounding adds diff ppm (negative to remove) one at a time, to the
// channels rounded down the most first, or taken from those rounded up the most.
// Ties go to the channel declared first.
func absorbRounding(shares []channelShare, residuals []float64, diff int64) {
	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		ra, rb := residuals[a], residuals[b]
		if diff < 0 {
			ra, rb = -ra, -rb
		}
		switch {
		case ra > rb:
			return -1
		case ra < rb:
			return 1
		}
		return 0
	})

	for i := 0; diff != 0; i = (i + 1) % len(order) {
		idx := order[i]
		if diff > 0 {
			shares[idx].ppm++
			diff--
		} else if shares[idx].ppm > 0 {
			shares[idx].ppm--
			diff++
		}
	}
}

// SplitCapacity apportions a department's capacity across channels with the
// largest-remainder (Hamilton) method.
//
// Every channel first gets floor(capacity * fraction) seats. The seats still missing
// go one each to the channels with the largest fractional remainder, ties going to the
// channel declared first. The result always sums to capacity.
//
// Example: capacity 10, general 0.6 / parallel 0.25 / martyrs 0.15
//   - raw shares 6.0 / 2.5 / 1.5, floors 6 / 2 / 1, one seat missing
//   - remainders tie at 0.5; parallel is declared first and takes it
//   - result 6 / 3 / 1
//
// When the fractions sum below 1 the gap is returned under model.ChannelOpen.
// Channels with fraction 0 are present in the result with 0 seats.
func SplitCapacity(capacity int, quotas []model.ChannelQuota) (map[model.Channel]int, error) {
	seats, _, err := splitCapacity(capacity, quotas)
	return seats, err
}

// splitCapacity also returns the channel declaration order of the split
func splitCapacity(capacity int, quotas []model.ChannelQuota) (map[model.Channel]int, []model.Channel, error) {
	if capacity < 0 {
		return nil, nil, configErrorf("capacity", "must not be negative, got %d", capacity)
	}

	shares, err := quantiseQuotas(quotas)
	if err != nil {
		return nil, nil, err
	}

	// Baseline floors
	assigned := 0
	for i := range shares {
		product := int64(capacity) * shares[i].ppm
		shares[i].seats = int(product / fractionScale)
		shares[i].remainder = product % fractionScale
		assigned += shares[i].seats
	}

	// Hand out the missing seats by largest remainder, declaration order on ties.
	// The shares sum to exactly fractionScale, so fewer seats are missing than
	// there are channels with a non-zero remainder.
	missing := capacity - assigned
	if missing > 0 {
		byRemainder := slices.Clone(shares)
		slices.SortStableFunc(byRemainder, func(a, b channelShare) int {
			switch {
			case a.remainder > b.remainder:
				return -1
			case a.remainder < b.remainder:
				return 1
			}
			return a.order - b.order
		})
		for i := 0; i < missing; i++ {
			shares[byRemainder[i].order].seats++
		}
	}

	seats := make(map[model.Channel]int, len(shares))
	order := make([]model.Channel, len(shares))
	for i, s := range shares {
		seats[s.channel] = s.seats
		order[i] = s.channel
	}

	return seats, order, nil
}

// SplitDepartments returns copies of the departments with ChannelSeats filled in
func SplitDepartments(departments []model.Department, quotas []model.ChannelQuota) ([]model.Department, error) {
	split := make([]model.Department, len(departments))
	for i, d := range departments {
		seats, order, err := splitCapacity(d.Capacity, quotas)
		if err != nil {
			return nil, err
		}
		d.ChannelSeats = seats
		d.ChannelOrder = order
		split[i] = d
	}
	return split, nil
}
