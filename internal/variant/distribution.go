package variant

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Nominal total of a distribution and the tolerance allowed around it.
const (
	DistributionTotal   = 100.0
	DistributionEpsilon = 0.01
)

var ErrDistributionMismatch = errors.New("distribution does not fit variant set")

// Distribution holds one percentage weight per variant position.
type Distribution []float64

// ParseDistribution parses comma-separated weights such as "50,50" or
// "33,33,34". Weights must be finite and non-negative.
func ParseDistribution(str string) (Distribution, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return nil, fmt.Errorf("distribution is empty")
	}

	parts := strings.Split(str, ",")
	dist := make(Distribution, len(parts))
	for i, part := range parts {
		w, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("distribution weight %d (%q) is not a number", i, part)
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("distribution weight %d (%q) must be a non-negative number", i, part)
		}
		dist[i] = w
	}

	return dist, nil
}

func (d Distribution) Sum() float64 {
	var total float64
	for _, w := range d {
		total += w
	}
	return total
}

// Balanced reports whether the weights add up to 100 within epsilon.
func (d Distribution) Balanced() bool {
	return math.Abs(d.Sum()-DistributionTotal) <= DistributionEpsilon
}

// Fits checks that every non-zero weight maps onto a member of set.
// Trailing zero weights past the end of the set are tolerated.
func (d Distribution) Fits(set Set) error {
	for i, w := range d {
		if w > 0 && i >= set.Len() {
			return fmt.Errorf("%w: weight %d (%g) has no variant, set is %s", ErrDistributionMismatch, i, w, set)
		}
	}
	return nil
}

// Pick maps r, drawn from [0,100), onto a variant by walking the weights in
// order and returning the first position whose running sum reaches r.
// Zero weights are never picked. If the weights are exhausted first, the
// first variant of the set is returned and ok is false.
func (d Distribution) Pick(set Set, r float64) (v Variant, ok bool) {
	var cumulative float64
	for i, w := range d {
		cumulative += w
		if w == 0 {
			continue
		}
		if cumulative >= r {
			if picked, found := set.At(i); found {
				return picked, true
			}
			break
		}
	}
	return set.First(), false
}

func (d Distribution) String() string {
	parts := make([]string, len(d))
	for i, w := range d {
		parts[i] = strconv.FormatFloat(w, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}
