package workforce

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// =============================================================================
// CAT CURVES - Promotion probability by level tenure bucket
// =============================================================================

// BucketWidth is the width, in months of level tenure, of one CAT bucket.
const BucketWidth = 6

// CATCurve maps a bucket (months of level tenure, a multiple of BucketWidth)
// to a promotion probability.
type CATCurve map[int]float64

// CATTable holds one curve per level name.
type CATTable map[string]CATCurve

// BucketLabel formats a bucket as "CAT0", "CAT6", ...
func BucketLabel(bucket int) string { return "CAT" + strconv.Itoa(bucket) }

// ParseBucketLabel parses "CAT12" (case-insensitive) into 12.
func ParseBucketLabel(label string) (int, error) {
	s := strings.TrimSpace(strings.ToUpper(label))
	if !strings.HasPrefix(s, "CAT") {
		return 0, fmt.Errorf("invalid CAT bucket %q", label)
	}
	n, err := strconv.Atoi(s[3:])
	if err != nil || n < 0 || n%BucketWidth != 0 {
		return 0, fmt.Errorf("invalid CAT bucket %q", label)
	}
	return n, nil
}

// MaxBucket returns the highest bucket the curve defines.
func (c CATCurve) MaxBucket() int {
	max := 0
	for b := range c {
		if b > max {
			max = b
		}
	}
	return max
}

// Buckets returns the defined buckets in ascending order.
func (c CATCurve) Buckets() []int {
	out := make([]int, 0, len(c))
	for b := range c {
		out = append(out, b)
	}
	sort.Ints(out)
	return out
}

// Bucket returns the bucket for a level tenure: 0 below BucketWidth months,
// otherwise the tenure rounded down to a multiple of BucketWidth, capped at
// the highest bucket the curve defines.
func (c CATCurve) Bucket(levelTenure int) int {
	if levelTenure < BucketWidth {
		return 0
	}
	b := (levelTenure / BucketWidth) * BucketWidth
	if max := c.MaxBucket(); b > max {
		b = max
	}
	return b
}

// Probability returns the bucket and the promotion probability for a level
// tenure. CAT0 is always 0. Values are clamped into [0, 1].
func (c CATCurve) Probability(levelTenure int) (int, float64) {
	b := c.Bucket(levelTenure)
	if b == 0 {
		return 0, 0
	}
	return b, clampProbability(c[b])
}

// Curve returns the curve for a level; levels not present get an empty curve,
// which promotes nobody.
func (t CATTable) Curve(level string) CATCurve {
	if c, ok := t[level]; ok {
		return c
	}
	return CATCurve{}
}

func clampProbability(p float64) float64 {
	switch {
	case p > 1:
		return 1
	case p < 0 || p != p:
		return 0
	default:
		return p
	}
}
