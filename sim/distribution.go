// Statistic-queryable accumulators over duration and percentage samples.
// Samples are accumulated by insertion; statistics are computed at query
// time from a lazily re-sorted copy of the samples.

package sim

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Distribution accumulates duration samples and answers arbitrary statistic
// queries (median, percentile, max, mean). The zero count case is "no data",
// reported through the bool return, never as an error or a NaN.
type Distribution struct {
	samples []float64
	sorted  bool
}

// NewDistribution returns an empty distribution.
func NewDistribution() *Distribution {
	return &Distribution{}
}

// Add accumulates one duration sample.
func (d *Distribution) Add(dt Duration) {
	d.samples = append(d.samples, float64(dt))
	d.sorted = false
}

// Count returns how many samples have been accumulated.
func (d *Distribution) Count() int {
	return len(d.samples)
}

func (d *Distribution) sortIfNeeded() {
	if !d.sorted {
		sort.Float64s(d.samples)
		d.sorted = true
	}
}

// Percentile returns the p-th percentile (0..100) of the samples.
func (d *Distribution) Percentile(p float64) (Duration, bool) {
	if len(d.samples) == 0 {
		return 0, false
	}
	d.sortIfNeeded()
	return Duration(stat.Quantile(p/100, stat.Empirical, d.samples, nil)), true
}

// Median is the 50th percentile.
func (d *Distribution) Median() (Duration, bool) {
	return d.Percentile(50)
}

// Max returns the largest sample.
func (d *Distribution) Max() (Duration, bool) {
	if len(d.samples) == 0 {
		return 0, false
	}
	d.sortIfNeeded()
	return Duration(d.samples[len(d.samples)-1]), true
}

// Mean returns the mean sample, truncated toward zero to whole seconds.
func (d *Distribution) Mean() (Duration, bool) {
	if len(d.samples) == 0 {
		return 0, false
	}
	return Duration(stat.Mean(d.samples, nil)), true
}

// Describe summarizes the distribution for textual reports.
func (d *Distribution) Describe() string {
	if len(d.samples) == 0 {
		return "no data yet"
	}
	p50, _ := d.Percentile(50)
	p90, _ := d.Percentile(90)
	max, _ := d.Max()
	mean, _ := d.Mean()
	return fmt.Sprintf("%d count, 50%%ile %s, 90%%ile %s, max %s, mean %s", d.Count(), p50, p90, max, mean)
}

// PctDistribution accumulates percentage samples, stored as fractions in
// [0, 1]. Display figures are computed by real division and truncated toward
// zero, not rounded, to match the existing textual reports.
type PctDistribution struct {
	samples []float64
	sorted  bool
}

// NewPctDistribution returns an empty percentage distribution.
func NewPctDistribution() *PctDistribution {
	return &PctDistribution{}
}

// Add accumulates one fraction sample in [0, 1].
func (d *PctDistribution) Add(frac float64) {
	d.samples = append(d.samples, frac)
	d.sorted = false
}

// Count returns how many samples have been accumulated.
func (d *PctDistribution) Count() int {
	return len(d.samples)
}

func (d *PctDistribution) sortIfNeeded() {
	if !d.sorted {
		sort.Float64s(d.samples)
		d.sorted = true
	}
}

// Percentile returns the p-th percentile as a fraction in [0, 1].
func (d *PctDistribution) Percentile(p float64) (float64, bool) {
	if len(d.samples) == 0 {
		return 0, false
	}
	d.sortIfNeeded()
	return stat.Quantile(p/100, stat.Empirical, d.samples, nil), true
}

// Mean returns the mean fraction.
func (d *PctDistribution) Mean() (float64, bool) {
	if len(d.samples) == 0 {
		return 0, false
	}
	return stat.Mean(d.samples, nil), true
}

// Describe summarizes the distribution with truncated whole percentages.
func (d *PctDistribution) Describe() string {
	if len(d.samples) == 0 {
		return "no data yet"
	}
	p50, _ := d.Percentile(50)
	p90, _ := d.Percentile(90)
	d.sortIfNeeded()
	max := d.samples[len(d.samples)-1]
	mean, _ := d.Mean()
	return fmt.Sprintf("%d count, 50%%ile %d%%, 90%%ile %d%%, max %d%%, mean %d%%",
		d.Count(), TruncPct(p50), TruncPct(p90), TruncPct(max), TruncPct(mean))
}

// TruncPct converts a fraction to a whole display percentage, truncating
// toward zero.
func TruncPct(frac float64) int {
	return int(frac * 100)
}
