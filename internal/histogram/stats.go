package histogram

import "math"

// DefaultThreshold is returned by Threshold when no split separates the
// histogram into two classes.
const DefaultThreshold = 127

// view is an immutable snapshot of a histogram's table.
type view struct {
	components int
	nBins      int
	values     []float64
}

func (h *Histogram) snapshot() view {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return view{components: h.components, nBins: h.nBins, values: h.values}
}

// rows returns the stored rows that make up ch, or nil when the table is
// empty or the channel is unavailable.
func (v view) rows(ch Channel) []int {
	ch.mustValid()
	if v.values == nil {
		return nil
	}
	if ch == RGB {
		if v.components < 3 {
			return nil
		}
		return []int{1, 2, 3}
	}
	if r := rowOf(ch, v.components); r >= 0 {
		return []int{r}
	}
	return nil
}

func (v view) at(row, bin int) float64 {
	return v.values[row*v.nBins+bin]
}

// sum adds the bin across rows.
func (v view) sum(rows []int, bin int) float64 {
	var s float64
	for _, r := range rows {
		s += v.at(r, bin)
	}
	return s
}

// span clamps [start, end] to the bin range and reports whether anything
// is left.
func (v view) span(start, end int) (int, int, bool) {
	if start < 0 {
		start = 0
	}
	if end > v.nBins-1 {
		end = v.nBins - 1
	}
	return start, end, start <= end
}

func (v view) position(bin int) float64 {
	return float64(bin) / float64(v.nBins-1)
}

func (v view) count(rows []int, start, end int) float64 {
	var count float64
	for _, r := range rows {
		for i := start; i <= end; i++ {
			count += v.at(r, i)
		}
	}
	return count
}

func (v view) mean(rows []int, start, end int) float64 {
	var mean float64
	for i := start; i <= end; i++ {
		mean += v.position(i) * v.sum(rows, i)
	}
	if count := v.count(rows, start, end); count > 0 {
		return mean / count
	}
	return mean
}

// Maximum returns the largest single bin of ch. For RGB the three colour
// bins are compared per bin.
func (h *Histogram) Maximum(ch Channel) float64 {
	v := h.snapshot()
	rows := v.rows(ch)
	if rows == nil {
		return 0
	}
	var max float64
	for i := 0; i < v.nBins; i++ {
		for _, r := range rows {
			max = math.Max(max, v.at(r, i))
		}
	}
	return max
}

// ValueAt returns the content of one bin. For RGB it is the smallest of the
// red, green and blue bins.
func (h *Histogram) ValueAt(ch Channel, bin int) float64 {
	v := h.snapshot()
	rows := v.rows(ch)
	if rows == nil || bin < 0 || bin >= v.nBins {
		return 0
	}
	min := v.at(rows[0], bin)
	for _, r := range rows[1:] {
		min = math.Min(min, v.at(r, bin))
	}
	return min
}

// Values returns a copy of the whole row of ch, or nil. For RGB each bin is
// the sum of the red, green and blue bins.
func (h *Histogram) Values(ch Channel) []float64 {
	v := h.snapshot()
	rows := v.rows(ch)
	if rows == nil {
		return nil
	}
	out := make([]float64, v.nBins)
	for i := range out {
		out[i] = v.sum(rows, i)
	}
	return out
}

// Count returns the total weight in bins [start, end].
func (h *Histogram) Count(ch Channel, start, end int) float64 {
	v := h.snapshot()
	rows := v.rows(ch)
	start, end, ok := v.span(start, end)
	if rows == nil || !ok {
		return 0
	}
	return v.count(rows, start, end)
}

// Mean returns the weighted mean of the normalised bin position over
// [start, end].
func (h *Histogram) Mean(ch Channel, start, end int) float64 {
	v := h.snapshot()
	rows := v.rows(ch)
	start, end, ok := v.span(start, end)
	if rows == nil || !ok {
		return 0
	}
	return v.mean(rows, start, end)
}

// Median returns the normalised position of the first bin at which the
// running sum exceeds half the range total, or -1.
func (h *Histogram) Median(ch Channel, start, end int) float64 {
	v := h.snapshot()
	rows := v.rows(ch)
	start, end, ok := v.span(start, end)
	if rows == nil || !ok {
		return -1
	}
	count := v.count(rows, start, end)
	var sum float64
	for i := start; i <= end; i++ {
		sum += v.sum(rows, i)
		if sum*2 > count {
			return v.position(i)
		}
	}
	return -1
}

// StdDev returns the population standard deviation of the normalised bin
// position over [start, end].
func (h *Histogram) StdDev(ch Channel, start, end int) float64 {
	v := h.snapshot()
	rows := v.rows(ch)
	start, end, ok := v.span(start, end)
	if rows == nil || !ok {
		return 0
	}
	mean := v.mean(rows, start, end)
	count := v.count(rows, start, end)
	if count == 0 {
		count = 1
	}
	var dev float64
	for i := start; i <= end; i++ {
		d := v.position(i) - mean
		dev += v.sum(rows, i) * d * d
	}
	return math.Sqrt(dev / count)
}

// Threshold returns the bin index in [start, end] that maximises Otsu's
// between-class variance, or DefaultThreshold when no split improves on
// zero variance.
func (h *Histogram) Threshold(ch Channel, start, end int) int {
	v := h.snapshot()
	rows := v.rows(ch)
	start, end, ok := v.span(start, end)
	if rows == nil || !ok {
		return DefaultThreshold
	}

	maxval := end - start
	hist := make([]float64, maxval+1)
	chist := make([]float64, maxval+1)
	cmom := make([]float64, maxval+1)
	for i := range hist {
		hist[i] = v.sum(rows, start+i)
	}

	chist[0] = hist[0]
	for i := 1; i <= maxval; i++ {
		chist[i] = chist[i-1] + hist[i]
		cmom[i] = cmom[i-1] + float64(i)*hist[i]
	}
	chistMax := chist[maxval]
	cmomMax := cmom[maxval]

	threshold := DefaultThreshold
	var bvarMax float64
	for i := 0; i < maxval; i++ {
		if chist[i] <= 0 || chist[i] >= chistMax {
			continue
		}
		bvar := cmom[i]/chist[i] - (cmomMax-cmom[i])/(chistMax-chist[i])
		bvar *= bvar
		bvar *= chist[i]
		bvar *= chistMax - chist[i]
		if bvar > bvarMax {
			bvarMax = bvar
			threshold = start + i
		}
	}
	return threshold
}
