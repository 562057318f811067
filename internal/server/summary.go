package server

import "github.com/ironsheep/histogram-mcp/internal/histogram"

// ChannelStats are the statistics of one channel over a bin range.
type ChannelStats struct {
	Channel   string  `json:"channel"`
	Start     int     `json:"start"`
	End       int     `json:"end"`
	Count     float64 `json:"count"`
	Mean      float64 `json:"mean"`
	Median    float64 `json:"median"`
	StdDev    float64 `json:"std_dev"`
	Threshold int     `json:"threshold"`
	Maximum   float64 `json:"maximum"`
}

// HistogramSummary describes a histogram and every channel it can answer
// for, each over the full bin range.
type HistogramSummary struct {
	Path          string         `json:"path"`
	CalculationID string         `json:"calculation_id,omitempty"`
	State         string         `json:"state"`
	Components    int            `json:"components"`
	Bins          int            `json:"bins"`
	Empty         bool           `json:"empty"`
	Channels      []ChannelStats `json:"channels,omitempty"`
}

// ComputeStarted is returned by an asynchronous histogram_compute.
type ComputeStarted struct {
	Path          string `json:"path"`
	CalculationID string `json:"calculation_id"`
	State         string `json:"state"`
}

// ChannelValues holds the raw bin values of one channel.
type ChannelValues struct {
	Channel string    `json:"channel"`
	Bins    int       `json:"bins"`
	Values  []float64 `json:"values"`
}

func channelStats(h *histogram.Histogram, ch histogram.Channel, start, end int) ChannelStats {
	return ChannelStats{
		Channel:   ch.String(),
		Start:     start,
		End:       end,
		Count:     h.Count(ch, start, end),
		Mean:      h.Mean(ch, start, end),
		Median:    h.Median(ch, start, end),
		StdDev:    h.StdDev(ch, start, end),
		Threshold: h.Threshold(ch, start, end),
		Maximum:   h.Maximum(ch),
	}
}

func summarize(path, id string, h *histogram.Histogram, state histogram.State) *HistogramSummary {
	sum := &HistogramSummary{
		Path:          path,
		CalculationID: id,
		State:         state.String(),
		Components:    h.Components(),
		Bins:          h.BinCount(),
		Empty:         h.Empty(),
	}
	if sum.Empty {
		return sum
	}
	for _, ch := range histogram.Channels() {
		if h.HasChannel(ch) {
			sum.Channels = append(sum.Channels, channelStats(h, ch, 0, sum.Bins-1))
		}
	}
	return sum
}
