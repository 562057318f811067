package histogram

import (
	"fmt"
	"math"
	"strings"
)

// Channel selects a statistic lane of a Histogram.
type Channel int

const (
	Value Channel = iota
	Red
	Green
	Blue
	Alpha
	Luminance
	// RGB is virtual. It is synthesised from Red, Green and Blue at query time.
	RGB
)

var channelNames = [...]string{
	Value:     "value",
	Red:       "red",
	Green:     "green",
	Blue:      "blue",
	Alpha:     "alpha",
	Luminance: "luminance",
	RGB:       "rgb",
}

// Channels lists every channel in declaration order.
func Channels() []Channel {
	return []Channel{Value, Red, Green, Blue, Alpha, Luminance, RGB}
}

func (c Channel) valid() bool {
	return c >= Value && c <= RGB
}

// String returns the lower-case channel name.
func (c Channel) String() string {
	if !c.valid() {
		return fmt.Sprintf("channel(%d)", int(c))
	}
	return channelNames[c]
}

// ParseChannel maps a channel name (case-insensitive) to a Channel.
// "gray" and "grey" are accepted as aliases for Value.
func ParseChannel(name string) (Channel, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "gray", "grey":
		return Value, nil
	default:
		for c, s := range channelNames {
			if s == n {
				return Channel(c), nil
			}
		}
	}
	return 0, fmt.Errorf("unknown channel: %q", name)
}

// mustValid panics on out-of-range channel values. Those are programming
// errors, not unavailable data.
func (c Channel) mustValid() {
	if !c.valid() {
		panic(fmt.Sprintf("histogram: invalid channel %d", int(c)))
	}
}

// PixelValue returns the value ch takes for a single pixel of len(px)
// components. RGB yields the mean of the three colour samples. The second
// result is false when the pixel layout has no such channel.
func PixelValue(ch Channel, px []float32) (float64, bool) {
	ch.mustValid()
	n := len(px)
	switch ch {
	case Value:
		if n < 3 {
			return float64(px[0]), n > 0
		}
		return math.Max(float64(px[0]), math.Max(float64(px[1]), float64(px[2]))), true
	case Alpha:
		if n == 2 || n == 4 {
			return float64(px[n-1]), true
		}
	case Red, Green, Blue:
		if n >= 3 {
			return float64(px[ch-Red]), true
		}
	case Luminance:
		if n >= 3 {
			return luminance(float64(px[0]), float64(px[1]), float64(px[2])), true
		}
	case RGB:
		if n >= 3 {
			return (float64(px[0]) + float64(px[1]) + float64(px[2])) / 3, true
		}
	}
	return 0, false
}
