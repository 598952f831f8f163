package training

import (
	"fmt"
	"math"
	"strconv"
)

// FormatTime renders seconds as MM:SS. Minutes do not roll over into hours,
// so 7260 renders as "121:00". Negative input renders as "00:00".
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// FormatNumber abbreviates large values: 1500 → "1.5K", 1500000 → "1.5M".
// Smaller values render as a rounded integer.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "0"
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", n/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", n/1_000)
	}
	r := math.Round(n)
	if r == 0 {
		// avoid "-0"
		r = 0
	}
	return strconv.FormatFloat(r, 'f', 0, 64)
}

func FormatWeight(kg float64) string {
	return strconv.FormatFloat(kg, 'f', -1, 64) + " kg"
}
