package sdk

import (
	"math"
	"strconv"
)

var byteUnits = []string{"B", "KB", "MB", "GB"}

// FormatBytes renders n using base-1024 units (B, KB, MB, GB) rounded to two
// decimals, e.g. 1536 -> "1.5 KB". Zero and negative values render as "0 B".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}

	const k = 1024.0
	i := int(math.Floor(math.Log(float64(n)) / math.Log(k)))
	if i >= len(byteUnits) {
		i = len(byteUnits) - 1
	}

	v := math.Round(float64(n)/math.Pow(k, float64(i))*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + byteUnits[i]
}
