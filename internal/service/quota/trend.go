package quota

// CalcDelta returns the absolute change between two dashboard readings.
func CalcDelta(current, previous int) int {
	return current - previous
}

// CalcTrend returns the percentage change between two readings. The edge
// policy is fixed: 0→0 is flat (0), anything from a zero baseline is a
// full positive swing (100), otherwise the usual percentage.
func CalcTrend(current, previous int) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return float64(current-previous) / float64(previous) * 100
}
